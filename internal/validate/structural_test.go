package validate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaider-dev/spaider/internal/models"
)

func issuesByRule(issues []models.Issue, rule string) []models.Issue {
	var out []models.Issue
	for _, issue := range issues {
		if issue.RuleID == rule {
			out = append(out, issue)
		}
	}
	return out
}

func entryTemplate() *models.Template {
	return &models.Template{
		Kind:   "spec",
		Prefix: "spd",
		Blocks: []*models.TemplateBlock{
			{
				Type:       models.BlockSection,
				Name:       "entry",
				Level:      2,
				Required:   true,
				Repeatable: true,
				Children: []*models.TemplateBlock{
					{Type: models.BlockID, Name: "actor", IDKind: "actor", Required: true},
					{Type: models.BlockParagraph, Name: "role", Required: true},
				},
			},
		},
	}
}

func entryBlock(startLine int, id string, withRole bool) *models.ArtifactBlock {
	block := &models.ArtifactBlock{
		Type:       models.BlockSection,
		Name:       "entry",
		RawContent: "## Entry",
		StartLine:  startLine,
		EndLine:    startLine + 8,
		Children: []*models.ArtifactBlock{
			{
				Type:      models.BlockID,
				Name:      "actor",
				RawID:     id,
				IDLine:    startLine + 3,
				StartLine: startLine + 2,
				EndLine:   startLine + 4,
			},
		},
	}
	if withRole {
		block.Children = append(block.Children, &models.ArtifactBlock{
			Type:       models.BlockParagraph,
			Name:       "role",
			RawContent: "Keeps the lights on.",
			StartLine:  startLine + 5,
			EndLine:    startLine + 7,
		})
	}
	return block
}

func TestStructureRepeatedEntriesPass(t *testing.T) {
	art := &models.Artifact{
		Path: "spec.md",
		Kind: "spec",
		Blocks: []*models.ArtifactBlock{
			entryBlock(1, "spd-acme-actor-admin", true),
			entryBlock(10, "spd-acme-actor-guest", true),
		},
	}

	issues := Structure(entryTemplate(), art, Options{Project: "acme"})
	assert.Empty(t, issues)
}

// A repeated section where one instance omits a required child must
// produce exactly one finding, anchored at the incomplete instance.
func TestStructureIncompleteRepeatedEntry(t *testing.T) {
	art := &models.Artifact{
		Path: "spec.md",
		Kind: "spec",
		Blocks: []*models.ArtifactBlock{
			entryBlock(1, "spd-acme-actor-admin", true),
			entryBlock(10, "spd-acme-actor-guest", true),
			entryBlock(20, "spd-acme-actor-auditor", false),
		},
	}

	issues := Structure(entryTemplate(), art, Options{Project: "acme"})
	missing := issuesByRule(issues, models.RuleMissingRequiredBlock)
	require.Len(t, missing, 1)
	assert.Equal(t, models.SeverityError, missing[0].Severity)
	assert.Equal(t, 20, missing[0].Line)
	assert.Len(t, issues, 1)
}

func TestStructureMissingRequiredTopLevelBlock(t *testing.T) {
	issues := Structure(entryTemplate(), &models.Artifact{Path: "spec.md", Kind: "spec"}, Options{})
	missing := issuesByRule(issues, models.RuleMissingRequiredBlock)
	require.Len(t, missing, 1)
	assert.Equal(t, 1, missing[0].Line, "top-level findings anchor at line 1")
}

func TestStructureOutOfOrderBlock(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockParagraph, Name: "summary", Required: true},
			{Type: models.BlockParagraph, Name: "details", Required: true},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockParagraph, Name: "details", RawContent: "d", StartLine: 1, EndLine: 3},
			{Type: models.BlockParagraph, Name: "summary", RawContent: "s", StartLine: 4, EndLine: 6},
		},
	}

	issues := Structure(tmpl, art, Options{})
	ooo := issuesByRule(issues, models.RuleOutOfOrderBlock)
	require.Len(t, ooo, 1)
	assert.Equal(t, 1, ooo[0].Line)
}

func TestStructureUnexpectedBlock(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockParagraph, Name: "summary"},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockParagraph, Name: "summary", RawContent: "s", StartLine: 1, EndLine: 3},
			{Type: models.BlockParagraph, Name: "notes", RawContent: "n", StartLine: 4, EndLine: 6},
		},
	}

	issues := Structure(tmpl, art, Options{})
	extra := issuesByRule(issues, models.RuleUnexpectedBlock)
	require.Len(t, extra, 1)
	assert.Equal(t, models.SeverityWarning, extra[0].Severity, "extras are tolerated by default")
	assert.Equal(t, 4, extra[0].Line)

	issues = Structure(tmpl, art, Options{Strict: true})
	extra = issuesByRule(issues, models.RuleUnexpectedBlock)
	require.Len(t, extra, 1)
	assert.Equal(t, models.SeverityError, extra[0].Severity, "strict escalates extras to errors")
}

func TestStructureNonRepeatableDuplicate(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockParagraph, Name: "summary", Required: true},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockParagraph, Name: "summary", RawContent: "a", StartLine: 1, EndLine: 3},
			{Type: models.BlockParagraph, Name: "summary", RawContent: "b", StartLine: 4, EndLine: 6},
		},
	}

	issues := Structure(tmpl, art, Options{})
	extra := issuesByRule(issues, models.RuleUnexpectedBlock)
	require.Len(t, extra, 1)
	assert.Equal(t, 4, extra[0].Line, "only the second occurrence is flagged")
}

func TestStructureIdentifierChecks(t *testing.T) {
	tests := []struct {
		name    string
		rawID   string
		opts    Options
		idKind  string
		wantMsg string
	}{
		{
			name:    "no identifier",
			rawID:   "",
			wantMsg: "contains no identifier",
		},
		{
			name:    "malformed identifier",
			rawID:   "spd-Acme-actor-admin",
			wantMsg: "does not match",
		},
		{
			name:    "wrong project",
			rawID:   "spd-other-actor-admin",
			opts:    Options{Project: "acme"},
			wantMsg: `belongs to project "other"`,
		},
		{
			name:    "kind differs from block kind",
			rawID:   "spd-acme-task-admin",
			idKind:  "actor",
			wantMsg: `has kind "task"`,
		},
		{
			name:    "undeclared kind",
			rawID:   "spd-acme-task-admin",
			opts:    Options{IDKinds: map[string]bool{"actor": true}},
			wantMsg: `undeclared kind "task"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &models.Template{
				Blocks: []*models.TemplateBlock{
					{Type: models.BlockID, Name: "x", IDKind: tt.idKind},
				},
			}
			art := &models.Artifact{
				Blocks: []*models.ArtifactBlock{
					{Type: models.BlockID, Name: "x", RawID: tt.rawID, IDLine: 2, StartLine: 1, EndLine: 3},
				},
			}

			issues := Structure(tmpl, art, tt.opts)
			bad := issuesByRule(issues, models.RuleInvalidIDFormat)
			require.Len(t, bad, 1)
			assert.Contains(t, bad[0].Message, tt.wantMsg)
		})
	}
}

func TestStructureCopiesCoverageOntoDefinitions(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockID, Name: "fr", IDKind: "fr", CoveredBy: []string{"plan"}},
		},
	}
	art := &models.Artifact{
		Path: "spec.md",
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockID, Name: "fr", RawID: "spd-acme-fr-login", IDLine: 2, StartLine: 1, EndLine: 3},
		},
		Definitions: []models.IdDefinition{
			{ID: "spd-acme-fr-login", ArtifactPath: "spec.md", Line: 2},
		},
	}

	issues := Structure(tmpl, art, Options{Project: "acme"})
	assert.Empty(t, issues)
	assert.Equal(t, []string{"plan"}, art.Definitions[0].CoveredBy)
}

func TestStructureSectionHeadingLevel(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockSection, Name: "overview", Level: 2},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockSection, Name: "overview", RawContent: "### Overview", StartLine: 1, EndLine: 3},
		},
	}

	issues := Structure(tmpl, art, Options{})
	mismatch := issuesByRule(issues, models.RuleContentKindMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, models.SeverityWarning, mismatch[0].Severity)
	assert.Contains(t, mismatch[0].Message, "heading level 3")
}

func TestStructureContentKindMismatch(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockList, Name: "steps"},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{Type: models.BlockList, Name: "steps", RawContent: "Just prose, no list.", StartLine: 1, EndLine: 3},
		},
	}

	issues := Structure(tmpl, art, Options{})
	mismatch := issuesByRule(issues, models.RuleContentKindMismatch)
	require.Len(t, mismatch, 1)
	assert.Contains(t, mismatch[0].Message, "paragraph content")
}

func TestStructureHasConstraint(t *testing.T) {
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{
				Type: models.BlockSection, Name: "reqs", Level: 2,
				Has: []string{"fr", "nfr"},
				Children: []*models.TemplateBlock{
					{Type: models.BlockID, Name: "fr", IDKind: "fr", Repeatable: true},
				},
			},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{
				Type: models.BlockSection, Name: "reqs", RawContent: "## Requirements", StartLine: 1, EndLine: 10,
				Children: []*models.ArtifactBlock{
					{Type: models.BlockID, Name: "fr", RawID: "spd-acme-fr-login", IDLine: 3, StartLine: 2, EndLine: 4},
				},
			},
		},
	}

	issues := Structure(tmpl, art, Options{Project: "acme"})
	missing := issuesByRule(issues, models.RuleMissingRequiredBlock)
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0].Message, "nfr")
	assert.Equal(t, 1, missing[0].Line)
}

func TestStructurePlaceholders(t *testing.T) {
	placeholders := []*regexp.Regexp{regexp.MustCompile(`\bTODO\b`)}
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{Type: models.BlockParagraph, Name: "summary"},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{
				Type: models.BlockParagraph, Name: "summary",
				RawContent: "First line fine.\nTODO write this\nLast line fine.",
				StartLine:  1, EndLine: 5,
			},
		},
	}

	issues := Structure(tmpl, art, Options{Placeholders: placeholders})
	found := issuesByRule(issues, models.RulePlaceholderContent)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityWarning, found[0].Severity)
	assert.Equal(t, 3, found[0].Line)

	issues = Structure(tmpl, art, Options{Strict: true, Placeholders: placeholders})
	found = issuesByRule(issues, models.RulePlaceholderContent)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestStructurePlaceholdersSkipChildLines(t *testing.T) {
	placeholders := []*regexp.Regexp{regexp.MustCompile(`\bTODO\b`)}
	tmpl := &models.Template{
		Blocks: []*models.TemplateBlock{
			{
				Type: models.BlockSection, Name: "s", Level: 2,
				Children: []*models.TemplateBlock{
					{Type: models.BlockParagraph, Name: "p"},
				},
			},
		},
	}
	art := &models.Artifact{
		Blocks: []*models.ArtifactBlock{
			{
				Type: models.BlockSection, Name: "s",
				RawContent: "## S\n<!-- open -->\nTODO inside child\n<!-- close -->",
				StartLine:  1, EndLine: 6,
				Children: []*models.ArtifactBlock{
					{
						Type: models.BlockParagraph, Name: "p",
						RawContent: "TODO inside child",
						StartLine:  3, EndLine: 5,
					},
				},
			},
		},
	}

	issues := Structure(tmpl, art, Options{Placeholders: placeholders})
	found := issuesByRule(issues, models.RulePlaceholderContent)
	// The child's lines are excluded from the parent's own scan, so the
	// placeholder is reported once, at the child's line.
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].Line)
}
