// Package validate implements structural validation of one artifact
// against its template and cross-reference validation of identifiers
// across a whole artifact set. Validators accumulate every finding in a
// single pass; only parse failures abort a run.
package validate

import (
	"regexp"

	"github.com/spaider-dev/spaider/internal/models"
	"github.com/spaider-dev/spaider/internal/parser"
)

// Options carries the per-call validation configuration. It is passed
// explicitly into every call, never held as process state, so parallel
// validation of multiple artifacts stays safe.
type Options struct {
	Strict       bool
	Project      string          // expected project segment of every ID
	IDKinds      map[string]bool // declared ID kinds; empty accepts any
	Placeholders []*regexp.Regexp
}

// Structure validates the artifact's block tree against the template's
// expected-schema tree in document order. As a side effect it copies
// covered_by constraints from matched template id blocks onto the
// artifact's definitions so the cross-reference phase can enforce
// coverage.
func Structure(tmpl *models.Template, art *models.Artifact, opts Options) []models.Issue {
	v := &structureValidator{
		tmpl: tmpl,
		art:  art,
		opts: opts,
	}
	return v.walkLevel(tmpl.Blocks, art.Blocks, 1)
}

type structureValidator struct {
	tmpl   *models.Template
	art    *models.Artifact
	opts   Options
	issues []models.Issue
}

// walkLevel matches one level of sibling blocks. anchorLine is where
// missing-block findings point: the enclosing block's open marker, or
// line 1 at the top level.
func (v *structureValidator) walkLevel(tblocks []*models.TemplateBlock, ablocks []*models.ArtifactBlock, anchorLine int) []models.Issue {
	matched := make([]bool, len(ablocks))
	lastMatch := -1

	for _, tb := range tblocks {
		var matches []int
		for i, ab := range ablocks {
			if !matched[i] && ab.Type == tb.Type && ab.Name == tb.Name {
				matches = append(matches, i)
			}
		}

		if len(matches) == 0 {
			if tb.Required {
				v.issues = append(v.issues, models.Error(models.RuleMissingRequiredBlock, anchorLine,
					"required block %s:%s is missing", tb.Type, tb.Name))
			}
			continue
		}

		use := matches
		if !tb.Repeatable {
			use = matches[:1]
			for _, i := range matches[1:] {
				matched[i] = true
				v.issues = append(v.issues, v.extraBlockIssue(ablocks[i],
					"block %s:%s appears more than once but repeat is one", tb.Type, tb.Name))
			}
		}

		if use[0] < lastMatch {
			v.issues = append(v.issues, models.Error(models.RuleOutOfOrderBlock, ablocks[use[0]].StartLine,
				"block %s:%s appears out of template order", tb.Type, tb.Name))
		}

		for _, i := range use {
			matched[i] = true
			if i > lastMatch {
				lastMatch = i
			}
			ab := ablocks[i]
			v.checkBlock(tb, ab)
			v.walkLevel(tb.Children, ab.Children, ab.StartLine)
		}
	}

	for i, ab := range ablocks {
		if !matched[i] {
			v.issues = append(v.issues, v.extraBlockIssue(ab,
				"block %s:%s is not part of the template", ab.Type, ab.Name))
		}
	}

	return v.issues
}

// extraBlockIssue reports content the template does not expect. Extra
// content is tolerated by default for forward compatibility and only
// escalates to an error under strict validation or forbid_extras.
func (v *structureValidator) extraBlockIssue(ab *models.ArtifactBlock, format string, args ...interface{}) models.Issue {
	if v.opts.Strict || v.tmpl.ForbidExtras {
		return models.Error(models.RuleUnexpectedBlock, ab.StartLine, format, args...)
	}
	return models.Warning(models.RuleUnexpectedBlock, ab.StartLine, format, args...)
}

func (v *structureValidator) checkBlock(tb *models.TemplateBlock, ab *models.ArtifactBlock) {
	switch tb.Type {
	case models.BlockID, models.BlockIDRef:
		v.checkIdentifier(tb, ab)
	case models.BlockSection:
		v.checkSection(tb, ab)
	case models.BlockParagraph, models.BlockList, models.BlockTable, models.BlockCode:
		v.checkContentKind(tb, ab)
	}

	v.checkHas(tb, ab)
	v.checkPlaceholders(ab)
}

func (v *structureValidator) checkIdentifier(tb *models.TemplateBlock, ab *models.ArtifactBlock) {
	if ab.RawID == "" {
		v.issues = append(v.issues, models.Error(models.RuleInvalidIDFormat, ab.StartLine,
			"block %s:%s contains no identifier", tb.Type, tb.Name))
		return
	}

	id, err := models.ParseID(ab.RawID)
	if err != nil {
		v.issues = append(v.issues, models.Error(models.RuleInvalidIDFormat, ab.IDLine, "%v", err))
		return
	}

	if v.opts.Project != "" && id.Project != v.opts.Project {
		v.issues = append(v.issues, models.Error(models.RuleInvalidIDFormat, ab.IDLine,
			"id %q belongs to project %q, want %q", ab.RawID, id.Project, v.opts.Project))
	}
	if tb.IDKind != "" && id.Kind != tb.IDKind {
		v.issues = append(v.issues, models.Error(models.RuleInvalidIDFormat, ab.IDLine,
			"id %q has kind %q, block expects %q", ab.RawID, id.Kind, tb.IDKind))
	} else if len(v.opts.IDKinds) > 0 && !v.opts.IDKinds[id.Kind] {
		v.issues = append(v.issues, models.Error(models.RuleInvalidIDFormat, ab.IDLine,
			"id %q uses undeclared kind %q", ab.RawID, id.Kind))
	}

	if tb.Type == models.BlockID && len(tb.CoveredBy) > 0 {
		v.setCoverage(ab.RawID, tb.CoveredBy)
	}
}

// setCoverage attaches the template's covered_by constraint to the
// artifact definition extracted from this block.
func (v *structureValidator) setCoverage(id string, coveredBy []string) {
	for i := range v.art.Definitions {
		if v.art.Definitions[i].ID == id && len(v.art.Definitions[i].CoveredBy) == 0 {
			v.art.Definitions[i].CoveredBy = coveredBy
			return
		}
	}
}

func (v *structureValidator) checkSection(tb *models.TemplateBlock, ab *models.ArtifactBlock) {
	level, _, ok := parser.HeadingInfo(ab.RawContent)
	if !ok {
		v.issues = append(v.issues, models.Warning(models.RuleContentKindMismatch, ab.StartLine,
			"section block %s has no heading", tb.Name))
		return
	}
	if tb.Level > 0 && level != tb.Level {
		v.issues = append(v.issues, models.Warning(models.RuleContentKindMismatch, ab.StartLine,
			"section block %s uses heading level %d, template expects %d", tb.Name, level, tb.Level))
	}
}

// checkContentKind flags blocks whose content is a different Markdown
// construct than the marker claims, e.g. a list block holding prose.
// Blocks with nested children are skipped: their own content is mostly
// the children's.
func (v *structureValidator) checkContentKind(tb *models.TemplateBlock, ab *models.ArtifactBlock) {
	if len(ab.Children) > 0 {
		return
	}
	got := parser.ClassifyContent(ab.RawContent)
	if got == models.BlockFree || got == tb.Type {
		return
	}
	v.issues = append(v.issues, models.Warning(models.RuleContentKindMismatch, ab.StartLine,
		"block %s:%s contains %s content", tb.Type, tb.Name, got))
}

// checkHas enforces has="kind,..." constraints: the block must define
// at least one identifier of each listed kind somewhere beneath it.
func (v *structureValidator) checkHas(tb *models.TemplateBlock, ab *models.ArtifactBlock) {
	if len(tb.Has) == 0 {
		return
	}
	found := map[string]bool{}
	collectIDKinds(ab, found)
	for _, kind := range tb.Has {
		if !found[kind] {
			v.issues = append(v.issues, models.Error(models.RuleMissingRequiredBlock, ab.StartLine,
				"block %s:%s must define a %s identifier", tb.Type, tb.Name, kind))
		}
	}
}

func collectIDKinds(ab *models.ArtifactBlock, found map[string]bool) {
	for _, child := range ab.Children {
		if child.Type == models.BlockID && child.RawID != "" {
			if id, err := models.ParseID(child.RawID); err == nil {
				found[id.Kind] = true
			}
		}
		collectIDKinds(child, found)
	}
}

// checkPlaceholders scans the block's own lines (children excluded, so
// nested blocks are not reported twice) for configured placeholder
// patterns.
func (v *structureValidator) checkPlaceholders(ab *models.ArtifactBlock) {
	if len(v.opts.Placeholders) == 0 {
		return
	}

	for _, own := range ownLines(ab) {
		for _, pattern := range v.opts.Placeholders {
			if pattern.MatchString(own.text) {
				if v.opts.Strict {
					v.issues = append(v.issues, models.Error(models.RulePlaceholderContent, own.lineNo,
						"placeholder content %q left unfilled", pattern.FindString(own.text)))
				} else {
					v.issues = append(v.issues, models.Warning(models.RulePlaceholderContent, own.lineNo,
						"placeholder content %q left unfilled", pattern.FindString(own.text)))
				}
				break
			}
		}
	}
}

type contentLine struct {
	lineNo int
	text   string
}

// ownLines returns the block's content lines with absolute line
// numbers, excluding every line covered by a child block.
func ownLines(ab *models.ArtifactBlock) []contentLine {
	covered := func(lineNo int) bool {
		for _, child := range ab.Children {
			if lineNo >= child.StartLine && lineNo <= child.EndLine {
				return true
			}
		}
		return false
	}

	var out []contentLine
	lineNo := ab.StartLine + 1
	for _, line := range splitLines(ab.RawContent) {
		if !covered(lineNo) {
			out = append(out, contentLine{lineNo: lineNo, text: line})
		}
		lineNo++
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
