package validate

import (
	"sort"

	"github.com/spaider-dev/spaider/internal/models"
)

// Index is the global identifier index assembled from every artifact in
// a cross-artifact validation run. The first definition of an ID wins
// for lookup purposes; later ones are retained as duplicates so all
// occurrences get reported.
type Index struct {
	definitions map[string]models.IdDefinition
	duplicates  []models.IdDefinition
	byBase      map[string][]string
}

// NewIndex returns an empty identifier index.
func NewIndex() *Index {
	return &Index{
		definitions: make(map[string]models.IdDefinition),
		byBase:      make(map[string][]string),
	}
}

// Add records one definition. Exact-string duplicates are kept aside
// rather than silently overwriting the original.
func (ix *Index) Add(def models.IdDefinition) {
	if _, exists := ix.definitions[def.ID]; exists {
		ix.duplicates = append(ix.duplicates, def)
		return
	}
	ix.definitions[def.ID] = def
	base := models.BaseOf(def.ID)
	ix.byBase[base] = append(ix.byBase[base], def.ID)
}

// AddAll records every definition of one artifact.
func (ix *Index) AddAll(defs []models.IdDefinition) {
	for _, def := range defs {
		ix.Add(def)
	}
}

// Definition looks up a definition by exact identifier string,
// version suffix included.
func (ix *Index) Definition(id string) (models.IdDefinition, bool) {
	def, ok := ix.definitions[id]
	return def, ok
}

// Definitions returns all indexed definitions ordered by identifier.
func (ix *Index) Definitions() []models.IdDefinition {
	ids := make([]string, 0, len(ix.definitions))
	for id := range ix.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.IdDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.definitions[id])
	}
	return out
}

// CrossReferences resolves every reference against the index and checks
// duplicate definitions, version staleness, checkbox consistency and
// covered_by coverage. Every issue carries the path of the artifact it
// belongs to.
func CrossReferences(ix *Index, refs []models.IdReference) []models.Issue {
	var issues []models.Issue

	for _, dup := range ix.duplicates {
		orig := ix.definitions[dup.ID]
		issue := models.Error(models.RuleDuplicateDefinition, dup.Line,
			"id %q is already defined at %s:%d", dup.ID, orig.ArtifactPath, orig.Line)
		issue.Path = dup.ArtifactPath
		issues = append(issues, issue)
	}

	for _, ref := range refs {
		def, ok := ix.definitions[ref.ID]
		if !ok {
			issues = append(issues, resolveFailure(ix, ref))
			continue
		}

		if ref.HasCheckbox && def.HasCheckbox && ref.Checked != def.Checked {
			issue := models.Error(models.RuleCheckboxMismatch, ref.Line,
				"reference to %q is %s but its definition at %s:%d is %s",
				ref.ID, checkboxState(ref.Checked), def.ArtifactPath, def.Line, checkboxState(def.Checked))
			issue.Path = ref.ArtifactPath
			issues = append(issues, issue)
		}
	}

	issues = append(issues, coverageIssues(ix, refs)...)
	return issues
}

// resolveFailure distinguishes a reference to a replaced version of a
// known entity from a reference to nothing. A reference to foo-v1 with
// only foo-v2 defined is stale, never silently resolved.
func resolveFailure(ix *Index, ref models.IdReference) models.Issue {
	base := models.BaseOf(ref.ID)
	if defined := ix.byBase[base]; len(defined) > 0 {
		issue := models.Error(models.RuleStaleIDReference, ref.Line,
			"reference to %q does not match any definition; the entity is defined as %q", ref.ID, defined[0])
		issue.Path = ref.ArtifactPath
		return issue
	}
	issue := models.Error(models.RuleUnresolvedReference, ref.Line,
		"reference to %q has no definition", ref.ID)
	issue.Path = ref.ArtifactPath
	return issue
}

// coverageIssues enforces covered_by: each constrained definition needs
// at least one reference originating from an artifact of one of the
// named kinds.
func coverageIssues(ix *Index, refs []models.IdReference) []models.Issue {
	var issues []models.Issue
	for _, def := range ix.Definitions() {
		if len(def.CoveredBy) == 0 {
			continue
		}
		if coveredBy(def, refs) {
			continue
		}
		issue := models.Error(models.RuleMissingCoverage, def.Line,
			"id %q must be referenced from a %s artifact", def.ID, joinOr(def.CoveredBy))
		issue.Path = def.ArtifactPath
		issues = append(issues, issue)
	}
	return issues
}

func coveredBy(def models.IdDefinition, refs []models.IdReference) bool {
	kinds := make(map[string]bool, len(def.CoveredBy))
	for _, k := range def.CoveredBy {
		kinds[k] = true
	}
	for _, ref := range refs {
		if ref.ID == def.ID && kinds[ref.ArtifactKind] {
			return true
		}
	}
	return false
}

func checkboxState(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

func joinOr(kinds []string) string {
	switch len(kinds) {
	case 0:
		return ""
	case 1:
		return kinds[0]
	default:
		out := kinds[0]
		for _, k := range kinds[1:] {
			out += " or " + k
		}
		return out
	}
}
