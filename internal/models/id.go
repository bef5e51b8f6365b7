package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// idPattern captures the four dash-separated segments of an identifier
// plus an optional version suffix. The slug group is lazy so a trailing
// -vN is claimed by the version group, not the slug.
var idPattern = regexp.MustCompile(`^([a-z][a-z0-9]*)-([a-z][a-z0-9]*)-([a-z][a-z0-9]*)-([a-z0-9]+(?:-[a-z0-9]+)*?)(?:-v([0-9]+))?$`)

// ID is a parsed identifier: {prefix}-{project}-{kind}-{slug} with an
// optional -vN version suffix. Version 0 means unversioned.
type ID struct {
	Prefix  string
	Project string
	Kind    string
	Slug    string
	Version int
}

// ParseID parses an identifier string, enforcing the full grammar.
func ParseID(raw string) (ID, error) {
	m := idPattern.FindStringSubmatch(raw)
	if m == nil {
		return ID{}, fmt.Errorf("id %q does not match {prefix}-{project}-{kind}-{slug}", raw)
	}
	id := ID{
		Prefix:  m[1],
		Project: m[2],
		Kind:    m[3],
		Slug:    m[4],
	}
	if m[5] != "" {
		id.Version, _ = strconv.Atoi(m[5])
	}
	return id, nil
}

// String renders the identifier back to its canonical string form.
func (id ID) String() string {
	s := id.Prefix + "-" + id.Project + "-" + id.Kind + "-" + id.Slug
	if id.Version > 0 {
		s += "-v" + strconv.Itoa(id.Version)
	}
	return s
}

// Base returns the identifier without its version suffix. Two versioned
// identifiers with the same base name the same logical entity.
func (id ID) Base() string {
	return id.Prefix + "-" + id.Project + "-" + id.Kind + "-" + id.Slug
}

// BaseOf strips the version suffix from a raw identifier string. Inputs
// that fail the grammar come back unchanged.
func BaseOf(raw string) string {
	id, err := ParseID(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return id.Base()
}

// IdDefinition is one identifier definition site.
type IdDefinition struct {
	ID           string   `json:"id"`
	ArtifactPath string   `json:"artifactPath"`
	ArtifactKind string   `json:"artifactKind"`
	Line         int      `json:"line"`
	Checked      bool     `json:"checked"`
	HasCheckbox  bool     `json:"-"`
	CoveredBy    []string `json:"coveredBy,omitempty"`
}

// IdReference is one identifier reference site.
type IdReference struct {
	ID           string `json:"id"`
	ArtifactPath string `json:"artifactPath"`
	ArtifactKind string `json:"artifactKind"`
	Line         int    `json:"line"`
	Checked      bool   `json:"checked"`
	HasCheckbox  bool   `json:"-"`
}
