// Package models defines the core data structures shared across the
// parser, validators and reporters: block trees, identifiers, issues
// and validation results.
package models

// BlockType is the closed set of structural block types a marker may
// declare. Anything outside this set is a fatal parse error, never a
// silently tolerated extension.
type BlockType int

const (
	BlockUnknown BlockType = iota
	BlockSection
	BlockParagraph
	BlockList
	BlockTable
	BlockCode
	BlockFree
	BlockID
	BlockIDRef
)

var blockTypeNames = map[BlockType]string{
	BlockSection:   "section",
	BlockParagraph: "paragraph",
	BlockList:      "list",
	BlockTable:     "table",
	BlockCode:      "code",
	BlockFree:      "free",
	BlockID:        "id",
	BlockIDRef:     "id-ref",
}

func (t BlockType) String() string {
	if name, ok := blockTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseBlockType maps a marker type token to its BlockType, returning
// BlockUnknown for anything outside the closed set.
func ParseBlockType(s string) BlockType {
	for t, name := range blockTypeNames {
		if name == s {
			return t
		}
	}
	return BlockUnknown
}

// TemplateBlock is one node of a template's expected-schema tree.
type TemplateBlock struct {
	Type BlockType
	Name string

	// Level is the required heading level for section blocks, 0 otherwise.
	Level int

	Required   bool
	Repeatable bool

	// IDKind constrains the kind segment of identifiers in id and
	// id-ref blocks. It is the marker's name token.
	IDKind string

	// Has lists ID kinds that must be defined somewhere beneath this
	// block.
	Has []string

	// CoveredBy lists artifact kinds from which every identifier defined
	// in this block must be referenced.
	CoveredBy []string

	Children []*TemplateBlock
}

// Template is a parsed template file: the expected structure for one
// artifact kind. Built once per run and read-only afterwards.
type Template struct {
	Path         string
	Kind         string
	Prefix       string
	Strict       bool
	ForbidExtras bool
	Blocks       []*TemplateBlock
}

// ArtifactBlock is one node of an artifact's actual-content tree.
type ArtifactBlock struct {
	Type BlockType
	Name string

	// RawContent holds the source lines strictly between the open and
	// close markers, nested markers included.
	RawContent string

	StartLine int
	EndLine   int

	// RawID is the identifier string extracted from id and id-ref
	// blocks, empty when none was found.
	RawID  string
	IDLine int

	// Checked is the checkbox state attached to the identifier, nil when
	// the block carries no checkbox.
	Checked *bool

	Children []*ArtifactBlock
}

// Artifact is one parsed artifact file: its block tree plus every
// identifier definition and reference extracted from it.
type Artifact struct {
	Path   string
	Kind   string
	Prefix string
	Blocks []*ArtifactBlock

	Definitions []IdDefinition
	References  []IdReference
}
