package parser

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/spaider-dev/spaider/internal/marker"
	"github.com/spaider-dev/spaider/internal/models"
)

// templateFrontmatter is the metadata a template file carries.
type templateFrontmatter struct {
	Kind            string `yaml:"kind"`
	Prefix          string `yaml:"prefix"`
	ValidationLevel string `yaml:"validation_level"`
	ForbidExtras    bool   `yaml:"forbid_extras"`
}

// ParseTemplate loads a template file and builds the expected-schema
// tree. The tree is built once and read-only afterwards. Any marker or
// attribute failure is fatal: callers must not validate against a
// template that failed to parse.
func ParseTemplate(path, prefix string) (*models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot read template: %v", err)}
	}

	body, fm, consumed := extractFrontmatter(data)
	var meta templateFrontmatter
	if fm != nil {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("malformed frontmatter: %v", err)}
		}
	}
	if meta.Prefix != "" {
		prefix = meta.Prefix
	}

	nodes, err := marker.Scan(path, body, consumed+1, prefix)
	if err != nil {
		return nil, err
	}

	blocks, err := buildTemplateBlocks(path, nodes)
	if err != nil {
		return nil, err
	}

	return &models.Template{
		Path:         path,
		Kind:         meta.Kind,
		Prefix:       prefix,
		Strict:       meta.ValidationLevel == "strict",
		ForbidExtras: meta.ForbidExtras,
		Blocks:       blocks,
	}, nil
}

func buildTemplateBlocks(path string, nodes []*marker.Node) ([]*models.TemplateBlock, error) {
	var blocks []*models.TemplateBlock
	for _, node := range nodes {
		block, err := buildTemplateBlock(path, node)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func buildTemplateBlock(path string, node *marker.Node) (*models.TemplateBlock, error) {
	tok := node.Token
	block := &models.TemplateBlock{
		Type: tok.Type,
		Name: tok.Name,
	}

	if tok.Type == models.BlockSection {
		raw, _ := tok.Attr("level")
		level, _ := strconv.Atoi(raw)
		block.Level = level
	}

	if raw, ok := tok.Attr("required"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, attrError(path, tok.Line, "required", raw, "want true or false")
		}
		block.Required = v
	}

	if raw, ok := tok.Attr("repeat"); ok {
		switch raw {
		case "one":
		case "many":
			block.Repeatable = true
		default:
			return nil, attrError(path, tok.Line, "repeat", raw, `want "one" or "many"`)
		}
	}

	if raw, ok := tok.Attr("has"); ok {
		block.Has = splitCSV(raw)
		if len(block.Has) == 0 {
			return nil, attrError(path, tok.Line, "has", raw, "want a comma-separated kind list")
		}
	}

	if raw, ok := tok.Attr("covered_by"); ok {
		block.CoveredBy = splitCSV(raw)
		if len(block.CoveredBy) == 0 {
			return nil, attrError(path, tok.Line, "covered_by", raw, "want a comma-separated artifact-kind list")
		}
	}

	// For id and id-ref blocks the marker name is the ID category.
	if tok.Type == models.BlockID || tok.Type == models.BlockIDRef {
		block.IDKind = tok.Name
	}

	children, err := buildTemplateBlocks(path, node.Children)
	if err != nil {
		return nil, err
	}
	block.Children = children

	return block, nil
}

func attrError(path string, line int, key, value, want string) error {
	return &models.ParseError{
		Path:   path,
		Line:   line,
		Reason: models.ReasonMalformedAttribute,
		Detail: fmt.Sprintf("%s=%q: %s", key, value, want),
	}
}
