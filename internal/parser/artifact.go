package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spaider-dev/spaider/internal/marker"
	"github.com/spaider-dev/spaider/internal/models"
)

// checkboxPattern matches a Markdown task-list line: - [ ] or - [x].
var checkboxPattern = regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]`)

// ParseArtifact loads one artifact file and builds the actual-content
// tree, extracting embedded identifiers, checkbox state and line ranges
// along the way. The tree is rebuilt fresh on every run so results are
// a pure function of current file content.
func ParseArtifact(path, prefix, kind string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot read artifact: %v", err)}
	}

	body, _, consumed := extractFrontmatter(data)
	nodes, err := marker.Scan(path, body, consumed+1, prefix)
	if err != nil {
		return nil, err
	}

	art := &models.Artifact{
		Path:   path,
		Kind:   kind,
		Prefix: prefix,
	}
	art.Blocks = buildArtifactBlocks(art, nodes, prefix)
	return art, nil
}

func buildArtifactBlocks(art *models.Artifact, nodes []*marker.Node, prefix string) []*models.ArtifactBlock {
	var blocks []*models.ArtifactBlock
	for _, node := range nodes {
		blocks = append(blocks, buildArtifactBlock(art, node, prefix))
	}
	return blocks
}

func buildArtifactBlock(art *models.Artifact, node *marker.Node, prefix string) *models.ArtifactBlock {
	tok := node.Token
	block := &models.ArtifactBlock{
		Type:       tok.Type,
		Name:       tok.Name,
		RawContent: node.Content,
		StartLine:  node.StartLine,
		EndLine:    node.EndLine,
	}

	if tok.Type == models.BlockID || tok.Type == models.BlockIDRef {
		extractIdentifier(block, node, prefix)
		switch tok.Type {
		case models.BlockID:
			if block.RawID != "" {
				art.Definitions = append(art.Definitions, models.IdDefinition{
					ID:           block.RawID,
					ArtifactPath: art.Path,
					ArtifactKind: art.Kind,
					Line:         block.IDLine,
					Checked:      block.Checked != nil && *block.Checked,
					HasCheckbox:  block.Checked != nil,
				})
			}
		case models.BlockIDRef:
			if block.RawID != "" {
				art.References = append(art.References, models.IdReference{
					ID:           block.RawID,
					ArtifactPath: art.Path,
					ArtifactKind: art.Kind,
					Line:         block.IDLine,
					Checked:      block.Checked != nil && *block.Checked,
					HasCheckbox:  block.Checked != nil,
				})
			}
		}
	}

	block.Children = buildArtifactBlocks(art, node.Children, prefix)
	return block
}

// extractIdentifier locates the first token shaped like an identifier
// for the configured prefix inside the block, plus the checkbox state
// on the identifier's line (or the nearest checkbox line above it
// within the block).
func extractIdentifier(block *models.ArtifactBlock, node *marker.Node, prefix string) {
	idToken := regexp.MustCompile(`(?:^|[^a-z0-9-])(` + regexp.QuoteMeta(prefix) + `-[a-z0-9][a-z0-9-]*)`)

	lines := strings.Split(node.Content, "\n")
	var checkboxState *bool
	for i, line := range lines {
		if m := checkboxPattern.FindStringSubmatch(line); m != nil {
			checked := m[1] == "x" || m[1] == "X"
			checkboxState = &checked
		}
		if m := idToken.FindStringSubmatch(line); m != nil {
			block.RawID = m[1]
			block.IDLine = node.StartLine + 1 + i
			block.Checked = checkboxState
			return
		}
	}

	// Self-closing markers carry no content; nothing to extract.
}
