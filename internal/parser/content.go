package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/spaider-dev/spaider/internal/models"
)

var contentMarkdown = goldmark.New()

// tableRowPattern matches a pipe-table delimiter row. goldmark core has
// no table support without the GFM extension, so tables are detected
// before the AST pass.
var tableRowPattern = regexp.MustCompile(`^\s*\|?[\s:|-]*-{3,}[\s:|-]*\|`)

// ClassifyContent reports the dominant Markdown construct of a block's
// content: the kind of its first top-level node. Empty content
// classifies as free so required-but-empty blocks surface through the
// placeholder checks instead.
func ClassifyContent(content string) models.BlockType {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return models.BlockFree
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if strings.Contains(line, "|") && tableRowPattern.MatchString(line) {
			return models.BlockTable
		}
	}

	doc := contentMarkdown.Parser().Parse(text.NewReader([]byte(trimmed)))
	first := doc.FirstChild()
	if first == nil {
		return models.BlockFree
	}

	switch first.(type) {
	case *ast.Heading:
		return models.BlockSection
	case *ast.List:
		return models.BlockList
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return models.BlockCode
	case *ast.Paragraph:
		return models.BlockParagraph
	default:
		return models.BlockFree
	}
}

// HeadingInfo returns the level and text of the first heading in the
// content, if any.
func HeadingInfo(content string) (level int, title string, ok bool) {
	source := []byte(content)
	doc := contentMarkdown.Parser().Parse(text.NewReader(source))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, isHeading := n.(*ast.Heading); isHeading {
			return heading.Level, extractText(heading, source), true
		}
	}
	return 0, "", false
}

// extractText extracts plain text from an AST node's direct children.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, isText := c.(*ast.Text); isText {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}
