// Package marker tokenizes the HTML comment markers that delimit
// structural blocks in templates and artifacts, and assembles them into
// a block tree. Matching is an explicit stack machine so unbalanced
// markers are detected with precise line numbers.
package marker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spaider-dev/spaider/internal/models"
)

// Attr is one key="value" marker attribute. Attribute order is
// preserved from the source.
type Attr struct {
	Key   string
	Value string
}

// Token is one parsed marker comment.
type Token struct {
	Prefix      string
	Type        models.BlockType
	RawType     string
	Name        string
	Attrs       []Attr
	SelfClosing bool
	Line        int
}

// Attr returns the value of the named attribute and whether it was set.
func (t Token) Attr(key string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Node is one block in the assembled tree. Content holds the raw lines
// strictly between the open and close markers, nested markers included.
type Node struct {
	Token     Token
	StartLine int
	EndLine   int
	Content   string
	Children  []*Node
}

// attribute keys the grammar accepts
var knownAttrs = map[string]bool{
	"required":   true,
	"repeat":     true,
	"has":        true,
	"covered_by": true,
	"level":      true,
}

var attrPattern = regexp.MustCompile(`^([a-z_]+)="([^"]*)"`)

type frame struct {
	token    Token
	children []*Node
}

// Scan tokenizes source and assembles the block tree. startLine is the
// 1-based file line of the first source line; callers that strip YAML
// frontmatter pass the offset so reported line numbers stay absolute.
// Markers inside fenced code blocks are ignored, and markers whose
// prefix differs from the expected one are treated as plain content.
func Scan(path string, source []byte, startLine int, prefix string) ([]*Node, error) {
	lines := strings.Split(string(source), "\n")

	var roots []*Node
	var stack []*frame
	inFence := false

	appendNode := func(n *Node) {
		if len(stack) == 0 {
			roots = append(roots, n)
			return
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, n)
	}

	for i, line := range lines {
		lineNo := startLine + i

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if !isMarkerLine(trimmed, prefix) {
			continue
		}

		tok, err := parseToken(path, trimmed, lineNo)
		if err != nil {
			return nil, err
		}

		if tok.SelfClosing {
			appendNode(&Node{Token: tok, StartLine: lineNo, EndLine: lineNo})
			continue
		}

		// A token identical in (type, name) to the innermost open marker
		// and carrying no attributes closes it.
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if len(tok.Attrs) == 0 && tok.Type == top.token.Type && tok.Name == top.token.Name {
				node := &Node{
					Token:     top.token,
					StartLine: top.token.Line,
					EndLine:   lineNo,
					Content:   contentBetween(lines, startLine, top.token.Line, lineNo),
					Children:  top.children,
				}
				stack = stack[:len(stack)-1]
				appendNode(node)
				continue
			}
		}

		// A close marker that matches an outer open marker but not the
		// innermost one means the blocks interleave.
		if len(tok.Attrs) == 0 {
			for d := len(stack) - 2; d >= 0; d-- {
				open := stack[d].token
				if tok.Type == open.Type && tok.Name == open.Name {
					return nil, &models.ParseError{
						Path:   path,
						Line:   lineNo,
						Reason: models.ReasonUnbalancedMarkers,
						Detail: fmt.Sprintf("close marker for %s:%s crosses block %s:%s opened at line %d",
							tok.RawType, tok.Name, stack[len(stack)-1].token.RawType, stack[len(stack)-1].token.Name, stack[len(stack)-1].token.Line),
					}
				}
			}
		}

		// Open markers for section blocks must state their heading level.
		if tok.Type == models.BlockSection {
			if err := checkSectionLevel(path, tok); err != nil {
				return nil, err
			}
		}

		stack = append(stack, &frame{token: tok})
	}

	if len(stack) > 0 {
		innermost := stack[len(stack)-1].token
		return nil, &models.ParseError{
			Path:   path,
			Line:   innermost.Line,
			Reason: models.ReasonUnbalancedMarkers,
			Detail: fmt.Sprintf("marker %s:%s is never closed", innermost.RawType, innermost.Name),
		}
	}

	return roots, nil
}

// isMarkerLine reports whether a trimmed line is a marker comment for
// the expected prefix. Comments for other prefixes belong to other
// tools and pass through as content.
func isMarkerLine(trimmed, prefix string) bool {
	if !strings.HasPrefix(trimmed, "<!--") || !strings.HasSuffix(trimmed, "-->") {
		return false
	}
	inner := strings.TrimSpace(trimmed[4 : len(trimmed)-3])
	return strings.HasPrefix(inner, prefix+":")
}

func parseToken(path, trimmed string, lineNo int) (Token, error) {
	inner := strings.TrimSpace(trimmed[4 : len(trimmed)-3])

	selfClosing := false
	if strings.HasSuffix(inner, "/") {
		selfClosing = true
		inner = strings.TrimSpace(strings.TrimSuffix(inner, "/"))
	}

	head := inner
	rest := ""
	if idx := strings.IndexAny(inner, " \t"); idx >= 0 {
		head = inner[:idx]
		rest = strings.TrimSpace(inner[idx:])
	}

	parts := strings.Split(head, ":")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return Token{}, &models.ParseError{
			Path:   path,
			Line:   lineNo,
			Reason: models.ReasonMalformedAttribute,
			Detail: fmt.Sprintf("marker %q: want {prefix}:{type}:{name}", head),
		}
	}

	blockType := models.ParseBlockType(parts[1])
	if blockType == models.BlockUnknown {
		return Token{}, &models.ParseError{
			Path:   path,
			Line:   lineNo,
			Reason: models.ReasonUnknownBlockType,
			Detail: fmt.Sprintf("unknown block type %q", parts[1]),
		}
	}

	tok := Token{
		Prefix:      parts[0],
		Type:        blockType,
		RawType:     parts[1],
		Name:        parts[2],
		SelfClosing: selfClosing,
		Line:        lineNo,
	}

	for rest != "" {
		m := attrPattern.FindStringSubmatch(rest)
		if m == nil {
			return Token{}, &models.ParseError{
				Path:   path,
				Line:   lineNo,
				Reason: models.ReasonMalformedAttribute,
				Detail: fmt.Sprintf("cannot parse attributes at %q", rest),
			}
		}
		if !knownAttrs[m[1]] {
			return Token{}, &models.ParseError{
				Path:   path,
				Line:   lineNo,
				Reason: models.ReasonMalformedAttribute,
				Detail: fmt.Sprintf("unknown attribute %q", m[1]),
			}
		}
		tok.Attrs = append(tok.Attrs, Attr{Key: m[1], Value: m[2]})
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	return tok, nil
}

// checkSectionLevel enforces the level attribute on section open
// markers. An attribute-less section token is only valid as a close
// marker, which the caller resolves before reaching here.
func checkSectionLevel(path string, tok Token) error {
	raw, ok := tok.Attr("level")
	if !ok {
		return &models.ParseError{
			Path:   path,
			Line:   tok.Line,
			Reason: models.ReasonMalformedAttribute,
			Detail: fmt.Sprintf("section marker %q requires a level attribute", tok.Name),
		}
	}
	level, err := strconv.Atoi(raw)
	if err != nil || level < 1 || level > 6 {
		return &models.ParseError{
			Path:   path,
			Line:   tok.Line,
			Reason: models.ReasonMalformedAttribute,
			Detail: fmt.Sprintf("section level %q: want 1-6", raw),
		}
	}
	return nil
}

// contentBetween joins the raw lines strictly between the open and
// close marker lines. Line numbers are absolute; startLine anchors them
// back to slice indices.
func contentBetween(lines []string, startLine, openLine, closeLine int) string {
	from := openLine - startLine + 1
	to := closeLine - startLine
	if from >= to {
		return ""
	}
	return strings.Join(lines[from:to], "\n")
}
