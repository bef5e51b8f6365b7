// Package parser turns marker-annotated Markdown files into the
// template and artifact trees the validators consume. Both file kinds
// share the marker scanner; templates additionally carry YAML
// frontmatter with artifact-kind metadata.
package parser

import (
	"bytes"
	"strings"
)

// extractFrontmatter splits YAML frontmatter (--- delimited, first
// line) from the body. Returns the body, the frontmatter bytes (nil if
// absent) and the number of leading lines consumed including both
// delimiters, so scanner line numbers stay absolute.
func extractFrontmatter(content []byte) (body, frontmatter []byte, consumed int) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil, 0
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			fm := bytes.Join(lines[1:i], []byte("\n"))
			rest := bytes.Join(lines[i+1:], []byte("\n"))
			return rest, fm, i + 1
		}
	}

	// No closing delimiter; treat the whole file as body.
	return content, nil, 0
}

// splitCSV splits a comma-separated attribute value, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
