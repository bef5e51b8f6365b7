// Package display renders validation results and warnings for humans.
// The JSON surface lives in the report package; everything here is the
// colored terminal view.
package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spaider-dev/spaider/internal/models"
)

// colorScheme defines consistent colors across renderings.
// Green: PASS, red: FAIL and errors, yellow: warnings, cyan: labels.
type colorScheme struct {
	pass  *color.Color
	fail  *color.Color
	warn  *color.Color
	label *color.Color
}

// newColorScheme creates the standard scheme. Colors are automatically
// disabled when output is not a TTY via fatih/color's own detection.
func newColorScheme() *colorScheme {
	return &colorScheme{
		pass:  color.New(color.FgGreen, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		label: color.New(color.FgCyan),
	}
}

// RenderResult writes one artifact's validation outcome: a status line
// followed by each issue with its location and rule.
func RenderResult(out io.Writer, res models.ValidationResult) {
	scheme := newColorScheme()

	status := scheme.pass.Sprint(res.Status)
	if res.Status == models.StatusFail {
		status = scheme.fail.Sprint(res.Status)
	}
	fmt.Fprintf(out, "%s  %s  score %d/100  (%d errors, %d warnings)\n",
		status, scheme.label.Sprint(res.ArtifactPath), res.Score, res.Errors, res.Warnings)

	for _, issue := range res.Issues {
		severity := scheme.warn.Sprint(issue.Severity)
		if issue.Severity == models.SeverityError {
			severity = scheme.fail.Sprint(issue.Severity)
		}
		location := fmt.Sprintf("line %d", issue.Line)
		if issue.Path != "" && issue.Path != res.ArtifactPath {
			location = fmt.Sprintf("%s:%d", issue.Path, issue.Line)
		}
		fmt.Fprintf(out, "  %-7s %-12s %s  %s\n", severity, location, scheme.label.Sprint(issue.RuleID), issue.Message)
	}
}

// RenderResults writes a sequence of results with a trailing summary.
func RenderResults(out io.Writer, results []models.ValidationResult) {
	passed := 0
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		RenderResult(out, res)
		if res.Status == models.StatusPass {
			passed++
		}
	}
	if len(results) > 1 {
		fmt.Fprintf(out, "\n%d/%d artifacts passed\n", passed, len(results))
	}
}
