package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/spaider-dev/spaider/internal/models"
)

func plainRender(t *testing.T, render func(out *bytes.Buffer)) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	render(&buf)
	return buf.String()
}

func TestRenderResult(t *testing.T) {
	res := models.ValidationResult{
		ArtifactPath: "specs/auth.md",
		Status:       models.StatusFail,
		Score:        75,
		Errors:       1,
		Warnings:     1,
		Issues: []models.Issue{
			{Severity: models.SeverityError, Line: 4, RuleID: models.RuleMissingRequiredBlock, Message: "required block missing"},
			{Severity: models.SeverityWarning, Path: "plans/q3.md", Line: 9, RuleID: models.RuleUnexpectedBlock, Message: "extra block"},
		},
	}

	out := plainRender(t, func(buf *bytes.Buffer) { RenderResult(buf, res) })

	if !strings.Contains(out, "FAIL") {
		t.Errorf("Expected FAIL status in output:\n%s", out)
	}
	if !strings.Contains(out, "specs/auth.md") {
		t.Errorf("Expected artifact path in output:\n%s", out)
	}
	if !strings.Contains(out, "score 75/100") {
		t.Errorf("Expected score in output:\n%s", out)
	}
	if !strings.Contains(out, "line 4") {
		t.Errorf("Expected same-artifact location in output:\n%s", out)
	}
	if !strings.Contains(out, "plans/q3.md:9") {
		t.Errorf("Expected cross-artifact location in output:\n%s", out)
	}
	if !strings.Contains(out, "MISSING_REQUIRED_BLOCK") {
		t.Errorf("Expected rule id in output:\n%s", out)
	}
}

func TestRenderResultsSummary(t *testing.T) {
	results := []models.ValidationResult{
		{ArtifactPath: "a.md", Status: models.StatusPass, Score: 100},
		{ArtifactPath: "b.md", Status: models.StatusFail, Score: 40},
	}

	out := plainRender(t, func(buf *bytes.Buffer) { RenderResults(buf, results) })

	if !strings.Contains(out, "1/2 artifacts passed") {
		t.Errorf("Expected summary line in output:\n%s", out)
	}
}

func TestRenderResultsSingleHasNoSummary(t *testing.T) {
	results := []models.ValidationResult{
		{ArtifactPath: "a.md", Status: models.StatusPass, Score: 100},
	}

	out := plainRender(t, func(buf *bytes.Buffer) { RenderResults(buf, results) })

	if strings.Contains(out, "artifacts passed") {
		t.Errorf("Single result should not print a summary:\n%s", out)
	}
}

func TestWarningDisplay(t *testing.T) {
	warning := Warning{
		Title:      "some registered artifacts could not be parsed",
		Message:    "their identifiers are missing",
		Files:      []string{"a.md: unclosed marker", "b.md: bad attribute"},
		Suggestion: "fix the markers",
	}

	out := plainRender(t, func(buf *bytes.Buffer) { warning.Display(buf) })

	if !strings.Contains(out, "Warning: some registered artifacts") {
		t.Errorf("Expected title in output:\n%s", out)
	}
	if !strings.Contains(out, "Affected files:") {
		t.Errorf("Expected plural files header:\n%s", out)
	}
	if !strings.Contains(out, "1. a.md: unclosed marker") {
		t.Errorf("Expected numbered file list:\n%s", out)
	}
	if !strings.Contains(out, "Suggestion: fix the markers") {
		t.Errorf("Expected suggestion in output:\n%s", out)
	}
}
