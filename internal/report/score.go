// Package report turns accumulated issues into scored validation
// results and renders them as machine-readable JSON.
package report

import (
	"math"
	"sort"

	"github.com/spaider-dev/spaider/internal/config"
	"github.com/spaider-dev/spaider/internal/models"
)

// Score derives the validation result for one artifact from its issue
// list. It is a pure function: the same issues and configuration always
// produce the same result. Issues are ordered by line, rule and message
// so repeated runs emit byte-identical output.
func Score(artifactPath string, issues []models.Issue, cfg config.Scoring) models.ValidationResult {
	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})

	blocking := make(map[string]bool, len(cfg.Blocking))
	for _, rule := range cfg.Blocking {
		blocking[rule] = true
	}

	deduction := 0.0
	errors, warnings := 0, 0
	blocked := false
	for _, issue := range sorted {
		weight := float64(cfg.Weights.Weight(models.RuleCategory[issue.RuleID]))
		switch issue.Severity {
		case models.SeverityError:
			errors++
			deduction += weight
			if blocking[issue.RuleID] {
				blocked = true
			}
		case models.SeverityWarning:
			warnings++
			deduction += weight * cfg.WarningFactor
		}
	}

	score := 100 - int(math.Round(deduction))
	if score < 0 {
		score = 0
	}

	status := models.StatusPass
	if score < cfg.Threshold || blocked {
		status = models.StatusFail
	}

	return models.ValidationResult{
		ArtifactPath: artifactPath,
		Status:       status,
		Score:        score,
		Errors:       errors,
		Warnings:     warnings,
		Issues:       sorted,
	}
}
