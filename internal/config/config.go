// Package config loads the scoring configuration: category weights,
// the pass threshold, blocking rules and placeholder patterns. Nothing
// here is hard-coded into the validators; every knob is adapter-
// configurable per repository.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/spaider-dev/spaider/internal/models"
)

// Weights are the per-category score deductions applied for each ERROR
// issue. Warnings deduct the category weight scaled by WarningFactor.
type Weights struct {
	Structural     int `koanf:"structural" validate:"min=0,max=100"`
	IDFormat       int `koanf:"id_format" validate:"min=0,max=100"`
	CrossReference int `koanf:"cross_reference" validate:"min=0,max=100"`
	Placeholder    int `koanf:"placeholder" validate:"min=0,max=100"`
}

// Scoring is the full scoring configuration.
type Scoring struct {
	Weights       Weights  `koanf:"weights"`
	WarningFactor float64  `koanf:"warning_factor" validate:"gte=0,lte=1"`
	Threshold     int      `koanf:"threshold" validate:"min=0,max=100"`
	Blocking      []string `koanf:"blocking"`
	Placeholders  []string `koanf:"placeholders" validate:"dive,min=1"`
}

// Defaults returns the scoring configuration used when no config file
// is present.
func Defaults() Scoring {
	return Scoring{
		Weights: Weights{
			Structural:     15,
			IDFormat:       10,
			CrossReference: 10,
			Placeholder:    5,
		},
		WarningFactor: 0.5,
		Threshold:     90,
		Blocking: []string{
			models.RuleMissingRequiredBlock,
			models.RuleDuplicateDefinition,
			models.RuleUnresolvedReference,
		},
		Placeholders: []string{
			`\bTODO\b`,
			`\bTBD\b`,
			`\[\.\.\.\]`,
			`<[A-Z][A-Z_]*>`,
		},
	}
}

// Load layers the scoring configuration: defaults, then the config file
// if it exists, then SPAIDER_-prefixed environment variables.
func Load(path string) (Scoring, error) {
	k := koanf.New(".")

	defaults := Defaults()
	seed := map[string]interface{}{
		"weights.structural":      defaults.Weights.Structural,
		"weights.id_format":       defaults.Weights.IDFormat,
		"weights.cross_reference": defaults.Weights.CrossReference,
		"weights.placeholder":     defaults.Weights.Placeholder,
		"warning_factor":          defaults.WarningFactor,
		"threshold":               defaults.Threshold,
		"blocking":                defaults.Blocking,
		"placeholders":            defaults.Placeholders,
	}
	for key, value := range seed {
		if err := k.Set(key, value); err != nil {
			return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot set default %s: %v", key, err)}
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), json.Parser()); err != nil {
				return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot load config: %v", err)}
			}
		}
	}

	if err := k.Load(env.Provider("SPAIDER_", ".", envTransform), nil); err != nil {
		return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot load environment overrides: %v", err)}
	}

	var cfg Scoring
	if err := k.Unmarshal("", &cfg); err != nil {
		return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot unmarshal config: %v", err)}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("config validation failed: %v", err)}
	}

	for _, rule := range cfg.Blocking {
		if _, known := models.RuleCategory[rule]; !known {
			return Scoring{}, &models.ConfigError{Path: path, Reason: fmt.Sprintf("unknown blocking rule %q", rule)}
		}
	}

	return cfg, nil
}

// CompiledPlaceholders compiles the configured placeholder patterns.
func (s Scoring) CompiledPlaceholders() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(s.Placeholders))
	for _, raw := range s.Placeholders {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("placeholder pattern %q: %w", raw, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Weight returns the deduction weight for one scoring category.
func (w Weights) Weight(category string) int {
	switch category {
	case models.CategoryStructural:
		return w.Structural
	case models.CategoryIDFormat:
		return w.IDFormat
	case models.CategoryCrossReference:
		return w.CrossReference
	case models.CategoryPlaceholder:
		return w.Placeholder
	default:
		return 0
	}
}

// envTransform converts environment variable names to config keys.
// SPAIDER_THRESHOLD becomes threshold; a double underscore descends
// into nested keys, so SPAIDER_WEIGHTS__STRUCTURAL becomes
// weights.structural.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "SPAIDER_"))
	return strings.ReplaceAll(key, "__", ".")
}
