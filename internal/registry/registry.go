// Package registry maps artifact paths to the template they are
// validated against. The registry file declares the marker prefix, the
// project segment of every identifier, the declared ID kinds and one
// binding per artifact kind with doublestar glob patterns.
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/spaider-dev/spaider/internal/models"
)

// Binding ties one artifact kind to its template and match patterns.
type Binding struct {
	Kind            string   `yaml:"kind"`
	Template        string   `yaml:"template"`
	Match           []string `yaml:"match"`
	ValidationLevel string   `yaml:"validation_level"`
}

// Strict reports whether artifacts of this kind validate strictly.
func (b *Binding) Strict() bool {
	return b.ValidationLevel == "strict"
}

// Registry is the loaded adapter configuration. It is an explicit
// object passed into each validation call, never process-wide state.
type Registry struct {
	Prefix   string    `yaml:"prefix"`
	Project  string    `yaml:"project"`
	IDKinds  []string  `yaml:"id_kinds"`
	Bindings []Binding `yaml:"templates"`

	// Root is the directory artifact paths and glob patterns are
	// resolved against: the registry file's parent of parent, so a
	// registry at .spaider/registry.yaml covers the repository root.
	Root string `yaml:"-"`
	path string
}

// Load reads and validates a registry file. A missing or unreadable
// registry is fatal; no degraded validation is attempted without one.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot read registry: %v", err)}
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("malformed registry: %v", err)}
	}

	if reg.Prefix == "" {
		return nil, &models.ConfigError{Path: path, Reason: "registry must declare a prefix"}
	}
	if reg.Project == "" {
		return nil, &models.ConfigError{Path: path, Reason: "registry must declare a project"}
	}
	for i, b := range reg.Bindings {
		if b.Kind == "" || b.Template == "" || len(b.Match) == 0 {
			return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("templates[%d]: kind, template and match are all required", i)}
		}
		for _, pattern := range b.Match {
			if !doublestar.ValidatePattern(pattern) {
				return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("templates[%d]: bad match pattern %q", i, pattern)}
			}
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Reason: fmt.Sprintf("cannot resolve registry path: %v", err)}
	}
	reg.path = abs
	reg.Root = filepath.Dir(filepath.Dir(abs))

	return &reg, nil
}

// Resolve returns the binding whose match patterns cover the given
// artifact path, or nil when no binding claims it. Patterns match
// against the path relative to the registry root.
func (r *Registry) Resolve(artifactPath string) (*Binding, error) {
	rel, err := r.relativize(artifactPath)
	if err != nil {
		return nil, err
	}

	for i := range r.Bindings {
		for _, pattern := range r.Bindings[i].Match {
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, fmt.Errorf("match pattern %q: %w", pattern, err)
			}
			if ok {
				return &r.Bindings[i], nil
			}
		}
	}
	return nil, nil
}

// TemplatePath resolves a binding's template path against the
// registry root.
func (r *Registry) TemplatePath(b *Binding) string {
	if filepath.IsAbs(b.Template) {
		return b.Template
	}
	return filepath.Join(r.Root, b.Template)
}

// KindSet returns the declared ID kinds as a lookup set. An empty
// registry declaration accepts any kind.
func (r *Registry) KindSet() map[string]bool {
	if len(r.IDKinds) == 0 {
		return nil
	}
	set := make(map[string]bool, len(r.IDKinds))
	for _, k := range r.IDKinds {
		set[k] = true
	}
	return set
}

func (r *Registry) relativize(artifactPath string) (string, error) {
	abs, err := filepath.Abs(artifactPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %s: %w", artifactPath, err)
	}
	rel, err := filepath.Rel(r.Root, abs)
	if err != nil {
		return "", fmt.Errorf("path %s is outside the registry root %s: %w", artifactPath, r.Root, err)
	}
	return filepath.ToSlash(rel), nil
}
