// Package scan walks the repository tree, parses every registered
// artifact and assembles the material for cross-reference resolution
// and the where-defined / where-used / list-ids queries. There is no
// caching: every invocation re-reads all inputs from disk so results
// are a pure function of current file contents.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/spaider-dev/spaider/internal/models"
	"github.com/spaider-dev/spaider/internal/parser"
	"github.com/spaider-dev/spaider/internal/registry"
)

// directories never descended into
var skipDirs = map[string]bool{
	".git":         true,
	".spaider":     true,
	"node_modules": true,
	"vendor":       true,
}

// ParseFailure records a registered artifact that could not be parsed
// during a scan. Scans keep going; the failure surfaces as a warning
// (or as a fatal error when the file is the validation target).
type ParseFailure struct {
	Path string
	Err  error
}

// Scanner walks one registry's root directory.
type Scanner struct {
	reg *registry.Registry

	// Progress, when set, is called with each artifact path before it
	// is parsed. Used for terminal progress display.
	Progress func(path string)
}

// New creates a scanner over the given registry.
func New(reg *registry.Registry) *Scanner {
	return &Scanner{reg: reg}
}

// Result holds every parsed artifact of one scan, in path order. All
// paths are stored relative to the registry root with forward slashes,
// so output does not depend on where the repository is checked out.
type Result struct {
	Root      string
	Artifacts []*models.Artifact
	Failed    []ParseFailure
}

// Scan walks the registry root and parses every file a binding claims.
func (s *Scanner) Scan() (*Result, error) {
	result := &Result{Root: s.reg.Root}

	err := filepath.WalkDir(s.reg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != s.reg.Root {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}

		binding, err := s.reg.Resolve(path)
		if err != nil {
			return err
		}
		if binding == nil {
			return nil
		}

		if s.Progress != nil {
			s.Progress(path)
		}

		rel := relativize(s.reg.Root, path)

		art, err := parser.ParseArtifact(path, s.reg.Prefix, binding.Kind)
		if err != nil {
			result.Failed = append(result.Failed, ParseFailure{Path: rel, Err: err})
			return nil
		}

		art.Path = rel
		for i := range art.Definitions {
			art.Definitions[i].ArtifactPath = rel
		}
		for i := range art.References {
			art.References[i].ArtifactPath = rel
		}
		result.Artifacts = append(result.Artifacts, art)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.reg.Root, err)
	}

	sort.Slice(result.Artifacts, func(i, j int) bool {
		return result.Artifacts[i].Path < result.Artifacts[j].Path
	})
	return result, nil
}

// relativize maps an absolute or cwd-relative path to its
// root-relative slash form. Paths outside the root pass through
// unchanged.
func relativize(root, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Artifact returns the parsed artifact for a path, if the scan saw it.
// The path may be absolute, cwd-relative or root-relative.
func (r *Result) Artifact(path string) *models.Artifact {
	rel := relativize(r.Root, path)
	for _, art := range r.Artifacts {
		if art.Path == rel || art.Path == filepath.ToSlash(path) {
			return art
		}
	}
	return nil
}

// Definitions returns every identifier definition found in the scan,
// ordered by identifier then path.
func (r *Result) Definitions() []models.IdDefinition {
	var out []models.IdDefinition
	for _, art := range r.Artifacts {
		out = append(out, art.Definitions...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].ArtifactPath < out[j].ArtifactPath
	})
	return out
}

// References returns every identifier reference found in the scan,
// ordered by identifier, path, then line.
func (r *Result) References() []models.IdReference {
	var out []models.IdReference
	for _, art := range r.Artifacts {
		out = append(out, art.References...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		if out[i].ArtifactPath != out[j].ArtifactPath {
			return out[i].ArtifactPath < out[j].ArtifactPath
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// WhereDefined returns the definition matching the identifier exactly,
// version suffix included, or nil.
func (r *Result) WhereDefined(id string) *models.IdDefinition {
	for _, def := range r.Definitions() {
		if def.ID == id {
			return &def
		}
	}
	return nil
}

// WhereUsed returns every reference to the identifier's logical entity.
// The version suffix is ignored here: all versions of one base refer to
// the same entity for where-used purposes.
func (r *Result) WhereUsed(id string) []models.IdReference {
	base := models.BaseOf(id)
	out := []models.IdReference{}
	for _, ref := range r.References() {
		if models.BaseOf(ref.ID) == base {
			out = append(out, ref)
		}
	}
	return out
}

// ListIDs filters definitions by an optional glob pattern over the full
// identifier, an optional ID kind, and an optional artifact path.
func (r *Result) ListIDs(artifactPath, pattern, kind string) ([]models.IdDefinition, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("bad id pattern %q", pattern)
	}

	var relArtifact string
	if artifactPath != "" {
		relArtifact = relativize(r.Root, artifactPath)
	}

	out := []models.IdDefinition{}
	for _, def := range r.Definitions() {
		if relArtifact != "" && def.ArtifactPath != relArtifact {
			continue
		}
		if kind != "" {
			id, err := models.ParseID(def.ID)
			if err != nil || id.Kind != kind {
				continue
			}
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, def.ID)
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, def)
	}
	return out, nil
}
