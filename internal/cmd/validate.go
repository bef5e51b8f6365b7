package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spaider-dev/spaider/internal/display"
	"github.com/spaider-dev/spaider/internal/filelock"
	"github.com/spaider-dev/spaider/internal/history"
	"github.com/spaider-dev/spaider/internal/models"
	"github.com/spaider-dev/spaider/internal/parser"
	"github.com/spaider-dev/spaider/internal/registry"
	"github.com/spaider-dev/spaider/internal/report"
	"github.com/spaider-dev/spaider/internal/scan"
	"github.com/spaider-dev/spaider/internal/validate"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [--artifact <path>] [path...]",
		Short: "Validate artifacts against their registered templates",
		Long: `Parse and validate artifact files, checking for:
  - Missing, misordered and unexpected blocks
  - Identifier format violations
  - Unresolved, stale and duplicate identifier references
  - Checkbox consistency and coverage constraints
  - Placeholder content left unfilled

With no path arguments every registered artifact is validated.
Cross-reference resolution always spans the full registered set.

Exit code: 0 if all artifacts pass, 1 on failure or parse error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, _ := cmd.Flags().GetString("artifact")
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			noHistory, _ := cmd.Flags().GetBool("no-history")

			targets := args
			if artifact != "" {
				targets = append([]string{artifact}, args...)
			}

			return runValidate(cmd, validateOptions{
				Targets:   targets,
				Format:    format,
				Output:    output,
				NoHistory: noHistory,
			}, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("artifact", "", "artifact file to validate")
	cmd.Flags().String("format", "json", "output format: json or text")
	cmd.Flags().String("output", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	return cmd
}

type validateOptions struct {
	Targets   []string
	Format    string
	Output    string
	NoHistory bool
}

func runValidate(cmd *cobra.Command, opts validateOptions, out io.Writer) error {
	if opts.Format != "json" && opts.Format != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", opts.Format)
	}

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadScoring(cmd)
	if err != nil {
		return err
	}
	placeholders, err := cfg.CompiledPlaceholders()
	if err != nil {
		return err
	}

	scanned, err := runScan(reg)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(scanned, opts.Targets)
	if err != nil {
		return err
	}
	warnParseFailures(os.Stderr, scanned.Failed)

	// Structural validation runs over every scanned artifact, not just
	// the targets: covered_by constraints live on template blocks and
	// attach to definitions during the structural walk, and the global
	// index needs them before the cross-reference phase.
	templates := map[string]*models.Template{}
	structural := map[string][]models.Issue{}
	index := validate.NewIndex()

	for _, art := range scanned.Artifacts {
		binding, err := reg.Resolve(filepath.Join(reg.Root, filepath.FromSlash(art.Path)))
		if err != nil || binding == nil {
			continue
		}

		tmpl, ok := templates[binding.Kind]
		if !ok {
			tmpl, err = parser.ParseTemplate(reg.TemplatePath(binding), reg.Prefix)
			if err != nil {
				return err
			}
			templates[binding.Kind] = tmpl
		}

		issues := validate.Structure(tmpl, art, validate.Options{
			Strict:       binding.Strict() || tmpl.Strict,
			Project:      reg.Project,
			IDKinds:      reg.KindSet(),
			Placeholders: placeholders,
		})
		structural[art.Path] = issues
		index.AddAll(art.Definitions)
	}

	crossIssues := validate.CrossReferences(index, scanned.References())
	crossByPath := map[string][]models.Issue{}
	for _, issue := range crossIssues {
		crossByPath[issue.Path] = append(crossByPath[issue.Path], issue)
	}

	results := []models.ValidationResult{}
	for _, art := range targets {
		issues := append([]models.Issue{}, structural[art.Path]...)
		for _, cross := range crossByPath[art.Path] {
			cross.Path = "" // same artifact; path would be redundant
			issues = append(issues, cross)
		}
		results = append(results, report.Score(art.Path, issues, cfg))
	}

	if err := emitResults(out, opts, results); err != nil {
		return err
	}

	if !opts.NoHistory {
		recordHistory(reg, results)
	}

	failed := 0
	for _, res := range results {
		if res.Status == models.StatusFail {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed validation", failed, len(results))
	}
	return nil
}

// resolveTargets maps requested paths to scanned artifacts. With no
// request every scanned artifact is a target. A requested file that
// failed to parse is fatal; one unknown to the registry is a
// configuration error.
func resolveTargets(scanned *scan.Result, requested []string) ([]*models.Artifact, error) {
	if len(requested) == 0 {
		return scanned.Artifacts, nil
	}

	var targets []*models.Artifact
	for _, path := range requested {
		if art := scanned.Artifact(path); art != nil {
			targets = append(targets, art)
			continue
		}
		for _, failure := range scanned.Failed {
			if samePath(scanned, failure.Path, path) {
				return nil, failure.Err
			}
		}
		return nil, &models.ConfigError{Path: path, Reason: "no template binding claims this artifact"}
	}
	return targets, nil
}

func samePath(scanned *scan.Result, relPath, requested string) bool {
	abs, err := filepath.Abs(requested)
	if err != nil {
		return relPath == requested
	}
	rel, err := filepath.Rel(scanned.Root, abs)
	if err != nil {
		return relPath == requested
	}
	return filepath.ToSlash(rel) == relPath
}

func emitResults(out io.Writer, opts validateOptions, results []models.ValidationResult) error {
	if opts.Format == "text" {
		if opts.Output != "" {
			return fmt.Errorf("--output requires --format json")
		}
		display.RenderResults(out, results)
		return nil
	}

	// Single-target invocations emit one object, batch runs an array.
	var payload interface{} = results
	if len(results) == 1 {
		payload = results[0]
	}

	if opts.Output != "" {
		data, err := report.MarshalJSON(payload)
		if err != nil {
			return err
		}
		return filelock.LockAndWrite(opts.Output, data)
	}
	return report.WriteJSON(out, payload)
}

// recordHistory appends run summaries to the history database. History
// is advisory; failures only warn and never change the exit status.
func recordHistory(reg *registry.Registry, results []models.ValidationResult) {
	store, err := history.NewStore(filepath.Join(reg.Root, ".spaider", "history.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open history store: %v\n", err)
		return
	}
	defer store.Close()

	runID := uuid.New().String()
	for _, res := range results {
		err := store.Record(history.Run{
			RunID:        runID,
			ArtifactPath: res.ArtifactPath,
			Status:       res.Status,
			Score:        res.Score,
			Errors:       res.Errors,
			Warnings:     res.Warnings,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot record history: %v\n", err)
			return
		}
	}
}
