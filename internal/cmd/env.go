package cmd

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/spaider-dev/spaider/internal/config"
	"github.com/spaider-dev/spaider/internal/display"
	"github.com/spaider-dev/spaider/internal/registry"
	"github.com/spaider-dev/spaider/internal/scan"
)

// loadRegistry resolves the --registry flag and loads the registry.
func loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	path, err := cmd.Flags().GetString("registry")
	if err != nil {
		return nil, err
	}
	return registry.Load(path)
}

// loadScoring resolves the --config flag and loads the scoring config.
func loadScoring(cmd *cobra.Command) (config.Scoring, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Scoring{}, err
	}
	return config.Load(path)
}

// runScan performs a full repository scan with a terminal spinner when
// stderr is a TTY. The spinner writes to stderr so stdout stays clean
// JSON for machine consumption.
func runScan(reg *registry.Registry) (*scan.Result, error) {
	scanner := scan.New(reg)

	var spin *spinner.Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Writer = os.Stderr
		spin.Suffix = " scanning artifacts"
		scanner.Progress = func(path string) {
			spin.Suffix = " scanning " + path
		}
		spin.Start()
	}

	result, err := scanner.Scan()
	if spin != nil {
		spin.Stop()
	}
	return result, err
}

// warnParseFailures surfaces artifacts that were skipped during a scan
// because they failed to parse. Printed to stderr; exit status is
// unaffected unless the failed file is the validation target.
func warnParseFailures(out *os.File, failures []scan.ParseFailure) {
	if len(failures) == 0 {
		return
	}
	files := make([]string, 0, len(failures))
	for _, f := range failures {
		files = append(files, f.Path+": "+f.Err.Error())
	}
	warning := display.Warning{
		Title:      "some registered artifacts could not be parsed",
		Message:    "their identifiers are missing from cross-reference resolution",
		Files:      files,
		Suggestion: "run spaider validate --artifact <path> for details",
	}
	warning.Display(out)
}
