// Package cmd wires the spaider CLI commands. Every command is a
// constructor returning a cobra command so tests can execute them with
// injected arguments and output writers.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// default locations relative to the repository root
const (
	DefaultRegistryPath = ".spaider/registry.yaml"
	DefaultConfigPath   = ".spaider/config.json"
)

// NewRootCommand creates and returns the root cobra command for spaider
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaider",
		Short: "Marker-based Markdown artifact validator",
		Long: `Spaider validates Markdown artifacts (PRD, DESIGN, ADR, ...) against
marker-annotated templates: section structure, identifier formats and
cross-artifact traceability.

All commands emit JSON on stdout for machine consumption and exit
non-zero when validation fails or an input cannot be parsed.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("registry", DefaultRegistryPath, "path to the template registry file")
	cmd.PersistentFlags().String("config", DefaultConfigPath, "path to the scoring config file")

	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewListIDsCommand())
	cmd.AddCommand(NewWhereDefinedCommand())
	cmd.AddCommand(NewWhereUsedCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
