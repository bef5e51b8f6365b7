package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spaider-dev/spaider/internal/report"
)

// NewListIDsCommand creates the list-ids subcommand
func NewListIDsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-ids",
		Short: "List identifier definitions across the artifact set",
		Long: `Scan every registered artifact and emit the identifier definitions
found, as a JSON array. Filters narrow the set by defining artifact,
glob pattern over the identifier, or ID kind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, _ := cmd.Flags().GetString("artifact")
			pattern, _ := cmd.Flags().GetString("pattern")
			kind, _ := cmd.Flags().GetString("kind")

			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			scanned, err := runScan(reg)
			if err != nil {
				return err
			}
			warnParseFailures(os.Stderr, scanned.Failed)

			defs, err := scanned.ListIDs(artifact, pattern, kind)
			if err != nil {
				return err
			}
			return report.WriteJSON(cmd.OutOrStdout(), defs)
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("artifact", "", "only list identifiers defined in this artifact")
	cmd.Flags().String("pattern", "", "glob pattern over the full identifier")
	cmd.Flags().String("kind", "", "only list identifiers of this ID kind")

	return cmd
}

// NewWhereDefinedCommand creates the where-defined subcommand
func NewWhereDefinedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "where-defined --id <id>",
		Short: "Locate the definition of one identifier",
		Long: `Emit the definition of the given identifier as JSON, or null when no
artifact defines it. Resolution is exact: a version-suffixed query only
matches a definition carrying the same suffix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")

			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			scanned, err := runScan(reg)
			if err != nil {
				return err
			}
			warnParseFailures(os.Stderr, scanned.Failed)

			return report.WriteJSON(cmd.OutOrStdout(), scanned.WhereDefined(id))
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("id", "", "identifier to look up")
	cmd.MarkFlagRequired("id")

	return cmd
}

// NewWhereUsedCommand creates the where-used subcommand
func NewWhereUsedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "where-used --id <id>",
		Short: "List every reference to one identifier",
		Long: `Emit every reference to the identifier's logical entity as a JSON
array. Version suffixes are ignored here: references to any version of
the same base identifier are included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")

			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			scanned, err := runScan(reg)
			if err != nil {
				return err
			}
			warnParseFailures(os.Stderr, scanned.Failed)

			return report.WriteJSON(cmd.OutOrStdout(), scanned.WhereUsed(id))
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("id", "", "identifier to look up")
	cmd.MarkFlagRequired("id")

	return cmd
}
