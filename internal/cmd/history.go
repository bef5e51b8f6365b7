package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spaider-dev/spaider/internal/history"
	"github.com/spaider-dev/spaider/internal/report"
)

// NewHistoryCommand creates the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent validation runs",
		Long: `Emit recent validation run summaries from the local history database
as a JSON array, newest first. History is recorded by validate and has
no effect on validation results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}

			store, err := history.NewStore(filepath.Join(reg.Root, ".spaider", "history.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []history.Run{}
			}
			return report.WriteJSON(cmd.OutOrStdout(), runs)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 20, "maximum number of runs to show")

	return cmd
}
