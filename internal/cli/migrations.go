package cli

import (
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create (or migrate) the store and print its location",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The store is already open and migrated by the time any
			// subcommand runs; init just reports the outcome.
			version, err := store.CurrentVersion()
			if err != nil {
				return err
			}
			cmd.Printf("%s (schema v%d)\n", store.Path(), version)
			return nil
		},
	}
}

func newMigrationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrations",
		Short: "Show migration history",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := store.MigrationHistory()
			if err != nil {
				return err
			}
			return printResult(cmd, history, func() {
				for _, rec := range history {
					line := rec.Status
					if rec.ErrorMessage != nil {
						line += ": " + *rec.ErrorMessage
					}
					cmd.Printf("v%d  %-60s  %s\n", rec.Version, rec.Description, line)
				}
				cmd.Printf("schema v%d of v%d\n", mustVersion(), store.TargetVersion())
			})
		},
	}
}

func mustVersion() int {
	v, _ := store.CurrentVersion()
	return v
}
