package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/agentdeck/statsdb/pkg/types"
)

func newClearCmd() *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete records older than a retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := store.ClearOldData(olderThanDays)
			err := printResult(cmd, result, func() {
				if result.Success {
					cmd.Printf("deleted %d query events, %d runs, %d tasks\n",
						result.DeletedQueryEvents, result.DeletedAutoRunSessions, result.DeletedAutoRunTasks)
				} else {
					cmd.Printf("clear failed: %s\n", result.Error)
				}
			})
			if err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 0, "delete records older than this many days")
	cmd.MarkFlagRequired("older-than-days")
	return cmd
}

func newVacuumCmd() *cobra.Command {
	var threshold int64

	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim space in the store file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("threshold") {
				decision := store.VacuumIfNeeded(threshold)
				return printResult(cmd, decision, func() {
					if decision.Vacuumed {
						cmd.Printf("vacuumed, now %d bytes\n", decision.DatabaseSize)
					} else {
						cmd.Printf("skipped (%d bytes below threshold)\n", decision.DatabaseSize)
					}
				})
			}

			result := store.Vacuum()
			err := printResult(cmd, result, func() {
				if result.Success {
					cmd.Printf("freed %d bytes\n", result.BytesFreed)
				} else {
					cmd.Printf("vacuum failed: %s\n", result.Error)
				}
			})
			if err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&threshold, "threshold", types.DefaultVacuumThreshold, "only vacuum when the file is at least this many bytes")
	return cmd
}

func newSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the store file size in bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(store.DatabaseSize())
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run an integrity check (optionally backing up first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if backup {
				dst, err := store.BackupDatabase()
				if err != nil {
					return err
				}
				cmd.Printf("backup written to %s\n", dst)
			}

			report := store.CheckIntegrity()
			err := printResult(cmd, report, func() {
				if report.OK {
					cmd.Println("ok")
					return
				}
				for _, msg := range report.Errors {
					cmd.Println(msg)
				}
			})
			if err != nil {
				return err
			}
			if !report.OK {
				return errors.New("integrity check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", false, "back the store file up before checking")
	return cmd
}
