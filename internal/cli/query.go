package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentdeck/statsdb/pkg/types"
)

// rangeFlag attaches the shared --range flag and parses it at run time.
func rangeFlag(cmd *cobra.Command) func() (types.Range, error) {
	var name string
	cmd.Flags().StringVar(&name, "range", string(types.RangeAll), "lookback window (day, week, month, year, all)")
	return func() (types.Range, error) {
		return types.ParseRange(name)
	}
}

// filterFlags attaches the optional query-event filter flags.
func filterFlags(cmd *cobra.Command) func() *types.QueryEventFilter {
	var agentType, source, projectPath, sessionID string
	cmd.Flags().StringVar(&agentType, "agent-type", "", "filter by agent")
	cmd.Flags().StringVar(&source, "source", "", "filter by source (user or auto)")
	cmd.Flags().StringVar(&projectPath, "project-path", "", "filter by project path")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "filter by session id")
	return func() *types.QueryEventFilter {
		if agentType == "" && source == "" && projectPath == "" && sessionID == "" {
			return nil
		}
		return &types.QueryEventFilter{
			AgentType:   agentType,
			Source:      source,
			ProjectPath: projectPath,
			SessionID:   sessionID,
		}
	}
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List query events in a range",
	}
	getRange := rangeFlag(cmd)
	getFilter := filterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		r, err := getRange()
		if err != nil {
			return err
		}
		events, err := store.QueryEvents(r, getFilter())
		if err != nil {
			return err
		}
		return printResult(cmd, events, func() {
			for _, ev := range events {
				cmd.Printf("%s  %s  %s/%s  %dms\n",
					ev.ID, ev.SessionID, ev.AgentType, ev.Source, ev.Duration)
			}
			cmd.Printf("%d event(s)\n", len(events))
		})
	}
	return cmd
}

func newSessionsCmd() *cobra.Command {
	var lifecycle bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List Auto Run sessions (or lifecycle events) in a range",
	}
	getRange := rangeFlag(cmd)
	cmd.Flags().BoolVar(&lifecycle, "lifecycle", false, "list session lifecycle events instead")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		r, err := getRange()
		if err != nil {
			return err
		}
		if lifecycle {
			events, err := store.SessionEvents(r)
			if err != nil {
				return err
			}
			return printResult(cmd, events, func() {
				for _, ev := range events {
					state := "open"
					if ev.ClosedAt != nil {
						state = "closed"
					}
					cmd.Printf("%s  %s  %s  %s\n", ev.ID, ev.SessionID, ev.AgentType, state)
				}
				cmd.Printf("%d session(s)\n", len(events))
			})
		}

		sessions, err := store.AutoRunSessions(r)
		if err != nil {
			return err
		}
		return printResult(cmd, sessions, func() {
			for _, sess := range sessions {
				cmd.Printf("%s  %s  %d/%d tasks  %dms\n",
					sess.ID, sess.AgentType, sess.TasksCompleted, sess.TasksTotal, sess.Duration)
			}
			cmd.Printf("%d run(s)\n", len(sessions))
		})
	}
	return cmd
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <auto-run-session-id>",
		Short: "List the tasks of one batch run, in task order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := store.AutoRunTasks(args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, tasks, func() {
				for _, task := range tasks {
					status := "failed"
					if task.Success {
						status = "ok"
					}
					cmd.Printf("%3d  %s  %dms  %s\n", task.TaskIndex, task.ID, task.Duration, status)
				}
				cmd.Printf("%d task(s)\n", len(tasks))
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregated usage statistics",
	}
	getRange := rangeFlag(cmd)
	getFilter := filterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		r, err := getRange()
		if err != nil {
			return err
		}
		stats, err := store.AggregatedStats(r, getFilter())
		if err != nil {
			return err
		}
		return printResult(cmd, stats, func() {
			cmd.Printf("queries:   %d (avg %dms, total %dms)\n",
				stats.TotalQueries, stats.AvgDuration, stats.TotalDuration)
			cmd.Printf("sources:   user %d / auto %d\n", stats.BySource.User, stats.BySource.Auto)
			cmd.Printf("location:  local %d / remote %d\n", stats.ByLocation.Local, stats.ByLocation.Remote)
			for agent, bucket := range stats.ByAgent {
				cmd.Printf("agent %-20s %d queries, %dms\n", agent, bucket.Count, bucket.Duration)
			}
			cmd.Printf("sessions:  %d (avg %dms)\n", stats.TotalSessions, stats.AvgSessionDuration)
		})
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export query events as CSV",
	}
	getRange := rangeFlag(cmd)
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write to file instead of stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		r, err := getRange()
		if err != nil {
			return err
		}
		csvData, err := store.ExportCSV(r)
		if err != nil {
			return err
		}
		if outFile == "" {
			cmd.Print(csvData)
			return nil
		}
		if err := os.WriteFile(outFile, []byte(csvData), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outFile, err)
		}
		cmd.Printf("wrote %s\n", outFile)
		return nil
	}
	return cmd
}
