package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentdeck/statsdb/pkg/types"
)

// newAutoRunCmd groups the batch-run write operations.
func newAutoRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autorun",
		Short: "Record Auto Run sessions and tasks",
	}
	cmd.AddCommand(newAutoRunStartCmd())
	cmd.AddCommand(newAutoRunEndCmd())
	cmd.AddCommand(newAutoRunTaskCmd())
	return cmd
}

func newAutoRunStartCmd() *cobra.Command {
	var (
		sessionID    string
		agentType    string
		documentPath string
		tasksTotal   int64
		projectPath  string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Record the start of a batch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.InsertAutoRunSession(types.AutoRunSession{
				SessionID:    sessionID,
				AgentType:    agentType,
				DocumentPath: optStr(documentPath),
				StartTime:    time.Now().UnixMilli(),
				TasksTotal:   tasksTotal,
				ProjectPath:  optStr(projectPath),
			})
			if err != nil {
				return err
			}
			cmd.Println(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "owning session id")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "agent running the batch")
	cmd.Flags().StringVar(&documentPath, "document-path", "", "document path (comma-joined for multiple)")
	cmd.Flags().Int64Var(&tasksTotal, "tasks-total", 0, "number of tasks planned")
	cmd.Flags().StringVar(&projectPath, "project-path", "", "project path")
	cmd.MarkFlagRequired("session-id")
	cmd.MarkFlagRequired("agent-type")
	return cmd
}

func newAutoRunEndCmd() *cobra.Command {
	var (
		id             string
		duration       int64
		tasksCompleted int64
		documentPath   string
	)

	cmd := &cobra.Command{
		Use:   "end",
		Short: "Record the end of a batch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			update := types.AutoRunSessionUpdate{}
			if cmd.Flags().Changed("duration") {
				update.Duration = &duration
			}
			if cmd.Flags().Changed("tasks-completed") {
				update.TasksCompleted = &tasksCompleted
			}
			if cmd.Flags().Changed("document-path") {
				update.DocumentPath = &documentPath
			}
			updated, err := store.UpdateAutoRunSession(id, update)
			if err != nil {
				return err
			}
			if !updated {
				cmd.Println("no such run")
				return nil
			}
			cmd.Println("updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "auto run session id")
	cmd.Flags().Int64Var(&duration, "duration", 0, "total run duration in ms")
	cmd.Flags().Int64Var(&tasksCompleted, "tasks-completed", 0, "tasks completed")
	cmd.Flags().StringVar(&documentPath, "document-path", "", "final document path")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newAutoRunTaskCmd() *cobra.Command {
	var (
		runID       string
		sessionID   string
		agentType   string
		taskIndex   int64
		taskContent string
		duration    int64
		success     bool
	)

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Record one task of a batch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.InsertAutoRunTask(types.AutoRunTask{
				AutoRunSessionID: runID,
				SessionID:        sessionID,
				AgentType:        agentType,
				TaskIndex:        taskIndex,
				TaskContent:      optStr(taskContent),
				StartTime:        time.Now().UnixMilli(),
				Duration:         duration,
				Success:          success,
			})
			if err != nil {
				return err
			}
			cmd.Println(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "parent auto run session id")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "owning session id")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "agent that ran the task")
	cmd.Flags().Int64Var(&taskIndex, "index", 0, "0-based task index within the run")
	cmd.Flags().StringVar(&taskContent, "content", "", "task content")
	cmd.Flags().Int64Var(&duration, "duration", 0, "task duration in ms")
	cmd.Flags().BoolVar(&success, "success", false, "task succeeded")
	cmd.MarkFlagRequired("run-id")
	cmd.MarkFlagRequired("session-id")
	cmd.MarkFlagRequired("agent-type")
	return cmd
}
