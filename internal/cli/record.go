package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentdeck/statsdb/pkg/types"
)

// newRecordCmd groups the write operations for query events and session
// lifecycle events.
func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record telemetry events",
	}
	cmd.AddCommand(newRecordQueryCmd())
	cmd.AddCommand(newRecordSessionCreatedCmd())
	cmd.AddCommand(newRecordSessionClosedCmd())
	return cmd
}

func newRecordQueryCmd() *cobra.Command {
	var (
		sessionID   string
		agentType   string
		source      string
		startTime   int64
		duration    int64
		projectPath string
		tabID       string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Record an interactive query event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if startTime == 0 {
				startTime = time.Now().UnixMilli()
			}
			id, err := store.InsertQueryEvent(types.QueryEvent{
				SessionID:   sessionID,
				AgentType:   agentType,
				Source:      source,
				StartTime:   startTime,
				Duration:    duration,
				ProjectPath: optStr(projectPath),
				TabID:       optStr(tabID),
				IsRemote:    optBool(cmd, "remote"),
			})
			if err != nil {
				return err
			}
			cmd.Println(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "owning session id")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "agent that handled the query")
	cmd.Flags().StringVar(&source, "source", types.SourceUser, "query source (user or auto)")
	cmd.Flags().Int64Var(&startTime, "start-time", 0, "start time in epoch ms (default now)")
	cmd.Flags().Int64Var(&duration, "duration", 0, "duration in ms")
	cmd.Flags().StringVar(&projectPath, "project-path", "", "project path")
	cmd.Flags().StringVar(&tabID, "tab-id", "", "tab id")
	cmd.Flags().Bool("remote", false, "query ran against a remote host")
	cmd.MarkFlagRequired("session-id")
	cmd.MarkFlagRequired("agent-type")
	return cmd
}

func newRecordSessionCreatedCmd() *cobra.Command {
	var (
		sessionID   string
		agentType   string
		projectPath string
	)

	cmd := &cobra.Command{
		Use:   "session-created",
		Short: "Record a session lifecycle start",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			id, err := store.InsertSessionEvent(types.SessionEvent{
				SessionID:   sessionID,
				AgentType:   agentType,
				ProjectPath: optStr(projectPath),
				CreatedAt:   time.Now().UnixMilli(),
				IsRemote:    optBool(cmd, "remote"),
			})
			if err != nil {
				return err
			}
			cmd.Printf("%s %s\n", id, sessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "session id (generated when omitted)")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "agent running the session")
	cmd.Flags().StringVar(&projectPath, "project-path", "", "project path")
	cmd.Flags().Bool("remote", false, "session runs against a remote host")
	cmd.MarkFlagRequired("agent-type")
	return cmd
}

func newRecordSessionClosedCmd() *cobra.Command {
	var (
		sessionID string
		closedAt  int64
	)

	cmd := &cobra.Command{
		Use:   "session-closed",
		Short: "Record a session lifecycle end",
		RunE: func(cmd *cobra.Command, args []string) error {
			if closedAt == 0 {
				closedAt = time.Now().UnixMilli()
			}
			closed, err := store.CloseSessionEvent(sessionID, closedAt)
			if err != nil {
				return err
			}
			if !closed {
				cmd.Println("no open session found")
				return nil
			}
			cmd.Println("closed")
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "session id to close")
	cmd.Flags().Int64Var(&closedAt, "closed-at", 0, "close time in epoch ms (default now)")
	cmd.MarkFlagRequired("session-id")
	return cmd
}
