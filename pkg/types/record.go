package types

// Query event sources.
const (
	SourceUser = "user"
	SourceAuto = "auto"
)

// QueryEvent records a single interactive query. Immutable once inserted.
// All timestamps are epoch milliseconds; Duration is milliseconds and never
// negative. Optional fields are nil when absent.
type QueryEvent struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"sessionId"`
	AgentType   string  `json:"agentType"`
	Source      string  `json:"source"`
	StartTime   int64   `json:"startTime"`
	Duration    int64   `json:"duration"`
	ProjectPath *string `json:"projectPath,omitempty"`
	TabID       *string `json:"tabId,omitempty"`
	IsRemote    *bool   `json:"isRemote,omitempty"`
}

// AutoRunSession records one batch "Auto Run". Duration and TasksCompleted
// start at zero and are filled in by a single partial update when the run
// ends or is stopped. DocumentPath may hold a comma-joined multi-document
// list.
type AutoRunSession struct {
	ID             string  `json:"id"`
	SessionID      string  `json:"sessionId"`
	AgentType      string  `json:"agentType"`
	DocumentPath   *string `json:"documentPath,omitempty"`
	StartTime      int64   `json:"startTime"`
	Duration       int64   `json:"duration"`
	TasksTotal     int64   `json:"tasksTotal"`
	TasksCompleted int64   `json:"tasksCompleted"`
	ProjectPath    *string `json:"projectPath,omitempty"`
}

// AutoRunSessionUpdate is the partial update applied to an AutoRunSession
// when the batch run finishes. Nil fields are left untouched.
type AutoRunSessionUpdate struct {
	Duration       *int64  `json:"duration,omitempty"`
	TasksCompleted *int64  `json:"tasksCompleted,omitempty"`
	DocumentPath   *string `json:"documentPath,omitempty"`
}

// AutoRunTask records one task executed within an AutoRunSession. TaskIndex
// is 0-based and defines retrieval order within the parent session.
// Immutable once inserted.
type AutoRunTask struct {
	ID               string  `json:"id"`
	AutoRunSessionID string  `json:"autoRunSessionId"`
	SessionID        string  `json:"sessionId"`
	AgentType        string  `json:"agentType"`
	TaskIndex        int64   `json:"taskIndex"`
	TaskContent      *string `json:"taskContent,omitempty"`
	StartTime        int64   `json:"startTime"`
	Duration         int64   `json:"duration"`
	Success          bool    `json:"success"`
}

// SessionEvent records a session lifecycle: one row per session, created on
// open and closed in place. Duration equals ClosedAt minus CreatedAt when
// both are present.
type SessionEvent struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"sessionId"`
	AgentType   string  `json:"agentType"`
	ProjectPath *string `json:"projectPath,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	ClosedAt    *int64  `json:"closedAt,omitempty"`
	Duration    *int64  `json:"duration,omitempty"`
	IsRemote    *bool   `json:"isRemote,omitempty"`
}

// Migration record statuses.
const (
	MigrationSuccess = "success"
	MigrationFailed  = "failed"
)

// MigrationRecord is one row of migration history, upserted by version.
// Rows are never deleted.
type MigrationRecord struct {
	Version      int     `json:"version"`
	Description  string  `json:"description"`
	AppliedAt    int64   `json:"appliedAt"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}

// QueryEventFilter narrows query-event retrieval and aggregation. Empty
// fields are ignored; non-empty fields are ANDed together. ProjectPath is
// normalized before comparison.
type QueryEventFilter struct {
	AgentType   string `json:"agentType,omitempty"`
	Source      string `json:"source,omitempty"`
	ProjectPath string `json:"projectPath,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
}
