package sqlite

// Schema DDL, grouped by migration step. Every statement is safe to re-run
// on a pre-existing table.
const (
	createQueryEvents = `CREATE TABLE IF NOT EXISTS query_events (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    source TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    duration INTEGER NOT NULL DEFAULT 0,
    project_path TEXT,
    tab_id TEXT
);`

	createAutoRunSessions = `CREATE TABLE IF NOT EXISTS auto_run_sessions (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    document_path TEXT,
    start_time INTEGER NOT NULL,
    duration INTEGER NOT NULL DEFAULT 0,
    tasks_total INTEGER NOT NULL DEFAULT 0,
    tasks_completed INTEGER NOT NULL DEFAULT 0,
    project_path TEXT
);`

	createAutoRunTasks = `CREATE TABLE IF NOT EXISTS auto_run_tasks (
    id TEXT PRIMARY KEY,
    auto_run_session_id TEXT NOT NULL
        REFERENCES auto_run_sessions(id) ON DELETE CASCADE,
    session_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    task_index INTEGER NOT NULL,
    task_content TEXT,
    start_time INTEGER NOT NULL,
    duration INTEGER NOT NULL DEFAULT 0,
    success INTEGER NOT NULL DEFAULT 0
);`

	createSessionLifecycle = `CREATE TABLE IF NOT EXISTS session_lifecycle (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    project_path TEXT,
    created_at INTEGER NOT NULL,
    closed_at INTEGER,
    duration INTEGER,
    is_remote INTEGER
);`

	createMigrationsTable = `CREATE TABLE IF NOT EXISTS _migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at INTEGER NOT NULL,
    status TEXT NOT NULL,
    error_message TEXT
);`
)

// Index DDL for the query shapes the engine serves (time-range scans,
// single-key joins, grouped aggregates).
const (
	idxQueryEventsStartTime   = `CREATE INDEX IF NOT EXISTS idx_query_events_start_time ON query_events(start_time);`
	idxQueryEventsAgentType   = `CREATE INDEX IF NOT EXISTS idx_query_events_agent_type ON query_events(agent_type);`
	idxQueryEventsSource      = `CREATE INDEX IF NOT EXISTS idx_query_events_source ON query_events(source);`
	idxQueryEventsSessionID   = `CREATE INDEX IF NOT EXISTS idx_query_events_session_id ON query_events(session_id);`
	idxAutoRunSessionsStart   = `CREATE INDEX IF NOT EXISTS idx_auto_run_sessions_start_time ON auto_run_sessions(start_time);`
	idxAutoRunTasksSession    = `CREATE INDEX IF NOT EXISTS idx_auto_run_tasks_session ON auto_run_tasks(auto_run_session_id);`
	idxAutoRunTasksStartTime  = `CREATE INDEX IF NOT EXISTS idx_auto_run_tasks_start_time ON auto_run_tasks(start_time);`
	idxSessionLifecycleCreate = `CREATE INDEX IF NOT EXISTS idx_session_lifecycle_created_at ON session_lifecycle(created_at);`
	idxSessionLifecycleSess   = `CREATE INDEX IF NOT EXISTS idx_session_lifecycle_session_id ON session_lifecycle(session_id);`
)

// migrationV1 lists the base tables and their seven indexes.
var migrationV1 = []string{
	createQueryEvents,
	createAutoRunSessions,
	createAutoRunTasks,
	idxQueryEventsStartTime,
	idxQueryEventsAgentType,
	idxQueryEventsSource,
	idxQueryEventsSessionID,
	idxAutoRunSessionsStart,
	idxAutoRunTasksSession,
	idxAutoRunTasksStartTime,
}

// migrationV3 adds the session lifecycle table.
var migrationV3 = []string{
	createSessionLifecycle,
	idxSessionLifecycleCreate,
	idxSessionLifecycleSess,
}
