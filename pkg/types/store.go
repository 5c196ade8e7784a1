package types

// Store is the telemetry storage engine contract. Construct an instance
// through the backend package, call Initialize before any data operation,
// and Close when done. Implementations are safe for concurrent use.
type Store interface {
	// Lifecycle.
	Initialize() error
	Close() error
	IsReady() bool
	Path() string

	// Writes.
	InsertQueryEvent(ev QueryEvent) (string, error)
	InsertAutoRunSession(sess AutoRunSession) (string, error)
	UpdateAutoRunSession(id string, update AutoRunSessionUpdate) (bool, error)
	InsertAutoRunTask(task AutoRunTask) (string, error)
	InsertSessionEvent(ev SessionEvent) (string, error)
	CloseSessionEvent(sessionID string, closedAt int64) (bool, error)

	// Reads.
	QueryEvents(r Range, filter *QueryEventFilter) ([]QueryEvent, error)
	AutoRunSessions(r Range) ([]AutoRunSession, error)
	AutoRunTasks(autoRunSessionID string) ([]AutoRunTask, error)
	SessionEvents(r Range) ([]SessionEvent, error)
	AggregatedStats(r Range, filter *QueryEventFilter) (*AggregatedStats, error)
	ExportCSV(r Range) (string, error)

	// Schema.
	CurrentVersion() (int, error)
	TargetVersion() int
	HasPendingMigrations() (bool, error)
	MigrationHistory() ([]MigrationRecord, error)

	// Maintenance.
	CheckIntegrity() IntegrityReport
	BackupDatabase() (string, error)
	DatabaseSize() int64
	Vacuum() VacuumResult
	VacuumIfNeeded(thresholdBytes int64) VacuumDecision
	ClearOldData(olderThanDays int) ClearResult
}
