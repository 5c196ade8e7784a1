package types

// IntegrityReport is the outcome of a consistency check. Errors lists every
// inconsistency message when OK is false.
type IntegrityReport struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// VacuumResult reports a space-reclamation attempt. Failures are reported
// here, never raised.
type VacuumResult struct {
	Success    bool   `json:"success"`
	BytesFreed int64  `json:"bytesFreed"`
	Error      string `json:"error,omitempty"`
}

// VacuumDecision reports whether a conditional vacuum ran. Result is nil
// when the vacuum was skipped.
type VacuumDecision struct {
	Vacuumed     bool          `json:"vacuumed"`
	DatabaseSize int64         `json:"databaseSize"`
	Result       *VacuumResult `json:"result,omitempty"`
}

// ClearResult reports a retention deletion. Deletions commit statement by
// statement: counts reflect whatever committed before the first error.
type ClearResult struct {
	Success                bool   `json:"success"`
	DeletedQueryEvents     int64  `json:"deletedQueryEvents"`
	DeletedAutoRunSessions int64  `json:"deletedAutoRunSessions"`
	DeletedAutoRunTasks    int64  `json:"deletedAutoRunTasks"`
	Error                  string `json:"error,omitempty"`
}
