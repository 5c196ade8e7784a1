package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/agentdeck/statsdb/pkg/types"
)

// targetVersion is the schema version this build migrates to. The version
// stored in the file header never exceeds it.
const targetVersion = 3

// migrationStep is one atomic, versioned schema change applied exactly once
// per store lifetime.
type migrationStep struct {
	version     int
	description string
	apply       func(*sql.Tx) error
}

// migrationSteps lists every step in order. Step N brings the schema from
// version N-1 to N.
var migrationSteps = []migrationStep{
	{
		version:     1,
		description: "create query_events, auto_run_sessions, auto_run_tasks and base indexes",
		apply: func(tx *sql.Tx) error {
			return execAll(tx, migrationV1)
		},
	},
	{
		version:     2,
		description: "add is_remote column to query_events",
		apply: func(tx *sql.Tx) error {
			return addColumnIfMissing(tx, "query_events", "is_remote", "INTEGER")
		},
	},
	{
		version:     3,
		description: "create session_lifecycle table",
		apply: func(tx *sql.Tx) error {
			return execAll(tx, migrationV3)
		},
	},
}

// CurrentVersion returns the schema version recorded in the store header.
// A store that has not been opened yet reports 0, the version of a
// brand-new file.
func (s *Store) CurrentVersion() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, nil
	}
	return currentVersion(s.db)
}

// TargetVersion returns the schema version this build migrates to.
func (s *Store) TargetVersion() int {
	return targetVersion
}

// HasPendingMigrations reports whether the stored schema version is behind
// the target.
func (s *Store) HasPendingMigrations() (bool, error) {
	current, err := s.CurrentVersion()
	if err != nil {
		return false, err
	}
	return current < targetVersion, nil
}

// MigrationHistory returns all migration records ordered by version. A
// store without a history table yields an empty slice, not an error.
func (s *Store) MigrationHistory() ([]types.MigrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, types.ErrNotInitialized
	}

	exists, err := tableExists(s.db, "_migrations")
	if err != nil {
		return nil, fmt.Errorf("checking migration history table: %w", err)
	}
	if !exists {
		return []types.MigrationRecord{}, nil
	}

	rows, err := s.db.Query(
		"SELECT version, description, applied_at, status, error_message FROM _migrations ORDER BY version ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying migration history: %w", err)
	}
	defer rows.Close()

	records := []types.MigrationRecord{}
	for rows.Next() {
		var rec types.MigrationRecord
		if err := rows.Scan(&rec.Version, &rec.Description, &rec.AppliedAt, &rec.Status, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning migration record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migration history: %w", err)
	}
	return records, nil
}

// migrate brings the schema from its current version to targetVersion,
// one transaction per step. A failed step is recorded, aborts the
// remaining steps, and propagates: an inconsistent schema must not
// silently serve traffic. Called with s.mu held.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(createMigrationsTable); err != nil {
		return fmt.Errorf("ensuring migration history table: %w", err)
	}

	current, err := currentVersion(s.db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, step := range migrationSteps {
		if step.version <= current {
			continue
		}

		err := withTransaction(s.db, func(tx *sql.Tx) error {
			if err := step.apply(tx); err != nil {
				return err
			}
			// user_version participates in the transaction, so the bump
			// rolls back with the step.
			_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", step.version))
			return err
		})
		if err != nil {
			// The failed record is written outside the rolled-back
			// transaction so the failure survives.
			s.recordMigration(step, types.MigrationFailed, err.Error())
			s.log.Error("migration step failed",
				"version", step.version, "error", err)
			return fmt.Errorf("migration to version %d: %w", step.version, err)
		}

		s.recordMigration(step, types.MigrationSuccess, "")
		s.log.Info("migration step applied", "version", step.version)
	}
	return nil
}

// recordMigration upserts the history row for a step. History writes are
// best-effort; a failure here must not mask the migration outcome.
func (s *Store) recordMigration(step migrationStep, status, errMsg string) {
	var msg any
	if errMsg != "" {
		msg = errMsg
	}
	_, err := s.db.Exec(
		`INSERT INTO _migrations (version, description, applied_at, status, error_message)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(version) DO UPDATE SET
             description = excluded.description,
             applied_at = excluded.applied_at,
             status = excluded.status,
             error_message = excluded.error_message`,
		step.version, step.description, s.now().UnixMilli(), status, msg,
	)
	if err != nil {
		s.log.Error("recording migration outcome failed",
			"version", step.version, "error", err)
	}
}

// withTransaction runs fn inside a transaction, committing on nil and
// rolling back on error.
func withTransaction(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// currentVersion reads the schema version from the store header.
func currentVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// execAll executes each statement in order inside the transaction.
func execAll(tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// addColumnIfMissing performs a conditional ALTER TABLE ADD COLUMN so the
// step is safe to run against a table that already carries the column.
func addColumnIfMissing(tx *sql.Tx, table, column, columnType string) error {
	exists, err := columnExists(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnType))
	return err
}

// columnExists checks the table schema for a named column.
func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// tableExists checks sqlite_master for a named table.
func tableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
