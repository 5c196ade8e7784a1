package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/agentdeck/statsdb/pkg/types"
)

// integrityOK is the single row SQLite reports when its consistency scan
// finds nothing wrong.
const integrityOK = "ok"

// CheckIntegrity runs the engine's built-in consistency scan. A store that
// is not open reports a single "database not initialized" error. Any
// failure raised by the scan itself (such as a locked file) is captured as
// an error string rather than propagated.
func (s *Store) CheckIntegrity() types.IntegrityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return types.IntegrityReport{OK: false, Errors: []string{"database not initialized"}}
	}
	return checkIntegrity(s.db)
}

// checkIntegrity scans the open handle. Usable before the store is marked
// ready, during Initialize.
func checkIntegrity(db *sql.DB) types.IntegrityReport {
	rows, err := db.Query("PRAGMA integrity_check")
	if err != nil {
		return types.IntegrityReport{OK: false, Errors: []string{err.Error()}}
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return types.IntegrityReport{OK: false, Errors: []string{err.Error()}}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return types.IntegrityReport{OK: false, Errors: []string{err.Error()}}
	}

	if len(messages) == 1 && messages[0] == integrityOK {
		return types.IntegrityReport{OK: true, Errors: []string{}}
	}
	return types.IntegrityReport{OK: false, Errors: messages}
}

// BackupDatabase copies the live file to <path>.backup.<epochMillis> and
// returns the backup path.
func (s *Store) BackupDatabase() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backupFile()
}

// backupFile copies the storage file aside. Separate from BackupDatabase so
// the recovery cascade can reuse it while holding the write lock.
func (s *Store) backupFile() (string, error) {
	if !fileExists(s.path) {
		return "", fmt.Errorf("backup source missing: %s", s.path)
	}

	dst := fmt.Sprintf("%s.backup.%d", s.path, s.now().UnixMilli())
	if err := copyFile(s.path, dst); err != nil {
		return "", fmt.Errorf("backing up store to %s: %w", dst, err)
	}
	return dst, nil
}

// recoveryStrategy is one step of the corruption-recovery cascade. Each
// strategy moves the damaged file out of the way; the first success wins.
type recoveryStrategy struct {
	name string
	run  func() error
}

// recoverCorrupt executes the cascade: back the damaged file up, or rename
// it aside, or as a last resort delete it outright. Stale WAL and
// shared-memory sidecars are removed regardless of which branch succeeded.
// Only when every strategy fails does the error propagate, failing
// initialization loudly. Called with s.mu held.
func (s *Store) recoverCorrupt() error {
	millis := s.now().UnixMilli()

	strategies := []recoveryStrategy{
		{
			name: "backup",
			run: func() error {
				if _, err := s.backupFile(); err != nil {
					return err
				}
				return os.Remove(s.path)
			},
		},
		{
			name: "rename",
			run: func() error {
				return os.Rename(s.path, fmt.Sprintf("%s.corrupted.%d", s.path, millis))
			},
		},
		{
			name: "delete",
			run: func() error {
				return os.Remove(s.path)
			},
		},
	}

	var failures []error
	recovered := false
	for _, strategy := range strategies {
		if err := strategy.run(); err != nil {
			s.log.Warn("recovery strategy failed",
				"strategy", strategy.name, "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", strategy.name, err))
			continue
		}
		s.log.Info("corrupt store recovered", "strategy", strategy.name)
		recovered = true
		break
	}

	s.removeSidecars()

	if !recovered {
		return fmt.Errorf("all recovery strategies failed: %v", failures)
	}
	return nil
}

// removeSidecars deletes stale WAL and shared-memory files left beside the
// store. Missing files are fine.
func (s *Store) removeSidecars() {
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			s.log.Warn("removing sidecar failed", "file", s.path+suffix, "error", err)
		}
	}
}

// copyFile copies src to dst, truncating any existing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
