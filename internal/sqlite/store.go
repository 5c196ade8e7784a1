// Package sqlite implements the statsdb storage engine: a single-file
// SQLite store for usage telemetry with versioned schema migrations,
// corruption recovery, size-bounded maintenance, and grouped aggregation
// queries.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentdeck/statsdb/internal/paths"
	"github.com/agentdeck/statsdb/pkg/types"
)

// Store is the telemetry storage engine. Construct with NewStore, call
// Initialize before any data operation, and Close when done. All public
// operations are safe for concurrent use; the store serializes writes so
// each operation is atomic from the caller's perspective.
type Store struct {
	mu      sync.RWMutex
	ready   bool
	path    string
	dataDir string
	config  types.Config
	db      *sql.DB
	log     *slog.Logger

	// now is the clock used for range cutoffs and maintenance gates.
	// Overridden in tests.
	now func() time.Time
}

// NewStore creates an unopened Store. The storage file path is resolved
// once here and not re-evaluated later. Returns an error if the config is
// invalid or the data directory cannot be resolved or created.
func NewStore(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = paths.DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
	}

	path, err := paths.StorePath(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving store path: %w", err)
	}

	return &Store{
		path:    path,
		dataDir: dataDir,
		config:  config,
		log:     slog.Default().With("component", "statsdb"),
		now:     time.Now,
	}, nil
}

// Path returns the resolved storage file location.
func (s *Store) Path() string {
	return s.path
}

// IsReady reports whether Initialize has completed and the store is
// serving operations.
func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Initialize opens the storage file, validating (or recovering) a
// pre-existing file, bringing the schema to the target version, and
// opportunistically reclaiming space. It must complete before any data
// operation is dispatched. Calling Initialize on a ready store is a no-op.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	existed := fileExists(s.path)

	db, err := openWithRetry(s.path)
	if err != nil {
		if !existed {
			return fmt.Errorf("opening store: %w", err)
		}
		// A pre-existing file that will not even open is corrupt.
		s.log.Warn("store failed to open, starting recovery", "path", s.path, "error", err)
		db, err = s.recoverAndReopen()
		if err != nil {
			return err
		}
	} else if existed {
		report := checkIntegrity(db)
		if !report.OK {
			s.log.Warn("integrity check failed, starting recovery",
				"path", s.path, "errors", report.Errors)
			db.Close()
			db, err = s.recoverAndReopen()
			if err != nil {
				return err
			}
		}
	}

	s.db = db
	if err := s.migrate(); err != nil {
		s.db.Close()
		s.db = nil
		return err
	}

	s.ready = true
	s.weeklyVacuumLocked()
	return nil
}

// Close releases the storage file. Idempotent; the store may be
// re-initialized afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	s.ready = false

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	return nil
}

// recoverAndReopen runs the corruption-recovery cascade and opens a fresh
// store at the path. Called with s.mu held.
func (s *Store) recoverAndReopen() (*sql.DB, error) {
	if err := s.recoverCorrupt(); err != nil {
		return nil, fmt.Errorf("recovering corrupt store: %w", err)
	}
	db, err := openWithRetry(s.path)
	if err != nil {
		return nil, fmt.Errorf("reopening store after recovery: %w", err)
	}
	return db, nil
}

// notReady reports whether a data operation must be rejected. Callers hold
// at least a read lock.
func (s *Store) notReady() bool {
	return !s.ready || s.db == nil
}

// openWithRetry opens the SQLite file and verifies the connection,
// recreating the handle once on a transient failure before giving up.
func openWithRetry(path string) (*sql.DB, error) {
	db, err := openDB(path)
	if err == nil {
		return db, nil
	}
	return openDB(path)
}

// openDB opens the file with WAL journaling and foreign-key enforcement
// configured through the DSN, so every pooled connection carries the same
// pragmas and the journal mode is set before any migration runs.
func openDB(path string) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(on)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")

	dsn := fmt.Sprintf("file:%s?%s", path, params.Encode())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
