package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/agentdeck/statsdb/pkg/types"
)

func TestMigrationHistory_FullRun(t *testing.T) {
	s := newTestStore(t)

	history, err := s.MigrationHistory()
	if err != nil {
		t.Fatalf("MigrationHistory failed: %v", err)
	}
	if len(history) != len(migrationSteps) {
		t.Fatalf("expected %d history rows, got %d", len(migrationSteps), len(history))
	}

	for i, rec := range history {
		want := migrationSteps[i]
		if rec.Version != want.version {
			t.Errorf("row %d: version %d, want %d", i, rec.Version, want.version)
		}
		if rec.Description != want.description {
			t.Errorf("row %d: description %q, want %q", i, rec.Description, want.description)
		}
		if rec.Status != types.MigrationSuccess {
			t.Errorf("row %d: status %q", i, rec.Status)
		}
		if rec.ErrorMessage != nil {
			t.Errorf("row %d: unexpected error message %q", i, *rec.ErrorMessage)
		}
		if rec.AppliedAt <= 0 {
			t.Errorf("row %d: applied_at not set", i)
		}
	}
}

func TestMigrate_Rerunnable(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A second full open finds nothing to do and leaves history alone.
	s2, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s2.Initialize(); err != nil {
		t.Fatalf("reopen Initialize failed: %v", err)
	}
	defer s2.Close()

	version, err := s2.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != targetVersion {
		t.Errorf("expected version %d, got %d", targetVersion, version)
	}

	history, err := s2.MigrationHistory()
	if err != nil {
		t.Fatalf("MigrationHistory failed: %v", err)
	}
	if len(history) != len(migrationSteps) {
		t.Errorf("history grew on reopen: %d rows", len(history))
	}
}

func TestMigrate_ColumnUpgradeIsConditional(t *testing.T) {
	s := newTestStore(t)

	// The is_remote column landed in version 2 and survives re-runs.
	tx, err := s.db.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer tx.Rollback()

	exists, err := columnExists(tx, "query_events", "is_remote")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if !exists {
		t.Error("is_remote column missing after migration")
	}

	// Re-applying against an already-upgraded table is a no-op.
	if err := addColumnIfMissing(tx, "query_events", "is_remote", "INTEGER"); err != nil {
		t.Errorf("conditional add should be safe to repeat: %v", err)
	}
}

func TestMigrate_FailedStepRollsBackAndPropagates(t *testing.T) {
	dir := t.TempDir()

	original := migrationSteps
	t.Cleanup(func() { migrationSteps = original })

	// A step that does real work and then fails: the work must roll back
	// with the version bump, while the failure itself is recorded.
	migrationSteps = append(append([]migrationStep{}, original...), migrationStep{
		version:     4,
		description: "create half_done table",
		apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE half_done (id TEXT PRIMARY KEY)"); err != nil {
				return err
			}
			return errors.New("disk said no")
		},
	})

	s, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	err = s.Initialize()
	if err == nil {
		t.Fatal("Initialize should propagate the failed step")
	}
	if !strings.Contains(err.Error(), "migration to version 4") {
		t.Errorf("unexpected error: %v", err)
	}
	if s.IsReady() {
		t.Error("store must not serve traffic after a failed migration")
	}

	// Reopen with the healthy step list: the earlier steps committed, the
	// failed one left no trace beyond its history row.
	migrationSteps = original
	s2, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s2.Initialize(); err != nil {
		t.Fatalf("reopen Initialize failed: %v", err)
	}
	defer s2.Close()

	version, err := s2.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != targetVersion {
		t.Errorf("failed bump should roll back: version %d, want %d", version, targetVersion)
	}

	exists, err := tableExists(s2.db, "half_done")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("partial DDL of the failed step survived the rollback")
	}

	history, err := s2.MigrationHistory()
	if err != nil {
		t.Fatalf("MigrationHistory failed: %v", err)
	}
	if len(history) != len(original)+1 {
		t.Fatalf("expected %d history rows, got %d", len(original)+1, len(history))
	}
	last := history[len(history)-1]
	if last.Version != 4 || last.Status != types.MigrationFailed {
		t.Errorf("failed step not recorded: %+v", last)
	}
	if last.ErrorMessage == nil || !strings.Contains(*last.ErrorMessage, "disk said no") {
		t.Errorf("error text not captured: %v", last.ErrorMessage)
	}
}

func TestMigrationHistory_NoTable(t *testing.T) {
	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := s.MigrationHistory(); err != types.ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized before open, got %v", err)
	}
}
