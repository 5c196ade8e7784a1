package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentdeck/statsdb/pkg/types"
)

func TestCheckIntegrity_Healthy(t *testing.T) {
	s := newTestStore(t)

	report := s.CheckIntegrity()
	if !report.OK {
		t.Errorf("healthy store should pass: %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Errorf("expected no errors, got %v", report.Errors)
	}
}

func TestCheckIntegrity_NotInitialized(t *testing.T) {
	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	report := s.CheckIntegrity()
	if report.OK {
		t.Error("unopened store should not pass")
	}
	if len(report.Errors) != 1 || report.Errors[0] != "database not initialized" {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
}

func TestInitialize_RecoversCorruptFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")

	// A file that is not a SQLite database at all.
	garbage := make([]byte, 4096)
	copy(garbage, "definitely not a database")
	if err := os.WriteFile(dbPath, garbage, 0o644); err != nil {
		t.Fatalf("writing garbage file failed: %v", err)
	}
	// Stale sidecars from a previous run.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.WriteFile(dbPath+suffix, []byte("stale"), 0o644); err != nil {
			t.Fatalf("writing sidecar failed: %v", err)
		}
	}

	s, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize should recover, got %v", err)
	}
	defer s.Close()

	if !s.IsReady() {
		t.Error("store not ready after recovery")
	}

	// The damaged file was preserved aside, not silently lost.
	backups, err := filepath.Glob(dbPath + ".backup.*")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	renamed, err := filepath.Glob(dbPath + ".corrupted.*")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(backups)+len(renamed) == 0 {
		t.Error("expected a backup or corrupted artifact beside the store")
	}

	// Stale sidecars are gone; modernc recreates -wal/-shm as needed, but
	// the pre-existing garbage must not survive recovery.
	report := s.CheckIntegrity()
	if !report.OK {
		t.Errorf("recovered store should pass integrity: %+v", report)
	}

	// The fresh store is usable end to end.
	if _, err := s.InsertQueryEvent(types.QueryEvent{
		SessionID: "s", AgentType: "a", Source: types.SourceUser,
		StartTime: 1, Duration: 1,
	}); err != nil {
		t.Errorf("insert after recovery failed: %v", err)
	}
}

func TestBackupDatabase(t *testing.T) {
	s := newTestStore(t)

	backupPath, err := s.BackupDatabase()
	if err != nil {
		t.Fatalf("BackupDatabase failed: %v", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		t.Fatalf("backup not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("backup is empty")
	}

	matched, err := filepath.Match("stats.db.backup.*", filepath.Base(backupPath))
	if err != nil || !matched {
		t.Errorf("unexpected backup name: %q", backupPath)
	}
}

func TestBackupDatabase_MissingSource(t *testing.T) {
	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// No Initialize, so no storage file exists yet.
	if _, err := s.BackupDatabase(); err == nil {
		t.Error("expected an error when the source file is missing")
	}
}
