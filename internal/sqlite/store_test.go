package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentdeck/statsdb/pkg/types"
)

// newTestStore creates and initializes a store in a temp dir.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_FreshInitialize(t *testing.T) {
	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	version, err := s.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion before Initialize failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 before Initialize, got %d", version)
	}

	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer s.Close()

	if !s.IsReady() {
		t.Error("store not ready after Initialize")
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("stats.db not created: %v", err)
	}

	version, err = s.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != s.TargetVersion() {
		t.Errorf("expected version %d after Initialize, got %d", s.TargetVersion(), version)
	}

	pending, err := s.HasPendingMigrations()
	if err != nil {
		t.Fatalf("HasPendingMigrations failed: %v", err)
	}
	if pending {
		t.Error("expected no pending migrations after Initialize")
	}

	// All four record tables plus migration history exist.
	for _, table := range []string{"query_events", "auto_run_sessions", "auto_run_tasks", "session_lifecycle", "_migrations"} {
		exists, err := tableExists(s.db, table)
		if err != nil {
			t.Fatalf("tableExists(%q) failed: %v", table, err)
		}
		if !exists {
			t.Errorf("table %q missing", table)
		}
	}

	var indexes int
	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%'",
	).Scan(&indexes)
	if err != nil {
		t.Fatalf("counting indexes failed: %v", err)
	}
	if indexes < 7 {
		t.Errorf("expected at least 7 indexes, got %d", indexes)
	}
}

func TestStore_InitializeIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Initialize(); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}

	version, err := s.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != targetVersion {
		t.Errorf("expected version %d, got %d", targetVersion, version)
	}
}

func TestStore_ReopenExisting(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	id, err := s.InsertQueryEvent(types.QueryEvent{
		SessionID: "s1", AgentType: "claude-code", Source: types.SourceUser,
		StartTime: 1700000000000, Duration: 100,
	})
	if err != nil {
		t.Fatalf("InsertQueryEvent failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A second store over the same file sees the data and needs no
	// further migration.
	s2, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s2.Initialize(); err != nil {
		t.Fatalf("reopen Initialize failed: %v", err)
	}
	defer s2.Close()

	events, err := s2.QueryEvents(types.RangeAll, nil)
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != id {
		t.Errorf("expected the inserted event after reopen, got %+v", events)
	}
}

func TestStore_CloseIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should not error, got %v", err)
	}
	if s.IsReady() {
		t.Error("store still ready after Close")
	}
}

func TestStore_NotInitialized(t *testing.T) {
	s, err := NewStore(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := s.InsertQueryEvent(types.QueryEvent{SessionID: "s"}); err != types.ErrNotInitialized {
		t.Errorf("InsertQueryEvent: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.QueryEvents(types.RangeAll, nil); err != types.ErrNotInitialized {
		t.Errorf("QueryEvents: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.AggregatedStats(types.RangeAll, nil); err != types.ErrNotInitialized {
		t.Errorf("AggregatedStats: expected ErrNotInitialized, got %v", err)
	}

	result := s.Vacuum()
	if result.Success || result.Error != types.ErrNotInitialized.Error() {
		t.Errorf("Vacuum: expected not-initialized failure, got %+v", result)
	}
}

func TestStore_PathResolvedOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	want := filepath.Join(dir, "stats.db")
	if s.Path() != want {
		t.Errorf("expected path %q, got %q", want, s.Path())
	}
}
