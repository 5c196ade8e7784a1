package sqlite

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentdeck/statsdb/internal/paths"
	"github.com/agentdeck/statsdb/pkg/types"
)

// InsertQueryEvent stores one interactive query event and returns its
// generated id. Path fields are normalized; omitted optionals are stored
// as NULL.
func (s *Store) InsertQueryEvent(ev types.QueryEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return "", types.ErrNotInitialized
	}

	id := newRecordID()
	_, err := s.db.Exec(
		`INSERT INTO query_events
             (id, session_id, agent_type, source, start_time, duration, project_path, tab_id, is_remote)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ev.SessionID, ev.AgentType, ev.Source, ev.StartTime, ev.Duration,
		paths.NormalizePtr(ev.ProjectPath), ev.TabID, boolPtrToInt(ev.IsRemote),
	)
	if err != nil {
		return "", fmt.Errorf("inserting query event: %w", err)
	}
	return id, nil
}

// InsertAutoRunSession stores a new batch run with zero duration and zero
// completed tasks; both are filled in by UpdateAutoRunSession when the run
// ends.
func (s *Store) InsertAutoRunSession(sess types.AutoRunSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return "", types.ErrNotInitialized
	}

	id := newRecordID()
	_, err := s.db.Exec(
		`INSERT INTO auto_run_sessions
             (id, session_id, agent_type, document_path, start_time, duration, tasks_total, tasks_completed, project_path)
         VALUES (?, ?, ?, ?, ?, 0, ?, 0, ?)`,
		id, sess.SessionID, sess.AgentType, paths.NormalizePtr(sess.DocumentPath),
		sess.StartTime, sess.TasksTotal, paths.NormalizePtr(sess.ProjectPath),
	)
	if err != nil {
		return "", fmt.Errorf("inserting auto run session: %w", err)
	}
	return id, nil
}

// UpdateAutoRunSession applies the end-of-run partial update, touching only
// the supplied fields. Returns true iff a row was affected; an unknown id
// yields false, not an error.
func (s *Store) UpdateAutoRunSession(id string, update types.AutoRunSessionUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return false, types.ErrNotInitialized
	}

	var sets []string
	var args []any
	if update.Duration != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *update.Duration)
	}
	if update.TasksCompleted != nil {
		sets = append(sets, "tasks_completed = ?")
		args = append(args, *update.TasksCompleted)
	}
	if update.DocumentPath != nil {
		sets = append(sets, "document_path = ?")
		args = append(args, paths.Normalize(*update.DocumentPath))
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, id)

	res, err := s.db.Exec(
		"UPDATE auto_run_sessions SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("updating auto run session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating auto run session %s: %w", id, err)
	}
	return affected > 0, nil
}

// InsertAutoRunTask stores one task of a batch run. The parent session must
// exist: the foreign key rejects orphaned tasks.
func (s *Store) InsertAutoRunTask(task types.AutoRunTask) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return "", types.ErrNotInitialized
	}

	id := newRecordID()
	_, err := s.db.Exec(
		`INSERT INTO auto_run_tasks
             (id, auto_run_session_id, session_id, agent_type, task_index, task_content, start_time, duration, success)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.AutoRunSessionID, task.SessionID, task.AgentType, task.TaskIndex,
		task.TaskContent, task.StartTime, task.Duration, boolToInt(task.Success),
	)
	if err != nil {
		return "", fmt.Errorf("inserting auto run task: %w", err)
	}
	return id, nil
}

// InsertSessionEvent stores a session lifecycle row, normally at session
// creation with ClosedAt and Duration still unset.
func (s *Store) InsertSessionEvent(ev types.SessionEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return "", types.ErrNotInitialized
	}

	id := newRecordID()
	_, err := s.db.Exec(
		`INSERT INTO session_lifecycle
             (id, session_id, agent_type, project_path, created_at, closed_at, duration, is_remote)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ev.SessionID, ev.AgentType, paths.NormalizePtr(ev.ProjectPath),
		ev.CreatedAt, ev.ClosedAt, ev.Duration, boolPtrToInt(ev.IsRemote),
	)
	if err != nil {
		return "", fmt.Errorf("inserting session event: %w", err)
	}
	return id, nil
}

// CloseSessionEvent marks the most recent open lifecycle row for the given
// session as closed, deriving duration from closedAt minus created_at.
// Returns true iff a row was affected.
func (s *Store) CloseSessionEvent(sessionID string, closedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReady() {
		return false, types.ErrNotInitialized
	}

	res, err := s.db.Exec(
		`UPDATE session_lifecycle
         SET closed_at = ?, duration = ? - created_at
         WHERE id = (
             SELECT id FROM session_lifecycle
             WHERE session_id = ? AND closed_at IS NULL
             ORDER BY created_at DESC LIMIT 1
         )`,
		closedAt, closedAt, sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("closing session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("closing session %s: %w", sessionID, err)
	}
	return affected > 0, nil
}

// QueryEvents returns events in the range, newest first, with optional
// ANDed equality filters.
func (s *Store) QueryEvents(r types.Range, filter *types.QueryEventFilter) ([]types.QueryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return nil, types.ErrNotInitialized
	}
	if !r.Valid() {
		return nil, types.ErrInvalidRange
	}
	return s.queryEventsLocked(r, filter)
}

// queryEventsLocked runs the range scan. Caller holds at least a read lock.
func (s *Store) queryEventsLocked(r types.Range, filter *types.QueryEventFilter) ([]types.QueryEvent, error) {
	where, args := queryEventWhere(r.CutoffMillis(s.now()), filter)

	rows, err := s.db.Query(
		`SELECT id, session_id, agent_type, source, start_time, duration, project_path, tab_id, is_remote
         FROM query_events `+where+` ORDER BY start_time DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying query events: %w", err)
	}
	defer rows.Close()

	events := []types.QueryEvent{}
	for rows.Next() {
		var ev types.QueryEvent
		var isRemote *int64
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.AgentType, &ev.Source,
			&ev.StartTime, &ev.Duration, &ev.ProjectPath, &ev.TabID, &isRemote); err != nil {
			return nil, fmt.Errorf("scanning query event: %w", err)
		}
		ev.IsRemote = intPtrToBool(isRemote)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query events: %w", err)
	}
	return events, nil
}

// queryEventWhere builds the WHERE clause shared by the range scan and the
// aggregation queries.
func queryEventWhere(cutoff int64, filter *types.QueryEventFilter) (string, []any) {
	conditions := []string{"start_time >= ?"}
	args := []any{cutoff}

	if filter != nil {
		if filter.AgentType != "" {
			conditions = append(conditions, "agent_type = ?")
			args = append(args, filter.AgentType)
		}
		if filter.Source != "" {
			conditions = append(conditions, "source = ?")
			args = append(args, filter.Source)
		}
		if filter.ProjectPath != "" {
			conditions = append(conditions, "project_path = ?")
			args = append(args, paths.Normalize(filter.ProjectPath))
		}
		if filter.SessionID != "" {
			conditions = append(conditions, "session_id = ?")
			args = append(args, filter.SessionID)
		}
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// AutoRunSessions returns batch runs in the range, newest first.
func (s *Store) AutoRunSessions(r types.Range) ([]types.AutoRunSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return nil, types.ErrNotInitialized
	}
	if !r.Valid() {
		return nil, types.ErrInvalidRange
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, agent_type, document_path, start_time, duration, tasks_total, tasks_completed, project_path
         FROM auto_run_sessions WHERE start_time >= ? ORDER BY start_time DESC`,
		r.CutoffMillis(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("querying auto run sessions: %w", err)
	}
	defer rows.Close()

	sessions := []types.AutoRunSession{}
	for rows.Next() {
		var sess types.AutoRunSession
		if err := rows.Scan(&sess.ID, &sess.SessionID, &sess.AgentType, &sess.DocumentPath,
			&sess.StartTime, &sess.Duration, &sess.TasksTotal, &sess.TasksCompleted, &sess.ProjectPath); err != nil {
			return nil, fmt.Errorf("scanning auto run session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auto run sessions: %w", err)
	}
	return sessions, nil
}

// AutoRunTasks returns every task of the given batch run, ordered ascending
// by task index regardless of insertion order.
func (s *Store) AutoRunTasks(autoRunSessionID string) ([]types.AutoRunTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return nil, types.ErrNotInitialized
	}

	rows, err := s.db.Query(
		`SELECT id, auto_run_session_id, session_id, agent_type, task_index, task_content, start_time, duration, success
         FROM auto_run_tasks WHERE auto_run_session_id = ? ORDER BY task_index ASC`,
		autoRunSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying auto run tasks: %w", err)
	}
	defer rows.Close()

	tasks := []types.AutoRunTask{}
	for rows.Next() {
		var task types.AutoRunTask
		var success int64
		if err := rows.Scan(&task.ID, &task.AutoRunSessionID, &task.SessionID, &task.AgentType,
			&task.TaskIndex, &task.TaskContent, &task.StartTime, &task.Duration, &success); err != nil {
			return nil, fmt.Errorf("scanning auto run task: %w", err)
		}
		task.Success = success != 0
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auto run tasks: %w", err)
	}
	return tasks, nil
}

// SessionEvents returns lifecycle rows in the range, newest first.
func (s *Store) SessionEvents(r types.Range) ([]types.SessionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return nil, types.ErrNotInitialized
	}
	if !r.Valid() {
		return nil, types.ErrInvalidRange
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, agent_type, project_path, created_at, closed_at, duration, is_remote
         FROM session_lifecycle WHERE created_at >= ? ORDER BY created_at DESC`,
		r.CutoffMillis(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	events := []types.SessionEvent{}
	for rows.Next() {
		var ev types.SessionEvent
		var isRemote *int64
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.AgentType, &ev.ProjectPath,
			&ev.CreatedAt, &ev.ClosedAt, &ev.Duration, &isRemote); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		ev.IsRemote = intPtrToBool(isRemote)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session events: %w", err)
	}
	return events, nil
}

// csvHeader is the fixed export column set.
var csvHeader = []string{"id", "sessionId", "agentType", "source", "startTime", "duration", "projectPath", "tabId"}

// ExportCSV serializes the range's query events to CSV. An empty result
// set yields the header alone.
func (s *Store) ExportCSV(r types.Range) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return "", types.ErrNotInitialized
	}
	if !r.Valid() {
		return "", types.ErrInvalidRange
	}

	events, err := s.queryEventsLocked(r, nil)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("writing csv header: %w", err)
	}
	for _, ev := range events {
		record := []string{
			ev.ID,
			ev.SessionID,
			ev.AgentType,
			ev.Source,
			strconv.FormatInt(ev.StartTime, 10),
			strconv.FormatInt(ev.Duration, 10),
			strPtrOrEmpty(ev.ProjectPath),
			strPtrOrEmpty(ev.TabID),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	return buf.String(), nil
}

// ClearOldData deletes records older than the cutoff, in dependency order:
// tasks of old sessions, then old sessions, then old query events. Each
// statement commits independently; on failure the counts reflect whatever
// already committed.
func (s *Store) ClearOldData(olderThanDays int) types.ClearResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if olderThanDays <= 0 {
		return types.ClearResult{Success: false, Error: types.ErrInvalidRetention.Error()}
	}
	if s.notReady() {
		return types.ClearResult{Success: false, Error: types.ErrNotInitialized.Error()}
	}

	cutoff := s.now().UnixMilli() - int64(olderThanDays)*24*60*60*1000
	result := types.ClearResult{}

	deletions := []struct {
		count *int64
		query string
	}{
		{&result.DeletedAutoRunTasks,
			`DELETE FROM auto_run_tasks WHERE auto_run_session_id IN
             (SELECT id FROM auto_run_sessions WHERE start_time < ?)`},
		{&result.DeletedAutoRunSessions,
			`DELETE FROM auto_run_sessions WHERE start_time < ?`},
		{&result.DeletedQueryEvents,
			`DELETE FROM query_events WHERE start_time < ?`},
	}

	for _, d := range deletions {
		res, err := s.db.Exec(d.query, cutoff)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		n, err := res.RowsAffected()
		if err != nil {
			result.Error = err.Error()
			return result
		}
		*d.count = n
	}

	result.Success = true
	return result
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func boolPtrToInt(b *bool) *int64 {
	if b == nil {
		return nil
	}
	v := boolToInt(*b)
	return &v
}

func intPtrToBool(v *int64) *bool {
	if v == nil {
		return nil
	}
	b := *v != 0
	return &b
}

func strPtrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
