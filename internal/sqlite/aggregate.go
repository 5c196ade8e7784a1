package sqlite

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/agentdeck/statsdb/internal/paths"
	"github.com/agentdeck/statsdb/pkg/types"
)

// dayExpr converts an epoch-millisecond column to a local-time calendar
// date, and hourExpr to a local-time hour of day. Grouping happens in the
// engine so the result stays bounded regardless of row count.
const (
	dayExpr  = "date(%s / 1000, 'unixepoch', 'localtime')"
	hourExpr = "CAST(strftime('%%H', %s / 1000, 'unixepoch', 'localtime') AS INTEGER)"
)

// AggregatedStats computes the dashboard summary for the range. Every
// figure comes from COUNT/SUM/GROUP BY queries; raw rows are never loaded.
func (s *Store) AggregatedStats(r types.Range, filter *types.QueryEventFilter) (*types.AggregatedStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notReady() {
		return nil, types.ErrNotInitialized
	}
	if !r.Valid() {
		return nil, types.ErrInvalidRange
	}

	cutoff := r.CutoffMillis(s.now())
	where, args := queryEventWhere(cutoff, filter)

	stats := &types.AggregatedStats{
		ByAgent:         map[string]types.AgentBucket{},
		ByDay:           []types.DayBucket{},
		ByHour:          []types.HourBucket{},
		SessionsByAgent: map[string]int64{},
		SessionsByDay:   []types.DayBucket{},
	}

	if err := s.queryTotals(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.queryByAgent(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.queryBySource(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.queryByLocation(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.queryByDay(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.queryByHour(stats, where, args); err != nil {
		return nil, err
	}
	if err := s.querySessionStats(stats, cutoff, filter); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) queryTotals(stats *types.AggregatedStats, where string, args []any) error {
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(duration), 0) FROM query_events "+where,
		args...,
	).Scan(&stats.TotalQueries, &stats.TotalDuration)
	if err != nil {
		return fmt.Errorf("aggregating totals: %w", err)
	}
	if stats.TotalQueries > 0 {
		stats.AvgDuration = int64(math.Round(float64(stats.TotalDuration) / float64(stats.TotalQueries)))
	}
	return nil
}

func (s *Store) queryByAgent(stats *types.AggregatedStats, where string, args []any) error {
	rows, err := s.db.Query(
		"SELECT agent_type, COUNT(*), COALESCE(SUM(duration), 0) FROM query_events "+
			where+" GROUP BY agent_type",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating by agent: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agent string
		var bucket types.AgentBucket
		if err := rows.Scan(&agent, &bucket.Count, &bucket.Duration); err != nil {
			return fmt.Errorf("scanning agent bucket: %w", err)
		}
		stats.ByAgent[agent] = bucket
	}
	return rows.Err()
}

func (s *Store) queryBySource(stats *types.AggregatedStats, where string, args []any) error {
	rows, err := s.db.Query(
		"SELECT source, COUNT(*) FROM query_events "+where+" GROUP BY source",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating by source: %w", err)
	}
	defer rows.Close()

	// Both known sources stay present with zero defaults even when absent
	// from the grouped rows.
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return fmt.Errorf("scanning source bucket: %w", err)
		}
		switch source {
		case types.SourceUser:
			stats.BySource.User = count
		case types.SourceAuto:
			stats.BySource.Auto = count
		}
	}
	return rows.Err()
}

func (s *Store) queryByLocation(stats *types.AggregatedStats, where string, args []any) error {
	// NULL is_remote predates the column and counts as local.
	err := s.db.QueryRow(
		`SELECT
             COALESCE(SUM(CASE WHEN is_remote IS NULL OR is_remote = 0 THEN 1 ELSE 0 END), 0),
             COALESCE(SUM(CASE WHEN is_remote = 1 THEN 1 ELSE 0 END), 0)
         FROM query_events `+where,
		args...,
	).Scan(&stats.ByLocation.Local, &stats.ByLocation.Remote)
	if err != nil {
		return fmt.Errorf("aggregating by location: %w", err)
	}
	return nil
}

func (s *Store) queryByDay(stats *types.AggregatedStats, where string, args []any) error {
	day := fmt.Sprintf(dayExpr, "start_time")
	rows, err := s.db.Query(
		"SELECT "+day+" AS day, COUNT(*), COALESCE(SUM(duration), 0) FROM query_events "+
			where+" GROUP BY day ORDER BY day ASC",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating by day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bucket types.DayBucket
		if err := rows.Scan(&bucket.Date, &bucket.Count, &bucket.Duration); err != nil {
			return fmt.Errorf("scanning day bucket: %w", err)
		}
		stats.ByDay = append(stats.ByDay, bucket)
	}
	return rows.Err()
}

func (s *Store) queryByHour(stats *types.AggregatedStats, where string, args []any) error {
	hour := fmt.Sprintf(hourExpr, "start_time")
	rows, err := s.db.Query(
		"SELECT "+hour+" AS hour, COUNT(*), COALESCE(SUM(duration), 0) FROM query_events "+
			where+" GROUP BY hour ORDER BY hour ASC",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating by hour: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bucket types.HourBucket
		if err := rows.Scan(&bucket.Hour, &bucket.Count, &bucket.Duration); err != nil {
			return fmt.Errorf("scanning hour bucket: %w", err)
		}
		stats.ByHour = append(stats.ByHour, bucket)
	}
	return rows.Err()
}

// querySessionStats computes the session-lifecycle figures analogously and
// merges them into the same result. Source does not apply to sessions; the
// remaining filters do.
func (s *Store) querySessionStats(stats *types.AggregatedStats, cutoff int64, filter *types.QueryEventFilter) error {
	conditions := "WHERE created_at >= ?"
	args := []any{cutoff}
	if filter != nil {
		if filter.AgentType != "" {
			conditions += " AND agent_type = ?"
			args = append(args, filter.AgentType)
		}
		if filter.ProjectPath != "" {
			conditions += " AND project_path = ?"
			args = append(args, paths.Normalize(filter.ProjectPath))
		}
		if filter.SessionID != "" {
			conditions += " AND session_id = ?"
			args = append(args, filter.SessionID)
		}
	}

	var avg sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT COUNT(*), AVG(duration) FROM session_lifecycle "+conditions,
		args...,
	).Scan(&stats.TotalSessions, &avg)
	if err != nil {
		return fmt.Errorf("aggregating session totals: %w", err)
	}
	if avg.Valid {
		stats.AvgSessionDuration = int64(math.Round(avg.Float64))
	}

	rows, err := s.db.Query(
		"SELECT agent_type, COUNT(*) FROM session_lifecycle "+conditions+" GROUP BY agent_type",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating sessions by agent: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var agent string
		var count int64
		if err := rows.Scan(&agent, &count); err != nil {
			return fmt.Errorf("scanning session agent bucket: %w", err)
		}
		stats.SessionsByAgent[agent] = count
	}
	if err := rows.Err(); err != nil {
		return err
	}

	day := fmt.Sprintf(dayExpr, "created_at")
	dayRows, err := s.db.Query(
		"SELECT "+day+" AS day, COUNT(*), COALESCE(SUM(COALESCE(duration, 0)), 0) FROM session_lifecycle "+
			conditions+" GROUP BY day ORDER BY day ASC",
		args...,
	)
	if err != nil {
		return fmt.Errorf("aggregating sessions by day: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var bucket types.DayBucket
		if err := dayRows.Scan(&bucket.Date, &bucket.Count, &bucket.Duration); err != nil {
			return fmt.Errorf("scanning session day bucket: %w", err)
		}
		stats.SessionsByDay = append(stats.SessionsByDay, bucket)
	}
	return dayRows.Err()
}
