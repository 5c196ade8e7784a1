package sqlite

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agentdeck/statsdb/pkg/types"
)

// vacuumGateFile stores the epoch-millisecond timestamp of the last
// opportunistic vacuum, beside the store file.
const vacuumGateFile = "last_vacuum"

// vacuumInterval is the cadence gate for opportunistic vacuums.
const vacuumInterval = 7 * 24 * time.Hour

// DatabaseSize returns the storage file size in bytes, or 0 if the file
// cannot be stat'd for any reason.
func (s *Store) DatabaseSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileSize()
}

func (s *Store) fileSize() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Vacuum reclaims space by rewriting the store file, measuring size before
// and after. Failures are reported in the result, never raised.
func (s *Store) Vacuum() types.VacuumResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vacuumLocked()
}

func (s *Store) vacuumLocked() types.VacuumResult {
	if s.notReady() {
		return types.VacuumResult{Success: false, Error: types.ErrNotInitialized.Error()}
	}

	before := s.fileSize()
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return types.VacuumResult{Success: false, Error: err.Error()}
	}
	freed := before - s.fileSize()
	if freed < 0 {
		freed = 0
	}
	return types.VacuumResult{Success: true, BytesFreed: freed}
}

// VacuumIfNeeded vacuums unless the file is below the threshold: the skip
// condition is strictly currentSize < thresholdBytes, so a zero or negative
// threshold forces a vacuum.
func (s *Store) VacuumIfNeeded(thresholdBytes int64) types.VacuumDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vacuumIfNeededLocked(thresholdBytes)
}

func (s *Store) vacuumIfNeededLocked(thresholdBytes int64) types.VacuumDecision {
	size := s.fileSize()
	if size < thresholdBytes {
		return types.VacuumDecision{Vacuumed: false, DatabaseSize: size}
	}

	result := s.vacuumLocked()
	return types.VacuumDecision{
		Vacuumed:     true,
		DatabaseSize: s.fileSize(),
		Result:       &result,
	}
}

// weeklyVacuumLocked runs the opportunistic size-gated vacuum when the last
// run is absent or older than a week, then refreshes the gate. Failures are
// logged and swallowed; maintenance must never fail initialization. Called
// with s.mu held.
func (s *Store) weeklyVacuumLocked() {
	gatePath := filepath.Join(s.dataDir, vacuumGateFile)

	if last, ok := readGateTimestamp(gatePath); ok {
		if s.now().Sub(time.UnixMilli(last)) < vacuumInterval {
			return
		}
	}

	decision := s.vacuumIfNeededLocked(s.config.VacuumThreshold())
	if decision.Vacuumed && decision.Result != nil && !decision.Result.Success {
		s.log.Warn("opportunistic vacuum failed", "error", decision.Result.Error)
	} else if decision.Vacuumed {
		s.log.Info("opportunistic vacuum completed",
			"bytesFreed", decision.Result.BytesFreed)
	}

	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := os.WriteFile(gatePath, []byte(stamp), 0o644); err != nil {
		s.log.Warn("refreshing vacuum gate failed", "error", err)
	}
}

// readGateTimestamp parses the gate file. A missing or malformed file
// reads as "never vacuumed".
func readGateTimestamp(path string) (int64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
