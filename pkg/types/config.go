package types

import "errors"

// DefaultVacuumThreshold is the file size above which VacuumIfNeeded
// reclaims space, when no explicit threshold is configured.
const DefaultVacuumThreshold = 100 * 1024 * 1024

// Config holds store construction parameters.
type Config struct {
	// DataDir is the directory holding stats.db. Empty selects the
	// platform user-data directory.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// VacuumThresholdBytes overrides DefaultVacuumThreshold for the
	// opportunistic weekly vacuum. Zero means the default; a negative
	// value forces a vacuum on every weekly check.
	VacuumThresholdBytes int64 `json:"vacuum_threshold_bytes" yaml:"vacuum_threshold_bytes"`
}

// ErrThresholdTooLarge guards against a misconfigured threshold that could
// never trigger (beyond any plausible file size).
var ErrThresholdTooLarge = errors.New("vacuum threshold exceeds 1 TiB")

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.VacuumThresholdBytes > 1<<40 {
		return ErrThresholdTooLarge
	}
	return nil
}

// VacuumThreshold returns the effective weekly-vacuum threshold.
func (c Config) VacuumThreshold() int64 {
	if c.VacuumThresholdBytes == 0 {
		return DefaultVacuumThreshold
	}
	return c.VacuumThresholdBytes
}
