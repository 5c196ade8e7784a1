// Package paths resolves the storage file location and normalizes
// filesystem path strings so stored paths compare equal across platforms.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// StoreFileName is the single-file store created under the data directory.
const StoreFileName = "stats.db"

// EnvDataDir overrides the platform data directory.
const EnvDataDir = "STATSDB_DATA_DIR"

// appDirName is the per-application directory under the platform base.
const appDirName = "statsdb"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultDataDir returns the platform-specific user-data directory.
//
// Linux:   $XDG_CONFIG_HOME/statsdb (fallback ~/.config/statsdb)
// macOS:   ~/Library/Application Support/statsdb
// Windows: %APPDATA%/statsdb
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configValue > STATSDB_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// StorePath returns <dataDir>/stats.db, creating dataDir (and parents) if
// absent. Creating an existing directory is a no-op.
func StorePath(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, StoreFileName), nil
}

// Normalize replaces every backslash in p with a forward slash so that
// stored paths compare equal across platforms. Already-normalized paths
// pass through unchanged; Normalize is idempotent.
func Normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// NormalizePtr normalizes an optional path. Nil passes through as nil.
func NormalizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	n := Normalize(*p)
	return &n
}
