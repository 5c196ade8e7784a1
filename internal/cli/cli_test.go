package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and returns its combined
// output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "statsdb "+Version)
}

func TestLoadConfig_CreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.DataDir)
	assert.Zero(t, cfg.VacuumThresholdBytes)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "statsdb configuration")

	// A second load leaves the existing file alone.
	_, err = loadConfig(dir)
	require.NoError(t, err)
}

func TestLoadConfig_ReadsValues(t *testing.T) {
	dir := t.TempDir()
	content := "data_dir: /tmp/statsdb-data\nvacuum_threshold_bytes: 12345\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/statsdb-data", cfg.DataDir)
	assert.Equal(t, int64(12345), cfg.VacuumThresholdBytes)
}

func TestRecordAndListRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	configDir := t.TempDir()
	global := []string{"--data-dir", dataDir, "--config-dir", configDir}

	out, err := runCommand(t, append([]string{
		"record", "query",
		"--session-id", "s1",
		"--agent-type", "claude-code",
		"--duration", "42",
	}, global...)...)
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out), "record query should print the new id")

	out, err = runCommand(t, append([]string{"events"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 event(s)")
	assert.Contains(t, out, "claude-code")
}

func TestInitCommand(t *testing.T) {
	dataDir := t.TempDir()
	configDir := t.TempDir()

	out, err := runCommand(t, "init", "--data-dir", dataDir, "--config-dir", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "stats.db")
	assert.Contains(t, out, "schema v3")

	_, err = os.Stat(filepath.Join(dataDir, "stats.db"))
	require.NoError(t, err)
}

func TestCheckCommand(t *testing.T) {
	dataDir := t.TempDir()
	configDir := t.TempDir()

	out, err := runCommand(t, "check", "--data-dir", dataDir, "--config-dir", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}
