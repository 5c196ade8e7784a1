package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"windows path", `C:\Users\dev\project`, "C:/Users/dev/project"},
		{"posix path unchanged", "/home/dev/project", "/home/dev/project"},
		{"mixed separators", `C:/Users\dev/project`, "C:/Users/dev/project"},
		{"empty", "", ""},
		{"relative", `sub\dir`, "sub/dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			// Idempotent: a second pass changes nothing.
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestNormalizePtr(t *testing.T) {
	assert.Nil(t, NormalizePtr(nil))

	in := `a\b`
	out := NormalizePtr(&in)
	require.NotNil(t, out)
	assert.Equal(t, "a/b", *out)
	// The input is not mutated.
	assert.Equal(t, `a\b`, in)
}

func TestStorePath(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "nested", "data")

	path, err := StorePath(dataDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "stats.db"), path)

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Repeat against the now-existing directory.
	again, err := StorePath(dataDir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestResolveDataDir_Precedence(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")

	dir, err := ResolveDataDir("/from/flag", "/from/config")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/from/flag"), dir)

	dir, err = ResolveDataDir("", "/from/config")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/from/config"), dir)

	dir, err = ResolveDataDir("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/from/env"), dir)
}

func TestResolveDataDir_FallsBackToDefault(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	want, err := DefaultDataDir()
	require.NoError(t, err)

	dir, err := ResolveDataDir("", "")
	require.NoError(t, err)
	assert.Equal(t, want, dir)
}

func TestDefaultDataDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-specific layout")
	}

	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/config/statsdb", dir)

	t.Setenv("XDG_CONFIG_HOME", "")
	restore := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "/home/dev", nil }
	defer func() { platformDir.homeDir = restore }()

	dir, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/dev/.config/statsdb", dir)
}

func TestDefaultDataDir_Other(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Skip("covered by the linux-specific test")
	}

	restore := platformDir.userConfigDir
	platformDir.userConfigDir = func() (string, error) { return "/cfg", nil }
	defer func() { platformDir.userConfigDir = restore }()

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", "statsdb"), dir)
}
