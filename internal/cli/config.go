package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/agentdeck/statsdb/internal/paths"
	"github.com/agentdeck/statsdb/pkg/types"
)

const (
	configName        = "config"
	configType        = "yaml"
	defaultConfigFile = "config.yaml"

	cfgKeyDataDir         = "data_dir"
	cfgKeyVacuumThreshold = "vacuum_threshold_bytes"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# statsdb configuration

# Data directory holding stats.db (optional; overridable by --data-dir)
# data_dir:

# Weekly vacuum threshold in bytes (0 uses the built-in 100 MiB default)
# vacuum_threshold_bytes: 0
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the directory and a default config.yaml on first run;
// a missing config.yaml is not an error.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if configDir == "" {
		var err error
		configDir, err = paths.DefaultDataDir()
		if err != nil {
			return cfg, fmt.Errorf("resolving config dir: %w", err)
		}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyVacuumThreshold, int64(0))
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.DataDir = v.GetString(cfgKeyDataDir)
	cfg.VacuumThresholdBytes = v.GetInt64(cfgKeyVacuumThreshold)
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, defaultConfigFile)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
