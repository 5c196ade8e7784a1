// Package cli implements the statsdb command-line interface, the local
// stand-in for the desktop application's IPC surface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentdeck/statsdb/internal/paths"
	"github.com/agentdeck/statsdb/internal/sqlite"
	"github.com/agentdeck/statsdb/pkg/types"
)

// exitUserError is the process exit code for any failed command.
const exitUserError = 1

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// store is the engine instance opened for the lifetime of one command.
var store *sqlite.Store

// NewRootCmd creates the top-level "statsdb" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statsdb",
		Short: "Local usage-telemetry store",
		Long: "Statsdb persists query events, Auto Run sessions and tasks, and\n" +
			"session lifecycle events in a single-file store, and serves\n" +
			"aggregated analytics back out.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:       true,
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory holding stats.db")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newInitCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newAutoRunCmd())
	root.AddCommand(newEventsCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newTasksCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newVacuumCmd())
	root.AddCommand(newSizeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newMigrationsCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// openStore builds and initializes the engine before any subcommand runs.
// The version command works without a store.
func openStore(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig(flags.configDir)
	if err != nil {
		return err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}

	store, err = sqlite.NewStore(types.Config{
		DataDir:              dataDir,
		VacuumThresholdBytes: cfg.VacuumThresholdBytes,
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	return nil
}

// closeStore releases the engine after the subcommand finishes.
func closeStore(cmd *cobra.Command, args []string) error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

// printResult writes v as indented JSON in --json mode, or hands off to the
// plain-text fallback.
func printResult(cmd *cobra.Command, v any, plain func()) error {
	if flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}
	plain()
	return nil
}

// optStr returns nil for an empty flag value.
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optBool returns nil unless the flag was set on the command line.
func optBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}
