package cli

import "github.com/spf13/cobra"

// Version is the CLI version, overridable at build time with
// -ldflags "-X github.com/agentdeck/statsdb/internal/cli.Version=...".
var Version = "0.3.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the statsdb version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("statsdb " + Version)
		},
	}
}
