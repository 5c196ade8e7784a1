// Command statsdb manages the local usage-telemetry store.
package main

import "github.com/agentdeck/statsdb/internal/cli"

func main() {
	cli.Execute()
}
