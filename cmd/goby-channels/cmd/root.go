package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goby-channels",
	Short: "Real-time channel server and tooling",
	Long: `goby-channels runs the WebSocket channel server and inspects it.

Available commands:
  serve      Run the channel server
  channels   Inspect the channels of a running server
  topics     Explore the bus topics the server publishes and consumes
  version    Print the version

Use "goby-channels [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
