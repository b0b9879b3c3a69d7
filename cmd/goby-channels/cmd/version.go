package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../cmd.version=x.y.z".
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of goby-channels",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "goby-channels v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
