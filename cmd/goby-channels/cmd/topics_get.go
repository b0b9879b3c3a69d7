package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/cmd/goby-channels/internal/topics"
)

var getOutputFormat string

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Show every detail of one topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize()
		if err != nil {
			return fmt.Errorf("initialize topics: %w", err)
		}
		topic, err := manager.Lookup(args[0])
		if err != nil {
			return fmt.Errorf("%w (use 'goby-channels topics list' to see all topics)", err)
		}
		return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
	},
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)
	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
