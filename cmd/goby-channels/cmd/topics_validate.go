package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/cmd/goby-channels/internal/topics"
	"github.com/nfrund/goby-channels/internal/topicmgr"
)

var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic name and its registered definition",
	Long: `Check a topic name against the naming rules (dotted lowercase segments, no
reserved prefix) and, when the topic is registered, its definition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize()
		if err != nil {
			return fmt.Errorf("initialize topics: %w", err)
		}

		v := topicmgr.NewValidator()
		if err := v.ValidateName(args[0]); err != nil {
			return fmt.Errorf("topic name validation failed: %w", err)
		}
		topic, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := v.ValidateDefinition(topic); err != nil {
			return fmt.Errorf("topic validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Topic '%s' is valid\n", topic.Name())
		fmt.Fprintf(out, "   Scope: %s\n", topic.Scope())
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
