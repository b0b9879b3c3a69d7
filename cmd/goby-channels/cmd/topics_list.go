package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/cmd/goby-channels/internal/topics"
	"github.com/nfrund/goby-channels/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List every topic known to the server, optionally filtered by module or scope.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize()
		if err != nil {
			return fmt.Errorf("initialize topics: %w", err)
		}

		list := manager.List()
		if listModuleFilter != "" {
			list = manager.ListByModule(listModuleFilter)
		}
		if listScopeFilter != "" {
			scope, err := parseScope(listScopeFilter)
			if err != nil {
				return err
			}
			list = lo.Filter(list, func(t topicmgr.Topic, _ int) bool { return t.Scope() == scope })
		}

		out := cmd.OutOrStdout()
		switch listOutputFormat {
		case "json":
			return topics.DisplayTopicsJSON(out, list)
		case "table":
			if len(list) == 0 {
				fmt.Fprintln(out, noTopicsMessage())
				return nil
			}
			topics.DisplayTopicsTable(out, list)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", listOutputFormat)
		}
	},
}

func noTopicsMessage() string {
	filters := make([]string, 0, 2)
	if listModuleFilter != "" {
		filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
	}
	if listScopeFilter != "" {
		filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
	}
	if len(filters) == 0 {
		return "No topics found"
	}
	return "No topics found matching: " + strings.Join(filters, ", ")
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)
	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
