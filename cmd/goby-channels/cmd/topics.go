package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the bus topics",
	Long: `The topics command lists, inspects and validates the topics carried on the
in-process bus. Framework topics (ws.*) are published or consumed by the
WebSocket hub; module topics are typed events defined by modules.

Examples:
  goby-channels topics list
  goby-channels topics list --module chat
  goby-channels topics list --scope framework --format json
  goby-channels topics get ws.client.ready
  goby-channels topics validate chat.user.joined`,
}

// parseScope converts a --scope flag value to a topic scope.
func parseScope(s string) (topicmgr.TopicScope, error) {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework, nil
	case "module":
		return topicmgr.ScopeModule, nil
	default:
		return "", fmt.Errorf("invalid scope %q, valid scopes: framework, module", s)
	}
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
