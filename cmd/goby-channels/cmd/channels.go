package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/internal/handlers"
)

var (
	channelsServer string
	channelsFormat string
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect the channels of a running server",
	Long: `Query the admin API of a running goby-channels server.

Examples:
  goby-channels channels list
  goby-channels channels list --server http://chat.internal:8080 --format json
  goby-channels channels members lobby`,
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live channels with their member counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var channels []handlers.ChannelResponse
		raw, err := getJSON(channelsServer+"/api/channels", &channels)
		if err != nil {
			return err
		}
		if channelsFormat == "json" {
			_, err := cmd.OutOrStdout().Write(raw)
			return err
		}
		printChannels(cmd.OutOrStdout(), channels)
		return nil
	},
}

var channelsMembersCmd = &cobra.Command{
	Use:   "members <channel>",
	Short: "List the usernames in a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var members handlers.MembersResponse
		raw, err := getJSON(channelsServer+"/api/channels/"+args[0]+"/members", &members)
		if err != nil {
			return err
		}
		if channelsFormat == "json" {
			_, err := cmd.OutOrStdout().Write(raw)
			return err
		}
		for _, name := range members.Members {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func printChannels(w io.Writer, channels []handlers.ChannelResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "CHANNEL\tMEMBERS\tMESSAGES\tCREATED")
	for _, ch := range channels {
		messages := "-"
		if ch.Activity != nil {
			messages = fmt.Sprint(ch.Activity.Messages)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", ch.Name, ch.MemberCount, messages, ch.CreatedAt.Format(time.RFC3339))
	}
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// getJSON decodes the body of a successful GET into out and returns the raw body.
func getJSON(url string, out any) ([]byte, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr handlers.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return raw, json.Unmarshal(raw, out)
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.AddCommand(channelsListCmd, channelsMembersCmd)
	channelsCmd.PersistentFlags().StringVar(&channelsServer, "server", "http://localhost:8080", "Base URL of the server")
	channelsCmd.PersistentFlags().StringVarP(&channelsFormat, "format", "f", "table", "Output format (table, json)")
}
