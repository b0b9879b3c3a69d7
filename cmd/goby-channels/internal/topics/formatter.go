package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

// TopicDisplay is the JSON shape of a topic.
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Scope       string                 `json:"scope"`
	Module      string                 `json:"module"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		Pattern:     topic.Pattern(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// DisplayTopicsTable writes topics as an aligned table.
func DisplayTopicsTable(w io.Writer, topics []topicmgr.Topic) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tDESCRIPTION")
	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", topic.Name(), topic.Scope(), module, truncate(topic.Description(), 50))
	}
}

// DisplayTopicsJSON writes topics with a count as indented JSON.
func DisplayTopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	out := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{Topics: make([]TopicDisplay, 0, len(topics)), Count: len(topics)}
	for _, topic := range topics {
		out.Topics = append(out.Topics, toDisplay(topic))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// DisplayTopicDetails writes every field of one topic.
func DisplayTopicDetails(w io.Writer, topic topicmgr.Topic, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toDisplay(topic))
	}

	module := topic.Module()
	if module == "" {
		module = "(framework)"
	}
	fmt.Fprintf(w, "Name:        %s\n", topic.Name())
	fmt.Fprintf(w, "Scope:       %s\n", topic.Scope())
	fmt.Fprintf(w, "Module:      %s\n", module)
	fmt.Fprintf(w, "Description: %s\n", topic.Description())
	fmt.Fprintf(w, "Pattern:     %s\n", topic.Pattern())
	if topic.Example() != "" {
		fmt.Fprintf(w, "Example:     %s\n", topic.Example())
	}

	metadata := topic.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, metadata[k])
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
