package topics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

func TestInitializeRegistersServerTopics(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)

	for _, name := range []string{"ws.client.ready", "ws.client.disconnected", "ws.channel.announce", "chat.user.joined", "chat.user.left", "chat.message.routed"} {
		_, ok := manager.Get(name)
		assert.True(t, ok, name)
	}

	_, err = Initialize()
	assert.NoError(t, err, "initialization is repeatable")
}

func TestDisplayTopics(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)
	list := manager.ListByModule("chat")

	var table bytes.Buffer
	DisplayTopicsTable(&table, list)
	assert.Contains(t, table.String(), "NAME")
	assert.Contains(t, table.String(), "chat.message.routed")

	var out bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&out, list))
	var decoded struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, len(list), decoded.Count)
	assert.Equal(t, "chat", decoded.Topics[0].Module)
}

func TestDisplayTopicDetails_Framework(t *testing.T) {
	topic := topicmgr.DefineFramework(topicmgr.TopicConfig{Name: "ws.test", Description: "d", Pattern: "ws.test"})

	var out bytes.Buffer
	require.NoError(t, DisplayTopicDetails(&out, topic, "table"))

	assert.Contains(t, out.String(), "Module:      (framework)")
	assert.NotContains(t, out.String(), "Example:")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncate("abcdef", 2))
}
