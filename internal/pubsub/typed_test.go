package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

type pingPayload struct {
	Channel string `json:"channel"`
	Count   int    `json:"count,omitempty"`
	Secret  string `json:"-"`
}

var pingEvent = NewEvent[pingPayload]("pingtest.ping", "Test ping event")

func TestNewEvent_RegistersModuleTopic(t *testing.T) {
	topic, ok := topicmgr.Default().Get("pingtest.ping")
	require.True(t, ok)

	assert.Equal(t, "pingtest", topic.Module())
	assert.Equal(t, topicmgr.ScopeModule, topic.Scope())
	assert.Equal(t, []string{"channel", "count"}, topic.Metadata()["payload_fields"])
	assert.Equal(t, "pingPayload", topic.Metadata()["type_name"])

	assert.NotPanics(t, func() { NewEvent[pingPayload]("pingtest.ping", "Test ping event") })
	assert.Panics(t, func() { NewEvent[pingPayload]("Bad Name", "invalid") })
}

func TestTypedPublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan pingPayload, 1)
	require.NoError(t, Subscribe(ctx, bridge, pingEvent, func(_ context.Context, p pingPayload) error {
		got <- p
		return nil
	}))

	require.NoError(t, Publish(ctx, bridge, pingEvent, pingPayload{Channel: "lobby", Count: 3}))

	select {
	case p := <-got:
		assert.Equal(t, pingPayload{Channel: "lobby", Count: 3}, p)
	case <-time.After(2 * time.Second):
		t.Fatal("typed event not delivered")
	}
}
