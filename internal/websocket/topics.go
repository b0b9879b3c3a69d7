package websocket

import (
	"errors"

	"github.com/nfrund/goby-channels/internal/topicmgr"
)

// Lifecycle topics published by the Hub when a publisher is configured.
var (
	// TopicClientReady is published once a client has joined its channel
	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "Published when a WebSocket client has joined a channel",
		Pattern:     "ws.client.ready",
		Example:     `{"client_id":"7f1c...","username":"alice","channel":"lobby","remote_addr":"10.0.0.7"}`,
		Metadata: map[string]interface{}{
			"event_type":     "lifecycle",
			"payload_fields": []string{"client_id", "username", "channel", "remote_addr"},
		},
	})

	// TopicClientDisconnected is published after a client has left its channel
	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "Published when a WebSocket client has disconnected",
		Pattern:     "ws.client.disconnected",
		Example:     `{"client_id":"7f1c...","username":"alice","channel":"lobby","remote_addr":"10.0.0.7"}`,
		Metadata: map[string]interface{}{
			"event_type":     "lifecycle",
			"payload_fields": []string{"client_id", "username", "channel", "remote_addr"},
		},
	})

	// TopicChannelAnnounce is consumed by the Hub: each message is broadcast to
	// the members of its channel as an announcement event.
	TopicChannelAnnounce = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.channel.announce",
		Description: "Server-side announcement to broadcast into a channel",
		Pattern:     "ws.channel.announce",
		Example:     `{"channel":"lobby","from":"server","content":"Maintenance in 5 minutes"}`,
		Metadata: map[string]interface{}{
			"event_type":     "command",
			"payload_fields": []string{"channel", "from", "content"},
		},
	})
)

// Announcement is the payload of TopicChannelAnnounce.
type Announcement struct {
	Channel string `json:"channel" validate:"required"`
	From    string `json:"from"`
	Content string `json:"content" validate:"required"`
}

// ClientEvent is the payload of the lifecycle topics.
type ClientEvent struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Channel    string `json:"channel"`
	RemoteAddr string `json:"remote_addr"`
}

// RegisterTopics registers the lifecycle topics with the default topic manager.
// Already registered topics are skipped.
func RegisterTopics() error {
	return RegisterTopicsWithManager(topicmgr.Default())
}

// RegisterTopicsWithManager registers the lifecycle topics with manager.
func RegisterTopicsWithManager(manager *topicmgr.Manager) error {
	for _, topic := range []topicmgr.Topic{TopicClientReady, TopicClientDisconnected, TopicChannelAnnounce} {
		if err := manager.Register(topic); err != nil {
			if errors.Is(err, topicmgr.ErrDuplicate) {
				continue
			}
			return err
		}
	}
	return nil
}
