package chat

import (
	"github.com/nfrund/goby-channels/internal/modules/chat/events"
	"github.com/nfrund/goby-channels/internal/pubsub"
)

var (
	// EventUserJoined reports channel joins.
	EventUserJoined = pubsub.NewEvent[events.UserJoined]("chat.user.joined", "A client joined a channel")
	// EventUserLeft reports channel leaves.
	EventUserLeft = pubsub.NewEvent[events.UserLeft]("chat.user.left", "A client left a channel")
	// EventMessageRouted reports accepted chat and direct messages.
	EventMessageRouted = pubsub.NewEvent[events.MessageRouted]("chat.message.routed", "A chat or direct message was routed")
)
