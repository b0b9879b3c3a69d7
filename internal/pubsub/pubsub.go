package pubsub

import (
	"context"
)

// Message is the envelope carried on the in-process bus.
type Message struct {
	// Topic names the event, e.g. "ws.client.ready".
	Topic string
	// UserID is the username the event concerns, if any.
	UserID string
	// Payload is the JSON encoded event body.
	Payload []byte
	// Metadata carries context such as the channel name or a timestamp.
	Metadata map[string]string
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages for topic to handler in the background
	// until ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
