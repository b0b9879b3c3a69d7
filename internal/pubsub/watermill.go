package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// Metadata keys that carry Message fields through a watermill message.
const (
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// WatermillBridge is the in-process bus. It implements Publisher and Subscriber
// on top of watermill's GoChannel.
type WatermillBridge struct {
	pub        message.Publisher
	sub        message.Subscriber
	middleware func(message.HandlerFunc) message.HandlerFunc
	logger     *slog.Logger
}

type bridgeOptions struct {
	tracer    trace.Tracer
	buffer    int64
	wmLogger  watermill.LoggerAdapter
	appLogger *slog.Logger
}

// BridgeOption configures NewWatermillBridge.
type BridgeOption func(*bridgeOptions)

// WithTracer traces every publish and every handled message with tracer.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(o *bridgeOptions) { o.tracer = tracer }
}

// WithOutputBuffer sets the per-subscriber output channel buffer.
func WithOutputBuffer(n int64) BridgeOption {
	return func(o *bridgeOptions) { o.buffer = n }
}

// WithBusLogger sets the logger used for handler failures.
func WithBusLogger(logger *slog.Logger) BridgeOption {
	return func(o *bridgeOptions) { o.appLogger = logger }
}

// NewWatermillBridge creates an in-memory bus.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	o := bridgeOptions{
		wmLogger:  watermill.NewStdLogger(false, false),
		appLogger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: o.buffer},
		o.wmLogger,
	)

	wb := &WatermillBridge{
		pub:        goChannel,
		sub:        goChannel,
		middleware: func(h message.HandlerFunc) message.HandlerFunc { return h },
		logger:     o.appLogger.With("component", "pubsub"),
	}
	if o.tracer != nil {
		wb.pub = NewPublisherTracingMiddleware(goChannel, o.tracer)
		wb.middleware = TracingMiddleware(o.tracer)
	}
	return wb
}

func toWatermill(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	wmMsg.SetContext(ctx)
	return wmMsg
}

func fromWatermill(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic && k != metaKeyUserID {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish sends msg on msg.Topic.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, toWatermill(ctx, msg))
}

// Subscribe delivers messages on topic to handler from a background goroutine.
// A handler error is logged and the message is still acked; GoChannel would
// otherwise redeliver it forever.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	process := wb.middleware(func(wmMsg *message.Message) ([]*message.Message, error) {
		return nil, handler(wmMsg.Context(), fromWatermill(wmMsg))
	})

	go func() {
		for wmMsg := range messages {
			wmMsg.SetContext(ctx)
			if _, err := process(wmMsg); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("Subscription ended", "topic", topic)
	}()
	return nil
}

// Close stops all subscriptions.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
