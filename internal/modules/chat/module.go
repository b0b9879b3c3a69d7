package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/nfrund/goby-channels/internal/module"
	"github.com/nfrund/goby-channels/internal/modules/chat/events"
	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// ChatModule mounts the channel endpoints, publishes chat events for every
// membership change and routed message, and answers the "stats" command.
type ChatModule struct {
	module.BaseModule
	activity  *Activity
	publisher pubsub.Publisher
	logger    *slog.Logger
	cancel    context.CancelFunc
	now       func() time.Time
}

// New creates the chat module.
func New() *ChatModule {
	return &ChatModule{
		activity: NewActivity(),
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Activity returns the module's activity tracker.
func (m *ChatModule) Activity() *Activity {
	return m.activity
}

// Register provides the activity tracker to other modules and handlers.
func (m *ChatModule) Register(i do.Injector) error {
	do.ProvideValue(i, m.activity)
	return nil
}

// Boot subscribes the activity tracker, installs the hub hooks and mounts
// the WebSocket routes on g.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	hub, err := do.Invoke[*websocket.Hub](i)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if m.publisher, err = do.Invoke[pubsub.Publisher](i); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	sub, err := do.Invoke[pubsub.Subscriber](i)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if logger, err := do.Invoke[*slog.Logger](i); err == nil {
		m.logger = logger
	}
	m.logger = m.logger.With("module", m.Name())

	subCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	if err := m.activity.Start(subCtx, sub); err != nil {
		cancel()
		return fmt.Errorf("chat: start activity subscriber: %w", err)
	}

	if err := hub.Commands().Register("stats", m.statsCommand); err != nil {
		cancel()
		return fmt.Errorf("chat: %w", err)
	}
	hub.SetHooks(m.Hooks())
	hub.Mount(g)

	m.logger.Info("Chat module booted")
	return nil
}

// Shutdown stops the activity subscriber and logs the final counters.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	for _, ca := range m.activity.All() {
		m.logger.Info("Channel activity",
			"channel", ca.Channel,
			"joins", ca.Joins,
			"leaves", ca.Leaves,
			"messages", ca.Messages,
			"directs", ca.Directs,
		)
	}
	return nil
}

// Hooks returns the hub hooks that publish chat events.
func (m *ChatModule) Hooks() websocket.Hooks {
	return websocket.Hooks{
		OnConnect: func(ctx context.Context, c *websocket.Client) {
			m.report(pubsub.PublishAs(ctx, m.publisher, EventUserJoined, c.Username, events.UserJoined{
				ClientID: c.ID,
				Channel:  c.Channel,
				Username: c.Username,
				At:       m.now(),
			}))
		},
		OnMessage: func(ctx context.Context, c *websocket.Client, content string) bool {
			m.report(pubsub.PublishAs(ctx, m.publisher, EventMessageRouted, c.Username, events.MessageRouted{
				Channel:  c.Channel,
				Username: c.Username,
				Kind:     events.KindBroadcast,
				Length:   len(content),
				At:       m.now(),
			}))
			return false
		},
		OnDirect: func(ctx context.Context, from, to *websocket.Client, content string) {
			m.report(pubsub.PublishAs(ctx, m.publisher, EventMessageRouted, from.Username, events.MessageRouted{
				Channel:  from.Channel,
				Username: from.Username,
				Kind:     events.KindDirect,
				Target:   to.Username,
				Length:   len(content),
				At:       m.now(),
			}))
		},
		OnDisconnect: func(ctx context.Context, c *websocket.Client) {
			m.report(pubsub.PublishAs(ctx, m.publisher, EventUserLeft, c.Username, events.UserLeft{
				ClientID: c.ID,
				Channel:  c.Channel,
				Username: c.Username,
				At:       m.now(),
			}))
		},
	}
}

func (m *ChatModule) report(err error) {
	if err != nil {
		m.logger.Error("Failed to publish chat event", "error", err)
	}
}

func (m *ChatModule) statsCommand(_ context.Context, req websocket.CommandRequest) (any, error) {
	ca, _ := m.activity.Get(req.Channel)
	return ca, nil
}
