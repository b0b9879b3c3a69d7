package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/topicmgr"
)

// Hub ties the channel layer to the host: it accepts connections, runs their
// pumps and shuts everything down.
type Hub struct {
	cfg         Config
	registry    *Registry
	broadcaster *Broadcaster
	commands    *CommandProcessor
	router      *Router
	publisher   pubsub.Publisher
	logger      *slog.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// Option configures a Hub.
type Option func(*hubOptions)

type hubOptions struct {
	publisher pubsub.Publisher
	logger    *slog.Logger
	hooks     *Hooks
}

// WithPublisher publishes client lifecycle events to p.
func WithPublisher(p pubsub.Publisher) Option {
	return func(o *hubOptions) { o.publisher = p }
}

// WithLogger sets the hub's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *hubOptions) { o.logger = l }
}

// WithHooks installs lifecycle hooks.
func WithHooks(hooks Hooks) Option {
	return func(o *hubOptions) { o.hooks = &hooks }
}

// NewHub builds the registry, broadcaster, command table and router described
// by cfg. The built-in commands are registered.
func NewHub(cfg Config, opts ...Option) *Hub {
	o := hubOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.withDefaults()
	logger := o.logger.With("component", "ws_hub")
	h := &Hub{cfg: cfg, publisher: o.publisher, logger: logger}

	h.registry = NewRegistry(cfg.UsernamePolicy, logger)
	h.broadcaster = NewBroadcaster(h.registry, logger)
	h.commands = NewCommandProcessor()
	h.router = NewRouter(h.registry, h.broadcaster, h.commands, cfg.EchoToSender, logger)
	if o.hooks != nil {
		h.router.SetHooks(*o.hooks)
	}
	if err := RegisterBuiltins(h.commands, h.registry); err != nil {
		logger.Error("Failed to register builtin commands", "error", err)
	}
	return h
}

// Registry returns the membership registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Broadcaster returns the fan-out engine.
func (h *Hub) Broadcaster() *Broadcaster { return h.broadcaster }

// Commands returns the command table so hosts can register their own commands.
func (h *Hub) Commands() *CommandProcessor { return h.commands }

// Config returns the effective configuration.
func (h *Hub) Config() Config { return h.cfg }

// SetHooks replaces the lifecycle hooks.
func (h *Hub) SetHooks(hooks Hooks) { h.router.SetHooks(hooks) }

// Mount registers the WebSocket endpoints on g.
func (h *Hub) Mount(g *echo.Group) {
	g.GET("/ws", h.Handler())
	g.GET("/ws/:channel", h.Handler())
}

// Handler upgrades GET /ws/:channel?username=<name>. Without a channel segment
// the configured default channel is used.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.isClosing() {
			return echo.NewHTTPError(http.StatusServiceUnavailable, ErrShuttingDown.Error())
		}

		channel := c.Param("channel")
		if channel == "" {
			channel = h.cfg.DefaultChannel
		}
		username := c.QueryParam("username")

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			Subprotocols:       []string{SubprotocolJSON, SubprotocolText},
			OriginPatterns:     h.cfg.AllowedOrigins,
			InsecureSkipVerify: slices.Contains(h.cfg.AllowedOrigins, "*"),
		})
		if err != nil {
			// Accept has already written the HTTP error response.
			h.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		conn.SetReadLimit(h.cfg.MaxMessageSize)

		if _, err := h.Accept(NewTransport(conn), CodecFor(conn.Subprotocol()), channel, username, c.RealIP()); err != nil {
			h.logger.Info("Connection refused", "channel", channel, "username", username, "error", err)
		}
		return nil
	}
}

// Accept joins an established transport to channel and starts its pumps. On a
// username conflict the peer receives one error payload and is closed with a
// policy-violation status.
func (h *Hub) Accept(t Transport, codec Codec, channel, username, remoteAddr string) (*Client, error) {
	c := newClient(uuid.NewString(), t, codec, h.cfg, remoteAddr, h.logger)
	c.leave = h.leave
	c.disconnected = h.disconnected

	if h.isClosing() {
		c.abort(websocket.StatusGoingAway, "Server shutdown")
		return nil, ErrShuttingDown
	}

	if _, _, err := h.registry.Join(context.Background(), channel, username, c); err != nil {
		if frame, encErr := codec.Encode(NewError(err.Error())); encErr == nil {
			ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteTimeout)
			if werr := t.Write(ctx, frame); werr != nil {
				h.logger.Debug("Could not write join error", "error", werr)
			}
			cancel()
		}
		c.abort(websocket.StatusPolicyViolation, closeReason(err))
		return nil, err
	}

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		c.Close(websocket.StatusGoingAway, "Server shutdown")
		return nil, ErrShuttingDown
	}
	h.wg.Add(2)
	h.mu.Unlock()

	// Connect is observed before the pumps can tear the client down.
	h.router.currentHooks().connect(c.ctx, h.logger, c)
	h.publish(TopicClientReady, c)

	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump(h.router.Route)
	}()
	return c, nil
}

// Start subscribes to TopicChannelAnnounce on sub until ctx is done.
func (h *Hub) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return sub.Subscribe(ctx, TopicChannelAnnounce.Name(), h.announce)
}

func (h *Hub) announce(ctx context.Context, msg pubsub.Message) error {
	var a Announcement
	if err := json.Unmarshal(msg.Payload, &a); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := validatePayload(a); err != nil {
		return err
	}
	if a.From == "" {
		a.From = "server"
	}
	n := h.broadcaster.Broadcast(a.Channel, SystemMessage{Event: EventAnnouncement, Data: a}, "")
	h.logger.Debug("Announcement delivered", "channel", a.Channel, "recipients", n)
	return nil
}

// Shutdown stops accepting connections, closes every session with status 1001
// and waits for all pumps to exit or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.registry.CloseAll(websocket.StatusGoingAway, "Server shutdown")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("WebSocket hub stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

func (h *Hub) leave(c *Client) {
	h.registry.Leave(c.ID)
}

func (h *Hub) disconnected(c *Client) {
	h.router.currentHooks().disconnect(context.Background(), h.logger, c)
	h.publish(TopicClientDisconnected, c)
}

func (h *Hub) publish(topic topicmgr.Topic, c *Client) {
	if h.publisher == nil {
		return
	}
	payload, err := json.Marshal(ClientEvent{
		ClientID:   c.ID,
		Username:   c.Username,
		Channel:    c.Channel,
		RemoteAddr: c.RemoteAddr,
	})
	if err != nil {
		h.logger.Error("Failed to encode lifecycle event", "topic", topic.Name(), "error", err)
		return
	}
	msg := pubsub.Message{
		Topic:   topic.Name(),
		UserID:  c.Username,
		Payload: payload,
		Metadata: map[string]string{
			"channel":   c.Channel,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := h.publisher.Publish(context.Background(), msg); err != nil {
		h.logger.Error("Failed to publish lifecycle event", "topic", topic.Name(), "error", err)
	}
}

// maxCloseReason keeps the reason inside the 123 bytes a close frame allows.
const maxCloseReason = 120

// closeReason trims err to fit a close frame.
func closeReason(err error) string {
	switch {
	case errors.Is(err, ErrNameConflict):
		return ErrNameConflict.Error()
	case errors.Is(err, ErrClientClosed):
		return ErrClientClosed.Error()
	}
	reason := err.Error()
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
