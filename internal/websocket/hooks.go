package websocket

import (
	"context"
	"log/slog"
)

// Hooks let the host observe the session lifecycle. Any field may be nil.
type Hooks struct {
	OnConnect func(ctx context.Context, c *Client)
	// OnMessage returning true marks the message handled and suppresses the broadcast.
	OnMessage    func(ctx context.Context, c *Client, content string) bool
	OnDirect     func(ctx context.Context, from, to *Client, content string)
	OnDisconnect func(ctx context.Context, c *Client)
}

// safeCall runs a hook, logging instead of crashing the pump on panic.
func safeCall(logger *slog.Logger, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Hook panicked", "hook", hook, "panic", r)
		}
	}()
	fn()
}

func (h Hooks) connect(ctx context.Context, logger *slog.Logger, c *Client) {
	if h.OnConnect == nil {
		return
	}
	safeCall(logger, "connect", func() { h.OnConnect(ctx, c) })
}

func (h Hooks) message(ctx context.Context, logger *slog.Logger, c *Client, content string) (handled bool) {
	if h.OnMessage == nil {
		return false
	}
	safeCall(logger, "message", func() { handled = h.OnMessage(ctx, c, content) })
	return handled
}

func (h Hooks) direct(ctx context.Context, logger *slog.Logger, from, to *Client, content string) {
	if h.OnDirect == nil {
		return
	}
	safeCall(logger, "direct", func() { h.OnDirect(ctx, from, to, content) })
}

func (h Hooks) disconnect(ctx context.Context, logger *slog.Logger, c *Client) {
	if h.OnDisconnect == nil {
		return
	}
	safeCall(logger, "disconnect", func() { h.OnDisconnect(ctx, c) })
}
