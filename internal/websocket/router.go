package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Router classifies decoded payloads and dispatches them. Rejected payloads are
// answered with a single error payload to the sender; only unexpected failures
// are returned.
type Router struct {
	registry     *Registry
	broadcaster  *Broadcaster
	commands     *CommandProcessor
	echoToSender bool
	hooks        atomic.Pointer[Hooks]
	logger       *slog.Logger
}

// NewRouter wires a router over the given components.
func NewRouter(reg *Registry, b *Broadcaster, cmds *CommandProcessor, echoToSender bool, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		registry:     reg,
		broadcaster:  b,
		commands:     cmds,
		echoToSender: echoToSender,
		logger:       logger.With("component", "router"),
	}
	r.hooks.Store(&Hooks{})
	return r
}

// SetHooks replaces the lifecycle hooks.
func (r *Router) SetHooks(h Hooks) {
	r.hooks.Store(&h)
}

func (r *Router) currentHooks() Hooks {
	return *r.hooks.Load()
}

// Route handles one inbound frame from c.
func (r *Router) Route(ctx context.Context, c *Client, frame []byte) error {
	in, err := c.codec.Decode(frame)
	if err != nil {
		return r.reject(c, err)
	}

	switch m := in.(type) {
	case InboundMessage:
		return r.routeMessage(ctx, c, m)
	case InboundDirect:
		return r.routeDirect(ctx, c, m)
	case InboundCommand:
		return r.routeCommand(ctx, c, m)
	case CloseRequest:
		return errCloseRequested
	default:
		return r.reject(c, fmt.Errorf("%w: %T", ErrUnknownType, in))
	}
}

func (r *Router) routeMessage(ctx context.Context, c *Client, m InboundMessage) error {
	if r.currentHooks().message(ctx, r.logger, c, m.Content) {
		return nil
	}
	exclude := ""
	if !r.echoToSender {
		exclude = c.ID
	}
	r.broadcaster.Broadcast(c.Channel, ChatMessage{Username: c.Username, Content: m.Content}, exclude)
	return nil
}

func (r *Router) routeDirect(ctx context.Context, c *Client, m InboundDirect) error {
	target, err := r.registry.Resolve(c.Channel, m.Target)
	if err != nil {
		if errors.Is(err, ErrTargetNotFound) {
			c.sendError(fmt.Sprintf("user %s not found or offline", m.Target))
			return nil
		}
		return err
	}
	if err := target.Send(DirectMessage{From: c.Username, Content: m.Content}); err != nil {
		r.logger.Debug("Direct message not queued", "from", c.Username, "to", m.Target, "error", err)
		return nil
	}
	r.currentHooks().direct(ctx, r.logger, c, target, m.Content)
	return nil
}

func (r *Router) routeCommand(ctx context.Context, c *Client, m InboundCommand) error {
	data, err := r.commands.Execute(ctx, m.Cmd, CommandRequest{
		Channel:  c.Channel,
		Username: c.Username,
		ClientID: c.ID,
		Args:     m.Args,
	})
	if err != nil {
		if isRecoverable(err) {
			return r.reject(c, err)
		}
		r.logger.Warn("Command failed", "command", m.Cmd, "username", c.Username, "error", err)
		c.sendError(err.Error())
		return nil
	}
	if err := c.Send(CommandResult{Command: m.Cmd, Data: data}); err != nil {
		r.logger.Debug("Command result not queued", "command", m.Cmd, "error", err)
	}
	return nil
}

// reject answers a recoverable error with an error payload; anything else is
// handed back to the read loop.
func (r *Router) reject(c *Client, err error) error {
	if !isRecoverable(err) {
		return err
	}
	r.logger.Debug("Rejected payload", "client_id", c.ID, "error", err)
	c.sendError(clientText(err))
	return nil
}
