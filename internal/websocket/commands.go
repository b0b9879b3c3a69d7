package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	// ErrCommandAlreadyExists is returned when registering a duplicate command name
	ErrCommandAlreadyExists = errors.New("command already registered")
	// ErrInvalidCommand is returned when an empty name or nil handler is registered
	ErrInvalidCommand = errors.New("command name and handler are required")
)

// CommandRequest carries the requester's context into a command handler.
type CommandRequest struct {
	Channel  string
	Username string
	ClientID string
	Args     []string
}

// CommandHandler computes a command result. The returned value is sent back as
// the data of a command_result payload.
type CommandHandler func(ctx context.Context, req CommandRequest) (any, error)

// CommandProcessor is the table of named commands. Register and Execute are safe
// for concurrent use.
type CommandProcessor struct {
	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

// NewCommandProcessor creates an empty command table.
func NewCommandProcessor() *CommandProcessor {
	return &CommandProcessor{handlers: make(map[string]CommandHandler)}
}

// Register adds a command.
func (p *CommandProcessor) Register(name string, h CommandHandler) error {
	if name == "" || h == nil {
		slog.Warn("attempted to register invalid command", "command", name)
		return ErrInvalidCommand
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.handlers[name]; exists {
		slog.Debug("command already registered", "command", name)
		return ErrCommandAlreadyExists
	}
	p.handlers[name] = h
	slog.Debug("registered command", "command", name)
	return nil
}

// Execute runs the named command.
func (p *CommandProcessor) Execute(ctx context.Context, name string, req CommandRequest) (any, error) {
	p.mu.RLock()
	h, ok := p.handlers[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, req)
}

// Names returns the registered command names in order.
func (p *CommandProcessor) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins installs list_users, channel_info and help.
func RegisterBuiltins(p *CommandProcessor, reg *Registry) error {
	builtins := map[string]CommandHandler{
		"list_users": func(_ context.Context, req CommandRequest) (any, error) {
			return reg.Members(req.Channel), nil
		},
		"channel_info": func(_ context.Context, req CommandRequest) (any, error) {
			info, ok := reg.ChannelInfo(req.Channel)
			if !ok {
				return nil, fmt.Errorf("channel %s not found", req.Channel)
			}
			return info, nil
		},
		"help": func(context.Context, CommandRequest) (any, error) {
			return p.Names(), nil
		},
	}
	for name, h := range builtins {
		if err := p.Register(name, h); err != nil {
			return fmt.Errorf("register builtin %s: %w", name, err)
		}
	}
	return nil
}
