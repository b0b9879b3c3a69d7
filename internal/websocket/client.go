package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// ErrSlowConsumer is returned by Enqueue when a frame could not be queued
// because the client's outbound queue is full.
var ErrSlowConsumer = errors.New("outbound queue full")

// State is the lifecycle state of a connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is one accepted WebSocket session. Username and Channel are assigned by
// the Registry at join and never change afterwards.
type Client struct {
	ID          string
	Username    string
	Channel     string
	RemoteAddr  string
	ConnectedAt time.Time

	transport    Transport
	codec        Codec
	send         chan []byte
	state        atomic.Int32
	policy       SlowConsumerPolicy
	writeTimeout time.Duration
	limiter      *rateLimiter
	dropped      atomic.Uint64

	// room is the channel the client joined; set under the channel lock.
	room *Channel

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// leave runs while the client is Closing; disconnected after it is Closed.
	leave        func(*Client)
	disconnected func(*Client)

	logger *slog.Logger
}

func newClient(id string, t Transport, codec Codec, cfg Config, remote string, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ID:           id,
		RemoteAddr:   remote,
		ConnectedAt:  time.Now(),
		transport:    t,
		codec:        codec,
		send:         make(chan []byte, cfg.SendBufferSize),
		policy:       cfg.SlowConsumerPolicy,
		writeTimeout: cfg.WriteTimeout,
		limiter:      newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With("client_id", id),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Codec returns the codec negotiated for this connection.
func (c *Client) Codec() Codec {
	return c.codec
}

// Dropped returns how many frames the slow-consumer policy discarded.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Send encodes msg with the client's codec and queues it.
func (c *Client) Send(msg Outbound) error {
	frame, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	return c.Enqueue(frame)
}

// Enqueue queues an already encoded frame. It never blocks: when the queue is
// full the slow-consumer policy applies.
func (c *Client) Enqueue(frame []byte) error {
	if c.State() >= StateClosing {
		return ErrClientClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
	}

	switch c.policy {
	case SlowConsumerDropNewest:
		c.dropped.Add(1)
		c.logger.Debug("Outbound queue full, dropping newest frame")
		return ErrSlowConsumer

	case SlowConsumerDropOldest:
		select {
		case <-c.send:
			c.dropped.Add(1)
		default:
		}
		select {
		case c.send <- frame:
			return nil
		default:
			c.dropped.Add(1)
			return ErrSlowConsumer
		}

	default:
		c.logger.Warn("Outbound queue full, disconnecting slow consumer", "username", c.Username)
		// Enqueue can run under a channel lock; teardown takes that lock again.
		go c.Close(websocket.StatusPolicyViolation, "slow consumer")
		return ErrSlowConsumer
	}
}

// Close tears the session down exactly once: the transport is closed, both
// pumps are released, the client leaves its channel and the disconnect callback
// runs.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		if err := c.transport.Close(code, reason); err != nil && !isExpectedCloseError(err) {
			c.logger.Debug("Transport close failed", "error", err)
		}
		c.cancel()
		if c.leave != nil {
			c.leave(c)
		}
		c.state.Store(int32(StateClosed))
		if c.disconnected != nil {
			c.disconnected(c)
		}
	})
}

// abort closes a client that never joined a channel; no callbacks run.
func (c *Client) abort(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		if err := c.transport.Close(code, reason); err != nil && !isExpectedCloseError(err) {
			c.logger.Debug("Transport close failed", "error", err)
		}
		c.cancel()
		c.state.Store(int32(StateClosed))
	})
}

// readPump reads frames until the transport fails or the client asks to close.
func (c *Client) readPump(route func(ctx context.Context, c *Client, frame []byte) error) {
	defer c.Close(websocket.StatusNormalClosure, "")

	for {
		frame, err := c.transport.Read(c.ctx)
		if err != nil {
			if errors.Is(err, ErrMalformedPayload) {
				c.sendError(err.Error())
				continue
			}
			if c.ctx.Err() != nil || isExpectedCloseError(err) {
				c.logger.Debug("WebSocket closed", "username", c.Username)
			} else {
				c.logger.Warn("WebSocket read error", "username", c.Username, "error", err)
			}
			return
		}

		if !c.limiter.allow() {
			c.sendError(ErrRateLimited.Error())
			continue
		}

		if err := route(c.ctx, c, frame); err != nil {
			if errors.Is(err, errCloseRequested) {
				c.logger.Debug("Client requested close", "username", c.Username)
				return
			}
			c.logger.Error("Routing failed, closing connection", "username", c.Username, "error", err)
			return
		}
	}
}

// writePump drains the outbound queue onto the transport.
func (c *Client) writePump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
			err := c.transport.Write(ctx, frame)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil && !isExpectedCloseError(err) {
					c.logger.Warn("WebSocket write error", "username", c.Username, "error", err)
				}
				c.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (c *Client) sendError(text string) {
	if err := c.Send(NewError(text)); err != nil {
		c.logger.Debug("Could not queue error payload", "error", err)
	}
}
