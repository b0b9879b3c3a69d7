package websocket

import (
	"log/slog"

	"github.com/samber/lo"
)

// Broadcaster fans payloads out to channel members.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBroadcaster creates a Broadcaster reading membership from reg.
func NewBroadcaster(reg *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{registry: reg, logger: logger.With("component", "broadcaster")}
}

// Broadcast delivers msg to every member of channel except the connection id in
// exclude (empty excludes nobody). It returns the number of clients the frame
// was queued for.
func (b *Broadcaster) Broadcast(channel string, msg Outbound, exclude string) int {
	return deliver(b.registry.recipients(channel), msg, exclude, b.logger)
}

// BroadcastTo delivers msg to the listed usernames in channel. Names that are
// not present are skipped.
func (b *Broadcaster) BroadcastTo(channel string, usernames []string, msg Outbound) int {
	wanted := lo.SliceToMap(usernames, func(name string) (string, struct{}) {
		return name, struct{}{}
	})
	targets := lo.Filter(b.registry.recipients(channel), func(c *Client, _ int) bool {
		_, ok := wanted[c.Username]
		return ok
	})
	return deliver(targets, msg, "", b.logger)
}

// deliver encodes msg once per codec and queues it on each recipient. Enqueue
// never blocks, so a slow recipient cannot hold up the others.
func deliver(recipients []*Client, msg Outbound, exclude string, logger *slog.Logger) int {
	frames := make(map[string][]byte, 1)
	sent := 0
	for _, c := range recipients {
		if c.ID == exclude {
			continue
		}
		name := c.codec.Name()
		frame, ok := frames[name]
		if !ok {
			var err error
			frame, err = c.codec.Encode(msg)
			if err != nil {
				logger.Error("Failed to encode payload", "codec", name, "type", msg.MessageType(), "error", err)
				continue
			}
			frames[name] = frame
		}
		if err := c.Enqueue(frame); err != nil {
			logger.Debug("Frame not queued", "client_id", c.ID, "error", err)
			continue
		}
		sent++
	}
	return sent
}
