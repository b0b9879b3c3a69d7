package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/samber/lo"
)

// Registry owns channel membership. The registry lock guards only the two
// top-level maps; each Channel serializes its own mutations, so joins and leaves
// on different channels do not contend. Lock order is channel, then registry.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	clients  map[string]*Client

	policy UsernamePolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(policy UsernamePolicy, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = UsernameReject
	}
	return &Registry{
		channels: make(map[string]*Channel),
		clients:  make(map[string]*Client),
		policy:   policy,
		logger:   logger.With("component", "registry"),
		now:      time.Now,
	}
}

// acquire returns the named channel, creating it if needed, with its lock held.
func (r *Registry) acquire(name string) *Channel {
	for {
		r.mu.Lock()
		ch, ok := r.channels[name]
		if !ok {
			ch = newChannel(name, r.now())
			r.channels[name] = ch
			r.logger.Debug("Channel created", "channel", name)
		}
		r.mu.Unlock()

		ch.mu.Lock()
		if !ch.removed {
			return ch
		}
		// Lost a race with the last member leaving; try again with a fresh channel.
		ch.mu.Unlock()
	}
}

// dropIfEmpty removes ch from the registry when it has no members. ch.mu must be held.
func (r *Registry) dropIfEmpty(ch *Channel) {
	if len(ch.members) > 0 || ch.removed {
		return
	}
	ch.removed = true
	r.mu.Lock()
	if r.channels[ch.Name] == ch {
		delete(r.channels, ch.Name)
	}
	r.mu.Unlock()
	r.logger.Debug("Channel removed", "channel", ch.Name)
}

// Join admits c into channel under a username chosen by the username policy.
// On success the client is Open, has been sent system/connected, and every prior
// member has been sent system/user_joined.
func (r *Registry) Join(ctx context.Context, channel, requested string, c *Client) (id, username string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if channel == "" {
		return "", "", fmt.Errorf("%w: empty channel name", ErrMalformedPayload)
	}

	ch := r.acquire(channel)
	defer ch.mu.Unlock()

	username, err = ch.assignUsername(requested, c.ID, r.policy)
	if err != nil {
		r.dropIfEmpty(ch)
		return "", "", err
	}

	c.Username = username
	c.Channel = channel
	c.room = ch

	// Publish the client before it turns Open so a concurrent Close always finds it.
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()

	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		r.mu.Lock()
		delete(r.clients, c.ID)
		r.mu.Unlock()
		r.dropIfEmpty(ch)
		return "", "", ErrClientClosed
	}

	existing := ch.snapshot()
	ch.add(c)

	if err := c.Send(memberEvent(EventConnected, username, channel)); err != nil {
		r.logger.Debug("Could not queue connected event", "client_id", c.ID, "error", err)
	}
	deliver(existing, memberEvent(EventUserJoined, username, channel), "", r.logger)

	r.logger.Info("Client joined channel", "channel", channel, "username", username, "client_id", c.ID)
	return c.ID, username, nil
}

// Leave removes the connection from its channel and tells the remaining members.
// It reports whether anything was removed; repeated calls are no-ops.
func (r *Registry) Leave(id string) bool {
	r.mu.Lock()
	c, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mu.Unlock()
	if !ok || c.room == nil {
		return false
	}

	ch := c.room
	ch.mu.Lock()
	defer ch.mu.Unlock()

	_, removed := ch.remove(id)
	if len(ch.members) == 0 {
		r.dropIfEmpty(ch)
	} else if removed {
		deliver(ch.snapshot(), memberEvent(EventUserLeft, c.Username, ch.Name), "", r.logger)
	}
	if removed {
		r.logger.Info("Client left channel", "channel", ch.Name, "username", c.Username, "client_id", id)
	}
	return removed
}

// channel returns the live channel with its lock held, or nil.
func (r *Registry) channel(name string) *Channel {
	r.mu.RLock()
	ch, ok := r.channels[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	ch.mu.Lock()
	if ch.removed {
		ch.mu.Unlock()
		return nil
	}
	return ch
}

// Members returns the sorted usernames in channel. An unknown channel has no members.
func (r *Registry) Members(channel string) []string {
	ch := r.channel(channel)
	if ch == nil {
		return []string{}
	}
	defer ch.mu.Unlock()
	return ch.usernames()
}

// Resolve finds the client holding username in channel.
func (r *Registry) Resolve(channel, username string) (*Client, error) {
	ch := r.channel(channel)
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, username)
	}
	defer ch.mu.Unlock()

	c, ok := ch.lookup(username)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, username)
	}
	return c, nil
}

// recipients snapshots the current members of channel.
func (r *Registry) recipients(channel string) []*Client {
	ch := r.channel(channel)
	if ch == nil {
		return nil
	}
	defer ch.mu.Unlock()
	return ch.snapshot()
}

// Lookup returns the connected client with the given connection id.
func (r *Registry) Lookup(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// ConnectionCount returns the number of joined connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ChannelInfo describes a single channel.
func (r *Registry) ChannelInfo(name string) (ChannelInfo, bool) {
	ch := r.channel(name)
	if ch == nil {
		return ChannelInfo{}, false
	}
	defer ch.mu.Unlock()
	return ch.info(), true
}

// Channels describes every live channel, sorted by name.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.RLock()
	chans := lo.Values(r.channels)
	r.mu.RUnlock()

	infos := make([]ChannelInfo, 0, len(chans))
	for _, ch := range chans {
		ch.mu.Lock()
		if !ch.removed {
			infos = append(infos, ch.info())
		}
		ch.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// CloseAll closes every joined connection with the given status and waits for
// the teardowns to finish.
func (r *Registry) CloseAll(code websocket.StatusCode, reason string) {
	r.mu.RLock()
	clients := lo.Values(r.clients)
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			c.Close(code, reason)
		}(c)
	}
	wg.Wait()
	r.logger.Info("Closed all connections", "count", len(clients), "reason", reason)
}
