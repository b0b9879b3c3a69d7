package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/nfrund/goby-channels/internal/modules/chat/events"
	"github.com/nfrund/goby-channels/internal/pubsub"
)

// ChannelActivity counts what happened in one channel since startup.
type ChannelActivity struct {
	Channel      string    `json:"channel"`
	Joins        int       `json:"joins"`
	Leaves       int       `json:"leaves"`
	Messages     int       `json:"messages"`
	Directs      int       `json:"directs"`
	LastActivity time.Time `json:"last_activity"`
}

// Activity aggregates the chat events seen on the bus. Counters survive a
// channel being emptied and recreated.
type Activity struct {
	mu       sync.RWMutex
	channels map[string]*ChannelActivity
}

// NewActivity creates an empty tracker.
func NewActivity() *Activity {
	return &Activity{channels: make(map[string]*ChannelActivity)}
}

// Start subscribes to the chat events until ctx is done.
func (a *Activity) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := pubsub.Subscribe(ctx, sub, EventUserJoined, func(_ context.Context, e events.UserJoined) error {
		a.record(e.Channel, e.At, func(ca *ChannelActivity) { ca.Joins++ })
		return nil
	}); err != nil {
		return err
	}
	if err := pubsub.Subscribe(ctx, sub, EventUserLeft, func(_ context.Context, e events.UserLeft) error {
		a.record(e.Channel, e.At, func(ca *ChannelActivity) { ca.Leaves++ })
		return nil
	}); err != nil {
		return err
	}
	return pubsub.Subscribe(ctx, sub, EventMessageRouted, func(_ context.Context, e events.MessageRouted) error {
		a.record(e.Channel, e.At, func(ca *ChannelActivity) {
			if e.Kind == events.KindDirect {
				ca.Directs++
				return
			}
			ca.Messages++
		})
		return nil
	})
}

func (a *Activity) record(channel string, at time.Time, update func(*ChannelActivity)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ca, ok := a.channels[channel]
	if !ok {
		ca = &ChannelActivity{Channel: channel}
		a.channels[channel] = ca
	}
	update(ca)
	if at.After(ca.LastActivity) {
		ca.LastActivity = at
	}
}

// Get returns a copy of the counters for channel.
func (a *Activity) Get(channel string) (ChannelActivity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ca, ok := a.channels[channel]
	if !ok {
		return ChannelActivity{Channel: channel}, false
	}
	return *ca, true
}

// All returns every channel's counters sorted by channel name.
func (a *Activity) All() []ChannelActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := lo.Map(lo.Values(a.channels), func(ca *ChannelActivity, _ int) ChannelActivity {
		return *ca
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}
