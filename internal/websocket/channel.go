package websocket

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Channel is a named group of clients. It exists in the Registry only while it
// has at least one member.
type Channel struct {
	Name      string
	CreatedAt time.Time

	mu      sync.Mutex
	members map[string]*Client // by connection id
	byName  map[string]string  // username -> connection id
	removed bool
}

// ChannelInfo is a point-in-time description of a channel.
type ChannelInfo struct {
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
}

func newChannel(name string, now time.Time) *Channel {
	return &Channel{
		Name:      name,
		CreatedAt: now,
		members:   make(map[string]*Client),
		byName:    make(map[string]string),
	}
}

// The methods below require ch.mu to be held.

func (ch *Channel) info() ChannelInfo {
	return ChannelInfo{Name: ch.Name, CreatedAt: ch.CreatedAt, MemberCount: len(ch.members)}
}

func (ch *Channel) add(c *Client) {
	ch.members[c.ID] = c
	ch.byName[c.Username] = c.ID
}

func (ch *Channel) remove(id string) (*Client, bool) {
	c, ok := ch.members[id]
	if !ok {
		return nil, false
	}
	delete(ch.members, id)
	if ch.byName[c.Username] == id {
		delete(ch.byName, c.Username)
	}
	return c, true
}

func (ch *Channel) lookup(username string) (*Client, bool) {
	id, ok := ch.byName[username]
	if !ok {
		return nil, false
	}
	c, ok := ch.members[id]
	return c, ok
}

func (ch *Channel) snapshot() []*Client {
	out := make([]*Client, 0, len(ch.members))
	for _, c := range ch.members {
		out = append(out, c)
	}
	return out
}

func (ch *Channel) usernames() []string {
	names := make([]string, 0, len(ch.byName))
	for name := range ch.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// assignUsername picks the name a joining client will use. An empty request gets
// "User" plus the first five characters of the connection id.
func (ch *Channel) assignUsername(requested, id string, policy UsernamePolicy) (string, error) {
	if requested == "" {
		base := "User" + id[:min(5, len(id))]
		return ch.firstFree(base), nil
	}
	if _, taken := ch.byName[requested]; !taken {
		return requested, nil
	}
	if policy == UsernameSuffix {
		return ch.firstFree(requested), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNameConflict, requested)
}

func (ch *Channel) firstFree(base string) string {
	if _, taken := ch.byName[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, taken := ch.byName[candidate]; !taken {
			return candidate
		}
	}
}
