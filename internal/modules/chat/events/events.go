// Package events holds the payloads of the chat module's bus events.
package events

import "time"

// UserJoined is published when a client joins a channel.
type UserJoined struct {
	ClientID string    `json:"client_id"`
	Channel  string    `json:"channel"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// UserLeft is published after a client has left a channel.
type UserLeft struct {
	ClientID string    `json:"client_id"`
	Channel  string    `json:"channel"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Kinds of routed messages.
const (
	KindBroadcast = "message"
	KindDirect    = "direct"
)

// MessageRouted is published for every chat or direct message the router
// accepted. The content itself is not carried.
type MessageRouted struct {
	Channel  string    `json:"channel"`
	Username string    `json:"username"`
	Kind     string    `json:"kind"`
	Target   string    `json:"target,omitempty"`
	Length   int       `json:"length"`
	At       time.Time `json:"at"`
}
