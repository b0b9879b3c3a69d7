package handlers

import (
	"github.com/nfrund/goby-channels/internal/modules/chat"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChannelResponse describes one live channel.
type ChannelResponse struct {
	websocket.ChannelInfo
	Activity *chat.ChannelActivity `json:"activity,omitempty"`
}

// MembersResponse lists the usernames of a channel, sorted.
type MembersResponse struct {
	Channel string   `json:"channel"`
	Members []string `json:"members"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Channels    int    `json:"channels"`
	Connections int    `json:"connections"`
}
