package websocket

import (
	"fmt"
	"strings"
	"time"
)

// SlowConsumerPolicy decides what happens when a client's outbound queue is full.
type SlowConsumerPolicy string

const (
	// SlowConsumerDisconnect closes the lagging connection.
	SlowConsumerDisconnect SlowConsumerPolicy = "disconnect"
	// SlowConsumerDropNewest discards the frame being enqueued.
	SlowConsumerDropNewest SlowConsumerPolicy = "drop_newest"
	// SlowConsumerDropOldest evicts the oldest queued frame to make room.
	SlowConsumerDropOldest SlowConsumerPolicy = "drop_oldest"
)

// UsernamePolicy decides what happens when a requested username is taken.
type UsernamePolicy string

const (
	// UsernameReject refuses the join with ErrNameConflict.
	UsernameReject UsernamePolicy = "reject"
	// UsernameSuffix assigns the first free name_1, name_2, ...
	UsernameSuffix UsernamePolicy = "suffix"
)

// Config tunes the channel layer.
type Config struct {
	SendBufferSize     int
	MaxMessageSize     int64
	WriteTimeout       time.Duration
	SlowConsumerPolicy SlowConsumerPolicy
	UsernamePolicy     UsernamePolicy
	// EchoToSender includes the author in its own message broadcasts.
	EchoToSender      bool
	RateLimitBurst    int
	RateLimitInterval time.Duration
	AllowedOrigins    []string
	DefaultChannel    string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SendBufferSize:     256,
		MaxMessageSize:     64 << 10,
		WriteTimeout:       10 * time.Second,
		SlowConsumerPolicy: SlowConsumerDisconnect,
		UsernamePolicy:     UsernameReject,
		EchoToSender:       true,
		RateLimitBurst:     20,
		RateLimitInterval:  time.Second,
		DefaultChannel:     "default",
	}
}

// withDefaults fills zero values from DefaultConfig. EchoToSender and the rate
// limit are taken as given.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.SlowConsumerPolicy == "" {
		c.SlowConsumerPolicy = def.SlowConsumerPolicy
	}
	if c.UsernamePolicy == "" {
		c.UsernamePolicy = def.UsernamePolicy
	}
	if c.DefaultChannel == "" {
		c.DefaultChannel = def.DefaultChannel
	}
	return c
}

// ParseSlowConsumerPolicy parses a policy name as found in configuration.
func ParseSlowConsumerPolicy(s string) (SlowConsumerPolicy, error) {
	switch p := SlowConsumerPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SlowConsumerDisconnect, SlowConsumerDropNewest, SlowConsumerDropOldest:
		return p, nil
	case "":
		return SlowConsumerDisconnect, nil
	default:
		return "", fmt.Errorf("unknown slow consumer policy %q", s)
	}
}

// ParseUsernamePolicy parses a policy name as found in configuration.
func ParseUsernamePolicy(s string) (UsernamePolicy, error) {
	switch p := UsernamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UsernameReject, UsernameSuffix:
		return p, nil
	case "":
		return UsernameReject, nil
	default:
		return "", fmt.Errorf("unknown username policy %q", s)
	}
}
