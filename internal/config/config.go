package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// Provider exposes the application configuration to the rest of the program.
type Provider interface {
	GetHTTPAddr() string
	GetLogFormat() string
	GetLogLevel() string
	GetHTTPRateLimit() float64
	GetShutdownTimeout() time.Duration
	GetWebSocket() websocket.Config
	GetTracing() pubsub.TracingConfig
}

// Config holds every setting read from the environment.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR,default=:8080" validate:"required"`
	LogFormat       string        `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	HTTPRateLimit   float64       `env:"HTTP_RATE_LIMIT,default=10" validate:"gte=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	WSSendBuffer         int           `env:"WS_SEND_BUFFER,default=256" validate:"gt=0"`
	WSMaxMessageSize     int64         `env:"WS_MAX_MESSAGE_SIZE,default=65536" validate:"gt=0"`
	WSWriteTimeout       time.Duration `env:"WS_WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	WSSlowConsumerPolicy string        `env:"WS_SLOW_CONSUMER_POLICY,default=disconnect" validate:"oneof=disconnect drop_newest drop_oldest"`
	WSUsernamePolicy     string        `env:"WS_USERNAME_POLICY,default=reject" validate:"oneof=reject suffix"`
	WSEchoToSender       bool          `env:"WS_ECHO_TO_SENDER,default=true"`
	WSRateLimitBurst     int           `env:"WS_RATE_LIMIT_BURST,default=20" validate:"gte=0"`
	WSRateLimitInterval  time.Duration `env:"WS_RATE_LIMIT_INTERVAL,default=1s" validate:"gt=0"`
	WSAllowedOrigins     string        `env:"WS_ALLOWED_ORIGINS"`
	WSDefaultChannel     string        `env:"WS_DEFAULT_CHANNEL,default=default" validate:"required"`

	TracingEnabled     bool   `env:"PUBSUB_TRACING_ENABLED,default=false"`
	TracingServiceName string `env:"PUBSUB_TRACING_SERVICE_NAME,default=goby-channels"`
	TracingZipkinURL   string `env:"PUBSUB_TRACING_ZIPKIN_URL,default=http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

var _ Provider = (*Config)(nil)

// New loads a .env file when present, then reads the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads and validates the configuration from the process environment.
func FromEnv() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// MustNew is New for program entry points.
func MustNew() *Config {
	cfg, err := New()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) GetHTTPAddr() string               { return c.HTTPAddr }
func (c *Config) GetLogFormat() string              { return c.LogFormat }
func (c *Config) GetLogLevel() string               { return c.LogLevel }
func (c *Config) GetHTTPRateLimit() float64         { return c.HTTPRateLimit }
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }

// GetWebSocket converts the WS_* settings to the channel layer's Config.
// Policies were validated on load, so parse failures cannot occur here.
func (c *Config) GetWebSocket() websocket.Config {
	slow, _ := websocket.ParseSlowConsumerPolicy(c.WSSlowConsumerPolicy)
	names, _ := websocket.ParseUsernamePolicy(c.WSUsernamePolicy)
	return websocket.Config{
		SendBufferSize:     c.WSSendBuffer,
		MaxMessageSize:     c.WSMaxMessageSize,
		WriteTimeout:       c.WSWriteTimeout,
		SlowConsumerPolicy: slow,
		UsernamePolicy:     names,
		EchoToSender:       c.WSEchoToSender,
		RateLimitBurst:     c.WSRateLimitBurst,
		RateLimitInterval:  c.WSRateLimitInterval,
		AllowedOrigins:     splitList(c.WSAllowedOrigins),
		DefaultChannel:     c.WSDefaultChannel,
	}
}

// GetTracing returns the pub/sub tracing settings.
func (c *Config) GetTracing() pubsub.TracingConfig {
	return pubsub.TracingConfig{
		Enabled:     c.TracingEnabled,
		ServiceName: c.TracingServiceName,
		ZipkinURL:   c.TracingZipkinURL,
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
