package pubsub

import (
	"fmt"

	env "github.com/Netflix/go-env"
)

// LoadTracingConfigFromEnv reads PUBSUB_TRACING_* variables over DefaultTracingConfig.
func LoadTracingConfigFromEnv() (TracingConfig, error) {
	cfg := DefaultTracingConfig()
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, fmt.Errorf("load tracing config: %w", err)
	}
	return cfg, nil
}
