package app

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/goby-channels/internal/config"
	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/topicmgr"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// Tracing holds the bus tracer and the function that flushes it.
type Tracing struct {
	Tracer  trace.Tracer
	Cleanup func()
}

// NewInjector wires the core services: configuration, logger, topic manager,
// tracing, the in-process bus and the WebSocket hub.
func NewInjector(cfg config.Provider, logger *slog.Logger) do.Injector {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.ProvideValue(i, topicmgr.Default())

	do.Provide(i, provideTracing)
	do.Provide(i, provideBus)
	do.Provide(i, func(i do.Injector) (pubsub.Publisher, error) {
		bus, err := do.Invoke[*pubsub.WatermillBridge](i)
		return bus, err
	})
	do.Provide(i, func(i do.Injector) (pubsub.Subscriber, error) {
		bus, err := do.Invoke[*pubsub.WatermillBridge](i)
		return bus, err
	})
	do.Provide(i, provideHub)

	return i
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[config.Provider](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.GetTracing())
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, Cleanup: cleanup}, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)

	opts := []pubsub.BridgeOption{pubsub.WithBusLogger(logger)}
	if cfg.GetTracing().Enabled {
		tracing, err := do.Invoke[*Tracing](i)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pubsub.WithTracer(tracing.Tracer))
	}
	return pubsub.NewWatermillBridge(opts...), nil
}

func provideHub(i do.Injector) (*websocket.Hub, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)
	pub := do.MustInvoke[pubsub.Publisher](i)

	if err := websocket.RegisterTopicsWithManager(do.MustInvoke[*topicmgr.Manager](i)); err != nil {
		return nil, err
	}
	return websocket.NewHub(cfg.GetWebSocket(),
		websocket.WithPublisher(pub),
		websocket.WithLogger(logger),
	), nil
}
