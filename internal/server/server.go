package server

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"

	"github.com/nfrund/goby-channels/internal/app"
	"github.com/nfrund/goby-channels/internal/config"
	"github.com/nfrund/goby-channels/internal/handlers"
	"github.com/nfrund/goby-channels/internal/middleware"
	"github.com/nfrund/goby-channels/internal/module"
	"github.com/nfrund/goby-channels/internal/pubsub"
	"github.com/nfrund/goby-channels/internal/websocket"
)

// Server holds the HTTP server and the services it hosts.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Injector do.Injector
	Hub      *websocket.Hub
	PubSub   *pubsub.WatermillBridge

	modules []module.Module
	logger  *slog.Logger
}

// New wires the injector and configures echo. Routes are added by
// InitModules and RegisterRoutes.
func New(cfg config.Provider, logger *slog.Logger) (*Server, error) {
	injector := app.NewInjector(cfg, logger)

	hub, err := do.Invoke[*websocket.Hub](injector)
	if err != nil {
		return nil, fmt.Errorf("build websocket hub: %w", err)
	}
	bus, err := do.Invoke[*pubsub.WatermillBridge](injector)
	if err != nil {
		return nil, fmt.Errorf("build pubsub bus: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	setupErrorHandling(e)

	return &Server{
		E:        e,
		Cfg:      cfg,
		Injector: injector,
		Hub:      hub,
		PubSub:   bus,
		logger:   logger.With("component", "server"),
	}, nil
}
