package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
)

// Module is a self-contained feature plugged into the server.
type Module interface {
	// Name returns a unique identifier for the module.
	Name() string

	// Register is called at startup so the module can provide its services to
	// the injector before any module boots.
	Register(i do.Injector) error

	// Boot is called after every module has registered. Routes are mounted on
	// router and background work tied to ctx is started here.
	Boot(ctx context.Context, router *echo.Group, i do.Injector) error

	// Shutdown is called during graceful shutdown.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op Register, Boot and Shutdown methods for embedding.
type BaseModule struct{}

func (m *BaseModule) Register(i do.Injector) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, router *echo.Group, i do.Injector) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error { return nil }
