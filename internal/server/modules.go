package server

import (
	"context"
	"fmt"

	"github.com/nfrund/goby-channels/internal/middleware"
	"github.com/nfrund/goby-channels/internal/module"
)

// InitModules registers every module with the injector, then boots each one on
// a route group shared with the HTTP rate limiter. Background work started by
// a module lives as long as ctx.
func (s *Server) InitModules(ctx context.Context, modules []module.Module) error {
	for _, m := range modules {
		if err := m.Register(s.Injector); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}

	g := s.E.Group("", middleware.RateLimiter(s.Cfg.GetHTTPRateLimit()))
	for _, m := range modules {
		if err := m.Boot(ctx, g, s.Injector); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		s.modules = append(s.modules, m)
		s.logger.Info("Module booted", "module", m.Name())
	}
	return nil
}
