package server

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/nfrund/goby-channels/internal/app"
)

// Shutdown closes every WebSocket session with status 1001, stops modules in
// reverse boot order, then the HTTP server, the bus and the tracer.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if err := s.Hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.modules) - 1; i >= 0; i-- {
		if err := s.modules[i].Shutdown(ctx); err != nil {
			s.logger.Error("Module shutdown failed", "module", s.modules[i].Name(), "error", err)
			errs = append(errs, err)
		}
	}
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.PubSub.Close(); err != nil {
		errs = append(errs, err)
	}
	if tracing, err := do.Invoke[*app.Tracing](s.Injector); err == nil {
		tracing.Cleanup()
	}

	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}
