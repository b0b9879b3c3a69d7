package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nfrund/goby-channels/internal/app"
	"github.com/nfrund/goby-channels/internal/config"
)

// Run builds the server with every module, serves until ctx is canceled and
// shuts down gracefully.
func Run(ctx context.Context, cfg config.Provider, logger *slog.Logger) error {
	s, err := New(cfg, logger)
	if err != nil {
		return err
	}
	if err := s.InitModules(ctx, app.NewModules()); err != nil {
		return err
	}
	s.RegisterRoutes()
	return s.Start(ctx)
}

// StartServices starts the background consumers that run alongside the HTTP
// server, currently the hub's announcement subscription.
func (s *Server) StartServices(ctx context.Context) error {
	if err := s.Hub.Start(ctx, s.PubSub); err != nil {
		return fmt.Errorf("start hub announcements: %w", err)
	}
	return nil
}

// Start serves HTTP on the configured address until ctx is canceled, then
// shuts down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	if err := s.StartServices(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Cfg.GetHTTPAddr())
		if err := s.E.Start(s.Cfg.GetHTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Cfg.GetShutdownTimeout())
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
