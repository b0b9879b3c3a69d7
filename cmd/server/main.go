package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/goby-channels/internal/config"
	"github.com/nfrund/goby-channels/internal/logging"
	"github.com/nfrund/goby-channels/internal/server"
)

func main() {
	cfg := config.MustNew()
	logger := logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
