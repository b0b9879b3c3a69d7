package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/goby-channels/internal/config"
	"github.com/nfrund/goby-channels/internal/logging"
	"github.com/nfrund/goby-channels/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the channel server",
	Long: `Run the WebSocket channel server until SIGINT or SIGTERM.

Configuration is read from the environment and an optional .env file
(see .env.example). --addr overrides HTTP_ADDR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			if err := os.Setenv("HTTP_ADDR", serveAddr); err != nil {
				return err
			}
		}
		cfg, err := config.New()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides HTTP_ADDR")
}
