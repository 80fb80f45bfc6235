package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/WindowShot/internal/api"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WindowShot server",
	Long: `Start the WindowShot HTTP server.

The server exposes the screenshot pipeline over REST (POST /api/screenshot)
and a websocket command channel (/api/ws), plus window and application
listings.`,
	Example: `  # Start server on default port (8080)
  windowshot serve

  # Start server on custom port
  windowshot serve --port 9090

  # Start with debug logging and more workers
  windowshot serve --log-level debug --workers 8`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	cfg := configMgr.Get()

	log.Info().Str("path", configMgr.GetConfigPath()).Msg("Configuration loaded")

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	server := api.NewServer(p.windows, p.service)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("port", cfg.ServerPort).
		Int("workers", cfg.Workers).
		Msgf("WindowShot is running, API at http://localhost:%d/api", cfg.ServerPort)

	if err := server.Start(ctx, cfg.ServerPort); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("Shut down gracefully")
	return nil
}
