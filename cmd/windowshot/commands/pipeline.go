package commands

import (
	"fmt"

	"github.com/bryanchriswhite/WindowShot/internal/capture"
	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/config"
	"github.com/bryanchriswhite/WindowShot/internal/screenshot"
	"github.com/bryanchriswhite/WindowShot/internal/window"
)

// pipeline holds the long-lived pieces a screenshot needs.
type pipeline struct {
	windows *window.Manager
	router  *capture.Router
	service *screenshot.Service
}

func newPipeline(cfg config.Config) (*pipeline, error) {
	windows, err := window.NewX11Manager()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	router := capture.NewDefaultRouter()
	if err := router.Start(); err != nil {
		windows.Stop()
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	compressor := compress.New(cfg.CompressorDefaults())
	return &pipeline{
		windows: windows,
		router:  router,
		service: screenshot.NewService(windows, router, compressor, cfg.Workers),
	}, nil
}

func (p *pipeline) Close() {
	p.router.Stop()
	p.windows.Stop()
}
