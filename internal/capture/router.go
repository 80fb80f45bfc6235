package capture

import (
	"fmt"
	"image"
	"sync"

	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/bryanchriswhite/WindowShot/internal/window"
)

// Router picks one capturer per window, in preference order. It never falls
// through to a second capturer after a failed capture.
type Router struct {
	candidates []Capturer

	mu      sync.RWMutex
	active  []Capturer
	started bool
}

// NewRouter creates a router over the given capturers, most preferred first.
func NewRouter(capturers ...Capturer) *Router {
	return &Router{candidates: capturers}
}

// NewDefaultRouter prefers X11 composite capture and falls back to
// screen-region cropping for windows without a usable X11 id.
func NewDefaultRouter() *Router {
	log := logger.WithComponent("capture-router")

	var capturers []Capturer
	if x11, err := NewX11Capturer(); err != nil {
		log.Warn().Err(err).Msg("X11 capturer not available")
	} else {
		capturers = append(capturers, x11)
	}
	capturers = append(capturers, NewScreenCapturer())
	return NewRouter(capturers...)
}

// Start starts every candidate, keeping those that come up.
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	log := logger.WithComponent("capture-router")
	for _, c := range r.candidates {
		if err := c.Start(); err != nil {
			log.Warn().Err(err).Str("capturer", c.Name()).Msg("Capturer failed to start")
			continue
		}
		r.active = append(r.active, c)
		log.Info().Str("capturer", c.Name()).Msg("Capturer initialized")
	}

	if len(r.active) == 0 {
		return fmt.Errorf("no capture backends available")
	}
	r.started = true
	return nil
}

// Stop stops all capturers
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.active {
		if err := c.Stop(); err != nil {
			logger.WithComponent("capture-router").Warn().Err(err).Str("capturer", c.Name()).Msg("Failed to stop capturer")
		}
	}
	r.active = nil
	r.started = false
	return nil
}

// Name returns the router name
func (r *Router) Name() string {
	return "router"
}

// CanCapture checks if any capturer can handle the window
func (r *Router) CanCapture(w *window.Descriptor) bool {
	return r.pick(w) != nil
}

// CaptureWindow captures with the first capturer able to handle the window.
// Every failure is wrapped in ErrCapture.
func (r *Router) CaptureWindow(w *window.Descriptor) (*image.RGBA, error) {
	c := r.pick(w)
	if c == nil {
		return nil, fmt.Errorf("%w: no capturer available for window %s", ErrCapture, w)
	}

	logger.WithComponent("capture-router").Debug().
		Uint32("id", w.ID).
		Str("capturer", c.Name()).
		Msg("Capturing window")

	img, err := c.CaptureWindow(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return img, nil
}

func (r *Router) pick(w *window.Descriptor) Capturer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.active {
		if c.CanCapture(w) {
			return c
		}
	}
	return nil
}
