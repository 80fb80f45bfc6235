package capture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/WindowShot/internal/window"
	"github.com/kbinani/screenshot"
)

// ScreenCapturer crops the window's on-screen rectangle from the display.
// It sees whatever is on top at that moment, so occluding windows are
// included in the result.
type ScreenCapturer struct {
	captureRect func(image.Rectangle) (*image.RGBA, error)
	displays    func() int
}

// NewScreenCapturer creates a capturer backed by the platform screen grabber.
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{
		captureRect: screenshot.CaptureRect,
		displays:    screenshot.NumActiveDisplays,
	}
}

func (c *ScreenCapturer) Start() error {
	if c.displays() == 0 {
		return fmt.Errorf("no active displays found")
	}
	return nil
}

func (c *ScreenCapturer) Stop() error { return nil }

func (c *ScreenCapturer) Name() string { return "screen" }

func (c *ScreenCapturer) CanCapture(w *window.Descriptor) bool {
	return w != nil && !w.Geometry.Empty()
}

func (c *ScreenCapturer) CaptureWindow(w *window.Descriptor) (*image.RGBA, error) {
	if !c.CanCapture(w) {
		return nil, fmt.Errorf("window has no on-screen geometry")
	}
	g := w.Geometry
	img, err := c.captureRect(image.Rect(g.X, g.Y, g.X+g.Width, g.Y+g.Height))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen region: %w", err)
	}
	return img, nil
}
