package capture

import (
	"errors"
	"image"

	"github.com/bryanchriswhite/WindowShot/internal/window"
)

// ErrCapture wraps every failure of the underlying capture primitive. The
// window may have closed between resolution and capture; that race is
// reported here rather than retried.
var ErrCapture = errors.New("failed to capture window image")

// Capturer defines the interface for window capture backends
type Capturer interface {
	// Start initializes the capturer and any required resources
	Start() error

	// Stop releases resources
	Stop() error

	// CaptureWindow captures the contents of a specific window. The returned
	// buffer is owned by the caller.
	CaptureWindow(w *window.Descriptor) (*image.RGBA, error)

	// Name returns a human-readable name for this capturer
	Name() string

	// CanCapture reports whether this capturer can handle the window at all
	CanCapture(w *window.Descriptor) bool
}
