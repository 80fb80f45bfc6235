package screenshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/bryanchriswhite/WindowShot/internal/compress"
)

// ErrMalformedRequest is returned before any pipeline work when the payload
// does not decode into a Request.
var ErrMalformedRequest = errors.New("invalid payload for takeScreenshot")

// Request is the value passed into the worker pool. Every field is optional.
type Request struct {
	WindowLabel     string   `json:"window_label,omitempty"`
	ApplicationName string   `json:"application_name,omitempty"`
	Quality         *int     `json:"quality,omitempty"`
	MaxWidth        *int     `json:"max_width,omitempty"`
	MaxSizeMB       *float64 `json:"max_size_mb,omitempty"`

	// Annotate stamps the window title onto the capture before compression.
	Annotate bool `json:"annotate,omitempty"`
}

// DecodeRequest parses and validates a JSON payload.
func DecodeRequest(payload []byte) (Request, error) {
	var req Request
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return req, fmt.Errorf("%w: empty payload", ErrMalformedRequest)
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// Validate checks the numeric ranges.
func (r Request) Validate() error {
	if r.Quality != nil && (*r.Quality < 1 || *r.Quality > 100) {
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", ErrMalformedRequest, *r.Quality)
	}
	if r.MaxWidth != nil && *r.MaxWidth <= 0 {
		return fmt.Errorf("%w: max_width must be positive, got %d", ErrMalformedRequest, *r.MaxWidth)
	}
	if r.MaxSizeMB != nil && *r.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: max_size_mb must be positive, got %g", ErrMalformedRequest, *r.MaxSizeMB)
	}
	return nil
}

// Options converts the compression fields. Unset fields stay zero so the
// compressor applies its defaults.
func (r Request) Options() compress.Options {
	var o compress.Options
	if r.Quality != nil {
		o.Quality = *r.Quality
	}
	if r.MaxWidth != nil {
		o.MaxWidth = *r.MaxWidth
	}
	if r.MaxSizeMB != nil {
		o.MaxSizeBytes = megabytesToBytes(*r.MaxSizeMB)
	}
	return o
}

// megabytesToBytes saturates to [1, math.MaxInt64] so that a budget too
// large to represent, or smaller than one byte, is never mistaken for unset.
func megabytesToBytes(mb float64) int64 {
	b := mb * 1024 * 1024
	switch {
	case b >= math.MaxInt64:
		return math.MaxInt64
	case b < 1:
		return 1
	default:
		return int64(b)
	}
}
