package compress

import "fmt"

// Defaults holds every constant the compressor relies on. Tests and the
// config file may override any single field.
type Defaults struct {
	// Quality is used when the caller does not set one.
	Quality int
	// MaxSizeBytes is the compression budget when the caller does not set one.
	MaxSizeBytes int64
	// MaxWidth caps images wider than it when the caller sets no max width.
	MaxWidth int
	// QualityFloor is the lowest quality the quality-reduction stage reaches.
	QualityFloor int
	// QualityStep is subtracted from the quality on each reduction.
	QualityStep int
	// MinWidth stops progressive resizing once the width drops to it.
	MinWidth int
	// ShrinkFactor scales both dimensions on each progressive resize.
	ShrinkFactor float64
	// MaxEncodedLength bounds the base64 text of the final payload.
	MaxEncodedLength int
}

// DefaultDefaults returns the stock limits.
func DefaultDefaults() Defaults {
	return Defaults{
		Quality:          85,
		MaxSizeBytes:     2 * 1024 * 1024,
		MaxWidth:         1920,
		QualityFloor:     30,
		QualityStep:      10,
		MinWidth:         800,
		ShrinkFactor:     0.8,
		MaxEncodedLength: 5 * 1024 * 1024,
	}
}

// Options are the per-call settings. Zero fields take the Defaults value;
// MaxWidth zero means "derive from the image". Non-zero fields must be in
// range or Compress fails with ErrInvalidOptions.
type Options struct {
	Quality      int   `json:"quality,omitempty"`
	MaxWidth     int   `json:"max_width,omitempty"`
	MaxSizeBytes int64 `json:"max_size_bytes,omitempty"`
}

func (o Options) validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1..100", ErrInvalidOptions, o.Quality)
	}
	if o.MaxWidth < 0 {
		return fmt.Errorf("%w: negative max width %d", ErrInvalidOptions, o.MaxWidth)
	}
	if o.MaxSizeBytes < 0 {
		return fmt.Errorf("%w: negative max size %d", ErrInvalidOptions, o.MaxSizeBytes)
	}
	return nil
}

// withDefaults fills zero fields only.
func (o Options) withDefaults(d Defaults) Options {
	if o.Quality == 0 {
		o.Quality = d.Quality
	}
	if o.MaxSizeBytes == 0 {
		o.MaxSizeBytes = d.MaxSizeBytes
	}
	return o
}
