package compress

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"golang.org/x/image/draw"
)

// MIMEType is the only output format.
const MIMEType = "image/jpeg"

var (
	// ErrEncode is returned when the codec fails to produce output.
	ErrEncode = errors.New("failed to encode JPEG")
	// ErrTooLarge is returned when the final payload exceeds the base64 ceiling.
	ErrTooLarge = errors.New("screenshot is still too large")
	// ErrInvalidOptions is returned for out-of-range per-call options.
	ErrInvalidOptions = errors.New("invalid compression options")
)

// EncodeFunc writes img at the given quality.
type EncodeFunc func(w io.Writer, img image.Image, quality int) error

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// Artifact is the encoded, size-bounded result.
type Artifact struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Quality  int
}

// Base64 returns the standard base64 encoding of the payload.
func (a *Artifact) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURL returns the payload as a self-describing data URI.
func (a *Artifact) DataURL() string {
	return "data:" + a.MIMEType + ";base64," + a.Base64()
}

// Compressor turns a captured image into a JPEG within a byte budget.
type Compressor struct {
	defaults Defaults
	encode   EncodeFunc
}

// New creates a compressor. Zero fields in d take the stock values.
func New(d Defaults) *Compressor {
	return &Compressor{defaults: d.normalized(), encode: encodeJPEG}
}

// WithEncoder returns a copy of c that uses enc instead of image/jpeg.
func (c *Compressor) WithEncoder(enc EncodeFunc) *Compressor {
	cp := *c
	cp.encode = enc
	return &cp
}

// Defaults returns the limits in effect.
func (c *Compressor) Defaults() Defaults {
	return c.defaults
}

// Compress runs the four stages in order: a one-time downscale to the
// effective max width, quality reduction down to the floor, progressive
// shrinking down to the minimum width, and the final base64 ceiling check.
//
// The shrink stage re-encodes at whatever quality the reduction stage ended
// on, so both degradations compound.
func (c *Compressor) Compress(img image.Image, opts Options) (*Artifact, error) {
	log := logger.WithComponent("compressor")
	d := c.defaults
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults(d)

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrEncode, width, height)
	}

	effectiveMaxWidth := opts.MaxWidth
	if effectiveMaxWidth == 0 {
		effectiveMaxWidth = width
		if width > d.MaxWidth {
			log.Info().Int("max_width", d.MaxWidth).Msg("No max width specified, using default")
			effectiveMaxWidth = d.MaxWidth
		}
	}

	if width > effectiveMaxWidth {
		newHeight := scaleDim(height, float64(effectiveMaxWidth)/float64(width))
		log.Info().
			Int("width", width).
			Int("height", height).
			Int("max_width", effectiveMaxWidth).
			Msg("Resizing to max width")
		img = resize(img, effectiveMaxWidth, newHeight)
	}

	quality := opts.Quality
	data, err := c.encodeAt(img, quality)
	if err != nil {
		return nil, err
	}

	for int64(len(data)) > opts.MaxSizeBytes && quality > d.QualityFloor {
		next := max(quality-d.QualityStep, d.QualityFloor)
		log.Info().
			Int("size", len(data)).
			Int64("max_size", opts.MaxSizeBytes).
			Int("quality", next).
			Msg("Output exceeds max size, reducing quality")
		quality = next
		if data, err = c.encodeAt(img, quality); err != nil {
			return nil, err
		}
	}

	for int64(len(data)) > opts.MaxSizeBytes && img.Bounds().Dx() > d.MinWidth {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		nw, nh := scaleDim(w, d.ShrinkFactor), scaleDim(h, d.ShrinkFactor)
		if nw >= w {
			break
		}
		log.Info().Int("width", nw).Int("height", nh).Msg("Still too large after quality reduction, resizing")
		img = resize(img, nw, nh)
		if data, err = c.encodeAt(img, quality); err != nil {
			return nil, err
		}
	}

	artifact := &Artifact{
		Data:     data,
		MIMEType: MIMEType,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Quality:  quality,
	}

	encodedLen := base64.StdEncoding.EncodedLen(len(data))
	log.Info().
		Int("width", artifact.Width).
		Int("height", artifact.Height).
		Int("size", len(data)).
		Int("quality", quality).
		Msg("Final image")

	if encodedLen > d.MaxEncodedLength {
		return nil, fmt.Errorf("%w: %d bytes, try using a smaller max_width", ErrTooLarge, encodedLen)
	}
	return artifact, nil
}

func (c *Compressor) encodeAt(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encode(&buf, img, quality); err != nil {
		return nil, fmt.Errorf("%w at quality %d: %v", ErrEncode, quality, err)
	}
	return buf.Bytes(), nil
}

// scaleDim truncates toward zero and never returns less than one pixel.
func scaleDim(n int, factor float64) int {
	return max(int(float64(n)*factor), 1)
}

// resize scales with a bilinear (triangle) filter.
func resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func (d Defaults) normalized() Defaults {
	stock := DefaultDefaults()
	if d.Quality <= 0 || d.Quality > 100 {
		d.Quality = stock.Quality
	}
	if d.MaxSizeBytes <= 0 {
		d.MaxSizeBytes = stock.MaxSizeBytes
	}
	if d.MaxWidth <= 0 {
		d.MaxWidth = stock.MaxWidth
	}
	if d.QualityFloor <= 0 || d.QualityFloor > 100 {
		d.QualityFloor = stock.QualityFloor
	}
	if d.QualityStep <= 0 {
		d.QualityStep = stock.QualityStep
	}
	if d.MinWidth <= 0 {
		d.MinWidth = stock.MinWidth
	}
	if d.ShrinkFactor <= 0 || d.ShrinkFactor >= 1 {
		d.ShrinkFactor = stock.ShrinkFactor
	}
	if d.MaxEncodedLength <= 0 {
		d.MaxEncodedLength = stock.MaxEncodedLength
	}
	return d
}
