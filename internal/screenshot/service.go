// Package screenshot ties window resolution, capture and compression into
// one request/response operation.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/bryanchriswhite/WindowShot/internal/bridge"
	"github.com/bryanchriswhite/WindowShot/internal/capture"
	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/bryanchriswhite/WindowShot/internal/overlay"
	"github.com/bryanchriswhite/WindowShot/internal/window"
)

// WindowCapturer is the capture call the pipeline needs.
type WindowCapturer interface {
	CaptureWindow(w *window.Descriptor) (*image.RGBA, error)
}

// Result is the successful outcome of one pipeline run.
type Result struct {
	DataURL   string             `json:"data_url"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Quality   int                `json:"quality"`
	SizeBytes int                `json:"size_bytes"`
	Window    *window.Descriptor `json:"window"`

	Artifact *compress.Artifact `json:"-"`
}

// Response is the uniform envelope returned to transports.
type Response struct {
	Success bool    `json:"success"`
	Data    *Result `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Service runs the snapshot, resolve, capture and compress sequence.
type Service struct {
	directory  window.Directory
	capturer   WindowCapturer
	compressor *compress.Compressor
	pool       *bridge.Pool[Request, *Result]
}

// NewService creates a service whose asynchronous calls run on at most
// workers goroutines.
func NewService(directory window.Directory, capturer WindowCapturer, compressor *compress.Compressor, workers int) *Service {
	s := &Service{
		directory:  directory,
		capturer:   capturer,
		compressor: compressor,
	}
	s.pool = bridge.NewPool(int64(workers), s.Take)
	return s
}

// Take runs the pipeline synchronously on the calling goroutine. Each call
// takes a fresh snapshot and owns its pixel buffers.
func (s *Service) Take(req Request) (*Result, error) {
	log := logger.WithComponent("screenshot")

	snap, err := s.directory.Snapshot()
	if err != nil {
		return nil, err
	}
	log.Info().Int("windows", snap.Len()).Msg("Found windows")

	target, ok := window.Resolve(snap, req.WindowLabel, req.ApplicationName)
	if !ok {
		return nil, fmt.Errorf("%w (title %q, application %q)", window.ErrWindowNotFound, req.WindowLabel, req.ApplicationName)
	}

	img, err := s.capturer.CaptureWindow(target)
	if err != nil {
		if errors.Is(err, capture.ErrCapture) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", capture.ErrCapture, err)
	}
	log.Info().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Uint32("id", target.ID).
		Msg("Captured window image")

	if req.Annotate {
		overlay.NewLabel(labelText(target)).Render(img)
	}

	artifact, err := s.compressor.Compress(img, req.Options())
	if err != nil {
		return nil, err
	}

	return &Result{
		DataURL:   artifact.DataURL(),
		Width:     artifact.Width,
		Height:    artifact.Height,
		Quality:   artifact.Quality,
		SizeBytes: len(artifact.Data),
		Window:    target,
		Artifact:  artifact,
	}, nil
}

func labelText(w *window.Descriptor) string {
	if w.Title != "" {
		return w.Title
	}
	return w.ApplicationName
}

// Submit schedules req on the worker pool.
func (s *Service) Submit(req Request) *bridge.Future[*Result] {
	return s.pool.Submit(req)
}

// Handle decodes payload, runs the pipeline off the caller's goroutine and
// wraps the outcome in a Response. The error is returned alongside the
// failure envelope so transports can pick a status code.
func (s *Service) Handle(ctx context.Context, payload []byte) (Response, error) {
	req, err := DecodeRequest(payload)
	if err != nil {
		return Failure(err), err
	}

	res, err := s.Submit(req).Wait(ctx)
	if err != nil {
		logger.WithComponent("screenshot").Warn().Err(err).Msg("Screenshot failed")
		return Failure(err), err
	}
	return Response{Success: true, Data: res}, nil
}

// Failure wraps err in an unsuccessful envelope.
func Failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
