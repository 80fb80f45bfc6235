package output

import (
	"fmt"
	"io"
	"os"

	"github.com/bryanchriswhite/WindowShot/internal/compress"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
)

// Sink defines where a finished artifact goes.
// This allows the CLI to swap between destinations:
// - a JPEG file on disk
// - a data URI on stdout
type Sink interface {
	// Write delivers the artifact
	Write(art *compress.Artifact) error

	// Name returns a human-readable name for this sink
	Name() string
}

// StdoutTarget selects the data URI sink in New.
const StdoutTarget = "-"

// New returns a file sink for path, or a data URI sink on w when path is
// empty or StdoutTarget.
func New(path string, w io.Writer) Sink {
	if path == "" || path == StdoutTarget {
		return &DataURLSink{w: w}
	}
	return &FileSink{Path: path}
}

// FileSink writes the raw JPEG bytes to Path.
type FileSink struct {
	Path string
}

// Write writes the JPEG to disk, replacing any existing file.
func (f *FileSink) Write(art *compress.Artifact) error {
	if err := os.WriteFile(f.Path, art.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Path, err)
	}
	logger.WithComponent("output").Info().
		Str("path", f.Path).
		Int("size", len(art.Data)).
		Msg("Screenshot written")
	return nil
}

// Name returns the sink name
func (f *FileSink) Name() string {
	return "file"
}

// DataURLSink prints the artifact as a single data URI line.
type DataURLSink struct {
	w io.Writer
}

// Write prints the data URI followed by a newline.
func (d *DataURLSink) Write(art *compress.Artifact) error {
	if _, err := fmt.Fprintln(d.w, art.DataURL()); err != nil {
		return fmt.Errorf("failed to write data URL: %w", err)
	}
	return nil
}

// Name returns the sink name
func (d *DataURLSink) Name() string {
	return "stdout"
}
