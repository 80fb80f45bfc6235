package commands

import (
	"fmt"

	"github.com/bryanchriswhite/WindowShot/internal/output"
	"github.com/bryanchriswhite/WindowShot/internal/screenshot"
	"github.com/spf13/cobra"
)

var shotCmd = &cobra.Command{
	Use:   "shot",
	Short: "Capture one window",
	Long: `Capture a single window and compress it to a JPEG within the size budget.

The application name is tried first; the title is used when no application
matches. Minimized windows are never captured.`,
	Example: `  # Capture a window by title and print a data URI
  windowshot shot --title "Main Window"

  # Capture by application and save the JPEG
  windowshot shot --app firefox --output firefox.jpg

  # Tighter budget and width
  windowshot shot --title Editor --max-width 1024 --max-size-mb 0.5 -o editor.jpg`,
	RunE: runShot,
}

var (
	shotTitle     string
	shotApp       string
	shotQuality   int
	shotMaxWidth  int
	shotMaxSizeMB float64
	shotOutput    string
	shotAnnotate  bool
)

func init() {
	rootCmd.AddCommand(shotCmd)

	shotCmd.Flags().StringVarP(&shotTitle, "title", "t", "", "window title to match (case-insensitive substring)")
	shotCmd.Flags().StringVarP(&shotApp, "app", "a", "", "application name to match first")
	shotCmd.Flags().IntVarP(&shotQuality, "quality", "q", 0, "starting JPEG quality 1-100 (default from config)")
	shotCmd.Flags().IntVar(&shotMaxWidth, "max-width", 0, "maximum output width in pixels")
	shotCmd.Flags().Float64Var(&shotMaxSizeMB, "max-size-mb", 0, "target maximum size in MiB")
	shotCmd.Flags().BoolVar(&shotAnnotate, "annotate", false, "stamp the window title onto the image")
	shotCmd.Flags().StringVarP(&shotOutput, "output", "o", output.StdoutTarget, "output file, or - for a data URI on stdout")
}

// shotRequest builds the request from the flags the user actually set.
func shotRequest(cmd *cobra.Command) (screenshot.Request, error) {
	req := screenshot.Request{
		WindowLabel:     shotTitle,
		ApplicationName: shotApp,
		Annotate:        shotAnnotate,
	}
	if cmd.Flags().Changed("quality") {
		q := shotQuality
		req.Quality = &q
	}
	if cmd.Flags().Changed("max-width") {
		w := shotMaxWidth
		req.MaxWidth = &w
	}
	if cmd.Flags().Changed("max-size-mb") {
		mb := shotMaxSizeMB
		req.MaxSizeMB = &mb
	}
	return req, req.Validate()
}

func runShot(cmd *cobra.Command, args []string) error {
	if shotTitle == "" && shotApp == "" {
		return fmt.Errorf("one of --title or --app is required")
	}

	req, err := shotRequest(cmd)
	if err != nil {
		return err
	}

	p, err := newPipeline(configMgr.Get())
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.service.Submit(req).Wait(cmd.Context())
	if err != nil {
		return err
	}

	sink := output.New(shotOutput, cmd.OutOrStdout())
	if err := sink.Write(res.Artifact); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Captured %q: %dx%d, quality %d, %d bytes\n",
		res.Window.Title, res.Width, res.Height, res.Quality, res.SizeBytes)
	return nil
}
