package capture

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/bryanchriswhite/WindowShot/internal/window"
)

// X11Capturer captures windows using X11/XWayland
type X11Capturer struct {
	conn             *xgb.Conn
	screen           *xproto.ScreenInfo
	compositeEnabled bool
	mu               sync.Mutex
}

// NewX11Capturer creates a new X11 capturer
func NewX11Capturer() (*X11Capturer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	return &X11Capturer{
		conn:   conn,
		screen: setup.DefaultScreen(conn),
	}, nil
}

// Start initializes the composite extension when the server offers it.
func (c *X11Capturer) Start() error {
	log := logger.WithComponent("x11-capturer")

	if err := composite.Init(c.conn); err != nil {
		log.Warn().
			Err(err).
			Msg("Composite extension not available - captures of obscured windows may be incomplete")
		c.compositeEnabled = false
	} else {
		c.compositeEnabled = true
		log.Debug().Msg("Composite extension initialized")
	}

	return nil
}

// Stop closes the X11 connection
func (c *X11Capturer) Stop() error {
	c.conn.Close()
	return nil
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "x11"
}

// CanCapture requires a real X11 window id
func (c *X11Capturer) CanCapture(w *window.Descriptor) bool {
	return w != nil && w.ID != 0
}

// CaptureWindow captures a window by its descriptor
func (c *X11Capturer) CaptureWindow(w *window.Descriptor) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.CanCapture(w) {
		return nil, fmt.Errorf("cannot capture window: invalid id")
	}

	win := xproto.Window(w.ID)
	log := logger.WithComponent("x11-capturer")

	attrs, err := xproto.GetWindowAttributes(c.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window attributes: %w", err)
	}

	// Frame windows and unmapped parents are not drawable; use the first
	// viewable child instead.
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		child, err := c.findCapturableChild(win)
		if err != nil {
			return nil, fmt.Errorf("window 0x%x is not viewable: %w", w.ID, err)
		}
		log.Debug().Uint32("window_id", w.ID).Uint32("child_id", uint32(child)).Msg("Using capturable child window")
		win = child
	}

	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window geometry: %w", err)
	}

	log.Debug().
		Uint32("window_id", uint32(win)).
		Uint16("width", geom.Width).
		Uint16("height", geom.Height).
		Msg("Capturing window")

	return c.captureDrawable(win, geom)
}

// findCapturableChild recursively searches for a viewable child window
func (c *X11Capturer) findCapturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(c.conn, parent).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tree: %w", err)
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.conn, child).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}

		if attrs.Class == xproto.WindowClassInputOutput && attrs.MapState == xproto.MapStateViewable &&
			geom.Width > 10 && geom.Height > 10 {
			return child, nil
		}

		if grandchild, err := c.findCapturableChild(child); err == nil {
			return grandchild, nil
		}
	}

	return 0, fmt.Errorf("no capturable child found")
}

// captureDrawable reads the window pixels, through a Composite pixmap when
// possible so that overlapping windows do not bleed into the capture.
func (c *X11Capturer) captureDrawable(win xproto.Window, geom *xproto.GetGeometryReply) (*image.RGBA, error) {
	drawable := xproto.Drawable(win)

	if c.compositeEnabled {
		if err := composite.RedirectWindowChecked(c.conn, win, composite.RedirectAutomatic).Check(); err == nil {
			defer composite.UnredirectWindow(c.conn, win, composite.RedirectAutomatic)

			if pixmap, err := xproto.NewPixmapId(c.conn); err == nil {
				if err := composite.NameWindowPixmapChecked(c.conn, win, pixmap).Check(); err == nil {
					drawable = xproto.Drawable(pixmap)
					defer xproto.FreePixmap(c.conn, pixmap)
				}
			}
		} else {
			logger.WithComponent("x11-capturer").Debug().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Composite redirect failed, capturing window directly")
		}
	}

	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		drawable,
		0, 0,
		geom.Width, geom.Height,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return bgrxToRGBA(reply.Data, int(geom.Width), int(geom.Height), int(c.screen.RootDepth))
}

// bgrxToRGBA converts a 24/32-bit ZPixmap (BGRX byte order) to RGBA.
func bgrxToRGBA(data []byte, width, height, depth int) (*image.RGBA, error) {
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported visual depth %d", depth)
	}
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("short image reply: %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height*4; i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
