package window

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
)

// ICCCM WM_STATE value for an iconified window.
const iconicState = 3

var errEmptyProperty = errors.New("empty property")

// X11Backend implements the Backend interface using X11
type X11Backend struct {
	conn *xgb.Conn
	root xproto.Window

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// NewX11Backend connects to the X server named by $DISPLAY.
func NewX11Backend() (*X11Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	return &X11Backend{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom),
	}, nil
}

// Close closes the X11 connection
func (b *X11Backend) Close() error {
	b.conn.Close()
	return nil
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// ListWindows returns all windows using EWMH _NET_CLIENT_LIST with QueryTree fallback
func (b *X11Backend) ListWindows() ([]*Descriptor, error) {
	log := logger.WithComponent("x11-backend")

	ids, err := b.clientListEWMH()
	if err == nil && len(ids) > 0 {
		log.Debug().Int("count", len(ids)).Msg("ListWindows: using EWMH _NET_CLIENT_LIST")
		return b.describeAll(ids), nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("ListWindows: EWMH failed, falling back to QueryTree")
	}

	tree, err := xproto.QueryTree(b.conn, b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query window tree: %w", err)
	}
	log.Debug().Int("count", len(tree.Children)).Msg("ListWindows: using QueryTree fallback")
	return b.describeAll(tree.Children), nil
}

func (b *X11Backend) describeAll(ids []xproto.Window) []*Descriptor {
	windows := make([]*Descriptor, 0, len(ids))
	for _, id := range ids {
		d := b.describe(id)
		// Windows without title or class are not user windows
		if d.Title == "" && d.ApplicationName == "" {
			continue
		}
		windows = append(windows, d)
	}
	return windows
}

// clientListEWMH reads the window ids from _NET_CLIENT_LIST (EWMH standard)
func (b *X11Backend) clientListEWMH() ([]xproto.Window, error) {
	reply, err := b.getRawProperty(b.root, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	values := cardinals(reply.Value)
	ids := make([]xproto.Window, len(values))
	for i, v := range values {
		ids[i] = xproto.Window(v)
	}
	return ids, nil
}

// describe gathers identity and state for one window. Individual property
// failures leave the corresponding field at its zero value.
func (b *X11Backend) describe(win xproto.Window) *Descriptor {
	d := &Descriptor{ID: uint32(win)}

	if geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply(); err == nil {
		d.Geometry = b.rootGeometry(win, geom)
	}

	if title, err := b.getStringProperty(win, "_NET_WM_NAME"); err == nil {
		d.Title = title
	} else if title, err := b.getStringProperty(win, "WM_NAME"); err == nil {
		d.Title = title
	}

	// WM_CLASS is instance\0class\0; the class names the application.
	if raw, err := b.getStringProperty(win, "WM_CLASS"); err == nil {
		parts := strings.Split(raw, "\x00")
		if len(parts) >= 2 && parts[1] != "" {
			d.ApplicationName = parts[1]
		} else if parts[0] != "" {
			d.ApplicationName = parts[0]
		}
	}

	if reply, err := b.getRawProperty(win, "_NET_WM_PID"); err == nil {
		if v := cardinals(reply.Value); len(v) > 0 {
			d.PID = int(v[0])
		}
	}

	d.Minimized = b.minimizedState(win)
	return d
}

// rootGeometry translates a window's origin into root coordinates so a
// screen-region capturer can crop it.
func (b *X11Backend) rootGeometry(win xproto.Window, geom *xproto.GetGeometryReply) Geometry {
	g := Geometry{
		X:      int(geom.X),
		Y:      int(geom.Y),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}
	if tr, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply(); err == nil {
		g.X, g.Y = int(tr.DstX), int(tr.DstY)
	}
	return g
}

// minimizedState consults _NET_WM_STATE first and the ICCCM WM_STATE
// second. If neither property can be read the state stays unknown.
func (b *X11Backend) minimizedState(win xproto.Window) MinimizedState {
	hidden, err := b.atom("_NET_WM_STATE_HIDDEN")
	if err == nil {
		if reply, err := b.getRawProperty(win, "_NET_WM_STATE"); err == nil {
			for _, a := range cardinals(reply.Value) {
				if xproto.Atom(a) == hidden {
					return MinimizedYes
				}
			}
			return MinimizedNo
		}
	}

	if reply, err := b.getRawProperty(win, "WM_STATE"); err == nil {
		if v := cardinals(reply.Value); len(v) > 0 {
			if v[0] == iconicState {
				return MinimizedYes
			}
			return MinimizedNo
		}
	}

	return MinimizedUnknown
}

// atom interns and caches an atom by name
func (b *X11Backend) atom(name string) (xproto.Atom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a, ok := b.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// getRawProperty fetches a property, treating an absent property as an error.
func (b *X11Backend) getRawProperty(win xproto.Window, name string) (*xproto.GetPropertyReply, error) {
	a, err := b.atom(name)
	if err != nil {
		return nil, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		a,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	if reply.Type == xproto.AtomNone {
		return nil, fmt.Errorf("%s: %w", name, errEmptyProperty)
	}
	return reply, nil
}

func (b *X11Backend) getStringProperty(win xproto.Window, name string) (string, error) {
	reply, err := b.getRawProperty(win, name)
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("%s: %w", name, errEmptyProperty)
	}
	return string(reply.Value), nil
}

// cardinals decodes a format-32 property value. X11 replies arrive in the
// client's byte order, which xgb negotiates as little-endian.
func cardinals(value []byte) []uint32 {
	out := make([]uint32, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		out = append(out, binary.LittleEndian.Uint32(value[i:i+4]))
	}
	return out
}
