package capture

import (
	"errors"
	"image"
	"testing"

	"github.com/bryanchriswhite/WindowShot/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapturer struct {
	name     string
	startErr error
	accept   func(*window.Descriptor) bool
	img      *image.RGBA
	err      error
	calls    int
	stopped  bool
}

func (f *fakeCapturer) Start() error { return f.startErr }
func (f *fakeCapturer) Stop() error  { f.stopped = true; return nil }
func (f *fakeCapturer) Name() string { return f.name }
func (f *fakeCapturer) CanCapture(w *window.Descriptor) bool {
	return f.accept == nil || f.accept(w)
}
func (f *fakeCapturer) CaptureWindow(*window.Descriptor) (*image.RGBA, error) {
	f.calls++
	return f.img, f.err
}

func TestRouterPrefersFirstCapableCapturer(t *testing.T) {
	primary := &fakeCapturer{name: "primary", img: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	secondary := &fakeCapturer{name: "secondary", img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	r := NewRouter(primary, secondary)
	require.NoError(t, r.Start())

	img, err := r.CaptureWindow(&window.Descriptor{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestRouterSkipsCapturersThatFailToStart(t *testing.T) {
	broken := &fakeCapturer{name: "broken", startErr: errors.New("no display")}
	ok := &fakeCapturer{name: "ok", img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	r := NewRouter(broken, ok)
	require.NoError(t, r.Start())

	_, err := r.CaptureWindow(&window.Descriptor{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, broken.calls)

	require.NoError(t, r.Stop())
	assert.True(t, ok.stopped)
	assert.False(t, broken.stopped)
}

func TestRouterStartFailsWithoutBackends(t *testing.T) {
	r := NewRouter(&fakeCapturer{name: "broken", startErr: errors.New("nope")})
	assert.Error(t, r.Start())
}

func TestRouterDoesNotRetryAfterFailure(t *testing.T) {
	failing := &fakeCapturer{name: "x11", err: errors.New("BadWindow")}
	fallback := &fakeCapturer{name: "screen", img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	r := NewRouter(failing, fallback)
	require.NoError(t, r.Start())

	_, err := r.CaptureWindow(&window.Descriptor{ID: 9})
	require.ErrorIs(t, err, ErrCapture)
	assert.Contains(t, err.Error(), "BadWindow")
	assert.Equal(t, 0, fallback.calls)
}

func TestRouterNoCapableCapturer(t *testing.T) {
	r := NewRouter(&fakeCapturer{name: "picky", accept: func(*window.Descriptor) bool { return false }})
	require.NoError(t, r.Start())

	assert.False(t, r.CanCapture(&window.Descriptor{ID: 1}))
	_, err := r.CaptureWindow(&window.Descriptor{ID: 1})
	assert.ErrorIs(t, err, ErrCapture)
}

func TestScreenCapturerCropsWindowGeometry(t *testing.T) {
	var got image.Rectangle
	c := &ScreenCapturer{
		captureRect: func(r image.Rectangle) (*image.RGBA, error) {
			got = r
			return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
		},
		displays: func() int { return 1 },
	}
	require.NoError(t, c.Start())

	w := &window.Descriptor{ID: 1, Geometry: window.Geometry{X: 10, Y: 20, Width: 300, Height: 200}}
	img, err := c.CaptureWindow(w)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 310, 220), got)
	assert.Equal(t, 300, img.Bounds().Dx())

	assert.False(t, c.CanCapture(&window.Descriptor{ID: 2}))
}

func TestScreenCapturerWithoutDisplays(t *testing.T) {
	c := &ScreenCapturer{displays: func() int { return 0 }}
	assert.Error(t, c.Start())
}

func TestBGRXToRGBA(t *testing.T) {
	data := []byte{
		0x01, 0x02, 0x03, 0x00,
		0x0a, 0x0b, 0x0c, 0x00,
	}
	img, err := bgrxToRGBA(data, 2, 1, 24)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x03, 0x02, 0x01, 0xff, 0x0c, 0x0b, 0x0a, 0xff}, img.Pix)

	_, err = bgrxToRGBA(data, 2, 2, 24)
	assert.Error(t, err, "short reply")

	_, err = bgrxToRGBA(data, 2, 1, 16)
	assert.Error(t, err, "unsupported depth")
}
