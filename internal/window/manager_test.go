package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	windows []*Descriptor
	err     error
	closed  bool
}

func (f *fakeBackend) ListWindows() ([]*Descriptor, error) { return f.windows, f.err }
func (f *fakeBackend) Close() error                         { f.closed = true; return nil }
func (f *fakeBackend) Name() string                         { return "fake" }

func TestManagerSnapshot(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	backend := &fakeBackend{windows: []*Descriptor{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}}
	m := NewManager(backend)
	m.now = func() time.Time { return at }

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, uint32(1), snap.Windows[0].ID, "enumeration order is kept")
	assert.Equal(t, at, snap.TakenAt)

	m.Stop()
	assert.True(t, backend.closed)
}

func TestManagerSnapshotError(t *testing.T) {
	m := NewManager(&fakeBackend{err: errors.New("connection reset")})

	_, err := m.Snapshot()
	require.ErrorIs(t, err, ErrEnumerate)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestManagerGetApplications(t *testing.T) {
	m := NewManager(&fakeBackend{windows: []*Descriptor{
		{ID: 1, Title: "one", ApplicationName: "Firefox", PID: 100},
		{ID: 2, Title: "two", ApplicationName: "Alacritty", PID: 200},
		{ID: 3, Title: "three", ApplicationName: "Firefox", PID: 100},
		{ID: 4, Title: "no class"},
	}})

	apps, err := m.GetApplications()
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, Application{Name: "Alacritty", PID: 200, WindowCount: 1}, apps[0])
	assert.Equal(t, Application{Name: "Firefox", PID: 100, WindowCount: 2}, apps[1])
}

func TestCardinals(t *testing.T) {
	got := cardinals([]byte{1, 0, 0, 0, 0x10, 0x20, 0, 0, 0xff})
	assert.Equal(t, []uint32{1, 0x2010}, got)
}

func TestMinimizedStateText(t *testing.T) {
	b, err := MinimizedYes.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "minimized", string(b))
	assert.Equal(t, "unknown", MinimizedState(0).String())
}

func TestMinimizedStateRoundTrip(t *testing.T) {
	for _, s := range []MinimizedState{MinimizedUnknown, MinimizedNo, MinimizedYes} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got MinimizedState
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
}
