package window

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bryanchriswhite/WindowShot/internal/logger"
)

// ErrEnumerate is returned when the backend cannot list windows.
var ErrEnumerate = errors.New("failed to get window list")

// Snapshot is every window visible to the capture subsystem at one instant,
// in backend enumeration order. It is never cached: window state is volatile
// and each pipeline run takes its own.
type Snapshot struct {
	Windows []*Descriptor `json:"windows"`
	TakenAt time.Time     `json:"taken_at"`
}

// Len returns the number of windows in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Windows)
}

// Application groups the windows that share an application name.
type Application struct {
	Name        string `json:"name"`
	PID         int    `json:"pid"`
	WindowCount int    `json:"window_count"`
}

// Directory produces window snapshots.
type Directory interface {
	Snapshot() (Snapshot, error)
}

// Manager is the Directory backed by a display-server Backend.
type Manager struct {
	backend Backend
	now     func() time.Time
}

// NewManager wraps an already connected backend.
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend, now: time.Now}
}

// NewX11Manager connects to X11 and returns a Manager over it.
func NewX11Manager() (*Manager, error) {
	backend, err := NewX11Backend()
	if err != nil {
		return nil, err
	}
	return NewManager(backend), nil
}

// Snapshot enumerates all windows once.
func (m *Manager) Snapshot() (Snapshot, error) {
	windows, err := m.backend.ListWindows()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrEnumerate, err)
	}

	logger.WithComponent("window").Debug().
		Str("backend", m.backend.Name()).
		Int("count", len(windows)).
		Msg("Took window snapshot")

	return Snapshot{Windows: windows, TakenAt: m.now()}, nil
}

// GetApplications returns one entry per distinct application name, sorted
// by name.
func (m *Manager) GetApplications() ([]Application, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}

	appMap := make(map[string]*Application)
	for _, win := range snap.Windows {
		if win.ApplicationName == "" {
			continue
		}
		app, ok := appMap[win.ApplicationName]
		if !ok {
			app = &Application{Name: win.ApplicationName, PID: win.PID}
			appMap[win.ApplicationName] = app
		}
		app.WindowCount++
	}

	apps := make([]Application, 0, len(appMap))
	for _, app := range appMap {
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// Stop closes the underlying backend.
func (m *Manager) Stop() {
	if err := m.backend.Close(); err != nil {
		logger.WithComponent("window").Warn().Err(err).Msg("Failed to close backend")
	}
}
