package window

import "fmt"

// MinimizedState is the result of a per-window minimized query. The query
// is fallible, so the zero value means the state could not be determined.
type MinimizedState int

const (
	MinimizedUnknown MinimizedState = iota
	MinimizedNo
	MinimizedYes
)

func (s MinimizedState) String() string {
	switch s {
	case MinimizedNo:
		return "visible"
	case MinimizedYes:
		return "minimized"
	default:
		return "unknown"
	}
}

// MarshalText lets listings show the state by name.
func (s MinimizedState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText. Anything else
// decodes as MinimizedUnknown.
func (s *MinimizedState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "visible":
		*s = MinimizedNo
	case "minimized":
		*s = MinimizedYes
	default:
		*s = MinimizedUnknown
	}
	return nil
}

// Geometry represents window geometry in root-window coordinates.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the geometry has no area.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Descriptor is a read-only snapshot of one window taken at enumeration
// time. Title and ApplicationName are empty when the display server could
// not report them.
type Descriptor struct {
	// ID is the opaque handle passed back to a capturer.
	ID              uint32         `json:"id"`
	Title           string         `json:"title"`
	ApplicationName string         `json:"application_name"`
	PID             int            `json:"pid"`
	Minimized       MinimizedState `json:"minimized"`
	Geometry        Geometry       `json:"geometry"`
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("0x%x %q (%s, %s)", d.ID, d.Title, d.ApplicationName, d.Minimized)
}
