package window

// Backend enumerates windows from a display server (X11 today).
type Backend interface {
	// ListWindows returns every window the capture subsystem can see, in
	// the display server's enumeration order.
	ListWindows() ([]*Descriptor, error)

	// Close releases the display server connection.
	Close() error

	// Name returns the backend name (e.g., "x11")
	Name() string
}
