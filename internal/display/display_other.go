//go:build !windows

package display

// ListMonitors returns ErrUnsupported on non-Windows platforms.
func ListMonitors() ([]Monitor, error) {
	return nil, ErrUnsupported
}

// HostDPI returns ErrUnsupported on non-Windows platforms.
func HostDPI() (int, error) {
	return 0, ErrUnsupported
}
