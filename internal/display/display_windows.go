//go:build windows

package display

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// ListMonitors returns the list of available displays using WinAPI.
func ListMonitors() ([]Monitor, error) {
	state := &enumState{}
	callback := syscall.NewCallback(state.enumProc)

	if ok := win.EnumDisplayMonitors(0, nil, callback, 0); !ok {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", syscall.GetLastError())
	}
	if len(state.list) == 0 {
		return nil, fmt.Errorf("no monitors detected")
	}
	return state.list, nil
}

// HostDPI returns the horizontal DPI of the screen device context.
func HostDPI() (int, error) {
	hdc := win.GetDC(0)
	if hdc == 0 {
		return 0, fmt.Errorf("GetDC failed: %w", syscall.GetLastError())
	}
	defer win.ReleaseDC(0, hdc)
	return int(win.GetDeviceCaps(hdc, win.LOGPIXELSX)), nil
}

type enumState struct {
	list  []Monitor
	index int
}

func (s *enumState) enumProc(hMonitor win.HMONITOR, hdc win.HDC, rect *win.RECT, lparam uintptr) uintptr {
	var info win.MONITORINFO
	info.CbSize = uint32(unsafe.Sizeof(info))
	if !win.GetMonitorInfo(hMonitor, &info) {
		return 1
	}

	r := info.RcMonitor
	s.index++
	s.list = append(s.list, Monitor{
		Index:   s.index,
		X:       int(r.Left),
		Y:       int(r.Top),
		W:       int(r.Right - r.Left),
		H:       int(r.Bottom - r.Top),
		Primary: info.DwFlags&win.MONITORINFOF_PRIMARY != 0,
	})
	return 1
}
