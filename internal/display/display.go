// Package display reports the host monitors and pixel density.
package display

import "errors"

// BaseDPI is the density of one logical unit per pixel.
const BaseDPI = 96

// ErrUnsupported is returned where the host cannot be queried.
var ErrUnsupported = errors.New("display query not supported on this platform")

// Monitor describes a display and its bounds.
type Monitor struct {
	Index   int
	X       int
	Y       int
	W       int
	H       int
	Primary bool
}

// Primary returns the primary monitor, or the first one when none is flagged.
func Primary(list []Monitor) (Monitor, bool) {
	for _, m := range list {
		if m.Primary {
			return m, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Monitor{}, false
}

// ScaleFromDPI converts a DPI reading to points per logical unit.
func ScaleFromDPI(dpi int) float32 {
	if dpi <= 0 {
		return 1
	}
	return float32(dpi) / BaseDPI
}

// PointsPerLogical picks the surface scale: override when positive, then the
// host DPI, then 1.
func PointsPerLogical(override float64) float32 {
	if override > 0 {
		return float32(override)
	}
	dpi, err := HostDPI()
	if err != nil {
		return 1
	}
	return ScaleFromDPI(dpi)
}
