// Package widget implements the on-screen controls: sliders, knobs, the dial
// overlay and free squares.
package widget

import (
	"math"

	"github.com/frudas24/touchsliders/internal/geom"
)

// Output receives quantized control values.
type Output interface {
	SendValueChanged(controller int, value uint8)
}

// Outputs fans a value out to several outputs.
type Outputs []Output

// SendValueChanged forwards to every non-nil output.
func (o Outputs) SendValueChanged(controller int, value uint8) {
	for _, out := range o {
		if out != nil {
			out.SendValueChanged(controller, value)
		}
	}
}

// Quantize maps a normalized value to the 0..127 controller range.
func Quantize(v float32) uint8 {
	return uint8(math.Round(float64(127 * geom.Clamp(v, 0, 1))))
}
