package control

import (
	"math"

	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
)

// NormToPhysical maps normalized coordinates to surface pixels.
func NormToPhysical(xn, yn float64, s session.Surface) (float32, float32) {
	return normToPixels(clamp01(xn), s.W), normToPixels(clamp01(yn), s.H)
}

// ContactFor maps a client pointer to a scene contact. The mouse is always
// the reserved mouse contact and touch ids are shifted past it.
func ContactFor(pointer string, id int) manip.ContactID {
	if pointer == PointerMouse || id < 0 {
		return scene.MouseID
	}
	return manip.ContactID(id) + 1
}

func normToPixels(norm float64, span int) float32 {
	if span <= 1 {
		return 0
	}
	return float32(math.Round(norm * float64(span-1)))
}

// clamp01 bounds a float to the [0..1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
