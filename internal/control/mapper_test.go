package control

import (
	"testing"

	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
)

var surface = session.Surface{W: 301, H: 401, DPR: 1}

// TestNormToPhysical_Corners verifies the corner mappings.
func TestNormToPhysical_Corners(t *testing.T) {
	if x, y := NormToPhysical(0, 0, surface); x != 0 || y != 0 {
		t.Fatalf("expected (0,0), got (%v,%v)", x, y)
	}
	if x, y := NormToPhysical(1, 1, surface); x != 300 || y != 400 {
		t.Fatalf("expected (300,400), got (%v,%v)", x, y)
	}
}

// TestNormToPhysical_Center verifies center mapping.
func TestNormToPhysical_Center(t *testing.T) {
	if x, y := NormToPhysical(0.5, 0.5, surface); x != 150 || y != 200 {
		t.Fatalf("expected (150,200), got (%v,%v)", x, y)
	}
}

// TestNormToPhysical_Clamps verifies out-of-range input is clamped.
func TestNormToPhysical_Clamps(t *testing.T) {
	if x, y := NormToPhysical(-1, 2, surface); x != 0 || y != 400 {
		t.Fatalf("expected (0,400), got (%v,%v)", x, y)
	}
	if x, y := NormToPhysical(0.5, 0.5, session.Surface{}); x != 0 || y != 0 {
		t.Fatalf("empty surface must map to origin")
	}
}

// TestContactFor verifies the mouse owns the reserved contact.
func TestContactFor(t *testing.T) {
	if ContactFor(PointerMouse, 7) != scene.MouseID {
		t.Fatalf("mouse must map to the mouse contact")
	}
	if got := ContactFor(PointerTouch, 0); got != 1 {
		t.Fatalf("touch 0 must map to 1, got %d", got)
	}
	if got := ContactFor("", 4); got != 5 {
		t.Fatalf("unnamed pointers are touches, got %d", got)
	}
}
