package widget

import (
	"image"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/testutil"
)

func frame(t *testing.T) *testutil.FakeRenderer {
	t.Helper()
	r := &testutil.FakeRenderer{}
	if err := r.BeginFrame(image.Pt(1000, 1000), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return r
}

// TestPaint_Slider verifies the bar height and the percent label.
func TestPaint_Slider(t *testing.T) {
	f := newFixture()
	c := f.control(t, Slider, Absolute, geom.Pt(100, 100), geom.Pt(50, 200))
	c.SetValue(0.5)
	r := frame(t)
	c.Paint(r)
	if r.Count("FillRect") != 2 {
		t.Fatalf("expected background and bar, got %+v", r.Ops)
	}
	bar := r.Ops[1].Rect
	if !near(bar.Min.Y, 210) || !near(bar.Max.Y, 300) || !near(bar.Min.X, 112.5) {
		t.Fatalf("unexpected bar %+v", bar)
	}
	if texts := r.Texts(); len(texts) != 1 || texts[0] != "50%" {
		t.Fatalf("unexpected labels %v", texts)
	}
}

// TestPaint_GhostScale verifies the fine scale shows during a sideways relative drag.
func TestPaint_GhostScale(t *testing.T) {
	f := newFixture()
	c := f.control(t, Slider, Relative, geom.Pt(100, 100), geom.Pt(50, 200))
	c.SetValue(0.5)
	mustHandle(t, c, ev(1, manip.Down, 125, 150, 0))
	mustHandle(t, c, ev(1, manip.Move, 300, 150, 500))
	r := frame(t)
	c.Paint(r)
	if r.Count("FillRect") != 3 {
		t.Fatalf("expected ghost backdrop, got %d rects", r.Count("FillRect"))
	}
	if !slices.Contains(r.Texts(), "60%") {
		t.Fatalf("expected ghost labels, got %v", r.Texts())
	}

	mustHandle(t, c, ev(1, manip.Up, 300, 150, 5000))
	r = frame(t)
	c.Paint(r)
	if r.Count("FillRect") != 2 {
		t.Fatalf("ghost must vanish on release")
	}
}

// TestPaint_Knob verifies the ring, the value mark and the ticks.
func TestPaint_Knob(t *testing.T) {
	f := newFixture()
	c := f.control(t, Knob, Relative, geom.Pt(0, 0), geom.Pt(80, 80))
	c.SetValue(0.25)
	r := frame(t)
	c.Paint(r)
	if r.Count("FillEllipse") != 1 || r.Count("FillTiltedRect") != 11 {
		t.Fatalf("unexpected knob ops %+v", r.Ops)
	}
	if texts := r.Texts(); len(texts) != 1 || texts[0] != "25%" {
		t.Fatalf("unexpected labels %v", texts)
	}
}

// TestPaint_Dial verifies the overlay is drawn above its control.
func TestPaint_Dial(t *testing.T) {
	f := newFixture()
	c := f.control(t, Knob, Dial, geom.Pt(400, 400), geom.Pt(50, 50))
	mustHandle(t, c, ev(1, manip.Down, 425, 425, 0))
	r := frame(t)
	c.Paint(r)
	if r.Count("FillEllipse") != 4 {
		t.Fatalf("expected knob ring and three dial rings, got %d", r.Count("FillEllipse"))
	}
	if got := r.Count("FillTiltedRect"); got != 11+2+101 {
		t.Fatalf("unexpected mark count %d", got)
	}
	texts := r.Texts()
	for _, want := range []string{"0%", "50%", "100%"} {
		if !slices.Contains(texts, want) {
			t.Fatalf("missing dial label %s in %v", want, texts)
		}
	}
}

// TestPaint_SquareStoresMatrix verifies painting feeds the hit test.
func TestPaint_SquareStoresMatrix(t *testing.T) {
	f := newFixture()
	sq, err := NewSquare(f.env, Green)
	if err != nil {
		t.Fatalf("square: %v", err)
	}
	sq.ResetState(geom.Pt(100, 100), geom.Pt(1000, 1000), geom.Pt(100, 100))
	sq.Rotate(45)
	r := frame(t)
	sq.Paint(r)
	if r.Count("FillRoundedRect") != 2 {
		t.Fatalf("expected body and gloss, got %+v", r.Ops)
	}
	if r.Ops[0].M != sq.LastMatrix() {
		t.Fatalf("paint must use the stored matrix")
	}
	// the corner of the unrotated box is outside the diamond
	if sq.InRegion(geom.Pt(102, 102)) || !sq.InRegion(geom.Pt(150, 150)) {
		t.Fatalf("hit test must follow the rotation")
	}
}
