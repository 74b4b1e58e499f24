// Package testutil holds fakes shared by package tests.
package testutil

import (
	"image"
	"time"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/render"
)

// FakeTimer is a timer handed out by FakeScheduler.
type FakeTimer struct {
	Period  time.Duration
	fn      func()
	stopped bool
}

// Stop cancels the timer.
func (t *FakeTimer) Stop() {
	t.stopped = true
}

// Stopped reports whether Stop was called.
func (t *FakeTimer) Stopped() bool {
	return t.stopped
}

// FakeScheduler implements manip.Scheduler with manually fired timers.
type FakeScheduler struct {
	Timers []*FakeTimer
}

// Ensure FakeScheduler implements the interface.
var _ manip.Scheduler = (*FakeScheduler)(nil)

// Every records a periodic task.
func (s *FakeScheduler) Every(period time.Duration, fn func()) manip.Timer {
	t := &FakeTimer{Period: period, fn: fn}
	s.Timers = append(s.Timers, t)
	return t
}

// Fire runs every live timer once and returns how many ran.
func (s *FakeScheduler) Fire() int {
	n := 0
	for _, t := range append([]*FakeTimer(nil), s.Timers...) {
		if t.stopped {
			continue
		}
		t.fn()
		n++
	}
	return n
}

// Live returns the number of timers not yet stopped.
func (s *FakeScheduler) Live() int {
	n := 0
	for _, t := range s.Timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	T time.Time
}

// NewFakeClock returns a clock at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{T: time.Unix(1000, 0)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// SentValue is one recorded controller change.
type SentValue struct {
	Controller int
	Value      uint8
}

// FakeOutput records controller changes.
type FakeOutput struct {
	Values []SentValue
}

// SendValueChanged records a change.
func (o *FakeOutput) SendValueChanged(controller int, value uint8) {
	o.Values = append(o.Values, SentValue{Controller: controller, Value: value})
}

// Last returns the most recent change, if any.
func (o *FakeOutput) Last() (SentValue, bool) {
	if len(o.Values) == 0 {
		return SentValue{}, false
	}
	return o.Values[len(o.Values)-1], true
}

// Op is one recorded draw call.
type Op struct {
	Name string
	Rect render.Rect
	Text string
	M    f32.Affine2D
}

// FakeRenderer implements render.Renderer and records calls for tests.
type FakeRenderer struct {
	Ops      []Op
	Frames   int
	Begins   int
	Discards int
	Size     image.Point
	Scale    float32
	// Recreate is returned by the next EndFrame and then cleared.
	Recreate bool
	// BeginErr is returned by BeginFrame when set.
	BeginErr error

	m f32.Affine2D
}

// Ensure FakeRenderer implements the interface.
var _ render.Renderer = (*FakeRenderer)(nil)

// BeginFrame records the start of a frame.
func (r *FakeRenderer) BeginFrame(size image.Point, scale float32) error {
	if r.BeginErr != nil {
		return r.BeginErr
	}
	r.Begins++
	r.Size = size
	r.Scale = scale
	r.Ops = r.Ops[:0]
	r.m = f32.Affine2D{}
	return nil
}

// EndFrame counts the frame and reports the pending Recreate flag.
func (r *FakeRenderer) EndFrame() (bool, error) {
	r.Frames++
	recreate := r.Recreate
	r.Recreate = false
	return recreate, nil
}

// DiscardDeviceResources counts discards.
func (r *FakeRenderer) DiscardDeviceResources() {
	r.Discards++
}

// SetTransform records the transform for the following ops.
func (r *FakeRenderer) SetTransform(m f32.Affine2D) {
	r.m = m
}

// FillRect records a rectangle.
func (r *FakeRenderer) FillRect(rc render.Rect, _ render.Brush) {
	r.record(Op{Name: "FillRect", Rect: rc})
}

// FillRoundedRect records a rounded rectangle.
func (r *FakeRenderer) FillRoundedRect(rc render.Rect, _ float32, _ render.Brush) {
	r.record(Op{Name: "FillRoundedRect", Rect: rc})
}

// FillEllipse records an ellipse by its bounding box.
func (r *FakeRenderer) FillEllipse(c geom.Point, rx, ry float32, _ render.Brush) {
	r.record(Op{Name: "FillEllipse", Rect: render.Rect{Min: c.Sub(geom.Pt(rx, ry)), Max: c.Add(geom.Pt(rx, ry))}})
}

// FillTiltedRect records a tilted bar.
func (r *FakeRenderer) FillTiltedRect(base geom.Point, _, _ float32, _ geom.Point, _ render.Brush) {
	r.record(Op{Name: "FillTiltedRect", Rect: render.Rect{Min: base, Max: base}})
}

// DrawText records a label.
func (r *FakeRenderer) DrawText(rc render.Rect, text string, _ render.TextSize, _ render.Brush) {
	r.record(Op{Name: "DrawText", Rect: rc, Text: text})
}

// Count returns the number of recorded ops with the given name.
func (r *FakeRenderer) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// Texts returns every label drawn in the current frame.
func (r *FakeRenderer) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Name == "DrawText" {
			out = append(out, op.Text)
		}
	}
	return out
}

func (r *FakeRenderer) record(op Op) {
	op.M = r.m
	r.Ops = append(r.Ops, op)
}
