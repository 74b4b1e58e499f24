package scene

import (
	"testing"
	"time"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/layout"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/testutil"
	"github.com/frudas24/touchsliders/internal/widget"
)

type buildFixture struct {
	sched *testutil.FakeScheduler
	clock *testutil.FakeClock
	out   *testutil.FakeOutput
	r     *testutil.FakeRenderer
}

func build(t *testing.T, l layout.Layout) (*Built, *buildFixture) {
	t.Helper()
	f := &buildFixture{
		sched: &testutil.FakeScheduler{},
		clock: testutil.NewFakeClock(),
		out:   &testutil.FakeOutput{},
		r:     &testutil.FakeRenderer{},
	}
	b, err := Build(Options{
		Layout:   l,
		Env:      widget.Env{Sched: f.sched, Config: manip.DefaultConfig(), Clock: f.clock.Now},
		Output:   f.out,
		Renderer: f.r,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b.Resize(1280, 800, 1)
	return b, f
}

// TestBuild_DefaultLayout verifies creation order, numbering and placement.
func TestBuild_DefaultLayout(t *testing.T) {
	l := layout.Default()
	b, _ := build(t, l)

	if len(b.Squares) != 4 || len(b.Controls) != l.Controllers() {
		t.Fatalf("unexpected widgets: %d squares %d controls", len(b.Squares), len(b.Controls))
	}
	for i, c := range b.Controls {
		if c.Controller() != l.ControllerBase+i {
			t.Fatalf("control %d has controller %d", i, c.Controller())
		}
	}
	big := b.Controls[l.Sliders.Count]
	if big.Kind() != widget.Slider || big.Mode() != widget.Relative || big.Pos() != geom.Pt(610, 5) {
		t.Fatalf("unexpected big slider %v %v at %v", big.Kind(), big.Mode(), big.Pos())
	}
	last := b.Controls[len(b.Controls)-1]
	if last.Kind() != widget.Knob {
		t.Fatalf("knobs must come last")
	}
	objs := b.Objects()
	if objs[0] != Object(last) || objs[len(objs)-1] != Object(b.Squares[0]) {
		t.Fatalf("latest object must be frontmost")
	}
	if b.Squares[0].Pos() != geom.Pt(1080, 600) {
		t.Fatalf("unexpected square position %v", b.Squares[0].Pos())
	}
	if c, ok := b.Control(l.ControllerBase + 1); !ok || c != b.Controls[1] {
		t.Fatalf("lookup by controller failed")
	}
}

// TestBuild_DragSendsValue verifies input through the scene reaches the output.
func TestBuild_DragSendsValue(t *testing.T) {
	l := layout.Default()
	b, f := build(t, l)
	big := l.ControllerBase + l.Sliders.Count

	b.ProcessInputEvent(Event{ID: 1, Kind: manip.Down, X: 635, Y: 400})
	b.ProcessInputEvent(Event{ID: 1, Kind: manip.Move, X: 635, Y: 300, Time: 500})
	b.ProcessInputEvent(Event{ID: 1, Kind: manip.Up, X: 635, Y: 300, Time: 5000})

	last, ok := f.out.Last()
	if !ok || last.Controller != big || last.Value == 0 {
		t.Fatalf("expected a value on controller %d, got %+v", big, f.out.Values)
	}
}

// TestBuild_InertiaTicksRender verifies inertia timers drive the scene tick.
func TestBuild_InertiaTicksRender(t *testing.T) {
	b, f := build(t, layout.Default())
	if err := b.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	b.ProcessInputEvent(Event{ID: 1, Kind: manip.Down, X: 1180, Y: 700})
	for i := int64(1); i <= 5; i++ {
		b.ProcessInputEvent(Event{ID: 1, Kind: manip.Move, X: 1180 - float32(i)*10, Y: 700, Time: i * 10})
	}
	b.ProcessInputEvent(Event{ID: 1, Kind: manip.Up, X: 1130, Y: 700, Time: 50})
	if !b.Squares[0].InertiaActive() {
		t.Fatalf("flick must start inertia")
	}
	frames := f.r.Frames
	f.clock.Advance(10 * time.Millisecond)
	if f.sched.Fire() != 1 {
		t.Fatalf("expected one live timer")
	}
	if f.r.Frames != frames+1 {
		t.Fatalf("tick must render through the scene")
	}
}

// TestBuild_Fails verifies invalid input is rejected.
func TestBuild_Fails(t *testing.T) {
	l := layout.Default()
	if _, err := Build(Options{Layout: l, Env: widget.Env{Config: manip.DefaultConfig()}, Renderer: &testutil.FakeRenderer{}}); err == nil {
		t.Fatalf("missing scheduler must fail")
	}
	if _, err := Build(Options{Layout: l, Env: widget.Env{Sched: &testutil.FakeScheduler{}, Config: manip.DefaultConfig()}}); err == nil {
		t.Fatalf("missing renderer must fail")
	}
	l.Knobs.Modes = []string{"sideways"}
	if _, err := Build(Options{Layout: l, Env: widget.Env{Sched: &testutil.FakeScheduler{}, Config: manip.DefaultConfig()}, Renderer: &testutil.FakeRenderer{}}); err == nil {
		t.Fatalf("unknown mode must fail")
	}
}
