package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frudas24/touchsliders/internal/geom"
)

// TestDefault_Valid verifies the stock layout passes validation.
func TestDefault_Valid(t *testing.T) {
	l := Default()
	if err := l.Validate(); err != nil {
		t.Fatalf("default invalid: %v", err)
	}
	if l.Controllers() != 59 {
		t.Fatalf("expected 59 controllers, got %d", l.Controllers())
	}
}

// TestPlace_Grid verifies the packing of every group.
func TestPlace_Grid(t *testing.T) {
	client := geom.Pt(1280, 800)
	p := Place(Default(), client)

	if len(p.Squares) != 4 || p.Squares[0].Pos != geom.Pt(1080, 600) || p.Squares[3].Pos != geom.Pt(880, 400) {
		t.Fatalf("unexpected squares %+v", p.Squares)
	}
	// 11 columns of 55x205
	if p.Sliders[0].Pos != geom.Pt(5, 5) || p.Sliders[11].Pos != geom.Pt(5, 210) || p.Sliders[12].Pos != geom.Pt(60, 210) {
		t.Fatalf("unexpected sliders %v %v %v", p.Sliders[0].Pos, p.Sliders[11].Pos, p.Sliders[12].Pos)
	}
	if p.Big == nil || p.Big.Pos != geom.Pt(610, 5) || p.Big.Size != geom.Pt(50, 610) {
		t.Fatalf("unexpected big slider %+v", p.Big)
	}
	// 5 columns of 52x52 from the bottom edge
	if p.Knobs[0].Pos != geom.Pt(2, 746) || p.Knobs[6].Pos != geom.Pt(54, 694) {
		t.Fatalf("unexpected knobs %v %v", p.Knobs[0].Pos, p.Knobs[6].Pos)
	}
}

// TestPlace_EmptyGroups verifies zero counts place nothing.
func TestPlace_EmptyGroups(t *testing.T) {
	l := Layout{Sliders: Sliders{Width: 50, Height: 200}}
	p := Place(l, geom.Pt(100, 100))
	if len(p.Squares)+len(p.Sliders)+len(p.Knobs) != 0 || p.Big != nil {
		t.Fatalf("expected empty placement, got %+v", p)
	}
}

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoad_YAML verifies YAML overrides keep unspecified defaults.
func TestLoad_YAML(t *testing.T) {
	path := write(t, "layout.yaml", "sliders:\n  count: 8\n  modes: [relative]\nknobs:\n  count: 0\ncontroller_base: 20\n")
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Sliders.Count != 8 || l.SliderMode(3) != "relative" || l.Sliders.Width != 50 || l.Knobs.Count != 0 || l.ControllerBase != 20 {
		t.Fatalf("unexpected layout %+v", l)
	}
}

// TestLoad_TOML verifies the TOML form.
func TestLoad_TOML(t *testing.T) {
	path := write(t, "layout.toml", "controller_base = 1\n[squares]\ncount = 2\ncolors = [\"red\"]\n[big_slider]\nenabled = false\n")
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Squares.Count != 2 || l.SquareColor(1) != "red" || l.BigSlider.Enabled || l.ControllerBase != 1 {
		t.Fatalf("unexpected layout %+v", l)
	}
}

// TestLoad_Rejects verifies bad files fail with a useful error.
func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad.yaml":  "sliders:\n  modes: [sideways]\n",
		"typo.yaml": "slider:\n  count: 3\n",
		"typo.toml": "[knob]\ncount = 3\n",
		"big.yaml":  "controller_base: 100\n",
		"x.json":    "{}",
	}
	for name, body := range cases {
		if _, err := Load(write(t, name, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read layout") {
		t.Fatalf("expected read error, got %v", err)
	}
}

// TestLoad_EmptyPath verifies the defaults are used without a file.
func TestLoad_EmptyPath(t *testing.T) {
	l, err := Load("")
	if err != nil || l.Sliders.Count != 33 {
		t.Fatalf("expected defaults, got %+v %v", l, err)
	}
}
