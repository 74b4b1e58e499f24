// Package layout describes which controls the surface shows and where the
// grid packing puts them.
package layout

import (
	"errors"
	"fmt"
)

// Squares is the group of free squares.
type Squares struct {
	Count  int      `yaml:"count" toml:"count"`
	Size   float32  `yaml:"size" toml:"size"`
	Colors []string `yaml:"colors" toml:"colors"`
}

// Sliders is the bank of faders. Modes cycle over the bank.
type Sliders struct {
	Count  int      `yaml:"count" toml:"count"`
	Width  float32  `yaml:"width" toml:"width"`
	Height float32  `yaml:"height" toml:"height"`
	Border float32  `yaml:"border" toml:"border"`
	Modes  []string `yaml:"modes" toml:"modes"`
}

// BigSlider is the tall fader right of the bank.
type BigSlider struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Mode    string `yaml:"mode" toml:"mode"`
}

// Knobs is the bank of rotary controls along the bottom edge.
type Knobs struct {
	Count  int      `yaml:"count" toml:"count"`
	Size   float32  `yaml:"size" toml:"size"`
	Border float32  `yaml:"border" toml:"border"`
	Modes  []string `yaml:"modes" toml:"modes"`
}

// Layout is the whole surface description.
type Layout struct {
	Squares        Squares   `yaml:"squares" toml:"squares"`
	Sliders        Sliders   `yaml:"sliders" toml:"sliders"`
	BigSlider      BigSlider `yaml:"big_slider" toml:"big_slider"`
	Knobs          Knobs     `yaml:"knobs" toml:"knobs"`
	ControllerBase int       `yaml:"controller_base" toml:"controller_base"`
}

var (
	knownModes  = map[string]bool{"absolute": true, "relative": true, "dial": true}
	knownColors = map[string]bool{"blue": true, "orange": true, "red": true, "green": true}
)

// Default returns the stock surface.
func Default() Layout {
	return Layout{
		Squares:   Squares{Count: 4, Size: 200, Colors: []string{"blue", "orange", "red", "green"}},
		Sliders:   Sliders{Count: 33, Width: 50, Height: 200, Border: 5, Modes: []string{"absolute", "relative"}},
		BigSlider: BigSlider{Enabled: true, Mode: "relative"},
		Knobs:     Knobs{Count: 25, Size: 50, Border: 2, Modes: []string{"dial"}},
	}
}

// Validate rejects layouts that cannot be packed.
func (l Layout) Validate() error {
	var errs []error
	if l.Squares.Count < 0 || l.Sliders.Count < 0 || l.Knobs.Count < 0 {
		errs = append(errs, errors.New("counts must be >= 0"))
	}
	if l.Squares.Count > 0 {
		if l.Squares.Size <= 0 {
			errs = append(errs, fmt.Errorf("squares.size must be > 0, got %v", l.Squares.Size))
		}
		for _, c := range l.Squares.Colors {
			if !knownColors[c] {
				errs = append(errs, fmt.Errorf("unknown square colour %q", c))
			}
		}
	}
	if l.Sliders.Count > 0 || l.BigSlider.Enabled {
		if l.Sliders.Width <= 0 || l.Sliders.Height <= 0 {
			errs = append(errs, errors.New("slider width and height must be > 0"))
		}
		if l.Sliders.Border < 0 {
			errs = append(errs, errors.New("slider border must be >= 0"))
		}
		errs = append(errs, checkModes("sliders", l.Sliders.Modes, l.Sliders.Count > 0)...)
	}
	if l.BigSlider.Enabled && !knownModes[l.BigSlider.Mode] {
		errs = append(errs, fmt.Errorf("unknown big_slider mode %q", l.BigSlider.Mode))
	}
	if l.Knobs.Count > 0 {
		if l.Knobs.Size <= 0 || l.Knobs.Border < 0 {
			errs = append(errs, errors.New("knob size must be > 0 and border >= 0"))
		}
		errs = append(errs, checkModes("knobs", l.Knobs.Modes, true)...)
	}
	if l.ControllerBase < 0 || l.ControllerBase+l.Controllers() > 128 {
		errs = append(errs, fmt.Errorf("controllers %d..%d exceed 0..127", l.ControllerBase, l.ControllerBase+l.Controllers()-1))
	}
	return errors.Join(errs...)
}

func checkModes(group string, modes []string, required bool) []error {
	if required && len(modes) == 0 {
		return []error{fmt.Errorf("%s.modes must not be empty", group)}
	}
	var errs []error
	for _, m := range modes {
		if !knownModes[m] {
			errs = append(errs, fmt.Errorf("unknown %s mode %q", group, m))
		}
	}
	return errs
}

// Controllers returns how many controller numbers the layout uses.
func (l Layout) Controllers() int {
	n := l.Sliders.Count + l.Knobs.Count
	if l.BigSlider.Enabled {
		n++
	}
	return n
}

// SliderMode returns the mode of slider i.
func (l Layout) SliderMode(i int) string {
	return l.Sliders.Modes[i%len(l.Sliders.Modes)]
}

// KnobMode returns the mode of knob i.
func (l Layout) KnobMode(i int) string {
	return l.Knobs.Modes[i%len(l.Knobs.Modes)]
}

// SquareColor returns the colour name of square i.
func (l Layout) SquareColor(i int) string {
	if len(l.Squares.Colors) == 0 {
		return Default().Squares.Colors[i%4]
	}
	return l.Squares.Colors[i%len(l.Squares.Colors)]
}
