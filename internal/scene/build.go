package scene

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/layout"
	"github.com/frudas24/touchsliders/internal/render"
	"github.com/frudas24/touchsliders/internal/widget"
)

// Options is everything Build needs.
type Options struct {
	Layout   layout.Layout
	Env      widget.Env
	Output   widget.Output
	Renderer render.Renderer
	Log      *logrus.Entry
}

// Built is a scene together with typed access to its widgets.
type Built struct {
	*Scene
	Squares []*widget.Square
	// Controls are ordered by controller number.
	Controls []*widget.Control
}

// Control returns the control driving a controller number.
func (b *Built) Control(controller int) (*widget.Control, bool) {
	for _, c := range b.Controls {
		if c.Controller() == controller {
			return c, true
		}
	}
	return nil, false
}

// Build creates every widget of the layout. Any failure closes what was
// already created and returns the error.
func Build(opts Options) (_ *Built, err error) {
	l := opts.Layout
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("scene: nil renderer")
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "scene")
	}

	b := &Built{}
	var created []Object
	defer func() {
		if err != nil {
			for _, o := range created {
				o.Close()
			}
		}
	}()

	env := opts.Env
	if env.Log == nil {
		env.Log = log
	}
	env.OnTick = func() {
		if b.Scene != nil {
			b.RunInertiaTick()
		}
	}

	for i := 0; i < l.Squares.Count; i++ {
		color, err := widget.ParseColor(l.SquareColor(i))
		if err != nil {
			return nil, fmt.Errorf("scene: square %d: %w", i, err)
		}
		sq, err := widget.NewSquare(env, color)
		if err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
		created = append(created, sq)
		b.Squares = append(b.Squares, sq)
	}

	controller := l.ControllerBase
	addControl := func(kind widget.Kind, modeName string) error {
		mode, err := widget.ParseMode(modeName)
		if err != nil {
			return err
		}
		c, err := widget.NewControl(env, kind, mode, controller, opts.Output)
		if err != nil {
			return err
		}
		controller++
		created = append(created, c)
		b.Controls = append(b.Controls, c)
		return nil
	}
	for i := 0; i < l.Sliders.Count; i++ {
		if err := addControl(widget.Slider, l.SliderMode(i)); err != nil {
			return nil, fmt.Errorf("scene: slider %d: %w", i, err)
		}
	}
	if l.BigSlider.Enabled {
		if err := addControl(widget.Slider, l.BigSlider.Mode); err != nil {
			return nil, fmt.Errorf("scene: big slider: %w", err)
		}
	}
	for i := 0; i < l.Knobs.Count; i++ {
		if err := addControl(widget.Knob, l.KnobMode(i)); err != nil {
			return nil, fmt.Errorf("scene: knob %d: %w", i, err)
		}
	}

	// latest created is frontmost
	front := make([]Object, len(created))
	for i, o := range created {
		front[len(created)-1-i] = o
	}
	b.Scene = New(opts.Renderer, front, b.placer(l), log)
	log.WithFields(logrus.Fields{"squares": len(b.Squares), "controls": len(b.Controls)}).Info("scene built")
	return b, nil
}

func (b *Built) placer(l layout.Layout) Placer {
	return func(client geom.Point) {
		p := layout.Place(l, client)
		for i, sq := range b.Squares {
			sq.ResetState(p.Squares[i].Pos, client, p.Squares[i].Size)
		}
		slots := append([]layout.Slot(nil), p.Sliders...)
		if p.Big != nil {
			slots = append(slots, *p.Big)
		}
		slots = append(slots, p.Knobs...)
		for i, c := range b.Controls {
			c.ResetState(slots[i].Pos, client, slots[i].Size)
		}
	}
}
