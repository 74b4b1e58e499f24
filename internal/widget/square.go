package widget

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/object"
	"github.com/frudas24/touchsliders/internal/render"
)

// Color picks a square's gradient.
type Color int

const (
	// Blue is the aqua to dark blue gradient.
	Blue Color = iota
	// Orange is the yellow to orange-red gradient.
	Orange
	// Red is the red to maroon gradient.
	Red
	// Green is the green-yellow to green gradient.
	Green
)

// ParseColor resolves a layout colour name.
func ParseColor(s string) (Color, error) {
	switch s {
	case "blue":
		return Blue, nil
	case "orange":
		return Orange, nil
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	default:
		return 0, fmt.Errorf("unknown colour %q", s)
	}
}

func (c Color) gradient() render.LinearGradient {
	switch ((c % 4) + 4) % 4 {
	case Orange:
		return render.GradOrange
	case Red:
		return render.GradRed
	case Green:
		return render.GradGreen
	default:
		return render.GradBlue
	}
}

// Square is a free item that moves, turns and scales with inertia.
type Square struct {
	object.Base

	color Color
	eng   *manip.Engine
	log   *logrus.Entry
}

// NewSquare builds a square of the given colour.
func NewSquare(env Env, color Color) (*Square, error) {
	sq := &Square{color: color}
	sq.log = env.logger("square")
	eng, err := env.engine(sq, manip.All, sq.log)
	if err != nil {
		return nil, fmt.Errorf("square: %w", err)
	}
	sq.eng = eng
	return sq, nil
}

// Color returns the square's gradient choice.
func (sq *Square) Color() Color { return sq.color }

// HandleSample feeds a sample to the engine.
func (sq *Square) HandleSample(s manip.Sample) error {
	return sq.eng.Process(s)
}

// ManipulationStarted drops any position banked by a previous bounce.
func (sq *Square) ManipulationStarted(geom.Point) {
	sq.RestoreRealPosition()
}

// ManipulationDelta applies the step transform.
func (sq *Square) ManipulationDelta(p manip.DeltaParams) {
	sq.SetManipulationOrigin(p.Pos)
	sq.Rotate(geom.RadToDeg(p.DRotation))
	sq.Scale(p.DScale)
	sq.Translate(p.DTranslation, p.Inertia)
}

// ManipulationCompleted is a no-op.
func (sq *Square) ManipulationCompleted(manip.CompletedParams) {}

// InRegion reports whether p hits the painted square.
func (sq *Square) InRegion(p geom.Point) bool {
	return sq.InBounds(p)
}

// InertiaActive reports whether the square is coasting.
func (sq *Square) InertiaActive() bool { return sq.eng.InertiaActive() }

// StepInertia advances the coasting replay.
func (sq *Square) StepInertia() bool { return sq.eng.StepInertia() }

// State returns the gesture phase.
func (sq *Square) State() manip.State { return sq.eng.State() }

// Close force-completes the gesture and inertia.
func (sq *Square) Close() { sq.eng.Close() }
