package widget

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/object"
)

// Kind selects the control's shape.
type Kind int

const (
	// Slider is a vertical fader.
	Slider Kind = iota
	// Knob is a rotary control.
	Knob
)

// String returns the layout name of the kind.
func (k Kind) String() string {
	if k == Knob {
		return "knob"
	}
	return "slider"
}

// Mode selects how gestures change the value.
type Mode int

const (
	// Absolute jumps to the touched position on press and release.
	Absolute Mode = iota
	// Relative follows vertical drag, damped by lateral distance.
	Relative
	// Dial spawns the dial overlay on press.
	Dial
)

// String returns the layout name of the mode.
func (m Mode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	case Dial:
		return "dial"
	default:
		return "unknown"
	}
}

// ParseMode resolves a layout mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	case "dial":
		return Dial, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

const (
	rawMin = -0.1
	rawMax = 1.1
	// majorMove is the distance after which a press counts as a drag.
	majorMove = 2
)

// Control is a slider or knob driving one controller number.
type Control struct {
	object.Base

	kind       Kind
	mode       Mode
	controller int
	out        Output
	env        Env
	eng        *manip.Engine
	log        *logrus.Entry

	value    float32
	raw      float32
	lastSent int

	contacts     []manip.ContactID
	mods         manip.Modifiers
	firstTouch   geom.Point
	current      geom.Point
	dragScale    float32
	didMajorMove bool
	// usedDial is set once the dial appeared during the current gesture
	usedDial bool

	dial *DialOverlay
}

// NewControl builds a control. It fails when the gesture engine cannot be
// created.
func NewControl(env Env, kind Kind, mode Mode, controller int, out Output) (*Control, error) {
	c := &Control{
		kind:       kind,
		mode:       mode,
		controller: controller,
		out:        out,
		env:        env,
		lastSent:   -1,
		dragScale:  1,
	}
	c.log = env.logger(kind.String()).WithField("controller", controller)
	eng, err := env.engine(c, manip.Translate|manip.Rotate, c.log)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", kind, controller, err)
	}
	c.eng = eng
	return c, nil
}

// Kind returns the control's shape.
func (c *Control) Kind() Kind { return c.kind }

// Mode returns the interaction mode.
func (c *Control) Mode() Mode { return c.mode }

// Controller returns the controller number.
func (c *Control) Controller() int { return c.controller }

// Value returns the clamped value in [0, 1].
func (c *Control) Value() float32 { return c.value }

// Raw returns the unclamped shadow value.
func (c *Control) Raw() float32 { return c.raw }

// Dial returns the overlay while it is shown.
func (c *Control) Dial() *DialOverlay { return c.dial }

// SetValue sets the value directly and reports it.
func (c *Control) SetValue(v float32) {
	c.raw = geom.Clamp(v, rawMin, rawMax)
	c.value = geom.Clamp(c.raw, 0, 1)
	c.handleValueChange()
}

// Track returns the bottom of the value track and its height.
func (c *Control) Track() (bottom, height float32) {
	rp, s := c.RenderPos(), c.Size()
	if c.kind == Knob {
		return rp.Y + s.Y/2, 3 * s.Y
	}
	return rp.Y + s.Y, s.Y - s.Y*0.1
}

// HandleSample feeds one contact sample to the control and its dial.
func (c *Control) HandleSample(s manip.Sample) error {
	c.mods = s.Mods
	switch s.Kind {
	case manip.Down:
		var err error
		spawned, wasUsed := false, c.usedDial
		if len(c.contacts) == 1 && c.dial == nil && !s.Mods.Shift() {
			c.showDial(s.Pos)
			spawned = c.dial != nil
			if c.dial != nil {
				first := manip.Sample{ID: c.contacts[0], Kind: manip.Down, Pos: c.firstTouch, Time: s.Time, Mods: s.Mods}
				err = c.dial.HandleSample(first)
			}
		}
		if perr := c.eng.Process(s); perr != nil {
			if spawned {
				c.hideDial()
				c.usedDial = wasUsed
			}
			return errors.Join(err, perr)
		}
		c.contacts = append(c.contacts, s.ID)
		if c.dial != nil {
			err = errors.Join(err, c.dial.HandleSample(s))
		}
		return err

	case manip.Move:
		if len(c.contacts) > 0 && !c.didMajorMove && geom.Mag(s.Pos.Sub(c.firstTouch)) > majorMove {
			c.didMajorMove = true
		}
		if c.dial != nil {
			return c.dial.HandleSample(s)
		}
		return c.eng.Process(s)

	case manip.Up:
		if !c.usedDial && c.mode == Absolute && !s.Mods.Shift() && !c.eng.InertiaActive() {
			c.setAbsolute(s.Pos.Y)
		}
		if i := slices.Index(c.contacts, s.ID); i >= 0 {
			c.contacts = slices.Delete(c.contacts, i, i+1)
		}
		var err error
		if c.dial != nil {
			err = c.dial.HandleSample(s)
		}
		err = errors.Join(err, c.eng.Process(s))
		if len(c.contacts) == 0 {
			c.hideDial()
		}
		return err
	}
	return fmt.Errorf("%w: unknown sample kind %d", manip.ErrStep, s.Kind)
}

// ManipulationStarted resets the per-gesture state.
func (c *Control) ManipulationStarted(pos geom.Point) {
	c.RestoreRealPosition()
	c.raw = c.value
	c.didMajorMove = false
	c.firstTouch = pos
	c.current = geom.Point{}
	c.dragScale = 1
	c.usedDial = c.dial != nil

	if c.mods.Shift() {
		return
	}
	switch c.mode {
	case Dial:
		c.didMajorMove = true
		c.showDial(pos)
	case Absolute:
		c.setAbsolute(pos.Y)
	}
}

// ManipulationDelta changes the value, or moves the control while Shift is held.
func (c *Control) ManipulationDelta(p manip.DeltaParams) {
	if p.Mods.Shift() {
		c.SetManipulationOrigin(p.Pos)
		c.Rotate(geom.RadToDeg(p.DRotation))
		c.Scale(p.DScale)
		c.Translate(p.DTranslation, p.Inertia)
		return
	}
	if c.usedDial || c.mode != Relative {
		return
	}
	if !p.Inertia {
		c.current = p.Pos
	}
	c.relative(p.SumTranslation.X, p.DTranslation.Y)
}

// ManipulationCompleted ends the ghost scale.
func (c *Control) ManipulationCompleted(manip.CompletedParams) {
	c.current = geom.Point{}
}

// AllowInertia lets relative drags and free transforms coast.
func (c *Control) AllowInertia() bool {
	return c.mods.Shift() || (c.mode == Relative && !c.usedDial)
}

// AllowAngularInertia keeps rotation out of the release unless the control
// is being moved as an object.
func (c *Control) AllowAngularInertia() bool {
	return c.mods.Shift()
}

// InRegion reports whether p hits the control or its dial.
func (c *Control) InRegion(p geom.Point) bool {
	return c.InBounds(p) || (c.dial != nil && c.dial.InRegion(p))
}

// InertiaActive reports whether the control is coasting.
func (c *Control) InertiaActive() bool {
	return c.eng.InertiaActive()
}

// StepInertia advances the coasting replay.
func (c *Control) StepInertia() bool {
	return c.eng.StepInertia()
}

// Close force-completes the gesture and drops the dial.
func (c *Control) Close() {
	c.hideDial()
	c.eng.Close()
	c.contacts = c.contacts[:0]
}

func (c *Control) setAbsolute(y float32) {
	bottom, height := c.Track()
	if height <= 0 {
		return
	}
	c.value = geom.Clamp((bottom-y)/height, 0, 1)
	c.raw = c.value
	c.handleValueChange()
}

func (c *Control) relative(lateral, dy float32) {
	_, height := c.Track()
	c.dragScale = 1 + float32(math.Abs(float64(lateral)))/(2*c.Size().X)
	if height <= 0 || dy == 0 {
		return
	}
	c.addRaw(-dy / (height * c.dragScale))
}

// addRaw moves the shadow value and derives the visible one from it.
func (c *Control) addRaw(d float32) {
	c.raw = geom.Clamp(c.raw+d, rawMin, rawMax)
	c.value = geom.Clamp(c.raw, 0, 1)
	c.handleValueChange()
}

func (c *Control) handleValueChange() {
	q := Quantize(c.value)
	if int(q) == c.lastSent {
		return
	}
	c.lastSent = int(q)
	if c.out != nil {
		c.out.SendValueChanged(c.controller, q)
	}
}

func (c *Control) showDial(center geom.Point) {
	if c.dial != nil {
		c.log.Debug("dial already present")
		return
	}
	d, err := newDialOverlay(c.env, c, center, c.ClientArea())
	if err != nil {
		c.log.WithError(err).Warn("dial unavailable")
		return
	}
	c.dial = d
	c.usedDial = true
}

func (c *Control) hideDial() {
	if c.dial == nil {
		return
	}
	d := c.dial
	c.dial = nil
	d.Close()
}
