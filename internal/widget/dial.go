package widget

import (
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/object"
)

const (
	dialInnerRadius = 150
	dialAngleRange  = 320
	// dialMinHandle is the closest the handle is considered to the center.
	dialMinHandle = 120
	dialGrowAt    = 0.9
	dialShrinkAt  = 0.5
)

// Role is what a contact does on the dial.
type Role int

const (
	// RolePivot drags the dial around.
	RolePivot Role = iota
	// RoleHandle turns and resizes the dial.
	RoleHandle
	// RoleIgnored is any further contact.
	RoleIgnored
)

type dialContact struct {
	id   manip.ContactID
	role Role
}

// DialOverlay is the rotary overlay leashed to a control. The first contact
// anchors it and the second turns it.
type DialOverlay struct {
	object.Base

	parent   *Control
	eng      *manip.Engine
	contacts []dialContact
	shown    bool
	log      *logrus.Entry
}

func newDialOverlay(env Env, parent *Control, center, client geom.Point) (*DialOverlay, error) {
	d := &DialOverlay{parent: parent, shown: true}
	d.log = parent.log.WithField("overlay", "dial")
	eng, err := env.engine(d, manip.Rotate, d.log)
	if err != nil {
		return nil, err
	}
	d.eng = eng
	size := geom.Splat(2*dialInnerRadius + 100)
	d.ResetState(center.Sub(size.Mul(0.5)), client, size)
	return d, nil
}

// Shown reports whether the dial is visible.
func (d *DialOverlay) Shown() bool { return d.shown }

// Role returns the role of a contact.
func (d *DialOverlay) Role(id manip.ContactID) (Role, bool) {
	if i := d.index(id); i >= 0 {
		return d.contacts[i].role, true
	}
	return 0, false
}

// OuterRadius returns the radius of the dial background.
func (d *DialOverlay) OuterRadius() float32 {
	return d.Size().X / 2
}

// HandleSample assigns roles and forwards the handle to the rotate engine.
func (d *DialOverlay) HandleSample(s manip.Sample) error {
	switch s.Kind {
	case manip.Down:
		return d.down(s)
	case manip.Move:
		return d.move(s)
	case manip.Up:
		return d.up(s)
	}
	return nil
}

func (d *DialOverlay) down(s manip.Sample) error {
	if d.index(s.ID) >= 0 {
		return nil
	}
	switch len(d.contacts) {
	case 0:
		d.contacts = append(d.contacts, dialContact{id: s.ID, role: RolePivot})
	case 1:
		if d.contacts[0].role != RolePivot {
			d.contacts = append(d.contacts, dialContact{id: s.ID, role: RolePivot})
			return nil
		}
		d.contacts = append(d.contacts, dialContact{id: s.ID, role: RoleHandle})
		return d.eng.Process(s)
	default:
		d.contacts = append(d.contacts, dialContact{id: s.ID, role: RoleIgnored})
	}
	return nil
}

func (d *DialOverlay) move(s manip.Sample) error {
	i := d.index(s.ID)
	if i < 0 {
		return nil
	}
	switch d.contacts[i].role {
	case RolePivot:
		d.SetPos(s.Pos.Sub(d.Size().Mul(0.5)))
	case RoleHandle:
		d.resize(s.Pos)
		return d.eng.Process(s)
	}
	return nil
}

func (d *DialOverlay) up(s manip.Sample) error {
	i := d.index(s.ID)
	if i < 0 {
		return nil
	}
	role := d.contacts[i].role
	d.contacts = slices.Delete(d.contacts, i, i+1)

	var err error
	switch {
	case role == RolePivot && len(d.contacts) > 0:
		d.contacts[0].role = RolePivot
		d.eng.Complete()
	case role == RoleHandle:
		err = d.eng.Process(s)
	}
	if len(d.contacts) == 0 {
		d.shown = false
		d.parent.hideDial()
	}
	return err
}

// resize keeps the handle between half and nine tenths of the outer radius.
func (d *DialOverlay) resize(handle geom.Point) {
	center := d.Center()
	dist := max(dialMinHandle, geom.Mag(center.Sub(handle)))
	size := d.Size()
	if dist > dialGrowAt*size.X/2 {
		size = geom.Splat(2 * dist / dialGrowAt)
	}
	if dist < dialShrinkAt*size.X/2 {
		size = geom.Splat(2 * dist / dialShrinkAt)
	}
	d.SetSize(size)
	d.SetPos(center.Sub(size.Mul(0.5)))
}

func (d *DialOverlay) index(id manip.ContactID) int {
	return slices.IndexFunc(d.contacts, func(c dialContact) bool { return c.id == id })
}

// ManipulationStarted is a no-op; the dial is already placed.
func (d *DialOverlay) ManipulationStarted(geom.Point) {}

// ManipulationDelta turns the dial and the parent value with it.
func (d *DialOverlay) ManipulationDelta(p manip.DeltaParams) {
	d.SetManipulationOrigin(d.Pos())
	d.Rotate(geom.RadToDeg(p.DRotation))
	d.parent.addRaw(p.DRotation / (2 * math.Pi))
}

// ManipulationCompleted hides the dial once nothing touches it.
func (d *DialOverlay) ManipulationCompleted(manip.CompletedParams) {
	if len(d.contacts) == 0 {
		d.shown = false
	}
}

// PivotRadius is the dial's full width, so the handle turns it around the center.
func (d *DialOverlay) PivotRadius() float32 {
	return d.Size().X
}

// AllowInertia is always false.
func (d *DialOverlay) AllowInertia() bool { return false }

// InRegion reports whether p is on the visible dial.
func (d *DialOverlay) InRegion(p geom.Point) bool {
	return d.shown && object.HitCircle(p, d.Center(), d.OuterRadius())
}

// Close completes any rotation and hides the dial.
func (d *DialOverlay) Close() {
	d.eng.Close()
	d.contacts = nil
	d.shown = false
}
