// Package scene owns the z-ordered objects of the surface, routes contacts
// to them and paints them.
package scene

import (
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/render"
)

// MouseID is the contact reserved for the mouse pointer.
const MouseID manip.ContactID = 0

// Object is one interactive item of the scene.
type Object interface {
	HandleSample(s manip.Sample) error
	InRegion(p geom.Point) bool
	Paint(c render.Canvas)
	InertiaActive() bool
	StepInertia() bool
	Close()
}

// Event is a contact sample in physical pixels.
type Event struct {
	ID   manip.ContactID
	Kind manip.Kind
	X, Y float32
	Time int64
	Mods manip.Modifiers
}

// Placer lays the objects out for a client area in logical units.
type Placer func(client geom.Point)

// Scene routes input to objects and paints them back to front. It is not
// safe for concurrent use; run it on a Loop.
type Scene struct {
	objects []Object
	routes  map[manip.ContactID]Object
	pressed map[manip.ContactID]struct{}

	r     render.Renderer
	place Placer
	size  image.Point
	ppl   float32
	dirty bool
	log   *logrus.Entry
}

// New returns a scene over objects given front to back.
func New(r render.Renderer, objects []Object, place Placer, log *logrus.Entry) *Scene {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "scene")
	}
	return &Scene{
		objects: slices.Clone(objects),
		routes:  make(map[manip.ContactID]Object),
		pressed: make(map[manip.ContactID]struct{}),
		r:       r,
		place:   place,
		ppl:     1,
		dirty:   true,
		log:     log,
	}
}

// Objects returns the z-order, front first.
func (s *Scene) Objects() []Object {
	return slices.Clone(s.objects)
}

// Route returns the object owning a contact.
func (s *Scene) Route(id manip.ContactID) (Object, bool) {
	o, ok := s.routes[id]
	return o, ok
}

// Dirty reports whether a repaint is pending.
func (s *Scene) Dirty() bool { return s.dirty }

// Invalidate requests a repaint.
func (s *Scene) Invalidate() { s.dirty = true }

// Client returns the client area in logical units.
func (s *Scene) Client() geom.Point {
	return geom.Pt(float32(s.size.X)/s.ppl, float32(s.size.Y)/s.ppl)
}

// Logical converts a physical pixel position to logical units.
func (s *Scene) Logical(x, y float32) geom.Point {
	return geom.Pt(x/s.ppl, y/s.ppl)
}

// ProcessInputEvent dispatches one sample and reports whether an object took it.
func (s *Scene) ProcessInputEvent(ev Event) bool {
	if !s.admit(ev) {
		return false
	}
	sample := manip.Sample{ID: ev.ID, Kind: ev.Kind, Pos: s.Logical(ev.X, ev.Y), Time: ev.Time, Mods: ev.Mods}
	switch ev.Kind {
	case manip.Down:
		return s.down(sample)
	case manip.Move, manip.Up:
		o, ok := s.routes[ev.ID]
		if ev.Kind == manip.Up {
			delete(s.routes, ev.ID)
		}
		if !ok {
			return false
		}
		if err := o.HandleSample(sample); err != nil {
			s.log.WithError(err).WithField("contact", ev.ID).Debug("step skipped")
		}
		s.dirty = true
		return true
	}
	return false
}

// admit applies mouse/touch exclusivity and tracks pressed contacts.
func (s *Scene) admit(ev Event) bool {
	_, mouseDown := s.pressed[MouseID]
	touches := len(s.pressed)
	if mouseDown {
		touches--
	}
	switch ev.Kind {
	case manip.Down:
		if ev.ID == MouseID && touches > 0 {
			return false
		}
		if ev.ID != MouseID && mouseDown {
			return false
		}
		s.pressed[ev.ID] = struct{}{}
		return true
	case manip.Up:
		if _, ok := s.pressed[ev.ID]; !ok {
			return false
		}
		delete(s.pressed, ev.ID)
		return true
	default:
		_, ok := s.pressed[ev.ID]
		return ok
	}
}

func (s *Scene) down(sample manip.Sample) bool {
	for _, o := range slices.Clone(s.objects) {
		if !o.InRegion(sample.Pos) {
			continue
		}
		if err := o.HandleSample(sample); err != nil {
			s.log.WithError(err).WithField("contact", sample.ID).Debug("down refused")
			continue
		}
		s.routes[sample.ID] = o
		s.promote(o)
		s.dirty = true
		return true
	}
	return false
}

func (s *Scene) promote(o Object) {
	i := slices.Index(s.objects, o)
	if i <= 0 {
		return
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	s.objects = slices.Insert(s.objects, 0, o)
}

// RunInertiaTick steps every coasting object and repaints.
func (s *Scene) RunInertiaTick() {
	for _, o := range slices.Clone(s.objects) {
		if o.InertiaActive() {
			o.StepInertia()
		}
	}
	s.dirty = true
	if err := s.Render(); err != nil {
		s.log.WithError(err).Debug("render after inertia tick failed")
	}
}

// RenderIfDirty paints only when something changed.
func (s *Scene) RenderIfDirty() error {
	if !s.dirty {
		return nil
	}
	return s.Render()
}

// Render paints the background and every object back to front. A lost device
// is discarded and the scene stays dirty so the next frame rebuilds it.
func (s *Scene) Render() error {
	if s.size.X <= 0 || s.size.Y <= 0 {
		return nil
	}
	if err := s.r.BeginFrame(s.size, s.ppl); err != nil {
		return err
	}
	client := s.Client()
	s.r.FillRect(render.RectAt(geom.Point{}, client), render.GradBackground.Between(geom.Point{}, geom.Pt(0, client.Y)))
	for i := len(s.objects) - 1; i >= 0; i-- {
		s.objects[i].Paint(s.r)
	}
	recreate, err := s.r.EndFrame()
	if recreate {
		s.log.Debug("device lost, discarding")
		s.r.DiscardDeviceResources()
		s.dirty = true
		return err
	}
	s.dirty = false
	return err
}

// Resize ends every gesture and lays the scene out for a new surface.
func (s *Scene) Resize(width, height int, pointsPerLogical float32) {
	s.closeObjects()
	if pointsPerLogical <= 0 {
		pointsPerLogical = 1
	}
	s.size = image.Pt(width, height)
	s.ppl = pointsPerLogical
	if s.place != nil {
		s.place(s.Client())
	}
	s.dirty = true
	s.log.WithFields(logrus.Fields{"w": width, "h": height, "ppl": pointsPerLogical}).Debug("resized")
}

// Close force-completes every object.
func (s *Scene) Close() {
	s.closeObjects()
}

func (s *Scene) closeObjects() {
	for _, o := range slices.Clone(s.objects) {
		o.Close()
	}
	clear(s.routes)
	clear(s.pressed)
}
