package manip

import (
	"fmt"
	"math"

	"github.com/frudas24/touchsliders/internal/geom"
)

// DefaultVelocityWindow is the sample history used to estimate release velocity, in ms.
const DefaultVelocityWindow = 100

// EventKind tags what a processor call produced.
type EventKind int

const (
	// EventNone means the call changed tracking state without output.
	EventNone EventKind = iota
	// EventStarted marks the first contact of a gesture.
	EventStarted
	// EventDelta carries a transform step.
	EventDelta
	// EventCompleted marks the last contact leaving.
	EventCompleted
)

// Event is the outcome of one processor call.
type Event struct {
	Kind      EventKind
	Pos       geom.Point
	Delta     DeltaParams
	Completed CompletedParams
}

type historySample struct {
	t     int64
	trans geom.Point
	rot   float32
}

// Processor tracks the contacts of one gesture and derives transform deltas.
// It is not safe for concurrent use.
type Processor struct {
	mask        Manipulations
	window      int64
	order       []ContactID
	pos         map[ContactID]geom.Point
	pivot       geom.Point
	pivotRadius float32
	mods        Modifiers

	active    bool
	sumT      geom.Point
	sumScale  float32
	sumExp    float32
	sumRot    float32
	history   []historySample
	velocity  geom.Point
	angular   float32
	lastPoint geom.Point
}

// NewProcessor returns a processor reporting the manipulations in mask.
func NewProcessor(mask Manipulations) *Processor {
	return &Processor{
		mask:     mask,
		window:   DefaultVelocityWindow,
		pos:      make(map[ContactID]geom.Point),
		sumScale: 1,
	}
}

// SetVelocityWindow overrides the history length, in ms, used for velocity.
func (p *Processor) SetVelocityWindow(ms int64) {
	if ms > 0 {
		p.window = ms
	}
}

// SetPivot updates the rotation anchor used for single contact rotation.
func (p *Processor) SetPivot(pt geom.Point, radius float32) error {
	if !finite(pt.X) || !finite(pt.Y) || !finite(radius) || radius < 0 {
		return fmt.Errorf("%w: point %v radius %v", ErrInvalidPivot, pt, radius)
	}
	p.pivot = pt
	p.pivotRadius = radius
	return nil
}

// Active reports whether a gesture is in progress.
func (p *Processor) Active() bool {
	return p.active
}

// Contacts returns the number of tracked contacts.
func (p *Processor) Contacts() int {
	return len(p.order)
}

// Has reports whether id is tracked.
func (p *Processor) Has(id ContactID) bool {
	_, ok := p.pos[id]
	return ok
}

// Position returns the last known position of id.
func (p *Processor) Position(id ContactID) (geom.Point, bool) {
	pt, ok := p.pos[id]
	return pt, ok
}

// Velocity returns the release velocity estimated at the last up, in px/ms and rad/ms.
func (p *Processor) Velocity() (geom.Point, float32) {
	return p.velocity, p.angular
}

// LastPoint returns the centroid of the gesture when its last contact lifted.
func (p *Processor) LastPoint() geom.Point {
	return p.lastPoint
}

// ProcessDown starts tracking a contact.
func (p *Processor) ProcessDown(s Sample) (Event, error) {
	if _, ok := p.pos[s.ID]; ok {
		return Event{}, fmt.Errorf("%w: %d", ErrDuplicateContact, s.ID)
	}
	p.mods = s.Mods
	p.pos[s.ID] = s.Pos
	p.order = append(p.order, s.ID)
	if p.active {
		return Event{Kind: EventNone, Pos: p.centroid()}, nil
	}
	p.active = true
	p.sumT = geom.Point{}
	p.sumScale = 1
	p.sumExp = 0
	p.sumRot = 0
	p.velocity = geom.Point{}
	p.angular = 0
	p.history = p.history[:0]
	p.record(s.Time)
	return Event{Kind: EventStarted, Pos: s.Pos}, nil
}

// ProcessMove updates a tracked contact and returns the resulting delta.
func (p *Processor) ProcessMove(s Sample) (Event, error) {
	old, ok := p.pos[s.ID]
	if !ok {
		return Event{}, fmt.Errorf("%w: %d", ErrUnknownContact, s.ID)
	}
	p.mods = s.Mods
	c0 := p.centroid()
	v0, pair := p.pairVector()
	p.pos[s.ID] = s.Pos
	c1 := p.centroid()
	v1, _ := p.pairVector()

	d := DeltaParams{Pos: c1, DScale: 1, Mods: s.Mods}
	dt := c1.Sub(c0)
	if p.mask&TranslateX != 0 {
		d.DTranslation.X = dt.X
	}
	if p.mask&TranslateY != 0 {
		d.DTranslation.Y = dt.Y
	}
	if pair {
		l0, l1 := geom.Mag(v0), geom.Mag(v1)
		if p.mask&Rotate != 0 && l0 > 0 && l1 > 0 {
			d.DRotation = geom.NormalizeAngle(geom.Angle(v1) - geom.Angle(v0))
		}
		if p.mask&Scale != 0 && l0 > 0 {
			d.DScale = l1 / l0
			d.DExpansion = l1 - l0
		}
	} else if p.mask&Rotate != 0 && p.pivotRadius > 0 {
		d.DRotation = p.pivotRotation(old, s.Pos)
	}

	p.sumT = p.sumT.Add(d.DTranslation)
	p.sumScale *= d.DScale
	p.sumExp += d.DExpansion
	p.sumRot += d.DRotation
	p.record(s.Time)

	d.SumTranslation = p.sumT
	d.SumScale = p.sumScale
	d.SumExpansion = p.sumExp
	d.SumRotation = p.sumRot
	return Event{Kind: EventDelta, Pos: c1, Delta: d}, nil
}

// ProcessUp stops tracking a contact. The sample position is not applied;
// callers move the contact first when the final position matters.
func (p *Processor) ProcessUp(s Sample) (Event, error) {
	if _, ok := p.pos[s.ID]; !ok {
		return Event{}, fmt.Errorf("%w: %d", ErrUnknownContact, s.ID)
	}
	p.mods = s.Mods
	c := p.centroid()
	p.remove(s.ID)
	if len(p.order) > 0 {
		return Event{Kind: EventNone, Pos: p.centroid()}, nil
	}
	p.record(s.Time)
	p.velocity, p.angular = p.estimate(s.Time)
	return p.finish(c), nil
}

// Complete ends the gesture as if every contact had lifted, with zero velocity.
func (p *Processor) Complete() Event {
	if !p.active {
		return Event{Kind: EventNone}
	}
	c := p.centroid()
	for _, id := range append([]ContactID(nil), p.order...) {
		p.remove(id)
	}
	p.velocity = geom.Point{}
	p.angular = 0
	return p.finish(c)
}

func (p *Processor) finish(c geom.Point) Event {
	p.active = false
	p.lastPoint = c
	return Event{
		Kind: EventCompleted,
		Pos:  c,
		Completed: CompletedParams{
			Pos:            c,
			SumTranslation: p.sumT,
			SumScale:       p.sumScale,
			SumExpansion:   p.sumExp,
			SumRotation:    p.sumRot,
			Mods:           p.mods,
		},
	}
}

func (p *Processor) remove(id ContactID) {
	delete(p.pos, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Processor) centroid() geom.Point {
	if len(p.order) == 0 {
		return p.lastPoint
	}
	var sum geom.Point
	for _, id := range p.order {
		sum = sum.Add(p.pos[id])
	}
	return sum.Mul(1 / float32(len(p.order)))
}

// pairVector returns the vector from the first to the second contact.
func (p *Processor) pairVector() (geom.Point, bool) {
	if len(p.order) < 2 {
		return geom.Point{}, false
	}
	return p.pos[p.order[1]].Sub(p.pos[p.order[0]]), true
}

// pivotRotation is the tangential part of a single contact move around the
// pivot, divided by the lever arm. Arms shorter than the pivot radius use the
// radius so that motion near the pivot stays damped.
func (p *Processor) pivotRotation(from, to geom.Point) float32 {
	rel := from.Sub(p.pivot)
	r := geom.Mag(rel)
	if r == 0 {
		return 0
	}
	tangential := geom.Cross(rel.Mul(1/r), to.Sub(from))
	arm := r
	if p.pivotRadius > arm {
		arm = p.pivotRadius
	}
	return tangential / arm
}

func (p *Processor) record(t int64) {
	p.history = append(p.history, historySample{t: t, trans: p.sumT, rot: p.sumRot})
	cut := 0
	for cut < len(p.history)-1 && p.history[cut].t < t-p.window {
		cut++
	}
	if cut > 0 {
		p.history = append(p.history[:0], p.history[cut:]...)
	}
}

// estimate fits a least-squares line through the windowed history.
func (p *Processor) estimate(now int64) (geom.Point, float32) {
	var n, st, stt, sx, sy, sr, stx, sty, str float64
	for _, h := range p.history {
		if h.t < now-p.window {
			continue
		}
		t := float64(h.t - now)
		x, y, r := float64(h.trans.X), float64(h.trans.Y), float64(h.rot)
		n++
		st += t
		stt += t * t
		sx += x
		sy += y
		sr += r
		stx += t * x
		sty += t * y
		str += t * r
	}
	den := n*stt - st*st
	if n < 2 || den == 0 {
		return geom.Point{}, 0
	}
	vx := (n*stx - st*sx) / den
	vy := (n*sty - st*sy) / den
	vr := (n*str - st*sr) / den
	return geom.Pt(float32(vx), float32(vy)), float32(vr)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
