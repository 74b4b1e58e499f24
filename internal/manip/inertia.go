package manip

import (
	"math"
	"time"

	"github.com/frudas24/touchsliders/internal/geom"
)

// InertiaStep is one advance of the decaying velocity model.
type InertiaStep struct {
	Pos            geom.Point
	DTranslation   geom.Point
	DRotation      float32
	SumTranslation geom.Point
	SumRotation    float32
}

// decay integrates one speed decelerating linearly to rest.
type decay struct {
	speed float32
	dec   float32
}

// stopAt returns the time in ms at which the motion stops.
func (d decay) stopAt() float64 {
	if d.speed <= 0 || d.dec <= 0 {
		return 0
	}
	return float64(d.speed) / float64(d.dec)
}

// dist returns the distance covered after tau ms. It never decreases.
func (d decay) dist(tau float64) float64 {
	stop := d.stopAt()
	if tau > stop {
		tau = stop
	}
	if tau <= 0 {
		return 0
	}
	return float64(d.speed)*tau - float64(d.dec)*tau*tau/2
}

// Inertia replays a release velocity with constant deceleration. Linear and
// angular motion decay independently and stop at rest without reversing.
type Inertia struct {
	origin   geom.Point
	dir      geom.Point
	linear   decay
	angSign  float32
	angular  decay
	start    time.Time
	lastDist float64
	lastAng  float64
	sumT     geom.Point
	sumR     float32
	done     bool
}

// NewInertia seeds an integrator at origin with velocity in px/ms and
// angular velocity in rad/ms.
func NewInertia(origin, velocity geom.Point, angular float32, cfg Config) *Inertia {
	in := &Inertia{origin: origin}
	if s := geom.Mag(velocity); s > 0 {
		in.dir = velocity.Mul(1 / s)
		in.linear = decay{speed: s, dec: cfg.Deceleration}
	}
	if angular != 0 {
		in.angSign = 1
		if angular < 0 {
			in.angSign = -1
		}
		in.angular = decay{speed: float32(math.Abs(float64(angular))), dec: cfg.AngularDeceleration}
	}
	return in
}

// Start sets the time origin of the replay.
func (in *Inertia) Start(now time.Time) {
	in.start = now
}

// Done reports whether the model reached rest.
func (in *Inertia) Done() bool {
	return in.done
}

// Process advances the model to now and reports whether it has come to rest.
func (in *Inertia) Process(now time.Time) (InertiaStep, bool) {
	if in.done {
		return in.step(0, 0), true
	}
	tau := float64(now.Sub(in.start)) / float64(time.Millisecond)
	step := in.advance(tau)
	if tau >= in.linear.stopAt() && tau >= in.angular.stopAt() {
		in.done = true
	}
	return step, in.done
}

// Finish jumps to the rest state and returns the remaining step.
func (in *Inertia) Finish() InertiaStep {
	if in.done {
		return in.step(0, 0)
	}
	tau := math.Max(in.linear.stopAt(), in.angular.stopAt())
	step := in.advance(tau)
	in.done = true
	return step
}

func (in *Inertia) advance(tau float64) InertiaStep {
	d := in.linear.dist(tau)
	a := in.angular.dist(tau)
	stepD := float32(d - in.lastDist)
	stepA := float32(a-in.lastAng) * in.angSign
	in.lastDist, in.lastAng = d, a
	return in.step(stepD, stepA)
}

func (in *Inertia) step(dist, rot float32) InertiaStep {
	dt := in.dir.Mul(dist)
	in.sumT = in.sumT.Add(dt)
	in.sumR += rot
	return InertiaStep{
		Pos:            in.origin.Add(in.sumT),
		DTranslation:   dt,
		DRotation:      rot,
		SumTranslation: in.sumT,
		SumRotation:    in.sumR,
	}
}
