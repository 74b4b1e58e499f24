// Package manip turns timestamped contact samples into transform deltas and
// replays a decaying velocity model after release.
package manip

import (
	"errors"
	"time"

	"github.com/frudas24/touchsliders/internal/geom"
)

// ContactID identifies one touch contact or the mouse.
type ContactID uint32

// Kind is the phase of a contact sample.
type Kind int

const (
	// Down starts tracking a contact.
	Down Kind = iota
	// Move updates a tracked contact.
	Move
	// Up stops tracking a contact.
	Up
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Modifiers is the keyboard modifier state attached to a sample.
type Modifiers uint8

const (
	// ModShift is set while Shift is held.
	ModShift Modifiers = 1 << iota
)

// Shift reports whether Shift is held.
func (m Modifiers) Shift() bool {
	return m&ModShift != 0
}

// Sample is one input event for one contact, in logical coordinates.
type Sample struct {
	ID   ContactID
	Kind Kind
	Pos  geom.Point
	// Time is the source timestamp in milliseconds.
	Time int64
	Mods Modifiers
}

// Manipulations selects which transforms a processor reports.
type Manipulations uint8

const (
	// TranslateX enables horizontal translation.
	TranslateX Manipulations = 1 << iota
	// TranslateY enables vertical translation.
	TranslateY
	// Rotate enables rotation.
	Rotate
	// Scale enables scale and expansion.
	Scale

	// Translate enables both translation axes.
	Translate = TranslateX | TranslateY
	// All enables every manipulation.
	All = Translate | Rotate | Scale
)

// DeltaParams describes one manipulation or inertia step.
type DeltaParams struct {
	Pos            geom.Point
	DTranslation   geom.Point
	DScale         float32
	DExpansion     float32
	DRotation      float32
	SumTranslation geom.Point
	SumScale       float32
	SumExpansion   float32
	SumRotation    float32
	// Inertia is true when the step was synthesized by the inertia replay.
	Inertia bool
	Mods    Modifiers
}

// CompletedParams describes the end of a gesture (including its inertia).
type CompletedParams struct {
	Pos            geom.Point
	SumTranslation geom.Point
	SumScale       float32
	SumExpansion   float32
	SumRotation    float32
	Mods           Modifiers
}

// Callbacks receives manipulation events for one interactive object.
type Callbacks interface {
	ManipulationStarted(pos geom.Point)
	ManipulationDelta(p DeltaParams)
	ManipulationCompleted(p CompletedParams)
	PivotPoint() geom.Point
	PivotRadius() float32
}

// InertiaPolicy is implemented by callbacks that decide per gesture whether
// inertia may follow the release.
type InertiaPolicy interface {
	AllowInertia() bool
}

// AngularInertiaPolicy is implemented by callbacks that only use rotation in
// some gestures. When it reports false, angular velocity neither starts
// inertia nor is replayed.
type AngularInertiaPolicy interface {
	AllowAngularInertia() bool
}

// Timer is a cancellable periodic task.
type Timer interface {
	// Stop cancels the task. The callback never runs after Stop returns.
	Stop()
}

// Scheduler runs periodic tasks on the event loop.
type Scheduler interface {
	Every(period time.Duration, fn func()) Timer
}

var (
	// ErrUnknownContact reports a move or up for a contact that is not down.
	ErrUnknownContact = errors.New("unknown contact")
	// ErrDuplicateContact reports a down for a contact that is already down.
	ErrDuplicateContact = errors.New("contact already down")
	// ErrInvalidPivot reports a pivot radius that is negative or not a number.
	ErrInvalidPivot = errors.New("invalid pivot")
	// ErrStep wraps every per-step failure returned by Engine.Process.
	ErrStep = errors.New("manipulation step failed")
)
