package control

import (
	"time"

	"github.com/frudas24/touchsliders/internal/manip"
)

const (
	minMoveInterval = 16 * time.Millisecond
	minMoveDelta    = 2
)

type throttleState struct {
	at   time.Time
	x, y float32
}

// Throttle thins out moves per contact by time and distance.
type Throttle struct {
	last map[manip.ContactID]throttleState
	now  func() time.Time
}

// NewThrottle returns a ready-to-use throttle.
func NewThrottle() *Throttle {
	return &Throttle{last: make(map[manip.ContactID]throttleState), now: time.Now}
}

// SetNowFunc overrides the clock used for throttling.
func (g *Throttle) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		g.now = fn
	}
}

// Down starts tracking a contact.
func (g *Throttle) Down(id manip.ContactID, x, y float32) {
	g.last[id] = throttleState{at: g.now(), x: x, y: y}
}

// Allow reports whether a move is far and late enough to deliver, and
// records it when it is.
func (g *Throttle) Allow(id manip.ContactID, x, y float32) bool {
	st, ok := g.last[id]
	if !ok {
		return false
	}
	now := g.now()
	if now.Sub(st.at) < minMoveInterval {
		return false
	}
	if abs(x-st.x) < minMoveDelta && abs(y-st.y) < minMoveDelta {
		return false
	}
	g.last[id] = throttleState{at: now, x: x, y: y}
	return true
}

// Up stops tracking a contact.
func (g *Throttle) Up(id manip.ContactID) {
	delete(g.last, id)
}

// abs returns the absolute value of a float.
func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
