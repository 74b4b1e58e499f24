package control

import (
	"time"

	"golang.org/x/exp/slices"

	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
)

// Translator holds the per-connection input state: live contacts, the
// modifier keys and the move throttle. It is not safe for concurrent use.
type Translator struct {
	throttle *Throttle
	mods     manip.Modifiers
	active   map[manip.ContactID]scene.Event
	now      func() time.Time
}

// NewTranslator returns a translator with no live contacts.
func NewTranslator() *Translator {
	return &Translator{
		throttle: NewThrottle(),
		active:   make(map[manip.ContactID]scene.Event),
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock for timestamps and throttling.
func (t *Translator) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		t.now = fn
		t.throttle.SetNowFunc(fn)
	}
}

// Mods returns the modifier state of the connection.
func (t *Translator) Mods() manip.Modifiers { return t.mods }

// SetShift updates the Shift key state.
func (t *Translator) SetShift(down bool) {
	if down {
		t.mods |= manip.ModShift
	} else {
		t.mods &^= manip.ModShift
	}
}

// Active returns the number of live contacts.
func (t *Translator) Active() int { return len(t.active) }

// Pointer converts a down/move/up message into at most one event. New
// contacts are refused while input is disabled.
func (t *Translator) Pointer(msg Message, surface session.Surface, inputEnabled bool) []scene.Event {
	var kind manip.Kind
	switch msg.T {
	case "down":
		kind = manip.Down
	case "move":
		kind = manip.Move
	case "up":
		kind = manip.Up
	default:
		return nil
	}
	if msg.Shift != nil {
		t.SetShift(*msg.Shift)
	}
	id := ContactFor(msg.Pointer, msg.ID)
	x, y := NormToPhysical(msg.X, msg.Y, surface)
	ts := msg.TS
	if ts <= 0 {
		ts = t.now().UnixMilli()
	}
	ev := scene.Event{ID: id, Kind: kind, X: x, Y: y, Time: ts, Mods: t.mods}

	_, live := t.active[id]
	switch kind {
	case manip.Down:
		if !inputEnabled || live {
			return nil
		}
		t.throttle.Down(id, x, y)
	case manip.Move:
		if !live || !t.throttle.Allow(id, x, y) {
			return nil
		}
	case manip.Up:
		if !live {
			return nil
		}
		delete(t.active, id)
		t.throttle.Up(id)
		return []scene.Event{ev}
	}
	t.active[id] = ev
	return []scene.Event{ev}
}

// Blur clears the modifiers and lifts every live contact.
func (t *Translator) Blur() []scene.Event {
	t.mods = 0
	return t.ReleaseAll()
}

// ReleaseAll lifts every live contact at its last delivered position.
func (t *Translator) ReleaseAll() []scene.Event {
	if len(t.active) == 0 {
		return nil
	}
	ids := make([]manip.ContactID, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ts := t.now().UnixMilli()
	out := make([]scene.Event, 0, len(ids))
	for _, id := range ids {
		ev := t.active[id]
		ev.Kind = manip.Up
		if ts > ev.Time {
			ev.Time = ts
		}
		ev.Mods = t.mods
		out = append(out, ev)
		delete(t.active, id)
		t.throttle.Up(id)
	}
	return out
}
