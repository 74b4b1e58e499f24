package manip

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the gesture phase of an engine.
type State int

const (
	// Idle has no gesture and no inertia.
	Idle State = iota
	// Manipulating follows live contacts.
	Manipulating
	// Completing is entered on the last up while inertia is decided.
	Completing
	// Coasting replays the release velocity.
	Coasting
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Manipulating:
		return "manipulating"
	case Completing:
		return "completing"
	case Coasting:
		return "coasting"
	default:
		return "unknown"
	}
}

// Config holds the tunables of the inertia model.
type Config struct {
	// Deceleration is the linear deceleration in px/ms².
	Deceleration float32
	// AngularDeceleration is the angular deceleration in rad/ms².
	AngularDeceleration float32
	// TickPeriod is the inertia timer period.
	TickPeriod time.Duration
	// MinLinearVelocity is the release speed, in px/ms, below which no inertia starts.
	MinLinearVelocity float32
	// MinAngularVelocity is the release speed, in rad/ms, below which no inertia starts.
	MinAngularVelocity float32
	// VelocityWindow is the sample history used for the release velocity.
	VelocityWindow time.Duration
}

// DefaultConfig returns the stock inertia tunables.
func DefaultConfig() Config {
	return Config{
		Deceleration:        0.003,
		AngularDeceleration: 0.000015,
		TickPeriod:          10 * time.Millisecond,
		MinLinearVelocity:   0.01,
		MinAngularVelocity:  0.0001,
		VelocityWindow:      DefaultVelocityWindow * time.Millisecond,
	}
}

// Validate checks that the tunables describe a model that comes to rest.
func (c Config) Validate() error {
	if c.Deceleration <= 0 || !finite(c.Deceleration) {
		return fmt.Errorf("deceleration must be > 0, got %v", c.Deceleration)
	}
	if c.AngularDeceleration <= 0 || !finite(c.AngularDeceleration) {
		return fmt.Errorf("angular deceleration must be > 0, got %v", c.AngularDeceleration)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be > 0, got %v", c.TickPeriod)
	}
	if c.MinLinearVelocity < 0 || c.MinAngularVelocity < 0 {
		return errors.New("velocity thresholds must be >= 0")
	}
	if c.VelocityWindow < time.Millisecond {
		return fmt.Errorf("velocity window must be >= 1ms, got %v", c.VelocityWindow)
	}
	return nil
}

// Option customizes an engine.
type Option func(*Engine)

// WithClock overrides the clock used by the inertia replay.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTickHandler routes inertia timer ticks to fn instead of StepInertia.
// The handler is expected to step every active engine, this one included.
func WithTickHandler(fn func()) Option {
	return func(e *Engine) {
		e.onTick = fn
	}
}

// WithManipulations restricts the reported manipulations.
func WithManipulations(mask Manipulations) Option {
	return func(e *Engine) {
		e.mask = mask
	}
}

// WithLogger sets the logger used for step diagnostics.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine drives one object's gesture state machine and its inertia timer.
// All methods must be called from the goroutine that runs the scheduler.
type Engine struct {
	cb      Callbacks
	sched   Scheduler
	cfg     Config
	mask    Manipulations
	proc    *Processor
	inertia *Inertia
	timer   Timer
	state   State
	now     func() time.Time
	onTick  func()
	log     *logrus.Entry

	// gesture sums at release, continued by the inertia replay
	base CompletedParams
}

// NewEngine builds an engine reporting to cb. A missing callback target, a
// missing scheduler or an invalid config is a construction failure.
func NewEngine(cb Callbacks, sched Scheduler, cfg Config, opts ...Option) (*Engine, error) {
	if cb == nil {
		return nil, errors.New("manip: nil callbacks")
	}
	if sched == nil {
		return nil, errors.New("manip: nil scheduler")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("manip: %w", err)
	}
	e := &Engine{
		cb:    cb,
		sched: sched,
		cfg:   cfg,
		mask:  All,
		now:   time.Now,
		log:   logrus.StandardLogger().WithField("component", "manip"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.proc = NewProcessor(e.mask)
	e.proc.SetVelocityWindow(cfg.VelocityWindow.Milliseconds())
	return e, nil
}

// State returns the current gesture phase.
func (e *Engine) State() State {
	return e.state
}

// InertiaActive reports whether the inertia replay is running.
func (e *Engine) InertiaActive() bool {
	return e.state == Coasting
}

// Contacts returns the number of contacts the gesture is tracking.
func (e *Engine) Contacts() int {
	return e.proc.Contacts()
}

// Process feeds one sample through the state machine. Failures are step
// failures wrapping ErrStep: the step has no effect and the state is kept.
func (e *Engine) Process(s Sample) error {
	switch s.Kind {
	case Down:
		return e.down(s)
	case Move:
		return e.move(s)
	case Up:
		return e.up(s)
	default:
		return fmt.Errorf("%w: unknown sample kind %d", ErrStep, s.Kind)
	}
}

func (e *Engine) down(s Sample) error {
	if e.proc.Has(s.ID) {
		return fmt.Errorf("%w: %w", ErrStep, ErrDuplicateContact)
	}
	if err := e.pushPivot(); err != nil {
		return err
	}
	if e.state == Coasting {
		e.cancelInertia()
	}
	ev, err := e.proc.ProcessDown(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStep, err)
	}
	if ev.Kind == EventStarted {
		e.state = Manipulating
		e.cb.ManipulationStarted(ev.Pos)
	}
	return nil
}

func (e *Engine) move(s Sample) error {
	if !e.proc.Has(s.ID) {
		return fmt.Errorf("%w: %w", ErrStep, ErrUnknownContact)
	}
	if err := e.pushPivot(); err != nil {
		return err
	}
	ev, err := e.proc.ProcessMove(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStep, err)
	}
	e.cb.ManipulationDelta(ev.Delta)
	return nil
}

func (e *Engine) up(s Sample) error {
	last, ok := e.proc.Position(s.ID)
	if !ok {
		return fmt.Errorf("%w: %w", ErrStep, ErrUnknownContact)
	}
	if last != s.Pos {
		move := s
		move.Kind = Move
		if err := e.move(move); err != nil {
			e.log.WithError(err).Debug("final move skipped")
		}
	}
	ev, err := e.proc.ProcessUp(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStep, err)
	}
	if ev.Kind != EventCompleted {
		return nil
	}
	e.state = Completing
	e.release(ev.Completed)
	return nil
}

// release decides between inertia and completion at the end of a gesture.
func (e *Engine) release(done CompletedParams) {
	v, w := e.proc.Velocity()
	if e.mask&TranslateX == 0 {
		v.X = 0
	}
	if e.mask&TranslateY == 0 {
		v.Y = 0
	}
	if e.mask&Rotate == 0 || !e.allowAngularInertia() {
		w = 0
	}
	fast := abs32(v.X) > e.cfg.MinLinearVelocity || abs32(v.Y) > e.cfg.MinLinearVelocity ||
		abs32(w) > e.cfg.MinAngularVelocity
	if !fast || !e.allowInertia() {
		e.state = Idle
		e.cb.ManipulationCompleted(done)
		return
	}
	e.base = done
	e.inertia = NewInertia(done.Pos, v, w, e.cfg)
	e.inertia.Start(e.now())
	e.state = Coasting
	e.timer = e.sched.Every(e.cfg.TickPeriod, e.tick)
	e.log.WithFields(logrus.Fields{"vx": v.X, "vy": v.Y, "w": w}).Debug("inertia started")
}

func (e *Engine) allowInertia() bool {
	if p, ok := e.cb.(InertiaPolicy); ok {
		return p.AllowInertia()
	}
	return true
}

func (e *Engine) allowAngularInertia() bool {
	if p, ok := e.cb.(AngularInertiaPolicy); ok {
		return p.AllowAngularInertia()
	}
	return true
}

func (e *Engine) tick() {
	if e.onTick != nil {
		e.onTick()
		return
	}
	e.StepInertia()
}

// StepInertia advances the inertia replay by the time elapsed since it
// started and reports whether a step was taken.
func (e *Engine) StepInertia() bool {
	if e.state != Coasting || e.inertia == nil {
		return false
	}
	step, done := e.inertia.Process(e.now())
	e.emitInertia(step)
	if done {
		e.finishInertia()
	}
	return true
}

func (e *Engine) emitInertia(step InertiaStep) {
	e.cb.ManipulationDelta(DeltaParams{
		Pos:            step.Pos,
		DTranslation:   step.DTranslation,
		DScale:         1,
		DRotation:      step.DRotation,
		SumTranslation: e.base.SumTranslation.Add(step.SumTranslation),
		SumScale:       e.base.SumScale,
		SumExpansion:   e.base.SumExpansion,
		SumRotation:    e.base.SumRotation + step.SumRotation,
		Inertia:        true,
		Mods:           e.base.Mods,
	})
}

func (e *Engine) finishInertia() {
	e.stopTimer()
	done := e.base
	if e.inertia != nil {
		done.Pos = e.inertia.origin.Add(e.inertia.sumT)
		done.SumTranslation = done.SumTranslation.Add(e.inertia.sumT)
		done.SumRotation += e.inertia.sumR
	}
	e.inertia = nil
	e.state = Idle
	e.cb.ManipulationCompleted(done)
}

// cancelInertia discards the replay without reporting completion.
func (e *Engine) cancelInertia() {
	e.stopTimer()
	e.inertia = nil
	e.state = Idle
	e.log.Debug("inertia cancelled by new contact")
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Complete ends a live gesture now, without inertia.
func (e *Engine) Complete() {
	if e.state != Manipulating {
		return
	}
	ev := e.proc.Complete()
	e.state = Idle
	if ev.Kind == EventCompleted {
		e.cb.ManipulationCompleted(ev.Completed)
	}
}

// Close force-completes any live gesture or inertia and releases the timer.
// A running replay jumps to its rest position first.
func (e *Engine) Close() {
	switch e.state {
	case Manipulating, Completing:
		e.state = Manipulating
		e.Complete()
	case Coasting:
		e.emitInertia(e.inertia.Finish())
		e.finishInertia()
	}
	e.stopTimer()
}

func (e *Engine) pushPivot() error {
	if err := e.proc.SetPivot(e.cb.PivotPoint(), e.cb.PivotRadius()); err != nil {
		return fmt.Errorf("%w: %w", ErrStep, err)
	}
	return nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
