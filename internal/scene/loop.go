package scene

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/manip"
)

const defaultQueue = 256

// ErrLoopStopped is returned when posting to a loop that has exited.
var ErrLoopStopped = errors.New("loop stopped")

// Loop runs posted tasks one at a time on a single goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	log   *logrus.Entry
}

// NewLoop returns a loop with a task queue of the given length.
func NewLoop(queue int, log *logrus.Entry) *Loop {
	if queue <= 0 {
		queue = defaultQueue
	}
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "loop")
	}
	return &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Run drains tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("loop stopped")
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Call runs fn on the loop and waits for it.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

type loopTimer struct {
	stopped atomic.Bool
	pending atomic.Bool
	quit    chan struct{}
	once    sync.Once
}

// Stop cancels the timer. Ticks already queued are dropped.
func (t *loopTimer) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() { close(t.quit) })
}

// Every posts fn to the loop each period. Ticks do not pile up: while one is
// queued the next is skipped.
func (l *Loop) Every(period time.Duration, fn func()) manip.Timer {
	t := &loopTimer{quit: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-t.quit:
				return
			case <-l.done:
				return
			case <-ticker.C:
				if !t.pending.CompareAndSwap(false, true) {
					continue
				}
				err := l.Post(func() {
					t.pending.Store(false)
					if t.stopped.Load() {
						return
					}
					fn()
				})
				if err != nil {
					return
				}
			}
		}
	}()
	return t
}
