// Package midiout sends control values as MIDI control change messages from
// a background goroutine.
package midiout

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	// StatusControlChange is the CC status nibble.
	StatusControlChange = 0xb0
	channelMask         = 0x0f
	dataMask            = 0x7f

	defaultQueue = 256
)

// ErrUnknownDriver is returned by Open for a driver name with no backend.
var ErrUnknownDriver = errors.New("unknown midi driver")

// Backend delivers raw MIDI messages.
type Backend interface {
	Send(msg []byte) error
	Close() error
	String() string
}

// Options select and configure a backend.
type Options struct {
	Driver  string
	Port    string
	Channel int
	Queue   int
}

type opener func(port string, log *logrus.Entry) (Backend, error)

var (
	openersMu sync.Mutex
	openers   = map[string]opener{
		"log":  func(_ string, log *logrus.Entry) (Backend, error) { return logBackend{log: log}, nil },
		"none": func(string, *logrus.Entry) (Backend, error) { return noneBackend{}, nil },
	}
)

func register(name string, fn opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[name] = fn
}

// Drivers lists the backend names compiled in.
func Drivers() []string {
	openersMu.Lock()
	defer openersMu.Unlock()
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ControlChange encodes a CC message. Controller and value keep their low 7 bits.
func ControlChange(channel uint8, controller int, value uint8) []byte {
	return []byte{StatusControlChange | channel&channelMask, byte(controller) & dataMask, value & dataMask}
}

// Sink queues control changes and sends them in order. Sends never block:
// when the queue is full the change is dropped and logged.
type Sink struct {
	be      Backend
	channel uint8
	queue   chan []byte
	done    chan struct{}
	log     *logrus.Entry

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// Open builds the backend named by opts.Driver and starts a sink over it.
func Open(opts Options, log *logrus.Entry) (*Sink, error) {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "midiout")
	}
	if opts.Channel < 0 || opts.Channel > 15 {
		return nil, fmt.Errorf("midi channel must be 0..15, got %d", opts.Channel)
	}
	openersMu.Lock()
	open, ok := openers[opts.Driver]
	openersMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownDriver, opts.Driver, Drivers())
	}
	be, err := open(opts.Port, log)
	if err != nil {
		return nil, fmt.Errorf("open midi %s: %w", opts.Driver, err)
	}
	log.WithFields(logrus.Fields{"driver": opts.Driver, "port": be.String(), "channel": opts.Channel}).Info("midi output ready")
	return New(be, uint8(opts.Channel), opts.Queue, log), nil
}

// New starts a sink over be.
func New(be Backend, channel uint8, queue int, log *logrus.Entry) *Sink {
	if queue <= 0 {
		queue = defaultQueue
	}
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "midiout")
	}
	s := &Sink{
		be:      be,
		channel: channel & channelMask,
		queue:   make(chan []byte, queue),
		done:    make(chan struct{}),
		log:     log,
	}
	go s.run()
	return s
}

func (s *Sink) run() {
	defer close(s.done)
	for msg := range s.queue {
		if err := s.be.Send(msg); err != nil {
			n := s.failed.Add(1)
			s.log.WithError(err).WithField("failed", n).Warn("midi send failed")
		}
	}
}

// SendValueChanged queues a control change.
func (s *Sink) SendValueChanged(controller int, value uint8) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- ControlChange(s.channel, controller, value):
	default:
		n := s.dropped.Add(1)
		s.log.WithFields(logrus.Fields{"controller": controller, "dropped": n}).Warn("midi queue full")
	}
}

// Dropped returns the number of changes lost to a full queue.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

// Failed returns the number of messages the backend rejected.
func (s *Sink) Failed() uint64 { return s.failed.Load() }

// Close sends what is queued and closes the backend.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
	return s.be.Close()
}

type logBackend struct {
	log *logrus.Entry
}

func (b logBackend) Send(msg []byte) error {
	b.log.WithField("msg", fmt.Sprintf("% X", msg)).Info("midi")
	return nil
}

func (logBackend) Close() error   { return nil }
func (logBackend) String() string { return "log" }

type noneBackend struct{}

func (noneBackend) Send([]byte) error { return nil }
func (noneBackend) Close() error      { return nil }
func (noneBackend) String() string    { return "none" }
