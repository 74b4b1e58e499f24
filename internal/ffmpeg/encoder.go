package ffmpeg

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// PortFunc is told the RTP port before ffmpeg starts sending to it.
type PortFunc func(port int) error

// Encoder feeds rendered frames to ffmpeg. It restarts the process when the
// frame size changes and drops frames while the pipe is busy.
type Encoder struct {
	opts   Options
	onPort PortFunc
	runner *Runner
	log    *logrus.Entry

	mu      sync.Mutex
	enabled bool
	size    image.Point
	pipe    io.WriteCloser
	frames  chan []byte
	done    chan struct{}
	dropped uint64
}

// NewEncoder returns a disabled encoder.
func NewEncoder(opts Options, onPort PortFunc, log *logrus.Entry) *Encoder {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "ffmpeg")
	}
	return &Encoder{opts: opts, onPort: onPort, runner: NewRunner(), log: log}
}

// SetEnabled starts accepting frames or stops the process.
func (e *Encoder) SetEnabled(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = on
	if !on {
		return e.stopLocked()
	}
	return nil
}

// Enabled reports whether frames are being encoded.
func (e *Encoder) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Dropped returns how many frames were skipped while the pipe was busy.
func (e *Encoder) Dropped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// WriteFrame copies img and hands it to the writer goroutine.
func (e *Encoder) WriteFrame(img *image.RGBA) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return nil
	}
	size := img.Bounds().Size()
	if e.pipe == nil || size != e.size {
		if err := e.startLocked(size); err != nil {
			return err
		}
	}
	buf := packFrame(img)
	select {
	case e.frames <- buf:
	default:
		e.dropped++
	}
	return nil
}

// Close stops ffmpeg.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	return e.stopLocked()
}

func (e *Encoder) startLocked(size image.Point) error {
	if err := e.stopLocked(); err != nil {
		return err
	}
	port, err := AllocatePort()
	if err != nil {
		return fmt.Errorf("allocate rtp port: %w", err)
	}
	if e.onPort != nil {
		if err := e.onPort(port); err != nil {
			return fmt.Errorf("attach rtp port: %w", err)
		}
	}
	pipe, err := e.runner.Start(size.X, size.Y, e.opts, port)
	if err != nil {
		return err
	}
	e.size = size
	e.pipe = pipe
	e.frames = make(chan []byte, 1)
	e.done = make(chan struct{})
	go e.writeLoop(pipe, e.frames, e.done)
	e.log.WithFields(logrus.Fields{"w": size.X, "h": size.Y, "port": port}).Info("encoder started")
	return nil
}

func (e *Encoder) stopLocked() error {
	if e.pipe == nil {
		return nil
	}
	close(e.frames)
	err := e.runner.Stop()
	<-e.done
	e.pipe = nil
	e.frames = nil
	e.size = image.Point{}
	return err
}

func (e *Encoder) writeLoop(w io.Writer, frames <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for buf := range frames {
		if _, err := w.Write(buf); err != nil {
			e.log.WithError(err).Warn("encoder pipe write failed")
			for range frames {
			}
			return
		}
	}
}

// packFrame copies the visible pixels row by row without stride padding.
func packFrame(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	out := make([]byte, row*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		start := (y+b.Min.Y-img.Rect.Min.Y)*img.Stride + (b.Min.X-img.Rect.Min.X)*4
		copy(out[y*row:(y+1)*row], img.Pix[start:start+row])
	}
	return out
}
