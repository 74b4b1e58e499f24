// Package mjpeg serves the rendered surface as a multipart JPEG stream.
package mjpeg

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frudas24/touchsliders/internal/render"
)

const boundary = "frame"

// Stream broadcasts JPEG frames to connected HTTP clients.
type Stream struct {
	mu          sync.RWMutex
	subs        map[chan []byte]struct{}
	last        []byte
	minInterval time.Duration
	lastPush    time.Time
}

// NewStream creates a new stream with a minimum publish interval.
func NewStream(minInterval time.Duration) *Stream {
	return &Stream{
		subs:        make(map[chan []byte]struct{}),
		minInterval: minInterval,
	}
}

// SetMinInterval sets the minimum interval between published frames.
func (s *Stream) SetMinInterval(d time.Duration) {
	s.mu.Lock()
	s.minInterval = d
	s.mu.Unlock()
}

// Publish sends a JPEG frame to all subscribers with throttling.
func (s *Stream) Publish(jpg []byte) {
	now := time.Now()
	s.mu.Lock()
	if s.minInterval > 0 && now.Sub(s.lastPush) < s.minInterval {
		s.last = append([]byte(nil), jpg...)
		s.mu.Unlock()
		return
	}
	frame := append([]byte(nil), jpg...)
	s.last = frame
	s.lastPush = now
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
	s.mu.Unlock()
}

// Handler serves the MJPEG multipart stream to the HTTP client.
func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")

	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	keep := time.NewTicker(1 * time.Second)
	defer keep.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case jpg := <-ch:
			if err := writePart(w, jpg); err != nil {
				return
			}
			fl.Flush()
		case <-keep.C:
			s.mu.RLock()
			j := append([]byte(nil), s.last...)
			s.mu.RUnlock()
			if len(j) > 0 {
				if err := writePart(w, j); err != nil {
					return
				}
				fl.Flush()
			}
		}
	}
}

// EncodeJPEG encodes an image into a JPEG buffer.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: normalizeQuality(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalizeQuality(q int) int {
	if q <= 0 || q > 100 {
		return 60
	}
	return q
}

// Subscribers returns the number of connected clients.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Sink encodes rendered frames and publishes them on a stream.
type Sink struct {
	stream  *Stream
	quality atomic.Int32
	enabled atomic.Bool
}

var _ render.FrameSink = (*Sink)(nil)

// NewSink returns an enabled sink publishing on stream.
func NewSink(stream *Stream, quality int) *Sink {
	k := &Sink{stream: stream}
	k.SetQuality(quality)
	k.enabled.Store(true)
	return k
}

// SetQuality changes the JPEG quality of later frames.
func (k *Sink) SetQuality(q int) {
	k.quality.Store(int32(normalizeQuality(q)))
}

// Quality returns the JPEG quality.
func (k *Sink) Quality() int {
	return int(k.quality.Load())
}

// SetEnabled pauses or resumes encoding.
func (k *Sink) SetEnabled(on bool) {
	k.enabled.Store(on)
}

// WriteFrame encodes img and publishes it.
func (k *Sink) WriteFrame(img *image.RGBA) error {
	if !k.enabled.Load() {
		return nil
	}
	jpg, err := EncodeJPEG(img, k.Quality())
	if err != nil {
		return err
	}
	k.stream.Publish(jpg)
	return nil
}

// subscribe registers a new client for MJPEG frames.
func (s *Stream) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if len(s.last) > 0 {
		ch <- append([]byte(nil), s.last...)
	}
	s.mu.Unlock()
	return ch
}

// unsubscribe removes a client subscription.
func (s *Stream) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.subs, ch)
	close(ch)
	s.mu.Unlock()
}

// writePart writes a single JPEG frame to the multipart response.
func writePart(w http.ResponseWriter, jpg []byte) error {
	_, _ = w.Write([]byte("\r\n--" + boundary + "\r\n"))
	_, _ = w.Write([]byte("Content-Type: image/jpeg\r\n"))
	_, _ = w.Write([]byte("Content-Length: " + strconv.Itoa(len(jpg)) + "\r\n\r\n"))
	_, err := w.Write(jpg)
	return err
}
