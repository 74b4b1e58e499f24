package control

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
)

const (
	echoQueue    = 256
	writeTimeout = 2 * time.Second
)

// Target receives translated input. Implementations hand the work to the
// scene loop and must not block for long.
type Target interface {
	Input(ev scene.Event) error
	Resize(s session.Surface) error
}

// Options configure optional hooks of the server.
type Options struct {
	// OnVideoChange is called after the client picks a video pipeline.
	OnVideoChange func(reason string)
	// Initial returns the controller values sent to a new connection.
	Initial func() map[int]uint8
	Log     *logrus.Entry
}

// Server handles websocket control input and echoes values back.
type Server struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	session  *session.Session
	target   Target
	opts     Options
	log      *logrus.Entry
	conn     *clientConn
}

type clientConn struct {
	ws   *websocket.Conn
	out  chan ValueMessage
	done chan struct{}
}

// NewServer creates a control websocket server.
func NewServer(sess *session.Session, target Target, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "control")
	}
	return &Server{
		session: sess,
		target:  target,
		opts:    opts,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and processes control messages.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &clientConn{ws: ws, out: make(chan ValueMessage, echoQueue), done: make(chan struct{})}
	if err := s.acceptConn(c); err != nil {
		s.log.WithError(err).Info("control connection refused")
		_ = ws.Close()
		return
	}
	tr := NewTranslator()
	defer s.cleanupConn(c, tr)
	go s.writeLoop(c)
	s.sendInitial(c)

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		if err := s.handleMessage(tr, msg); err != nil {
			s.log.WithError(err).WithField("t", msg.T).Warn("control message failed")
			return
		}
	}
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(c *clientConn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("control connection already active")
	}
	s.conn = c
	return nil
}

// cleanupConn lifts the connection's contacts and clears it when closed.
func (s *Server) cleanupConn(c *clientConn, tr *Translator) {
	if err := s.deliver(tr.ReleaseAll()); err != nil {
		s.log.WithError(err).Debug("release on close failed")
	}
	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
	}
	s.mu.Unlock()
	close(c.done)
	_ = c.ws.Close()
}

func (s *Server) writeLoop(c *clientConn) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteJSON(msg); err != nil {
				s.log.WithError(err).Debug("value echo failed")
				return
			}
		}
	}
}

func (s *Server) sendInitial(c *clientConn) {
	if s.opts.Initial == nil {
		return
	}
	for controller, value := range s.opts.Initial() {
		select {
		case c.out <- valueMessage(controller, value):
		default:
			return
		}
	}
}

// SendValueChanged echoes a controller change to the active client. Changes
// are dropped while no client is connected or its queue is full.
func (s *Server) SendValueChanged(controller int, value uint8) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case c.out <- valueMessage(controller, value):
	default:
		s.log.WithField("controller", controller).Debug("value echo dropped")
	}
}

// Connected reports whether a control client is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// handleMessage dispatches a single control message.
func (s *Server) handleMessage(tr *Translator, msg Message) error {
	switch msg.T {
	case "down", "move", "up":
		return s.deliver(tr.Pointer(msg, s.session.Surface(), s.session.InputEnabled()))
	case "resize":
		sf := session.Surface{W: msg.W, H: msg.H, DPR: msg.DPR}
		if !s.session.SetSurface(sf) {
			return nil
		}
		if err := s.deliver(tr.ReleaseAll()); err != nil {
			return err
		}
		return s.target.Resize(s.session.Surface())
	case "key":
		if msg.Key == "Shift" && msg.Down != nil {
			tr.SetShift(*msg.Down)
		}
		return nil
	case "blur":
		return s.deliver(tr.Blur())
	case "inputEnabled":
		if msg.Enabled == nil {
			return nil
		}
		s.session.SetInputEnabled(*msg.Enabled)
		if !*msg.Enabled {
			return s.deliver(tr.ReleaseAll())
		}
		return nil
	case "setVideo":
		s.session.SetVideoMode(msg.Video)
		if s.opts.OnVideoChange != nil {
			s.opts.OnVideoChange("video")
		}
		return nil
	default:
		return nil
	}
}

func (s *Server) deliver(evs []scene.Event) error {
	for _, ev := range evs {
		if err := s.target.Input(ev); err != nil {
			return err
		}
	}
	return nil
}
