package control

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
)

type fakeTarget struct {
	mu      sync.Mutex
	events  chan scene.Event
	resizes []session.Surface
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{events: make(chan scene.Event, 16)}
}

func (f *fakeTarget) Input(ev scene.Event) error {
	f.events <- ev
	return nil
}

func (f *fakeTarget) Resize(s session.Surface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, s)
	return nil
}

func (f *fakeTarget) next(t *testing.T) scene.Event {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
		return scene.Event{}
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestServer_Unauthorized verifies the upgrade requires a login in password mode.
func TestServer_Unauthorized(t *testing.T) {
	s := NewServer(session.New("pw", true, surface), newFakeTarget(), Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

// TestServer_InputAndEcho verifies input reaches the target and values reach the client.
func TestServer_InputAndEcho(t *testing.T) {
	sess := session.New("", false, surface)
	target := newFakeTarget()
	s := NewServer(sess, target, Options{Initial: func() map[int]uint8 { return map[int]uint8{5: 42} }})
	srv := httptest.NewServer(s)
	defer srv.Close()
	conn := dial(t, srv)

	var initial ValueMessage
	if err := conn.ReadJSON(&initial); err != nil || initial.Controller != 5 || initial.Value != 42 {
		t.Fatalf("expected initial value, got %+v (%v)", initial, err)
	}

	if err := conn.WriteJSON(Message{T: "resize", W: 1001, H: 501, DPR: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(Message{T: "down", Pointer: PointerTouch, ID: 2, X: 0.5, Y: 0.5, TS: 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := target.next(t)
	if ev.ID != 3 || ev.Kind != manip.Down || ev.X != 500 || ev.Y != 250 {
		t.Fatalf("unexpected event %+v", ev)
	}
	target.mu.Lock()
	resized := len(target.resizes) == 1 && target.resizes[0].W == 1001
	target.mu.Unlock()
	if !resized {
		t.Fatalf("resize must reach the target")
	}

	s.SendValueChanged(9, 100)
	var echo ValueMessage
	if err := conn.ReadJSON(&echo); err != nil || echo.T != "value" || echo.Controller != 9 || echo.Value != 100 {
		t.Fatalf("unexpected echo %+v (%v)", echo, err)
	}

	// closing lifts the live contact
	_ = conn.Close()
	if up := target.next(t); up.ID != 3 || up.Kind != manip.Up {
		t.Fatalf("expected release on close, got %+v", up)
	}
	waitFor(t, func() bool { return !s.Connected() })
}

// TestServer_SingleConnection verifies a second client is turned away.
func TestServer_SingleConnection(t *testing.T) {
	s := NewServer(session.New("", false, surface), newFakeTarget(), Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()
	dial(t, srv)
	waitFor(t, s.Connected)

	second := dial(t, srv)
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := second.ReadMessage(); err == nil {
		t.Fatalf("second connection must be closed")
	}
}

// TestServer_DisableInputReleases verifies turning input off lifts live contacts.
func TestServer_DisableInputReleases(t *testing.T) {
	sess := session.New("", false, surface)
	target := newFakeTarget()
	s := NewServer(sess, target, Options{})
	tr := NewTranslator()

	if err := s.handleMessage(tr, Message{T: "down", X: 0.2, Y: 0.2}); err != nil {
		t.Fatalf("down: %v", err)
	}
	target.next(t)
	off := false
	if err := s.handleMessage(tr, Message{T: "inputEnabled", Enabled: &off}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if up := target.next(t); up.Kind != manip.Up || sess.InputEnabled() {
		t.Fatalf("expected release and disabled input")
	}
	if err := s.handleMessage(tr, Message{T: "down", X: 0.2, Y: 0.2}); err != nil || len(target.events) != 0 {
		t.Fatalf("down must be ignored while disabled")
	}
}

// TestServer_SetVideo verifies the pipeline hook fires.
func TestServer_SetVideo(t *testing.T) {
	sess := session.New("", false, surface)
	var reason string
	s := NewServer(sess, newFakeTarget(), Options{OnVideoChange: func(r string) { reason = r }})
	if err := s.handleMessage(NewTranslator(), Message{T: "setVideo", Video: session.VideoWebRTC}); err != nil {
		t.Fatalf("setVideo: %v", err)
	}
	if reason != "video" || sess.VideoMode() != session.VideoWebRTC {
		t.Fatalf("expected webrtc mode and hook, got %q %q", reason, sess.VideoMode())
	}
}
