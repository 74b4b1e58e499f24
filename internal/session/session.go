// Package session holds runtime state for the active viewer.
package session

import (
	"sync"
)

// VideoWebRTC runs the RTP pipeline for WebRTC video.
const VideoWebRTC = "webrtc"

// VideoMJPEG runs the MJPEG stream only.
const VideoMJPEG = "mjpeg"

// Surface is the viewer's drawing area in physical pixels.
type Surface struct {
	W int
	H int
	// DPR is the browser's device pixel ratio.
	DPR float64
}

// Valid reports whether the surface has an area.
func (s Surface) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Snapshot represents a read-only view of the current session state.
type Snapshot struct {
	Authenticated bool
	PasswordMode  bool
	InputEnabled  bool
	VideoMode     string
	Surface       Surface
}

// Session holds runtime state for the active viewer.
type Session struct {
	mu            sync.RWMutex
	password      string
	passwordMode  bool
	authenticated bool
	inputEnabled  bool
	videoMode     string
	surface       Surface
}

// New returns an initialized session. With passwordMode off every viewer is
// authenticated.
func New(password string, passwordMode bool, surface Surface) *Session {
	return &Session{
		password:     password,
		passwordMode: passwordMode,
		inputEnabled: true,
		videoMode:    VideoMJPEG,
		surface:      surface,
	}
}

// PasswordMode reports whether logins are required.
func (s *Session) PasswordMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passwordMode
}

// Authenticate validates the password and marks the session as authenticated.
func (s *Session) Authenticate(pass string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.passwordMode || (pass != "" && pass == s.password) {
		s.authenticated = true
		return true
	}
	s.authenticated = false
	return false
}

// Logout clears authentication state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
}

// IsAuthenticated reports whether the session is authenticated.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated || !s.passwordMode
}

// SetInputEnabled toggles whether input reaches the scene.
func (s *Session) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputEnabled = enabled
}

// InputEnabled reports whether input reaches the scene.
func (s *Session) InputEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputEnabled
}

// SetVideoMode sets which video pipeline the server should run.
func (s *Session) SetVideoMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case VideoMJPEG:
		s.videoMode = VideoMJPEG
	default:
		s.videoMode = VideoWebRTC
	}
}

// VideoMode returns the active video pipeline mode.
func (s *Session) VideoMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.videoMode == "" {
		return VideoMJPEG
	}
	return s.videoMode
}

// SetSurface stores the viewer geometry. Invalid sizes are ignored.
func (s *Session) SetSurface(sf Surface) bool {
	if !sf.Valid() {
		return false
	}
	if sf.DPR <= 0 {
		sf.DPR = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = sf
	return true
}

// Surface returns the viewer geometry.
func (s *Session) Surface() Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surface
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated: s.authenticated || !s.passwordMode,
		PasswordMode:  s.passwordMode,
		InputEnabled:  s.inputEnabled,
		VideoMode:     s.videoMode,
		Surface:       s.surface,
	}
}
