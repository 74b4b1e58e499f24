package app

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/frudas24/touchsliders/internal/session"
	"github.com/frudas24/touchsliders/internal/web"
)

// RegisterRoutes wires API and static handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	if staticDir == "" {
		staticDir = filepath.Join("internal", "web", "static")
	}

	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/logout", a.handleLogout)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.Handle("/ws/signal", a.Signaling())
	mux.Handle("/ws/control", a.Control())
	mux.HandleFunc("/favicon.ico", handleFavicon)
	mux.HandleFunc("/mjpeg", a.handleMJPEG)

	mux.Handle("/", a.staticFileServer(staticDir))
}

type loginRequest struct {
	Password string `json:"password"`
}

type stateResponse struct {
	Authenticated bool            `json:"authenticated"`
	PasswordMode  bool            `json:"passwordMode"`
	InputEnabled  bool            `json:"inputEnabled"`
	VideoMode     string          `json:"videoMode"`
	Surface       surfaceResponse `json:"surface"`
	Controllers   map[int]uint8   `json:"controllers"`
	MJPEGEnabled  bool            `json:"mjpegEnabled"`
	Viewer        bool            `json:"webrtcViewer"`
}

type surfaceResponse struct {
	W   int     `json:"w"`
	H   int     `json:"h"`
	DPR float64 `json:"dpr"`
}

type configRequest struct {
	MJPEGIntervalMs *int `json:"mjpegIntervalMs"`
	MJPEGQuality    *int `json:"mjpegQuality"`
	Reset           bool `json:"reset"`
}

type configResponse struct {
	Applied         bool `json:"applied"`
	MJPEGIntervalMs int  `json:"mjpegIntervalMs"`
	MJPEGQuality    int  `json:"mjpegQuality"`
}

// handleLogin authenticates the session.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !a.session.Authenticate(req.Password) {
		a.log.WithField("remote", r.RemoteAddr).Warn("login failed")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// handleLogout clears authentication state.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.session.Logout()
	writeJSON(w, map[string]bool{"ok": true})
}

// handleState returns the session state and the current controller values.
func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	snap := a.session.Snapshot()
	a.mu.Lock()
	mjpegOn := a.cfg.MJPEGEnabled
	a.mu.Unlock()
	writeJSON(w, stateResponse{
		Authenticated: snap.Authenticated,
		PasswordMode:  snap.PasswordMode,
		InputEnabled:  snap.InputEnabled,
		VideoMode:     snap.VideoMode,
		Surface:       surfaceResponse{W: snap.Surface.W, H: snap.Surface.H, DPR: snap.Surface.DPR},
		Controllers:   a.recorder.Values().Controllers,
		MJPEGEnabled:  mjpegOn,
		Viewer:        a.signaling != nil && a.signaling.Active(),
	})
}

// handleConfig updates the MJPEG interval and quality at runtime.
func (a *App) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	interval, quality := a.cfg.MJPEGIntervalMs, a.cfg.MJPEGQuality
	if req.Reset {
		interval, quality = a.defaultMJPEG.intervalMs, a.defaultMJPEG.quality
	}
	if req.MJPEGIntervalMs != nil {
		interval = *req.MJPEGIntervalMs
	}
	if req.MJPEGQuality != nil {
		quality = *req.MJPEGQuality
	}
	if interval < 10 || interval > 5000 || quality < 1 || quality > 100 {
		a.mu.Unlock()
		http.Error(w, "mjpegIntervalMs must be 10-5000 and mjpegQuality 1-100", http.StatusBadRequest)
		return
	}
	a.cfg.MJPEGIntervalMs, a.cfg.MJPEGQuality = interval, quality
	a.mu.Unlock()

	if a.stream != nil {
		a.stream.SetMinInterval(time.Duration(interval) * time.Millisecond)
	}
	if a.preview != nil {
		a.preview.SetQuality(quality)
	}
	writeJSON(w, configResponse{Applied: true, MJPEGIntervalMs: interval, MJPEGQuality: quality})
}

// handleMJPEG serves the preview stream to authenticated viewers.
func (a *App) handleMJPEG(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	a.mu.Lock()
	mjpegOn := a.cfg.MJPEGEnabled
	a.mu.Unlock()
	if !mjpegOn || a.stream == nil {
		http.Error(w, "mjpeg disabled", http.StatusNotFound)
		return
	}
	if a.session.VideoMode() != session.VideoMJPEG {
		a.session.SetVideoMode(session.VideoMJPEG)
		a.applyVideoMode()
	}
	a.stream.Handler(w, r)
}

// requireAuth returns false and writes an error if the session is not authenticated.
func (a *App) requireAuth(w http.ResponseWriter) bool {
	if !a.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// staticFileServer returns a handler for static assets, preferring disk then embed.
func (a *App) staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	embedded, err := web.StaticFS()
	if err != nil {
		a.log.WithError(err).Warn("static assets unavailable")
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
