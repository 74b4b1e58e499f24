// Package app wires the scene, its outputs and the viewer transports together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/config"
	"github.com/frudas24/touchsliders/internal/control"
	"github.com/frudas24/touchsliders/internal/display"
	"github.com/frudas24/touchsliders/internal/ffmpeg"
	"github.com/frudas24/touchsliders/internal/layout"
	"github.com/frudas24/touchsliders/internal/midiout"
	"github.com/frudas24/touchsliders/internal/mjpeg"
	"github.com/frudas24/touchsliders/internal/render"
	"github.com/frudas24/touchsliders/internal/scene"
	"github.com/frudas24/touchsliders/internal/session"
	"github.com/frudas24/touchsliders/internal/signaling"
	"github.com/frudas24/touchsliders/internal/store"
	"github.com/frudas24/touchsliders/internal/webrtc"
	"github.com/frudas24/touchsliders/internal/widget"
)

const flushPeriod = 5 * time.Second

// mjpegDefaults remembers the startup MJPEG settings for /api/config resets.
type mjpegDefaults struct {
	intervalMs int
	quality    int
}

// App coordinates the scene loop, the outputs and the HTTP surfaces.
type App struct {
	mu           sync.Mutex
	cfg          config.Config
	defaultMJPEG mjpegDefaults
	log          *logrus.Entry

	session   *session.Session
	loop      *scene.Loop
	raster    *render.Raster
	built     *scene.Built
	midi      *midiout.Sink
	recorder  *store.Recorder
	stream    *mjpeg.Stream
	preview   *mjpeg.Sink
	encoder   *ffmpeg.Encoder
	publisher *webrtc.Publisher
	signaling *signaling.Server
	control   *control.Server

	cancel  context.CancelFunc
	tickers []*time.Ticker
	wg      sync.WaitGroup
	stopped bool
}

// New builds every component. Nothing runs until Start.
func New(cfg config.Config, log *logrus.Entry) (_ *App, err error) {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "app")
	}
	a := &App{
		cfg:          cfg,
		defaultMJPEG: mjpegDefaults{intervalMs: cfg.MJPEGIntervalMs, quality: cfg.MJPEGQuality},
		log:          log,
		session: session.New(cfg.UIPassword, cfg.PasswordMode, session.Surface{
			W: cfg.SurfaceWidth,
			H: cfg.SurfaceHeight,
		}),
	}
	defer func() {
		if err != nil {
			a.closeOutputs()
		}
	}()

	l, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return nil, err
	}
	values, err := store.Load(cfg.ValuesPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	a.recorder = store.NewRecorder(cfg.ValuesPath, values, log.WithField("component", "store"))

	a.midi, err = midiout.Open(midiout.Options{
		Driver:  cfg.MIDIDriver,
		Port:    cfg.MIDIPort,
		Channel: cfg.MIDIChannel,
	}, log.WithField("component", "midi"))
	if err != nil {
		return nil, err
	}

	a.stream = mjpeg.NewStream(time.Duration(cfg.MJPEGIntervalMs) * time.Millisecond)
	a.preview = mjpeg.NewSink(a.stream, cfg.MJPEGQuality)
	a.preview.SetEnabled(cfg.MJPEGEnabled)

	a.publisher, err = webrtc.NewPublisher(log.WithField("component", "webrtc"))
	if err != nil {
		return nil, err
	}
	a.encoder = ffmpeg.NewEncoder(ffmpeg.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FPS:         cfg.FPS,
		BitrateKbps: cfg.BitrateKbps,
	}, a.publisher.AttachRTP, log.WithField("component", "ffmpeg"))

	a.signaling = signaling.NewServer(a.publisher, signaling.Options{
		Policy:   signaling.ViewerReplace,
		Auth:     func(_ *http.Request) bool { return a.session.IsAuthenticated() },
		OnViewer: a.viewerChanged,
		Log:      log.WithField("component", "signaling"),
	})
	a.control = control.NewServer(a.session, a, control.Options{
		OnVideoChange: func(string) { a.applyVideoMode() },
		Initial:       func() map[int]uint8 { return a.recorder.Values().Controllers },
		Log:           log.WithField("component", "control"),
	})

	a.loop = scene.NewLoop(0, log.WithField("component", "loop"))
	a.raster = render.NewRaster(
		render.WithSinks(a.preview, a.encoder),
		render.WithRasterLogger(log.WithField("component", "render")),
	)
	a.built, err = scene.Build(scene.Options{
		Layout: l,
		Env: widget.Env{
			Sched:  a.loop,
			Config: cfg.Inertia,
			Log:    log.WithField("component", "widget"),
		},
		Output:   widget.Outputs{a.midi, a.recorder, a.control},
		Renderer: a.raster,
		Log:      log.WithField("component", "scene"),
	})
	if err != nil {
		return nil, err
	}
	a.restoreValues(values)
	return a, nil
}

// restoreValues puts saved controller values back. Values for controllers the
// layout lacks are ignored.
func (a *App) restoreValues(values store.Values) {
	for _, c := range values.Sorted() {
		ctl, ok := a.built.Control(c)
		if !ok {
			continue
		}
		v, _ := values.Get(c)
		ctl.SetValue(float32(v) / 127)
	}
}

// Start runs the scene loop, lays the scene out and starts the tickers.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.loop.Run(ctx)
	}()

	if err := a.Resize(a.session.Surface()); err != nil {
		return err
	}
	a.applyVideoMode()

	frames := time.NewTicker(time.Second / time.Duration(a.cfg.FPS))
	flush := time.NewTicker(flushPeriod)
	a.tickers = []*time.Ticker{frames, flush}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-frames.C:
				_ = a.loop.Post(a.renderFrame)
			case <-flush.C:
				a.flush()
			}
		}
	}()
	a.log.WithField("objects", len(a.built.Objects())).Info("app started")
	return nil
}

// renderFrame runs on the loop. A live WebRTC encoder needs a steady frame
// rate, so the scene is repainted even when nothing changed.
func (a *App) renderFrame() {
	if a.encoder.Enabled() {
		a.built.Invalidate()
	}
	if err := a.built.RenderIfDirty(); err != nil {
		a.log.WithError(err).Debug("frame render failed")
	}
}

func (a *App) flush() {
	if err := a.recorder.Flush(); err != nil {
		a.log.WithError(err).Warn("values flush failed")
	}
}

// Input hands a contact sample to the scene loop.
func (a *App) Input(ev scene.Event) error {
	return a.loop.Post(func() {
		a.built.ProcessInputEvent(ev)
	})
}

// Resize lays the scene out for the viewer surface.
func (a *App) Resize(sf session.Surface) error {
	ppl := a.pointsPerLogical(sf)
	return a.loop.Post(func() {
		a.built.Resize(sf.W, sf.H, ppl)
	})
}

// pointsPerLogical combines the configured or host density with the
// viewer's device pixel ratio. Before a viewer reports, the host decides.
func (a *App) pointsPerLogical(sf session.Surface) float32 {
	if sf.DPR <= 0 {
		return display.PointsPerLogical(a.cfg.DPIScale)
	}
	base := float32(1)
	if a.cfg.DPIScale > 0 {
		base = float32(a.cfg.DPIScale)
	}
	return base * float32(sf.DPR)
}

// applyVideoMode enables the pipeline the session asks for.
func (a *App) applyVideoMode() {
	webrtcMode := a.session.VideoMode() == session.VideoWebRTC
	a.mu.Lock()
	mjpegOn := a.cfg.MJPEGEnabled
	a.mu.Unlock()
	a.preview.SetEnabled(mjpegOn && !webrtcMode)
	if !webrtcMode {
		a.publisher.StopForwarding()
		if err := a.encoder.SetEnabled(false); err != nil {
			a.log.WithError(err).Warn("encoder stop failed")
		}
		return
	}
	if err := a.encoder.SetEnabled(a.signaling.Active()); err != nil {
		a.log.WithError(err).Warn("encoder start failed")
	}
	if err := a.publisher.StartForwarding(); err != nil {
		a.log.WithError(err).Warn("rtp forwarding failed")
	}
	_ = a.loop.Post(a.built.Invalidate)
}

// viewerChanged runs the encoder only while a WebRTC viewer is attached.
func (a *App) viewerChanged(active bool) {
	if active && a.session.VideoMode() != session.VideoWebRTC {
		a.session.SetVideoMode(session.VideoWebRTC)
	}
	if err := a.encoder.SetEnabled(active && a.session.VideoMode() == session.VideoWebRTC); err != nil {
		a.log.WithError(err).Warn("encoder toggle failed")
	}
	if active {
		a.applyVideoMode()
	}
}

// Stop closes the scene on its loop, then flushes values, drains MIDI and
// stops the video pipeline.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	a.mu.Unlock()

	var errs []error
	if a.cancel == nil {
		a.built.Close()
	} else if err := a.loop.Call(ctx, a.built.Close); err != nil && !errors.Is(err, scene.ErrLoopStopped) {
		errs = append(errs, fmt.Errorf("close scene: %w", err))
	}
	for _, t := range a.tickers {
		t.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if err := a.recorder.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush values: %w", err))
	}
	errs = append(errs, a.closeOutputs())
	return errors.Join(errs...)
}

// closeOutputs releases MIDI, the encoder and the publisher.
func (a *App) closeOutputs() error {
	var errs []error
	if a.midi != nil {
		if err := a.midi.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close midi: %w", err))
		}
	}
	if a.encoder != nil {
		if err := a.encoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder: %w", err))
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	return errors.Join(errs...)
}

// Session returns the viewer session.
func (a *App) Session() *session.Session {
	return a.session
}

// Signaling returns the signaling websocket handler.
func (a *App) Signaling() *signaling.Server {
	return a.signaling
}

// Control returns the control websocket handler.
func (a *App) Control() *control.Server {
	return a.control
}

// PreviewStream returns the MJPEG stream.
func (a *App) PreviewStream() *mjpeg.Stream {
	return a.stream
}
