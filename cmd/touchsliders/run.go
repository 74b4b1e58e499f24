package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frudas24/touchsliders/internal/app"
	"github.com/frudas24/touchsliders/internal/config"
	"github.com/frudas24/touchsliders/internal/display"
	"github.com/frudas24/touchsliders/internal/ffmpeg"
	"github.com/frudas24/touchsliders/internal/midiout"
	"github.com/frudas24/touchsliders/internal/webrtc"
)

// run wires the application and blocks until shutdown.
func run(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if debug {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	webrtc.SetDebugLogging(debug)
	log := logrus.WithField("component", "main")
	logStartup(log, cfg)

	appInstance, err := app.New(cfg, logrus.WithField("component", "app"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := appInstance.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux, "")
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(serveErr, appInstance.Stop(shutdownCtx), server.Shutdown(shutdownCtx))
}

// logStartup prints startup checks and connection info.
func logStartup(log *logrus.Entry, cfg config.Config) {
	log.Info("TouchSliders starting")
	logEnvStatus(log, cfg)
	logFFmpegStatus(log, cfg.FFmpegPath)
	log.WithFields(logrus.Fields{
		"driver":    cfg.MIDIDriver,
		"port":      cfg.MIDIPort,
		"channel":   cfg.MIDIChannel,
		"available": midiout.Drivers(),
	}).Info("midi output")
	logDisplayStatus(log, cfg)
	logListenStatus(log, cfg.ListenAddr)
}

// logDisplayStatus reports the host primary monitor and the surface scale.
func logDisplayStatus(log *logrus.Entry, cfg config.Config) {
	fields := logrus.Fields{
		"surface": fmt.Sprintf("%dx%d", cfg.SurfaceWidth, cfg.SurfaceHeight),
		"scale":   display.PointsPerLogical(cfg.DPIScale),
	}
	if list, err := display.ListMonitors(); err == nil {
		if m, ok := display.Primary(list); ok {
			fields["monitor"] = fmt.Sprintf("%dx%d", m.W, m.H)
		}
	}
	log.WithFields(fields).Info("display")
}

// logEnvStatus reports whether a .env file was found and required values are set.
func logEnvStatus(log *logrus.Entry, cfg config.Config) {
	if cfg.EnvFile != "" {
		log.WithField("path", cfg.EnvFile).Info("env check: ok")
	} else {
		log.WithField("path", filepath.Join(cfg.DataDir, ".env")).Info("env check: missing")
	}
	if !cfg.PasswordMode {
		log.Warn("PASSWORD_MODE disabled (dev mode)")
	}
	if cfg.LayoutPath != "" {
		log.WithField("path", cfg.LayoutPath).Info("layout file")
	}
}

// logFFmpegStatus reports whether the ffmpeg binary is discoverable.
func logFFmpegStatus(log *logrus.Entry, path string) {
	resolved, err := ffmpeg.Available(path)
	if err != nil {
		log.WithError(err).Warn("ffmpeg check: missing, WebRTC video unavailable")
		return
	}
	log.WithField("path", resolved).Info("ffmpeg check: ok")
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(log *logrus.Entry, addr string) {
	log.WithField("addr", addr).Info("listen addr")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Infof("local url: http://%s", net.JoinHostPort(host, port))
}
