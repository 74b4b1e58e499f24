// Package config loads environment configuration for TouchSliders.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/frudas24/touchsliders/internal/manip"
)

const (
	defaultListenAddr      = "0.0.0.0:8790"
	defaultDataDir         = "./data"
	defaultMIDIDriver      = "gomidi"
	defaultFFmpegPath      = "ffmpeg"
	defaultFPS             = 30
	defaultBitrateKbps     = 4000
	defaultMJPEGEnabled    = true
	defaultMJPEGIntervalMs = 66
	defaultMJPEGQuality    = 70
	defaultSurfaceWidth    = 1280
	defaultSurfaceHeight   = 800
	defaultLogLevel        = "info"
)

// Config holds runtime configuration values.
type Config struct {
	ListenAddr      string
	DataDir         string
	PasswordMode    bool
	UIPassword      string
	LayoutPath      string
	ValuesPath      string
	MIDIDriver      string
	MIDIPort        string
	MIDIChannel     int
	FPS             int
	MJPEGEnabled    bool
	MJPEGIntervalMs int
	MJPEGQuality    int
	FFmpegPath      string
	BitrateKbps     int
	SurfaceWidth    int
	SurfaceHeight   int
	// DPIScale is points per logical unit; 0 asks the host display.
	DPIScale float64
	Inertia  manip.Config
	LogLevel string
	// EnvFile is the .env path that was read, empty when none was found.
	EnvFile string
}

// Load reads configuration from ./data/.env and environment variables.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		DataDir:         defaultDataDir,
		PasswordMode:    true,
		MIDIDriver:      defaultMIDIDriver,
		FPS:             defaultFPS,
		MJPEGEnabled:    defaultMJPEGEnabled,
		MJPEGIntervalMs: defaultMJPEGIntervalMs,
		MJPEGQuality:    defaultMJPEGQuality,
		FFmpegPath:      defaultFFmpegPath,
		BitrateKbps:     defaultBitrateKbps,
		SurfaceWidth:    defaultSurfaceWidth,
		SurfaceHeight:   defaultSurfaceHeight,
		Inertia:         manip.DefaultConfig(),
		LogLevel:        defaultLogLevel,
	}

	envPath := filepath.Join(defaultDataDir, ".env")
	found, err := loadEnvFile(envPath)
	if err != nil {
		return Config{}, err
	}
	if found {
		cfg.EnvFile = envPath
	}

	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.PasswordMode = envBool("PASSWORD_MODE", cfg.PasswordMode)
	cfg.UIPassword = strings.TrimSpace(os.Getenv("UI_PASSWORD"))
	cfg.LayoutPath = envString("LAYOUT_PATH", "")
	cfg.ValuesPath = envString("VALUES_PATH", filepath.Join(cfg.DataDir, "values.json"))
	cfg.MIDIDriver = strings.ToLower(envString("MIDI_DRIVER", cfg.MIDIDriver))
	cfg.MIDIPort = envString("MIDI_PORT", "")
	cfg.MJPEGEnabled = envBool("MJPEG_ENABLED", cfg.MJPEGEnabled)
	cfg.FFmpegPath = envString("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.LogLevel = strings.ToLower(envString("LOG_LEVEL", cfg.LogLevel))

	ints := []struct {
		key string
		dst *int
	}{
		{"MIDI_CHANNEL", &cfg.MIDIChannel},
		{"FPS", &cfg.FPS},
		{"MJPEG_INTERVAL_MS", &cfg.MJPEGIntervalMs},
		{"MJPEG_QUALITY", &cfg.MJPEGQuality},
		{"BITRATE_KBPS", &cfg.BitrateKbps},
		{"SURFACE_WIDTH", &cfg.SurfaceWidth},
		{"SURFACE_HEIGHT", &cfg.SurfaceHeight},
	}
	for _, v := range ints {
		n, err := envInt(v.key, *v.dst)
		if err != nil {
			return Config{}, err
		}
		*v.dst = n
	}

	if cfg.DPIScale, err = envFloat("DPI_SCALE", 0); err != nil {
		return Config{}, err
	}
	decel, err := envFloat("INERTIA_DECELERATION", float64(cfg.Inertia.Deceleration))
	if err != nil {
		return Config{}, err
	}
	cfg.Inertia.Deceleration = float32(decel)
	angular, err := envFloat("INERTIA_ANGULAR_DECELERATION", float64(cfg.Inertia.AngularDeceleration))
	if err != nil {
		return Config{}, err
	}
	cfg.Inertia.AngularDeceleration = float32(angular)
	tick, err := envInt("INERTIA_TICK_MS", int(cfg.Inertia.TickPeriod/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	cfg.Inertia.TickPeriod = time.Duration(tick) * time.Millisecond

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c Config) Validate() error {
	var errs []error
	if c.PasswordMode && c.UIPassword == "" {
		errs = append(errs, errors.New("UI_PASSWORD is required when PASSWORD_MODE is on"))
	}
	if c.MIDIChannel < 0 || c.MIDIChannel > 15 {
		errs = append(errs, fmt.Errorf("MIDI_CHANNEL must be 0-15"))
	}
	if c.FPS <= 0 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("FPS must be 1-120"))
	}
	if c.MJPEGIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("MJPEG_INTERVAL_MS must be > 0"))
	}
	if c.MJPEGQuality <= 0 || c.MJPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("MJPEG_QUALITY must be 1-100"))
	}
	if c.BitrateKbps <= 0 {
		errs = append(errs, fmt.Errorf("BITRATE_KBPS must be > 0"))
	}
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		errs = append(errs, fmt.Errorf("SURFACE_WIDTH and SURFACE_HEIGHT must be > 0"))
	}
	if c.DPIScale < 0 {
		errs = append(errs, fmt.Errorf("DPI_SCALE must be >= 0"))
	}
	if err := c.Inertia.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("inertia: %w", err))
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not a level", c.LogLevel))
	}
	return errors.Join(errs...)
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file without overriding the
// environment. It reports whether the file existed.
func loadEnvFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return true, err
			}
		}
	}

	return true, nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
