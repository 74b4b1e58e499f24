package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp runs the test from an empty directory so no real ./data/.env is read.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

// TestLoad_Defaults verifies the stock values.
func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("UI_PASSWORD", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:8790" || cfg.FPS != 30 || cfg.MJPEGQuality != 70 || cfg.MIDIDriver != "gomidi" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ValuesPath != filepath.Join("./data", "values.json") || cfg.EnvFile != "" {
		t.Fatalf("unexpected paths %q %q", cfg.ValuesPath, cfg.EnvFile)
	}
	if cfg.Inertia.TickPeriod != 10*time.Millisecond || cfg.SurfaceWidth != 1280 {
		t.Fatalf("unexpected inertia or surface %+v", cfg)
	}
}

// TestLoad_EnvFile verifies .env values apply but never override the environment.
func TestLoad_EnvFile(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	env := "# comment\nexport UI_PASSWORD='fromfile'\nFPS=24\nMIDI_CHANNEL = 9\nbroken line\n"
	if err := os.WriteFile(filepath.Join(dir, "data", ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FPS", "60")
	// registered for cleanup, then cleared so the file value applies
	t.Setenv("UI_PASSWORD", "")
	os.Unsetenv("UI_PASSWORD")
	t.Setenv("MIDI_CHANNEL", "")
	os.Unsetenv("MIDI_CHANNEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UIPassword != "fromfile" || cfg.MIDIChannel != 9 || cfg.FPS != 60 || cfg.EnvFile == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

// TestLoad_Rejects verifies invalid values fail the load.
func TestLoad_Rejects(t *testing.T) {
	cases := []struct{ key, value, want string }{
		{"MJPEG_QUALITY", "0", "MJPEG_QUALITY"},
		{"MIDI_CHANNEL", "16", "MIDI_CHANNEL"},
		{"FPS", "fast", "FPS"},
		{"INERTIA_DECELERATION", "0", "deceleration"},
		{"LOG_LEVEL", "loud", "LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv("UI_PASSWORD", "secret")
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %s error, got %v", tc.want, err)
			}
		})
	}
}

// TestLoad_PasswordMode verifies the password is only required in password mode.
func TestLoad_PasswordMode(t *testing.T) {
	chdirTemp(t)
	t.Setenv("UI_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Fatalf("missing password must fail")
	}
	t.Setenv("PASSWORD_MODE", "off")
	cfg, err := Load()
	if err != nil || cfg.PasswordMode {
		t.Fatalf("password mode off must load, got %v", err)
	}
}
