package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photobooth", "config.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	m := newTestManager(t)

	if _, err := os.Stat(m.GetConfigPath()); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	cfg := m.Get()
	if cfg.ServerPort != 8080 || cfg.LogLevel != "info" {
		t.Errorf("defaults = %d/%s", cfg.ServerPort, cfg.LogLevel)
	}
	if cfg.Booth != booth.DefaultSettings() {
		t.Errorf("booth = %+v", cfg.Booth)
	}
	if !cfg.Camera.Mirror || cfg.Camera.ReadyTimeout != 10*time.Second {
		t.Errorf("camera = %+v", cfg.Camera)
	}
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server_port: 9000
log_level: debug
camera:
  source: directory
  directory: /tmp/shots
  ready_timeout: 3s
booth:
  shot_count: 4
  layout: horizontal
  filter: blackwhite
  frame_color: dusty-pink
  caption: "  Friends forever and ever and ever and ever  "
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := m.Get()
	if cfg.ServerPort != 9000 || cfg.LogLevel != "debug" {
		t.Errorf("got %d/%s", cfg.ServerPort, cfg.LogLevel)
	}
	if cfg.Camera.Source != "directory" || cfg.Camera.ReadyTimeout != 3*time.Second {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	// unset fields keep their defaults
	if cfg.Camera.FPS != 15 || !cfg.Booth.IncludeDate {
		t.Errorf("defaults lost: fps=%d include_date=%v", cfg.Camera.FPS, cfg.Booth.IncludeDate)
	}
	if cfg.Booth.Filter != filter.BlackAndWhite {
		t.Errorf("filter = %q", cfg.Booth.Filter)
	}
	if cfg.Booth.Layout != strip.Horizontal || cfg.Booth.FrameColor != strip.DustyPink {
		t.Errorf("booth = %+v", cfg.Booth)
	}
	if n := len([]rune(cfg.Booth.Caption)); n != booth.MaxCaptionLength {
		t.Errorf("caption length = %d", n)
	}

	cc := cfg.Camera.CaptureConfig()
	if cc.Directory != "/tmp/shots" || cc.ReadyTimeout != 3*time.Second {
		t.Errorf("capture config = %+v", cc)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"shots":  "booth:\n  shot_count: 9\n",
		"filter": "booth:\n  filter: neon\n",
		"level":  "log_level: loud\n",
		"region": "camera:\n  region: 1,2,3\n",
		"yaml":   "server_port: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewManager(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetters(t *testing.T) {
	m := newTestManager(t)

	if err := m.SetPort(9090); err != nil {
		t.Fatal(err)
	}
	if err := m.SetLogLevel("warn"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetLogLevel("verbose"); err == nil {
		t.Error("invalid log level accepted")
	}

	settings := booth.DefaultSettings()
	settings.ShotCount = 2
	settings.Caption = "Party"
	if err := m.SetBooth(settings); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewManager(m.GetConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.GetPort() != 9090 || reloaded.GetLogLevel() != "warn" {
		t.Errorf("reloaded %d/%s", reloaded.GetPort(), reloaded.GetLogLevel())
	}
	if got := reloaded.Get().Booth; got.ShotCount != 2 || got.Caption != "Party" {
		t.Errorf("booth = %+v", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := newTestManager(t)
	cfg := m.Get()
	cfg.ServerPort = 1
	if m.GetPort() == 1 {
		t.Error("Get exposed internal state")
	}
}

func TestLookupAndSetValue(t *testing.T) {
	m := newTestManager(t)

	v, err := m.Lookup("booth.shot_count")
	if err != nil {
		t.Fatal(err)
	}
	if v != 3 {
		t.Errorf("booth.shot_count = %v (%T)", v, v)
	}
	if _, err := m.Lookup("nope.nothing"); err == nil {
		t.Error("unknown key found")
	}

	steps := []struct{ key, value string }{
		{"server_port", "9191"},
		{"camera.mirror", "false"},
		{"camera.ready_timeout", "2s"},
		{"camera.region", "0,0,640,480"},
		{"booth.filter", "washed_blue"},
		{"booth.caption", "Hello: world"},
	}
	for _, s := range steps {
		if err := m.SetValue(s.key, s.value); err != nil {
			t.Fatalf("SetValue(%s, %s): %v", s.key, s.value, err)
		}
	}

	cfg := m.Get()
	if cfg.ServerPort != 9191 || cfg.Camera.Mirror || cfg.Camera.ReadyTimeout != 2*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Camera.Region != "0,0,640,480" {
		t.Errorf("region = %q", cfg.Camera.Region)
	}
	if cfg.Booth.Filter != filter.WashedBlue || cfg.Booth.Caption != "Hello: world" {
		t.Errorf("booth = %+v", cfg.Booth)
	}

	if err := m.SetValue("booth.shot_count", "7"); err == nil {
		t.Error("out of range shot count accepted")
	}
	if err := m.SetValue("bogus", "1"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown key: %v", err)
	}
	if m.Get().Booth.ShotCount != 3 {
		t.Error("failed SetValue changed config")
	}
}
