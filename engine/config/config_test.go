package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/engine/params"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Render.Volume != "assets/density.bin" {
		t.Errorf("defaults not applied: %+v", cfg.Window)
	}
	if cfg.Parameters != params.Defaults() {
		t.Errorf("parameters = %+v", cfg.Parameters)
	}
	if cfg.QualityTarget() != 32*time.Millisecond {
		t.Errorf("quality target = %v", cfg.QualityTarget())
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "volview.yaml")
	cfg := DefaultConfig()
	cfg.Window.Title = "density"
	cfg.Parameters.Mode = params.ModeIsosurface
	cfg.Parameters.IsoValue = 0.5
	cfg.Profiler.Interval = 5 * time.Second
	cfg.LogLevel = "debug"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Window.Title != "density" || got.Parameters.Mode != params.ModeIsosurface || got.Parameters.IsoValue != 0.5 {
		t.Errorf("round trip lost values: %+v", got)
	}
	if got.Profiler.Interval != 5*time.Second || got.Level() != slog.LevelDebug {
		t.Errorf("interval=%v level=%v", got.Profiler.Interval, got.Level())
	}
}

func TestLoadConfigPartialAndClamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "parameters:\n  step_scale: 99\n  mode: iso\nlogLevel: loud\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Parameters.StepScale != 4 {
		t.Errorf("step scale = %v, want clamp to 4", cfg.Parameters.StepScale)
	}
	if cfg.Parameters.Mode != params.ModeIsosurface || cfg.Parameters.RhoMax != params.Defaults().RhoMax {
		t.Errorf("parameters = %+v", cfg.Parameters)
	}
	if cfg.Window.Height != 720 || cfg.Level() != slog.LevelInfo {
		t.Errorf("height=%d level=%v", cfg.Window.Height, cfg.Level())
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("window: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
