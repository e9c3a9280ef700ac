// Package config loads the viewer configuration from YAML and provides default values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration loaded from YAML.
type Config struct {
	Window struct {
		Title  string `yaml:"title"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		// VSync waits for vertical blank; false presents immediately when the surface allows it.
		VSync bool `yaml:"vsync"`
	} `yaml:"window"`

	Render struct {
		// Volume is the path or http(s) URL loaded at startup.
		Volume string `yaml:"volume"`
		// ColormapDir holds the catalog PNG files. Missing files use built-in ramps.
		ColormapDir string `yaml:"colormapDir"`
		// ForceNearest disables trilinear reconstruction.
		ForceNearest bool `yaml:"forceNearest"`
		// ForceSoftware requests the fallback adapter.
		ForceSoftware bool `yaml:"forceSoftware"`
		// Screenshot is the default screenshot path.
		Screenshot string `yaml:"screenshot"`
	} `yaml:"render"`

	// Parameters are the startup render parameters, including mode and colormap.
	Parameters params.Parameters `yaml:"parameters"`

	Quality struct {
		TargetMS float64 `yaml:"targetMs"`
	} `yaml:"quality"`

	Control struct {
		Enabled bool   `yaml:"enabled"`
		Address string `yaml:"address"`
	} `yaml:"control"`

	Profiler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"profiler"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Window.Title = "oxy-volume"
	cfg.Window.Width = 1280
	cfg.Window.Height = 720
	cfg.Window.VSync = true

	cfg.Render.Volume = "assets/density.bin"
	cfg.Render.ColormapDir = "assets/colormaps"
	cfg.Render.Screenshot = "screen.png"

	cfg.Parameters = params.Defaults()

	cfg.Quality.TargetMS = 32

	cfg.Control.Address = "127.0.0.1:8085"

	cfg.Profiler.Interval = time.Second

	cfg.LogLevel = "info"
	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.Parameters = cfg.Parameters.Sanitized()
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file, creating its directory.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// QualityTarget returns the frame-time budget of the adaptive quality controller.
func (c *Config) QualityTarget() time.Duration {
	return time.Duration(c.Quality.TargetMS * float64(time.Millisecond))
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
