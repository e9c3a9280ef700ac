// Command volview is the interactive volume viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine"
	"github.com/Carmen-Shannon/oxy-volume/engine/config"
	"github.com/Carmen-Shannon/oxy-volume/engine/control"
	"github.com/Carmen-Shannon/oxy-volume/engine/profiler"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer"
	"github.com/Carmen-Shannon/oxy-volume/engine/window"
)

func init() {
	// GLFW and the wgpu surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "volview.yaml", "YAML configuration file")
	volumeRef := flag.String("volume", "", "volume path or http(s) URL, overrides the config")
	apiAddr := flag.String("api", "", "control API address, enables the API when set")
	profile := flag.Bool("profile", false, "log frame statistics")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *volumeRef != "" {
		cfg.Render.Volume = *volumeRef
	}
	if *apiAddr != "" {
		cfg.Control.Enabled = true
		cfg.Control.Address = *apiAddr
	}
	if *profile {
		cfg.Profiler.Enabled = true
	}

	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}

	presentMode := renderer.PresentModeVSync
	if !cfg.Window.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	gpu, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware),
	)
	if err != nil {
		var capErr *renderer.CapabilityError
		if errors.As(err, &capErr) {
			log.Fatalf("GPU not supported: %v", capErr)
		}
		log.Fatalf("Failed to create renderer: %v", err)
	}

	viewer, err := engine.NewViewer(
		engine.WithWindow(win),
		engine.WithRenderer(gpu),
		engine.WithTitle(cfg.Window.Title),
		engine.WithParameters(cfg.Parameters),
		engine.WithQualityTarget(cfg.QualityTarget()),
		engine.WithColormapDir(cfg.Render.ColormapDir),
		engine.WithForceNearest(cfg.Render.ForceNearest),
		engine.WithScreenshotPath(cfg.Render.Screenshot),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithInterval(cfg.Profiler.Interval))),
		engine.WithProfiling(cfg.Profiler.Enabled),
	)
	if err != nil {
		gpu.Release()
		log.Fatalf("Failed to create viewer: %v", err)
	}

	var api *control.Server
	if cfg.Control.Enabled {
		api = control.NewServer(viewer, control.WithAddress(cfg.Control.Address))
		go func() {
			if err := api.Start(); err != nil {
				common.Logger().Error("control api stopped", "error", err)
			}
		}()
	}

	if cfg.Render.Volume != "" {
		viewer.LoadVolume(cfg.Render.Volume)
	}

	viewer.Run()

	if api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			common.Logger().Warn("control api shutdown failed", "error", err)
		}
	}
}
