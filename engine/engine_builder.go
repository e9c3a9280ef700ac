package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-volume/engine/loader"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/profiler"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer"
	"github.com/Carmen-Shannon/oxy-volume/engine/window"
)

// ViewerBuilderOption is a functional option for configuring a Viewer.
// Use the With* functions to create options that are applied directly to the viewer instance.
type ViewerBuilderOption func(*viewer)

// WithWindow sets the window the viewer draws into and takes input from.
//
// Parameters:
//   - w: a created Window
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithWindow(w window.Window) ViewerBuilderOption {
	return func(v *viewer) {
		v.window = w
	}
}

// WithRenderer sets the renderer bound to the window's surface.
//
// Parameters:
//   - r: a Renderer created for the same window
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) ViewerBuilderOption {
	return func(v *viewer) {
		v.gpu = r
	}
}

// WithParameters sets the startup render parameters, including mode and colormap.
//
// Parameters:
//   - p: the initial parameters, sanitized on use
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithParameters(p params.Parameters) ViewerBuilderOption {
	return func(v *viewer) {
		v.initial = p
	}
}

// WithQualityTarget sets the frame-time budget of adaptive quality.
// Values <= 0 keep the default.
//
// Parameters:
//   - target: the frame-time budget
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithQualityTarget(target time.Duration) ViewerBuilderOption {
	return func(v *viewer) {
		if target > 0 {
			v.qualityTarget = target
		}
	}
}

// WithColormapDir sets the directory holding the catalog PNG files.
func WithColormapDir(dir string) ViewerBuilderOption {
	return func(v *viewer) {
		v.colormapDir = dir
	}
}

// WithForceNearest disables trilinear reconstruction of the density texture.
func WithForceNearest(force bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.forceNearest = force
	}
}

// WithScreenshotPath sets the file written when a screenshot request names no path.
func WithScreenshotPath(path string) ViewerBuilderOption {
	return func(v *viewer) {
		if path != "" {
			v.screenshotPath = path
		}
	}
}

// WithTitle sets the window title prefix.
func WithTitle(title string) ViewerBuilderOption {
	return func(v *viewer) {
		v.title = title
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithProfiling(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) ViewerBuilderOption {
	return func(v *viewer) {
		v.profiler = p
	}
}

// WithLoader replaces the default loader. Progress reporting is the caller's concern.
func WithLoader(l loader.Loader) ViewerBuilderOption {
	return func(v *viewer) {
		v.loader = l
	}
}
