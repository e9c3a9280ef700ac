package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/camera"
	"github.com/Carmen-Shannon/oxy-volume/engine/colormap"
	"github.com/Carmen-Shannon/oxy-volume/engine/loader"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/profiler"
	"github.com/Carmen-Shannon/oxy-volume/engine/quality"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/mode"
	"github.com/Carmen-Shannon/oxy-volume/engine/window"
)

// DefaultScreenshotPath is used when a screenshot request names no path.
const DefaultScreenshotPath = "screen.png"

// viewer implements the Viewer interface.
// Coordinates the window's update loop, the loader and the GPU renderer.
type viewer struct {
	mu *sync.Mutex

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	ctx    context.Context
	cancel context.CancelFunc

	window window.Window
	gpu    renderer.Renderer
	modes  mode.Controller

	camera camera.Camera
	input  camera.Controller

	store     *params.Store
	quality   quality.Controller
	loader    loader.Loader
	colormaps *colormap.Library

	profiler         *profiler.Profiler
	profilingEnabled bool

	// Construction settings consumed by NewViewer.
	initial        params.Parameters
	qualityTarget  time.Duration
	colormapDir    string
	forceNearest   bool
	screenshotPath string
	title          string

	// Guarded by mu.
	screenshots []string
	status      loader.Status

	// Owned by the render thread.
	appliedMode     params.Mode
	appliedColormap string
	appliedVersion  uint64
}

// Viewer is the interactive volume viewer.
// It owns the frame loop and exposes the renderer commands, which may be called from any goroutine.
// Commands take effect at the start of the next frame on the render thread: parameters through
// one store snapshot per frame, loads through the loader's result channel, screenshots through a queue.
type Viewer interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// LoadVolume starts loading a volume from a path or http(s) URL.
	// A newer load supersedes any load still in flight; only the newest result is ever bound.
	//
	// Parameters:
	//   - ref: the byte-source reference
	//
	// Returns:
	//   - *loader.Future: a handle to the pending result
	LoadVolume(ref string) *loader.Future

	// VolumeStatus describes the bound volume and the most recent load.
	//
	// Returns:
	//   - loader.Status: a snapshot of the load state
	VolumeStatus() loader.Status

	// SetMode selects the render mode for the next frame.
	//
	// Parameters:
	//   - m: the render mode
	SetMode(m params.Mode)

	// SetParameter assigns a numeric render parameter. Values are clamped, never rejected.
	//
	// Parameters:
	//   - name: one of the params.Name* constants
	//   - value: the requested value
	//
	// Returns:
	//   - error: params.ErrUnknownParameter for an unknown name
	SetParameter(name string, value float32) error

	// SetParameters assigns several numeric parameters as one change, so a frame never sees
	// part of the batch. No value is applied if any name is unknown.
	//
	// Parameters:
	//   - values: requested values keyed by parameter name
	//
	// Returns:
	//   - params.Parameters: the stored parameters after clamping
	//   - error: params.ErrUnknownParameter for an unknown name
	SetParameters(values map[string]float32) (params.Parameters, error)

	// Parameters returns the current parameter snapshot.
	Parameters() params.Parameters

	// SetColormap selects the transfer function by catalog name.
	//
	// Parameters:
	//   - name: a catalog colormap name
	//
	// Returns:
	//   - error: colormap.ErrUnknownColormap if the name is not in the catalog
	SetColormap(name string) error

	// RequestScreenshot saves the next rendered frame as a PNG.
	//
	// Parameters:
	//   - path: the output file, DefaultScreenshotPath when empty
	RequestScreenshot(path string)

	// Stats returns the latest profiler snapshot.
	Stats() profiler.Stats

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Run drives the frame loop on the calling goroutine until the window closes or Quit is called.
	// It must be called from the goroutine that created the window.
	Run()

	// Quit stops the frame loop and cancels any load in flight.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Viewer = &viewer{}

// NewViewer creates a Viewer drawing into the given window with the given renderer.
// Both pipelines are built and the shared GPU resources created before it returns.
//
// Parameters:
//   - options: functional options; WithWindow and WithRenderer are required
//
// Returns:
//   - Viewer: the newly created viewer
//   - error: an error if a required option is missing or the GPU resources could not be created
func NewViewer(options ...ViewerBuilderOption) (Viewer, error) {
	v := &viewer{
		mu:             &sync.Mutex{},
		quitChannel:    make(chan struct{}),
		initial:        params.Defaults(),
		qualityTarget:  quality.DefaultTarget,
		screenshotPath: DefaultScreenshotPath,
		status:         loader.Status{Progress: -1},
	}
	for _, opt := range options {
		opt(v)
	}
	if v.window == nil {
		return nil, errors.New("viewer requires a window")
	}
	if v.gpu == nil {
		return nil, errors.New("viewer requires a renderer")
	}
	if v.profiler == nil {
		v.profiler = profiler.NewProfiler()
	}
	if v.title == "" {
		v.title = "oxy-volume"
	}

	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.store = params.NewStore(v.initial)
	v.quality = quality.NewController(quality.WithTarget(v.qualityTarget))
	v.colormaps = colormap.NewLibrary(v.colormapDir)
	if v.loader == nil {
		v.loader = loader.NewLoader(loader.WithProgress(v.onProgress))
	}

	p := v.store.Snapshot()
	cmap, err := v.colormaps.Get(p.Colormap)
	if err != nil {
		common.Logger().Warn("startup colormap unavailable, using default", "colormap", p.Colormap, "error", err)
		p.Colormap = params.Defaults().Colormap
		v.store.SetColormap(p.Colormap)
		if cmap, err = v.colormaps.Get(p.Colormap); err != nil {
			return nil, err
		}
	}

	v.camera = camera.NewCamera(camera.WithViewport(v.window.Width(), v.window.Height()))
	v.input = camera.NewController(v.camera)

	modes, err := mode.NewController(
		mode.WithInitialMode(p.Mode),
		mode.WithForceNearest(v.forceNearest),
		mode.WithCameraProvider(v.camera.BindGroupProvider()),
	)
	if err != nil {
		return nil, err
	}
	if err := modes.Init(v.gpu, cmap.Staging()); err != nil {
		return nil, fmt.Errorf("init render modes: %w", err)
	}
	v.modes = modes
	v.appliedMode = p.Mode
	v.appliedColormap = p.Colormap
	v.appliedVersion = v.store.Version()

	v.bindKeys()
	v.bindWindow()
	v.updateTitle()

	return v, nil
}

// bindKeys maps the viewer's key commands onto the camera controller.
func (v *viewer) bindKeys() {
	v.input.Bind(common.KeyP, func() { v.RequestScreenshot("") })
	v.input.Bind(common.KeyM, func() {
		if v.store.Snapshot().Mode == params.ModeVolume {
			v.SetMode(params.ModeIsosurface)
		} else {
			v.SetMode(params.ModeVolume)
		}
	})
	v.input.Bind(common.KeyV, func() { v.SetMode(params.ModeVolume) })
	v.input.Bind(common.KeyI, func() { v.SetMode(params.ModeIsosurface) })
	v.input.Bind(common.KeyC, func() {
		if err := v.SetColormap(colormap.Next(v.store.Snapshot().Colormap)); err != nil {
			common.Logger().Warn("colormap cycle failed", "error", err)
		}
	})
	v.input.Bind(common.KeyEqual, func() { v.scaleStep(1.25) })
	v.input.Bind(common.KeyMinus, func() { v.scaleStep(1 / 1.25) })
	v.input.Bind(common.KeyEsc, v.Quit)
}

// bindWindow routes window events to the input controller and the frame loop.
func (v *viewer) bindWindow() {
	v.window.SetMouseButtonCallback(v.input.HandleMouseButton)
	v.window.SetMouseMoveCallback(v.input.HandleMouseMove)
	v.window.SetScrollCallback(v.input.HandleScroll)
	v.window.SetKeyDownCallback(func(keyCode uint32) {
		v.input.HandleKey(keyCode)
	})
	v.window.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		v.gpu.Resize(width, height)
		v.camera.SetViewport(width, height)
	})
	v.window.SetVisibilityCallback(func(visible bool) {
		common.Logger().Debug("window visibility changed", "visible", visible)
		if visible {
			v.quality.Reset()
		}
	})
	v.window.SetUpdateCallback(v.frame)
}

func (v *viewer) Window() window.Window {
	return v.window
}

func (v *viewer) LoadVolume(ref string) *loader.Future {
	f := v.loader.LoadRef(v.ctx, ref)
	v.mu.Lock()
	v.status.Pending = f.Generation()
	v.status.Progress = -1
	v.mu.Unlock()
	return f
}

func (v *viewer) VolumeStatus() loader.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.status
	if st.Volume != nil {
		info := *st.Volume
		st.Volume = &info
	}
	return st
}

func (v *viewer) SetMode(m params.Mode) {
	v.store.SetMode(m)
}

func (v *viewer) SetParameter(name string, value float32) error {
	_, err := v.store.Set(name, value)
	return err
}

func (v *viewer) SetParameters(values map[string]float32) (params.Parameters, error) {
	return v.store.SetAll(values)
}

func (v *viewer) Parameters() params.Parameters {
	return v.store.Snapshot()
}

func (v *viewer) SetColormap(name string) error {
	if _, ok := colormap.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", colormap.ErrUnknownColormap, name)
	}
	v.store.SetColormap(name)
	return nil
}

func (v *viewer) RequestScreenshot(path string) {
	if path == "" {
		path = v.screenshotPath
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screenshots = append(v.screenshots, path)
}

func (v *viewer) Stats() profiler.Stats {
	return v.profiler.Snapshot()
}

func (v *viewer) EnableProfiler() {
	v.profilingEnabled = true
}

func (v *viewer) DisableProfiler() {
	v.profilingEnabled = false
}

func (v *viewer) Run() {
	v.window.ProcessMessages()
	v.signalQuit()
	v.modes.Release()
	v.gpu.Release()
	if v.window.IsRunning() {
		if err := v.window.Close(); err != nil {
			common.Logger().Warn("window close failed", "error", err)
		}
	}
}

// Quit stops the frame loop and cancels any load in flight.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (v *viewer) Quit() {
	v.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (v *viewer) signalQuit() {
	v.quitOnce.Do(func() {
		v.cancel()
		close(v.quitChannel)
	})
}

// onProgress records transfer progress for the current load.
func (v *viewer) onProgress(p loader.Progress) {
	if !v.loader.IsCurrent(p.Generation) {
		return
	}
	v.mu.Lock()
	v.status.Progress = p.Percent()
	v.mu.Unlock()
	common.Logger().Debug("volume load progress", "source", p.Source, "generation", p.Generation, "percent", p.Percent())
}

func (v *viewer) scaleStep(factor float32) {
	p := v.store.Update(func(p *params.Parameters) {
		p.StepScale *= factor
	})
	common.Logger().Debug("step scale changed", "step_scale", p.StepScale)
}

// frame runs one iteration of the render loop on the window thread.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (v *viewer) frame() {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("frame recovered from panic", "panic", r)
			v.signalQuit()
		}
	}()

	select {
	case <-v.quitChannel:
		v.window.RequestClose()
		return
	default:
	}

	if !v.window.Visible() {
		return
	}

	v.applyLoads()

	// Version is read first so a change racing the snapshot is picked up next frame.
	ver := v.store.Version()
	p := v.store.Snapshot()
	if ver != v.appliedVersion {
		v.syncMode(p.Mode)
		v.syncColormap(p.Colormap)
		v.appliedVersion = ver
	}

	f := v.frameState(p)

	start := time.Now()
	if err := v.gpu.BeginFrame(); err != nil {
		common.Logger().Debug("frame skipped", "error", err)
		return
	}
	if err := v.modes.Draw(f); err != nil {
		common.Logger().Error("draw failed", "mode", p.Mode, "error", err)
	}
	v.gpu.EndFrame()
	v.gpu.Present()
	v.gpu.WaitIdle()
	elapsed := time.Since(start)

	v.quality.Observe(elapsed)
	v.profiler.Record(elapsed)
	if v.profilingEnabled {
		v.profiler.Tick()
	}

	v.takeScreenshots(f)
}

// applyLoads binds every pending result that is still the newest load.
func (v *viewer) applyLoads() {
	for {
		select {
		case res := <-v.loader.Results():
			v.applyLoad(res)
		default:
			return
		}
	}
}

func (v *viewer) applyLoad(res loader.Result) {
	if !v.loader.IsCurrent(res.Generation) {
		if res.Grid != nil {
			res.Grid.Release()
		}
		common.Logger().Debug("dropping superseded volume load", "source", res.Source, "generation", res.Generation)
		return
	}

	v.mu.Lock()
	if v.status.Pending == res.Generation {
		v.status.Pending = 0
	}
	v.mu.Unlock()

	if res.Err != nil {
		v.recordLoadError(res.Err)
		return
	}

	info := res.Grid.Describe()
	err := v.modes.VolumeTexture().Upload(res.Grid)
	res.Grid.Release()
	if err != nil {
		common.Logger().Error("volume upload failed", "source", res.Source, "dims", info.Dims, "error", err)
		v.recordLoadError(err)
		return
	}

	v.camera.Reset()
	v.quality.Reset()

	v.mu.Lock()
	v.status.Volume = &info
	v.status.Source = res.Source
	v.status.Generation = res.Generation
	v.status.Progress = 100
	v.status.LastError = ""
	v.mu.Unlock()
	v.updateTitle()

	common.Logger().Info("volume bound", "source", res.Source, "generation", res.Generation,
		"dims", info.Dims, "fingerprint", info.Fingerprint)
}

func (v *viewer) recordLoadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status.LastError = err.Error()
	v.status.Progress = -1
}

// syncMode switches the active pipeline when the parameters name a different mode.
func (v *viewer) syncMode(m params.Mode) {
	if m == v.appliedMode {
		return
	}
	changed, err := v.modes.Switch(m)
	if err != nil {
		common.Logger().Error("mode switch failed", "mode", m, "error", err)
		v.store.SetMode(v.appliedMode)
		return
	}
	v.appliedMode = m
	if changed {
		v.quality.Reset()
		v.updateTitle()
	}
}

// syncColormap swaps the transfer function texture when the parameters name a different colormap.
func (v *viewer) syncColormap(name string) {
	if name == v.appliedColormap {
		return
	}
	cmap, err := v.colormaps.Get(name)
	if err == nil {
		err = v.modes.SetColormap(cmap.Staging())
	}
	if err != nil {
		common.Logger().Error("colormap swap failed", "colormap", name, "error", err)
		v.store.SetColormap(v.appliedColormap)
		return
	}
	v.appliedColormap = name
	common.Logger().Info("colormap swapped", "colormap", name)
}

func (v *viewer) frameState(p params.Parameters) mode.FrameState {
	vt := v.modes.VolumeTexture()
	w, h := v.camera.Viewport()
	return mode.FrameState{
		Params:    p,
		StepScale: v.quality.EffectiveStepScale(p.StepScale),
		Camera:    v.camera.Uniform(),
		Dims:      vt.Dims(),
		Scale:     vt.Scale(),
		Linear:    vt.Linear(),
		Width:     w,
		Height:    h,
	}
}

// takeScreenshots redraws the frame offscreen for each pending request and writes the PNGs
// in the background.
func (v *viewer) takeScreenshots(f mode.FrameState) {
	v.mu.Lock()
	paths := v.screenshots
	v.screenshots = nil
	v.mu.Unlock()
	if len(paths) == 0 {
		return
	}

	img, err := v.capture(f)
	if err != nil {
		common.Logger().Error("screenshot failed", "error", err)
		return
	}
	for _, path := range paths {
		go func(path string) {
			if err := writePNG(path, img); err != nil {
				common.Logger().Error("screenshot write failed", "path", path, "error", err)
				return
			}
			common.Logger().Info("screenshot saved", "path", path, "width", img.Rect.Dx(), "height", img.Rect.Dy())
		}(path)
	}
}

func (v *viewer) capture(f mode.FrameState) (*image.RGBA, error) {
	if err := v.gpu.BeginOffscreenFrame(f.Width, f.Height); err != nil {
		return nil, err
	}
	if err := v.modes.Draw(f); err != nil {
		if _, endErr := v.gpu.EndOffscreenFrame(); endErr != nil {
			common.Logger().Debug("offscreen frame abandoned", "error", endErr)
		}
		return nil, err
	}
	return v.gpu.EndOffscreenFrame()
}

func (v *viewer) updateTitle() {
	v.mu.Lock()
	st := v.status
	v.mu.Unlock()
	v.window.SetTitle(windowTitle(v.title, v.store.Snapshot(), st))
}

// windowTitle formats the window title from the bound volume and the render mode.
func windowTitle(base string, p params.Parameters, st loader.Status) string {
	if st.Volume == nil {
		return fmt.Sprintf("%s [%s]", base, p.Mode)
	}
	d := st.Volume.Dims
	return fmt.Sprintf("%s - %s %dx%dx%d [%s]", base, st.Source, d[0], d[1], d[2], p.Mode)
}

// writePNG encodes img to path, replacing any existing file.
func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
