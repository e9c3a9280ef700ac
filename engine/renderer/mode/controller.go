package mode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/raymarch"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

type controller struct {
	mu *sync.Mutex

	shared   *sharedResources
	variants map[params.Mode]*variant
	active   params.Mode

	forceNearest bool

	gpu           renderer.Renderer
	volumeTexture renderer.VolumeTexture
}

// Controller owns the volume and isosurface variants, the resources they share and the
// density texture manager. Only the active variant draws.
type Controller interface {
	// Init registers both pipelines and creates the shared resources: the cube strip, the camera
	// bind group, and the volume bind group with a placeholder density texture and the given
	// colormap. The active variant is bound; the other is bound on its first Switch.
	//
	// Parameters:
	//   - r: the renderer that owns the GPU device
	//   - colormap: the 2-D transfer function texture
	//
	// Returns:
	//   - error: an error if any pipeline or resource could not be created
	Init(r renderer.Renderer, colormap common.TextureStagingData) error

	// Mode returns the active mode.
	Mode() params.Mode

	// Active returns the active variant.
	Active() Variant

	// Variant returns the variant for a mode, or nil for an unknown mode.
	Variant(m params.Mode) Variant

	// Switch activates the variant for m and binds it if needed.
	//
	// Parameters:
	//   - m: the mode to activate
	//
	// Returns:
	//   - bool: true if the active mode changed
	//   - error: an error if the mode is unknown or the variant could not be bound
	Switch(m params.Mode) (bool, error)

	// VolumeTexture returns the density texture manager. Nil before Init.
	VolumeTexture() renderer.VolumeTexture

	// SetColormap replaces the transfer function texture. On failure the previous colormap stays.
	//
	// Parameters:
	//   - staging: the new colormap texels
	//
	// Returns:
	//   - error: an error if the texture could not be replaced
	SetColormap(staging common.TextureStagingData) error

	// Draw writes the active variant's uniforms and records its draw into the current frame.
	//
	// Parameters:
	//   - f: the state of the frame being drawn
	//
	// Returns:
	//   - error: an error if the controller is not initialized or the draw fails
	Draw(f FrameState) error

	// Release releases every bind group and the cube strip.
	Release()
}

var _ Controller = &controller{}

// NewController parses both variants' shaders and builds their pipelines. No GPU work happens
// until Init.
//
// Parameters:
//   - options: optional ControllerBuilderOptions
//
// Returns:
//   - Controller: the controller
//   - error: an error if a shader or pipeline is malformed
func NewController(options ...ControllerBuilderOption) (Controller, error) {
	c := &controller{
		mu: &sync.Mutex{},
		shared: &sharedResources{
			mesh:   bind_group_provider.NewBindGroupProvider("cube"),
			camera: bind_group_provider.NewBindGroupProvider("camera"),
			volume: bind_group_provider.NewBindGroupProvider("volume"),
		},
		active: params.ModeVolume,
	}
	for _, opt := range options {
		opt(c)
	}

	vol, err := newVolumeVariant(c.shared)
	if err != nil {
		return nil, err
	}
	iso, err := newIsosurfaceVariant(c.shared)
	if err != nil {
		return nil, err
	}
	if vol.layout.camera != iso.layout.camera || vol.layout.frame != iso.layout.frame ||
		vol.layout.density != iso.layout.density || vol.layout.colormap != iso.layout.colormap ||
		vol.layout.sampler != iso.layout.sampler {
		return nil, errors.New("volume and isosurface variants disagree on shared bindings")
	}
	c.variants = map[params.Mode]*variant{
		params.ModeVolume:     vol,
		params.ModeIsosurface: iso,
	}
	if _, ok := c.variants[c.active]; !ok {
		return nil, fmt.Errorf("unknown initial mode %v", c.active)
	}
	return c, nil
}

func (c *controller) Init(r renderer.Renderer, colormap common.TextureStagingData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	vol := c.variants[params.ModeVolume]
	layout := vol.layout
	cameraDesc := vol.groups[layout.camera.group]
	volumeDesc := vol.groups[layout.frame.group]

	if err := r.RegisterPipelines(vol.pipeline, c.variants[params.ModeIsosurface].pipeline); err != nil {
		return err
	}
	if err := r.InitMeshBuffers(c.shared.mesh, raymarch.CubeStripBytes(), len(raymarch.CubeStrip)); err != nil {
		return err
	}
	if err := r.InitBindGroup(c.shared.camera, cameraDesc, nil, nil); err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}

	if err := r.InitTextureView(c.shared.volume, layout.density.binding, renderer.PlaceholderVolume()); err != nil {
		return fmt.Errorf("placeholder volume: %w", err)
	}
	if err := r.InitTextureView(c.shared.volume, layout.colormap.binding, colormap); err != nil {
		return fmt.Errorf("colormap: %w", err)
	}
	if err := r.InitSampler(c.shared.volume, layout.sampler.binding, common.ClampedSampler(wgpu.FilterModeLinear)); err != nil {
		return fmt.Errorf("colormap sampler: %w", err)
	}
	if err := r.InitBindGroup(c.shared.volume, volumeDesc, nil, nil); err != nil {
		return fmt.Errorf("volume bind group: %w", err)
	}

	if err := c.variants[c.active].Bind(r); err != nil {
		return err
	}

	c.gpu = r
	c.volumeTexture = renderer.NewVolumeTexture(r, c.shared.volume, layout.density.binding, volumeDesc,
		renderer.WithForceNearest(c.forceNearest))
	return nil
}

func (c *controller) Mode() params.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *controller) Active() Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variants[c.active]
}

func (c *controller) Variant(m params.Mode) Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[m]; ok {
		return v
	}
	return nil
}

func (c *controller) Switch(m params.Mode) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.variants[m]
	if !ok {
		return false, fmt.Errorf("unknown render mode %v", m)
	}
	if m == c.active {
		return false, nil
	}
	if c.gpu != nil {
		if err := v.Bind(c.gpu); err != nil {
			return false, err
		}
	}
	c.active = m
	common.Logger().Info("render mode switched", "mode", m)
	return true, nil
}

func (c *controller) VolumeTexture() renderer.VolumeTexture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volumeTexture
}

func (c *controller) SetColormap(staging common.TextureStagingData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gpu == nil {
		return errors.New("mode controller not initialized")
	}
	vol := c.variants[params.ModeVolume]
	return c.gpu.ReplaceTextureView(c.shared.volume, vol.layout.colormap.binding, vol.groups[vol.layout.frame.group], staging)
}

func (c *controller) Draw(f FrameState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gpu == nil {
		return errors.New("mode controller not initialized")
	}
	v := c.variants[c.active]
	c.gpu.WriteBuffers(v.SetUniforms(f))
	return v.Draw(c.gpu)
}

func (c *controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range c.variants {
		v.Release()
	}
	c.shared.mesh.Release()
	c.shared.camera.Release()
	c.shared.volume.Release()
	c.gpu = nil
	c.volumeTexture = nil
}
