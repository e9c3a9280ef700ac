package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-volume/engine/volume"
	"github.com/cogentcore/webgpu/wgpu"
)

// VolumeTextureFormat is the texel format of every density texture.
const VolumeTextureFormat = wgpu.TextureFormatR16Float

// textureSwapper is the part of the Renderer a VolumeTexture needs.
type textureSwapper interface {
	Capabilities() Capabilities
	ReplaceTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, descriptor wgpu.BindGroupLayoutDescriptor, stagingData common.TextureStagingData) error
}

type volumeTexture struct {
	mu *sync.Mutex

	gpu        textureSwapper
	provider   bind_group_provider.BindGroupProvider
	binding    int
	descriptor wgpu.BindGroupLayoutDescriptor

	forceNearest bool

	dims   [3]int
	loaded bool
	linear bool
}

// VolumeTexture owns the density texture binding of a bind group and replaces it whenever a
// new grid is uploaded. A failed upload keeps the previous texture bound.
type VolumeTexture interface {
	// Upload validates the grid against the device limits, stages it as an R16Float 3-D texture
	// and swaps it into the bind group.
	//
	// Parameters:
	//   - g: the grid to upload, unmodified
	//
	// Returns:
	//   - error: a *CapabilityError when the grid exceeds the 3-D texture limit, any other upload error otherwise
	Upload(g *volume.Grid) error

	// Loaded reports whether a grid has been uploaded.
	Loaded() bool

	// Dims returns the voxel counts of the bound grid, or 1x1x1 before the first upload.
	Dims() [3]int

	// Scale returns dims / max(dims) for the bound grid.
	Scale() [3]float32

	// Linear reports whether the bound texture is reconstructed with linear filtering.
	Linear() bool
}

var _ VolumeTexture = &volumeTexture{}

// VolumeTextureOption configures a VolumeTexture.
type VolumeTextureOption func(*volumeTexture)

// WithForceNearest disables linear reconstruction even when the format supports it.
//
// Parameters:
//   - force: true to always use nearest reconstruction
//
// Returns:
//   - VolumeTextureOption: the option
func WithForceNearest(force bool) VolumeTextureOption {
	return func(v *volumeTexture) {
		v.forceNearest = force
	}
}

// NewVolumeTexture creates a VolumeTexture for the binding of an initialized provider.
// The provider's bind group must have been created with PlaceholderVolume at that binding.
//
// Parameters:
//   - r: the renderer that performs the swap
//   - provider: the bind group provider holding the density binding
//   - binding: the binding index of the density texture
//   - descriptor: the layout descriptor the provider was initialized with
//   - options: optional VolumeTextureOptions
//
// Returns:
//   - VolumeTexture: the manager
func NewVolumeTexture(r textureSwapper, provider bind_group_provider.BindGroupProvider, binding int, descriptor wgpu.BindGroupLayoutDescriptor, options ...VolumeTextureOption) VolumeTexture {
	v := &volumeTexture{
		mu:         &sync.Mutex{},
		gpu:        r,
		provider:   provider,
		binding:    binding,
		descriptor: descriptor,
		dims:       [3]int{1, 1, 1},
	}
	for _, opt := range options {
		opt(v)
	}
	v.linear = v.filterLinear()
	return v
}

// VolumeStaging stages a grid's samples for an R16Float 3-D texture upload.
//
// Parameters:
//   - g: a valid grid
//
// Returns:
//   - common.TextureStagingData: the staging data, rows of Nx*2 bytes and Ny rows per slice
func VolumeStaging(g *volume.Grid) common.TextureStagingData {
	return common.TextureStagingData{
		Pixels:        g.Bytes(),
		Width:         uint32(g.Dims[0]),
		Height:        uint32(g.Dims[1]),
		Depth:         uint32(g.Dims[2]),
		Format:        VolumeTextureFormat,
		BytesPerTexel: 2,
		Volume:        true,
	}
}

// PlaceholderVolume returns a single zero-density voxel, bound until the first grid is uploaded.
func PlaceholderVolume() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels:        make([]byte, 2),
		Width:         1,
		Height:        1,
		Depth:         1,
		Format:        VolumeTextureFormat,
		BytesPerTexel: 2,
		Volume:        true,
	}
}

func (v *volumeTexture) filterLinear() bool {
	return !v.forceNearest && v.gpu.Capabilities().LinearFilter(VolumeTextureFormat)
}

func (v *volumeTexture) Upload(g *volume.Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := CheckVolumeSize(g.Dims, v.gpu.Capabilities().MaxTextureDimension3D); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.gpu.ReplaceTextureView(v.provider, v.binding, v.descriptor, VolumeStaging(g)); err != nil {
		return err
	}
	v.dims = g.Dims
	v.loaded = true
	v.linear = v.filterLinear()

	common.Logger().Debug("volume texture bound", "dims", g.Dims, "linear", v.linear)
	return nil
}

func (v *volumeTexture) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *volumeTexture) Dims() [3]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dims
}

func (v *volumeTexture) Scale() [3]float32 {
	return volume.FitScale(v.Dims())
}

func (v *volumeTexture) Linear() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.linear
}
