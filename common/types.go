// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds texel data for a texture binding pending GPU upload.
// This is used by the BindGroupProvider to stage both the 2-D colormap and the 3-D density volume before
// the renderer creates the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the raw texel data, tightly packed rows with x varying fastest, then y, then z.
	Pixels []byte
	// Width is the texture width in texels.
	Width uint32
	// Height is the texture height in texels.
	Height uint32
	// Depth is the number of slices of a 3-D texture. Zero or one stages a 2-D texture.
	Depth uint32
	// Format is the GPU texel format. The zero value stages an RGBA8UnormSrgb texture.
	Format wgpu.TextureFormat
	// BytesPerTexel is the size of one texel in Pixels. Zero means four bytes.
	BytesPerTexel uint32
	// Volume stages a 3-D texture even when Depth is one.
	Volume bool
}

// Is3D reports whether the staging data describes a 3-D texture.
//
// Returns:
//   - bool: true when Volume is set or Depth is greater than one
func (t TextureStagingData) Is3D() bool {
	return t.Volume || t.Depth > 1
}

// ResolvedFormat returns the texel format, defaulting to RGBA8UnormSrgb.
//
// Returns:
//   - wgpu.TextureFormat: the format the GPU texture will be created with
func (t TextureStagingData) ResolvedFormat() wgpu.TextureFormat {
	if t.Format == wgpu.TextureFormatUndefined {
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
	return t.Format
}

// RowBytes returns the byte length of one texel row.
//
// Returns:
//   - uint32: Width multiplied by the texel size
func (t TextureStagingData) RowBytes() uint32 {
	return t.Width * Coalesce(t.BytesPerTexel, 4)
}

// Layers returns the number of 2-D slices, at least one.
//
// Returns:
//   - uint32: the depth of a 3-D texture, or 1
func (t TextureStagingData) Layers() uint32 {
	return Coalesce(t.Depth, 1)
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level. Volume textures always use 1.
	MaxAnisotropy uint16
}

// ClampedSampler returns sampler staging data with clamp-to-edge addressing on every axis
// and the given filter for magnification, minification and mip selection.
//
// Parameters:
//   - filter: the filter mode, wgpu.FilterModeLinear or wgpu.FilterModeNearest
//
// Returns:
//   - SamplerStagingData: the staged sampler description
func ClampedSampler(filter wgpu.FilterMode) SamplerStagingData {
	mip := wgpu.MipmapFilterModeNearest
	if filter == wgpu.FilterModeLinear {
		mip = wgpu.MipmapFilterModeLinear
	}
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}
