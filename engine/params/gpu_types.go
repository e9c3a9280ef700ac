package params

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUFrameUniformSource is the WGSL definition of the FrameUniform struct shared by both pipelines.
//
//go:embed assets/frame_uniform.wgsl
var GPUFrameUniformSource string

// GPUVolumeParamsSource is the WGSL definition of the VolumeParams struct used only by the volume pipeline.
//
//go:embed assets/volume_params.wgsl
var GPUVolumeParamsSource string

// GPUIsoParamsSource is the WGSL definition of the IsoParams struct used only by the isosurface pipeline.
//
//go:embed assets/iso_params.wgsl
var GPUIsoParamsSource string

// GPUFrameUniform carries the volume dimensions, the texture filter state, the unit-cube fit scale,
// the framebuffer size and the effective step scale. Size: 48 bytes.
type GPUFrameUniform struct {
	Dims      [3]int32   // offset  0: voxel counts (vec4<i32>.xyz)
	Linear    bool       // offset 12: the texture filter state (vec4<i32>.w); sampling is trilinear either way
	Scale     [3]float32 // offset 16: dims / max(dims) (vec4<f32>.xyz)
	Screen    [2]float32 // offset 32: framebuffer width and height
	StepScale float32    // offset 40: effective dt scale after adaptive quality
}

// Size returns the byte size of the uniform (48).
func (g *GPUFrameUniform) Size() int {
	return 48
}

// Marshal serializes the uniform for upload.
func (g *GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(g.Dims[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Scale[i]))
	}
	if g.Linear {
		binary.LittleEndian.PutUint32(buf[12:], 1)
	}
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(g.Screen[0]))
	binary.LittleEndian.PutUint32(buf[36:], math.Float32bits(g.Screen[1]))
	binary.LittleEndian.PutUint32(buf[40:], math.Float32bits(g.StepScale))
	return buf
}

// GPUVolumeParams carries the volume-mode density mapping and opacity controls. Size: 32 bytes.
type GPUVolumeParams struct {
	RhoMax          float32
	LogAlpha        float32
	AlphaLo         float32
	AlphaHi         float32
	OpacityStrength float32
}

// NewGPUVolumeParams extracts the volume-mode uniform from a parameter snapshot.
func NewGPUVolumeParams(p Parameters) GPUVolumeParams {
	return GPUVolumeParams{
		RhoMax:          p.RhoMax,
		LogAlpha:        p.LogAlpha,
		AlphaLo:         p.AlphaLo,
		AlphaHi:         p.AlphaHi,
		OpacityStrength: p.OpacityStrength,
	}
}

// Size returns the byte size of the uniform (32).
func (g *GPUVolumeParams) Size() int {
	return 32
}

// Marshal serializes the uniform for upload. The trailing 12 bytes are padding.
func (g *GPUVolumeParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range []float32{g.RhoMax, g.LogAlpha, g.AlphaLo, g.AlphaHi, g.OpacityStrength} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// GPUIsoParams carries the raw-density isosurface threshold. Size: 16 bytes.
type GPUIsoParams struct {
	IsoValue float32
}

// NewGPUIsoParams extracts the isosurface-mode uniform from a parameter snapshot.
func NewGPUIsoParams(p Parameters) GPUIsoParams {
	return GPUIsoParams{IsoValue: p.IsoValue}
}

// Size returns the byte size of the uniform (16).
func (g *GPUIsoParams) Size() int {
	return 16
}

// Marshal serializes the uniform for upload.
func (g *GPUIsoParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf, math.Float32bits(g.IsoValue))
	return buf
}
