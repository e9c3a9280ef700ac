package mode

import (
	"github.com/Carmen-Shannon/oxy-volume/engine/camera"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
)

// UniformID names a uniform block a variant reads.
type UniformID int

const (
	// UniformCamera is the projection-view matrix and eye, group 0.
	UniformCamera UniformID = iota
	// UniformFrame is the volume dimensions, fit scale, screen size and step scale.
	UniformFrame
	// UniformVolumeParams is the density mapping and opacity window of volume mode.
	UniformVolumeParams
	// UniformIsoParams is the raw-density threshold of isosurface mode.
	UniformIsoParams
)

func (u UniformID) String() string {
	switch u {
	case UniformCamera:
		return "camera"
	case UniformFrame:
		return "frame"
	case UniformVolumeParams:
		return "volume_params"
	case UniformIsoParams:
		return "iso_params"
	default:
		return "unknown"
	}
}

// FrameState is everything a variant needs to fill its uniforms for one frame.
type FrameState struct {
	// Params is the frame's parameter snapshot.
	Params params.Parameters
	// StepScale is the effective step scale after adaptive quality.
	StepScale float32
	// Camera is the camera uniform for the frame.
	Camera camera.GPUCameraUniform
	// Dims, Scale and Linear describe the bound volume texture.
	Dims   [3]int
	Scale  [3]float32
	Linear bool
	// Width and Height are the framebuffer size in pixels.
	Width, Height int
}

func (f FrameState) frameUniform() params.GPUFrameUniform {
	return params.GPUFrameUniform{
		Dims:      [3]int32{int32(f.Dims[0]), int32(f.Dims[1]), int32(f.Dims[2])},
		Linear:    f.Linear,
		Scale:     f.Scale,
		Screen:    [2]float32{float32(f.Width), float32(f.Height)},
		StepScale: f.StepScale,
	}
}
