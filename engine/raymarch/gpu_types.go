package raymarch

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-volume/common"
)

// GPUCubeVertexSource is the WGSL VertexInput struct for the unit cube strip.
//
//go:embed assets/cube_vertex.wgsl
var GPUCubeVertexSource string

// GPURaymarchCommonSource holds the WGSL versions of the shared primitives in this package:
// box intersection, step size, hashing, density mapping, reconstruction, normals and the transfer lookup.
//
//go:embed assets/raymarch_common.wgsl
var GPURaymarchCommonSource string

// CubeStrip is the unit cube as a 14-vertex triangle strip. Front faces are culled so each
// fragment starts its ray on the far side of the cube, which keeps rays valid with the eye inside.
var CubeStrip = [14][3]float32{
	{1, 1, 0},
	{0, 1, 0},
	{1, 1, 1},
	{0, 1, 1},
	{0, 0, 1},
	{0, 1, 0},
	{0, 0, 0},
	{1, 1, 0},
	{1, 0, 0},
	{1, 1, 1},
	{1, 0, 1},
	{0, 0, 1},
	{1, 0, 0},
	{0, 0, 0},
}

// CubeStripBytes returns the cube strip as tightly packed float32 positions for a vertex buffer.
func CubeStripBytes() []byte {
	return common.SliceToBytes(CubeStrip[:])
}
