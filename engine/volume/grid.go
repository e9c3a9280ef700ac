// Package volume defines the voxel grid and the compact binary format it is stored in.
package volume

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/x448/float16"
)

// Grid is a regular 3-D density field. Data holds Nx*Ny*Nz half-float bit patterns,
// row-major with x varying fastest.
type Grid struct {
	Dims      [3]int
	VoxelSize float32
	Data      []uint16
}

// NewGrid builds a Grid from float32 densities, rounding each sample to half precision.
//
// Parameters:
//   - dims: the voxel counts along x, y and z, each positive
//   - voxelSize: world units per voxel
//   - values: exactly dims[0]*dims[1]*dims[2] densities, x fastest
//
// Returns:
//   - *Grid: the new grid
//   - error: an error if dims are invalid or values has the wrong length
func NewGrid(dims [3]int, voxelSize float32, values []float32) (*Grid, error) {
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %v", dims)
	}
	if len(values) != dims[0]*dims[1]*dims[2] {
		return nil, fmt.Errorf("grid %v needs %d values, got %d", dims, dims[0]*dims[1]*dims[2], len(values))
	}
	data := make([]uint16, len(values))
	for i, v := range values {
		data[i] = float16.Fromfloat32(v).Bits()
	}
	return &Grid{Dims: dims, VoxelSize: voxelSize, Data: data}, nil
}

// VoxelCount returns Nx*Ny*Nz.
func (g *Grid) VoxelCount() int {
	return g.Dims[0] * g.Dims[1] * g.Dims[2]
}

// Validate checks that the buffer length matches the dimensions.
func (g *Grid) Validate() error {
	if g == nil {
		return errors.New("nil grid")
	}
	if g.Dims[0] <= 0 || g.Dims[1] <= 0 || g.Dims[2] <= 0 {
		return fmt.Errorf("invalid grid dimensions %v", g.Dims)
	}
	if len(g.Data) != g.VoxelCount() {
		return fmt.Errorf("grid %v holds %d samples, want %d", g.Dims, len(g.Data), g.VoxelCount())
	}
	return nil
}

// Index returns the flat offset of voxel (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return x + g.Dims[0]*(y+g.Dims[1]*z)
}

// Voxel decodes the density at integer lattice coordinates.
func (g *Grid) Voxel(x, y, z int) float32 {
	return float16.Frombits(g.Data[g.Index(x, y, z)]).Float32()
}

// Size returns the dimensions, satisfying the field interface used by the raymarcher.
func (g *Grid) Size() [3]int {
	return g.Dims
}

// Scale returns dims / max(dims), the per-axis factor that fits the volume in a unit cube
// while preserving its aspect ratio.
func (g *Grid) Scale() [3]float32 {
	return FitScale(g.Dims)
}

// FitScale returns dims / max(dims).
//
// Parameters:
//   - dims: the voxel counts along each axis
//
// Returns:
//   - [3]float32: the unit-cube fit scale, largest axis equal to 1
func FitScale(dims [3]int) [3]float32 {
	longest := max(dims[0], dims[1], dims[2])
	if longest <= 0 {
		return [3]float32{1, 1, 1}
	}
	return [3]float32{
		float32(dims[0]) / float32(longest),
		float32(dims[1]) / float32(longest),
		float32(dims[2]) / float32(longest),
	}
}

// MaxDensity returns the largest finite sample in the grid.
func (g *Grid) MaxDensity() float32 {
	var best float32
	for _, bits := range g.Data {
		h := float16.Frombits(bits)
		if h.IsNaN() || h.IsInf(0) {
			continue
		}
		if v := h.Float32(); v > best {
			best = v
		}
	}
	return best
}

// Bytes returns the samples as little-endian half floats, the layout expected by an
// R16Float texture upload.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.Data)*2)
	for i, v := range g.Data {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// Fingerprint hashes the dimensions and samples. Two grids with equal fingerprints are
// treated as the same volume in logs and in the control API.
func (g *Grid) Fingerprint() uint64 {
	d := xxhash.New()
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(g.Dims[0]))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(g.Dims[1]))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(g.Dims[2]))
	_, _ = d.Write(hdr[:])
	_, _ = d.Write(g.Bytes())
	return d.Sum64()
}

// Release drops the CPU copy of the samples once the texture upload no longer needs them.
// Dims and VoxelSize stay valid.
func (g *Grid) Release() {
	g.Data = nil
}

// Info summarizes a grid without its samples.
type Info struct {
	Dims        [3]int  `json:"dims"`
	VoxelSize   float32 `json:"voxel_size"`
	MaxDensity  float32 `json:"max_density"`
	Fingerprint string  `json:"fingerprint"`
}

// Describe returns the Info for this grid. It must be called before Release.
func (g *Grid) Describe() Info {
	return Info{
		Dims:        g.Dims,
		VoxelSize:   g.VoxelSize,
		MaxDensity:  g.MaxDensity(),
		Fingerprint: fmt.Sprintf("%016x", g.Fingerprint()),
	}
}
