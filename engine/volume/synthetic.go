package volume

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/chewxy/math32"
)

// Synthetic volume shapes understood by Synthesize.
const (
	ShapeBlobs  = "blobs"
	ShapeSphere = "sphere"
)

// Shapes returns the synthetic shape names.
func Shapes() []string {
	return []string{ShapeBlobs, ShapeSphere}
}

// Synthesize builds a test volume of the given shape over the unit cube.
//
// blobs is a sum of Gaussian blobs at seeded random centres, peaking around peak.
// sphere is a solid ball of radius 0.35 whose density falls linearly from peak at the centre to
// zero at the surface, so every iso value in (0, peak) yields a nested sphere.
//
// Parameters:
//   - shape: ShapeBlobs or ShapeSphere
//   - dims: voxel counts along x, y and z
//   - peak: the maximum density
//   - seed: seeds the blob placement, ignored for sphere
//
// Returns:
//   - *Grid: the volume, with voxel size 1/max(dims)
//   - error: an error for an unknown shape or invalid dims
func Synthesize(shape string, dims [3]int, peak float32, seed uint64) (*Grid, error) {
	if !slices.Contains(Shapes(), shape) {
		return nil, fmt.Errorf("unknown synthetic shape %q", shape)
	}
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %v", dims)
	}

	var density func(p [3]float32) float32
	switch shape {
	case ShapeSphere:
		density = func(p [3]float32) float32 {
			r := math32.Sqrt(sq(p[0]-0.5) + sq(p[1]-0.5) + sq(p[2]-0.5))
			return peak * max(0, 1-r/0.35)
		}
	default:
		density = blobField(peak, seed)
	}

	values := make([]float32, dims[0]*dims[1]*dims[2])
	i := 0
	for z := range dims[2] {
		for y := range dims[1] {
			for x := range dims[0] {
				values[i] = density([3]float32{
					voxelCentre(x, dims[0]),
					voxelCentre(y, dims[1]),
					voxelCentre(z, dims[2]),
				})
				i++
			}
		}
	}
	return NewGrid(dims, 1/float32(max(dims[0], dims[1], dims[2])), values)
}

type blob struct {
	centre [3]float32
	sigma  float32
	weight float32
}

func blobField(peak float32, seed uint64) func(p [3]float32) float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	blobs := make([]blob, 6)
	for i := range blobs {
		blobs[i] = blob{
			centre: [3]float32{0.2 + 0.6*rng.Float32(), 0.2 + 0.6*rng.Float32(), 0.2 + 0.6*rng.Float32()},
			sigma:  0.05 + 0.1*rng.Float32(),
			weight: 0.5 + 0.5*rng.Float32(),
		}
	}
	return func(p [3]float32) float32 {
		var sum float32
		for _, b := range blobs {
			d2 := sq(p[0]-b.centre[0]) + sq(p[1]-b.centre[1]) + sq(p[2]-b.centre[2])
			sum += b.weight * math32.Exp(-d2/(2*b.sigma*b.sigma))
		}
		return peak * min(sum, 1)
	}
}

func voxelCentre(i, n int) float32 {
	return (float32(i) + 0.5) / float32(n)
}

func sq(v float32) float32 {
	return v * v
}
