package raymarch

import (
	"github.com/Carmen-Shannon/oxy-volume/engine/volume"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Field is a regular scalar grid addressed by integer voxel coordinates.
type Field interface {
	// Size returns the voxel counts along x, y and z.
	Size() [3]int

	// Voxel returns the density at an in-range voxel.
	Voxel(x, y, z int) float32
}

var _ Field = &DenseField{}
var _ Field = &volume.Grid{}

// DenseField is a Field holding decoded float32 voxels, x varying fastest.
type DenseField struct {
	Dims   [3]int
	Values []float32
}

// NewDenseField decodes every voxel of g once so repeated sampling skips the fp16 conversion.
//
// Parameters:
//   - g: the source grid
//
// Returns:
//   - *DenseField: the decoded field
func NewDenseField(g *volume.Grid) *DenseField {
	f := &DenseField{Dims: g.Dims, Values: make([]float32, g.VoxelCount())}
	i := 0
	for z := range g.Dims[2] {
		for y := range g.Dims[1] {
			for x := range g.Dims[0] {
				f.Values[i] = g.Voxel(x, y, z)
				i++
			}
		}
	}
	return f
}

func (f *DenseField) Size() [3]int {
	return f.Dims
}

func (f *DenseField) Voxel(x, y, z int) float32 {
	return f.Values[x+f.Dims[0]*(y+f.Dims[1]*z)]
}

// Sampler reconstructs a continuous density from a Field over the unit cube.
type Sampler struct {
	Field  Field
	Linear bool
}

// Sample returns the density at p in [0, 1]^3. Points outside are clamped to the edge voxels.
// Linear samplers interpolate the eight neighbours along x, then y, then z; others pick the
// nearest voxel.
func (s Sampler) Sample(p mgl32.Vec3) float32 {
	dims := s.Field.Size()
	var i0, i1 [3]int
	var f [3]float32
	for a := range 3 {
		c := clamp01(p[a]) * float32(dims[a]-1)
		if !s.Linear {
			i0[a] = int(math32.Floor(c + 0.5))
			continue
		}
		fl := math32.Floor(c)
		i0[a] = int(fl)
		i1[a] = min(i0[a]+1, dims[a]-1)
		f[a] = c - fl
	}
	if !s.Linear {
		return s.Field.Voxel(i0[0], i0[1], i0[2])
	}

	v := s.Field.Voxel
	c00 := mix(v(i0[0], i0[1], i0[2]), v(i1[0], i0[1], i0[2]), f[0])
	c10 := mix(v(i0[0], i1[1], i0[2]), v(i1[0], i1[1], i0[2]), f[0])
	c01 := mix(v(i0[0], i0[1], i1[2]), v(i1[0], i0[1], i1[2]), f[0])
	c11 := mix(v(i0[0], i1[1], i1[2]), v(i1[0], i1[1], i1[2]), f[0])
	c0 := mix(c00, c10, f[1])
	c1 := mix(c01, c11, f[1])
	return mix(c0, c1, f[2])
}

// Normal estimates the surface normal at p from central differences one voxel apart. A
// vanishing gradient yields +Z.
func (s Sampler) Normal(p mgl32.Vec3) mgl32.Vec3 {
	dims := s.Field.Size()
	var g mgl32.Vec3
	for a := range 3 {
		var e mgl32.Vec3
		e[a] = 1 / float32(dims[a])
		g[a] = s.Sample(p.Add(e)) - s.Sample(p.Sub(e))
	}
	if g.Len() <= 1e-12 {
		return mgl32.Vec3{0, 0, 1}
	}
	return g.Mul(-1).Normalize()
}

func mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}
