// Package raymarch is the CPU reference of the raymarching shaders. It evaluates the same float32
// math as the WGSL programs, one fragment at a time, and backs the offline renderer.
package raymarch

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// IsoRhoMax and IsoLogAlpha are the fixed density mapping used to colour isosurface hits.
	IsoRhoMax   float32 = 0.02
	IsoLogAlpha float32 = 10

	Ambient   float32 = 0.25
	Diffuse   float32 = 0.90
	Specular  float32 = 0.20
	Shininess float32 = 48

	// EarlyExitAlpha ends volume compositing once the ray is effectively opaque.
	EarlyExitAlpha float32 = 0.99

	BisectionSteps = 8

	// jitterSalt decorrelates the second per-pixel random value from the first.
	jitterSalt uint32 = 0x9e3779b9
)

// Ray is a view ray in volume texture space, where the volume occupies the unit cube.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Translation is the offset that centres a scaled volume inside the unit cube.
func Translation(scale [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{0.5 - 0.5*scale[0], 0.5 - 0.5*scale[1], 0.5 - 0.5*scale[2]}
}

// VertexRay mirrors the vertex stage: it maps the world-space eye into volume texture space and
// returns the normalized ray from there towards the cube vertex pos.
//
// Parameters:
//   - pos: a unit-cube position in [0, 1]^3
//   - eye: the world-space eye position
//   - scale: the per-axis fit scale of the volume
//
// Returns:
//   - Ray: the fragment ray with a normalized direction
func VertexRay(pos, eye mgl32.Vec3, scale [3]float32) Ray {
	tr := Translation(scale)
	d := eye.Sub(tr)
	te := mgl32.Vec3{d[0] / scale[0], d[1] / scale[1], d[2] / scale[2]}
	return Ray{Origin: te, Dir: pos.Sub(te).Normalize()}
}

// IntersectBox intersects the ray with the unit cube using the slab method. The ray misses when
// tNear > tFar.
func IntersectBox(r Ray) (tNear, tFar float32) {
	tNear = math32.Inf(-1)
	tFar = math32.Inf(1)
	for i := range 3 {
		inv := 1 / r.Dir[i]
		t0 := (0 - r.Origin[i]) * inv
		t1 := (1 - r.Origin[i]) * inv
		tNear = max(tNear, min(t0, t1))
		tFar = min(tFar, max(t0, t1))
	}
	return tNear, tFar
}

// StepSize returns the marching step for a normalized direction: stepScale times the smallest
// per-axis distance that advances one voxel.
func StepSize(dims [3]int, dir mgl32.Vec3, stepScale float32) float32 {
	dt := math32.Inf(1)
	for i := range 3 {
		dt = min(dt, 1/(float32(dims[i])*math32.Abs(dir[i])))
	}
	return stepScale * dt
}

// WangHash maps an integer seed to a pseudo-random value in [0, 1).
func WangHash(seed uint32) float32 {
	seed = (seed ^ 61) ^ (seed >> 16)
	seed *= 9
	seed ^= seed >> 4
	seed *= 0x27d4eb2d
	seed ^= seed >> 15
	return float32(seed%2147483647) / 2147483647
}

// Pixel identifies the fragment being shaded, for seeding the per-pixel jitter.
type Pixel struct {
	X, Y        int
	ScreenWidth int
}

// Seed returns the integer hash seed of the pixel.
func (p Pixel) Seed() uint32 {
	return uint32(p.X) + uint32(max(1, p.ScreenWidth))*uint32(p.Y)
}

// Random returns the two per-pixel random values used to offset ray starts.
func (p Pixel) Random() (r0, r1 float32) {
	s := p.Seed()
	return WangHash(s), WangHash(s ^ jitterSalt)
}

// DensityToUnit maps a raw density onto [0, 1] with a log curve normalized at rhoMax. A
// non-positive denominator maps everything to 0.
func DensityToUnit(rho, rhoMax, logAlpha float32) float32 {
	rho = max(rho, 0)
	denom := math32.Log(1 + logAlpha*max(rhoMax, 0))
	if denom <= 0 {
		return 0
	}
	return clamp01(math32.Log(1+logAlpha*rho) / denom)
}

// Smoothstep is the Hermite step between e0 and e1. Equal edges degrade to a hard step.
func Smoothstep(e0, e1, x float32) float32 {
	t := clamp01((x - e0) / max(e1-e0, 1e-6))
	return t * t * (3 - 2*t)
}

// CorrectAlpha rescales a per-sample opacity for a step that is stepScale voxels long.
func CorrectAlpha(a, stepScale float32) float32 {
	return 1 - math32.Pow(1-a, stepScale)
}

// LinearToSRGB applies the sRGB transfer curve to one channel.
func LinearToSRGB(x float32) float32 {
	if x <= 0.0031308 {
		return 12.92 * x
	}
	return 1.055*math32.Pow(x, 1/2.4) - 0.055
}

func clamp01(x float32) float32 {
	return min(max(x, 0), 1)
}
