package raymarch

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// IsoState is a phase of the isosurface march.
type IsoState int

const (
	StateSearching IsoState = iota
	StateRefining
	StateShading
	StateHit
	StateMiss
)

func (s IsoState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateRefining:
		return "refining"
	case StateShading:
		return "shading"
	case StateHit:
		return "hit"
	case StateMiss:
		return "miss"
	}
	return "unknown"
}

// IsoResult is the outcome of marching one ray against the isosurface.
type IsoResult struct {
	State IsoState

	// T is the refined hit distance, without jitter.
	T float32

	Point  mgl32.Vec3
	Normal mgl32.Vec3

	// Color is linear RGB and is written out without sRGB encoding.
	Color mgl32.Vec3

	// Trace lists the states visited, in order.
	Trace []IsoState
}

// Bisect narrows the bracket [a, b], where sample(a) < iso <= sample(b), for the given number of
// iterations and returns its midpoint.
func Bisect(sample func(t float32) float32, iso, a, b float32, steps int) float32 {
	for range steps {
		m := 0.5 * (a + b)
		if sample(m) >= iso {
			b = m
		} else {
			a = m
		}
	}
	return 0.5 * (a + b)
}

// MarchIsosurface runs the search, refine and shade phases for one ray. Crossings are detected on
// the raw density while the colour comes from the fixed isosurface density mapping.
//
// Parameters:
//   - s: the density sampler
//   - tf: the transfer function
//   - r: the fragment ray with a normalized direction
//   - iso: the raw density threshold
//   - stepScale: the effective step scale for this frame
//   - px: the fragment, for jitter
//
// Returns:
//   - IsoResult: StateHit with the shaded colour, or StateMiss
func MarchIsosurface(s Sampler, tf TransferFunction, r Ray, iso, stepScale float32, px Pixel) IsoResult {
	var res IsoResult
	enter := func(st IsoState) {
		res.Trace = append(res.Trace, st)
		res.State = st
	}
	enter(StateSearching)

	t0, t1 := IntersectBox(r)
	if t0 > t1 {
		enter(StateMiss)
		return res
	}
	t0 = max(t0, 0)

	dt := StepSize(s.Field.Size(), r.Dir, stepScale)
	r0, _ := px.Random()
	jitter := (r0 - 0.5) * 0.25 * dt
	sampleAt := func(t float32) float32 {
		return s.Sample(r.At(t + jitter))
	}

	prev := sampleAt(t0)
	var lo, hi float32
	found := false
	for t := t0; t < t1; t += dt {
		cur := sampleAt(t)
		if prev < iso && cur >= iso {
			lo, hi = t-dt, t
			found = true
			break
		}
		prev = cur
	}
	if !found {
		enter(StateMiss)
		return res
	}

	enter(StateRefining)
	res.T = Bisect(sampleAt, iso, lo, hi, BisectionSteps)
	res.Point = r.At(res.T + jitter)

	enter(StateShading)
	res.Normal = s.Normal(res.Point)
	base := tf.Lookup(DensityToUnit(s.Sample(res.Point), IsoRhoMax, IsoLogAlpha))
	res.Color = Shade(base, res.Normal, r.Dir)

	enter(StateHit)
	return res
}

// Shade applies the headlight model: ambient plus Lambert diffuse on base, and a white specular
// lobe, with light and half vectors along the view direction.
func Shade(base, n, dir mgl32.Vec3) mgl32.Vec3 {
	l := dir.Mul(-1).Normalize()
	diff := max(n.Dot(l), 0)
	spec := math32.Pow(max(n.Dot(l), 0), Shininess)
	s := Specular * spec
	return base.Mul(Ambient + Diffuse*diff).Add(mgl32.Vec3{s, s, s})
}
