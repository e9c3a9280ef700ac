package raymarch

import (
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/go-gl/mathgl/mgl32"
)

// IntegrateVolume composites the emission-absorption integral front to back along one ray.
//
// Parameters:
//   - s: the density sampler
//   - tf: the transfer function
//   - r: the fragment ray with a normalized direction
//   - p: the parameter snapshot; StepScale is ignored in favour of stepScale
//   - stepScale: the effective step scale for this frame
//   - px: the fragment, for jitter
//
// Returns:
//   - mgl32.Vec4: sRGB-encoded colour with straight coverage alpha
//   - bool: false when the ray misses the volume and the fragment is discarded
func IntegrateVolume(s Sampler, tf TransferFunction, r Ray, p params.Parameters, stepScale float32, px Pixel) (mgl32.Vec4, bool) {
	t0, t1 := IntersectBox(r)
	if t0 > t1 {
		return mgl32.Vec4{}, false
	}
	t0 = max(t0, 0)

	dt := StepSize(s.Field.Size(), r.Dir, stepScale)
	r0, r1 := px.Random()
	phase := r0 * dt
	jitter := (r1 - 0.5) * 0.25 * dt
	pos := r.At(t0 + phase + jitter)

	lo, hi := p.AlphaWindow()
	lo, hi = clamp01(lo), clamp01(hi)
	opacity := max(p.OpacityStrength, 0)

	var rgb mgl32.Vec3
	var alpha float32
	for t := t0; t < t1; t += dt {
		val := DensityToUnit(s.Sample(pos), p.RhoMax, p.LogAlpha)
		c := tf.Lookup(val)

		a := clamp01(Smoothstep(lo, hi, val) * opacity)
		a = CorrectAlpha(a, stepScale)

		rgb = rgb.Add(c.Mul((1 - alpha) * a))
		alpha += (1 - alpha) * a
		if alpha >= EarlyExitAlpha {
			alpha = 1
			break
		}
		pos = pos.Add(r.Dir.Mul(dt))
	}

	return mgl32.Vec4{LinearToSRGB(rgb[0]), LinearToSRGB(rgb[1]), LinearToSRGB(rgb[2]), alpha}, true
}
