package raymarch

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDensityToUnit(t *testing.T) {
	const rhoMax, alpha = 0.02, 10

	if got := DensityToUnit(0, rhoMax, alpha); got != 0 {
		t.Fatalf("DensityToUnit(0) = %v, want 0", got)
	}
	if got := DensityToUnit(rhoMax, rhoMax, alpha); math32.Abs(got-1) > 1e-6 {
		t.Fatalf("DensityToUnit(rhoMax) = %v, want 1", got)
	}
	if got := DensityToUnit(-5, rhoMax, alpha); got != 0 {
		t.Fatalf("negative density mapped to %v", got)
	}
	if got := DensityToUnit(1, rhoMax, alpha); got != 1 {
		t.Fatalf("density above rhoMax mapped to %v, want 1", got)
	}
	if got := DensityToUnit(0.5, 0, alpha); got != 0 {
		t.Fatalf("zero rhoMax mapped to %v, want 0", got)
	}

	prev := float32(-1)
	for i := 0; i <= 200; i++ {
		v := DensityToUnit(float32(i)*rhoMax/100, rhoMax, alpha)
		if v < prev {
			t.Fatalf("not monotonic at step %d: %v < %v", i, v, prev)
		}
		prev = v
	}
}

func TestCorrectAlpha(t *testing.T) {
	for _, a := range []float32{0, 0.1, 0.5, 0.9} {
		if got := CorrectAlpha(a, 1); math32.Abs(got-a) > 1e-6 {
			t.Fatalf("CorrectAlpha(%v, 1) = %v, want identity", a, got)
		}
		prev := float32(-1)
		for _, s := range []float32{0.1, 0.5, 1, 2, 4} {
			got := CorrectAlpha(a, s)
			if got < prev {
				t.Fatalf("CorrectAlpha(%v, %v) = %v decreased from %v", a, s, got, prev)
			}
			prev = got
		}
	}
	if got := CorrectAlpha(0.5, 2); math32.Abs(got-0.75) > 1e-6 {
		t.Fatalf("CorrectAlpha(0.5, 2) = %v, want 0.75", got)
	}
}

func TestSmoothstep(t *testing.T) {
	if got := Smoothstep(0.2, 0.4, 0.1); got != 0 {
		t.Fatalf("below edge = %v", got)
	}
	if got := Smoothstep(0.2, 0.4, 0.5); got != 1 {
		t.Fatalf("above edge = %v", got)
	}
	if got := Smoothstep(0.2, 0.4, 0.3); math32.Abs(got-0.5) > 1e-6 {
		t.Fatalf("midpoint = %v, want 0.5", got)
	}
	// Equal edges act as a hard step instead of dividing by zero.
	if got := Smoothstep(0.3, 0.3, 0.2); got != 0 {
		t.Fatalf("degenerate below = %v", got)
	}
	if got := Smoothstep(0.3, 0.3, 0.4); got != 1 {
		t.Fatalf("degenerate above = %v", got)
	}
}

func TestLinearToSRGB(t *testing.T) {
	if got := LinearToSRGB(0); got != 0 {
		t.Fatalf("LinearToSRGB(0) = %v", got)
	}
	if got := LinearToSRGB(1); math32.Abs(got-1) > 1e-5 {
		t.Fatalf("LinearToSRGB(1) = %v", got)
	}
	if got := LinearToSRGB(0.002); math32.Abs(got-0.02584) > 1e-5 {
		t.Fatalf("linear segment = %v", got)
	}
	if got := LinearToSRGB(0.214); math32.Abs(got-0.5) > 0.01 {
		t.Fatalf("LinearToSRGB(0.214) = %v, want about 0.5", got)
	}
}

func TestWangHashRange(t *testing.T) {
	for s := uint32(0); s < 100000; s += 7 {
		v := WangHash(s)
		if v < 0 || v > 1 {
			t.Fatalf("WangHash(%d) = %v out of range", s, v)
		}
		if WangHash(s) != v {
			t.Fatalf("WangHash(%d) is not deterministic", s)
		}
	}
	if WangHash(1) == WangHash(2) {
		t.Fatal("neighbouring seeds collide")
	}
}

func TestPixelSeed(t *testing.T) {
	p := Pixel{X: 3, Y: 2, ScreenWidth: 640}
	if p.Seed() != 3+2*640 {
		t.Fatalf("Seed = %d", p.Seed())
	}
	if (Pixel{X: 3, Y: 2}).Seed() != 5 {
		t.Fatal("zero screen width should clamp to 1")
	}
	r0, r1 := p.Random()
	if r0 == r1 {
		t.Fatal("salted second value equals the first")
	}
}

func TestIntersectBox(t *testing.T) {
	r := Ray{Origin: mgl32.Vec3{0.5, 0.5, -1}, Dir: mgl32.Vec3{0, 0, 1}}
	t0, t1 := IntersectBox(r)
	if t0 != 1 || t1 != 2 {
		t.Fatalf("axis ray = [%v, %v], want [1, 2]", t0, t1)
	}

	inside := Ray{Origin: mgl32.Vec3{0.5, 0.5, 0.5}, Dir: mgl32.Vec3{1, 0, 0}}
	t0, t1 = IntersectBox(inside)
	if t0 != -0.5 || t1 != 0.5 {
		t.Fatalf("inside ray = [%v, %v], want [-0.5, 0.5]", t0, t1)
	}

	miss := Ray{Origin: mgl32.Vec3{2, 2, -1}, Dir: mgl32.Vec3{0, 0, 1}}
	if t0, t1 = IntersectBox(miss); t0 <= t1 {
		t.Fatalf("offset ray should miss, got [%v, %v]", t0, t1)
	}
}

func TestStepSize(t *testing.T) {
	dims := [3]int{64, 32, 16}
	if got := StepSize(dims, mgl32.Vec3{1, 0, 0}, 1); got != 1.0/64 {
		t.Fatalf("x step = %v", got)
	}
	if got := StepSize(dims, mgl32.Vec3{0, 0, 1}, 0.5); got != 0.5/16 {
		t.Fatalf("z step = %v", got)
	}
	d := mgl32.Vec3{1, 1, 0}.Normalize()
	want := 1 / (64 * d[0])
	if got := StepSize(dims, d, 1); math32.Abs(got-want) > 1e-7 {
		t.Fatalf("diagonal step = %v, want %v", got, want)
	}
}

func TestVertexRay(t *testing.T) {
	scale := [3]float32{1, 0.5, 0.25}
	tr := Translation(scale)
	if tr != (mgl32.Vec3{0, 0.25, 0.375}) {
		t.Fatalf("Translation = %v", tr)
	}

	r := VertexRay(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{0.5, 0.5, 2}, scale)
	want := mgl32.Vec3{0.5, 0.5, 6.5}
	if !r.Origin.ApproxEqual(want) {
		t.Fatalf("transformed eye = %v, want %v", r.Origin, want)
	}
	if !r.Dir.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("dir = %v", r.Dir)
	}
}

func TestWGSLSampleDensityIsTrilinear(t *testing.T) {
	src := GPURaymarchCommonSource
	start := strings.Index(src, "fn sample_density(")
	end := strings.Index(src, "fn normal_from_density(")
	if start < 0 || end < start {
		t.Fatal("sample_density not found in the shared WGSL")
	}
	body := src[start:end]
	if strings.Contains(body, "dims.w") {
		t.Error("sample_density branches on the texture filter flag")
	}
	if n := strings.Count(body, "voxel("); n != 8 {
		t.Errorf("sample_density loads %d voxels, want 8", n)
	}
}
