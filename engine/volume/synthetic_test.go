package volume

import "testing"

func TestSynthesizeSphere(t *testing.T) {
	g, err := Synthesize(ShapeSphere, [3]int{9, 9, 9}, 1, 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got := g.Voxel(4, 4, 4); got != 1 {
		t.Errorf("centre density = %v, want 1", got)
	}
	if got := g.Voxel(0, 0, 0); got != 0 {
		t.Errorf("corner density = %v, want 0", got)
	}
	if a, b := g.Voxel(4, 4, 2), g.Voxel(4, 4, 3); a >= b {
		t.Errorf("density does not rise towards the centre: %v then %v", a, b)
	}
	if g.VoxelSize != float32(1)/9 {
		t.Errorf("voxel size = %v", g.VoxelSize)
	}
}

func TestSynthesizeBlobs(t *testing.T) {
	dims := [3]int{8, 6, 4}
	a, err := Synthesize(ShapeBlobs, dims, 1, 7)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	b, _ := Synthesize(ShapeBlobs, dims, 1, 7)
	c, _ := Synthesize(ShapeBlobs, dims, 1, 8)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("same seed produced different volumes")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different seeds produced the same volume")
	}
	if m := a.MaxDensity(); m <= 0 || m > 1 {
		t.Errorf("max density = %v, want in (0, 1]", m)
	}
	if a.Dims != dims {
		t.Errorf("dims = %v", a.Dims)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	if _, err := Synthesize("torus", [3]int{2, 2, 2}, 1, 0); err == nil {
		t.Error("unknown shape accepted")
	}
	if _, err := Synthesize(ShapeSphere, [3]int{2, 0, 2}, 1, 0); err == nil {
		t.Error("zero dimension accepted")
	}
}
