package volume

import "testing"

func TestFitScale(t *testing.T) {
	tests := []struct {
		dims [3]int
		want [3]float32
	}{
		{[3]int{4, 4, 4}, [3]float32{1, 1, 1}},
		{[3]int{8, 4, 2}, [3]float32{1, 0.5, 0.25}},
		{[3]int{1, 10, 5}, [3]float32{0.1, 1, 0.5}},
	}
	for _, tt := range tests {
		if got := FitScale(tt.dims); got != tt.want {
			t.Errorf("FitScale(%v) = %v, want %v", tt.dims, got, tt.want)
		}
	}
}

func TestGridIndexIsXFastest(t *testing.T) {
	g := &Grid{Dims: [3]int{3, 4, 5}}
	if g.Index(1, 0, 0) != 1 || g.Index(0, 1, 0) != 3 || g.Index(0, 0, 1) != 12 {
		t.Fatalf("unexpected strides: %d %d %d", g.Index(1, 0, 0), g.Index(0, 1, 0), g.Index(0, 0, 1))
	}
}

func TestNewGridValidation(t *testing.T) {
	if _, err := NewGrid([3]int{2, 2, 0}, 1, nil); err == nil {
		t.Fatal("zero dimension accepted")
	}
	if _, err := NewGrid([3]int{2, 2, 2}, 1, make([]float32, 7)); err == nil {
		t.Fatal("short value slice accepted")
	}
	g, err := NewGrid([3]int{2, 2, 2}, 1, make([]float32, 8))
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestMaxDensityAndRelease(t *testing.T) {
	g, _ := NewGrid([3]int{2, 1, 1}, 1, []float32{0.5, 3})
	if got := g.MaxDensity(); got != 3 {
		t.Fatalf("MaxDensity = %v, want 3", got)
	}
	info := g.Describe()
	if info.Dims != g.Dims || len(info.Fingerprint) != 16 {
		t.Fatalf("unexpected info %+v", info)
	}
	g.Release()
	if g.Data != nil || g.Dims != [3]int{2, 1, 1} {
		t.Fatal("Release should drop samples but keep dimensions")
	}
}
