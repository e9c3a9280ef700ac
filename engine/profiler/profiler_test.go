package profiler

import (
	"math"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		in       []float64
		wantMean float64
		wantMin  float64
		wantMax  float64
		wantP50  float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"single", []float64{16}, 16, 16, 16, 16},
		{"unsorted", []float64{30, 10, 20, 40}, 25, 10, 40, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.in)
			if got.Samples != len(tt.in) {
				t.Errorf("samples = %d", got.Samples)
			}
			if math.Abs(got.MeanMS-tt.wantMean) > 1e-9 || got.MinMS != tt.wantMin || got.MaxMS != tt.wantMax {
				t.Errorf("mean=%v min=%v max=%v", got.MeanMS, got.MinMS, got.MaxMS)
			}
			if got.P50MS != tt.wantP50 {
				t.Errorf("p50 = %v, want %v", got.P50MS, tt.wantP50)
			}
		})
	}

	in := []float64{30, 10, 20, 40}
	Summarize(in)
	if in[0] != 30 {
		t.Error("Summarize reordered its input")
	}
}

func TestRecordWindow(t *testing.T) {
	p := NewProfiler(WithWindow(3), WithInterval(time.Hour))
	for _, ms := range []int{10, 20, 30, 40} {
		p.Record(time.Duration(ms) * time.Millisecond)
	}
	s := p.Snapshot()
	if s.FrameTimes.Samples != 3 {
		t.Fatalf("samples = %d", s.FrameTimes.Samples)
	}
	if s.FrameTimes.MinMS != 20 || s.FrameTimes.MaxMS != 40 {
		t.Errorf("window min=%v max=%v", s.FrameTimes.MinMS, s.FrameTimes.MaxMS)
	}
	if p.Tick() {
		t.Error("Tick reported before the interval elapsed")
	}
	if s.System.LogicalCPUs <= 0 {
		t.Error("logical CPU count missing")
	}
}
