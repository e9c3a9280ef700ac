package params

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestDefaultsAreSane(t *testing.T) {
	d := Defaults()
	if d != d.Sanitized() {
		t.Fatalf("defaults change under sanitization: %+v vs %+v", d, d.Sanitized())
	}
	if d.StepScale != 1 || d.RhoMax != 0.02 || d.LogAlpha != 10 || d.IsoValue != 0.001 {
		t.Fatalf("unexpected defaults %+v", d)
	}
}

func TestSetClampsInsteadOfRejecting(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		want  float32
	}{
		{NameStepScale, 100, 4},
		{NameStepScale, -1, 0.1},
		{NameOpacityStrength, -5, 0},
		{NameAlphaHi, 2, 1},
		{NameIsoValue, float32(math.NaN()), 0.001},
		{NameLogAlpha, float32(math.Inf(1)), 10},
		{NameRhoMax, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(Defaults())
			got, err := s.Set(tt.name, tt.value)
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Set(%s, %v) stored %v, want %v", tt.name, tt.value, got, tt.want)
			}
		})
	}
}

func TestAlphaParametersAreIndependent(t *testing.T) {
	type set struct {
		name  string
		value float32
	}
	tests := []struct {
		name   string
		sets   []set
		lo, hi float32
	}{
		{"lo above default hi", []set{{NameAlphaLo, 0.8}}, 0.8, 0.35},
		{"lo then hi", []set{{NameAlphaLo, 0.8}, {NameAlphaHi, 0.9}}, 0.8, 0.9},
		{"hi then lo", []set{{NameAlphaHi, 0.9}, {NameAlphaLo, 0.8}}, 0.8, 0.9},
		{"hi below lo", []set{{NameAlphaHi, 0.01}}, 0.05, 0.01},
		{"inverted then repaired", []set{{NameAlphaLo, 0.9}, {NameAlphaHi, 0.1}, {NameAlphaHi, 0.95}}, 0.9, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(Defaults())
			for _, st := range tt.sets {
				got, err := s.Set(st.name, st.value)
				if err != nil {
					t.Fatalf("Set(%s): %v", st.name, err)
				}
				if got != st.value {
					t.Fatalf("Set(%s, %v) stored %v", st.name, st.value, got)
				}
			}
			p := s.Snapshot()
			if p.AlphaLo != tt.lo || p.AlphaHi != tt.hi {
				t.Fatalf("alpha = [%v, %v], want [%v, %v]", p.AlphaLo, p.AlphaHi, tt.lo, tt.hi)
			}
			lo, hi := p.AlphaWindow()
			if lo != min(tt.lo, tt.hi) || hi != max(tt.lo, tt.hi) {
				t.Fatalf("AlphaWindow = [%v, %v]", lo, hi)
			}
		})
	}
}

func TestSetAllAppliesBatch(t *testing.T) {
	orders := [][]string{
		{NameAlphaLo, NameAlphaHi, NameIsoValue},
		{NameIsoValue, NameAlphaHi, NameAlphaLo},
		{NameAlphaHi, NameIsoValue, NameAlphaLo},
	}
	values := map[string]float32{NameAlphaLo: 0.8, NameAlphaHi: 0.9, NameIsoValue: 0.5}
	for _, order := range orders {
		s := NewStore(Defaults())
		for _, name := range order {
			if _, err := s.Set(name, values[name]); err != nil {
				t.Fatal(err)
			}
		}
		sequential := s.Snapshot()

		batch := NewStore(Defaults())
		before := batch.Version()
		got, err := batch.SetAll(values)
		if err != nil {
			t.Fatal(err)
		}
		if got != sequential || batch.Snapshot() != sequential {
			t.Fatalf("order %v: batch %+v, sequential %+v", order, got, sequential)
		}
		if batch.Version() != before+1 {
			t.Fatalf("batch bumped the version %d times", batch.Version()-before)
		}
	}

	s := NewStore(Defaults())
	if _, err := s.SetAll(map[string]float32{NameRhoMax: 0.5, "gamma": 1}); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("err = %v, want ErrUnknownParameter", err)
	}
	if s.Snapshot() != Defaults() {
		t.Fatal("rejected batch changed the store")
	}
}

func TestUnknownParameter(t *testing.T) {
	s := NewStore(Defaults())
	before := s.Version()
	if _, err := s.Set("gamma", 2); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("err = %v, want ErrUnknownParameter", err)
	}
	if s.Version() != before {
		t.Fatal("failed Set must not bump the version")
	}
}

func TestSetModeReportsChange(t *testing.T) {
	s := NewStore(Defaults())
	if s.SetMode(ModeVolume) {
		t.Fatal("setting the current mode reported a change")
	}
	if !s.SetMode(ModeIsosurface) {
		t.Fatal("switching mode reported no change")
	}
	if s.Snapshot().Mode != ModeIsosurface {
		t.Fatal("mode not stored")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewStore(Defaults())
	snap := s.Snapshot()
	s.Set(NameIsoValue, 0.5)
	if snap.IsoValue != 0.001 {
		t.Fatal("snapshot changed after a later Set")
	}
}

func TestConcurrentSetAndSnapshot(t *testing.T) {
	s := NewStore(Defaults())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(NameAlphaLo, float32(j%10)/10)
				s.Set(NameAlphaHi, float32(i)/10)
			}
		}(i)
	}
	for i := 0; i < 200; i++ {
		p := s.Snapshot()
		if lo, hi := p.AlphaWindow(); lo > hi {
			t.Fatalf("alpha window [%v, %v] is not ordered", lo, hi)
		}
	}
	wg.Wait()
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"volume": ModeVolume, "ISO": ModeIsosurface, " isosurface ": ModeIsosurface} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("mip"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestGPUUniformLayouts(t *testing.T) {
	fu := GPUFrameUniform{Dims: [3]int32{4, 5, 6}, Scale: [3]float32{1, 0.5, 0.25}, Screen: [2]float32{800, 600}, StepScale: 1.5}
	buf := fu.Marshal()
	if len(buf) != 48 {
		t.Fatalf("frame uniform is %d bytes, want 48", len(buf))
	}
	if binary.LittleEndian.Uint32(buf[8:]) != 6 {
		t.Fatal("dims.z not at offset 8")
	}
	if binary.LittleEndian.Uint32(buf[12:]) != 0 {
		t.Fatal("nearest filter flag should be zero")
	}
	fu.Linear = true
	if binary.LittleEndian.Uint32(fu.Marshal()[12:]) != 1 {
		t.Fatal("linear filter flag not at offset 12")
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(buf[20:])) != 0.5 {
		t.Fatal("scale.y not at offset 20")
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(buf[40:])) != 1.5 {
		t.Fatal("step scale not at offset 40")
	}

	vp := NewGPUVolumeParams(Defaults())
	vbuf := vp.Marshal()
	if len(vbuf) != 32 || math.Float32frombits(binary.LittleEndian.Uint32(vbuf[12:])) != 0.35 {
		t.Fatal("volume params layout mismatch")
	}

	ip := NewGPUIsoParams(Defaults())
	if b := ip.Marshal(); len(b) != 16 || math.Float32frombits(binary.LittleEndian.Uint32(b)) != 0.001 {
		t.Fatal("iso params layout mismatch")
	}
}
