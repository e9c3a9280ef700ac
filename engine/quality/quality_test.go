package quality

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
)

func TestConvergesTowardRatio(t *testing.T) {
	c := NewController()
	c.Reset()
	c.Observe(64 * time.Millisecond) // skipped

	var m float32
	for range 60 {
		m = c.Observe(64 * time.Millisecond)
	}
	if math32.Abs(m-2) > 0.01 {
		t.Fatalf("multiplier = %v after sustained 2x frames, want about 2", m)
	}
}

func TestUnderTargetStaysAtOne(t *testing.T) {
	c := NewController()
	c.Reset()
	for range 20 {
		c.Observe(10 * time.Millisecond)
	}
	if got := c.Multiplier(); got != 1 {
		t.Fatalf("multiplier = %v, want 1", got)
	}
}

func TestResetSkipsNextObservation(t *testing.T) {
	c := NewController()
	c.Observe(0) // initial skip
	c.Observe(320 * time.Millisecond)
	if c.Multiplier() <= 1 {
		t.Fatal("slow frame did not raise the multiplier")
	}

	c.Reset()
	if got := c.Observe(320 * time.Millisecond); got != 1 {
		t.Fatalf("first observation after reset changed the multiplier to %v", got)
	}
	if got := c.Observe(320 * time.Millisecond); got <= 1 {
		t.Fatalf("second observation after reset = %v, want > 1", got)
	}
}

func TestMultiplierNeverDecreases(t *testing.T) {
	c := NewController(WithTarget(10 * time.Millisecond))
	c.Observe(0)
	prev := c.Multiplier()
	for _, ms := range []int{30, 5, 50, 1, 12, 40, 2} {
		m := c.Observe(time.Duration(ms) * time.Millisecond)
		if m < prev {
			t.Fatalf("multiplier fell from %v to %v", prev, m)
		}
		prev = m
	}
}

func TestEffectiveStepScale(t *testing.T) {
	c := NewController()
	if got := c.EffectiveStepScale(0.5); got != 0.5 {
		t.Fatalf("EffectiveStepScale = %v, want 0.5", got)
	}
	if got := c.EffectiveStepScale(0); got != MinStepScale {
		t.Fatalf("EffectiveStepScale(0) = %v, want the floor", got)
	}
	if c.Target() != DefaultTarget {
		t.Fatalf("Target = %v", c.Target())
	}
}
