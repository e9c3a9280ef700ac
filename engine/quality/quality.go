// Package quality adapts the raymarch step scale to hold a frame-time budget.
package quality

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/common"
)

const (
	// DefaultTarget is the frame time the controller tries to stay under.
	DefaultTarget = 32 * time.Millisecond

	// MinStepScale is the floor applied to the effective step scale.
	MinStepScale float32 = 0.0001

	smoothing float32 = 0.2
)

// Controller tracks a step-scale multiplier driven by observed frame times.
type Controller interface {
	// Observe feeds one measured frame time into the controller.
	//
	// Parameters:
	//   - frameTime: the synchronous duration of the frame's draw, submit and present
	//
	// Returns:
	//   - float32: the multiplier after the observation
	Observe(frameTime time.Duration) float32

	// Reset restores the multiplier to 1 and ignores the next observation.
	Reset()

	// Multiplier returns the current step-scale multiplier.
	//
	// Returns:
	//   - float32: a value of at least 1
	Multiplier() float32

	// EffectiveStepScale applies the multiplier to a base step scale.
	//
	// Parameters:
	//   - base: the user step scale
	//
	// Returns:
	//   - float32: max(MinStepScale, base*multiplier)
	EffectiveStepScale(base float32) float32

	// Target returns the frame-time budget.
	Target() time.Duration
}

type controller struct {
	mu     sync.Mutex
	target time.Duration
	mult   float32
	skip   bool
}

var _ Controller = &controller{}

// NewController creates a Controller at multiplier 1 with a skip armed, since the first frame
// usually carries pipeline and upload costs.
//
// Parameters:
//   - options: optional ControllerBuilderOption functions
//
// Returns:
//   - Controller: the new controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controller{target: DefaultTarget, mult: 1, skip: true}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controller) Observe(frameTime time.Duration) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.skip {
		c.skip = false
		return c.mult
	}
	ratio := float32(frameTime.Seconds() / c.target.Seconds())
	if ratio > c.mult {
		prev := c.mult
		c.mult = (1-smoothing)*c.mult + smoothing*ratio
		common.Logger().Debug("quality multiplier raised", "from", prev, "to", c.mult, "frame", frameTime)
	}
	return c.mult
}

func (c *controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mult = 1
	c.skip = true
}

func (c *controller) Multiplier() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mult
}

func (c *controller) EffectiveStepScale(base float32) float32 {
	return max(MinStepScale, base*c.Multiplier())
}

func (c *controller) Target() time.Duration {
	return c.target
}
