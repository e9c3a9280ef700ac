package quality

import "time"

// ControllerBuilderOption is a functional option for configuring a Controller.
type ControllerBuilderOption func(*controller)

// WithTarget sets the frame-time budget. Non-positive values are ignored.
//
// Parameters:
//   - target: the frame time to stay under
//
// Returns:
//   - ControllerBuilderOption: the option
func WithTarget(target time.Duration) ControllerBuilderOption {
	return func(c *controller) {
		if target > 0 {
			c.target = target
		}
	}
}
