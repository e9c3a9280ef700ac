package mode

import (
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
)

// ControllerBuilderOption is a functional option applied to a controller during NewController.
type ControllerBuilderOption func(*controller)

// WithInitialMode sets the mode that is active and bound at Init.
//
// Parameters:
//   - m: the initial mode
//
// Returns:
//   - ControllerBuilderOption: the option
func WithInitialMode(m params.Mode) ControllerBuilderOption {
	return func(c *controller) {
		c.active = m
	}
}

// WithForceNearest makes the density texture manager reconstruct with nearest filtering.
//
// Parameters:
//   - force: true to disable linear reconstruction
//
// Returns:
//   - ControllerBuilderOption: the option
func WithForceNearest(force bool) ControllerBuilderOption {
	return func(c *controller) {
		c.forceNearest = force
	}
}

// WithCameraProvider makes both variants write the camera uniform through the given provider,
// usually the one owned by the viewer's camera. Nil keeps the controller's own provider.
//
// Parameters:
//   - provider: the camera bind group provider
//
// Returns:
//   - ControllerBuilderOption: the option
func WithCameraProvider(provider bind_group_provider.BindGroupProvider) ControllerBuilderOption {
	return func(c *controller) {
		if provider != nil {
			c.shared.camera = provider
		}
	}
}
