package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithEye sets the default eye position restored by Reset.
//
// Parameters:
//   - eye: world-space eye position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's eye
func WithEye(eye mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eye = eye
	}
}

// WithCenter sets the orbit center restored by Reset.
//
// Parameters:
//   - center: world-space orbit center
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's center
func WithCenter(center mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.center = center
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - up: the up direction, need not be normalized
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithZoomSpeed sets the multiplier applied to zoom input.
//
// Parameters:
//   - speed: zoom speed factor
//
// Returns:
//   - CameraBuilderOption: a function that sets the zoom speed
func WithZoomSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoomSpeed = speed
	}
}

// WithViewport sets the initial framebuffer size.
//
// Parameters:
//   - width, height: framebuffer size in pixels, ignored when not positive
//
// Returns:
//   - CameraBuilderOption: a function that sets the viewport
func WithViewport(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width <= 0 || height <= 0 {
			return
		}
		c.width, c.height = width, height
		c.invScreen = mgl32.Vec2{1 / float32(width), 1 / float32(height)}
	}
}
