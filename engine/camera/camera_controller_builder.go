package camera

// ControllerOption is a functional option for configuring a Controller.
type ControllerOption func(*controllerImpl)

// WithWheelStep sets how many zoom units a single wheel notch is worth.
// Zoom units are pixels of the original scroll model, scaled by the inverse viewport height.
//
// Parameters:
//   - step: zoom amount per notch
//
// Returns:
//   - ControllerOption: functional option to set the wheel step
func WithWheelStep(step float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.wheelStep = step
	}
}

// WithKeyBinding registers an action for a key at construction time.
//
// Parameters:
//   - keyCode: GLFW key code
//   - action: callback to run on key press
//
// Returns:
//   - ControllerOption: functional option to add the binding
func WithKeyBinding(keyCode uint32, action func()) ControllerOption {
	return func(cc *controllerImpl) {
		if action != nil {
			cc.bindings[keyCode] = action
		}
	}
}
