package camera

// Controller translates raw window input into camera motion and viewer actions.
// Left-drag rotates, right-drag pans, the wheel zooms and R resets the camera.
// Other keys dispatch to actions registered with Bind, which lets the viewer attach
// screenshot, mode and colormap commands without the camera knowing about them.
type Controller interface {
	// Camera returns the camera this controller drives.
	//
	// Returns:
	//   - Camera: the controlled camera
	Camera() Camera

	// HandleMouseButton records a mouse button press or release at the given cursor position.
	//
	// Parameters:
	//   - button: the GLFW mouse button index
	//   - pressed: true on press, false on release
	//   - x, y: cursor position in pixels
	HandleMouseButton(button int, pressed bool, x, y float32)

	// HandleMouseMove applies rotation or panning for the buttons currently held.
	//
	// Parameters:
	//   - x, y: cursor position in pixels
	HandleMouseMove(x, y float32)

	// HandleScroll zooms the camera by the given number of wheel notches.
	//
	// Parameters:
	//   - delta: wheel notches, positive moves closer
	HandleScroll(delta float32)

	// HandleKey runs the action bound to the key, if any.
	//
	// Parameters:
	//   - keyCode: GLFW key code
	//
	// Returns:
	//   - bool: true if an action ran
	HandleKey(keyCode uint32) bool

	// Bind registers an action for a key, replacing any previous binding.
	// A nil action removes the binding.
	//
	// Parameters:
	//   - keyCode: GLFW key code
	//   - action: callback to run on key press
	Bind(keyCode uint32, action func())
}
