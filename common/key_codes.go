package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyC     = 67  // C key (ASCII), cycles the colormap
	KeyI     = 73  // I key (ASCII), selects isosurface mode
	KeyM     = 77  // M key (ASCII), toggles render mode
	KeyP     = 80  // P key (ASCII), requests a screenshot
	KeyR     = 82  // R key (ASCII), resets the camera
	KeyV     = 86  // V key (ASCII), selects volume mode
	KeyEsc   = 256 // Escape key (GLFW)
	KeyEqual = 61  // = key (ASCII), raises the step scale
	KeyMinus = 45  // - key (ASCII), lowers the step scale
)

// Mouse buttons as reported by GLFW.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
