package window

// Defaults applied by NewWindow before any option.
const (
	DefaultTitle  = "oxy-volume"
	DefaultWidth  = 1280
	DefaultHeight = 720

	// The minimum keeps the raymarched cube legible; the maximum matches a 4K display.
	DefaultMinWidth  = 320
	DefaultMinHeight = 240
	DefaultMaxWidth  = 3840
	DefaultMaxHeight = 2160
)

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Options that receive an empty title or a non-positive size leave the default in place.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title prefix shown before the volume and mode.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		if title != "" {
			w.title = title
		}
	}
}

// WithSize sets the initial framebuffer size. NewWindow clamps it into the size limits.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithMinSize sets the smallest size the window can be resized to.
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.minWidth, w.minHeight = width, height
		}
	}
}

// WithMaxSize sets the largest size the window can be resized to.
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.maxWidth, w.maxHeight = width, height
		}
	}
}

// newEngineWindow applies the defaults and options, then fits the initial size into the limits.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     DefaultTitle,
		width:     DefaultWidth,
		height:    DefaultHeight,
		minWidth:  DefaultMinWidth,
		minHeight: DefaultMinHeight,
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
	}
	for _, opt := range options {
		opt(w)
	}
	w.maxWidth = max(w.maxWidth, w.minWidth)
	w.maxHeight = max(w.maxHeight, w.minHeight)
	w.width = min(max(w.width, w.minWidth), w.maxWidth)
	w.height = min(max(w.height, w.minHeight), w.maxHeight)
	return w
}
