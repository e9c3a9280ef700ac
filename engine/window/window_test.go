package window

import "testing"

func TestVisibility(t *testing.T) {
	w := &engineWindow{width: 800, height: 600}
	var events []bool
	w.SetVisibilityCallback(func(visible bool) { events = append(events, visible) })

	if !w.Visible() {
		t.Fatal("sized window should be visible")
	}

	w.setIconified(true)
	w.setIconified(true)
	if w.Visible() {
		t.Error("iconified window reported visible")
	}
	w.setIconified(false)
	if !w.Visible() {
		t.Error("restored window reported hidden")
	}
	if len(events) != 2 || events[0] || !events[1] {
		t.Errorf("visibility events = %v", events)
	}

	w.width = 0
	if w.Visible() {
		t.Error("zero-width window reported visible")
	}
}

func TestBuilderOptions(t *testing.T) {
	tests := []struct {
		name       string
		options    []WindowBuilderOption
		title      string
		size       [2]int
		minW, maxW int
	}{
		{"defaults", nil, DefaultTitle, [2]int{DefaultWidth, DefaultHeight}, DefaultMinWidth, DefaultMaxWidth},
		{
			name:    "explicit",
			options: []WindowBuilderOption{WithTitle("volume"), WithSize(1024, 768), WithMinSize(100, 80), WithMaxSize(2000, 1500)},
			title:   "volume", size: [2]int{1024, 768}, minW: 100, maxW: 2000,
		},
		{
			name:    "empty title and zero size keep defaults",
			options: []WindowBuilderOption{WithTitle(""), WithSize(0, 600), WithMinSize(-1, 10)},
			title:   DefaultTitle, size: [2]int{DefaultWidth, DefaultHeight}, minW: DefaultMinWidth, maxW: DefaultMaxWidth,
		},
		{
			name:    "size clamped to limits",
			options: []WindowBuilderOption{WithSize(10000, 10), WithMaxSize(1920, 1080)},
			title:   DefaultTitle, size: [2]int{1920, DefaultMinHeight}, minW: DefaultMinWidth, maxW: 1920,
		},
		{
			name:    "max below min",
			options: []WindowBuilderOption{WithMinSize(800, 600), WithMaxSize(400, 300)},
			title:   DefaultTitle, size: [2]int{800, 600}, minW: 800, maxW: 800,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			if w.title != tt.title || w.Width() != tt.size[0] || w.Height() != tt.size[1] {
				t.Errorf("title=%q size=%dx%d, want %q %v", w.title, w.Width(), w.Height(), tt.title, tt.size)
			}
			if w.minWidth != tt.minW || w.maxWidth != tt.maxW {
				t.Errorf("width limits = [%d, %d], want [%d, %d]", w.minWidth, w.maxWidth, tt.minW, tt.maxW)
			}
		})
	}
}

func TestSetTitle(t *testing.T) {
	w := newEngineWindow()
	w.SetTitle("renamed")
	if w.title != "renamed" {
		t.Errorf("title = %q", w.title)
	}
	if w.IsRunning() {
		t.Error("window without a platform window reports running")
	}
}
