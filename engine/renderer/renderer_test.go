package renderer

import (
	"slices"
	"sync"
	"testing"
)

// recordingBackend records frame calls. Methods it does not override panic through the nil embed.
type recordingBackend struct {
	RendererBackend
	calls []string
}

func (b *recordingBackend) EndFrame() { b.calls = append(b.calls, "submit") }
func (b *recordingBackend) Present()  { b.calls = append(b.calls, "present") }
func (b *recordingBackend) WaitIdle() { b.calls = append(b.calls, "poll") }

func TestWaitIdleReachesBackend(t *testing.T) {
	b := &recordingBackend{}
	r := &renderer{mu: &sync.Mutex{}, backend: b}

	r.EndFrame()
	r.Present()
	r.WaitIdle()

	if want := []string{"submit", "present", "poll"}; !slices.Equal(b.calls, want) {
		t.Fatalf("calls = %v, want %v", b.calls, want)
	}
}
