package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderKeepsLabel(t *testing.T) {
	p := NewBindGroupProvider("volume_frame")
	if p.Label() != "volume_frame" {
		t.Errorf("label = %q", p.Label())
	}
	if p.BindGroup() != nil || p.VertexBuffer() != nil || p.VertexCount() != 0 {
		t.Error("fresh provider holds GPU state")
	}
}

func TestProviderSettersBeforeInit(t *testing.T) {
	p := NewBindGroupProvider("cube", WithBuffers(nil))
	p.SetBuffer(0, nil)
	if q := NewBindGroupProvider("frame", WithBuffers(nil), WithBuffer(2, nil)); len(q.Buffers()) != 1 {
		t.Error("WithBuffer after a nil map dropped the binding")
	}
	p.SetVertexCount(14)

	if _, ok := p.Buffers()[0]; !ok {
		t.Error("SetBuffer did not allocate the buffer map")
	}
	if p.VertexCount() != 14 {
		t.Errorf("vertex count = %d", p.VertexCount())
	}

	p.SetTextureViews(map[int]*wgpu.TextureView{1: nil})
	p.SetSamplers(map[int]*wgpu.Sampler{3: nil})
	if len(p.TextureViews()) != 1 || len(p.Samplers()) != 1 {
		t.Error("maps not replaced")
	}

	p.Release()
	if p.VertexCount() != 0 {
		t.Error("release kept the vertex count")
	}
}

func TestBufferWriteFits(t *testing.T) {
	tests := []struct {
		offset uint64
		n      int
		size   uint64
		want   bool
	}{
		{0, 80, 80, true},
		{16, 16, 48, true},
		{40, 16, 48, false},
		{64, 0, 48, false},
		{48, 0, 48, true},
	}
	for _, tt := range tests {
		w := BufferWrite{Offset: tt.offset, Data: make([]byte, tt.n)}
		if got := w.Fits(tt.size); got != tt.want {
			t.Errorf("Fits(offset %d, len %d, size %d) = %v, want %v", tt.offset, tt.n, tt.size, got, tt.want)
		}
	}
}
