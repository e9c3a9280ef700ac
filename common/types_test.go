package common

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestTextureStagingData(t *testing.T) {
	tests := []struct {
		name     string
		data     TextureStagingData
		is3D     bool
		rowBytes uint32
		layers   uint32
		format   wgpu.TextureFormat
	}{
		{
			name:     "colormap",
			data:     TextureStagingData{Width: 180, Height: 1},
			rowBytes: 720,
			layers:   1,
			format:   wgpu.TextureFormatRGBA8UnormSrgb,
		},
		{
			name:     "density volume",
			data:     TextureStagingData{Width: 64, Height: 32, Depth: 16, Format: wgpu.TextureFormatR16Float, BytesPerTexel: 2},
			is3D:     true,
			rowBytes: 128,
			layers:   16,
			format:   wgpu.TextureFormatR16Float,
		},
		{
			name:     "single slice volume",
			data:     TextureStagingData{Width: 1, Height: 1, Depth: 1, Format: wgpu.TextureFormatR16Float, BytesPerTexel: 2, Volume: true},
			is3D:     true,
			rowBytes: 2,
			layers:   1,
			format:   wgpu.TextureFormatR16Float,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Is3D(); got != tt.is3D {
				t.Errorf("Is3D = %v, want %v", got, tt.is3D)
			}
			if got := tt.data.RowBytes(); got != tt.rowBytes {
				t.Errorf("RowBytes = %d, want %d", got, tt.rowBytes)
			}
			if got := tt.data.Layers(); got != tt.layers {
				t.Errorf("Layers = %d, want %d", got, tt.layers)
			}
			if got := tt.data.ResolvedFormat(); got != tt.format {
				t.Errorf("ResolvedFormat = %v, want %v", got, tt.format)
			}
		})
	}
}

func TestClampedSampler(t *testing.T) {
	s := ClampedSampler(wgpu.FilterModeNearest)
	if s.AddressModeU != wgpu.AddressModeClampToEdge || s.AddressModeW != wgpu.AddressModeClampToEdge {
		t.Errorf("address modes = %v %v", s.AddressModeU, s.AddressModeW)
	}
	if s.MagFilter != wgpu.FilterModeNearest || s.MipmapFilter != wgpu.MipmapFilterModeNearest {
		t.Errorf("filters = %v %v", s.MagFilter, s.MipmapFilter)
	}
	if l := ClampedSampler(wgpu.FilterModeLinear); l.MinFilter != wgpu.FilterModeLinear {
		t.Errorf("linear min filter = %v", l.MinFilter)
	}
}
