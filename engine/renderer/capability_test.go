package renderer

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestLinearFilterSupported(t *testing.T) {
	tests := []struct {
		name      string
		format    wgpu.TextureFormat
		float32OK bool
		want      bool
	}{
		{"r16float", wgpu.TextureFormatR16Float, false, true},
		{"rgba8unorm", wgpu.TextureFormatRGBA8Unorm, false, true},
		{"rgba8unorm-srgb", wgpu.TextureFormatRGBA8UnormSrgb, false, true},
		{"rgba16float", wgpu.TextureFormatRGBA16Float, false, true},
		{"r32float without feature", wgpu.TextureFormatR32Float, false, false},
		{"r32float with feature", wgpu.TextureFormatR32Float, true, true},
		{"integer format", wgpu.TextureFormatR32Uint, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := linearFilterSupported(tt.format, tt.float32OK); got != tt.want {
				t.Errorf("linearFilterSupported = %v, want %v", got, tt.want)
			}
			if got := (Capabilities{Float32Filterable: tt.float32OK}).LinearFilter(tt.format); got != tt.want {
				t.Errorf("LinearFilter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckVolumeSize(t *testing.T) {
	tests := []struct {
		name    string
		dims    [3]int
		wantErr bool
	}{
		{"fits", [3]int{256, 256, 256}, false},
		{"at limit", [3]int{2048, 1, 1}, false},
		{"z over limit", [3]int{64, 64, 2049}, true},
		{"zero axis", [3]int{64, 0, 64}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVolumeSize(tt.dims, 2048)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			var capErr *CapabilityError
			if tt.wantErr && !errors.As(err, &capErr) {
				t.Errorf("err %T is not a CapabilityError", err)
			}
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	tests := []struct {
		name    string
		formats []wgpu.TextureFormat
		want    wgpu.TextureFormat
		wantErr bool
	}{
		{"prefers bgra", []wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatBGRA8Unorm}, wgpu.TextureFormatBGRA8Unorm, false},
		{"falls back to rgba", []wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Unorm}, wgpu.TextureFormatRGBA8Unorm, false},
		{"srgb only", []wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb}, wgpu.TextureFormatUndefined, true},
		{"none", nil, wgpu.TextureFormatUndefined, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chooseSurfaceFormat(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("format = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWGPUPresentMode(t *testing.T) {
	both := []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeImmediate}
	fifoOnly := []wgpu.PresentMode{wgpu.PresentModeFifo}

	if got := wgpuPresentMode(PresentModeVSync, both); got != wgpu.PresentModeFifo {
		t.Errorf("vsync = %v", got)
	}
	if got := wgpuPresentMode(PresentModeUncapped, both); got != wgpu.PresentModeImmediate {
		t.Errorf("uncapped = %v", got)
	}
	if got := wgpuPresentMode(PresentModeUncapped, fifoOnly); got != wgpu.PresentModeFifo {
		t.Errorf("uncapped without immediate = %v", got)
	}
}

func TestAlignedBytesPerRow(t *testing.T) {
	for width, want := range map[int]int{1: 256, 64: 256, 65: 512, 1280: 5120, 1366: 5632} {
		if got := alignedBytesPerRow(width); got != want {
			t.Errorf("alignedBytesPerRow(%d) = %d, want %d", width, got, want)
		}
	}
}

func TestReadbackToRGBA(t *testing.T) {
	const width, height, pitch = 2, 2, 256
	data := make([]byte, pitch*height)
	// row 0: blue then green in BGRA order, row 1: red then white; alpha left at zero
	copy(data[0:], []byte{255, 0, 0, 0, 0, 255, 0, 0})
	copy(data[pitch:], []byte{0, 0, 255, 0, 255, 255, 255, 0})
	data[8] = 99

	img := readbackToRGBA(data, width, height, pitch, true)
	checks := []struct {
		x, y       int
		r, g, b, a uint8
	}{
		{0, 0, 0, 0, 255, 255},
		{1, 0, 0, 255, 0, 255},
		{0, 1, 255, 0, 0, 255},
		{1, 1, 255, 255, 255, 255},
	}
	for _, c := range checks {
		px := img.RGBAAt(c.x, c.y)
		if px.R != c.r || px.G != c.g || px.B != c.b || px.A != c.a {
			t.Errorf("pixel (%d,%d) = %v, want %d,%d,%d,%d", c.x, c.y, px, c.r, c.g, c.b, c.a)
		}
	}

	rgba := readbackToRGBA(data, width, height, pitch, false)
	if px := rgba.RGBAAt(0, 0); px.R != 255 || px.B != 0 {
		t.Errorf("rgba passthrough = %v", px)
	}
}
