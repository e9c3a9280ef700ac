package renderer

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// CapabilityError reports a GPU capability the renderer needs but the adapter, device or surface
// does not provide.
type CapabilityError struct {
	// Feature names the missing capability (e.g. "adapter", "surface format", "max 3-D texture size").
	Feature string
	// Detail describes what was requested and what the device offers.
	Detail string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("gpu capability %s: %s", e.Feature, e.Detail)
}

// Capabilities describes the limits and features of the device the renderer runs on.
type Capabilities struct {
	// SurfaceFormat is the swap chain format chosen at construction.
	SurfaceFormat wgpu.TextureFormat
	// MaxTextureDimension3D is the largest extent of a 3-D texture along any axis.
	MaxTextureDimension3D uint32
	// Float32Filterable reports the float32-filterable adapter feature.
	Float32Filterable bool
}

// LinearFilter reports whether textures of the given format can be sampled with a linear filter.
//
// Parameters:
//   - format: the texel format to probe
//
// Returns:
//   - bool: true when linear filtering is available for the format
func (c Capabilities) LinearFilter(format wgpu.TextureFormat) bool {
	return linearFilterSupported(format, c.Float32Filterable)
}

// coreFilterable lists the formats every WebGPU device can filter.
var coreFilterable = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatR8Unorm:        true,
	wgpu.TextureFormatRG8Unorm:       true,
	wgpu.TextureFormatRGBA8Unorm:     true,
	wgpu.TextureFormatRGBA8UnormSrgb: true,
	wgpu.TextureFormatBGRA8Unorm:     true,
	wgpu.TextureFormatBGRA8UnormSrgb: true,
	wgpu.TextureFormatR16Float:       true,
	wgpu.TextureFormatRG16Float:      true,
	wgpu.TextureFormatRGBA16Float:    true,
}

// float32Formats become filterable with the float32-filterable feature.
var float32Formats = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatR32Float:    true,
	wgpu.TextureFormatRG32Float:   true,
	wgpu.TextureFormatRGBA32Float: true,
}

func linearFilterSupported(format wgpu.TextureFormat, float32Filterable bool) bool {
	if float32Formats[format] {
		return float32Filterable
	}
	return coreFilterable[format]
}

// CheckVolumeSize reports a CapabilityError when any axis of a volume exceeds the device's
// 3-D texture limit.
//
// Parameters:
//   - dims: the voxel counts along x, y and z
//   - maxDim: the device's MaxTextureDimension3D
//
// Returns:
//   - error: a *CapabilityError if the volume does not fit, nil otherwise
func CheckVolumeSize(dims [3]int, maxDim uint32) error {
	for axis, n := range dims {
		if n <= 0 || uint64(n) > uint64(maxDim) {
			return &CapabilityError{
				Feature: "max 3-D texture size",
				Detail:  fmt.Sprintf("volume %dx%dx%d has %d voxels on axis %d, device allows %d", dims[0], dims[1], dims[2], n, axis, maxDim),
			}
		}
	}
	return nil
}

// chooseSurfaceFormat picks a non-sRGB 8-bit swap chain format so the shader's own sRGB
// encoding is applied exactly once.
func chooseSurfaceFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	for _, want := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm} {
		for _, f := range formats {
			if f == want {
				return f, nil
			}
		}
	}
	return wgpu.TextureFormatUndefined, &CapabilityError{
		Feature: "surface format",
		Detail:  fmt.Sprintf("need bgra8unorm or rgba8unorm, surface offers %v", formats),
	}
}

// readbackRowAlignment is the row pitch alignment required for texture to buffer copies.
const readbackRowAlignment = 256

// alignedBytesPerRow rounds a row of width RGBA8 texels up to the copy alignment.
func alignedBytesPerRow(width int) int {
	row := width * 4
	return (row + readbackRowAlignment - 1) / readbackRowAlignment * readbackRowAlignment
}

// readbackToRGBA converts padded readback rows into an opaque RGBA image. BGRA data is swizzled.
func readbackToRGBA(data []byte, width, height, bytesPerRow int, bgra bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := data[y*bytesPerRow : y*bytesPerRow+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			s := src[x*4 : x*4+4]
			d := dst[x*4 : x*4+4]
			if bgra {
				d[0], d[1], d[2] = s[2], s[1], s[0]
			} else {
				d[0], d[1], d[2] = s[0], s[1], s[2]
			}
			d[3] = 0xff
		}
	}
	return img
}
