// Package colormap provides the 1-D transfer functions that map a normalized density to a colour.
package colormap

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// Width is the number of texels every colormap is resampled to.
const Width = 180

// ErrUnknownColormap is returned for names missing from the catalog.
var ErrUnknownColormap = errors.New("unknown colormap")

// Colormap is a Width x 1 RGBA transfer function stored sRGB-encoded, as uploaded to an
// rgba8unorm-srgb texture.
type Colormap struct {
	Name   string
	Pixels []byte

	// linear holds the sRGB-decoded texels, the values a filtered texture sample interpolates.
	linear [Width]mgl32.Vec3
}

// FromImage resamples img to Width x 1 with a Catmull-Rom filter.
//
// Parameters:
//   - name: the colormap name
//   - img: the source image, any size
//
// Returns:
//   - *Colormap: the resampled colormap
func FromImage(name string, img image.Image) *Colormap {
	dst := image.NewRGBA(image.Rect(0, 0, Width, 1))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return fromPixels(name, dst.Pix)
}

// Decode reads an encoded PNG or JPEG colormap.
//
// Parameters:
//   - name: the colormap name
//   - r: the encoded image
//
// Returns:
//   - *Colormap: the resampled colormap
//   - error: error if the image cannot be decoded
func Decode(name string, r io.Reader) (*Colormap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode colormap %s: %w", name, err)
	}
	return FromImage(name, img), nil
}

func fromPixels(name string, pix []byte) *Colormap {
	c := &Colormap{Name: name, Pixels: make([]byte, Width*4)}
	copy(c.Pixels, pix)
	for i := range Width {
		c.linear[i] = mgl32.Vec3{
			srgbToLinear(c.Pixels[i*4]),
			srgbToLinear(c.Pixels[i*4+1]),
			srgbToLinear(c.Pixels[i*4+2]),
		}
	}
	return c
}

// Lookup samples the colormap at u in [0, 1] with linear filtering and clamp-to-edge
// addressing, returning linear RGB.
func (c *Colormap) Lookup(u float32) mgl32.Vec3 {
	x := u*Width - 0.5
	i0 := int(math32.Floor(x))
	f := x - float32(i0)
	a := c.linear[clampIndex(i0)]
	b := c.linear[clampIndex(i0+1)]
	return a.Mul(1 - f).Add(b.Mul(f))
}

// Staging returns the texture upload description of the colormap.
func (c *Colormap) Staging() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: c.Pixels,
		Width:  Width,
		Height: 1,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
	}
}

func clampIndex(i int) int {
	return min(max(i, 0), Width-1)
}

func srgbToLinear(v byte) float32 {
	c := float32(v) / 255
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}
