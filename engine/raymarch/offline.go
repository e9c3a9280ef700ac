package raymarch

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame describes one offline render: the camera, the volume placement and the parameter
// snapshot, exactly as the GPU frame would receive them.
type Frame struct {
	Width, Height int

	ProjView mgl32.Mat4
	Eye      mgl32.Vec3

	// Scale is the per-axis fit scale of the volume.
	Scale [3]float32

	Params params.Parameters

	// StepScale is the effective step scale after the quality multiplier.
	StepScale float32

	// Linear selects trilinear reconstruction, otherwise nearest voxel.
	Linear bool
}

// Renderer rasterizes frames on the CPU, splitting the image into row bands that run on a worker
// pool.
type Renderer struct {
	pool     worker.DynamicWorkerPool
	rowsTask int
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithBandRows sets how many image rows each pool task renders.
func WithBandRows(rows int) RendererOption {
	return func(r *Renderer) {
		if rows > 0 {
			r.rowsTask = rows
		}
	}
}

// NewRenderer creates an offline renderer backed by a dynamic worker pool.
//
// Parameters:
//   - workers: the maximum pool size; zero or less uses GOMAXPROCS
//   - options: optional RendererOption functions
//
// Returns:
//   - *Renderer: the renderer
func NewRenderer(workers int, options ...RendererOption) *Renderer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	r := &Renderer{
		pool:     worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		rowsTask: 8,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render shades every pixel of the frame. Pixels whose ray misses the volume, or that the
// isosurface march discards, stay black. Alpha is always opaque.
//
// Parameters:
//   - ctx: cancels the render between bands
//   - f: the density field
//   - tf: the transfer function
//   - fr: the frame description
//
// Returns:
//   - *image.RGBA: the rendered image
//   - error: the context error if cancelled, or a frame validation error
func (r *Renderer) Render(ctx context.Context, f Field, tf TransferFunction, fr Frame) (*image.RGBA, error) {
	if fr.Width <= 0 || fr.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", fr.Width, fr.Height)
	}
	if fr.ProjView.Det() == 0 {
		return nil, fmt.Errorf("projection-view matrix is singular")
	}
	inv := fr.ProjView.Inv()

	img := image.NewRGBA(image.Rect(0, 0, fr.Width, fr.Height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	s := Sampler{Field: f, Linear: fr.Linear}
	p := fr.Params.Sanitized()
	tr := Translation(fr.Scale)

	var wg sync.WaitGroup
	id := 0
	for y0 := 0; y0 < fr.Height; y0 += r.rowsTask {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		y1 := min(y0+r.rowsTask, fr.Height)
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for y := y0; y < y1; y++ {
					for x := 0; x < fr.Width; x++ {
						ray := pixelRay(inv, fr, tr, x, y)
						px := Pixel{X: x, Y: y, ScreenWidth: fr.Width}
						if c, ok := shadePixel(s, tf, ray, p, fr.StepScale, px); ok {
							img.SetRGBA(x, y, c)
						}
					}
				}
				return nil, nil
			},
		})
		id++
	}
	wg.Wait()

	common.Logger().Debug("offline frame rendered", "width", fr.Width, "height", fr.Height, "mode", p.Mode, "bands", id)
	return img, ctx.Err()
}

// pixelRay builds the ray through the centre of pixel (x, y), with y growing downwards as in
// framebuffer coordinates.
func pixelRay(inv mgl32.Mat4, fr Frame, tr mgl32.Vec3, x, y int) Ray {
	ndcX := 2*(float32(x)+0.5)/float32(fr.Width) - 1
	ndcY := 1 - 2*(float32(y)+0.5)/float32(fr.Height)
	h := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0.5, 1})
	world := h.Vec3().Mul(1 / h.W())

	toVolume := func(v mgl32.Vec3) mgl32.Vec3 {
		d := v.Sub(tr)
		return mgl32.Vec3{d[0] / fr.Scale[0], d[1] / fr.Scale[1], d[2] / fr.Scale[2]}
	}
	te := toVolume(fr.Eye)
	return Ray{Origin: te, Dir: toVolume(world).Sub(te).Normalize()}
}

func shadePixel(s Sampler, tf TransferFunction, ray Ray, p params.Parameters, stepScale float32, px Pixel) (color.RGBA, bool) {
	switch p.Mode {
	case params.ModeIsosurface:
		res := MarchIsosurface(s, tf, ray, p.IsoValue, stepScale, px)
		if res.State != StateHit {
			return color.RGBA{}, false
		}
		return toRGBA(res.Color), true
	default:
		c, ok := IntegrateVolume(s, tf, ray, p, stepScale, px)
		if !ok {
			return color.RGBA{}, false
		}
		return toRGBA(c.Vec3()), true
	}
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	ch := func(v float32) uint8 {
		return uint8(clamp01(v)*255 + 0.5)
	}
	return color.RGBA{ch(c[0]), ch(c[1]), ch(c[2]), 255}
}
