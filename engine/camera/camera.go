// Package camera implements the arcball camera that frames the unit volume cube, together with the
// input controller that maps mouse and keyboard events onto it.
package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

const (
	// DefaultFov is the fixed vertical field of view in radians (60 degrees).
	DefaultFov = float32(math.Pi / 3)
	// DefaultNear is the near clipping plane distance.
	DefaultNear = 0.1
	// DefaultFar is the far clipping plane distance.
	DefaultFar = 100.0
	// DefaultZoomSpeed scales wheel input before it moves the camera.
	DefaultZoomSpeed = 2.0

	// minZoomDistance bounds how close zooming can bring the eye to the orbit center.
	minZoomDistance = 0.2
)

var (
	// DefaultEye is the initial eye position, one unit in front of the cube center.
	DefaultEye = mgl32.Vec3{0.5, 0.5, 1.5}
	// DefaultCenter is the orbit center, the middle of the unit cube.
	DefaultCenter = mgl32.Vec3{0.5, 0.5, 0.5}
	// DefaultUp is the initial up direction.
	DefaultUp = mgl32.Vec3{0, 1, 0}
)

type cameraImpl struct {
	mu *sync.Mutex

	eye       mgl32.Vec3
	center    mgl32.Vec3
	up        mgl32.Vec3
	zoomSpeed float32

	fov  float32
	near float32
	far  float32

	width     int
	height    int
	invScreen mgl32.Vec2

	rotation          mgl32.Quat
	translation       mgl32.Mat4
	centerTranslation mgl32.Mat4

	view     mgl32.Mat4
	invView  mgl32.Mat4
	proj     mgl32.Mat4
	projView mgl32.Mat4

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the arcball camera.
// The camera orbits a fixed center, pans the center in the view plane and zooms along the view axis.
// All matrices are column-major and recomputed after every mutation.
type Camera interface {
	// SetViewport updates the projection aspect ratio and the screen bounds used to normalize mouse input.
	// Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	SetViewport(width, height int)

	// Viewport returns the current framebuffer size.
	//
	// Returns:
	//   - width, height: framebuffer size in pixels
	Viewport() (width, height int)

	// Reset restores the default framing derived from the construction eye, center and up vectors.
	Reset()

	// Rotate turns the camera by the arcball rotation between two cursor positions in pixels.
	//
	// Parameters:
	//   - prev: the previous cursor position
	//   - cur: the current cursor position
	Rotate(prev, cur mgl32.Vec2)

	// Pan moves the orbit center in the view plane.
	//
	// Parameters:
	//   - delta: cursor movement in pixels, y pointing up
	Pan(delta mgl32.Vec2)

	// Zoom moves the camera along the view axis. Positive amounts move closer to the center.
	//
	// Parameters:
	//   - amount: zoom amount in wheel pixels
	Zoom(amount float32)

	// View returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// InvView returns the inverse of the view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view-to-world matrix
	InvView() mgl32.Mat4

	// Projection returns the perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// ProjView returns the combined projection and view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: projection * view
	ProjView() mgl32.Mat4

	// Eye returns the world-space eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the translation column of the inverse view matrix
	Eye() mgl32.Vec3

	// Uniform returns the GPU representation of the camera state.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform ready to marshal
	Uniform() GPUCameraUniform

	// BindGroupProvider returns the provider the render modes write this camera's uniform through.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new arcball Camera framing the unit cube.
// Options override the default eye, center, up vector, zoom speed and viewport.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		eye:       DefaultEye,
		center:    DefaultCenter,
		up:        DefaultUp,
		zoomSpeed: DefaultZoomSpeed,
		fov:       DefaultFov,
		near:      DefaultNear,
		far:       DefaultFar,
		width:     1,
		height:    1,
		invScreen: mgl32.Vec2{1, 1},
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.resetFraming()
	return c
}

func (c *cameraImpl) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.invScreen = mgl32.Vec2{1 / float32(width), 1 / float32(height)}
	c.updateMatrices()
}

func (c *cameraImpl) Viewport() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetFraming()
}

func (c *cameraImpl) Rotate(prev, cur mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prevBall := screenToArcball(c.toNDC(prev))
	curBall := screenToArcball(c.toNDC(cur))
	c.rotation = curBall.Mul(prevBall).Mul(c.rotation)
	c.updateMatrices()
}

func (c *cameraImpl) Pan(delta mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dist := float32(math.Abs(float64(c.translation.At(2, 3))))
	motion := mgl32.Vec4{
		delta.X() * c.invScreen.X() * dist,
		delta.Y() * c.invScreen.Y() * dist,
		0,
		0,
	}
	world := c.invView.Mul4x1(motion)
	c.centerTranslation = mgl32.Translate3D(world.X(), world.Y(), world.Z()).Mul4(c.centerTranslation)
	c.updateMatrices()
}

func (c *cameraImpl) Zoom(amount float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	step := mgl32.Translate3D(0, 0, amount*c.invScreen.Y()*c.zoomSpeed)
	c.translation = step.Mul4(c.translation)
	if c.translation.At(2, 3) >= -minZoomDistance {
		c.translation.Set(2, 3, -minZoomDistance)
	}
	c.updateMatrices()
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) InvView() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invView
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

func (c *cameraImpl) ProjView() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projView
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invView.Col(3).Vec3()
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	eye := c.invView.Col(3)
	return GPUCameraUniform{
		ProjView: c.projView,
		Eye:      [4]float32{eye.X(), eye.Y(), eye.Z(), 1},
	}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

// resetFraming rebuilds the arcball state from the eye, center and up vectors.
// Caller must hold the mutex or own the camera exclusively.
func (c *cameraImpl) resetFraming() {
	dir := c.center.Sub(c.eye)
	zAxis := dir.Normalize()
	xAxis := zAxis.Cross(c.up.Normalize()).Normalize()
	yAxis := xAxis.Cross(zAxis).Normalize()
	xAxis = zAxis.Cross(yAxis).Normalize()

	c.centerTranslation = mgl32.Translate3D(-c.center.X(), -c.center.Y(), -c.center.Z())
	c.translation = mgl32.Translate3D(0, 0, -dir.Len())
	basis := mgl32.Mat3FromRows(xAxis, yAxis, zAxis.Mul(-1))
	c.rotation = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
	c.updateMatrices()
}

// clipDepthRemap maps OpenGL clip depth [-w, w] onto the WebGPU range [0, w].
var clipDepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective returns a perspective projection whose clip depth is in the WebGPU [0, 1] range.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return clipDepthRemap.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// updateMatrices recomputes the view, inverse view, projection and combined matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.view = c.translation.Mul4(c.rotation.Mat4()).Mul4(c.centerTranslation)
	c.invView = c.view.Inv()

	aspect := float32(c.width) / float32(c.height)
	c.proj = Perspective(c.fov, aspect, c.near, c.far)
	c.projView = c.proj.Mul4(c.view)
}

// toNDC maps a pixel position to normalized device coordinates clamped to [-1, 1], y pointing up.
func (c *cameraImpl) toNDC(p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		mgl32.Clamp(p.X()*2*c.invScreen.X()-1, -1, 1),
		mgl32.Clamp(1-p.Y()*2*c.invScreen.Y(), -1, 1),
	}
}

// screenToArcball lifts a point in NDC onto the unit arcball as a pure quaternion.
// Points outside the unit disk are projected onto its rim.
func screenToArcball(p mgl32.Vec2) mgl32.Quat {
	dist := p.Dot(p)
	if dist <= 1 {
		return mgl32.Quat{W: 0, V: mgl32.Vec3{p.X(), p.Y(), float32(math.Sqrt(float64(1 - dist)))}}
	}
	unit := p.Normalize()
	return mgl32.Quat{W: 0, V: mgl32.Vec3{unit.X(), unit.Y(), 0}}
}
