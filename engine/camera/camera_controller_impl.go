package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultWheelStep is the zoom amount of one wheel notch.
const DefaultWheelStep = 100.0

type controllerImpl struct {
	mu *sync.Mutex

	camera    Camera
	wheelStep float32

	left, right bool
	last        mgl32.Vec2
	hasLast     bool

	bindings map[uint32]func()
}

var _ Controller = &controllerImpl{}

// NewController creates a Controller that drives the given camera.
// The R key is bound to Camera.Reset by default.
//
// Parameters:
//   - cam: the camera to control
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewController(cam Camera, options ...ControllerOption) Controller {
	cc := &controllerImpl{
		mu:        &sync.Mutex{},
		camera:    cam,
		wheelStep: DefaultWheelStep,
		bindings:  map[uint32]func(){common.KeyR: cam.Reset},
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *controllerImpl) Camera() Camera {
	return cc.camera
}

func (cc *controllerImpl) HandleMouseButton(button int, pressed bool, x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch button {
	case common.MouseButtonLeft:
		cc.left = pressed
	case common.MouseButtonRight:
		cc.right = pressed
	default:
		return
	}
	cc.last = mgl32.Vec2{x, y}
	cc.hasLast = true
}

func (cc *controllerImpl) HandleMouseMove(x, y float32) {
	cc.mu.Lock()
	prev, hadLast := cc.last, cc.hasLast
	left, right := cc.left, cc.right
	cur := mgl32.Vec2{x, y}
	cc.last = cur
	cc.hasLast = true
	cc.mu.Unlock()

	if !hadLast {
		return
	}
	switch {
	case left:
		cc.camera.Rotate(prev, cur)
	case right:
		cc.camera.Pan(mgl32.Vec2{cur.X() - prev.X(), prev.Y() - cur.Y()})
	}
}

func (cc *controllerImpl) HandleScroll(delta float32) {
	cc.camera.Zoom(delta * cc.wheelStep)
}

func (cc *controllerImpl) HandleKey(keyCode uint32) bool {
	cc.mu.Lock()
	action, ok := cc.bindings[keyCode]
	cc.mu.Unlock()
	if !ok {
		return false
	}
	action()
	return true
}

func (cc *controllerImpl) Bind(keyCode uint32, action func()) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if action == nil {
		delete(cc.bindings, keyCode)
		return
	}
	cc.bindings[keyCode] = action
}
