package raymarch

import "github.com/go-gl/mathgl/mgl32"

// TransferFunction maps a unit value to a linear RGB colour.
type TransferFunction interface {
	Lookup(u float32) mgl32.Vec3
}

// TransferFunc adapts a plain function to TransferFunction.
type TransferFunc func(u float32) mgl32.Vec3

func (f TransferFunc) Lookup(u float32) mgl32.Vec3 {
	return f(u)
}

// Grayscale maps u to an equal-channel colour.
var Grayscale = TransferFunc(func(u float32) mgl32.Vec3 {
	u = clamp01(u)
	return mgl32.Vec3{u, u, u}
})
