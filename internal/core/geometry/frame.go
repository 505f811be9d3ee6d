package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is a floor-anchored coordinate frame rotated about +Y.
type Frame struct {
	Origin Vec3
	Yaw    float64

	toWorld mgl64.Mat3
	toLocal mgl64.Mat3
}

// NewFrame creates a frame at origin rotated by yaw radians about +Y.
func NewFrame(origin Vec3, yaw float64) Frame {
	return Frame{
		Origin:  origin,
		Yaw:     yaw,
		toWorld: mgl64.Rotate3DY(yaw),
		toLocal: mgl64.Rotate3DY(-yaw),
	}
}

// FrameFromForward anchors a frame on the floor below position, facing the
// horizontal part of forward. A forward with no horizontal component keeps yaw 0.
func FrameFromForward(position, forward Vec3) Frame {
	origin := Vec3{position[0], 0, position[2]}
	return NewFrame(origin, YawOf(forward))
}

// YawOf returns atan2(forward.x, forward.z).
func YawOf(forward Vec3) float64 {
	if forward[0] == 0 && forward[2] == 0 {
		return 0
	}
	return math.Atan2(forward[0], forward[2])
}

// WorldToLocal expresses a world-space point in this frame.
func (f Frame) WorldToLocal(p Vec3) Vec3 {
	return f.toLocal.Mul3x1(p.Sub(f.Origin))
}

// LocalToWorld expresses a frame-local point in world space.
func (f Frame) LocalToWorld(p Vec3) Vec3 {
	return f.toWorld.Mul3x1(p).Add(f.Origin)
}
