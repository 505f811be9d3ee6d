package geometry

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is the vector type used for every position in the engine.
type Vec3 = mgl64.Vec3

// V3 builds a Vec3 from components.
func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Lowpass blends next into prev by factor a. A nil prev means there is no
// history yet and next is returned unchanged.
func Lowpass(prev *float64, next, a float64) float64 {
	if prev == nil {
		return next
	}
	return *prev + (next-*prev)*a
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 { return mgl64.Clamp(x, lo, hi) }

// MapLinear maps x from range [a1, a2] to range [b1, b2] without clamping.
func MapLinear(x, a1, a2, b1, b2 float64) float64 {
	if a1 == a2 {
		return b1
	}
	return b1 + (x-a1)*(b2-b1)/(a2-a1)
}
