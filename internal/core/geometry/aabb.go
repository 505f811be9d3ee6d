package geometry

// AABB is an axis-aligned box in track-local space.
type AABB struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// BoxFromCenter builds a box from its centre and half-extents.
func BoxFromCenter(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// ClosestPoint returns the point of the box nearest to p.
func (b AABB) ClosestPoint(p Vec3) Vec3 {
	return Vec3{
		Clamp(p[0], b.Min[0], b.Max[0]),
		Clamp(p[1], b.Min[1], b.Max[1]),
		Clamp(p[2], b.Min[2], b.Max[2]),
	}
}

// SphereIntersectsAABB reports whether the sphere at c with radius r touches
// the box. Touching counts as an intersection.
func SphereIntersectsAABB(c Vec3, r float64, box AABB) bool {
	d := c.Sub(box.ClosestPoint(c))
	return d.Dot(d) <= r*r
}
