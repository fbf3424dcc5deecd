package vectors

import "math"

// AABB is an axis-aligned bounding box stored as one interval per axis.
type AABB struct {
	X, Y, Z Interval
}

// NewAABB builds the box spanned by two corner points, in any order.
func NewAABB(a, b Vec3) AABB {
	return AABB{
		X: Interval{Min: math.Min(a.X, b.X), Max: math.Max(a.X, b.X)},
		Y: Interval{Min: math.Min(a.Y, b.Y), Max: math.Max(a.Y, b.Y)},
		Z: Interval{Min: math.Min(a.Z, b.Z), Max: math.Max(a.Z, b.Z)},
	}
}

// EmptyAABB contains no points; it is the identity for Union.
func EmptyAABB() AABB {
	return AABB{X: Empty, Y: Empty, Z: Empty}
}

// Axis returns the interval for axis n (0 = X, 1 = Y, 2 = Z).
func (b AABB) Axis(n int) Interval {
	switch n {
	case 1:
		return b.Y
	case 2:
		return b.Z
	default:
		return b.X
	}
}

// Union returns the smallest box enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		X: b.X.Union(o.X),
		Y: b.Y.Union(o.Y),
		Z: b.Z.Union(o.Z),
	}
}
