package geom

import (
	"github.com/echoflaresat/pinhole/material"
	"github.com/echoflaresat/pinhole/vectors"
)

// HitRecord describes where a ray struck a surface.
type HitRecord struct {
	P        vectors.Vec3
	Normal   vectors.Vec3 // unit length, always facing against the ray
	Material material.Material
	T        float64
	// FrontFace is true when the ray arrived from the outside of the surface.
	FrontFace bool
}

// SetFaceNormal stores outwardNormal oriented against r. outwardNormal must
// be unit length.
func (rec *HitRecord) SetFaceNormal(r vectors.Ray, outwardNormal vectors.Vec3) {
	rec.FrontFace = r.Direction.Dot(outwardNormal) < 0
	if rec.FrontFace {
		rec.Normal = outwardNormal
	} else {
		rec.Normal = outwardNormal.Neg()
	}
}

// Hittable is anything a ray can strike.
//
// Hit reports whether r hits the surface at some t strictly inside rayT,
// choosing the nearest such t. On a hit rec is fully populated; on a miss it
// is left untouched. Implementations are read-only during rendering and safe
// for concurrent use.
type Hittable interface {
	Hit(r vectors.Ray, rayT vectors.Interval, rec *HitRecord) bool
	BoundingBox() vectors.AABB
}
