package geom

import (
	"math"

	"github.com/echoflaresat/pinhole/material"
	"github.com/echoflaresat/pinhole/vectors"
)

// Sphere is a stationary sphere.
type Sphere struct {
	Center   vectors.Vec3
	Radius   float64
	Material material.Material
	bbox     vectors.AABB
}

// NewSphere builds a sphere. A negative radius is clamped to zero; a
// zero-radius sphere is never hit.
func NewSphere(center vectors.Vec3, radius float64, mat material.Material) *Sphere {
	radius = math.Max(0, radius)
	rvec := vectors.Vec3{X: radius, Y: radius, Z: radius}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
		bbox:     vectors.NewAABB(center.Sub(rvec), center.Add(rvec)),
	}
}

// Hit solves |O + tD - C|² = r² for t using the half-b form:
// a = D·D, h = D·(C-O), c = |C-O|² - r², t = (h ± sqrt(h² - ac)) / a.
func (s *Sphere) Hit(r vectors.Ray, rayT vectors.Interval, rec *HitRecord) bool {
	if s.Radius == 0 {
		return false
	}

	oc := s.Center.Sub(r.Origin)
	a := r.Direction.NormSquared()
	h := r.Direction.Dot(oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := h*h - a*c
	if discriminant < 0 {
		return false
	}
	sqrtd := math.Sqrt(discriminant)

	// Nearest root inside the open interval.
	root := (h - sqrtd) / a
	if !rayT.Surrounds(root) {
		root = (h + sqrtd) / a
		if !rayT.Surrounds(root) {
			return false
		}
	}

	rec.T = root
	rec.P = r.At(root)
	rec.SetFaceNormal(r, rec.P.Sub(s.Center).Div(s.Radius))
	rec.Material = s.Material
	return true
}

// BoundingBox returns center ± (r, r, r), computed at construction.
func (s *Sphere) BoundingBox() vectors.AABB {
	return s.bbox
}
