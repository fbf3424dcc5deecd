package vectors

import "math"

// Sampler is a source of uniform variates in [0, 1). *rand.Rand satisfies it.
// A Sampler is not safe for concurrent use; give each goroutine its own.
type Sampler interface {
	Float64() float64
}

// RandomUnitVector returns a direction uniformly distributed on the unit sphere.
// It consumes exactly two variates.
func RandomUnitVector(s Sampler) Vec3 {
	z := 2*s.Float64() - 1
	phi := 2 * math.Pi * s.Float64()
	r := math.Sqrt(math.Max(0, 1-z*z))
	return Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// RandomOnHemisphere returns a unit direction uniformly distributed over the
// hemisphere around normal.
func RandomOnHemisphere(s Sampler, normal Vec3) Vec3 {
	v := RandomUnitVector(s)
	if v.Dot(normal) > 0 {
		return v
	}
	return v.Neg()
}
