// Package material describes surface appearance. Materials are shared by
// every surface that references them and must not be mutated once a render
// has started.
package material

import (
	"github.com/echoflaresat/pinhole/colors"
	"github.com/echoflaresat/pinhole/texture"
	"github.com/echoflaresat/pinhole/vectors"
)

// Material is what a hit record carries about the struck surface.
//
// The shading loop does not consult it yet: every surface reflects half of
// the incoming light regardless of its albedo.
type Material interface {
	Albedo(p vectors.Vec3) colors.Color
}

// Lambertian is a diffuse material whose albedo comes from a texture.
type Lambertian struct {
	Texture texture.Texture
}

func NewLambertian(albedo colors.Color) *Lambertian {
	return &Lambertian{Texture: texture.NewSolid(albedo)}
}

func NewTexturedLambertian(tex texture.Texture) *Lambertian {
	return &Lambertian{Texture: tex}
}

func (l *Lambertian) Albedo(p vectors.Vec3) colors.Color {
	return l.Texture.Sample(p)
}
