package scene

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/echoflaresat/pinhole/colors"
	"github.com/echoflaresat/pinhole/geom"
	"github.com/echoflaresat/pinhole/material"
	"github.com/echoflaresat/pinhole/render"
	"github.com/echoflaresat/pinhole/texture"
	"github.com/echoflaresat/pinhole/vectors"
)

// NewCamera returns a render camera with these settings.
func (c CameraConfig) NewCamera() *render.Camera {
	return &render.Camera{
		AspectRatio:     c.AspectRatio,
		ImageWidth:      c.ImageWidth,
		SamplesPerPixel: c.SamplesPerPixel,
		MaxDepth:        c.MaxDepth,
		Seed:            c.Seed,
		Workers:         c.Workers,
	}
}

// Build validates cfg and constructs its camera and world.
//
// Solid materials are created once and shared by every sphere naming them.
// Image materials decode their file once; each sphere gets its own texture
// centered on itself.
func Build(cfg *Config) (*render.Camera, *geom.List, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	b := builder{
		cfg:    cfg,
		solids: map[string]material.Material{},
		images: map[string]image.Image{},
	}
	world := geom.NewList()
	for i, s := range cfg.Spheres {
		center := vec3(s.Center)
		mat, err := b.material(s.Material, center)
		if err != nil {
			return nil, nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		world.Add(geom.NewSphere(center, s.Radius, mat))
	}

	slog.Info("scene built",
		"spheres", world.Len(),
		"materials", len(cfg.Materials),
		"images", len(b.images))
	return cfg.Camera.NewCamera(), world, nil
}

type builder struct {
	cfg    *Config
	solids map[string]material.Material
	images map[string]image.Image
}

func (b *builder) material(name string, center vectors.Vec3) (material.Material, error) {
	if m, ok := b.solids[name]; ok {
		return m, nil
	}

	mc := b.cfg.Materials[name]
	if mc.Image == "" {
		m := material.NewLambertian(colors.New(mc.Color[0], mc.Color[1], mc.Color[2]))
		b.solids[name] = m
		return m, nil
	}

	img, ok := b.images[name]
	if !ok {
		path := mc.Image
		if !filepath.IsAbs(path) && b.cfg.dir != "" {
			path = filepath.Join(b.cfg.dir, path)
		}
		var err error
		img, err = texture.Load(path)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		b.images[name] = img
	}
	return material.NewTexturedLambertian(texture.NewSpherical(img, center)), nil
}
