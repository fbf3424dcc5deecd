// Package scene reads and writes YAML scene descriptions and turns them into
// a camera and a world ready to render.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/echoflaresat/pinhole/vectors"
	"gopkg.in/yaml.v2"
)

var (
	// ErrInvalidConfig reports camera settings that cannot be rendered.
	ErrInvalidConfig = errors.New("invalid scene configuration")
	// ErrInvalidGeometry reports a sphere or material that cannot be built.
	ErrInvalidGeometry = errors.New("invalid scene geometry")
)

// Config is a complete scene: camera settings, named materials and the
// spheres that use them.
type Config struct {
	Camera    CameraConfig              `yaml:"camera"`
	Materials map[string]MaterialConfig `yaml:"materials"`
	Spheres   []SphereConfig            `yaml:"spheres"`

	// dir is the directory of the file the config was loaded from; relative
	// image paths are resolved against it.
	dir string
}

// CameraConfig contains the render settings
type CameraConfig struct {
	AspectRatio     float64 `yaml:"aspect_ratio"`
	ImageWidth      int     `yaml:"image_width"`
	SamplesPerPixel int     `yaml:"samples_per_pixel"`
	MaxDepth        int     `yaml:"max_depth"`
	Seed            uint64  `yaml:"seed"`
	Workers         int     `yaml:"workers"` // scanlines rendered concurrently
}

// MaterialConfig is either a solid color or an image wrapped around each
// sphere that uses it.
type MaterialConfig struct {
	Color []float64 `yaml:"color,omitempty"` // linear [r, g, b]
	Image string    `yaml:"image,omitempty"` // equirectangular texture
}

// SphereConfig places one sphere
type SphereConfig struct {
	Center   []float64 `yaml:"center"` // [x, y, z]
	Radius   float64   `yaml:"radius"`
	Material string    `yaml:"material"`
}

// DefaultConfig returns a small sphere resting on a large ground sphere.
func DefaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			AspectRatio:     16.0 / 9.0,
			ImageWidth:      400,
			SamplesPerPixel: 100,
			MaxDepth:        50,
			Seed:            1,
			Workers:         1,
		},
		Materials: map[string]MaterialConfig{
			"ground": {Color: []float64{0.8, 0.8, 0.0}},
			"center": {Color: []float64{0.1, 0.2, 0.5}},
		},
		Spheres: []SphereConfig{
			{Center: []float64{0, 0, -1}, Radius: 0.5, Material: "center"},
			{Center: []float64{0, -100.5, -1}, Radius: 100, Material: "ground"},
		},
	}
}

// Load reads the scene file at path on top of DefaultConfig. Camera fields
// missing from the file keep their defaults, materials are merged by name
// and a spheres list replaces the default one.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error serializing scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing scene file: %w", err)
	}
	return nil
}

// Validate checks the camera settings and that every sphere can be built.
func (c *Config) Validate() error {
	cam := c.Camera
	switch {
	case !(cam.AspectRatio > 0) || math.IsInf(cam.AspectRatio, 1):
		return fmt.Errorf("%w: aspect_ratio must be positive and finite, got %v", ErrInvalidConfig, cam.AspectRatio)
	case cam.ImageWidth <= 0:
		return fmt.Errorf("%w: image_width must be positive, got %d", ErrInvalidConfig, cam.ImageWidth)
	case cam.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples_per_pixel must be positive, got %d", ErrInvalidConfig, cam.SamplesPerPixel)
	case cam.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth must not be negative, got %d", ErrInvalidConfig, cam.MaxDepth)
	case cam.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, cam.Workers)
	}

	for name, m := range c.Materials {
		if err := m.validate(); err != nil {
			return fmt.Errorf("material %q: %w", name, err)
		}
	}

	for i, s := range c.Spheres {
		if len(s.Center) != 3 || !vec3(s.Center).IsFinite() {
			return fmt.Errorf("%w: sphere %d: center must be three finite numbers, got %v", ErrInvalidGeometry, i, s.Center)
		}
		if s.Radius == 0 || !finite(s.Radius) {
			return fmt.Errorf("%w: sphere %d: radius must be non-zero and finite, got %v", ErrInvalidGeometry, i, s.Radius)
		}
		if _, ok := c.Materials[s.Material]; !ok {
			return fmt.Errorf("%w: sphere %d: unknown material %q", ErrInvalidGeometry, i, s.Material)
		}
	}
	return nil
}

func (m MaterialConfig) validate() error {
	hasColor, hasImage := m.Color != nil, m.Image != ""
	switch {
	case hasColor == hasImage:
		return fmt.Errorf("%w: exactly one of color and image must be set", ErrInvalidGeometry)
	case hasColor && (len(m.Color) != 3 || !finite(m.Color...)):
		return fmt.Errorf("%w: color must be three finite numbers, got %v", ErrInvalidGeometry, m.Color)
	}
	return nil
}

// vec3 converts a validated three-element coordinate list.
func vec3(c []float64) vectors.Vec3 {
	return vectors.Vec3{X: c[0], Y: c[1], Z: c[2]}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
