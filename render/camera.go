package render

import (
	"math/rand/v2"

	"github.com/echoflaresat/pinhole/vectors"
)

// Camera models a pinhole camera at the origin looking down -Z, with a
// viewport 2 units tall one unit in front of it.
//
// The exported fields are configuration; set them before Render. Everything
// else is derived from them at the start of each Render.
type Camera struct {
	AspectRatio     float64 // ideal ratio of image width over height
	ImageWidth      int     // rendered image width in pixels
	SamplesPerPixel int     // random samples averaged for each pixel
	MaxDepth        int     // maximum number of ray bounces into the scene

	// Seed selects the random streams. Each scanline gets its own PCG
	// generator seeded with (Seed, row), so the image does not depend on
	// Workers.
	Seed uint64
	// Source, when set, replaces the seeded generators: it is called once
	// per scanline, possibly from several goroutines.
	Source func(row int) vectors.Sampler
	// Workers is the number of scanlines rendered concurrently. Values below
	// 2 render on the calling goroutine and stream pixels as they complete.
	Workers int

	imageHeight       int
	center            vectors.Vec3
	pixel00Loc        vectors.Vec3 // location of pixel (0, 0)
	pixelDeltaU       vectors.Vec3 // offset to the pixel to the right
	pixelDeltaV       vectors.Vec3 // offset to the pixel below
	pixelSamplesScale float64
}

const (
	viewportHeight = 2.0
	focalLength    = 1.0
)

// ImageHeight returns the height Render will produce for the current
// configuration: ImageWidth / AspectRatio truncated, at least 1.
func (c *Camera) ImageHeight() int {
	h := int(float64(c.ImageWidth) / c.AspectRatio)
	if h < 1 {
		h = 1
	}
	return h
}

func (c *Camera) initialize() {
	c.imageHeight = c.ImageHeight()
	c.pixelSamplesScale = 1.0 / float64(c.SamplesPerPixel)

	c.center = vectors.Zero()

	// The viewport follows the actual pixel ratio, which can differ from
	// AspectRatio after the height was truncated.
	viewportWidth := viewportHeight * (float64(c.ImageWidth) / float64(c.imageHeight))

	viewportU := vectors.Vec3{X: viewportWidth, Y: 0, Z: 0}
	viewportV := vectors.Vec3{X: 0, Y: -viewportHeight, Z: 0}

	c.pixelDeltaU = viewportU.Div(float64(c.ImageWidth))
	c.pixelDeltaV = viewportV.Div(float64(c.imageHeight))

	viewportUpperLeft := c.center.
		Sub(vectors.Vec3{X: 0, Y: 0, Z: focalLength}).
		Sub(viewportU.Div(2)).
		Sub(viewportV.Div(2))
	c.pixel00Loc = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Scale(0.5))
}

// getRay returns a ray from the camera center through a random point of
// pixel (i, j). The point is redrawn on every call.
func (c *Camera) getRay(i, j int, rng vectors.Sampler) vectors.Ray {
	offset := sampleSquare(rng)
	pixelSample := c.pixel00Loc.
		Add(c.pixelDeltaU.Scale(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Scale(float64(j) + offset.Y))

	return vectors.NewRay(c.center, pixelSample.Sub(c.center))
}

// sampleSquare returns a random point in the [-0.5, 0.5) unit square.
func sampleSquare(rng vectors.Sampler) vectors.Vec3 {
	return vectors.Vec3{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: 0}
}

// sampler returns the random stream for scanline j.
func (c *Camera) sampler(j int) vectors.Sampler {
	if c.Source != nil {
		return c.Source(j)
	}
	return rand.New(rand.NewPCG(c.Seed, uint64(j)))
}
