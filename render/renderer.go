package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/echoflaresat/pinhole/colors"
	"github.com/echoflaresat/pinhole/geom"
	"github.com/echoflaresat/pinhole/vectors"
	"golang.org/x/sync/errgroup"
)

// ErrNonFinite is returned when a pixel's averaged color is NaN or infinite.
var ErrNonFinite = errors.New("non-finite pixel color")

// PixelSink receives the rendered image: Begin once, then exactly
// width*height pixels in row-major order, then End.
type PixelSink interface {
	Begin(width, height int) error
	WritePixel(c colors.Color) error
	End() error
}

// bounceAttenuation is the fraction of light every surface reflects.
const bounceAttenuation = 0.5

// shadowAcne is the lower bound of the hit interval; it keeps a bounced ray
// from re-hitting the surface it starts on.
const shadowAcne = 0.001

// rayColour traces r into world for at most depth bounces.
//
// Each hit sends the ray off in a random direction of the hemisphere around
// the surface normal and keeps half of what comes back. A ray that escapes
// takes the sky color; one that runs out of bounces is black. The material
// of the hit surface is not consulted.
func rayColour(r vectors.Ray, depth int, world geom.Hittable, rng vectors.Sampler) colors.Color {
	attenuation := 1.0
	for ; depth > 0; depth-- {
		var rec geom.HitRecord
		if !world.Hit(r, vectors.Interval{Min: shadowAcne, Max: math.Inf(1)}, &rec) {
			return background(r).Scale(attenuation)
		}
		direction := vectors.RandomOnHemisphere(rng, rec.Normal)
		r = vectors.NewRay(rec.P, direction)
		attenuation *= bounceAttenuation
	}
	return colors.Black()
}

// background blends white at the bottom to sky blue at the top using the
// vertical component of the ray direction.
func background(r vectors.Ray) colors.Color {
	unitDirection := r.Direction.Normalize()
	a := 0.5 * (unitDirection.Y + 1.0)
	return colors.White().Mix(colors.SkyBlue(), a)
}

// Render draws world through the camera into sink. Scanline progress is
// written to progress, which may be nil.
func (c *Camera) Render(world geom.Hittable, sink PixelSink, progress io.Writer) error {
	c.initialize()

	if err := sink.Begin(c.ImageWidth, c.imageHeight); err != nil {
		return fmt.Errorf("starting image: %w", err)
	}

	p := newProgress(progress, c.imageHeight)
	var err error
	if c.Workers > 1 {
		err = c.renderParallel(world, sink, p)
	} else {
		err = c.renderSequential(world, sink, p)
	}
	if err != nil {
		return err
	}
	p.finish()

	if err := sink.End(); err != nil {
		return fmt.Errorf("finishing image: %w", err)
	}
	return nil
}

func (c *Camera) renderSequential(world geom.Hittable, sink PixelSink, p *progress) error {
	for j := 0; j < c.imageHeight; j++ {
		err := c.renderRow(j, world, func(_ int, px colors.Color) error {
			if err := sink.WritePixel(px); err != nil {
				return fmt.Errorf("writing pixel: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		p.rowDone()
	}
	return nil
}

// renderParallel renders up to Workers scanlines at a time into row
// buffers, then hands them to the sink in order.
func (c *Camera) renderParallel(world geom.Hittable, sink PixelSink, p *progress) error {
	rows := make([][]colors.Color, c.imageHeight)

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(c.Workers)

	for j := range rows {
		eg.Go(func() error {
			if ctx.Err() != nil {
				// another row already failed
				return nil
			}
			row := make([]colors.Color, c.ImageWidth)
			err := c.renderRow(j, world, func(i int, px colors.Color) error {
				row[i] = px
				return nil
			})
			if err != nil {
				return err
			}
			rows[j] = row
			p.rowDone()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, row := range rows {
		for _, px := range row {
			if err := sink.WritePixel(px); err != nil {
				return fmt.Errorf("writing pixel: %w", err)
			}
		}
	}
	return nil
}

// renderRow computes every pixel of scanline j left to right and passes it
// to emit with its column.
func (c *Camera) renderRow(j int, world geom.Hittable, emit func(i int, px colors.Color) error) error {
	rng := c.sampler(j)
	for i := 0; i < c.ImageWidth; i++ {
		pixel := colors.Black()
		for sample := 0; sample < c.SamplesPerPixel; sample++ {
			r := c.getRay(i, j, rng)
			pixel = pixel.Add(rayColour(r, c.MaxDepth, world, rng))
		}
		pixel = pixel.Scale(c.pixelSamplesScale)

		if !pixel.IsFinite() {
			return fmt.Errorf("pixel (%d,%d): %w", i, j, ErrNonFinite)
		}
		if err := emit(i, pixel); err != nil {
			return err
		}
	}
	return nil
}

// progress prints the fraction of finished scanlines.
type progress struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	done  int
}

func newProgress(w io.Writer, total int) *progress {
	return &progress{w: w, total: total}
}

func (p *progress) rowDone() {
	if p.w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprintf(p.w, "\rScanlines done: %.3f ", float64(p.done)/float64(p.total))
}

func (p *progress) finish() {
	if p.w == nil {
		return
	}
	fmt.Fprint(p.w, "\rDone.                 \n")
}
