package render

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/echoflaresat/pinhole/colors"
	"github.com/echoflaresat/pinhole/geom"
	"github.com/echoflaresat/pinhole/material"
	"github.com/echoflaresat/pinhole/output"
	"github.com/echoflaresat/pinhole/vectors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// recordingSink keeps every pixel it is given.
type recordingSink struct {
	width, height int
	pixels        []colors.Color
	ended         bool
	failAfter     int // fail WritePixel once this many pixels were taken; 0 never fails
}

var errSinkFull = errors.New("sink full")

func (s *recordingSink) Begin(width, height int) error {
	s.width, s.height = width, height
	return nil
}

func (s *recordingSink) WritePixel(c colors.Color) error {
	if s.failAfter > 0 && len(s.pixels) >= s.failAfter {
		return errSinkFull
	}
	s.pixels = append(s.pixels, c)
	return nil
}

func (s *recordingSink) End() error {
	s.ended = true
	return nil
}

func (s *recordingSink) at(i, j int) colors.Color {
	return s.pixels[j*s.width+i]
}

func noJitter(int) vectors.Sampler { return constSampler(0.5) }

func testSphere() *geom.Sphere {
	return geom.NewSphere(vectors.Vec3{X: 0, Y: 0, Z: -1}, 0.5, material.NewLambertian(colors.Gray(0.5)))
}

func TestRayColourDepthExhausted(t *testing.T) {
	r := vectors.NewRay(vectors.Vec3{}, vectors.Vec3{Z: -1})
	worlds := map[string]geom.Hittable{
		"empty":  geom.NewList(),
		"sphere": geom.NewList(testSphere()),
	}
	for name, world := range worlds {
		for _, depth := range []int{0, -3} {
			if got := rayColour(r, depth, world, constSampler(0.5)); got != colors.Black() {
				t.Errorf("%s world, depth %d: got %v, want black", name, depth, got)
			}
		}
	}
}

func TestRayColourBackground(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-12)
	cases := []struct {
		name string
		dir  vectors.Vec3
		want colors.Color
	}{
		{"horizontal", vectors.Vec3{Z: -1}, colors.New(0.75, 0.85, 1.0)},
		{"horizontal unnormalized", vectors.Vec3{X: 3, Z: -4}, colors.New(0.75, 0.85, 1.0)},
		{"straight up", vectors.Vec3{Y: 2}, colors.SkyBlue()},
		{"straight down", vectors.Vec3{Y: -1}, colors.White()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := rayColour(vectors.NewRay(vectors.Vec3{}, c.dir), 5, geom.NewList(), constSampler(0.5))
			if diff := cmp.Diff(c.want, got, approx); diff != "" {
				t.Errorf("background mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRayColourBounce(t *testing.T) {
	world := geom.NewList(testSphere())
	r := vectors.NewRay(vectors.Vec3{}, vectors.Vec3{Z: -1})

	// one bounce allowed: the hit has nothing left to gather
	if got := rayColour(r, 1, world, constSampler(0.5)); got != colors.Black() {
		t.Errorf("depth 1: got %v, want black", got)
	}

	// with a constant sampler the bounce leaves the sphere horizontally and
	// sees the horizon color at half strength
	got := rayColour(r, 2, world, constSampler(0.5))
	want := colors.New(0.375, 0.425, 0.5)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("depth 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSingleSpherePPM(t *testing.T) {
	cam := &Camera{
		AspectRatio:     1,
		ImageWidth:      4,
		SamplesPerPixel: 1,
		MaxDepth:        1,
		Source:          noJitter,
	}
	var out, progress bytes.Buffer
	if err := cam.Render(geom.NewList(testSphere()), output.NewPPM(&out), &progress); err != nil {
		t.Fatalf("Render: %v", err)
	}

	text := out.String()
	const header = "P3\n4 4\n255\n"
	if !strings.HasPrefix(text, header) {
		t.Fatalf("PPM does not start with %q: %q", header, text)
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, header), "\n"), "\n")
	if len(lines) != 16 {
		t.Fatalf("got %d pixel lines, want 16", len(lines))
	}

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			px := lines[j*4+i]
			center := (i == 1 || i == 2) && (j == 1 || j == 2)
			switch {
			case center && px != "0 0 0":
				t.Errorf("pixel (%d,%d) = %q, want the sphere (black)", i, j, px)
			case !center && !strings.HasSuffix(px, " 255"):
				t.Errorf("pixel (%d,%d) = %q, want sky", i, j, px)
			}
		}
	}

	if strings.Contains(text, "Scanlines") {
		t.Error("progress leaked into the image stream")
	}
	if p := progress.String(); !strings.Contains(p, "Scanlines done: 1.000") || !strings.HasSuffix(p, "Done.                 \n") {
		t.Errorf("unexpected progress output %q", p)
	}
}

func TestRenderEmptyScene(t *testing.T) {
	cam := &Camera{
		AspectRatio:     1,
		ImageWidth:      3,
		SamplesPerPixel: 4,
		MaxDepth:        10,
		Source:          noJitter,
	}
	sink := &recordingSink{}
	if err := cam.Render(geom.NewList(), sink, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if sink.width != 3 || sink.height != 3 || len(sink.pixels) != 9 || !sink.ended {
		t.Fatalf("sink got %dx%d, %d pixels, ended=%v", sink.width, sink.height, len(sink.pixels), sink.ended)
	}

	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff(colors.New(0.75, 0.85, 1.0), sink.at(1, 1), approx); diff != "" {
		t.Errorf("center pixel mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 3; i++ {
		top, mid, bottom := sink.at(i, 0), sink.at(i, 1), sink.at(i, 2)
		if !(top.R < mid.R && mid.R < bottom.R) {
			t.Errorf("column %d does not fade to white downwards: %v %v %v", i, top, mid, bottom)
		}
		if math.Abs(top.B-1) > 1e-12 || math.Abs(bottom.B-1) > 1e-12 {
			t.Errorf("column %d: blue channel should stay 1", i)
		}
	}
}

func TestRenderWorkersDeterministic(t *testing.T) {
	world := geom.NewList(
		testSphere(),
		geom.NewSphere(vectors.Vec3{X: 0, Y: -100.5, Z: -1}, 100, material.NewLambertian(colors.Gray(0.5))),
	)
	renderWith := func(workers int) []colors.Color {
		cam := &Camera{
			AspectRatio:     16.0 / 9.0,
			ImageWidth:      32,
			SamplesPerPixel: 4,
			MaxDepth:        6,
			Seed:            7,
			Workers:         workers,
		}
		sink := &recordingSink{}
		if err := cam.Render(world, sink, nil); err != nil {
			t.Fatalf("Render with %d workers: %v", workers, err)
		}
		return sink.pixels
	}

	want := renderWith(1)
	for _, workers := range []int{2, 4, 9} {
		if diff := cmp.Diff(want, renderWith(workers)); diff != "" {
			t.Errorf("%d workers differ from sequential (-want +got):\n%s", workers, diff)
		}
	}
}

func TestRenderNonFinite(t *testing.T) {
	cases := map[string]*Camera{
		"no samples": {AspectRatio: 1, ImageWidth: 2, SamplesPerPixel: 0, MaxDepth: 1},
		"nan source": {
			AspectRatio: 1, ImageWidth: 2, SamplesPerPixel: 1, MaxDepth: 1,
			Source: func(int) vectors.Sampler { return constSampler(math.NaN()) },
		},
		"nan source parallel": {
			AspectRatio: 1, ImageWidth: 2, SamplesPerPixel: 1, MaxDepth: 1, Workers: 3,
			Source: func(int) vectors.Sampler { return constSampler(math.NaN()) },
		},
	}
	for name, cam := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			err := cam.Render(geom.NewList(), sink, nil)
			if !errors.Is(err, ErrNonFinite) {
				t.Fatalf("err = %v, want ErrNonFinite", err)
			}
			if len(sink.pixels) != 0 || sink.ended {
				t.Errorf("sink received %d pixels, ended=%v", len(sink.pixels), sink.ended)
			}
		})
	}
}

func TestRenderSinkError(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cam := &Camera{AspectRatio: 1, ImageWidth: 4, SamplesPerPixel: 1, MaxDepth: 1, Workers: workers}
		sink := &recordingSink{failAfter: 5}
		err := cam.Render(geom.NewList(), sink, nil)
		if !errors.Is(err, errSinkFull) {
			t.Errorf("workers=%d: err = %v, want the sink's error", workers, err)
		}
		if sink.ended {
			t.Errorf("workers=%d: End called after a failed write", workers)
		}
	}
}
