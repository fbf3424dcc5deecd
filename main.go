package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/echoflaresat/pinhole/output"
	"github.com/echoflaresat/pinhole/render"
	"github.com/echoflaresat/pinhole/scene"
)

type config struct {
	scene, initScene *string
	width, samples   *int
	depth, workers   *int
	aspect           *float64
	seed             *uint64
	out              *string
	verbose          *bool
	showHelp         *bool
}

func defineFlags() config {
	return config{
		scene:     flag.String("scene", "", "Scene file (YAML); the built-in two-sphere scene if empty"),
		initScene: flag.String("init", "", "Write the built-in scene to this file and exit"),

		width:   flag.Int("width", 0, "Image width in pixels (overrides the scene)"),
		aspect:  flag.Float64("aspect", 0, "Aspect ratio width/height (overrides the scene)"),
		samples: flag.Int("samples", 0, "Samples per pixel (overrides the scene)"),
		depth:   flag.Int("depth", 0, "Maximum ray bounces (overrides the scene)"),
		seed:    flag.Uint64("seed", 0, "Random seed (overrides the scene)"),
		workers: flag.Int("workers", 0, "Scanlines rendered in parallel (overrides the scene)"),

		out: flag.String("out", "-", "Output file (.ppm, .png, .jpg, .tif); - writes PPM to stdout"),

		verbose:  flag.Bool("v", false, "Verbose logging"),
		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Pinhole - Offline Sphere Ray Tracer

Usage:
  %[1]s [options] > image.ppm
  %[1]s -scene scene.yaml -out image.png

`, os.Args[0])

	printGroup("Scene", []string{"scene", "init"})
	printGroup("Camera Options", []string{"width", "aspect", "samples", "depth", "seed", "workers"})
	printGroup("Output", []string{"out"})
	printGroup("Misc", []string{"v", "h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-8s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func main() {

	cfg := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *cfg.showHelp {
		printHelp()
		return
	}

	level := slog.LevelInfo
	if *cfg.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *cfg.initScene != "" {
		if err := scene.Save(scene.DefaultConfig(), *cfg.initScene); err != nil {
			log.Fatalf("Failed to write scene: %v", err)
		}
		slog.Info("wrote default scene", "path", *cfg.initScene)
		return
	}

	sc := loadSceneOrExit(*cfg.scene)
	applyOverrides(sc, cfg)

	if err := writeOutput(sc, *cfg.out, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func loadSceneOrExit(path string) *scene.Config {
	if path == "" {
		return scene.DefaultConfig()
	}
	sc, err := scene.Load(path)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}
	slog.Info("scene loaded", "path", path, "spheres", len(sc.Spheres), "materials", len(sc.Materials))
	return sc
}

// applyOverrides copies the camera flags given on the command line into the
// scene; flags left at their defaults do not touch it.
func applyOverrides(sc *scene.Config, cfg config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			sc.Camera.ImageWidth = *cfg.width
		case "aspect":
			sc.Camera.AspectRatio = *cfg.aspect
		case "samples":
			sc.Camera.SamplesPerPixel = *cfg.samples
		case "depth":
			sc.Camera.MaxDepth = *cfg.depth
		case "seed":
			sc.Camera.Seed = *cfg.seed
		case "workers":
			sc.Camera.Workers = *cfg.workers
		}
	})
}

// writeOutput renders sc to out. "-" streams PPM to stdout and a .ppm path
// streams to the file; other formats are collected in memory and encoded
// at the end.
func writeOutput(sc *scene.Config, out string, stdout, progress io.Writer) error {
	if out == "-" {
		return renderScene(sc, output.NewPPM(stdout), progress)
	}

	if strings.EqualFold(filepath.Ext(out), ".ppm") {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", out, err)
		}
		if err := renderScene(sc, output.NewPPM(f), progress); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	sink := output.NewImage()
	if err := renderScene(sc, sink, progress); err != nil {
		return err
	}
	return output.Save(out, sink.Image())
}

// renderScene builds the scene and renders it into sink.
func renderScene(sc *scene.Config, sink render.PixelSink, progress io.Writer) error {
	camera, world, err := scene.Build(sc)
	if err != nil {
		return err
	}

	slog.Info("rendering",
		"width", camera.ImageWidth,
		"height", camera.ImageHeight(),
		"samples", camera.SamplesPerPixel,
		"depth", camera.MaxDepth,
		"workers", camera.Workers)
	start := time.Now()

	if err := camera.Render(world, sink, progress); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	slog.Info("render finished", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
