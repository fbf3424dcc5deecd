package output

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/echoflaresat/pinhole/colors"
	"golang.org/x/image/tiff"
)

func testPixels() []colors.Color {
	return []colors.Color{
		colors.New(1, 0, 0), colors.New(0, 1, 0), colors.New(0, 0, 1),
		colors.White(), colors.Gray(0.25), colors.Black(),
	}
}

func TestImageSink(t *testing.T) {
	sink := NewImage()
	pixels := testPixels()
	if err := writeAll(t, sink, 3, 2, pixels); err != nil {
		t.Fatalf("writing image: %v", err)
	}

	img := sink.Image()
	if got := img.Bounds(); got != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", got)
	}
	for i, px := range pixels {
		if got, want := img.NRGBAAt(i%3, i/3), px.ToNRGBA(); got != want {
			t.Errorf("pixel (%d,%d) = %v, want %v", i%3, i/3, got, want)
		}
	}
}

func TestImageSinkPixelCount(t *testing.T) {
	err := writeAll(t, NewImage(), 2, 2, testPixels()[:3])
	if !errors.Is(err, ErrPixelCount) {
		t.Errorf("short image: err = %v, want ErrPixelCount", err)
	}

	err = writeAll(t, NewImage(), 2, 2, testPixels())
	if !errors.Is(err, ErrPixelCount) {
		t.Errorf("long image: err = %v, want ErrPixelCount", err)
	}
}

func renderedImage(t *testing.T) *image.NRGBA {
	t.Helper()
	sink := NewImage()
	if err := writeAll(t, sink, 3, 2, testPixels()); err != nil {
		t.Fatalf("writing image: %v", err)
	}
	return sink.Image()
}

func TestSaveLossless(t *testing.T) {
	want := renderedImage(t)
	dir := t.TempDir()

	decoders := map[string]func(*os.File) (image.Image, error){
		"out.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"out.tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
		"out.TIF":  func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
		"out.ppm":  func(f *os.File) (image.Image, error) { return ReadPPM(f) },
	}
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			got, err := decode(f)
			if err != nil {
				t.Fatalf("decoding %s: %v", name, err)
			}
			if !got.Bounds().Eq(want.Bounds()) {
				t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
			}
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					r1, g1, b1, _ := got.At(x, y).RGBA()
					r2, g2, b2, _ := want.At(x, y).RGBA()
					if r1 != r2 || g1 != g2 || b1 != b2 {
						t.Errorf("pixel (%d,%d) differs", x, y)
					}
				}
			}
		})
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	if err := Save(path, renderedImage(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" || cfg.Width != 3 || cfg.Height != 2 {
		t.Errorf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestSaveUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	if err := Save(path, renderedImage(t)); err == nil {
		t.Fatal("expected an error for .bmp")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unsupported format left a file behind")
	}
}
