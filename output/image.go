package output

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/echoflaresat/pinhole/colors"
	"golang.org/x/image/tiff"
)

// Image collects a render into an in-memory 8-bit image.
type Image struct {
	img  *image.NRGBA
	next int
}

func NewImage() *Image {
	return &Image{}
}

func (s *Image) Begin(width, height int) error {
	s.img = image.NewNRGBA(image.Rect(0, 0, width, height))
	s.next = 0
	return nil
}

func (s *Image) WritePixel(c colors.Color) error {
	w, h := s.img.Rect.Dx(), s.img.Rect.Dy()
	if s.next >= w*h {
		return fmt.Errorf("%w: more than %dx%d pixels", ErrPixelCount, w, h)
	}
	s.img.SetNRGBA(s.next%w, s.next/w, c.ToNRGBA())
	s.next++
	return nil
}

func (s *Image) End() error {
	if total := s.img.Rect.Dx() * s.img.Rect.Dy(); s.next != total {
		return fmt.Errorf("%w: got %d of %d", ErrPixelCount, s.next, total)
	}
	return nil
}

// Image returns the collected picture. It is nil before Begin.
func (s *Image) Image() *image.NRGBA {
	return s.img
}

// Save writes img to path, picking the format from the extension:
// .png, .jpg/.jpeg, .tif/.tiff (deflate) or .ppm.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	encode, err := encoderFor(ext)
	if err != nil {
		return err
	}

	slog.Info("writing image", "path", path, "size", img.Bounds().Size())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

func encoderFor(ext string) (func(io.Writer, image.Image) error, error) {
	switch ext {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	case ".ppm":
		return EncodePPM, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", ext)
	}
}
