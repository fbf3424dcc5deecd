package texture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"

	"github.com/echoflaresat/pinhole/colors"
	"github.com/echoflaresat/pinhole/texture/tiff"
	"github.com/echoflaresat/pinhole/vectors"
	tiffcodec "github.com/echoflaresat/tiff"

	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode
)

// Texture maps a world-space point to a color.
type Texture interface {
	Sample(p vectors.Vec3) colors.Color
}

// Solid is a texture of a single color.
type Solid struct {
	Color colors.Color
}

func NewSolid(c colors.Color) Solid {
	return Solid{Color: c}
}

func (s Solid) Sample(vectors.Vec3) colors.Color {
	return s.Color
}

// Spherical wraps an equirectangular image around Center: the direction from
// Center to the sampled point is converted to latitude/longitude.
type Spherical struct {
	Width  int
	Height int
	Center vectors.Vec3
	img    image.Image
}

func NewSpherical(img image.Image, center vectors.Vec3) Spherical {
	return Spherical{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Center: center,
		img:    img,
	}
}

// Sample returns the nearest texel, no interpolation.
func (t Spherical) Sample(p vectors.Vec3) colors.Color {
	x, y := t.getXY(p.Sub(t.Center))
	b := t.img.Bounds()
	return colors.FromStandardColor(t.img.At(b.Min.X+x, b.Min.Y+y))
}

func (t Spherical) getXY(d vectors.Vec3) (int, int) {
	lat := math.Atan2(d.Y, math.Sqrt(d.X*d.X+d.Z*d.Z))
	lon := math.Atan2(-d.Z, d.X) + math.Pi

	u := lon / (2 * math.Pi) * float64(t.Width)
	v := (0.5 - lat/math.Pi) * float64(t.Height)

	x := int(u)
	y := int(v)
	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	return x, y
}

// Load reads an image file. Uncompressed striped and tiled TIFFs are memory
// mapped; other TIFFs go through the generic TIFF decoder; anything else
// through the registered image codecs (PNG, JPEG). A memory-mapped image
// implements io.Closer and keeps the file mapped until closed.
func Load(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	img, err := tiff.LoadStripedTiff(path)
	if err == nil {
		return img, nil
	}
	if errors.Is(err, tiff.ErrInvalidTiffHeader) {
		return decodeFile(path, func(f *os.File) (image.Image, error) {
			img, _, err := image.Decode(f)
			return img, err
		})
	}
	if !errors.Is(err, tiff.ErrWrongLayout) {
		slog.Warn("failed to load striped TIFF", "path", path, "error", err)
	}

	img, err = tiff.LoadTiledTiff(path)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, tiff.ErrWrongLayout) {
		slog.Warn("failed to load tiled TIFF", "path", path, "error", err)
	}

	return decodeFile(path, func(f *os.File) (image.Image, error) {
		return tiffcodec.Decode(f)
	})
}

func decodeFile(path string, decode func(*os.File) (image.Image, error)) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
