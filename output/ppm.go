// Package output holds the pixel sinks a render can be written to and the
// image file codecs around them.
package output

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/echoflaresat/pinhole/colors"
)

var (
	// ErrPixelCount is returned by End when a sink received a different
	// number of pixels than Begin announced.
	ErrPixelCount = errors.New("pixel count does not match image size")
	// ErrInvalidPPM is returned by ReadPPM for input it cannot parse.
	ErrInvalidPPM = errors.New("invalid PPM data")
)

// PPM streams an image as plain-text portable pixmap (P3): a header, then
// one "r g b" line per pixel.
type PPM struct {
	w       *bufio.Writer
	width   int
	height  int
	written int
}

func NewPPM(w io.Writer) *PPM {
	return &PPM{w: bufio.NewWriter(w)}
}

func (p *PPM) Begin(width, height int) error {
	p.width, p.height, p.written = width, height, 0
	_, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height)
	return err
}

func (p *PPM) WritePixel(c colors.Color) error {
	r, g, b := c.Bytes()
	p.written++
	_, err := fmt.Fprintf(p.w, "%d %d %d\n", r, g, b)
	return err
}

// End flushes buffered output.
func (p *PPM) End() error {
	if err := p.w.Flush(); err != nil {
		return err
	}
	if p.written != p.width*p.height {
		return fmt.Errorf("%w: wrote %d of %dx%d", ErrPixelCount, p.written, p.width, p.height)
	}
	return nil
}

// EncodePPM writes an already quantized image as P3.
func EncodePPM(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B)
		}
	}
	return bw.Flush()
}

// ReadPPM parses a plain-text (P3) pixmap. Comments are allowed anywhere a
// token may start; samples are rescaled from the file's maxval to 8 bits.
func ReadPPM(r io.Reader) (*image.NRGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	tokens := ppmTokens(data)
	if len(tokens) < 4 || tokens[0] != "P3" {
		return nil, fmt.Errorf("%w: missing P3 header", ErrInvalidPPM)
	}

	header := make([]int, 3)
	for i := range header {
		v, err := strconv.Atoi(tokens[1+i])
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: bad header field %q", ErrInvalidPPM, tokens[1+i])
		}
		header[i] = v
	}
	width, height, maxval := header[0], header[1], header[2]
	if maxval > 65535 {
		return nil, fmt.Errorf("%w: maxval %d", ErrInvalidPPM, maxval)
	}

	samples := tokens[4:]
	// bound width*height by the data present before multiplying
	if width > len(samples)/3/height {
		return nil, fmt.Errorf("%w: %dx%d image but only %d samples", ErrInvalidPPM, width, height, len(samples))
	}
	if len(samples) != 3*width*height {
		return nil, fmt.Errorf("%w: expected %d samples, found %d", ErrInvalidPPM, 3*width*height, len(samples))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		var rgb [3]uint8
		for k := range rgb {
			v, err := strconv.Atoi(samples[3*i+k])
			if err != nil || v < 0 || v > maxval {
				return nil, fmt.Errorf("%w: bad sample %q", ErrInvalidPPM, samples[3*i+k])
			}
			rgb[k] = uint8((v*255 + maxval/2) / maxval)
		}
		img.SetNRGBA(i%width, i/width, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
	}
	return img, nil
}

func ppmTokens(data []byte) []string {
	var tokens []string
	for _, line := range bytes.Split(data, []byte("\n")) {
		if i := bytes.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, f := range bytes.Fields(line) {
			tokens = append(tokens, string(f))
		}
	}
	return tokens
}
