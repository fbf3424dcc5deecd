package tiff

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/echoflaresat/pinhole/colors"
	"golang.org/x/exp/mmap"
)

type stripedTiff struct {
	header TiffHeader
	reader io.ReaderAt
}

// LoadStripedTiff memory-maps an uncompressed, strip-organized TIFF.
// Pixels are read from the mapping on demand. The returned image implements
// io.Closer; the file stays mapped until it is closed.
func LoadStripedTiff(path string) (image.Image, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	img, err := newStripedTiff(reader)
	if err != nil {
		reader.Close()
		return nil, err
	}
	return img, nil
}

func newStripedTiff(reader io.ReaderAt) (*stripedTiff, error) {
	header, err := parseTiffHeader(reader)
	if err != nil {
		return nil, err
	}

	if len(header.StripOffsets) == 0 {
		return nil, ErrWrongLayout
	}
	if len(header.StripOffsets) != len(header.StripByteCounts) {
		return nil, fmt.Errorf("invalid strip offset/length")
	}
	if header.Compression != CompressionNone {
		return nil, fmt.Errorf("unsupported compression for striped TIFF: %d", header.Compression)
	}
	if err := header.checkPixelFormat(); err != nil {
		return nil, err
	}
	if err := header.checkStrips(); err != nil {
		return nil, err
	}

	return &stripedTiff{header: header, reader: reader}, nil
}

// checkStrips verifies that there is a strip for every band of
// RowsPerStrip rows and that each strip holds all of its pixels.
func (h TiffHeader) checkStrips() error {
	strips := (h.Height + h.RowsPerStrip - 1) / h.RowsPerStrip
	if len(h.StripOffsets) < strips {
		return fmt.Errorf("%w: %d rows need %d strips, found %d",
			ErrIncompleteLayout, h.Height, strips, len(h.StripOffsets))
	}
	rowBytes := h.Width * h.SamplesPerPixel
	for i := 0; i < strips; i++ {
		rows := min(h.RowsPerStrip, h.Height-i*h.RowsPerStrip)
		if h.StripByteCounts[i]/rowBytes < rows {
			return fmt.Errorf("%w: strip %d has %d bytes, need %d rows of %d",
				ErrIncompleteLayout, i, h.StripByteCounts[i], rows, rowBytes)
		}
	}
	return nil
}

// Close releases the memory mapping behind the image, if any. The image
// must not be used afterwards.
func (t *stripedTiff) Close() error {
	if c, ok := t.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *stripedTiff) ColorModel() color.Model {
	return color.RGBAModel
}

func (t *stripedTiff) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.header.Width, t.header.Height)
}

func (t *stripedTiff) At(x, y int) color.Color {
	h := t.header
	if !image.Pt(x, y).In(t.Bounds()) {
		return colors.Black()
	}

	strip := y / h.RowsPerStrip
	localY := y % h.RowsPerStrip
	bytesPerPixel := h.SamplesPerPixel

	idx := h.StripOffsets[strip] + (localY*h.Width+x)*bytesPerPixel

	var buf [4]byte
	if _, err := t.reader.ReadAt(buf[:bytesPerPixel], int64(idx)); err != nil {
		panic(fmt.Sprintf("could not read pixel at (%d,%d): %v", x, y, err))
	}
	if h.Photometric == PhotometricBlackIsZero {
		return colors.From8BitRgb(buf[0], buf[0], buf[0])
	}
	return colors.From8BitRgb(buf[0], buf[1], buf[2])
}
