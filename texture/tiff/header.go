package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type TiffHeader struct {
	ByteOrder       binary.ByteOrder
	Width, Height   int
	SamplesPerPixel int
	BitsPerSample   []int
	Photometric     int
	Compression     int
	PlanarConfig    int

	// Strip layout
	RowsPerStrip    int
	StripOffsets    []int
	StripByteCounts []int

	// Tile layout
	TileWidth      int
	TileHeight     int
	TileOffsets    []int
	TileByteCounts []int
}

// https://www.loc.gov/preservation/digital/formats/content/tiff_tags.shtml
const (
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagStripOffsets              = 273
	TagSamplesPerPixel           = 277
	TagRowsPerStrip              = 278
	TagStripByteCounts           = 279
	TagPlanarConfiguration       = 284
	TagTileWidth                 = 322
	TagTileLength                = 323
	TagTileOffsets               = 324
	TagTileByteCounts            = 325
)

const (
	CompressionNone       = 1
	CompressionDeflate    = 8
	CompressionDeflateOld = 32946

	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
)

// field types that can carry the integer tags read here
const (
	typeShort = 3
	typeLong  = 4
)

var (
	// ErrInvalidTiffHeader means the file is not a TIFF at all.
	ErrInvalidTiffHeader = errors.New("invalid TIFF header")
	// ErrWrongLayout means the file is a TIFF but stored with the other layout
	// (strips vs tiles) than the reader that rejected it.
	ErrWrongLayout = errors.New("TIFF layout not handled by this reader")
	// ErrIncompleteLayout means the strips or tiles listed in the header do
	// not cover the whole image.
	ErrIncompleteLayout = errors.New("TIFF strips or tiles do not cover the image")
)

func parseTiffHeader(reader io.ReaderAt) (TiffHeader, error) {
	read := func(offset int64, size int) ([]byte, error) {
		buf := make([]byte, size)
		_, err := reader.ReadAt(buf, offset)
		return buf, err
	}

	header, err := read(0, 8)
	if err != nil {
		return TiffHeader{}, fmt.Errorf("%w: %v", ErrInvalidTiffHeader, err)
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return TiffHeader{}, ErrInvalidTiffHeader
	}
	if bo.Uint16(header[2:4]) != 42 {
		return TiffHeader{}, ErrInvalidTiffHeader
	}
	ifdOffset := int64(bo.Uint32(header[4:8]))

	entryCountRaw, err := read(ifdOffset, 2)
	if err != nil {
		return TiffHeader{}, fmt.Errorf("reading IFD entry count: %w", err)
	}
	numEntries := int(bo.Uint16(entryCountRaw))
	entriesRaw, err := read(ifdOffset+2, numEntries*12)
	if err != nil {
		return TiffHeader{}, fmt.Errorf("reading IFD entries: %w", err)
	}

	hdr := TiffHeader{
		ByteOrder:       bo,
		SamplesPerPixel: 1,
		Photometric:     -1,
		Compression:     CompressionNone,
		PlanarConfig:    1,
	}

	for i := 0; i < numEntries; i++ {
		entry := entriesRaw[i*12 : (i+1)*12]
		tag := bo.Uint16(entry[0:2])
		typ := bo.Uint16(entry[2:4])
		count := int(bo.Uint32(entry[4:8]))

		// values read as an array of SHORT or LONG, inline when they fit in 4 bytes
		values := func() ([]int, error) {
			size := 4
			if typ == typeShort {
				size = 2
			}
			raw := entry[8:12]
			if count*size > 4 {
				b, rerr := read(int64(bo.Uint32(entry[8:12])), count*size)
				if rerr != nil {
					return nil, fmt.Errorf("reading tag %d: %w", tag, rerr)
				}
				raw = b
			}
			out := make([]int, count)
			for j := range out {
				if size == 2 {
					out[j] = int(bo.Uint16(raw[j*2:]))
				} else {
					out[j] = int(bo.Uint32(raw[j*4:]))
				}
			}
			return out, nil
		}
		scalar := func() (int, error) {
			v, err := values()
			if err != nil {
				return 0, err
			}
			if len(v) == 0 {
				return 0, fmt.Errorf("tag %d has no value", tag)
			}
			return v[0], nil
		}

		var err error
		switch tag {
		case TagImageWidth:
			hdr.Width, err = scalar()
		case TagImageLength:
			hdr.Height, err = scalar()
		case TagBitsPerSample:
			hdr.BitsPerSample, err = values()
		case TagCompression:
			hdr.Compression, err = scalar()
		case TagPhotometricInterpretation:
			hdr.Photometric, err = scalar()
		case TagStripOffsets:
			hdr.StripOffsets, err = values()
		case TagSamplesPerPixel:
			hdr.SamplesPerPixel, err = scalar()
		case TagRowsPerStrip:
			hdr.RowsPerStrip, err = scalar()
		case TagStripByteCounts:
			hdr.StripByteCounts, err = values()
		case TagPlanarConfiguration:
			hdr.PlanarConfig, err = scalar()
		case TagTileWidth:
			hdr.TileWidth, err = scalar()
		case TagTileLength:
			hdr.TileHeight, err = scalar()
		case TagTileOffsets:
			hdr.TileOffsets, err = values()
		case TagTileByteCounts:
			hdr.TileByteCounts, err = values()
		}
		if err != nil {
			return TiffHeader{}, err
		}
	}

	if hdr.Width <= 0 || hdr.Height <= 0 {
		return TiffHeader{}, fmt.Errorf("invalid dimensions %dx%d", hdr.Width, hdr.Height)
	}
	if hdr.RowsPerStrip <= 0 {
		hdr.RowsPerStrip = hdr.Height
	}
	return hdr, nil
}

// checkPixelFormat accepts 8-bit chunky grayscale, RGB and RGBA (alpha ignored).
func (h TiffHeader) checkPixelFormat() error {
	if h.PlanarConfig != 1 {
		return fmt.Errorf("unsupported planar configuration: %d", h.PlanarConfig)
	}
	if len(h.BitsPerSample) == 0 || h.BitsPerSample[0] != 8 {
		return fmt.Errorf("unsupported bits per sample: %v", h.BitsPerSample)
	}
	switch h.Photometric {
	case PhotometricBlackIsZero:
		if h.SamplesPerPixel != 1 {
			return fmt.Errorf("unsupported grayscale format: %d samples/pixel", h.SamplesPerPixel)
		}
	case PhotometricRGB:
		if h.SamplesPerPixel != 3 && h.SamplesPerPixel != 4 {
			return fmt.Errorf("unsupported RGB format: %d samples/pixel", h.SamplesPerPixel)
		}
	default:
		return fmt.Errorf("unsupported photometric interpretation: %d", h.Photometric)
	}
	return nil
}
