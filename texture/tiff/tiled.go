package tiff

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/echoflaresat/pinhole/colors"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/exp/mmap"
)

// tileCacheSize is the number of decoded tiles kept per image.
const tileCacheSize = 200

type tiledTiff struct {
	header TiffHeader
	reader io.ReaderAt
	cache  *lru.Cache // tileIndex -> []byte
}

// LoadTiledTiff memory-maps a tile-organized TIFF, uncompressed or deflate.
// Decoded tiles are kept in an LRU cache. The returned image implements
// io.Closer; the file stays mapped until it is closed.
func LoadTiledTiff(path string) (image.Image, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	img, err := newTiledTiff(reader)
	if err != nil {
		reader.Close()
		return nil, err
	}
	return img, nil
}

func newTiledTiff(reader io.ReaderAt) (*tiledTiff, error) {
	header, err := parseTiffHeader(reader)
	if err != nil {
		return nil, err
	}

	if len(header.TileOffsets) == 0 || header.TileWidth <= 0 || header.TileHeight <= 0 {
		return nil, ErrWrongLayout
	}
	if len(header.TileOffsets) != len(header.TileByteCounts) {
		return nil, fmt.Errorf("invalid tile offset/length")
	}
	switch header.Compression {
	case CompressionNone, CompressionDeflate, CompressionDeflateOld:
	default:
		return nil, fmt.Errorf("unsupported compression for tiled TIFF: %d", header.Compression)
	}
	if err := header.checkPixelFormat(); err != nil {
		return nil, err
	}
	if err := header.checkTiles(); err != nil {
		return nil, err
	}

	cache, err := lru.New(tileCacheSize)
	if err != nil {
		return nil, err
	}

	return &tiledTiff{
		header: header,
		reader: reader,
		cache:  cache,
	}, nil
}

// checkTiles verifies that the header lists a tile for every cell of the
// tile grid and, for uncompressed files, that each tile is complete.
func (h TiffHeader) checkTiles() error {
	across := (h.Width + h.TileWidth - 1) / h.TileWidth
	down := (h.Height + h.TileHeight - 1) / h.TileHeight
	if len(h.TileOffsets)/across < down {
		return fmt.Errorf("%w: %dx%d tile grid, found %d tiles",
			ErrIncompleteLayout, across, down, len(h.TileOffsets))
	}
	if h.Compression != CompressionNone {
		return nil
	}
	rowBytes := h.TileWidth * h.SamplesPerPixel
	for i := 0; i < across*down; i++ {
		if h.TileByteCounts[i]/rowBytes < h.TileHeight {
			return fmt.Errorf("%w: tile %d has %d bytes", ErrIncompleteLayout, i, h.TileByteCounts[i])
		}
	}
	return nil
}

// Close releases the memory mapping behind the image, if any. The image
// must not be used afterwards.
func (t *tiledTiff) Close() error {
	t.cache.Purge()
	if c, ok := t.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *tiledTiff) ColorModel() color.Model {
	return color.RGBAModel
}

func (t *tiledTiff) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.header.Width, t.header.Height)
}

func (t *tiledTiff) tilesAcross() int {
	h := t.header
	return (h.Width + h.TileWidth - 1) / h.TileWidth
}

func (t *tiledTiff) At(x, y int) color.Color {
	h := t.header
	if !image.Pt(x, y).In(t.Bounds()) {
		return colors.Black()
	}

	tileIndex := (y/h.TileHeight)*t.tilesAcross() + x/h.TileWidth

	var tile []byte
	if val, ok := t.cache.Get(tileIndex); ok {
		tile = val.([]byte)
	} else {
		tile = t.loadTile(tileIndex)
		t.cache.Add(tileIndex, tile)
	}

	localX := x % h.TileWidth
	localY := y % h.TileHeight
	rowStride := h.TileWidth * h.SamplesPerPixel
	pixOffset := localY*rowStride + localX*h.SamplesPerPixel

	if h.Photometric == PhotometricBlackIsZero {
		v := tile[pixOffset]
		return colors.From8BitRgb(v, v, v)
	}
	return colors.From8BitRgb(tile[pixOffset], tile[pixOffset+1], tile[pixOffset+2])
}

func (t *tiledTiff) loadTile(index int) []byte {
	h := t.header
	offset := h.TileOffsets[index]
	byteCount := h.TileByteCounts[index]

	buf := make([]byte, byteCount)
	if _, err := t.reader.ReadAt(buf, int64(offset)); err != nil {
		panic(fmt.Sprintf("failed to read tile %d: %v", index, err))
	}

	if h.Compression == CompressionNone {
		return buf
	}

	r, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		panic(fmt.Sprintf("zlib decompression error in tile %d: %v", index, err))
	}
	defer r.Close()
	tile, err := io.ReadAll(r)
	if err != nil {
		panic(fmt.Sprintf("zlib read error in tile %d: %v", index, err))
	}
	if len(tile)/(h.TileWidth*h.SamplesPerPixel) < h.TileHeight {
		panic(fmt.Sprintf("tile %d decompressed to %d bytes", index, len(tile)))
	}
	return tile
}
