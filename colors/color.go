package colors

import (
	"image/color"
	"math"
)

// Color is a linear RGB color with float64 components, nominally in [0,1].
// Components may exceed 1 while samples are being accumulated.
type Color struct {
	R, G, B float64
}

func New(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

func White() Color {
	return Color{R: 1, G: 1, B: 1}
}

func Black() Color {
	return Color{}
}

// SkyBlue is the zenith color of the background gradient.
func SkyBlue() Color {
	return Color{R: 0.5, G: 0.7, B: 1.0}
}

// Gray returns the neutral color (v, v, v).
func Gray(v float64) Color {
	return Color{R: v, G: v, B: v}
}

// Add returns c + o (component-wise).
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns c * o (component-wise).
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Scale returns c * s (scalar).
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Mix returns lerp(c, o, t) = c*(1-t) + o*t.
func (c Color) Mix(o Color, t float64) Color {
	return Color{
		R: c.R*(1-t) + o.R*t,
		G: c.G*(1-t) + o.G*t,
		B: c.B*(1-t) + o.B*t,
	}
}

// Clamp01 clamps each component into [0,1].
func (c Color) Clamp01() Color {
	return Color{
		R: clamp01(c.R),
		G: clamp01(c.G),
		B: clamp01(c.B),
	}
}

// IsFinite reports whether no component is NaN or infinite.
func (c Color) IsFinite() bool {
	for _, v := range [3]float64{c.R, c.G, c.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Gamma returns the color converted from linear space with gamma 2.
// Negative components map to 0.
func (c Color) Gamma() Color {
	return Color{
		R: linearToGamma(c.R),
		G: linearToGamma(c.G),
		B: linearToGamma(c.B),
	}
}

// Bytes encodes c for an 8-bit image: gamma 2, then int(256 * clamp(x, 0, 0.999)).
func (c Color) Bytes() (r, g, b uint8) {
	gc := c.Gamma()
	return to8bit(gc.R), to8bit(gc.G), to8bit(gc.B)
}

// ToNRGBA returns the opaque 8-bit encoding of c (see Bytes).
func (c Color) ToNRGBA() color.NRGBA {
	r, g, b := c.Bytes()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// RGBA implements color.Color on the linear values, without gamma.
func (c Color) RGBA() (r, g, b, a uint32) {
	cc := c.Clamp01()
	return uint32(cc.R * 65535),
		uint32(cc.G * 65535),
		uint32(cc.B * 65535),
		65535
}

// FromStandardColor converts any color.Color into a Color, dropping alpha
// after de-premultiplying.
func FromStandardColor(c color.Color) Color {
	// Fast path: already a Color
	if cc, ok := c.(Color); ok {
		return cc
	}

	r16, g16, b16, a16 := c.RGBA()
	if a16 == 0 {
		return Color{}
	}

	invA := float64(0xFFFF) / float64(a16)
	return Color{
		R: float64(r16) * invA / 65535.0,
		G: float64(g16) * invA / 65535.0,
		B: float64(b16) * invA / 65535.0,
	}
}

func From8BitRgb(r, g, b byte) Color {
	return Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

// --- helpers ---

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func linearToGamma(x float64) float64 {
	if x > 0 {
		return math.Sqrt(x)
	}
	return 0
}

// to8bit truncates toward zero after clamping to [0, 0.999], so 1.0 maps to 255.
func to8bit(x float64) uint8 {
	const hi = 0.999
	if x < 0 {
		x = 0
	} else if x > hi {
		x = hi
	}
	return uint8(256 * x)
}
