package colors

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a non-premultiplied sRGB color with components in [0,1].
type Color struct {
	R, G, B, A float32
}

var (
	Background  = Color{0.0588, 0.0666, 0.0705, 1}
	Grid        = Color{0.2, 0.2, 0.2, 1}
	White       = Color{1, 1, 250.0 / 255.0, 1}
	Blue        = Color{1.0 / 255.0, 111.0 / 255.0, 185.0 / 255.0, 1}
	Green       = Color{4.0 / 255.0, 167.0 / 255.0, 119.0 / 255.0, 1}
	Red         = Color{236.0 / 255.0, 78.0 / 255.0, 32.0 / 255.0, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
)

func RGBA(r, g, b, a float32) Color { return Color{r, g, b, a} }

// FromHex decodes a 0xAARRGGBB value.
func FromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xFF) / 255,
		G: float32((hex>>8)&0xFF) / 255,
		B: float32(hex&0xFF) / 255,
		A: float32((hex>>24)&0xFF) / 255,
	}
}

// Hex encodes the color as 0xAARRGGBB.
func (c Color) Hex() uint32 {
	b := c.Bytes()
	return uint32(b[3])<<24 | uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Bytes quantizes each channel to 8 bits (truncating), in RGBA order.
func (c Color) Bytes() [4]uint8 {
	return [4]uint8{quantize(c.R), quantize(c.G), quantize(c.B), quantize(c.A)}
}

func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// ToLinear converts the 8-bit quantized RGB channels from sRGB to linear.
// Alpha is passed through untouched.
func (c Color) ToLinear() [4]float32 {
	b := c.Bytes()
	r, g, bl := colorful.Color{
		R: float64(b[0]) / 255,
		G: float64(b[1]) / 255,
		B: float64(b[2]) / 255,
	}.LinearRgb()
	return [4]float32{float32(r), float32(g), float32(bl), c.A}
}

// ClearValue is the linear color widened for render pass clear ops.
func (c Color) ClearValue() [4]float64 {
	l := c.ToLinear()
	return [4]float64{float64(l[0]), float64(l[1]), float64(l[2]), float64(l[3])}
}

// Array returns the raw (non-linearized) components.
func (c Color) Array() [4]float32 { return [4]float32{c.R, c.G, c.B, c.A} }

// quantize truncates like an integer cast; the small bias absorbs float
// error so that FromHex(x).Hex() == x.
func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	return uint8(uint32(v*255+1e-3) & 0xFF)
}
