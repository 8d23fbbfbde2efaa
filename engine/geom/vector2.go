package geom

import "github.com/chewxy/math32"

// Vector2 is a 2D point or direction in pixel space (origin top-left, Y down).
type Vector2 struct {
	X, Y float32
}

func V2(x, y float32) Vector2 { return Vector2{X: x, Y: y} }

func Zero() Vector2 { return Vector2{} }

func (v Vector2) Add(o Vector2) Vector2   { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2   { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Scale(s float32) Vector2 { return Vector2{v.X * s, v.Y * s} }
func (v Vector2) Div(s float32) Vector2   { return Vector2{v.X / s, v.Y / s} }
func (v Vector2) Neg() Vector2            { return Vector2{-v.X, -v.Y} }
func (v Vector2) Dot(o Vector2) float32   { return v.X*o.X + v.Y*o.Y }
func (v Vector2) Cross(o Vector2) float32 { return v.X*o.Y - v.Y*o.X }
func (v Vector2) Length() float32         { return math32.Hypot(v.X, v.Y) }
func (v Vector2) LengthSquared() float32  { return v.X*v.X + v.Y*v.Y }
func (v Vector2) IsZero() bool            { return v.X == 0 && v.Y == 0 }
func (v Vector2) Array() [2]float32       { return [2]float32{v.X, v.Y} }
func (v Vector2) Lerp(o Vector2, t float32) Vector2 {
	return Vector2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Normalize returns v scaled to unit length. A zero vector yields NaN
// components; use NormalizeSafe when the input may be zero.
func (v Vector2) Normalize() Vector2 {
	return v.Div(v.Length())
}

// NormalizeSafe reports false and returns v unchanged for zero-length input.
func (v Vector2) NormalizeSafe() (Vector2, bool) {
	l := v.Length()
	if l == 0 || math32.IsNaN(l) {
		return v, false
	}
	return v.Div(l), true
}

// Angle is atan2(y, x) in radians.
func (v Vector2) Angle() float32 { return math32.Atan2(v.Y, v.X) }

// Rot90CW rotates by 90 degrees clockwise on screen (Y down).
func (v Vector2) Rot90CW() Vector2 { return Vector2{-v.Y, v.X} }

// Rot90CCW rotates by 90 degrees counter-clockwise on screen (Y down).
func (v Vector2) Rot90CCW() Vector2 { return Vector2{v.Y, -v.X} }

// Rotate rotates by rad around the origin using the same convention as the
// quad and polygon shaders (counter-clockwise in a Y-up frame).
func (v Vector2) Rotate(rad float32) Vector2 {
	s, c := math32.Sincos(rad)
	// flip to Y-up, rotate, flip back
	x, y := v.X, -v.Y
	return Vector2{x*c - y*s, -(x*s + y*c)}
}

// ToNDC maps pixel coordinates in [0,w]x[0,h] to [-1,1]x[-1,1] with Y flipped.
func (v Vector2) ToNDC(w, h int) Vector2 {
	return Vector2{
		X: v.X/float32(w)*2 - 1,
		Y: -(v.Y/float32(h)*2 - 1),
	}
}

// NDCToScreen is the inverse of ToNDC.
func NDCToScreen(ndc Vector2, w, h int) Vector2 {
	return Vector2{
		X: (ndc.X + 1) * 0.5 * float32(w),
		Y: (1 - ndc.Y) * 0.5 * float32(h),
	}
}

// PixelsToNDCWidth converts a horizontal pixel extent to an NDC extent.
func PixelsToNDCWidth(px float32, w int) float32 { return px / float32(w) * 2 }

// PixelsToNDCHeight converts a vertical pixel extent to an NDC extent.
func PixelsToNDCHeight(px float32, h int) float32 { return px / float32(h) * 2 }
