// Package components draws composite shapes and UI panels on top of the
// render package.
package components

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/render"
)

const (
	springWidth     = 30.0
	connectorLength = 15.0
	borderThickness = 1.5
	coilThickness   = 6.5
	restAngle       = 1.22 // about 70 degrees
)

// SpringGuide is the faint line drawn under the coils.
var SpringGuide = colors.FromHex(0x10eeeeee)

// Spring describes a coil spring between two anchors. RestLength is the
// anchor distance at which the coils sit at restAngle. Scale multiplies
// every drawn width.
type Spring struct {
	A, B       geom.Vector2
	RestLength float32
	Scale      float32
}

// Coils is the number of full zigzag segments the spring is drawn with.
// It depends on the rest length only, so the count does not jump while
// the spring stretches.
func (s Spring) Coils() int {
	scale := s.scale()
	rest := s.RestLength - connectorLength*scale*2
	segX := s.segmentLength() * math32.Cos(restAngle)
	n := int(math32.Floor(rest / segX))
	if n < 1 {
		n = 1
	}
	return n
}

func (s Spring) scale() float32 {
	if s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

func (s Spring) segmentLength() float32 {
	return math32.Abs(springWidth * s.scale() / math32.Sin(restAngle))
}

// DrawSpring draws s with the brush. The coils and connectors are flushed
// before the joint circles are queued so the joints land on top of the
// quads even though circles normally draw first.
func DrawSpring(b *render.Brush, r *render.Renderer, s Spring) error {
	d := s.B.Sub(s.A)
	dir, ok := d.NormalizeSafe()
	if !ok || s.RestLength <= 0 {
		return fmt.Errorf("spring at %v: %w", s.A, render.ErrDegenerate)
	}
	l := d.Length()
	scale := s.scale()
	angle := -dir.Angle()
	conn := dir.Scale(connectorLength * scale)

	if err := b.DrawLine(s.A, s.B, 5, SpringGuide); err != nil {
		return err
	}

	n := s.Coils()
	segLen := s.segmentLength()
	stretched := (l - connectorLength*scale*2) / float32(n)
	// past fully straight the coils lie flat
	coil := math32.Acos(clamp(stretched/segLen, -1, 1))
	segX := segLen * math32.Cos(coil)
	segY := segLen * math32.Sin(coil)
	thick := geom.V2(segLen, coilThickness*scale)
	half := geom.V2(segLen*0.5, coilThickness*scale)

	quad := func(center, size geom.Vector2, rot float32) error {
		return b.DrawQuadBorderRaw(center, size, colors.White, borderThickness*scale, colors.Black, rot, 0)
	}

	side := dir.Scale(segX * 0.25).Add(dir.Rot90CW().Scale(segY*0.25 - 2))
	if err := quad(s.A.Add(conn).Add(side), half, coil+angle); err != nil {
		return err
	}
	for i := 0; i < n-1; i++ {
		pos := s.A.Add(conn).Add(dir.Scale(segX * float32(i+1)))
		sign := float32(-1)
		if i%2 == 1 {
			sign = 1
		}
		if err := quad(pos, thick, coil*sign+angle); err != nil {
			return err
		}
	}
	if err := quad(s.B.Sub(conn).Sub(side), half, coil+angle); err != nil {
		return err
	}

	base := geom.V2(springWidth*scale, coilThickness*scale)
	perp := angle + math32.Pi/2
	if err := b.DrawLineRounded(s.A.Sub(dir.Scale(3)), s.A.Add(conn), 6, colors.White); err != nil {
		return err
	}
	if err := quad(s.A.Add(conn), base, perp); err != nil {
		return err
	}
	if err := b.DrawLineRounded(s.B.Add(dir.Scale(3)), s.B.Sub(conn), 6, colors.White); err != nil {
		return err
	}
	if err := quad(s.B.Sub(conn), base, perp); err != nil {
		return err
	}

	if err := b.Flush(r); err != nil {
		return err
	}

	if err := b.DrawCircleFilled(s.A, 2.5*scale, colors.Black); err != nil {
		return err
	}
	return b.DrawCircleFilled(s.B, 2.5*scale, colors.Black)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
