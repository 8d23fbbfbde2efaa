package tess

import (
	"github.com/chewxy/math32"
	"github.com/hubastard/physdraw/engine/geom"
)

// DefaultTolerance is the maximum distance, in pixels, between a curve and
// the polyline that replaces it.
const DefaultTolerance = 0.25

// maxFlattenDepth bounds curve subdivision (2^16 segments per curve).
const maxFlattenDepth = 16

// Contour is one flattened sub-path. Filling always treats it as closed.
type Contour struct {
	Points []geom.Vector2
	Closed bool
}

// Path is a list of flattened contours.
type Path struct {
	Contours []Contour
}

func (p *Path) Empty() bool {
	for _, c := range p.Contours {
		if len(c.Points) > 0 {
			return false
		}
	}
	return true
}

// Builder records path commands, flattening curves and arcs as they are added.
// It is reused across shapes via Reset.
type Builder struct {
	Tolerance float32

	path Path
	open bool
}

func NewBuilder() *Builder { return &Builder{Tolerance: DefaultTolerance} }

// Reset clears the recorded path without releasing memory.
func (b *Builder) Reset() {
	for i := range b.path.Contours {
		b.path.Contours[i].Points = b.path.Contours[i].Points[:0]
		b.path.Contours[i].Closed = false
	}
	b.path.Contours = b.path.Contours[:0]
	b.open = false
}

// Path returns the recorded path. It aliases the builder until the next Reset.
func (b *Builder) Path() *Path { return &b.path }

func (b *Builder) tol() float32 {
	if b.Tolerance <= 0 {
		return DefaultTolerance
	}
	return b.Tolerance
}

func (b *Builder) cur() *Contour { return &b.path.Contours[len(b.path.Contours)-1] }

// current returns the last point of the open contour.
func (b *Builder) current() (geom.Vector2, bool) {
	if !b.open {
		return geom.Vector2{}, false
	}
	c := b.cur()
	return c.Points[len(c.Points)-1], true
}

// MoveTo starts a new contour at p. An open contour is kept as is.
func (b *Builder) MoveTo(p geom.Vector2) *Builder {
	n := len(b.path.Contours)
	if n < cap(b.path.Contours) {
		b.path.Contours = b.path.Contours[:n+1]
		c := b.cur()
		c.Points = append(c.Points[:0], p)
		c.Closed = false
	} else {
		b.path.Contours = append(b.path.Contours, Contour{Points: []geom.Vector2{p}})
	}
	b.open = true
	return b
}

// LineTo adds a segment; without an open contour it behaves like MoveTo.
func (b *Builder) LineTo(p geom.Vector2) *Builder {
	if !b.open {
		return b.MoveTo(p)
	}
	c := b.cur()
	c.Points = append(c.Points, p)
	return b
}

// QuadTo adds a quadratic Bézier from the current point.
func (b *Builder) QuadTo(ctrl, to geom.Vector2) *Builder {
	from, ok := b.current()
	if !ok {
		return b.MoveTo(to)
	}
	b.flattenQuad(from, ctrl, to, b.tol(), 0)
	return b
}

// CubicTo adds a cubic Bézier from the current point.
func (b *Builder) CubicTo(c1, c2, to geom.Vector2) *Builder {
	from, ok := b.current()
	if !ok {
		return b.MoveTo(to)
	}
	b.flattenCubic(from, c1, c2, to, b.tol(), 0)
	return b
}

// ArcTo adds a circular arc around center, starting at angle start (radians,
// screen space: 0 is +X, π/2 is +Y) and sweeping by sweep. A line is added
// from the current point to the arc start when they differ.
func (b *Builder) ArcTo(center geom.Vector2, radius, start, sweep float32) *Builder {
	s, c := math32.Sincos(start)
	first := geom.V2(center.X+radius*c, center.Y+radius*s)
	if cur, ok := b.current(); !ok {
		b.MoveTo(first)
	} else if cur != first {
		b.LineTo(first)
	}

	n := arcSegments(radius, sweep, b.tol())
	step := sweep / float32(n)
	for i := 1; i < n; i++ {
		s, c := math32.Sincos(start + step*float32(i))
		b.LineTo(geom.V2(center.X+radius*c, center.Y+radius*s))
	}
	// a full turn ends exactly where it started
	if math32.Abs(sweep) >= 2*math32.Pi {
		return b.LineTo(first)
	}
	s, c = math32.Sincos(start + sweep)
	return b.LineTo(geom.V2(center.X+radius*c, center.Y+radius*s))
}

// Close marks the current contour closed; the next command starts a new one.
func (b *Builder) Close() *Builder {
	if b.open {
		b.cur().Closed = true
		b.open = false
	}
	return b
}

func (b *Builder) AddRectangle(min, max geom.Vector2) *Builder {
	return b.MoveTo(min).
		LineTo(geom.V2(max.X, min.Y)).
		LineTo(max).
		LineTo(geom.V2(min.X, max.Y)).
		Close()
}

// AddRoundedRectangle adds a rectangle whose corners are quarter circles of
// radius r, clamped to half the shorter side.
func (b *Builder) AddRoundedRectangle(min, max geom.Vector2, r float32) *Builder {
	w, h := math32.Abs(max.X-min.X), math32.Abs(max.Y-min.Y)
	r = math32.Min(r, math32.Min(w, h)/2)
	if r <= 0 {
		return b.AddRectangle(min, max)
	}
	x0, y0 := math32.Min(min.X, max.X), math32.Min(min.Y, max.Y)
	x1, y1 := x0+w, y0+h
	const q = math32.Pi / 2

	b.MoveTo(geom.V2(x0+r, y0))
	b.ArcTo(geom.V2(x1-r, y0+r), r, -q, q)
	b.ArcTo(geom.V2(x1-r, y1-r), r, 0, q)
	b.ArcTo(geom.V2(x0+r, y1-r), r, q, q)
	b.ArcTo(geom.V2(x0+r, y0+r), r, 2*q, q)
	return b.Close()
}

func (b *Builder) AddCircle(center geom.Vector2, r float32) *Builder {
	b.MoveTo(geom.V2(center.X+r, center.Y))
	b.ArcTo(center, r, 0, 2*math32.Pi)
	return b.Close()
}

// AddPolygon adds a closed polyline through points.
func (b *Builder) AddPolygon(points []geom.Vector2) *Builder {
	if len(points) == 0 {
		return b
	}
	b.MoveTo(points[0])
	for _, p := range points[1:] {
		b.LineTo(p)
	}
	return b.Close()
}

func arcSegments(radius, sweep, tol float32) int {
	sweep = math32.Abs(sweep)
	if sweep == 0 {
		return 1
	}
	radius = math32.Abs(radius)
	minSegs := int(math32.Ceil(sweep / (math32.Pi / 2)))
	if radius <= tol {
		return max(minSegs, 1)
	}
	// chord deviation r(1-cos(θ/2)) <= tol
	theta := 2 * math32.Acos(1-tol/radius)
	n := int(math32.Ceil(sweep / theta))
	return max(n, minSegs, 1)
}

func (b *Builder) flattenQuad(p0, c, p1 geom.Vector2, tol float32, depth int) {
	mid := p0.Scale(0.25).Add(c.Scale(0.5)).Add(p1.Scale(0.25))
	chordMid := p0.Add(p1).Scale(0.5)
	if depth >= maxFlattenDepth || mid.Sub(chordMid).LengthSquared() <= tol*tol {
		b.LineTo(p1)
		return
	}
	a := p0.Add(c).Scale(0.5)
	bb := c.Add(p1).Scale(0.5)
	m := a.Add(bb).Scale(0.5)
	b.flattenQuad(p0, a, m, tol, depth+1)
	b.flattenQuad(m, bb, p1, tol, depth+1)
}

func (b *Builder) flattenCubic(p0, c1, c2, p1 geom.Vector2, tol float32, depth int) {
	u := c1.Scale(3).Sub(p0.Scale(2)).Sub(p1)
	v := c2.Scale(3).Sub(p0).Sub(p1.Scale(2))
	distSq := math32.Max(u.LengthSquared(), v.LengthSquared())
	if depth >= maxFlattenDepth || distSq <= 16*tol*tol {
		b.LineTo(p1)
		return
	}
	ab1 := p0.Add(c1).Scale(0.5)
	ab2 := c1.Add(c2).Scale(0.5)
	ab3 := c2.Add(p1).Scale(0.5)
	bc1 := ab1.Add(ab2).Scale(0.5)
	bc2 := ab2.Add(ab3).Scale(0.5)
	m := bc1.Add(bc2).Scale(0.5)
	b.flattenCubic(p0, ab1, bc1, m, tol, depth+1)
	b.flattenCubic(m, bc2, ab3, p1, tol, depth+1)
}
