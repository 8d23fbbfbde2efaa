package tess

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/hubastard/physdraw/engine/geom"
)

var ErrTessellation = errors.New("tess: cannot tessellate path")

const (
	mergeEpsilon = 1e-4 // points closer than this are merged
	relEpsilon   = 1e-5 // merge distance per unit of coordinate magnitude
	areaEpsilon  = 1e-6
)

// Vertex is one mesh vertex; PrimID selects the per-shape record.
type Vertex struct {
	Position geom.Vector2
	PrimID   uint32
}

// Mesh is an indexed triangle list shared by every shape of a frame.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) Clear() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

func (m *Mesh) truncate(nv, ni int) {
	m.Vertices = m.Vertices[:nv]
	m.Indices = m.Indices[:ni]
}

// FillTessellator triangulates closed contours by ear clipping. Every
// contour is filled on its own; holes are not subtracted. It is reused
// across shapes and keeps its scratch memory between calls.
type FillTessellator struct {
	pts  []geom.Vector2
	ring []int
	tris []int
}

func NewFillTessellator() *FillTessellator { return &FillTessellator{} }

// Tessellate appends the fill of path to mesh, stamping every new vertex
// with primID. It returns the number of indices added. On error the mesh is
// left exactly as it was.
func (ft *FillTessellator) Tessellate(path *Path, primID uint32, mesh *Mesh) (int, error) {
	nv, ni := len(mesh.Vertices), len(mesh.Indices)
	if path == nil || path.Empty() {
		return 0, fmt.Errorf("%w: empty path", ErrTessellation)
	}
	for ci := range path.Contours {
		if len(path.Contours[ci].Points) == 0 {
			continue
		}
		if err := ft.contour(path.Contours[ci].Points, primID, mesh); err != nil {
			mesh.truncate(nv, ni)
			return 0, fmt.Errorf("contour %d: %w", ci, err)
		}
	}
	return len(mesh.Indices) - ni, nil
}

func (ft *FillTessellator) contour(src []geom.Vector2, primID uint32, mesh *Mesh) error {
	pts := ft.clean(src)
	if len(pts) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrTessellation, len(pts))
	}
	area := signedArea(pts)
	if math32.Abs(area) < areaEpsilon {
		return fmt.Errorf("%w: zero area", ErrTessellation)
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	if i, j, ok := selfIntersection(pts); ok {
		return fmt.Errorf("%w: edges %d and %d intersect", ErrTessellation, i, j)
	}
	if err := ft.clip(pts); err != nil {
		return err
	}

	base := uint32(len(mesh.Vertices))
	for _, p := range pts {
		mesh.Vertices = append(mesh.Vertices, Vertex{Position: p, PrimID: primID})
	}
	for _, t := range ft.tris {
		mesh.Indices = append(mesh.Indices, base+uint32(t))
	}
	return nil
}

// clean drops repeated points (including a closing point equal to the first)
// and collinear points. The result aliases ft.pts.
func (ft *FillTessellator) clean(src []geom.Vector2) []geom.Vector2 {
	pts := ft.pts[:0]
	for _, p := range src {
		if n := len(pts); n > 0 && near(pts[n-1], p) {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && near(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}

	for changed := true; changed && len(pts) >= 3; {
		changed = false
		for i := 0; i < len(pts) && len(pts) >= 3; i++ {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if collinear(prev, pts[i], next) {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				i--
			}
		}
	}
	ft.pts = pts
	return pts
}

// clip runs ear clipping over a positively wound polygon and leaves the
// triangle list (local indices) in ft.tris.
func (ft *FillTessellator) clip(pts []geom.Vector2) error {
	ring := ft.ring[:0]
	for i := range pts {
		ring = append(ring, i)
	}
	tris := ft.tris[:0]

	for len(ring) > 3 {
		n := len(ring)
		found := false
		for i := 0; i < n; i++ {
			a, b, c := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
			if !isEar(pts, ring, a, b, c) {
				continue
			}
			tris = append(tris, a, b, c)
			ring = append(ring[:i], ring[i+1:]...)
			found = true
			break
		}
		if !found {
			ft.ring, ft.tris = ring, tris
			return fmt.Errorf("%w: no ear left with %d vertices", ErrTessellation, n)
		}
	}
	tris = append(tris, ring[0], ring[1], ring[2])
	ft.ring, ft.tris = ring, tris
	return nil
}

func isEar(pts []geom.Vector2, ring []int, a, b, c int) bool {
	pa, pb, pc := pts[a], pts[b], pts[c]
	if cross3(pa, pb, pc) <= 0 {
		return false
	}
	for _, k := range ring {
		if k == a || k == b || k == c {
			continue
		}
		if pointInTriangle(pts[k], pa, pb, pc) {
			return false
		}
	}
	return true
}

// near treats points as equal within float32 noise, which grows with the
// magnitude of the coordinates.
func near(a, b geom.Vector2) bool {
	mag := math32.Max(math32.Max(math32.Abs(a.X), math32.Abs(a.Y)), math32.Max(math32.Abs(b.X), math32.Abs(b.Y)))
	eps := math32.Max(mergeEpsilon, relEpsilon*mag)
	return a.Sub(b).LengthSquared() < eps*eps
}

func collinear(a, b, c geom.Vector2) bool {
	ab, bc := b.Sub(a), c.Sub(b)
	scale := ab.Length() * bc.Length()
	return math32.Abs(ab.Cross(bc)) <= 1e-6*scale
}

func cross3(a, b, c geom.Vector2) float32 { return b.Sub(a).Cross(c.Sub(b)) }

func signedArea(pts []geom.Vector2) float32 {
	var sum float32
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Cross(pts[j])
	}
	return sum / 2
}

// pointInTriangle is inclusive of the edges.
func pointInTriangle(p, a, b, c geom.Vector2) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return d1 >= 0 && d2 >= 0 && d3 >= 0
}

// selfIntersection reports the first pair of non-adjacent edges that touch.
func selfIntersection(pts []geom.Vector2) (int, int, bool) {
	n := len(pts)
	for i := 0; i < n; i++ {
		a0, a1 := pts[i], pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			if segmentsIntersect(a0, a1, pts[j], pts[(j+1)%n]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsIntersect(p1, p2, q1, q2 geom.Vector2) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func orient(a, b, c geom.Vector2) int {
	v := b.Sub(a).Cross(c.Sub(a))
	switch {
	case v > areaEpsilon:
		return 1
	case v < -areaEpsilon:
		return -1
	default:
		return 0
	}
}

func onSegment(a, b, p geom.Vector2) bool {
	return p.X >= math32.Min(a.X, b.X)-mergeEpsilon && p.X <= math32.Max(a.X, b.X)+mergeEpsilon &&
		p.Y >= math32.Min(a.Y, b.Y)-mergeEpsilon && p.Y <= math32.Max(a.Y, b.Y)+mergeEpsilon
}
