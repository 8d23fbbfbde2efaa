package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/gfx/tess"
)

// ErrDegenerate is returned for shapes with no extent, such as a line whose
// endpoints coincide.
var ErrDegenerate = errors.New("render: degenerate shape")

// Brush collects the primitives of one frame. Each primitive kind has its own
// pipeline, so within one accumulation window every circle is drawn first,
// then every polygon, then every quad, whatever order the calls came in.
// Flush closes the window: everything queued before it is drawn beneath
// everything queued after it.
type Brush struct {
	grid    *pipeline.GridPipeline
	circles *pipeline.CirclePipeline
	poly    *pipeline.PolyPipeline
	quads   *pipeline.QuadPipeline

	log    *slog.Logger
	warned bool
	err    error
}

type BrushOptions struct {
	Grids   []pipeline.Grid // nil means DefaultGrid
	Circles pipeline.Options
	Quads   pipeline.Options
	Poly    pipeline.Options
}

func newBrush(ctx *pipeline.Context, opts BrushOptions) (*Brush, error) {
	grid, err := pipeline.NewGrid(ctx, pipeline.Options{Capacity: len(opts.Grids)})
	if err != nil {
		return nil, err
	}
	circles, err := pipeline.NewCircle(ctx, opts.Circles)
	if err != nil {
		return nil, err
	}
	poly, err := pipeline.NewPoly(ctx, opts.Poly)
	if err != nil {
		return nil, err
	}
	quads, err := pipeline.NewQuad(ctx, opts.Quads)
	if err != nil {
		return nil, err
	}
	b := &Brush{grid: grid, circles: circles, poly: poly, quads: quads, log: ctx.Logger()}
	grids := opts.Grids
	if grids == nil {
		grids = []pipeline.Grid{pipeline.DefaultGrid()}
	}
	if err := b.SetGrids(grids); err != nil {
		return nil, err
	}
	return b, nil
}

// check logs the first capacity drop of a frame and remembers the first
// tessellation or pipeline failure so RenderFrame can report it. Degenerate
// input is only returned.
func (b *Brush) check(kind string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pipeline.ErrCapacity) {
		if !b.warned {
			b.log.Warn("primitives dropped", "pipeline", kind, "err", err)
			b.warned = true
		}
		return err
	}
	if errors.Is(err, ErrDegenerate) {
		return err
	}
	if b.err == nil {
		b.err = fmt.Errorf("%s: %w", kind, err)
	}
	return err
}

func (b *Brush) DrawCircle(center geom.Vector2, radius float32, color colors.Color, thickness float32) error {
	return b.check("circle", b.circles.Add(pipeline.Circle{
		Center:    center,
		Radius:    radius,
		Color:     color,
		Thickness: thickness,
	}))
}

func (b *Brush) DrawCircleFilled(center geom.Vector2, radius float32, color colors.Color) error {
	return b.DrawCircle(center, radius, color, 0)
}

// DrawQuadFilled fills the axis-aligned rectangle spanned by a and b through
// the polygon pipeline.
func (b *Brush) DrawQuadFilled(a, c geom.Vector2, color colors.Color) error {
	return b.DrawPath(func(pb *tess.Builder) {
		pb.AddRectangle(a, c)
	}, color, 0, geom.Zero())
}

// DrawRoundedQuadFilled draws the rectangle spanned by a and c with rounded
// corners as a quad instance.
func (b *Brush) DrawRoundedQuadFilled(a, c geom.Vector2, color colors.Color, radius float32) error {
	size := c.Sub(a)
	if size.X < 0 {
		size.X = -size.X
	}
	if size.Y < 0 {
		size.Y = -size.Y
	}
	return b.check("quad", b.quads.Add(pipeline.Quad{
		Center:       a.Add(c).Scale(0.5),
		Size:         size,
		Color:        color,
		BorderRadius: radius,
		BorderColor:  colors.Transparent,
	}))
}

// DrawQuadBorderRaw queues a quad instance as is. angle is in radians,
// counter-clockwise on screen around center.
func (b *Brush) DrawQuadBorderRaw(center, size geom.Vector2, color colors.Color, borderThickness float32, borderColor colors.Color, angle, radius float32) error {
	return b.check("quad", b.quads.Add(pipeline.Quad{
		Center:       center,
		Size:         size,
		Color:        color,
		Thickness:    borderThickness,
		BorderRadius: radius,
		BorderColor:  borderColor,
		Rotation:     angle,
	}))
}

// LineQuad is the quad instance that draws a segment from a to c: centered on
// the midpoint, as long as the segment, rotated onto it.
func LineQuad(a, c geom.Vector2, thickness float32, color colors.Color) (pipeline.Quad, error) {
	d := c.Sub(a)
	if d.LengthSquared() == 0 {
		return pipeline.Quad{}, fmt.Errorf("line at %v: %w", a, ErrDegenerate)
	}
	return pipeline.Quad{
		Center:      a.Add(c).Scale(0.5),
		Size:        geom.V2(d.Length(), thickness),
		Color:       color,
		BorderColor: colors.Transparent,
		Rotation:    -d.Angle(),
	}, nil
}

func (b *Brush) DrawLine(a, c geom.Vector2, thickness float32, color colors.Color) error {
	q, err := LineQuad(a, c, thickness, color)
	if err != nil {
		return b.check("quad", err)
	}
	return b.check("quad", b.quads.Add(q))
}

// DrawLineRounded is DrawLine with caps rounded by half the thickness.
func (b *Brush) DrawLineRounded(a, c geom.Vector2, thickness float32, color colors.Color) error {
	q, err := LineQuad(a, c, thickness, color)
	if err != nil {
		return b.check("quad", err)
	}
	q.BorderRadius = thickness / 2
	return b.check("quad", b.quads.Add(q))
}

// DrawPath fills the path recorded by build as one polygon primitive rotated
// by rotation radians around origin.
func (b *Brush) DrawPath(build func(pb *tess.Builder), color colors.Color, rotation float32, origin geom.Vector2) error {
	return b.check("poly", b.poly.Tessellate(build, &pipeline.Primitive{
		Color:    color,
		Rotation: rotation,
		Origin:   origin,
	}))
}

// DrawPolygon fills the closed polyline through points.
func (b *Brush) DrawPolygon(points []geom.Vector2, color colors.Color) error {
	return b.DrawPath(func(pb *tess.Builder) {
		pb.AddPolygon(points)
	}, color, 0, geom.Zero())
}

// SetGrids replaces the background grids. They persist across frames.
func (b *Brush) SetGrids(grids []pipeline.Grid) error {
	return b.check("grid", b.grid.SetGrids(grids))
}

func (b *Brush) Grids() []pipeline.Grid { return b.grid.Grids() }

// Flush draws everything queued so far into the open frame and empties the
// brush.
func (b *Brush) Flush(r *Renderer) error {
	return r.ExecuteBrush(b)
}

// Clear drops queued circles, polygons and quads. Grids stay.
func (b *Brush) Clear() {
	b.circles.Clear()
	b.poly.Clear()
	b.quads.Clear()
}

// Len is the number of queued primitives, grids excluded.
func (b *Brush) Len() int {
	return b.circles.Len() + b.poly.Len() + b.quads.Len()
}

func (b *Brush) Circles() []pipeline.Circle { return b.circles.Pending() }
func (b *Brush) Quads() []pipeline.Quad     { return b.quads.Pending() }

func (b *Brush) Polygons() []pipeline.Primitive { return b.poly.Primitives() }

// Err returns the first tessellation, pipeline or flush failure of the open
// frame.
func (b *Brush) Err() error { return b.err }

func (b *Brush) executeGrid(cs core.CommandStream, target core.Target) error {
	return b.grid.Execute(cs, target)
}

// execute clears each pipeline once it has run; on failure everything still
// queued is dropped so nothing is drawn twice.
func (b *Brush) execute(cs core.CommandStream, target core.Target) error {
	for _, p := range []pipeline.Pipeline{b.circles, b.poly, b.quads} {
		err := p.Execute(cs, target)
		p.Clear()
		if err != nil {
			b.Clear()
			return err
		}
	}
	return nil
}

func (b *Brush) endFrame() {
	b.warned = false
	b.err = nil
}
