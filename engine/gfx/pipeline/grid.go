package pipeline

import (
	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/staging"
)

const DefaultGridCapacity = 1

// Grid is a background grid over an NDC rectangle. Lines are Spacing pixels
// apart; every Subdivisions-th line is drawn as a major line.
type Grid struct {
	TopLeft      geom.Vector2 // NDC
	BottomRight  geom.Vector2 // NDC
	Color        colors.Color
	Spacing      float32
	Thickness    float32
	Subdivisions uint32
}

// FullscreenGrid covers the whole target.
func FullscreenGrid(color colors.Color, spacing, thickness float32, subdivisions uint32) Grid {
	return Grid{
		TopLeft:      geom.V2(-1, 1),
		BottomRight:  geom.V2(1, -1),
		Color:        color,
		Spacing:      spacing,
		Thickness:    thickness,
		Subdivisions: subdivisions,
	}
}

// GridFromRect covers the pixel rectangle pos..pos+size of a w×h window.
func GridFromRect(pos, size geom.Vector2, w, h int, color colors.Color, spacing, thickness float32, subdivisions uint32) Grid {
	return Grid{
		TopLeft:      pos.ToNDC(w, h),
		BottomRight:  pos.Add(size).ToNDC(w, h),
		Color:        color,
		Spacing:      spacing,
		Thickness:    thickness,
		Subdivisions: subdivisions,
	}
}

// DefaultGrid is the fullscreen grid used when nothing else is configured.
func DefaultGrid() Grid { return FullscreenGrid(colors.Grid, 30, 1, 5) }

const gridStride = 44

var gridLayout = core.VertexLayout{
	Stride: gridStride,
	Step:   core.StepInstance,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0},  // top_left
		{Location: 1, Size: 2, Type: core.AttribFloat32, Offset: 8},  // bottom_right
		{Location: 2, Size: 4, Type: core.AttribFloat32, Offset: 16}, // color
		{Location: 3, Size: 1, Type: core.AttribFloat32, Offset: 32}, // spacing
		{Location: 4, Size: 1, Type: core.AttribFloat32, Offset: 36}, // thickness
		{Location: 5, Size: 1, Type: core.AttribUint32, Offset: 40},  // subdivisions
	},
}

func (g Grid) encode(a *staging.Arena) {
	a.Vec2(g.TopLeft.Array()).
		Vec2(g.BottomRight.Array()).
		Vec4(g.Color.ToLinear()).
		F32(g.Spacing).
		F32(g.Thickness).
		U32(g.Subdivisions)
}

// GridPipeline draws static grids: they persist across frames until SetGrids.
type GridPipeline struct {
	*instanced[Grid]
}

func NewGrid(ctx *Context, opts Options) (*GridPipeline, error) {
	b, err := newInstanced[Grid](ctx, "grid", "grid", gridLayout, opts.withDefault(DefaultGridCapacity))
	if err != nil {
		return nil, err
	}
	return &GridPipeline{b}, nil
}

// SetGrids replaces the grid set. Under OverflowReject, grids past capacity
// are dropped and the first refusal is returned.
func (p *GridPipeline) SetGrids(grids []Grid) error {
	p.Clear()
	var first error
	for _, g := range grids {
		if err := p.add(g); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *GridPipeline) Grids() []Grid { return p.items }
