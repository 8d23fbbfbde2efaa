package pipeline

import (
	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/staging"
)

const DefaultQuadCapacity = 100

// Quad is an optionally rounded, optionally bordered rectangle centered on
// Center. Rotation is in radians, counter-clockwise on screen.
type Quad struct {
	Center       geom.Vector2
	Size         geom.Vector2
	Color        colors.Color
	Thickness    float32 // border width, 0 for none
	BorderRadius float32
	BorderColor  colors.Color
	Rotation     float32
}

const quadStride = 64

var quadLayout = core.VertexLayout{
	Stride: quadStride,
	Step:   core.StepInstance,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0},  // center
		{Location: 1, Size: 2, Type: core.AttribFloat32, Offset: 8},  // size
		{Location: 2, Size: 4, Type: core.AttribFloat32, Offset: 16}, // color
		{Location: 3, Size: 1, Type: core.AttribFloat32, Offset: 32}, // thickness
		{Location: 4, Size: 1, Type: core.AttribFloat32, Offset: 36}, // border_radius
		{Location: 5, Size: 4, Type: core.AttribFloat32, Offset: 40}, // border_color
		{Location: 6, Size: 1, Type: core.AttribFloat32, Offset: 56}, // rotation
	},
}

func (q Quad) encode(a *staging.Arena) {
	a.Vec2(q.Center.Array()).
		Vec2(q.Size.Array()).
		Vec4(q.Color.ToLinear()).
		F32(q.Thickness).
		F32(q.BorderRadius).
		Vec4(q.BorderColor.ToLinear()).
		F32(q.Rotation).
		Pad(4)
}

type QuadPipeline struct {
	*instanced[Quad]
}

func NewQuad(ctx *Context, opts Options) (*QuadPipeline, error) {
	b, err := newInstanced[Quad](ctx, "quad", "quad", quadLayout, opts.withDefault(DefaultQuadCapacity))
	if err != nil {
		return nil, err
	}
	return &QuadPipeline{b}, nil
}

func (p *QuadPipeline) Add(q Quad) error { return p.add(q) }

func (p *QuadPipeline) Pending() []Quad { return p.items }
