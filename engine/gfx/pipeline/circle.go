package pipeline

import (
	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/staging"
)

const DefaultCircleCapacity = 100

// Circle is a disk, or a ring when Thickness > 0. Pixel units.
type Circle struct {
	Center    geom.Vector2
	Radius    float32
	Color     colors.Color
	Thickness float32
}

const circleStride = 32

var circleLayout = core.VertexLayout{
	Stride: circleStride,
	Step:   core.StepInstance,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0},  // center
		{Location: 1, Size: 1, Type: core.AttribFloat32, Offset: 8},  // radius
		{Location: 2, Size: 4, Type: core.AttribFloat32, Offset: 12}, // color
		{Location: 3, Size: 1, Type: core.AttribFloat32, Offset: 28}, // thickness
	},
}

func (c Circle) encode(a *staging.Arena) {
	a.Vec2(c.Center.Array()).
		F32(c.Radius).
		Vec4(c.Color.ToLinear()).
		F32(c.Thickness)
}

type CirclePipeline struct {
	*instanced[Circle]
}

func NewCircle(ctx *Context, opts Options) (*CirclePipeline, error) {
	b, err := newInstanced[Circle](ctx, "circle", "circle", circleLayout, opts.withDefault(DefaultCircleCapacity))
	if err != nil {
		return nil, err
	}
	return &CirclePipeline{b}, nil
}

func (p *CirclePipeline) Add(c Circle) error { return p.add(c) }

// Pending returns the queued circles; the slice aliases the pipeline.
func (p *CirclePipeline) Pending() []Circle { return p.items }
