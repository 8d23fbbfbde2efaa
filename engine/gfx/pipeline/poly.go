package pipeline

import (
	"fmt"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/tess"
	"github.com/hubastard/physdraw/engine/staging"
)

const (
	DefaultPolyVertices = 1000
	DefaultPrimitives   = 2
	// MaxPrimitives is the length of the primitive uniform array in poly.wgsl.
	MaxPrimitives = 256
)

// Primitive is the per-shape record of the polygon pipeline: color and a
// rotation (radians, counter-clockwise on screen) around Origin.
type Primitive struct {
	Color      colors.Color
	Rotation   float32
	Origin     geom.Vector2
	IndexCount uint32 // set by Tessellate
}

const (
	polyVertexStride = 12
	primitiveStride  = 48
)

var PrimitivesBinding = core.UniformBinding{Slot: 1, Group: 1, Index: 0, Name: "Primitives"}

var polyLayout = core.VertexLayout{
	Stride: polyVertexStride,
	Step:   core.StepVertex,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0}, // position
		{Location: 1, Size: 1, Type: core.AttribUint32, Offset: 8},  // prim_id
	},
}

func (p Primitive) encode(a *staging.Arena) {
	a.Vec4(p.Color.ToLinear()).
		F32(p.Rotation).
		Pad(4).
		Vec2(p.Origin.Array()).
		U32(p.IndexCount).
		Pad(12)
}

// PolyPipeline fills arbitrary paths. Every shape is tessellated into one
// shared mesh; at execution each primitive is drawn over its own contiguous
// index range.
type PolyPipeline struct {
	ctx   *Context
	opts  Options
	pipe  core.Pipeline
	vbuf  core.Buffer
	ibuf  core.Buffer
	prims core.Buffer
	vcap  int
	icap  int

	builder *tess.Builder
	fill    *tess.FillTessellator
	mesh    tess.Mesh

	primitives []Primitive
	pending    uint32 // indices added since the last primitive boundary
}

func NewPoly(ctx *Context, opts Options) (*PolyPipeline, error) {
	opts = opts.withDefault(DefaultPolyVertices)
	src, err := Shader("poly")
	if err != nil {
		return nil, fmt.Errorf("poly: %w", err)
	}
	pipe, err := ctx.Device.CreatePipeline(core.PipelineDesc{
		Label:         "poly",
		Shader:        src,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexLayouts: []core.VertexLayout{polyLayout},
		Uniforms:      []core.UniformBinding{GlobalsBinding, PrimitivesBinding},
		Blend:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("poly: create pipeline: %w", err)
	}
	p := &PolyPipeline{
		ctx:        ctx,
		opts:       opts,
		pipe:       pipe,
		builder:    tess.NewBuilder(),
		fill:       tess.NewFillTessellator(),
		primitives: make([]Primitive, 0, DefaultPrimitives),
	}
	if err := p.allocMesh(opts.Capacity, opts.Capacity*3); err != nil {
		return nil, err
	}
	p.prims, err = ctx.Device.CreateBuffer(core.BufferDesc{
		Label: "poly primitives",
		Usage: core.BufferUniform,
		Size:  MaxPrimitives * primitiveStride,
	})
	if err != nil {
		return nil, fmt.Errorf("poly: create primitive buffer: %w", err)
	}
	p.mesh.Vertices = make([]tess.Vertex, 0, opts.Capacity)
	p.mesh.Indices = make([]uint32, 0, opts.Capacity*3)
	return p, nil
}

func (p *PolyPipeline) allocMesh(vcap, icap int) error {
	vbuf, err := p.ctx.Device.CreateBuffer(core.BufferDesc{
		Label: "poly vertices",
		Usage: core.BufferVertex,
		Size:  vcap * polyVertexStride,
	})
	if err != nil {
		return fmt.Errorf("poly: create vertex buffer: %w", err)
	}
	ibuf, err := p.ctx.Device.CreateBuffer(core.BufferDesc{
		Label: "poly indices",
		Usage: core.BufferIndex,
		Size:  icap * 4,
	})
	if err != nil {
		vbuf.Destroy()
		return fmt.Errorf("poly: create index buffer: %w", err)
	}
	if p.vbuf != nil {
		p.vbuf.Destroy()
		p.ibuf.Destroy()
	}
	p.vbuf, p.ibuf, p.vcap, p.icap = vbuf, ibuf, vcap, icap
	return nil
}

// Tessellate fills the path recorded by build. With a non-nil prim the shape
// is closed: prim takes every index added since the previous boundary and the
// next shape gets a new primitive id. With nil, the geometry joins the shape
// still being built.
func (p *PolyPipeline) Tessellate(build func(b *tess.Builder), prim *Primitive) error {
	if len(p.primitives) >= MaxPrimitives {
		p.ctx.Stats.Dropped++
		return fmt.Errorf("poly: %w (%d primitives)", ErrCapacity, MaxPrimitives)
	}

	p.builder.Reset()
	build(p.builder)

	nv := len(p.mesh.Vertices)
	added, err := p.fill.Tessellate(p.builder.Path(), uint32(len(p.primitives)), &p.mesh)
	if err != nil {
		return fmt.Errorf("poly: %w", err)
	}
	if p.opts.Overflow == OverflowReject && len(p.mesh.Vertices) > p.vcap {
		p.mesh.Vertices = p.mesh.Vertices[:nv]
		p.mesh.Indices = p.mesh.Indices[:len(p.mesh.Indices)-added]
		p.ctx.Stats.Dropped++
		return fmt.Errorf("poly: %w (%d vertices)", ErrCapacity, p.vcap)
	}

	p.pending += uint32(added)
	if prim != nil {
		rec := *prim
		rec.IndexCount = p.pending
		p.primitives = append(p.primitives, rec)
		p.pending = 0
	}
	return nil
}

func (p *PolyPipeline) Len() int { return len(p.primitives) }

// Primitives returns the closed shapes; the slice aliases the pipeline.
func (p *PolyPipeline) Primitives() []Primitive { return p.primitives }

// Mesh returns the shared mesh; it aliases the pipeline.
func (p *PolyPipeline) Mesh() *tess.Mesh { return &p.mesh }

func (p *PolyPipeline) Clear() {
	p.mesh.Clear()
	p.primitives = p.primitives[:0]
	p.pending = 0
}

func (p *PolyPipeline) grow() error {
	nv, ni := len(p.mesh.Vertices), len(p.mesh.Indices)
	if nv <= p.vcap && ni <= p.icap {
		return nil
	}
	vcap, icap := p.vcap, p.icap
	if nv > vcap {
		vcap = nextPow2(nv)
	}
	if ni > icap {
		icap = nextPow2(ni)
	}
	p.ctx.Logger().Debug("poly buffers grown", "vertices", vcap, "indices", icap)
	return p.allocMesh(vcap, icap)
}

func (p *PolyPipeline) Execute(cs core.CommandStream, target core.Target) error {
	if len(p.primitives) == 0 {
		return nil
	}
	if err := p.grow(); err != nil {
		return err
	}

	st := p.ctx.Staging
	mark := st.Mark()
	for _, v := range p.mesh.Vertices {
		st.Vec2(v.Position.Array()).U32(v.PrimID)
	}
	if err := cs.WriteBuffer(p.vbuf, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("poly: upload vertices: %w", err)
	}
	mark = st.Mark()
	for _, i := range p.mesh.Indices {
		st.U32(i)
	}
	if err := cs.WriteBuffer(p.ibuf, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("poly: upload indices: %w", err)
	}
	mark = st.Mark()
	for _, prim := range p.primitives {
		prim.encode(st)
	}
	if err := cs.WriteBuffer(p.prims, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("poly: upload primitives: %w", err)
	}

	pass, err := cs.BeginPass(core.PassDesc{Label: "poly", Target: target, Load: core.LoadOpLoad})
	if err != nil {
		return fmt.Errorf("poly: %w", err)
	}
	pass.SetPipeline(p.pipe)
	pass.SetUniformBuffer(GlobalsBinding.Slot, p.ctx.Globals)
	pass.SetUniformBuffer(PrimitivesBinding.Slot, p.prims)
	pass.SetVertexBuffer(0, p.vbuf)
	pass.SetIndexBuffer(p.ibuf, core.IndexUint32)

	first, draws := 0, 0
	for _, prim := range p.primitives {
		if prim.IndexCount > 0 {
			pass.DrawIndexed(int(prim.IndexCount), first, 0, 1)
			draws++
		}
		first += int(prim.IndexCount)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("poly: %w", err)
	}

	p.ctx.Stats.DrawCalls++
	p.ctx.Stats.GPUDraws += draws
	return nil
}
