package pipeline

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/gputest"
	"github.com/hubastard/physdraw/engine/gfx/tess"
	"github.com/hubastard/physdraw/engine/staging"
)

func newContext(t *testing.T) (*Context, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice(800, 600)
	globals, err := dev.CreateBuffer(core.BufferDesc{Label: "globals", Usage: core.BufferUniform, Size: GlobalsSize})
	require.NoError(t, err)
	return &Context{
		Device:  dev,
		Globals: globals,
		Staging: staging.New(1 << 12),
		Stats:   &Counters{},
	}, dev
}

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestShadersEmbedded(t *testing.T) {
	for _, name := range []string{"grid", "circle", "quad", "poly", "overlay"} {
		src, err := Shader(name)
		require.NoError(t, err, name)
		assert.Contains(t, src, "fn vs_main", name)
		assert.Contains(t, src, "fn fs_main", name)
		assert.Contains(t, src, "struct Globals", name)
	}
	poly, err := Shader("poly")
	require.NoError(t, err)
	assert.True(t, strings.Contains(poly, "array<Primitive, 256>"), "primitive array length must match MaxPrimitives")

	_, err = Shader("missing")
	assert.Error(t, err)
}

func TestExecuteWithNothingPendingRecordsNothing(t *testing.T) {
	ctx, dev := newContext(t)
	circles, err := NewCircle(ctx, Options{})
	require.NoError(t, err)
	poly, err := NewPoly(ctx, Options{})
	require.NoError(t, err)

	cs := dev.NewCommandStream("test")
	target := &gputest.Target{W: 800, H: 600}
	require.NoError(t, circles.Execute(cs, target))
	require.NoError(t, poly.Execute(cs, target))

	assert.Empty(t, dev.Passes)
	assert.Empty(t, dev.Writes)
	assert.Zero(t, ctx.Stats.DrawCalls)
}

func TestCircleBatchIsOneDraw(t *testing.T) {
	ctx, dev := newContext(t)
	circles, err := NewCircle(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, circles.Add(Circle{Center: geom.V2(100, 100), Radius: 50, Color: colors.RGBA(1, 0, 0, 1)}))
	require.NoError(t, circles.Add(Circle{Center: geom.V2(200, 100), Radius: 10, Color: colors.Blue, Thickness: 2}))

	cs := dev.NewCommandStream("test")
	require.NoError(t, circles.Execute(cs, &gputest.Target{W: 800, H: 600}))
	require.NoError(t, dev.Submit(cs))

	require.Len(t, dev.Passes, 1)
	pass := dev.Passes[0]
	assert.Equal(t, core.LoadOpLoad, pass.Desc.Load)
	assert.Same(t, ctx.Globals, core.Buffer(pass.Uniforms[0]))
	require.Len(t, pass.Draws, 1)
	assert.Equal(t, gputest.Draw{Seq: pass.Draws[0].Seq, Pipeline: "circle", Indexed: true, Count: 6, Instances: 2}, pass.Draws[0])

	writes := dev.Writes
	require.Len(t, writes, 1)
	data := writes[0].Data
	require.Len(t, data, 2*circleStride)
	assert.Equal(t, float32(100), f32At(data, 0))
	assert.Equal(t, float32(50), f32At(data, 8))
	assert.Equal(t, float32(1), f32At(data, 12), "red channel")
	assert.Equal(t, float32(200), f32At(data, circleStride))
	assert.Equal(t, float32(2), f32At(data, circleStride+28))

	assert.Equal(t, 1, ctx.Stats.DrawCalls)
	assert.Equal(t, 1, ctx.Stats.GPUDraws)

	circles.Clear()
	assert.Zero(t, circles.Len())
}

func TestQuadEncodingLayout(t *testing.T) {
	ctx, dev := newContext(t)
	quads, err := NewQuad(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, quads.Add(Quad{
		Center:       geom.V2(10, 20),
		Size:         geom.V2(30, 40),
		Color:        colors.White,
		Thickness:    3,
		BorderRadius: 4,
		BorderColor:  colors.Black,
		Rotation:     0.5,
	}))
	cs := dev.NewCommandStream("test")
	require.NoError(t, quads.Execute(cs, &gputest.Target{W: 800, H: 600}))

	data := dev.Writes[0].Data
	require.Len(t, data, 64)
	assert.Equal(t, float32(30), f32At(data, 8))
	assert.Equal(t, float32(3), f32At(data, 32))
	assert.Equal(t, float32(4), f32At(data, 36))
	assert.Equal(t, float32(0.5), f32At(data, 56))
}

func TestInstanceBufferGrows(t *testing.T) {
	ctx, dev := newContext(t)
	circles, err := NewCircle(ctx, Options{Capacity: 2})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, circles.Add(Circle{Radius: float32(i + 1)}))
	}

	cs := dev.NewCommandStream("test")
	require.NoError(t, circles.Execute(cs, &gputest.Target{W: 800, H: 600}))
	assert.Equal(t, 8, circles.Cap())
	assert.Equal(t, 5, dev.Passes[0].Draws[0].Instances)

	// The previous buffer is released once replaced.
	var destroyed int
	for _, b := range dev.Buffers {
		if b.Destroyed {
			destroyed++
		}
	}
	assert.Equal(t, 1, destroyed)
}

func TestInstanceBufferRejects(t *testing.T) {
	ctx, _ := newContext(t)
	quads, err := NewQuad(ctx, Options{Capacity: 1, Overflow: OverflowReject})
	require.NoError(t, err)

	require.NoError(t, quads.Add(Quad{}))
	err = quads.Add(Quad{})
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 1, quads.Len())
	assert.Equal(t, 1, ctx.Stats.Dropped)
}

func TestSetGridsReplaces(t *testing.T) {
	ctx, dev := newContext(t)
	grid, err := NewGrid(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, grid.SetGrids([]Grid{DefaultGrid(), DefaultGrid()}))
	require.NoError(t, grid.SetGrids([]Grid{DefaultGrid()}))
	assert.Len(t, grid.Grids(), 1)

	cs := dev.NewCommandStream("test")
	require.NoError(t, grid.Execute(cs, &gputest.Target{W: 800, H: 600}))
	data := dev.Writes[0].Data
	require.Len(t, data, 44)
	assert.Equal(t, float32(-1), f32At(data, 0))
	assert.Equal(t, float32(1), f32At(data, 4))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(data[40:]))
}

func TestGridFromRect(t *testing.T) {
	g := GridFromRect(geom.V2(0, 0), geom.V2(400, 300), 800, 600, colors.Grid, 10, 1, 2)
	assert.Equal(t, geom.V2(-1, 1), g.TopLeft)
	assert.Equal(t, geom.V2(0, 0), g.BottomRight)
}

func square(x, y, s float32) func(*tess.Builder) {
	return func(b *tess.Builder) {
		b.AddRectangle(geom.V2(x, y), geom.V2(x+s, y+s))
	}
}

func TestPolyDrawsEachPrimitiveOverItsRange(t *testing.T) {
	ctx, dev := newContext(t)
	poly, err := NewPoly(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, poly.Tessellate(square(0, 0, 10), &Primitive{Color: colors.Red}))
	// two contours folded into one primitive
	require.NoError(t, poly.Tessellate(square(20, 0, 10), nil))
	require.NoError(t, poly.Tessellate(square(40, 0, 10), &Primitive{Color: colors.Green, Rotation: 1, Origin: geom.V2(45, 5)}))

	prims := poly.Primitives()
	require.Len(t, prims, 2)
	assert.Equal(t, uint32(6), prims[0].IndexCount)
	assert.Equal(t, uint32(12), prims[1].IndexCount)

	for _, v := range poly.Mesh().Vertices[:4] {
		assert.Equal(t, uint32(0), v.PrimID)
	}
	for _, v := range poly.Mesh().Vertices[4:] {
		assert.Equal(t, uint32(1), v.PrimID)
	}

	cs := dev.NewCommandStream("test")
	require.NoError(t, poly.Execute(cs, &gputest.Target{W: 800, H: 600}))

	require.Len(t, dev.Passes, 1)
	draws := dev.Passes[0].Draws
	require.Len(t, draws, 2)
	assert.Equal(t, 6, draws[0].Count)
	assert.Equal(t, 0, draws[0].First)
	assert.Equal(t, 12, draws[1].Count)
	assert.Equal(t, 6, draws[1].First)

	require.Len(t, dev.Writes, 3)
	assert.Len(t, dev.Writes[0].Data, 12*polyVertexStride)
	assert.Len(t, dev.Writes[1].Data, 18*4)
	prim := dev.Writes[2].Data
	require.Len(t, prim, 2*primitiveStride)
	assert.Equal(t, float32(1), f32At(prim, primitiveStride+16))
	assert.Equal(t, float32(45), f32At(prim, primitiveStride+24))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(prim[primitiveStride+32:]))

	assert.Equal(t, 1, ctx.Stats.DrawCalls)
	assert.Equal(t, 2, ctx.Stats.GPUDraws)
}

func TestPolyPendingWithoutPrimitiveIsNotDrawn(t *testing.T) {
	ctx, dev := newContext(t)
	poly, err := NewPoly(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, poly.Tessellate(square(0, 0, 10), nil))
	assert.Zero(t, poly.Len())

	cs := dev.NewCommandStream("test")
	require.NoError(t, poly.Execute(cs, &gputest.Target{W: 800, H: 600}))
	assert.Empty(t, dev.Passes)
}

func TestPolyTessellationErrorLeavesMeshIntact(t *testing.T) {
	ctx, _ := newContext(t)
	poly, err := NewPoly(ctx, Options{})
	require.NoError(t, err)
	require.NoError(t, poly.Tessellate(square(0, 0, 10), &Primitive{}))

	err = poly.Tessellate(func(b *tess.Builder) {
		b.AddPolygon([]geom.Vector2{{X: 0, Y: 0}, {X: 10, Y: 0}})
	}, &Primitive{})
	require.ErrorIs(t, err, tess.ErrTessellation)
	assert.Len(t, poly.Mesh().Vertices, 4)
	assert.Equal(t, 1, poly.Len())
}

func TestPolyPrimitiveLimit(t *testing.T) {
	ctx, _ := newContext(t)
	poly, err := NewPoly(ctx, Options{})
	require.NoError(t, err)
	for i := 0; i < MaxPrimitives; i++ {
		require.NoError(t, poly.Tessellate(square(0, 0, 1), &Primitive{}))
	}
	err = poly.Tessellate(square(0, 0, 1), &Primitive{})
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 1, ctx.Stats.Dropped)
}

func TestPolyGrowAndReject(t *testing.T) {
	ctx, dev := newContext(t)
	grow, err := NewPoly(ctx, Options{Capacity: 4})
	require.NoError(t, err)
	require.NoError(t, grow.Tessellate(square(0, 0, 10), &Primitive{}))
	require.NoError(t, grow.Tessellate(square(20, 0, 10), &Primitive{}))
	cs := dev.NewCommandStream("test")
	require.NoError(t, grow.Execute(cs, &gputest.Target{W: 800, H: 600}))
	assert.Len(t, dev.Passes[0].Draws, 2)

	reject, err := NewPoly(ctx, Options{Capacity: 4, Overflow: OverflowReject})
	require.NoError(t, err)
	require.NoError(t, reject.Tessellate(square(0, 0, 10), &Primitive{}))
	err = reject.Tessellate(square(20, 0, 10), &Primitive{})
	require.ErrorIs(t, err, ErrCapacity)
	assert.Len(t, reject.Mesh().Vertices, 4)
	assert.Len(t, reject.Mesh().Indices, 6)
	assert.Equal(t, 1, reject.Len())
}

func TestParseOverflow(t *testing.T) {
	assert.Equal(t, OverflowReject, ParseOverflow("reject"))
	assert.Equal(t, OverflowGrow, ParseOverflow("grow"))
	assert.Equal(t, OverflowGrow, ParseOverflow(""))
	assert.Equal(t, "reject", OverflowReject.String())
}
