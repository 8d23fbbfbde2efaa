package renderer2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/gfx/gputest"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/staging"
)

func newOverlay(t *testing.T, maxQuads int) (*Renderer2D, *gputest.Device, *pipeline.Counters) {
	t.Helper()
	dev := gputest.NewDevice(800, 600)
	globals, err := dev.CreateBuffer(core.BufferDesc{Label: "globals", Usage: core.BufferUniform, Size: pipeline.GlobalsSize})
	require.NoError(t, err)
	stats := &pipeline.Counters{}
	rd, err := New(&pipeline.Context{Device: dev, Globals: globals, Staging: staging.New(256), Stats: stats}, maxQuads)
	require.NoError(t, err)
	return rd, dev, stats
}

func TestBatchesFollowTextureRuns(t *testing.T) {
	rd, dev, stats := newOverlay(t, 16)
	atlas, err := dev.CreateTexture(core.TextureDesc{Width: 2, Height: 2, Format: core.TextureRGBA8})
	require.NoError(t, err)

	rd.DrawQuad(10, 10, 4, 4, colors.Red, 0)
	rd.DrawQuad(20, 10, 4, 4, colors.Red, 0)
	rd.DrawTexturedQuad(30, 10, 4, 4, atlas, colors.White, 0)
	rd.DrawQuad(40, 10, 4, 4, colors.Red, 0)

	cs := dev.NewCommandStream("test")
	require.NoError(t, rd.Execute(cs, &gputest.Target{W: 800, H: 600}))

	pass := dev.Passes[0]
	assert.Equal(t, core.LoadOpLoad, pass.Desc.Load)
	require.Len(t, pass.Draws, 3)
	white := rd.White().(*gputest.Texture)
	assert.Same(t, white, pass.Draws[0].Texture)
	assert.Same(t, atlas.(*gputest.Texture), pass.Draws[1].Texture)
	assert.Same(t, white, pass.Draws[2].Texture)

	assert.Equal(t, 12, pass.Draws[0].Count)
	assert.Equal(t, 6, pass.Draws[1].Count)
	assert.Equal(t, 12, pass.Draws[1].First)
	assert.Equal(t, 18, pass.Draws[2].First)

	assert.Equal(t, Statistics{DrawCalls: 3, QuadCount: 4, TextureCount: 2}, rd.Stats())
	assert.Equal(t, 16, rd.Stats().TotalVertexCount())
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 3, stats.GPUDraws)
}

func TestQuadVerticesAndColor(t *testing.T) {
	rd, dev, _ := newOverlay(t, 4)
	rd.DrawQuad(10, 20, 4, 6, colors.RGBA(1, 1, 1, 0.5), 0)

	cs := dev.NewCommandStream("test")
	require.NoError(t, rd.Execute(cs, &gputest.Target{W: 800, H: 600}))

	require.Len(t, rd.verts, 4*vStride)
	// top-left corner
	assert.Equal(t, []float32{8, 17, 1, 1, 1, 0.5, 0, 0}, rd.verts[:vStride])
	// bottom-right corner
	assert.Equal(t, []float32{12, 23, 1, 1, 1, 0.5, 1, 1}, rd.verts[3*vStride:])
	assert.Len(t, dev.Writes[0].Data, 4*vStride*4)
}

func TestGrowsPastCapacity(t *testing.T) {
	rd, dev, _ := newOverlay(t, 2)
	for i := 0; i < 5; i++ {
		rd.DrawQuad(float32(i), 0, 1, 1, colors.Red, 0)
	}
	cs := dev.NewCommandStream("test")
	require.NoError(t, rd.Execute(cs, &gputest.Target{W: 800, H: 600}))
	assert.Equal(t, 8, rd.maxQuads)
	assert.Equal(t, 5, dev.Passes[0].Draws[0].Count/indsPerQuad)
}

func TestEmptyExecuteIsNoop(t *testing.T) {
	rd, dev, stats := newOverlay(t, 2)
	rd.DrawQuad(0, 0, 1, 1, colors.Red, 0)
	rd.Clear()
	assert.Zero(t, rd.Len())

	cs := dev.NewCommandStream("test")
	require.NoError(t, rd.Execute(cs, &gputest.Target{W: 800, H: 600}))
	assert.Empty(t, dev.Passes)
	assert.Zero(t, stats.DrawCalls)
}

func TestSubTextureUVs(t *testing.T) {
	dev := gputest.NewDevice(1, 1)
	tex, err := dev.CreateTexture(core.TextureDesc{Width: 64, Height: 32, Format: core.TextureR8})
	require.NoError(t, err)

	sub := FromGrid(tex, 1, 1, 16, 16)
	assert.Equal(t, float32(0.25), sub.U0)
	assert.Equal(t, float32(0.5), sub.V0)
	assert.Equal(t, float32(0.5), sub.U1)
	assert.Equal(t, float32(1), sub.V1)
}
