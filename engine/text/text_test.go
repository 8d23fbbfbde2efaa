package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/gfx/gputest"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/gfx/renderer2d"
	"github.com/hubastard/physdraw/engine/staging"
)

func loadDefault(t *testing.T, dev *gputest.Device) *Font {
	t.Helper()
	f, err := Default(dev, 14)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func TestDefaultFontAtlas(t *testing.T) {
	dev := gputest.NewDevice(800, 600)
	f := loadDefault(t, dev)

	require.Len(t, dev.Textures, 1)
	desc := dev.Textures[0].Desc
	assert.Equal(t, f.AtlasW, desc.Width)
	assert.Len(t, desc.Pixels, f.AtlasW*f.AtlasH*4)

	assert.Len(t, f.Glyphs, int(lastRune-firstRune+1))
	a := f.Glyphs['A']
	assert.Positive(t, a.W)
	assert.Positive(t, a.H)
	assert.Positive(t, a.Advance)
	for _, uv := range []float32{a.U0, a.V0, a.U1, a.V1} {
		assert.GreaterOrEqual(t, uv, float32(0))
		assert.LessOrEqual(t, uv, float32(1))
	}
	assert.Less(t, a.U0, a.U1)

	space := f.Glyphs[' ']
	assert.Zero(t, space.W)
	assert.Positive(t, space.Advance)
}

func TestMeasureMonospace(t *testing.T) {
	f := loadDefault(t, gputest.NewDevice(800, 600))
	adv := f.Glyphs['m'].Advance

	w, h := MeasureText(f, "mmmm", 0)
	assert.InDelta(t, 4*adv, w, 0.01)
	assert.Equal(t, LineHeight(f), h)

	w2, h2 := MeasureText(f, "mm\nmmmm", 0)
	assert.Equal(t, w, w2)
	assert.Equal(t, 2*LineHeight(f), h2)

	w3, _ := MeasureText(f, "mmmm", 28)
	assert.InDelta(t, 2*w, w3, 0.01)
}

func TestDrawTextSkipsBlankGlyphs(t *testing.T) {
	dev := gputest.NewDevice(800, 600)
	f := loadDefault(t, dev)
	globals, err := dev.CreateBuffer(core.BufferDesc{Label: "globals", Usage: core.BufferUniform, Size: pipeline.GlobalsSize})
	require.NoError(t, err)
	r2d, err := renderer2d.New(&pipeline.Context{
		Device:  dev,
		Globals: globals,
		Staging: staging.New(1024),
		Stats:   &pipeline.Counters{},
	}, 16)
	require.NoError(t, err)

	DrawText(r2d, f, 10, 10, "a b\nc", colors.White)
	assert.Equal(t, 3, r2d.Len())
}
