package ui

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
	"github.com/hubastard/physdraw/engine/text"
)

func newContext(t *testing.T) *Context {
	t.Helper()
	dev := gputest.NewDevice(800, 600)
	font, err := text.Default(dev, 14)
	require.NoError(t, err)
	t.Cleanup(font.Close)
	globals, err := dev.CreateBuffer(core.BufferDesc{Label: "globals", Usage: core.BufferUniform, Size: pipeline.GlobalsSize})
	require.NoError(t, err)
	r2d, err := renderer2d.New(&pipeline.Context{
		Device:  dev,
		Globals: globals,
		Staging: staging.New(1024),
		Stats:   &pipeline.Counters{},
	}, 64)
	require.NoError(t, err)
	return &Context{Viewport: [4]float32{0, 0, 800, 600}, DefaultFont: font, Renderer: r2d}
}

func TestVerticalViewStacksChildren(t *testing.T) {
	ctx := newContext(t)
	a := Label("first")
	b := Label("second")
	v := View(a, b).Gap(4).Padding(8)

	w, h := v.Measure(ctx, 800)
	v.Place(Rect{X: 20, Y: 30, W: w, H: h})

	ra, rb := a.Bounds(), b.Bounds()
	assert.Equal(t, float32(28), ra.X)
	assert.Equal(t, float32(38), ra.Y)
	assert.Equal(t, ra.X, rb.X)
	assert.Equal(t, ra.Y+ra.H+4, rb.Y)

	assert.Equal(t, rb.W+16, w, "wider child plus padding")
	assert.Equal(t, ra.H+rb.H+4+16, h)
}

func TestHorizontalViewCentersAcross(t *testing.T) {
	ctx := newContext(t)
	tall := Label("a\nb")
	short := Label("c")
	v := View(tall, short).FlowDirection(LayoutHorizontal).AlignCross(AlignCenter).Gap(2)

	w, h := v.Measure(ctx, 800)
	v.Place(Rect{W: w, H: h})

	rt, rs := tall.Bounds(), short.Bounds()
	assert.Equal(t, rt.H, h)
	assert.Equal(t, rt.X+rt.W+2, rs.X)
	assert.Equal(t, (rt.H-rs.H)/2, rs.Y)
}

func TestStretchTitleSpansView(t *testing.T) {
	ctx := newContext(t)
	title := Title("Debug data")
	long := Label("a much longer line of text")
	v := View(title, long).AlignCross(AlignStretch)

	Render(ctx, v)
	assert.Equal(t, long.Bounds().W, title.Bounds().W)
	assert.Equal(t, title.Bounds().X+6, title.label.Bounds().X, "text is inset by the bar padding")
}

func TestRenderDrawsBackgroundAndGlyphs(t *testing.T) {
	ctx := newContext(t)
	area := Render(ctx, View(Label("ab")).BgColor(colors.Black))
	// background + two glyphs
	assert.Equal(t, 3, ctx.Renderer.Len())
	assert.Equal(t, float32(0), area.X)
	assert.Positive(t, area.W)

	ctx.Renderer.Clear()
	Render(ctx, View(Label("ab")))
	assert.Equal(t, 2, ctx.Renderer.Len(), "transparent background draws nothing")
}

func TestLabelWraps(t *testing.T) {
	ctx := newContext(t)
	l := Label("one two three four").Wrap(true)
	w, h := l.Measure(ctx, 60)
	assert.LessOrEqual(t, w, float32(60))
	assert.Greater(t, h, text.LineHeight(ctx.DefaultFont))

	l.SetText("x")
	_, h = l.Measure(ctx, 60)
	assert.Equal(t, text.LineHeight(ctx.DefaultFont), h)
}

func TestSetChildrenReplaces(t *testing.T) {
	ctx := newContext(t)
	v := View(Label("a"), Label("b"))
	one := Label("c")
	v.SetChildren(one)
	require.Len(t, v.Children(), 1)

	_, h := v.Measure(ctx, 800)
	assert.Equal(t, text.LineHeight(ctx.DefaultFont), h)
}

func TestInsetNeverNegative(t *testing.T) {
	r := Rect{X: 1, Y: 2, W: 4, H: 4}.Inset(Uniform(3))
	assert.Equal(t, Rect{X: 4, Y: 5, W: 0, H: 0}, r)
}
