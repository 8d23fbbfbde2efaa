package components

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/gputest"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/gfx/render"
	"github.com/hubastard/physdraw/engine/gfx/renderer2d"
	"github.com/hubastard/physdraw/engine/staging"
	"github.com/hubastard/physdraw/engine/text"
	"github.com/hubastard/physdraw/engine/ui"
)

func openFrame(t *testing.T) (*render.Renderer, *render.Scene, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice(800, 600)
	r, err := render.New(dev, render.Options{Width: 800, Height: 600})
	require.NoError(t, err)
	scene := render.NewScene()
	require.NoError(t, r.Begin(scene))
	return r, scene, dev
}

func passLabels(dev *gputest.Device) []string {
	var out []string
	for _, p := range dev.Passes {
		out = append(out, p.Desc.Label)
	}
	return out
}

func TestSpringCoilCount(t *testing.T) {
	s := Spring{A: geom.V2(100, 100), B: geom.V2(300, 100), RestLength: 200}
	assert.Equal(t, 15, s.Coils())

	s.B = geom.V2(400, 100)
	assert.Equal(t, 15, s.Coils(), "stretching keeps the coil count")

	s.RestLength = 10
	assert.Equal(t, 1, s.Coils())
}

func TestSpringFlushesBeforeJoints(t *testing.T) {
	r, scene, dev := openFrame(t)
	s := Spring{A: geom.V2(100, 100), B: geom.V2(300, 100), RestLength: 200, Scale: 1}

	require.NoError(t, DrawSpring(r.Brush(), r, s))
	assert.Equal(t, []string{"clear", "grid", "quad"}, passLabels(dev))
	quads := dev.Passes[2].Draws
	require.Len(t, quads, 1)
	// guide line, coils, two connectors and two bases
	assert.Equal(t, s.Coils()+6, quads[0].Instances)
	assert.Len(t, r.Brush().Circles(), 2)

	require.NoError(t, r.End(scene))
	assert.Equal(t, []string{"clear", "grid", "quad", "circle"}, passLabels(dev))
}

func TestSpringOverstretchedStaysFinite(t *testing.T) {
	r, scene, _ := openFrame(t)
	s := Spring{A: geom.V2(0, 300), B: geom.V2(790, 300), RestLength: 100}

	require.NoError(t, DrawSpring(r.Brush(), r, s))
	require.NoError(t, r.End(scene))
	assert.NoError(t, r.Brush().Err())
}

func TestSpringDegenerate(t *testing.T) {
	r, scene, dev := openFrame(t)
	p := geom.V2(50, 50)

	err := DrawSpring(r.Brush(), r, Spring{A: p, B: p, RestLength: 100})
	assert.True(t, errors.Is(err, render.ErrDegenerate))
	err = DrawSpring(r.Brush(), r, Spring{A: p, B: geom.V2(80, 50)})
	assert.True(t, errors.Is(err, render.ErrDegenerate))

	assert.Zero(t, r.Brush().Len())
	require.NoError(t, r.End(scene))
	assert.Equal(t, []string{"clear", "grid"}, passLabels(dev))
}

func TestSpringNeedsOpenFrame(t *testing.T) {
	dev := gputest.NewDevice(800, 600)
	r, err := render.New(dev, render.Options{Width: 800, Height: 600})
	require.NoError(t, err)

	err = DrawSpring(r.Brush(), r, Spring{A: geom.V2(0, 0), B: geom.V2(200, 0), RestLength: 200})
	assert.True(t, errors.Is(err, render.ErrNoFrame))
}

func TestDebugPanelLines(t *testing.T) {
	p := &DebugPanel{}
	stats := render.Stats{LastDelta: 0.02, WindowSize: [2]int{800, 600}, DrawCalls: 3}

	lines := p.Lines(stats)
	require.Len(t, lines, 5)
	assert.Equal(t, "FPS: 50.0", lines[0])
	assert.Equal(t, "Window size: 800x600", lines[2])
	assert.Equal(t, "Draw calls: 4", lines[3])

	stats.Dropped = 7
	in := core.NewInput()
	in.Handle(core.EventMouseMove{X: 3, Y: 4})
	p.Input = in
	lines = p.Lines(stats)
	assert.Contains(t, lines, "Dropped: 7")
	assert.Contains(t, lines, "Mouse: 3x4")

	p.Memory = true
	assert.Len(t, p.Lines(stats), 9)
}

func TestDebugPanelDraws(t *testing.T) {
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

	ctx := &ui.Context{Viewport: [4]float32{0, 0, 800, 600}, DefaultFont: font, Renderer: r2d}
	p := &DebugPanel{}
	p.DrawUI(ctx, render.Stats{LastDelta: 0.016})
	// panel background and title bar at least, plus glyphs
	assert.Greater(t, r2d.Len(), 2+len("Debug data"))
	body := p.body
	require.Len(t, p.rows, 5)
	assert.Equal(t, "FPS: 62.5", p.rows[0].Text())

	r2d.Clear()
	small := p.Draw(ctx, render.Stats{LastDelta: 0.02})
	assert.Same(t, body, p.body, "the tree is kept across frames")
	assert.Equal(t, "FPS: 50.0", p.rows[0].Text())
	assert.Equal(t, float32(16), p.body.Bounds().X)

	r2d.Clear()
	tall := p.Draw(ctx, render.Stats{LastDelta: 0.02, Dropped: 2})
	require.Len(t, p.rows, 6)
	assert.Len(t, p.body.Children(), 7, "title plus one element per line")
	assert.Equal(t, "Dropped: 2", p.rows[5].Text())
	assert.Greater(t, tall.H, small.H)

	r2d.Clear()
	p.Draw(ctx, render.Stats{LastDelta: 0.02})
	assert.Len(t, p.body.Children(), 6, "rows beyond the line count are not drawn")
}
