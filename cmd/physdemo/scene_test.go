package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/physdraw/engine/datalog"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/gputest"
	"github.com/hubastard/physdraw/engine/gfx/render"
	"github.com/hubastard/physdraw/engine/log"
)

func TestDemoSceneRendersAndRecords(t *testing.T) {
	dev := gputest.NewDevice(800, 600)
	r, err := render.New(dev, render.Options{Width: 800, Height: 600})
	require.NoError(t, err)
	mem := datalog.NewMemory()
	scene := newDemoScene(800, 600)
	scene.Substeps = 2
	scene.Collector = mem

	for i := 0; i < 3; i++ {
		require.NoError(t, r.RenderFrame(scene, 1.0/60))
	}
	assert.Len(t, dev.Presents, 3)
	assert.Len(t, mem.Series("spring.extension"), 6)
	assert.Len(t, mem.Series("mass.height"), 6)
	assert.Equal(t, uint64(2), mem.Series("spring.energy")[5].Frame)
	assert.Equal(t, uint64(2), r.Stats().Frame, "index of the last completed frame")
}

func TestMassBouncesOnFloor(t *testing.T) {
	m := &Mass{Position: geom.V2(10, 499), Velocity: geom.V2(0, 300), bounds: geom.V2(800, 600)}
	m.Update(0.1, 0, datalog.NewMemory())
	assert.Equal(t, float32(500), m.Position.Y)
	assert.Less(t, m.Velocity.Y, float32(0))
}

func TestSpringMassSettlesBelowAnchor(t *testing.T) {
	s := &SpringMass{Anchor: geom.V2(0, 0), Bob: geom.V2(50, 100), RestLength: 100, Stiffness: 40, Damping: 2, Mass: 1}
	mem := datalog.NewMemory()
	for i := 0; i < 5000; i++ {
		s.Update(0.01, uint64(i), mem)
	}
	assert.InDelta(t, 0, s.Bob.X, 1)
	assert.Greater(t, s.Bob.Y, float32(100))
	assert.Less(t, s.Velocity.Length(), float32(1))
}

func TestRefusedPrimitivesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	log.Init(log.Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { log.Init(log.Options{}) })

	dev := gputest.NewDevice(800, 600)
	r, err := render.New(dev, render.Options{Width: 800, Height: 600})
	require.NoError(t, err)
	scene := render.NewScene()
	anchor := geom.V2(300, 60)
	scene.Add(&SpringMass{Anchor: anchor, Bob: anchor, RestLength: 180, Stiffness: 40, Mass: 1})

	require.NoError(t, r.RenderFrame(scene, 1.0/60))
	assert.Len(t, dev.Presents, 1)
	assert.Contains(t, buf.String(), `"what":"spring"`)
	assert.NotContains(t, buf.String(), `"what":"bob"`)
}
