package render

import (
	"fmt"
	"time"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/ui"
)

// Stats is what the renderer reports about the last completed frame.
type Stats struct {
	Frame         uint64
	LastDelta     float32 // seconds
	WindowSize    [2]int
	DrawCalls     int
	GPUDraws      int
	Dropped       int
	AvgUpdateTime time.Duration
}

func (s Stats) FPS() float32 {
	if s.LastDelta <= 0 {
		return 0
	}
	return 1 / s.LastDelta
}

func (s Stats) String() string {
	return fmt.Sprintf("frame=%d dt=%.4f size=%dx%d draws=%d", s.Frame, s.LastDelta, s.WindowSize[0], s.WindowSize[1], s.DrawCalls)
}

// DataCollector receives time series recorded by scene objects while they
// update.
type DataCollector interface {
	Record(series string, frame uint64, value float64)
}

// Renderable is a scene object. Render is called once per frame with the
// frame still open; Update once per sub-step after the frame was presented.
type Renderable interface {
	Render(b *Brush, r *Renderer, dt float32, frame uint64)
	Update(dt float32, frame uint64, dc DataCollector)
}

// UILayer draws the overlay after every brush pipeline has executed.
type UILayer interface {
	DrawUI(ctx *ui.Context, stats Stats)
}

type Scene struct {
	Objects    []Renderable
	UI         UILayer
	Background colors.Color
	// Substeps is the number of Update calls per frame; values below 1 mean 1.
	Substeps int
	// Collector receives recorded series; nil discards them.
	Collector DataCollector
}

func NewScene() *Scene {
	return &Scene{Background: colors.Background, Substeps: 1}
}

func (s *Scene) Add(objs ...Renderable) { s.Objects = append(s.Objects, objs...) }

func (s *Scene) collector() DataCollector {
	if s.Collector == nil {
		return discard{}
	}
	return s.Collector
}

type discard struct{}

func (discard) Record(string, uint64, float64) {}

func (s *Scene) substeps() int {
	if s.Substeps < 1 {
		return 1
	}
	return s.Substeps
}
