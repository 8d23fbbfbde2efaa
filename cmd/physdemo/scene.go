package main

import (
	"github.com/chewxy/math32"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/components"
	"github.com/hubastard/physdraw/engine/geom"
	"github.com/hubastard/physdraw/engine/gfx/render"
	"github.com/hubastard/physdraw/engine/gfx/tess"
	"github.com/hubastard/physdraw/engine/log"
)

var gravity = geom.V2(0, 500)

// report logs a primitive the brush refused. Degenerate shapes and capacity
// drops only lose that primitive; tessellation and flush failures are also
// kept by the brush and end the frame through RenderFrame.
func report(what string, err error) {
	if err != nil {
		log.WithComponent("demo").Debug("not drawn", "what", what, "err", err)
	}
}

func newDemoScene(w, h int) *render.Scene {
	s := render.NewScene()
	s.Add(
		&Mass{Radius: 20, Position: geom.V2(100, 100), Velocity: geom.V2(100, 0), bounds: geom.V2(float32(w), float32(h))},
		&SpringMass{
			Anchor:     geom.V2(float32(w)*0.6, 60),
			Bob:        geom.V2(float32(w)*0.6+40, 260),
			RestLength: 180,
			Stiffness:  40,
			Damping:    0.4,
			Mass:       1,
		},
		&Star{Center: geom.V2(float32(w)*0.3, float32(h)*0.6), Outer: 60, Inner: 26, Points: 5},
	)
	return s
}

// Mass is a ball falling under gravity and bouncing inside the window.
type Mass struct {
	Radius   float32
	Position geom.Vector2
	Velocity geom.Vector2
	bounds   geom.Vector2
}

func (m *Mass) Render(b *render.Brush, r *render.Renderer, dt float32, frame uint64) {
	w, h := r.WindowSize()
	m.bounds = geom.V2(float32(w), float32(h))
	report("mass", b.DrawCircleFilled(m.Position.Add(geom.V2(50, 10)), m.Radius, colors.Blue))
	report("mass box", b.DrawRoundedQuadFilled(m.Position, m.Position.Add(geom.V2(100, 100)), colors.Red, 15))
}

func (m *Mass) Update(dt float32, frame uint64, dc render.DataCollector) {
	m.Velocity = m.Velocity.Add(gravity.Scale(dt))
	m.Position = m.Position.Add(m.Velocity.Scale(dt))
	// the drawn box spans Position .. Position+100
	maxX, maxY := m.bounds.X-100, m.bounds.Y-100
	if m.Position.Y > maxY && m.Velocity.Y > 0 {
		m.Position.Y = maxY
		m.Velocity.Y = -m.Velocity.Y * 0.8
	}
	if (m.Position.X > maxX && m.Velocity.X > 0) || (m.Position.X < 0 && m.Velocity.X < 0) {
		m.Velocity.X = -m.Velocity.X
	}
	dc.Record("mass.height", frame, float64(m.bounds.Y-m.Position.Y))
}

// SpringMass is a damped bob hanging from a fixed anchor.
type SpringMass struct {
	Anchor, Bob geom.Vector2
	Velocity    geom.Vector2
	RestLength  float32
	Stiffness   float32
	Damping     float32
	Mass        float32
}

func (s *SpringMass) Render(b *render.Brush, r *render.Renderer, dt float32, frame uint64) {
	report("spring", components.DrawSpring(b, r, components.Spring{A: s.Anchor, B: s.Bob, RestLength: s.RestLength, Scale: 1}))
	report("bob", b.DrawCircleFilled(s.Bob, 12, colors.Green))
}

func (s *SpringMass) Update(dt float32, frame uint64, dc render.DataCollector) {
	d := s.Bob.Sub(s.Anchor)
	l := d.Length()
	dir, ok := d.NormalizeSafe()
	if !ok {
		dir = geom.V2(0, 1)
	}
	force := dir.Scale(-s.Stiffness * (l - s.RestLength)).
		Sub(s.Velocity.Scale(s.Damping)).
		Add(gravity.Scale(s.Mass * 0.1))
	s.Velocity = s.Velocity.Add(force.Scale(dt / s.Mass))
	s.Bob = s.Bob.Add(s.Velocity.Scale(dt))

	dc.Record("spring.extension", frame, float64(l-s.RestLength))
	dc.Record("spring.energy", frame, float64(0.5*s.Stiffness*(l-s.RestLength)*(l-s.RestLength)+0.5*s.Mass*s.Velocity.LengthSquared()))
}

// Star is a slowly turning filled star polygon.
type Star struct {
	Center       geom.Vector2
	Outer, Inner float32
	Points       int
	angle        float32
}

func (s *Star) Render(b *render.Brush, r *render.Renderer, dt float32, frame uint64) {
	n := s.Points * 2
	pts := make([]geom.Vector2, n)
	for i := range pts {
		radius := s.Outer
		if i%2 == 1 {
			radius = s.Inner
		}
		a := float32(i)*math32.Pi/float32(s.Points) - math32.Pi/2
		sin, cos := math32.Sincos(a)
		pts[i] = s.Center.Add(geom.V2(cos*radius, sin*radius))
	}
	report("star", b.DrawPath(func(pb *tess.Builder) { pb.AddPolygon(pts) }, colors.FromHex(0xFFE8C547), s.angle, s.Center))
}

func (s *Star) Update(dt float32, frame uint64, dc render.DataCollector) {
	s.angle = math32.Mod(s.angle+dt*0.5, 2*math32.Pi)
}
