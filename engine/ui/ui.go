// Package ui lays out and draws the debug overlay: stacks of text rows on
// filled panels, emitted as quads through the overlay batcher.
package ui

import (
	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/gfx/renderer2d"
	"github.com/hubastard/physdraw/engine/text"
)

// Context is what a UI tree lays out against and draws into for one frame.
type Context struct {
	Viewport    [4]float32 // x, y, w, h in pixels
	DefaultFont *text.Font
	Renderer    *renderer2d.Renderer2D
}

func (ctx *Context) fill(r Rect, c colors.Color) {
	if c.A <= 0 || ctx.Renderer == nil || r.W <= 0 || r.H <= 0 {
		return
	}
	ctx.Renderer.DrawQuad(r.X+r.W/2, r.Y+r.H/2, r.W, r.H, c, 0)
}

// Rect is a pixel rectangle given by its top-left corner.
type Rect struct {
	X, Y, W, H float32
}

func (r Rect) Inset(in Insets) Rect {
	return Rect{
		X: r.X + in.Left,
		Y: r.Y + in.Top,
		W: max(0, r.W-in.Left-in.Right),
		H: max(0, r.H-in.Top-in.Bottom),
	}
}

type Insets struct {
	Left, Top, Right, Bottom float32
}

func Uniform(v float32) Insets { return Insets{v, v, v, v} }

func (in Insets) horizontal() float32 { return in.Left + in.Right }
func (in Insets) vertical() float32   { return in.Top + in.Bottom }

// Element is one node of an overlay tree. Measure reports the natural size
// given the width available; Place then assigns the final rect, which Draw
// uses.
type Element interface {
	Measure(ctx *Context, maxWidth float32) (w, h float32)
	Place(r Rect)
	Bounds() Rect
	Draw(ctx *Context)
}

// Render lays root out at the viewport origin, draws it and returns the rect
// it covers.
func Render(ctx *Context, root Element) Rect {
	w, h := root.Measure(ctx, ctx.Viewport[2])
	root.Place(Rect{X: ctx.Viewport[0], Y: ctx.Viewport[1], W: w, H: h})
	root.Draw(ctx)
	return root.Bounds()
}
