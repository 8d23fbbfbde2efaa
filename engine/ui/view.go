package ui

import "github.com/hubastard/physdraw/engine/colors"

// Align positions children across the stacking axis.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

type LayoutDirection int

const (
	LayoutVertical LayoutDirection = iota
	LayoutHorizontal
)

// UIView stacks its children along one axis with a fixed gap, inside
// optional padding and a background fill.
type UIView struct {
	children []Element
	sizes    [][2]float32
	flow     LayoutDirection
	cross    Align
	gap      float32
	padding  Insets
	bg       colors.Color
	rect     Rect
}

// View returns a vertical stack of children.
func View(children ...Element) *UIView {
	return &UIView{children: append([]Element(nil), children...), gap: 4}
}

func (v *UIView) FlowDirection(d LayoutDirection) *UIView { v.flow = d; return v }
func (v *UIView) AlignCross(a Align) *UIView              { v.cross = a; return v }
func (v *UIView) Gap(g float32) *UIView                   { v.gap = g; return v }
func (v *UIView) Padding(all float32) *UIView             { v.padding = Uniform(all); return v }
func (v *UIView) PaddingInsets(in Insets) *UIView         { v.padding = in; return v }
func (v *UIView) BgColor(c colors.Color) *UIView          { v.bg = c; return v }

// SetChildren replaces the stacked elements, keeping the view's settings.
func (v *UIView) SetChildren(children ...Element) *UIView {
	v.children = append(v.children[:0], children...)
	return v
}

func (v *UIView) Children() []Element { return v.children }
func (v *UIView) Bounds() Rect        { return v.rect }

func (v *UIView) Measure(ctx *Context, maxWidth float32) (float32, float32) {
	avail := max(0, maxWidth-v.padding.horizontal())
	v.sizes = v.sizes[:0]
	var main, cross float32
	for i, c := range v.children {
		w, h := c.Measure(ctx, avail)
		v.sizes = append(v.sizes, [2]float32{w, h})
		if i > 0 {
			main += v.gap
		}
		if v.flow == LayoutVertical {
			main += h
			cross = max(cross, w)
		} else {
			main += w
			cross = max(cross, h)
			avail = max(0, avail-w-v.gap)
		}
	}
	if v.flow == LayoutVertical {
		return cross + v.padding.horizontal(), main + v.padding.vertical()
	}
	return main + v.padding.horizontal(), cross + v.padding.vertical()
}

// Place assigns r to the view and lays the children out inside it from the
// sizes of the last Measure.
func (v *UIView) Place(r Rect) {
	v.rect = r
	inner := r.Inset(v.padding)
	cursor := float32(0)
	for i, c := range v.children {
		size := v.sizes[i]
		if v.flow == LayoutVertical {
			w, off := v.alignCross(size[0], inner.W)
			c.Place(Rect{X: inner.X + off, Y: inner.Y + cursor, W: w, H: size[1]})
			cursor += size[1] + v.gap
		} else {
			h, off := v.alignCross(size[1], inner.H)
			c.Place(Rect{X: inner.X + cursor, Y: inner.Y + off, W: size[0], H: h})
			cursor += size[0] + v.gap
		}
	}
}

// alignCross returns the cross-axis extent and offset of a child of natural
// extent n in a span of s.
func (v *UIView) alignCross(n, s float32) (float32, float32) {
	n = min(n, s)
	switch v.cross {
	case AlignStretch:
		return s, 0
	case AlignCenter:
		return n, (s - n) / 2
	case AlignEnd:
		return n, s - n
	default:
		return n, 0
	}
}

func (v *UIView) Draw(ctx *Context) {
	ctx.fill(v.rect, v.bg)
	for _, c := range v.children {
		c.Draw(ctx)
	}
}
