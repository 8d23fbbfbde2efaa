package ui

import "github.com/hubastard/physdraw/engine/colors"

// UITitle is a label on a filled bar. Inside a view aligned with
// AlignStretch the bar spans the view.
type UITitle struct {
	label   *UILabel
	bar     colors.Color
	padding Insets
	rect    Rect
}

func Title(s string) *UITitle {
	return &UITitle{label: Label(s), bar: colors.Grid, padding: Insets{6, 4, 6, 4}}
}

func (t *UITitle) BgColor(c colors.Color) *UITitle   { t.bar = c; return t }
func (t *UITitle) TextColor(c colors.Color) *UITitle { t.label.Color(c); return t }
func (t *UITitle) Bounds() Rect                      { return t.rect }

func (t *UITitle) Measure(ctx *Context, maxWidth float32) (float32, float32) {
	w, h := t.label.Measure(ctx, max(0, maxWidth-t.padding.horizontal()))
	return w + t.padding.horizontal(), h + t.padding.vertical()
}

func (t *UITitle) Place(r Rect) {
	t.rect = r
	t.label.Place(r.Inset(t.padding))
}

func (t *UITitle) Draw(ctx *Context) {
	ctx.fill(t.rect, t.bar)
	t.label.Draw(ctx)
}
