package ui

import (
	"strings"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/text"
)

// UILabel is a block of text. Newlines break lines; with wrapping enabled
// words also move to a new line when the available width runs out.
type UILabel struct {
	text  string
	font  *text.Font
	color colors.Color
	wrap  bool
	lines []string
	rect  Rect
}

func Label(s string) *UILabel {
	return &UILabel{text: s, color: colors.White}
}

func (l *UILabel) SetText(s string) *UILabel     { l.text = s; return l }
func (l *UILabel) Text() string                  { return l.text }
func (l *UILabel) Font(f *text.Font) *UILabel    { l.font = f; return l }
func (l *UILabel) Color(c colors.Color) *UILabel { l.color = c; return l }
func (l *UILabel) Wrap(enabled bool) *UILabel    { l.wrap = enabled; return l }
func (l *UILabel) Bounds() Rect                  { return l.rect }
func (l *UILabel) Place(r Rect)                  { l.rect = r }

func (l *UILabel) face(ctx *Context) *text.Font {
	if l.font != nil {
		return l.font
	}
	return ctx.DefaultFont
}

func (l *UILabel) Measure(ctx *Context, maxWidth float32) (float32, float32) {
	f := l.face(ctx)
	l.lines = l.lines[:0]
	if f == nil || l.text == "" {
		return 0, 0
	}
	for _, raw := range strings.Split(l.text, "\n") {
		if l.wrap && maxWidth > 0 {
			l.lines = wrapWords(f, raw, maxWidth, l.lines)
		} else {
			l.lines = append(l.lines, raw)
		}
	}
	var w float32
	for _, line := range l.lines {
		lw, _ := text.MeasureText(f, line, 0)
		w = max(w, lw)
	}
	return w, text.LineHeight(f) * float32(len(l.lines))
}

// wrapWords appends the lines of raw broken at spaces to fit width. A single
// word wider than width keeps its own line.
func wrapWords(f *text.Font, raw string, width float32, out []string) []string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return append(out, "")
	}
	space, _ := text.MeasureText(f, " ", 0)
	line := words[0]
	lineW, _ := text.MeasureText(f, line, 0)
	for _, word := range words[1:] {
		ww, _ := text.MeasureText(f, word, 0)
		if lineW+space+ww > width {
			out = append(out, line)
			line, lineW = word, ww
			continue
		}
		line += " " + word
		lineW += space + ww
	}
	return append(out, line)
}

func (l *UILabel) Draw(ctx *Context) {
	f := l.face(ctx)
	if f == nil || len(l.lines) == 0 || l.color.A <= 0 || ctx.Renderer == nil {
		return
	}
	text.DrawText(ctx.Renderer, f, l.rect.X, l.rect.Y, strings.Join(l.lines, "\n"), l.color)
}
