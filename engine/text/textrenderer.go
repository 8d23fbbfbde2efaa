package text

import (
	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/gfx/renderer2d"
)

// DrawText draws s with its top-left at (x,y). Positive Y goes downward.
func DrawText(r2d *renderer2d.Renderer2D, font *Font, x, y float32, s string, color colors.Color) {
	penX := x
	baseY := y + font.Ascent
	var prev rune = -1

	for _, r := range s {
		if r == '\n' {
			penX = x
			baseY += LineHeight(font)
			prev = -1
			continue
		}

		g, ok := font.Glyphs[r]
		if !ok {
			if sp, ok2 := font.Glyphs[' ']; ok2 {
				penX += sp.Advance
			}
			prev = r
			continue
		}

		if prev >= 0 && font.Face != nil {
			penX += float32(font.Face.Kern(prev, r)) / 64.0
		}

		if g.W > 0 && g.H > 0 {
			left := penX + g.BearingX
			top := baseY - g.BearingY
			r2d.DrawTexturedQuadUV(
				left+float32(g.W)*0.5, top+float32(g.H)*0.5,
				float32(g.W), float32(g.H),
				font.Texture, color, 0,
				g.U0, g.V0, g.U1, g.V1,
			)
		}

		penX += g.Advance
		prev = r
	}
}

// MeasureText returns the extent of s scaled from the atlas size to size.
func MeasureText(font *Font, s string, size float32) (width, height float32) {
	var lineW float32
	var prev rune = -1
	lineH := LineHeight(font)
	height = lineH

	scale := float32(1)
	if size > 0 {
		scale = size / font.SizePx
	}

	for _, r := range s {
		if r == '\n' {
			if lineW > width {
				width = lineW
			}
			lineW = 0
			height += lineH
			prev = -1
			continue
		}

		g, ok := font.Glyphs[r]
		if !ok {
			if sp, ok2 := font.Glyphs[' ']; ok2 {
				lineW += sp.Advance
			}
			prev = r
			continue
		}

		if prev >= 0 && font.Face != nil {
			lineW += float32(font.Face.Kern(prev, r)) / 64.0
		}

		lineW += g.Advance
		prev = r
	}

	if lineW > width {
		width = lineW
	}
	return width * scale, height * scale
}

func BaselineToTop(font *Font) float32    { return font.Ascent }
func BaselineToBottom(font *Font) float32 { return -font.Descent }
func LineHeight(font *Font) float32       { return font.Ascent - font.Descent + font.LineGap }
