// Package text rasterizes a font into a glyph atlas and lays strings out as
// textured quads for the overlay.
package text

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hubastard/physdraw/engine/core"
)

const (
	firstRune    = rune(32)
	lastRune     = rune(126)
	atlasPadding = 2
	maxAtlasSize = 4096
)

type Glyph struct {
	Rune     rune
	Advance  float32 // pixels
	BearingX float32 // left bearing in pixels
	BearingY float32 // distance from baseline to glyph top
	W, H     int     // glyph bitmap size
	U0, V0   float32 // UVs in atlas
	U1, V1   float32
}

// Font is a rasterized face: per-glyph metrics plus the atlas texture holding
// white glyphs with alpha coverage.
type Font struct {
	SizePx                   float32
	Ascent, Descent, LineGap float32
	Glyphs                   map[rune]Glyph
	Texture                  core.Texture
	AtlasW, AtlasH           int
	Face                     font.Face
}

func (f *Font) Close() {
	if f == nil {
		return
	}
	if f.Face != nil {
		_ = f.Face.Close()
		f.Face = nil
	}
	if f.Texture != nil {
		f.Texture.Destroy()
		f.Texture = nil
	}
}

// Default loads the bundled Go Mono face.
func Default(dev core.Device, sizePx float32) (*Font, error) {
	return Load(dev, gomono.TTF, sizePx)
}

// LoadFile loads a TrueType or OpenType file from disk.
func LoadFile(dev core.Device, path string, sizePx float32) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return Load(dev, data, sizePx)
}

// Load rasterizes the printable ASCII range of ttf at sizePx and uploads
// the atlas.
func Load(dev core.Device, ttf []byte, sizePx float32) (*Font, error) {
	ft, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}

	f, pix, err := rasterize(face, sizePx)
	if err != nil {
		_ = face.Close()
		return nil, err
	}
	tex, err := dev.CreateTexture(core.TextureDesc{
		Label:     "glyph atlas",
		Width:     f.AtlasW,
		Height:    f.AtlasH,
		Format:    core.TextureRGBA8,
		Pixels:    pix.Pix,
		MinFilter: "nearest",
		MagFilter: "nearest",
		WrapU:     "clamp",
		WrapV:     "clamp",
	})
	if err != nil {
		_ = face.Close()
		return nil, fmt.Errorf("upload atlas: %w", err)
	}
	f.Texture = tex
	return f, nil
}

type measured struct {
	r      rune
	w, h   int
	adv    float32
	bx, by float32
}

// rasterize measures every glyph, packs them on shelves into the smallest
// square atlas that fits and draws them.
func rasterize(face font.Face, sizePx float32) (*Font, *image.RGBA, error) {
	m := face.Metrics()
	ascent := float32(m.Ascent.Round())
	descent := float32(-m.Descent.Round())
	lineGap := float32(m.Height.Round()) - ascent + descent

	measure := make([]measured, 0, lastRune-firstRune+1)
	for r := firstRune; r <= lastRune; r++ {
		br, adv, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		measure = append(measure, measured{
			r:   r,
			w:   (br.Max.X - br.Min.X).Ceil(),
			h:   (br.Max.Y - br.Min.Y).Ceil(),
			adv: float32(adv.Round()),
			bx:  float32(br.Min.X.Floor()),
			by:  float32(-br.Min.Y.Floor()),
		})
	}

	size, pos, err := pack(measure)
	if err != nil {
		return nil, nil, err
	}

	// white glyphs, coverage in alpha
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	drawer := &font.Drawer{Dst: dst, Src: image.White, Face: face}

	glyphs := make(map[rune]Glyph, len(measure))
	for _, g := range measure {
		gl := Glyph{Rune: g.r, Advance: g.adv, BearingX: g.bx, BearingY: g.by, W: g.w, H: g.h}
		if g.w > 0 && g.h > 0 {
			p := pos[g.r]
			drawer.Dot = fixed.P(p.X-int(g.bx), p.Y+int(g.by))
			drawer.DrawString(string(g.r))
			gl.U0 = float32(p.X) / float32(size)
			gl.V0 = float32(p.Y) / float32(size)
			gl.U1 = float32(p.X+g.w) / float32(size)
			gl.V1 = float32(p.Y+g.h) / float32(size)
		}
		glyphs[g.r] = gl
	}

	return &Font{
		SizePx:  sizePx,
		Ascent:  ascent,
		Descent: descent,
		LineGap: lineGap,
		Glyphs:  glyphs,
		AtlasW:  size,
		AtlasH:  size,
		Face:    face,
	}, dst, nil
}

func pack(glyphs []measured) (int, map[rune]image.Point, error) {
	for size := 128; size <= maxAtlasSize; size *= 2 {
		pos, ok := packInto(glyphs, size)
		if ok {
			return size, pos, nil
		}
	}
	return 0, nil, fmt.Errorf("font atlas larger than %d", maxAtlasSize)
}

func packInto(glyphs []measured, size int) (map[rune]image.Point, bool) {
	pos := make(map[rune]image.Point, len(glyphs))
	x, y, rowH := atlasPadding, atlasPadding, 0
	for _, g := range glyphs {
		if g.w == 0 || g.h == 0 {
			continue
		}
		if g.w+atlasPadding*2 > size {
			return nil, false
		}
		if x+g.w+atlasPadding > size {
			x = atlasPadding
			y += rowH + atlasPadding
			rowH = 0
		}
		if y+g.h+atlasPadding > size {
			return nil, false
		}
		pos[g.r] = image.Pt(x, y)
		x += g.w + atlasPadding
		if g.h > rowH {
			rowH = g.h
		}
	}
	return pos, true
}
