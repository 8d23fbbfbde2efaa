package renderer2d

import "github.com/hubastard/physdraw/engine/core"

// SubTexture2D describes a UV sub-rect of a full texture. V grows downward,
// matching the row order of the uploaded pixels.
type SubTexture2D struct {
	Texture core.Texture
	U0, V0  float32 // top-left
	U1, V1  float32 // bottom-right
}

// FromPixels builds a subtexture from pixel coordinates within an atlas.
func FromPixels(tex core.Texture, x, y, w, h int) SubTexture2D {
	atlasW, atlasH := float32(tex.Width()), float32(tex.Height())
	return SubTexture2D{
		Texture: tex,
		U0:      float32(x) / atlasW,
		V0:      float32(y) / atlasH,
		U1:      float32(x+w) / atlasW,
		V1:      float32(y+h) / atlasH,
	}
}

// FromGrid builds a subtexture from tile grid coordinates (cx,cy) of cell size (cw,ch).
func FromGrid(tex core.Texture, cx, cy, cw, ch int) SubTexture2D {
	return FromPixels(tex, cx*cw, cy*ch, cw, ch)
}
