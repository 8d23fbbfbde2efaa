// Package renderer2d batches textured quads for the UI overlay. Quads are
// accumulated on the CPU while the UI draws and recorded into the frame in
// one pass, with one draw per run of quads sharing a texture.
package renderer2d

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
)

const DefaultMaxQuads = 4096

// Vertex: pos2 + color4 + uv2 => 8 floats
const vStride = 8
const vertsPerQuad = 4
const indsPerQuad = 6

var quadVertexLayout = core.VertexLayout{
	Stride: vStride * 4,
	Step:   core.StepVertex,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0},     // pos
		{Location: 1, Size: 4, Type: core.AttribFloat32, Offset: 2 * 4}, // color
		{Location: 2, Size: 2, Type: core.AttribFloat32, Offset: 6 * 4}, // uv
	},
}

// AtlasBinding is the texture + sampler pair of overlay.wgsl.
var AtlasBinding = core.TextureBinding{Slot: 0, Group: 1, Index: 0, SamplerIndex: 1}

// Statistics captures the counts of the last Execute.
type Statistics struct {
	DrawCalls    int
	QuadCount    int
	TextureCount int
}

// TotalVertexCount reports vertices submitted.
func (s Statistics) TotalVertexCount() int { return s.QuadCount * vertsPerQuad }

// TotalIndexCount reports indices submitted.
func (s Statistics) TotalIndexCount() int { return s.QuadCount * indsPerQuad }

type batch struct {
	tex   core.Texture
	first int
	count int
}

type Renderer2D struct {
	ctx   *pipeline.Context
	pipe  core.Pipeline
	white core.Texture // 1x1 white for solid quads

	vbuf     core.Buffer
	ibuf     core.Buffer
	maxQuads int

	verts     []float32
	inds      []uint32
	batches   []batch
	quadCount int

	stats Statistics
}

// New creates the overlay pipeline and buffers for maxQuads quads. The
// buffers grow when a frame needs more.
func New(ctx *pipeline.Context, maxQuads int) (*Renderer2D, error) {
	if maxQuads <= 0 {
		maxQuads = DefaultMaxQuads
	}
	src, err := pipeline.Shader("overlay")
	if err != nil {
		return nil, err
	}
	pipe, err := ctx.Device.CreatePipeline(core.PipelineDesc{
		Label:         "overlay",
		Shader:        src,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexLayouts: []core.VertexLayout{quadVertexLayout},
		Uniforms:      []core.UniformBinding{pipeline.GlobalsBinding},
		Textures:      []core.TextureBinding{AtlasBinding},
		Blend:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: create pipeline: %w", err)
	}

	white, err := ctx.Device.CreateTexture(core.TextureDesc{
		Label:  "overlay white",
		Width:  1,
		Height: 1,
		Format: core.TextureRGBA8,
		Pixels: []byte{255, 255, 255, 255},

		MinFilter: "nearest", MagFilter: "nearest",
		WrapU: "clamp", WrapV: "clamp",
	})
	if err != nil {
		return nil, fmt.Errorf("overlay: create white texture: %w", err)
	}

	rd := &Renderer2D{
		ctx:   ctx,
		pipe:  pipe,
		white: white,
		verts: make([]float32, 0, maxQuads*vertsPerQuad*vStride),
		inds:  make([]uint32, 0, maxQuads*indsPerQuad),
	}
	if err := rd.alloc(maxQuads); err != nil {
		return nil, err
	}
	return rd, nil
}

func (rd *Renderer2D) alloc(quads int) error {
	vbuf, err := rd.ctx.Device.CreateBuffer(core.BufferDesc{
		Label: "overlay vertices",
		Usage: core.BufferVertex,
		Size:  quads * vertsPerQuad * vStride * 4,
	})
	if err != nil {
		return fmt.Errorf("overlay: create vertex buffer: %w", err)
	}
	ibuf, err := rd.ctx.Device.CreateBuffer(core.BufferDesc{
		Label: "overlay indices",
		Usage: core.BufferIndex,
		Size:  quads * indsPerQuad * 4,
	})
	if err != nil {
		vbuf.Destroy()
		return fmt.Errorf("overlay: create index buffer: %w", err)
	}
	if rd.vbuf != nil {
		rd.vbuf.Destroy()
		rd.ibuf.Destroy()
	}
	rd.vbuf, rd.ibuf, rd.maxQuads = vbuf, ibuf, quads
	return nil
}

// White is the texture solid quads sample.
func (rd *Renderer2D) White() core.Texture { return rd.white }

// Stats returns the statistics of the last Execute.
func (rd *Renderer2D) Stats() Statistics { return rd.stats }

// Len is the number of queued quads.
func (rd *Renderer2D) Len() int { return rd.quadCount }

// Clear drops queued quads.
func (rd *Renderer2D) Clear() {
	rd.verts = rd.verts[:0]
	rd.inds = rd.inds[:0]
	rd.batches = rd.batches[:0]
	rd.quadCount = 0
}

// DrawQuad draws a solid quad centered at (x, y).
func (rd *Renderer2D) DrawQuad(x, y, w, h float32, color colors.Color, rotationRad float32) {
	rd.drawQuadInternal(x, y, w, h, color, rotationRad, rd.white, 0, 0, 1, 1)
}

// DrawTexturedQuad draws the whole of tex tinted by tint.
func (rd *Renderer2D) DrawTexturedQuad(x, y, w, h float32, tex core.Texture, tint colors.Color, rotationRad float32) {
	rd.drawQuadInternal(x, y, w, h, tint, rotationRad, tex, 0, 0, 1, 1)
}

// DrawTexturedQuadUV draws the UV rect u0,v0 -> u1,v1 of tex.
func (rd *Renderer2D) DrawTexturedQuadUV(x, y, w, h float32, tex core.Texture, tint colors.Color, rotationRad float32, u0, v0, u1, v1 float32) {
	rd.drawQuadInternal(x, y, w, h, tint, rotationRad, tex, u0, v0, u1, v1)
}

// DrawSubTexQuad draws a quad using a SubTexture2D.
func (rd *Renderer2D) DrawSubTexQuad(x, y, w, h float32, sub SubTexture2D, tint colors.Color, rotationRad float32) {
	rd.drawQuadInternal(x, y, w, h, tint, rotationRad, sub.Texture, sub.U0, sub.V0, sub.U1, sub.V1)
}

func (rd *Renderer2D) use(tex core.Texture) *batch {
	if n := len(rd.batches); n > 0 && rd.batches[n-1].tex == tex {
		return &rd.batches[n-1]
	}
	rd.batches = append(rd.batches, batch{tex: tex, first: len(rd.inds)})
	return &rd.batches[len(rd.batches)-1]
}

func (rd *Renderer2D) drawQuadInternal(x, y, w, h float32, color colors.Color, rotationRad float32, tex core.Texture, u0, v0, u1, v1 float32) {
	halfW := w * 0.5
	halfH := h * 0.5

	// TL, TR, BL, BR. Positive Y goes down so top is -halfH.
	corners := [4][4]float32{
		{-halfW, -halfH, u0, v0},
		{halfW, -halfH, u1, v0},
		{-halfW, halfH, u0, v1},
		{halfW, halfH, u1, v1},
	}
	s, c := math32.Sincos(rotationRad)
	lin := color.ToLinear()

	b := rd.use(tex)
	startVertex := uint32(len(rd.verts) / vStride)
	for _, p := range corners {
		rx := p[0]*c - p[1]*s + x
		ry := p[0]*s + p[1]*c + y
		rd.verts = append(rd.verts,
			rx, ry,
			lin[0], lin[1], lin[2], lin[3],
			p[2], p[3],
		)
	}
	rd.inds = append(rd.inds,
		startVertex+0, startVertex+2, startVertex+1,
		startVertex+1, startVertex+2, startVertex+3,
	)
	b.count += indsPerQuad
	rd.quadCount++
}

// Execute records the queued quads into target over what is already there.
func (rd *Renderer2D) Execute(cs core.CommandStream, target core.Target) error {
	if rd.quadCount == 0 {
		return nil
	}
	if rd.quadCount > rd.maxQuads {
		n := rd.maxQuads
		for n < rd.quadCount {
			n *= 2
		}
		rd.ctx.Logger().Debug("overlay buffers grown", "from", rd.maxQuads, "to", n)
		if err := rd.alloc(n); err != nil {
			return err
		}
	}

	st := rd.ctx.Staging
	mark := st.Mark()
	for _, f := range rd.verts {
		st.F32(f)
	}
	if err := cs.WriteBuffer(rd.vbuf, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("overlay: upload vertices: %w", err)
	}
	mark = st.Mark()
	for _, i := range rd.inds {
		st.U32(i)
	}
	if err := cs.WriteBuffer(rd.ibuf, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("overlay: upload indices: %w", err)
	}

	pass, err := cs.BeginPass(core.PassDesc{Label: "overlay", Target: target, Load: core.LoadOpLoad})
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	pass.SetPipeline(rd.pipe)
	pass.SetUniformBuffer(pipeline.GlobalsBinding.Slot, rd.ctx.Globals)
	pass.SetVertexBuffer(0, rd.vbuf)
	pass.SetIndexBuffer(rd.ibuf, core.IndexUint32)
	textures := map[core.Texture]struct{}{}
	for _, b := range rd.batches {
		pass.SetTexture(AtlasBinding.Slot, b.tex)
		pass.DrawIndexed(b.count, b.first, 0, 1)
		textures[b.tex] = struct{}{}
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}

	rd.stats = Statistics{DrawCalls: len(rd.batches), QuadCount: rd.quadCount, TextureCount: len(textures)}
	rd.ctx.Stats.DrawCalls++
	rd.ctx.Stats.GPUDraws += len(rd.batches)
	return nil
}
