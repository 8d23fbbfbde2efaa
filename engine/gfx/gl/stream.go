package glbackend

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/physdraw/engine/core"
)

type stream struct {
	dev   *Device
	label string
	pass  *pass
}

func (s *stream) Label() string { return s.label }

func (s *stream) WriteBuffer(b core.Buffer, offset int, data []byte) error {
	buf, ok := b.(*buffer)
	if !ok || buf.id == 0 {
		return fmt.Errorf("gl: write to invalid buffer %v", b)
	}
	if offset < 0 || offset+len(data) > buf.size {
		return fmt.Errorf("gl: write %d bytes at %d into %q (%d bytes): %w",
			len(data), offset, buf.desc.Label, buf.size, core.ErrBufferOverflow)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, buf.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(&data[0]))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return nil
}

func (s *stream) BeginPass(desc core.PassDesc) (core.RenderPass, error) {
	if s.pass != nil {
		return nil, fmt.Errorf("%s: %w", desc.Label, core.ErrPassOpen)
	}
	w, h := desc.Target.Size()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(w), int32(h))
	if desc.Load == core.LoadOpClear {
		c := desc.ClearColor
		gl.ClearColor(float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3]))
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	s.pass = &pass{s: s, label: desc.Label}
	return s.pass, nil
}

// pass applies state straight to the context. Setter failures are kept and
// returned by End; draws after a failure are skipped.
type pass struct {
	s     *stream
	label string
	pipe  *program
	err   error
	ended bool

	indexType uint32
	indexSize int
	indexed   bool
}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = fmt.Errorf("gl: pass %q: %w", p.label, err)
	}
}

func (p *pass) SetPipeline(pl core.Pipeline) {
	pr, ok := pl.(*program)
	if !ok || pr.id == 0 {
		p.fail(fmt.Errorf("invalid pipeline %v", pl))
		return
	}
	p.pipe = pr
	d := p.s.dev
	for _, loc := range d.enabled {
		gl.DisableVertexAttribArray(loc)
	}
	d.enabled = d.enabled[:0]
	gl.UseProgram(pr.id)
	if pr.desc.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
	if pr.desc.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (p *pass) bufferID(b core.Buffer, usage core.BufferUsage) (uint32, bool) {
	buf, ok := b.(*buffer)
	if !ok || buf.id == 0 {
		p.fail(fmt.Errorf("invalid buffer %v", b))
		return 0, false
	}
	if buf.desc.Usage != usage {
		p.fail(fmt.Errorf("buffer %q is %s, want %s", buf.desc.Label, buf.desc.Usage, usage))
		return 0, false
	}
	return buf.id, true
}

func (p *pass) SetUniformBuffer(slot int, b core.Buffer) {
	if id, ok := p.bufferID(b, core.BufferUniform); ok {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(slot), id)
	}
}

func (p *pass) SetTexture(slot int, t core.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex.id == 0 {
		p.fail(fmt.Errorf("invalid texture %v", t))
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
}

func (p *pass) SetVertexBuffer(slot int, b core.Buffer) {
	if p.pipe == nil {
		p.fail(errors.New("vertex buffer set before pipeline"))
		return
	}
	layouts := p.pipe.desc.VertexLayouts
	if slot < 0 || slot >= len(layouts) {
		p.fail(fmt.Errorf("pipeline %q has no vertex slot %d", p.pipe.desc.Label, slot))
		return
	}
	id, ok := p.bufferID(b, core.BufferVertex)
	if !ok {
		return
	}
	layout := layouts[slot]
	divisor := uint32(0)
	if layout.Step == core.StepInstance {
		divisor = 1
	}
	d := p.s.dev
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	for _, a := range layout.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		d.enabled = append(d.enabled, a.Location)
		if a.Type == core.AttribUint32 {
			gl.VertexAttribIPointer(a.Location, int32(a.Size), gl.UNSIGNED_INT, int32(layout.Stride), gl.PtrOffset(a.Offset))
		} else {
			gl.VertexAttribPointer(a.Location, int32(a.Size), gl.FLOAT, false, int32(layout.Stride), gl.PtrOffset(a.Offset))
		}
		gl.VertexAttribDivisor(a.Location, divisor)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (p *pass) SetIndexBuffer(b core.Buffer, format core.IndexFormat) {
	id, ok := p.bufferID(b, core.BufferIndex)
	if !ok {
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, id)
	p.indexed = true
	if format == core.IndexUint32 {
		p.indexType, p.indexSize = gl.UNSIGNED_INT, 4
	} else {
		p.indexType, p.indexSize = gl.UNSIGNED_SHORT, 2
	}
}

func (p *pass) ready() bool {
	if p.err != nil {
		return false
	}
	if p.pipe == nil {
		p.fail(errors.New("draw without pipeline"))
		return false
	}
	return true
}

func (p *pass) Draw(vertexCount, instanceCount int) {
	if !p.ready() {
		return
	}
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(vertexCount), int32(instanceCount))
}

func (p *pass) DrawIndexed(indexCount, firstIndex, baseVertex, instanceCount int) {
	if !p.ready() {
		return
	}
	if !p.indexed {
		p.fail(errors.New("indexed draw without index buffer"))
		return
	}
	gl.DrawElementsInstancedBaseVertex(gl.TRIANGLES, int32(indexCount), p.indexType,
		gl.PtrOffset(firstIndex*p.indexSize), int32(instanceCount), int32(baseVertex))
}

func (p *pass) End() error {
	if p.ended {
		return fmt.Errorf("gl: pass %q ended twice", p.label)
	}
	p.ended = true
	p.s.pass = nil
	gl.UseProgram(0)
	return p.err
}
