package glbackend

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/physdraw/engine/core"
)

type buffer struct {
	dev  *Device
	id   uint32
	desc core.BufferDesc
	size int
}

func (b *buffer) Label() string           { return b.desc.Label }
func (b *buffer) Size() int               { return b.size }
func (b *buffer) Usage() core.BufferUsage { return b.desc.Usage }

func (b *buffer) Destroy() {
	if b.id == 0 {
		return
	}
	gl.DeleteBuffers(1, &b.id)
	b.id = 0
	b.dev.untrack(b)
}

func (d *Device) CreateBuffer(desc core.BufferDesc) (core.Buffer, error) {
	size := max(desc.Size, len(desc.Contents))
	if size <= 0 {
		return nil, fmt.Errorf("gl: buffer %q: size %d", desc.Label, size)
	}
	b := &buffer{dev: d, desc: desc, size: size}
	gl.GenBuffers(1, &b.id)
	// COPY_WRITE_BUFFER leaves the VAO's element binding alone
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	if len(desc.Contents) > 0 {
		gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(desc.Contents), gl.Ptr(&desc.Contents[0]))
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	d.track(b)
	return b, nil
}

type texture struct {
	dev  *Device
	id   uint32
	desc core.TextureDesc
}

func (t *texture) Width() int  { return t.desc.Width }
func (t *texture) Height() int { return t.desc.Height }

func (t *texture) Destroy() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	t.dev.untrack(t)
}

func filterMode(s string) int32 {
	if s == "nearest" {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func wrapMode(s string) int32 {
	if s == "repeat" {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *Device) CreateTexture(desc core.TextureDesc) (core.Texture, error) {
	want := desc.Width * desc.Height * desc.Format.BytesPerPixel()
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("gl: texture %q: size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if desc.Pixels != nil && len(desc.Pixels) != want {
		return nil, fmt.Errorf("gl: texture %q: %d bytes, want %d", desc.Label, len(desc.Pixels), want)
	}

	// RGBA textures hold sRGB colors and are decoded to linear when sampled
	internal, format := int32(gl.SRGB8_ALPHA8), uint32(gl.RGBA)
	if desc.Format == core.TextureR8 {
		internal, format = gl.R8, gl.RED
	}
	t := &texture{dev: d, desc: desc}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(desc.WrapU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(desc.WrapV))
	var pixels unsafe.Pointer
	if len(desc.Pixels) > 0 {
		pixels = gl.Ptr(&desc.Pixels[0])
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, gl.UNSIGNED_BYTE, pixels)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	d.track(t)
	return t, nil
}

type program struct {
	dev  *Device
	id   uint32
	desc core.PipelineDesc
}

func (p *program) Label() string { return p.desc.Label }

func (p *program) Destroy() {
	if p.id == 0 {
		return
	}
	gl.DeleteProgram(p.id)
	p.id = 0
	p.dev.untrack(p)
}

// CreatePipeline translates the WGSL of desc, links it and binds its uniform
// blocks and samplers to the slots desc names.
func (d *Device) CreatePipeline(desc core.PipelineDesc) (core.Pipeline, error) {
	vs, fs, err := translate(desc.Shader, desc.VertexEntry, desc.FragmentEntry)
	if err != nil {
		return nil, fmt.Errorf("gl: pipeline %q: %w", desc.Label, err)
	}
	id, err := makeProgram(vs.code, fs.code)
	if err != nil {
		d.log.Debug("generated glsl", "pipeline", desc.Label, "vertex", vs.code, "fragment", fs.code)
		return nil, fmt.Errorf("gl: pipeline %q: %w", desc.Label, err)
	}
	p := &program{dev: d, id: id, desc: desc}

	// naga names a block <Type>_block_<n><Stage>, one per stage using it
	for i, name := range uniformBlocks(id) {
		bound := false
		for _, u := range desc.Uniforms {
			if strings.HasPrefix(name, u.Name+"_block_") {
				gl.UniformBlockBinding(id, uint32(i), uint32(u.Slot))
				bound = true
				break
			}
		}
		if !bound {
			gl.DeleteProgram(id)
			return nil, fmt.Errorf("gl: pipeline %q: %s: %w", desc.Label, name, errUnboundBlock)
		}
	}

	gl.UseProgram(id)
	for name, m := range fs.textures {
		for _, t := range desc.Textures {
			if t.Group == m.TextureBinding.Group && t.Index == m.TextureBinding.Binding {
				if loc := uniformLocation(id, name); loc >= 0 {
					gl.Uniform1i(loc, int32(t.Slot))
				}
			}
		}
	}
	if loc := uniformLocation(id, "naga_vs_first_instance"); loc >= 0 {
		gl.Uniform1ui(loc, 0)
	}
	gl.UseProgram(0)

	d.track(p)
	d.log.Debug("pipeline created", "label", desc.Label)
	return p, nil
}
