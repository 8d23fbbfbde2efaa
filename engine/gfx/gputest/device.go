// Package gputest provides a core.Device that records every call instead of
// touching a GPU. Every recorded event carries a global sequence number so
// tests can assert ordering across uploads, passes, submits and presents.
package gputest

import (
	"errors"
	"fmt"

	"github.com/hubastard/physdraw/engine/core"
)

var ErrNotEnded = errors.New("gputest: submit with an open render pass")

type Buffer struct {
	Desc      core.BufferDesc
	Data      []byte
	Destroyed bool
}

func (b *Buffer) Label() string           { return b.Desc.Label }
func (b *Buffer) Size() int               { return len(b.Data) }
func (b *Buffer) Usage() core.BufferUsage { return b.Desc.Usage }
func (b *Buffer) Destroy()                { b.Destroyed = true }

type Pipeline struct {
	Desc      core.PipelineDesc
	Destroyed bool
}

func (p *Pipeline) Label() string { return p.Desc.Label }
func (p *Pipeline) Destroy()      { p.Destroyed = true }

type Texture struct {
	Desc      core.TextureDesc
	Destroyed bool
}

func (t *Texture) Width() int  { return t.Desc.Width }
func (t *Texture) Height() int { return t.Desc.Height }
func (t *Texture) Destroy()    { t.Destroyed = true }

type Target struct{ W, H int }

func (t *Target) Size() (int, int) { return t.W, t.H }

type Write struct {
	Seq    int
	Buffer *Buffer
	Offset int
	Data   []byte
}

type Draw struct {
	Seq        int
	Pipeline   string
	Texture    *Texture // bound to slot 0 at draw time
	Indexed    bool
	Count      int
	First      int
	BaseVertex int
	Instances  int
}

type Pass struct {
	Seq      int
	Desc     core.PassDesc
	Pipeline *Pipeline
	Uniforms map[int]*Buffer
	Textures map[int]*Texture
	Vertex   map[int]*Buffer
	Index    *Buffer
	Draws    []Draw
	EndSeq   int

	dev    *Device
	stream *Stream
	err    error
}

type Submit struct {
	Seq    int
	Stream *Stream
}

type Device struct {
	Buffers   []*Buffer
	Pipelines []*Pipeline
	Textures  []*Texture
	Writes    []Write
	Passes    []*Pass
	Submits   []Submit
	Presents  []int
	Acquires  int
	Configs   [][2]int

	// FailAcquire, when set, is returned by the next AcquireFrame.
	FailAcquire error
	// FailPipeline, when set, is returned by CreatePipeline.
	FailPipeline error
	// FailWrite maps a buffer label to the error its uploads return.
	FailWrite map[string]error

	target Target
	seq    int
	shut   bool
}

func NewDevice(w, h int) *Device {
	return &Device{target: Target{W: w, H: h}}
}

func (d *Device) next() int {
	d.seq++
	return d.seq
}

// Seq is the sequence number of the last recorded event.
func (d *Device) Seq() int { return d.seq }

func (d *Device) IsShutdown() bool { return d.shut }

func (d *Device) CreateBuffer(desc core.BufferDesc) (core.Buffer, error) {
	size := desc.Size
	if len(desc.Contents) > size {
		size = len(desc.Contents)
	}
	if size <= 0 {
		return nil, fmt.Errorf("gputest: buffer %q has no size", desc.Label)
	}
	b := &Buffer{Desc: desc, Data: make([]byte, size)}
	copy(b.Data, desc.Contents)
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreatePipeline(desc core.PipelineDesc) (core.Pipeline, error) {
	if d.FailPipeline != nil {
		return nil, d.FailPipeline
	}
	p := &Pipeline{Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateTexture(desc core.TextureDesc) (core.Texture, error) {
	want := desc.Width * desc.Height * desc.Format.BytesPerPixel()
	if desc.Pixels != nil && len(desc.Pixels) != want {
		return nil, fmt.Errorf("gputest: texture %q: %d bytes, want %d", desc.Label, len(desc.Pixels), want)
	}
	t := &Texture{Desc: desc}
	d.Textures = append(d.Textures, t)
	return t, nil
}

type frame struct {
	dev    *Device
	target *Target
	done   bool
}

func (f *frame) Target() core.Target { return f.target }

func (f *frame) Present() error {
	if f.done {
		return errors.New("gputest: frame presented twice")
	}
	f.done = true
	f.dev.Presents = append(f.dev.Presents, f.dev.next())
	return nil
}

func (d *Device) AcquireFrame() (core.Frame, error) {
	if err := d.FailAcquire; err != nil {
		d.FailAcquire = nil
		return nil, err
	}
	d.Acquires++
	t := d.target
	return &frame{dev: d, target: &t}, nil
}

func (d *Device) NewCommandStream(label string) core.CommandStream {
	return &Stream{dev: d, label: label}
}

func (d *Device) Submit(cs core.CommandStream) error {
	s, ok := cs.(*Stream)
	if !ok {
		return fmt.Errorf("gputest: foreign command stream %T", cs)
	}
	if s.open != nil {
		return ErrNotEnded
	}
	d.Submits = append(d.Submits, Submit{Seq: d.next(), Stream: s})
	return nil
}

func (d *Device) Configure(w, h int) error {
	d.target = Target{W: w, H: h}
	d.Configs = append(d.Configs, [2]int{w, h})
	return nil
}

func (d *Device) Info() core.DeviceInfo {
	return core.DeviceInfo{Backend: "gputest", Vendor: "none", Renderer: "recorder", Version: "1"}
}

func (d *Device) Shutdown() { d.shut = true }

// Draws returns every draw in recording order.
func (d *Device) Draws() []Draw {
	var out []Draw
	for _, p := range d.Passes {
		out = append(out, p.Draws...)
	}
	return out
}

// WritesTo returns the uploads into b in recording order.
func (d *Device) WritesTo(b core.Buffer) []Write {
	var out []Write
	for _, w := range d.Writes {
		if w.Buffer == b {
			out = append(out, w)
		}
	}
	return out
}

// Reset forgets recorded events but keeps created resources.
func (d *Device) Reset() {
	d.Writes, d.Passes, d.Submits, d.Presents = nil, nil, nil, nil
	d.Acquires = 0
}

type Stream struct {
	dev    *Device
	label  string
	Passes []*Pass
	open   *Pass
}

func (s *Stream) Label() string { return s.label }

func (s *Stream) WriteBuffer(b core.Buffer, offset int, data []byte) error {
	buf, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: foreign buffer %T", b)
	}
	if buf.Destroyed {
		return fmt.Errorf("gputest: write to destroyed buffer %q", buf.Label())
	}
	if err := s.dev.FailWrite[buf.Label()]; err != nil {
		return fmt.Errorf("%q: %w", buf.Label(), err)
	}
	if offset < 0 || offset+len(data) > len(buf.Data) {
		return fmt.Errorf("%q: %d bytes at %d into %d: %w", buf.Label(), len(data), offset, len(buf.Data), core.ErrBufferOverflow)
	}
	copy(buf.Data[offset:], data)
	s.dev.Writes = append(s.dev.Writes, Write{
		Seq:    s.dev.next(),
		Buffer: buf,
		Offset: offset,
		Data:   append([]byte(nil), data...),
	})
	return nil
}

func (s *Stream) BeginPass(desc core.PassDesc) (core.RenderPass, error) {
	if s.open != nil {
		return nil, core.ErrPassOpen
	}
	if desc.Target == nil {
		return nil, errors.New("gputest: pass without target")
	}
	p := &Pass{
		Seq:      s.dev.next(),
		Desc:     desc,
		Uniforms: map[int]*Buffer{},
		Textures: map[int]*Texture{},
		Vertex:   map[int]*Buffer{},
		dev:      s.dev,
		stream:   s,
	}
	s.open = p
	s.Passes = append(s.Passes, p)
	s.dev.Passes = append(s.dev.Passes, p)
	return p, nil
}

func (p *Pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Pass) SetPipeline(pl core.Pipeline) {
	v, ok := pl.(*Pipeline)
	if !ok {
		p.fail(fmt.Errorf("gputest: foreign pipeline %T", pl))
		return
	}
	p.Pipeline = v
}

func (p *Pass) SetUniformBuffer(slot int, b core.Buffer) {
	v, ok := b.(*Buffer)
	if !ok || v.Desc.Usage != core.BufferUniform {
		p.fail(fmt.Errorf("gputest: slot %d: not a uniform buffer", slot))
		return
	}
	p.Uniforms[slot] = v
}

func (p *Pass) SetTexture(slot int, t core.Texture) {
	v, ok := t.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("gputest: foreign texture %T", t))
		return
	}
	p.Textures[slot] = v
}

func (p *Pass) SetVertexBuffer(slot int, b core.Buffer) {
	v, ok := b.(*Buffer)
	if !ok || v.Desc.Usage != core.BufferVertex {
		p.fail(fmt.Errorf("gputest: slot %d: not a vertex buffer", slot))
		return
	}
	p.Vertex[slot] = v
}

func (p *Pass) SetIndexBuffer(b core.Buffer, _ core.IndexFormat) {
	v, ok := b.(*Buffer)
	if !ok || v.Desc.Usage != core.BufferIndex {
		p.fail(errors.New("gputest: not an index buffer"))
		return
	}
	p.Index = v
}

func (p *Pass) record(d Draw) {
	if p.Pipeline == nil {
		p.fail(errors.New("gputest: draw without pipeline"))
		return
	}
	d.Seq = p.dev.next()
	d.Pipeline = p.Pipeline.Label()
	d.Texture = p.Textures[0]
	p.Draws = append(p.Draws, d)
}

func (p *Pass) Draw(vertexCount, instanceCount int) {
	p.record(Draw{Count: vertexCount, Instances: instanceCount})
}

func (p *Pass) DrawIndexed(indexCount, firstIndex, baseVertex, instanceCount int) {
	if p.Index == nil {
		p.fail(errors.New("gputest: indexed draw without index buffer"))
		return
	}
	p.record(Draw{Indexed: true, Count: indexCount, First: firstIndex, BaseVertex: baseVertex, Instances: instanceCount})
}

func (p *Pass) End() error {
	if p.stream.open != p {
		return errors.New("gputest: pass ended twice")
	}
	p.stream.open = nil
	p.EndSeq = p.dev.next()
	return p.err
}
