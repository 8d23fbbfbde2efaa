package pipeline

import (
	"fmt"

	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/staging"
)

type instance interface {
	encode(a *staging.Arena)
}

// instanced is the shared half of the grid, circle and quad pipelines: a
// list of instances drawn over a static quad with one instanced draw.
type instanced[T instance] struct {
	ctx      *Context
	label    string
	stride   int
	opts     Options
	pipe     core.Pipeline
	buf      core.Buffer
	indices  core.Buffer
	capacity int
	items    []T
}

func newInstanced[T instance](ctx *Context, label, shader string, layout core.VertexLayout, opts Options) (*instanced[T], error) {
	src, err := Shader(shader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	pipe, err := ctx.Device.CreatePipeline(core.PipelineDesc{
		Label:         label,
		Shader:        src,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexLayouts: []core.VertexLayout{layout},
		Uniforms:      []core.UniformBinding{GlobalsBinding},
		Blend:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create pipeline: %w", label, err)
	}
	buf, err := ctx.Device.CreateBuffer(core.BufferDesc{
		Label: label + " instances",
		Usage: core.BufferVertex,
		Size:  opts.Capacity * layout.Stride,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create instance buffer: %w", label, err)
	}
	idx, err := ctx.Device.CreateBuffer(core.BufferDesc{
		Label:    label + " indices",
		Usage:    core.BufferIndex,
		Contents: quadIndexBytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create index buffer: %w", label, err)
	}
	return &instanced[T]{
		ctx:      ctx,
		label:    label,
		stride:   layout.Stride,
		opts:     opts,
		pipe:     pipe,
		buf:      buf,
		indices:  idx,
		capacity: opts.Capacity,
		items:    make([]T, 0, opts.Capacity),
	}, nil
}

func (b *instanced[T]) add(v T) error {
	if b.opts.Overflow == OverflowReject && len(b.items) >= b.capacity {
		b.ctx.Stats.Dropped++
		return fmt.Errorf("%s: %w (%d instances)", b.label, ErrCapacity, b.capacity)
	}
	b.items = append(b.items, v)
	return nil
}

func (b *instanced[T]) Len() int { return len(b.items) }
func (b *instanced[T]) Cap() int { return b.capacity }
func (b *instanced[T]) Clear()   { b.items = b.items[:0] }

func (b *instanced[T]) grow() error {
	if len(b.items) <= b.capacity {
		return nil
	}
	n := nextPow2(len(b.items))
	buf, err := b.ctx.Device.CreateBuffer(core.BufferDesc{
		Label: b.label + " instances",
		Usage: core.BufferVertex,
		Size:  n * b.stride,
	})
	if err != nil {
		return fmt.Errorf("%s: grow instance buffer: %w", b.label, err)
	}
	b.ctx.Logger().Debug("instance buffer grown", "pipeline", b.label, "from", b.capacity, "to", n)
	b.buf.Destroy()
	b.buf, b.capacity = buf, n
	return nil
}

func (b *instanced[T]) Execute(cs core.CommandStream, target core.Target) error {
	if len(b.items) == 0 {
		return nil
	}
	if err := b.grow(); err != nil {
		return err
	}

	st := b.ctx.Staging
	mark := st.Mark()
	for i := range b.items {
		b.items[i].encode(st)
	}
	if err := cs.WriteBuffer(b.buf, 0, st.BytesFrom(mark)); err != nil {
		return fmt.Errorf("%s: upload: %w", b.label, err)
	}

	pass, err := cs.BeginPass(core.PassDesc{Label: b.label, Target: target, Load: core.LoadOpLoad})
	if err != nil {
		return fmt.Errorf("%s: %w", b.label, err)
	}
	pass.SetPipeline(b.pipe)
	pass.SetUniformBuffer(GlobalsBinding.Slot, b.ctx.Globals)
	pass.SetVertexBuffer(0, b.buf)
	pass.SetIndexBuffer(b.indices, core.IndexUint16)
	pass.DrawIndexed(len(quadIndices), 0, 0, len(b.items))
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s: %w", b.label, err)
	}

	b.ctx.Stats.DrawCalls++
	b.ctx.Stats.GPUDraws++
	return nil
}
