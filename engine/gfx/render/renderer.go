package render

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/gfx/renderer2d"
	"github.com/hubastard/physdraw/engine/log"
	"github.com/hubastard/physdraw/engine/profiler"
	"github.com/hubastard/physdraw/engine/staging"
	"github.com/hubastard/physdraw/engine/text"
	"github.com/hubastard/physdraw/engine/ui"
)

var (
	// ErrFrameOpen is returned by Begin while a frame is still open.
	ErrFrameOpen = errors.New("render: frame already open")
	// ErrNoFrame is returned by frame operations outside Begin/End.
	ErrNoFrame = errors.New("render: no open frame")
)

const defaultStagingSize = 64 << 10

type Options struct {
	Width, Height int
	Brush         BrushOptions
	// StagingSize is the initial capacity of the per-frame upload arena.
	StagingSize int
	Log         *slog.Logger
}

// Renderer owns the frame: it acquires the surface image, clears it, draws
// the grid, executes the brush and the overlay, then submits and presents.
type Renderer struct {
	dev     core.Device
	log     *slog.Logger
	ctx     *pipeline.Context
	brush   *Brush
	overlay *renderer2d.Renderer2D
	font    *text.Font

	globals      pipeline.Globals
	globalsDirty bool

	frame  core.Frame
	target core.Target
	cs     core.CommandStream
	failed error // first brush execution failure of the open frame

	width, height int
	frameNo       uint64
	lastDelta     float32
	updateAvg     *profiler.EMA
	last          Stats
}

func New(dev core.Device, opts Options) (*Renderer, error) {
	lg := opts.Log
	if lg == nil {
		lg = log.WithComponent("render")
	}
	if opts.StagingSize <= 0 {
		opts.StagingSize = defaultStagingSize
	}
	r := &Renderer{
		dev:       dev,
		log:       lg,
		width:     opts.Width,
		height:    opts.Height,
		updateAvg: profiler.NewEMA(0.1),
	}
	r.globals.Resolution = [2]float32{float32(opts.Width), float32(opts.Height)}

	st := staging.New(opts.StagingSize)
	r.globals.Encode(st)
	globals, err := dev.CreateBuffer(core.BufferDesc{
		Label:    "globals",
		Usage:    core.BufferUniform,
		Contents: append([]byte(nil), st.Bytes()...),
	})
	if err != nil {
		return nil, fmt.Errorf("create globals: %w", err)
	}
	st.Reset()

	r.ctx = &pipeline.Context{
		Device:  dev,
		Globals: globals,
		Staging: st,
		Stats:   &pipeline.Counters{},
		Log:     lg,
	}
	r.brush, err = newBrush(r.ctx, opts.Brush)
	if err != nil {
		return nil, fmt.Errorf("create brush: %w", err)
	}
	lg.Info("renderer ready", "width", opts.Width, "height", opts.Height, "backend", dev.Info().Backend)
	return r, nil
}

// EnableOverlay sets up the batcher the scene's UI layer draws through.
func (r *Renderer) EnableOverlay(font *text.Font, maxQuads int) error {
	ov, err := renderer2d.New(r.ctx, maxQuads)
	if err != nil {
		return fmt.Errorf("create overlay: %w", err)
	}
	r.overlay, r.font = ov, font
	return nil
}

func (r *Renderer) Brush() *Brush { return r.brush }

func (r *Renderer) Device() core.Device { return r.dev }

func (r *Renderer) WindowSize() (int, int) { return r.width, r.height }

// FrameOpen reports whether Begin was called without a matching End.
func (r *Renderer) FrameOpen() bool { return r.cs != nil }

// Stats returns the statistics of the last completed frame.
func (r *Renderer) Stats() Stats { return r.last }

// Resize reconfigures the surface. The new resolution reaches the shaders
// with the next Begin.
func (r *Renderer) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		// minimized; keep the old surface
		r.log.Debug("resize ignored", "width", w, "height", h)
		return nil
	}
	if err := r.dev.Configure(w, h); err != nil {
		return fmt.Errorf("resize %dx%d: %w", w, h, err)
	}
	r.width, r.height = w, h
	r.globals.Resolution = [2]float32{float32(w), float32(h)}
	r.globalsDirty = true
	r.log.Debug("resized", "width", w, "height", h)
	return nil
}

// Begin opens a frame: the surface is cleared to the scene background and
// the grid drawn before anything else.
func (r *Renderer) Begin(scene *Scene) error {
	if r.cs != nil {
		return ErrFrameOpen
	}
	defer profiler.Start("render.begin")()

	frame, err := r.dev.AcquireFrame()
	if err != nil {
		return fmt.Errorf("acquire frame: %w", err)
	}
	r.frame, r.target = frame, frame.Target()
	r.cs = r.dev.NewCommandStream(fmt.Sprintf("frame %d", r.frameNo))

	if r.globalsDirty {
		mark := r.ctx.Staging.Mark()
		r.globals.Encode(r.ctx.Staging)
		if err := r.cs.WriteBuffer(r.ctx.Globals, 0, r.ctx.Staging.BytesFrom(mark)); err != nil {
			r.abort()
			return fmt.Errorf("upload globals: %w", err)
		}
		r.globalsDirty = false
	}

	pass, err := r.cs.BeginPass(core.PassDesc{
		Label:      "clear",
		Target:     r.target,
		Load:       core.LoadOpClear,
		ClearColor: scene.Background.ClearValue(),
	})
	if err == nil {
		err = pass.End()
	}
	if err != nil {
		r.abort()
		return fmt.Errorf("clear: %w", err)
	}

	if err := r.brush.executeGrid(r.cs, r.target); err != nil {
		r.abort()
		return fmt.Errorf("grid: %w", err)
	}
	return nil
}

// ExecuteBrush draws everything b holds into the open frame and clears it.
func (r *Renderer) ExecuteBrush(b *Brush) error {
	if r.cs == nil {
		return ErrNoFrame
	}
	defer profiler.Start("render.brush")()
	if err := b.execute(r.cs, r.target); err != nil {
		err = fmt.Errorf("execute brush: %w", err)
		if r.failed == nil {
			r.failed = err
		}
		return b.check("flush", err)
	}
	return nil
}

// End draws what is left in the brush, then the UI layer, submits and
// presents. The renderer is idle afterwards even when End fails.
func (r *Renderer) End(scene *Scene) error {
	if r.cs == nil {
		return ErrNoFrame
	}
	defer profiler.Start("render.end")()
	defer r.abort()

	// a frame whose upload failed is never presented
	if r.failed != nil {
		return r.failed
	}
	if err := r.ExecuteBrush(r.brush); err != nil {
		return err
	}
	if scene.UI != nil && r.overlay != nil {
		ctx := &ui.Context{
			Viewport:    [4]float32{0, 0, float32(r.width), float32(r.height)},
			DefaultFont: r.font,
			Renderer:    r.overlay,
		}
		scene.UI.DrawUI(ctx, r.current())
		err := r.overlay.Execute(r.cs, r.target)
		r.overlay.Clear()
		if err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}

	if err := r.dev.Submit(r.cs); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.frame.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	r.last = r.current()
	r.frameNo++
	return nil
}

// abort drops the open frame and everything queued for it.
func (r *Renderer) abort() {
	r.cs, r.frame, r.target = nil, nil, nil
	r.failed = nil
	r.brush.Clear()
	r.brush.endFrame()
	if r.overlay != nil {
		r.overlay.Clear()
	}
	r.ctx.Stats.Reset()
	r.ctx.Staging.Reset()
}

func (r *Renderer) current() Stats {
	return Stats{
		Frame:         r.frameNo,
		LastDelta:     r.lastDelta,
		WindowSize:    [2]int{r.width, r.height},
		DrawCalls:     r.ctx.Stats.DrawCalls,
		GPUDraws:      r.ctx.Stats.GPUDraws,
		Dropped:       r.ctx.Stats.Dropped,
		AvgUpdateTime: r.updateAvg.Value(),
	}
}

// RenderFrame draws scene once and then advances it by dt, split over the
// scene's sub-steps. A tessellation failure recorded by the brush while the
// objects drew is returned after the frame was presented; a failed Flush
// drops the frame unpresented.
func (r *Renderer) RenderFrame(scene *Scene, dt float32) error {
	defer profiler.Start("render.frame")()
	r.lastDelta = dt
	frame := r.frameNo

	if err := r.Begin(scene); err != nil {
		return err
	}
	end := profiler.Start("render.objects")
	for _, obj := range scene.Objects {
		obj.Render(r.brush, r, dt, frame)
	}
	end()
	drawErr := r.brush.Err()
	if err := r.End(scene); err != nil {
		return err
	}
	if drawErr != nil {
		return fmt.Errorf("frame %d: %w", frame, drawErr)
	}

	end = profiler.Start("render.update")
	start := time.Now()
	n := scene.substeps()
	step := dt / float32(n)
	dc := scene.collector()
	for i := 0; i < n; i++ {
		for _, obj := range scene.Objects {
			obj.Update(step, frame, dc)
		}
	}
	r.last.AvgUpdateTime = r.updateAvg.Observe(time.Since(start))
	end()
	return nil
}
