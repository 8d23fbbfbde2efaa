// Package glbackend implements core.Device on OpenGL 3.3 core. WGSL shaders
// are translated to GLSL with naga when a pipeline is created. Commands run
// on the GL context as they are recorded; Submit flushes them.
package glbackend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/log"
)

var errShutdown = errors.New("gl: device shut down")

type resource interface{ Destroy() }

// Device needs the window's GL context to be current on the calling thread.
type Device struct {
	win  core.Window
	log  *slog.Logger
	info core.DeviceInfo
	vao  uint32

	width, height int
	live          map[resource]struct{}
	enabled       []uint32 // vertex attribute locations enabled by the bound pipeline
	shutdown      bool
}

// New loads the GL entry points for the current context of win.
func New(win core.Window, opts core.DeviceOptions) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	d := &Device{
		win:  win,
		log:  log.WithComponent("gl"),
		live: map[resource]struct{}{},
		info: core.DeviceInfo{
			Backend:  "opengl",
			Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
			Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
			Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		},
	}
	d.width, d.height = win.FramebufferSize()

	// one VAO for the device lifetime; passes rebind attributes
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	// the context is already chosen by the window; the preference is informational
	d.log.Info("device ready",
		"vendor", d.info.Vendor, "renderer", d.info.Renderer, "version", d.info.Version,
		"power", opts.Power == core.PowerHighPerformance)
	return d, nil
}

func (d *Device) track(r resource)   { d.live[r] = struct{}{} }
func (d *Device) untrack(r resource) { delete(d.live, r) }

func (d *Device) Info() core.DeviceInfo { return d.info }

func (d *Device) Configure(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("gl: configure %dx%d", w, h)
	}
	d.width, d.height = w, h
	return nil
}

func (d *Device) AcquireFrame() (core.Frame, error) {
	if d.shutdown {
		return nil, fmt.Errorf("%w: %w", core.ErrSurfaceLost, errShutdown)
	}
	return &frame{dev: d, target: &target{w: d.width, h: d.height}}, nil
}

func (d *Device) NewCommandStream(label string) core.CommandStream {
	return &stream{dev: d, label: label}
}

// Submit waits for nothing; it flushes the queued GL commands and reports
// the first GL error raised since the last submit.
func (d *Device) Submit(cs core.CommandStream) error {
	s, ok := cs.(*stream)
	if !ok {
		return fmt.Errorf("gl: foreign command stream %T", cs)
	}
	if s.pass != nil {
		return fmt.Errorf("gl: submit %q: pass %q not ended", s.label, s.pass.label)
	}
	gl.Flush()
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl: submit %q: error 0x%04x", s.label, code)
	}
	return nil
}

// Shutdown releases every live resource.
func (d *Device) Shutdown() {
	if d.shutdown {
		return
	}
	for r := range d.live {
		r.Destroy()
	}
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
	}
	d.shutdown = true
	d.log.Info("device shut down")
}

type target struct{ w, h int }

func (t *target) Size() (int, int) { return t.w, t.h }

type frame struct {
	dev       *Device
	target    *target
	presented bool
}

func (f *frame) Target() core.Target { return f.target }

func (f *frame) Present() error {
	if f.presented {
		return errors.New("gl: frame presented twice")
	}
	f.presented = true
	f.dev.win.SwapBuffers()
	return nil
}
