package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/hubastard/physdraw/engine/log"
)

const defaultMaxDelta = 250 * time.Millisecond

// Run wires the platform window + device and executes the main loop until the
// window closes or a hook returns an error.
func Run(app App, cfg Config, newWindow func(Config) (Window, error), newDevice func(Window, Config) (Device, error)) (err error) {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	lg := log.WithComponent("core")

	win, err := newWindow(cfg)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.Destroy()

	dev, err := newDevice(win, cfg)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Shutdown()

	eng := &Engine{Window: win, Device: dev, Input: NewInput(), start: time.Now()}
	win.SetEventCallback(func(ev Event) {
		eng.Input.Handle(ev)
		handled := false
		eng.Layers.ForEachReverse(func(l Layer) bool {
			handled = l.OnEvent(eng, ev)
			return handled
		})
		if handled {
			return
		}
		if k, ok := ev.(EventKey); ok && k.Down && k.Key == KeyEscape {
			win.RequestClose()
		}
		app.OnEvent(eng, ev)
	})

	if err := app.OnStart(eng); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		app.OnShutdown(eng)
		for {
			l, ok := eng.Layers.Pop()
			if !ok {
				break
			}
			l.OnDetach(eng)
		}
		lg.Info("engine exit", "frames", eng.frame, "uptime", eng.Uptime())
	}()

	maxDelta := cfg.MaxDelta
	if maxDelta <= 0 {
		maxDelta = defaultMaxDelta
	}

	prev := time.Now()
	for !win.ShouldClose() {
		// Poll OS events (platform will emit via callbacks)
		win.PollEvents()
		if win.ShouldClose() {
			break
		}

		now := time.Now()
		delta := now.Sub(prev)
		prev = now
		if delta > maxDelta {
			lg.Debug("frame delta clamped", "delta", delta)
			delta = maxDelta
		}
		dt := float32(delta.Seconds())

		eng.Layers.ForEach(func(l Layer) { l.OnUpdate(eng, dt) })

		eng.frame++
		if err := app.OnFrame(eng, dt); err != nil {
			lg.Error("frame failed", "frame", eng.frame, "err", err)
			return fmt.Errorf("frame %d: %w", eng.frame, err)
		}
	}
	return nil
}
