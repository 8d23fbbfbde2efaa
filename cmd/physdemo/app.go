package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/components"
	"github.com/hubastard/physdraw/engine/config"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/datalog"
	"github.com/hubastard/physdraw/engine/gfx/pipeline"
	"github.com/hubastard/physdraw/engine/gfx/render"
	"github.com/hubastard/physdraw/engine/log"
	"github.com/hubastard/physdraw/engine/profiler"
	"github.com/hubastard/physdraw/engine/text"
)

// flushEvery is how many frames the datalog buffers between commits.
const flushEvery = 120

type App struct {
	cfg config.Config
	log *slog.Logger

	r         *render.Renderer
	scene     *render.Scene
	font      *text.Font
	collector datalog.Collector
	grids     []pipeline.Grid
	gridOn    bool
}

func newApp(cfg config.Config) *App {
	return &App{cfg: cfg, log: log.WithComponent("demo"), gridOn: true}
}

func (a *App) brushOptions() render.BrushOptions {
	overflow := pipeline.ParseOverflow(strings.ToLower(a.cfg.Pipelines.Overflow))
	g := a.cfg.Grid
	a.grids = []pipeline.Grid{pipeline.FullscreenGrid(colors.FromHex(g.Color), g.Spacing, g.Thickness, g.Subdivisions)}
	return render.BrushOptions{
		Grids:   a.grids,
		Circles: pipeline.Options{Capacity: a.cfg.Pipelines.Circles, Overflow: overflow},
		Quads:   pipeline.Options{Capacity: a.cfg.Pipelines.Quads, Overflow: overflow},
		Poly:    pipeline.Options{Capacity: a.cfg.Pipelines.PolyVertices, Overflow: overflow},
	}
}

func (a *App) OnStart(e *core.Engine) error {
	w, h := e.Window.FramebufferSize()
	r, err := render.New(e.Device, render.Options{Width: w, Height: h, Brush: a.brushOptions()})
	if err != nil {
		return err
	}
	a.r = r

	if a.cfg.Datalog.Path != "" {
		a.collector, err = datalog.OpenSQLite(context.Background(), a.cfg.Datalog.Path, 0)
		if err != nil {
			return err
		}
	} else {
		a.collector = datalog.NewMemory()
	}

	a.scene = newDemoScene(w, h)
	a.scene.Substeps = a.cfg.Simulation.Substeps
	a.scene.Collector = a.collector

	if a.cfg.Overlay.Enabled {
		a.font, err = text.Default(e.Device, float32(a.cfg.Overlay.FontSize))
		if err != nil {
			return fmt.Errorf("overlay font: %w", err)
		}
		if err := r.EnableOverlay(a.font, 0); err != nil {
			return err
		}
		a.scene.UI = components.NewDebugPanel(e.Input)
	}
	a.log.Info("demo started", "objects", len(a.scene.Objects), "substeps", a.scene.Substeps)
	return nil
}

func (a *App) OnFrame(e *core.Engine, dt float32) error {
	if err := a.r.RenderFrame(a.scene, dt); err != nil {
		return err
	}
	if e.Frame()%flushEvery == 0 {
		if err := a.collector.Flush(context.Background()); err != nil {
			a.log.Warn("datalog flush failed", "err", err)
		}
	}
	if e.Frame()%60 == 0 {
		a.log.Debug("frame", "stats", a.r.Stats().String())
	}
	return nil
}

func (a *App) OnEvent(e *core.Engine, ev core.Event) {
	switch v := ev.(type) {
	case core.EventResize:
		if err := a.r.Resize(v.W, v.H); err != nil {
			a.log.Error("resize failed", "width", v.W, "height", v.H, "err", err)
		}
	case core.EventKey:
		if !v.Down {
			return
		}
		switch {
		case v.Key == core.KeyP && v.Mods&core.ModCtrl != 0:
			if path, err := profiler.OpenProfilerGraph(); err == nil {
				a.log.Info("speedscope dump", "path", path)
			} else {
				a.log.Error("profiler dump failed", "err", err)
			}
		case v.Key == core.KeyG:
			a.gridOn = !a.gridOn
			grids := a.grids
			if !a.gridOn {
				grids = []pipeline.Grid{}
			}
			if err := a.r.Brush().SetGrids(grids); err != nil {
				a.log.Error("set grids failed", "err", err)
			}
		case v.Key == core.KeyR:
			w, h := a.r.WindowSize()
			objs := newDemoScene(w, h).Objects
			a.scene.Objects = objs
		}
	}
}

func (a *App) OnShutdown(e *core.Engine) {
	if a.collector != nil {
		if err := a.collector.Close(); err != nil {
			a.log.Error("close datalog", "err", err)
		}
	}
	if a.font != nil {
		a.font.Close()
	}
	if path, err := profiler.Dump(""); err == nil && path != "" {
		a.log.Info("profile written", "path", path)
	}
}
