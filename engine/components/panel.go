package components

import (
	"fmt"

	"github.com/hubastard/physdraw/engine/colors"
	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/gfx/render"
	"github.com/hubastard/physdraw/engine/profiler"
	"github.com/hubastard/physdraw/engine/ui"
)

// DebugPanel is a UI layer listing frame timing, draw counts and memory use
// in the top-left corner. The UI tree is built once; each frame only the row
// texts change.
type DebugPanel struct {
	// Input, when set, adds the mouse position.
	Input *core.Input
	// Memory adds heap usage and goroutine count.
	Memory bool

	root  *ui.UIView
	body  *ui.UIView
	title *ui.UITitle
	rows  []*ui.UILabel
}

func NewDebugPanel(in *core.Input) *DebugPanel {
	return &DebugPanel{Input: in, Memory: true}
}

// Lines returns the panel rows for stats. The draw call count includes the
// overlay pass the panel itself is drawn with.
func (p *DebugPanel) Lines(stats render.Stats) []string {
	lines := []string{
		fmt.Sprintf("FPS: %.1f", stats.FPS()),
		fmt.Sprintf("Delta time: %.4f", stats.LastDelta),
		fmt.Sprintf("Window size: %dx%d", stats.WindowSize[0], stats.WindowSize[1]),
		fmt.Sprintf("Draw calls: %d", stats.DrawCalls+1),
		fmt.Sprintf("Update time: %s", stats.AvgUpdateTime),
	}
	if stats.Dropped > 0 {
		lines = append(lines, fmt.Sprintf("Dropped: %d", stats.Dropped))
	}
	if p.Input != nil {
		x, y := p.Input.Mouse()
		lines = append(lines, fmt.Sprintf("Mouse: %.0fx%.0f", x, y))
	}
	if p.Memory {
		lines = append(lines,
			fmt.Sprintf("Memory: %.3f MB", float32(profiler.MemoryUsage())/(1<<20)),
			fmt.Sprintf("Goroutines: %d", profiler.NumGoroutine()),
		)
	}
	return lines
}

func (p *DebugPanel) DrawUI(ctx *ui.Context, stats render.Stats) {
	p.Draw(ctx, stats)
}

// Draw refreshes the rows from stats, draws the panel and returns the area it
// covers.
func (p *DebugPanel) Draw(ctx *ui.Context, stats render.Stats) ui.Rect {
	if p.root == nil {
		p.title = ui.Title("Debug data")
		p.body = ui.View().
			AlignCross(ui.AlignStretch).
			Gap(4).
			Padding(8).
			BgColor(colors.Black.WithAlpha(0.5))
		p.root = ui.View(p.body).Padding(16)
	}

	lines := p.Lines(stats)
	for len(p.rows) < len(lines) {
		p.rows = append(p.rows, ui.Label(""))
	}
	kids := make([]ui.Element, 0, len(lines)+1)
	kids = append(kids, p.title)
	for i, line := range lines {
		kids = append(kids, p.rows[i].SetText(line))
	}
	p.body.SetChildren(kids...)
	return ui.Render(ctx, p.root)
}
