package core

import "time"

// App defines the application hooks driven by Run.
type App interface {
	OnStart(e *Engine) error             // called once after window/device init
	OnFrame(e *Engine, dt float32) error // render + simulate one frame; an error stops the loop
	OnEvent(e *Engine, ev Event)         // input/window events not consumed by a layer
	OnShutdown(e *Engine)                // before exit
}

// Engine exposes core services to the App.
type Engine struct {
	Window Window
	Device Device
	Input  *Input
	Layers LayerStack
	start  time.Time
	frame  uint64
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// Frame is the number of frames started so far.
func (e *Engine) Frame() uint64 { return e.frame }

// PushLayer attaches l and puts it on top of the stack.
func (e *Engine) PushLayer(l Layer) {
	e.Layers.Push(l)
	l.OnAttach(e)
}

// Window abstraction.
type Window interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
	RequestClose()
	FramebufferSize() (int, int)
	SetTitle(title string)
	SetEventCallback(cb func(Event))
	Destroy()
}

type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventResize struct{ W, H int }

func (EventResize) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

type EventMouseButton struct {
	Button MouseButton
	Down   bool
	Mods   Mod
}

func (EventMouseButton) isEvent() {}

type EventScroll struct{ Xoff, Yoff float64 }

func (EventScroll) isEvent() {}

type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyEnter
	KeyW
	KeyA
	KeyS
	KeyD
	KeyG
	KeyP
	KeyR
)

type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)

// Config for the engine run.
type Config struct {
	Title  string
	Width  int
	Height int
	VSync  bool
	// MaxDelta clamps the frame delta after stalls (window drag, breakpoints).
	MaxDelta time.Duration
}
