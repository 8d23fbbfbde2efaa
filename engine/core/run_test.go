package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	closeAfter int
	polls      int
	closed     bool
	destroyed  bool
	cb         func(Event)
	queued     []Event
}

func (w *fakeWindow) PollEvents() {
	w.polls++
	for _, ev := range w.queued {
		w.cb(ev)
	}
	w.queued = nil
	if w.closeAfter > 0 && w.polls >= w.closeAfter {
		w.closed = true
	}
}
func (w *fakeWindow) SwapBuffers()                    {}
func (w *fakeWindow) ShouldClose() bool               { return w.closed }
func (w *fakeWindow) RequestClose()                   { w.closed = true }
func (w *fakeWindow) FramebufferSize() (int, int)     { return 800, 600 }
func (w *fakeWindow) SetTitle(string)                 {}
func (w *fakeWindow) SetEventCallback(cb func(Event)) { w.cb = cb }
func (w *fakeWindow) Destroy()                        { w.destroyed = true }

type stubDevice struct {
	Device
	shutdown bool
}

func (d *stubDevice) Shutdown() { d.shutdown = true }

type recApp struct {
	frames   int
	events   []Event
	failAt   int
	shutdown bool
}

func (a *recApp) OnStart(*Engine) error { return nil }
func (a *recApp) OnFrame(_ *Engine, dt float32) error {
	a.frames++
	if a.failAt > 0 && a.frames == a.failAt {
		return errors.New("boom")
	}
	return nil
}
func (a *recApp) OnEvent(_ *Engine, ev Event) { a.events = append(a.events, ev) }
func (a *recApp) OnShutdown(*Engine)          { a.shutdown = true }

type consumeLayer struct {
	attached, detached bool
	updates            int
}

func (l *consumeLayer) OnAttach(*Engine)          { l.attached = true }
func (l *consumeLayer) OnDetach(*Engine)          { l.detached = true }
func (l *consumeLayer) OnUpdate(*Engine, float32) { l.updates++ }
func (l *consumeLayer) OnEvent(_ *Engine, ev Event) bool {
	_, ok := ev.(EventScroll)
	return ok
}

func runWith(t *testing.T, app App, win *fakeWindow, dev *stubDevice) error {
	t.Helper()
	return Run(app, Config{Width: 800, Height: 600},
		func(Config) (Window, error) { return win, nil },
		func(Window, Config) (Device, error) { return dev, nil },
	)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	win := &fakeWindow{closeAfter: 4}
	dev := &stubDevice{}
	app := &recApp{}

	require.NoError(t, runWith(t, app, win, dev))
	assert.Equal(t, 3, app.frames)
	assert.True(t, app.shutdown)
	assert.True(t, dev.shutdown)
	assert.True(t, win.destroyed)
}

func TestRunPropagatesFrameError(t *testing.T) {
	win := &fakeWindow{}
	dev := &stubDevice{}
	app := &recApp{failAt: 2}

	err := runWith(t, app, win, dev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2")
	assert.True(t, app.shutdown)
	assert.True(t, dev.shutdown)
}

func TestEscapeClosesWindow(t *testing.T) {
	win := &fakeWindow{queued: []Event{EventKey{Key: KeyEscape, Down: true}}}
	app := &recApp{}

	require.NoError(t, runWith(t, app, win, &stubDevice{}))
	assert.Zero(t, app.frames)
	assert.True(t, win.closed)
}

func TestLayersConsumeEvents(t *testing.T) {
	layer := &consumeLayer{}
	win := &fakeWindow{closeAfter: 3, queued: []Event{EventScroll{Yoff: 1}, EventResize{W: 10, H: 20}}}
	app := &startApp{recApp: &recApp{}, layer: layer}

	require.NoError(t, runWith(t, app, win, &stubDevice{}))
	assert.True(t, layer.attached)
	assert.True(t, layer.detached)
	assert.Equal(t, 2, layer.updates)
	assert.Equal(t, []Event{EventResize{W: 10, H: 20}}, app.events)
}

type startApp struct {
	*recApp
	layer Layer
}

func (a *startApp) OnStart(e *Engine) error {
	e.PushLayer(a.layer)
	return nil
}

func TestInputTracksState(t *testing.T) {
	in := NewInput()
	in.Handle(EventKey{Key: KeySpace, Down: true})
	in.Handle(EventMouseButton{Button: MouseLeft, Down: true})
	in.Handle(EventMouseMove{X: 3, Y: 4})
	assert.True(t, in.IsKeyDown(KeySpace))
	assert.True(t, in.IsButtonDown(MouseLeft))
	x, y := in.Mouse()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)

	in.Handle(EventKey{Key: KeySpace, Down: false})
	assert.False(t, in.IsKeyDown(KeySpace))
}

func TestLayerStackOrder(t *testing.T) {
	var ls LayerStack
	a, b := &consumeLayer{}, &consumeLayer{}
	ls.Push(a)
	ls.Push(b)
	assert.Equal(t, 2, ls.Len())

	var seen []Layer
	ls.ForEachReverse(func(l Layer) bool { seen = append(seen, l); return false })
	assert.Equal(t, []Layer{b, a}, seen)

	top, ok := ls.Pop()
	require.True(t, ok)
	assert.Same(t, b, top)
}
