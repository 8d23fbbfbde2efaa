// Package pipeline holds the GPU pipelines the Brush batches into: grid,
// circle, quad (instanced, one draw per execution) and polygon (tessellated
// mesh, one draw per shape).
package pipeline

import (
	"embed"
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/hubastard/physdraw/engine/core"
	"github.com/hubastard/physdraw/engine/staging"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

// ErrCapacity is returned when a pipeline running with OverflowReject is full,
// or when the polygon pipeline runs out of primitive slots.
var ErrCapacity = errors.New("pipeline: capacity exceeded")

// Shader returns the WGSL source for name ("grid", "circle", ...) with the
// shared globals block and helpers prepended.
func Shader(name string) (string, error) {
	common, err := shaderFS.ReadFile("shaders/common.wgsl")
	if err != nil {
		return "", err
	}
	body, err := shaderFS.ReadFile("shaders/" + name + ".wgsl")
	if err != nil {
		return "", err
	}
	return string(common) + "\n" + string(body), nil
}

// Pipeline is one primitive kind's GPU state and its pending instances.
type Pipeline interface {
	// Execute uploads pending data and draws it into target in its own pass,
	// loading the existing contents. Nothing pending means nothing is recorded.
	Execute(cs core.CommandStream, target core.Target) error
	// Clear drops pending data; GPU resources are kept.
	Clear()
	Len() int
}

// Counters are per-frame draw statistics shared by every pipeline of a Brush.
type Counters struct {
	DrawCalls int // non-empty pipeline executions
	GPUDraws  int // draw commands recorded
	Dropped   int // instances refused by OverflowReject
}

func (c *Counters) Reset() { *c = Counters{} }

// Context carries what pipelines share: the device, the globals uniform, the
// staging arena and the counters.
type Context struct {
	Device  core.Device
	Globals core.Buffer
	Staging *staging.Arena
	Stats   *Counters
	Log     *slog.Logger
}

type OverflowPolicy uint8

const (
	// OverflowGrow recreates the GPU buffer at the next power of two.
	OverflowGrow OverflowPolicy = iota
	// OverflowReject refuses instances past capacity with ErrCapacity.
	OverflowReject
)

func ParseOverflow(s string) OverflowPolicy {
	if s == "reject" {
		return OverflowReject
	}
	return OverflowGrow
}

func (p OverflowPolicy) String() string {
	if p == OverflowReject {
		return "reject"
	}
	return "grow"
}

type Options struct {
	Capacity int
	Overflow OverflowPolicy
}

func (o Options) withDefault(capacity int) Options {
	if o.Capacity <= 0 {
		o.Capacity = capacity
	}
	return o
}

// Globals is the uniform shared by every pipeline (group 0, binding 0).
type Globals struct {
	Resolution [2]float32
}

const GlobalsSize = 16

var GlobalsBinding = core.UniformBinding{Slot: 0, Group: 0, Index: 0, Name: "Globals"}

func (g Globals) Encode(a *staging.Arena) {
	a.Vec2(g.Resolution).Pad(8)
}

// quadIndices draw the unit quad (TL, TR, BR, BL) as two triangles.
var quadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

func quadIndexBytes() []byte {
	b := make([]byte, 0, len(quadIndices)*2)
	for _, i := range quadIndices {
		b = binary.LittleEndian.AppendUint16(b, i)
	}
	return b
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Logger returns Log, or the default logger when unset.
func (c *Context) Logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
