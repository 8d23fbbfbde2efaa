package core

import "errors"

// Graphics context provider. Everything the renderer touches on the GPU goes
// through these interfaces; engine/gfx/gl implements them on OpenGL 3.3 and
// engine/gfx/gputest records them for tests.

var (
	// ErrBufferOverflow is returned when an upload does not fit its destination buffer.
	ErrBufferOverflow = errors.New("gfx: write exceeds buffer size")
	// ErrSurfaceLost is returned by AcquireFrame when no drawable is available.
	ErrSurfaceLost = errors.New("gfx: surface lost")
	// ErrPassOpen is returned when a pass is begun while another is still recording.
	ErrPassOpen = errors.New("gfx: render pass already open")
)

type BufferUsage uint8

const (
	BufferVertex BufferUsage = iota
	BufferIndex
	BufferUniform
)

func (u BufferUsage) String() string {
	switch u {
	case BufferVertex:
		return "vertex"
	case BufferIndex:
		return "index"
	case BufferUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

type BufferDesc struct {
	Label    string
	Usage    BufferUsage
	Size     int
	Contents []byte // optional initial data; Size may then be 0
}

type Buffer interface {
	Label() string
	Size() int
	Usage() BufferUsage
	Destroy()
}

type AttribType uint8

const (
	AttribFloat32 AttribType = iota
	AttribUint32
)

func (t AttribType) Bytes() int { return 4 }

type VertexAttrib struct {
	Location uint32
	Size     int // components, 1..4
	Type     AttribType
	Offset   int
}

type VertexStep uint8

const (
	StepVertex VertexStep = iota
	StepInstance
)

type VertexLayout struct {
	Stride     int
	Step       VertexStep
	Attributes []VertexAttrib
}

// UniformBinding maps a pass uniform slot to a uniform block of the shader.
// Name is the WGSL struct type backing the block.
type UniformBinding struct {
	Slot  int
	Group uint32
	Index uint32
	Name  string
}

// TextureBinding maps a pass texture slot to a texture+sampler pair of the shader.
type TextureBinding struct {
	Slot         int
	Group        uint32
	Index        uint32
	SamplerIndex uint32
}

type PipelineDesc struct {
	Label         string
	// Shader is WGSL source with both stages.
	Shader        string
	VertexEntry   string
	FragmentEntry string
	VertexLayouts []VertexLayout
	Uniforms      []UniformBinding
	Textures      []TextureBinding
	Blend         bool
	DepthTest     bool
}

type Pipeline interface {
	Label() string
	Destroy()
}

type TextureFormat uint8

const (
	TextureRGBA8 TextureFormat = iota
	TextureR8
)

func (f TextureFormat) BytesPerPixel() int {
	if f == TextureR8 {
		return 1
	}
	return 4
}

type TextureDesc struct {
	Label     string
	Width     int
	Height    int
	Format    TextureFormat
	Pixels    []byte
	MinFilter string // "nearest" | "linear"
	MagFilter string
	WrapU     string // "clamp" | "repeat"
	WrapV     string
}

type Texture interface {
	Width() int
	Height() int
	Destroy()
}

// Target is a view of a surface frame that passes render into.
type Target interface {
	Size() (w, h int)
}

// Frame is an acquired swapchain image. Present must be called once after
// the commands drawing into it were submitted.
type Frame interface {
	Target() Target
	Present() error
}

type LoadOp uint8

const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

func (op LoadOp) String() string {
	if op == LoadOpLoad {
		return "load"
	}
	return "clear"
}

type PassDesc struct {
	Label      string
	Target     Target
	Load       LoadOp
	ClearColor [4]float64
}

type IndexFormat uint8

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// CommandStream is an ordered list of uploads and passes. Only one pass may be
// recording at a time.
type CommandStream interface {
	Label() string
	WriteBuffer(b Buffer, offset int, data []byte) error
	BeginPass(desc PassDesc) (RenderPass, error)
}

// RenderPass records draw state; errors from the setters surface in End.
type RenderPass interface {
	SetPipeline(p Pipeline)
	SetUniformBuffer(slot int, b Buffer)
	SetTexture(slot int, t Texture)
	SetVertexBuffer(slot int, b Buffer)
	SetIndexBuffer(b Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount int)
	DrawIndexed(indexCount, firstIndex, baseVertex, instanceCount int)
	End() error
}

type PowerPreference uint8

const (
	PowerHighPerformance PowerPreference = iota
	PowerLowPower
)

type DeviceOptions struct {
	Power PowerPreference
	VSync bool
}

type DeviceInfo struct {
	Backend  string
	Vendor   string
	Renderer string
	Version  string
}

type Device interface {
	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	AcquireFrame() (Frame, error)
	NewCommandStream(label string) CommandStream
	Submit(cs CommandStream) error
	Configure(w, h int) error
	Info() DeviceInfo
	Shutdown()
}
