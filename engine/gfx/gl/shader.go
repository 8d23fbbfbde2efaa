package glbackend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
)

// stageSource is one entry point of a WGSL module translated to GLSL 330.
type stageSource struct {
	code     string
	textures map[string]glsl.TextureMapping
}

// translate turns a WGSL module into vertex and fragment GLSL.
func translate(wgsl, vsEntry, fsEntry string) (vs, fs stageSource, err error) {
	ast, err := naga.Parse(wgsl)
	if err != nil {
		return vs, fs, fmt.Errorf("wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, wgsl)
	if err != nil {
		return vs, fs, fmt.Errorf("wgsl: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return vs, fs, fmt.Errorf("wgsl: validate: %w", err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Message
		}
		return vs, fs, fmt.Errorf("wgsl: validate: %s", strings.Join(msgs, "; "))
	}
	if vs, err = compileStage(module, vsEntry); err != nil {
		return vs, fs, err
	}
	fs, err = compileStage(module, fsEntry)
	return vs, fs, err
}

func compileStage(module *ir.Module, entry string) (stageSource, error) {
	code, info, err := glsl.Compile(module, glsl.Options{
		LangVersion:        glsl.Version330,
		EntryPoint:         entry,
		ForceHighPrecision: true,
	})
	if err != nil {
		return stageSource{}, fmt.Errorf("glsl %s: %w", entry, err)
	}
	return stageSource{code: code, textures: info.TextureMappings}, nil
}

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compile error: %s", strings.TrimRight(log, "\x00"))
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("program link error: %s", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}

// uniformBlocks lists the active uniform block names of prog by index.
func uniformBlocks(prog uint32) []string {
	var n, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_BLOCKS, &n)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_BLOCK_MAX_NAME_LENGTH, &maxLen)
	names := make([]string, n)
	buf := make([]uint8, maxLen+1)
	for i := int32(0); i < n; i++ {
		var length int32
		gl.GetActiveUniformBlockName(prog, uint32(i), int32(len(buf)), &length, &buf[0])
		names[i] = string(buf[:length])
	}
	return names
}

func uniformLocation(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

var errUnboundBlock = errors.New("uniform block has no binding")
