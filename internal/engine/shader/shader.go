// Package shader compiles GLSL programs and resolves their uniforms.
package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Defines are preprocessor constants injected after the #version line, so
// array sizes in GLSL follow the Go side.
type Defines map[string]int

// Preprocess inserts one #define per entry right after the #version
// directive. Sources without a #version line get the defines at the top.
func Preprocess(source string, defines Defines) string {
	if len(defines) == 0 {
		return source
	}
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		fmt.Fprintf(&block, "#define %s %d\n", name, defines[name])
	}

	if !strings.HasPrefix(strings.TrimLeft(source, " \t\r\n"), "#version") {
		return block.String() + source
	}
	head, rest, found := strings.Cut(source, "\n")
	if !found {
		return head + "\n" + block.String()
	}
	return head + "\n" + block.String() + rest
}

// Program is a linked GL program with a cache of uniform locations.
type Program struct {
	id       uint32
	uniforms map[string]int32
}

// Stage is one shader stage of a program.
type Stage struct {
	Kind   uint32 // gl.VERTEX_SHADER, gl.GEOMETRY_SHADER or gl.FRAGMENT_SHADER
	Source string
}

// Compile builds and links a program from its stages. Every stage gets the
// same defines.
func Compile(defines Defines, stages ...Stage) (*Program, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("shader: no stages")
	}

	compiled := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range compiled {
			gl.DeleteShader(s)
		}
	}()
	for _, st := range stages {
		s, err := compileStage(Preprocess(st.Source, defines), st.Kind)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, s)
	}

	id := gl.CreateProgram()
	for _, s := range compiled {
		gl.AttachShader(id, s)
	}
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		msg := infoLog(logLen, func(buf *uint8) { gl.GetProgramInfoLog(id, logLen, nil, buf) })
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("shader link: %s", msg)
	}

	return &Program{id: id, uniforms: make(map[string]int32)}, nil
}

func compileStage(source string, kind uint32) (uint32, error) {
	s := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csource, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		msg := infoLog(logLen, func(buf *uint8) { gl.GetShaderInfoLog(s, logLen, nil, buf) })
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%s shader: %s", StageName(kind), msg)
	}
	return s, nil
}

func infoLog(n int32, read func(*uint8)) string {
	if n <= 0 {
		return "no info log"
	}
	buf := make([]byte, n)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

// StageName names a shader kind for error messages.
func StageName(kind uint32) string {
	switch kind {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	default:
		return fmt.Sprintf("stage 0x%x", kind)
	}
}

// ID returns the GL program name.
func (p *Program) ID() uint32 {
	return p.id
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.id)
}

// Uniform returns the location of a uniform, -1 when it is absent or was
// optimized out. Lookups are cached.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// BindBlock assigns the named uniform block to a binding point.
func (p *Program) BindBlock(name string, binding uint32) error {
	index := gl.GetUniformBlockIndex(p.id, gl.Str(name+"\x00"))
	if index == gl.INVALID_INDEX {
		return fmt.Errorf("uniform block %q not found in program %d", name, p.id)
	}
	gl.UniformBlockBinding(p.id, index, binding)
	return nil
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
