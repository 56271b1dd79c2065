// Package renderer executes frame slot command lists with OpenGL 4.1.
//
// Each ring slot gets its own uniform buffers and dynamic vertex buffer, so
// refilling one slot never touches memory a draw of another slot still
// reads. Static meshes are uploaded once.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/castle-waves/internal/engine/frame"
	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/internal/engine/gpu"
	"github.com/Faultbox/castle-waves/internal/engine/renderer/shaders"
	"github.com/Faultbox/castle-waves/internal/engine/scene"
	"github.com/Faultbox/castle-waves/internal/engine/shader"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [4]float32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	log     *zap.Logger
	present func()

	program      *shader.Program
	locAlphaClip int32
	treeProgram  *shader.Program

	fence  *Fence
	meshes []meshBuffers
	slots  map[int]*slotBuffers

	capture func(pixels []byte, width, height int)
}

type meshBuffers struct {
	vao, vbo, ebo uint32
	dynamic       bool
}

type slotBuffers struct {
	pass, objects, materials uint32

	// per-slot copy of the dynamic mesh
	waveVBO, waveVAO uint32
}

// New creates a renderer. It must be called after the GL context is current.
// present is called by Present to show the finished frame.
func New(cfg Config, present func(), log *zap.Logger) (*Renderer, error) {
	r := &Renderer{
		config:  cfg,
		log:     log,
		present: present,
		slots:   make(map[int]*slotBuffers),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	log.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	var align int32
	gl.GetIntegerv(gl.UNIFORM_BUFFER_OFFSET_ALIGNMENT, &align)
	if align <= 0 || frame.ConstantBufferAlignment%int(align) != 0 {
		return nil, fmt.Errorf("uniform buffer offset alignment %d does not divide %d", align, frame.ConstantBufferAlignment)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	defines := shader.Defines{"MAX_LIGHTS": frame.MaxLights}
	program, err := compileProgram(defines,
		shader.Stage{Kind: gl.VERTEX_SHADER, Source: shaders.CastleVertexShader},
		shader.Stage{Kind: gl.FRAGMENT_SHADER, Source: shaders.CastleFragmentShader},
	)
	if err != nil {
		return nil, fmt.Errorf("castle shader: %w", err)
	}
	r.program = program
	r.locAlphaClip = program.Uniform("uAlphaClip")

	trees, err := compileProgram(defines,
		shader.Stage{Kind: gl.VERTEX_SHADER, Source: shaders.TreeVertexShader},
		shader.Stage{Kind: gl.GEOMETRY_SHADER, Source: shaders.TreeGeometryShader},
		shader.Stage{Kind: gl.FRAGMENT_SHADER, Source: shaders.TreeFragmentShader},
	)
	if err != nil {
		program.Delete()
		return nil, fmt.Errorf("tree shader: %w", err)
	}
	r.treeProgram = trees

	r.fence = NewFence(log)
	return r, nil
}

// compileProgram links stages and binds the pass, object and material blocks
// to the binding points every program shares.
func compileProgram(defines shader.Defines, stages ...shader.Stage) (*shader.Program, error) {
	program, err := shader.Compile(defines, stages...)
	if err != nil {
		return nil, err
	}
	for _, b := range []struct {
		name    string
		binding uint32
	}{
		{shaders.PassBlock, shaders.PassBinding},
		{shaders.ObjectBlock, shaders.ObjectBinding},
		{shaders.MaterialBlock, shaders.MaterialBinding},
	} {
		if err := program.BindBlock(b.name, b.binding); err != nil {
			program.Delete()
			return nil, err
		}
	}
	return program, nil
}

// Timeline returns the GL fence timeline the frame ring waits on.
func (r *Renderer) Timeline() gpu.Timeline {
	return r.fence
}

// UploadMeshes creates GPU buffers for the scene's meshes. Dynamic meshes
// only get an index buffer here; their vertices live in each slot.
func (r *Renderer) UploadMeshes(meshes []scene.Mesh) error {
	for _, m := range meshes {
		if len(m.Data.Indices) == 0 {
			return fmt.Errorf("mesh %q has no indices", m.Shape)
		}
		var mb meshBuffers
		mb.dynamic = m.Dynamic

		gl.GenBuffers(1, &mb.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Data.Indices)*4, gl.Ptr(&m.Data.Indices[0]), gl.STATIC_DRAW)

		if !m.Dynamic {
			gl.GenVertexArrays(1, &mb.vao)
			gl.BindVertexArray(mb.vao)

			gl.GenBuffers(1, &mb.vbo)
			gl.BindBuffer(gl.ARRAY_BUFFER, mb.vbo)
			gl.BufferData(gl.ARRAY_BUFFER, len(m.Data.Vertices)*geometry.VertexStride, gl.Ptr(&m.Data.Vertices[0]), gl.STATIC_DRAW)
			gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.ebo)
			vertexLayout()

			gl.BindVertexArray(0)
		}
		r.meshes = append(r.meshes, mb)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.log.Debug("meshes uploaded", zap.Int("count", len(meshes)))
	return checkError("upload meshes")
}

func vertexLayout() {
	gl.VertexAttribPointerWithOffset(shaders.VertexPosition, 3, gl.FLOAT, false, geometry.VertexStride, 0)
	gl.EnableVertexAttribArray(shaders.VertexPosition)
	gl.VertexAttribPointerWithOffset(shaders.VertexNormal, 3, gl.FLOAT, false, geometry.VertexStride, 12)
	gl.EnableVertexAttribArray(shaders.VertexNormal)
	gl.VertexAttribPointerWithOffset(shaders.VertexTexCoord, 2, gl.FLOAT, false, geometry.VertexStride, 24)
	gl.EnableVertexAttribArray(shaders.VertexTexCoord)
}

// buffersFor returns the GL buffers owned by slot, creating them on first
// use.
func (r *Renderer) buffersFor(slot *frame.Slot) *slotBuffers {
	if sb, ok := r.slots[slot.Index]; ok {
		return sb
	}
	sb := &slotBuffers{}
	sb.pass = newUniformBuffer(len(slot.Pass.Bytes()))
	sb.objects = newUniformBuffer(len(slot.Objects.Bytes()))
	sb.materials = newUniformBuffer(len(slot.Materials.Bytes()))

	if slot.Vertices != nil {
		for _, mb := range r.meshes {
			if !mb.dynamic {
				continue
			}
			gl.GenVertexArrays(1, &sb.waveVAO)
			gl.BindVertexArray(sb.waveVAO)

			gl.GenBuffers(1, &sb.waveVBO)
			gl.BindBuffer(gl.ARRAY_BUFFER, sb.waveVBO)
			gl.BufferData(gl.ARRAY_BUFFER, len(slot.Vertices.Bytes()), nil, gl.STREAM_DRAW)
			gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.ebo)
			vertexLayout()

			gl.BindVertexArray(0)
			break
		}
	}

	r.slots[slot.Index] = sb
	r.log.Debug("slot buffers created", zap.Int("slot", slot.Index))
	return sb
}

func newUniformBuffer(size int) uint32 {
	var ubo uint32
	gl.GenBuffers(1, &ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return ubo
}

func upload(target, buffer uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(target, buffer)
	gl.BufferSubData(target, 0, len(data), gl.Ptr(&data[0]))
}

// Submit copies the slot's upload memory into its GL buffers and issues its
// recorded draws in layer order.
func (r *Renderer) Submit(slot *frame.Slot) error {
	if !slot.Commands.Closed() {
		return fmt.Errorf("slot %d submitted while still recording", slot.Index)
	}
	sb := r.buffersFor(slot)

	upload(gl.UNIFORM_BUFFER, sb.pass, slot.Pass.Bytes())
	upload(gl.UNIFORM_BUFFER, sb.objects, slot.Objects.Bytes())
	upload(gl.UNIFORM_BUFFER, sb.materials, slot.Materials.Bytes())
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	if sb.waveVBO != 0 {
		upload(gl.ARRAY_BUFFER, sb.waveVBO, slot.Vertices.Bytes())
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.BindBufferRange(gl.UNIFORM_BUFFER, shaders.PassBinding, sb.pass, 0, slot.Pass.ElementByteSize())

	cmds := slot.Commands.Commands()
	for layer := frame.LayerOpaque; layer < frame.LayerCount; layer++ {
		r.setLayerState(layer)
		for _, cmd := range cmds {
			if cmd.Layer != layer {
				continue
			}
			if err := r.draw(slot, sb, cmd); err != nil {
				return err
			}
		}
	}
	r.setLayerState(frame.LayerOpaque)
	gl.BindVertexArray(0)

	return checkError("submit")
}

func (r *Renderer) setLayerState(layer frame.Layer) {
	if layer == frame.LayerTreeSprites {
		r.treeProgram.Use()
		gl.Disable(gl.BLEND)
		gl.Disable(gl.CULL_FACE)
		return
	}
	r.program.Use()
	switch layer {
	case frame.LayerTransparent:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.Uniform1i(r.locAlphaClip, 0)
	case frame.LayerAlphaTested:
		gl.Disable(gl.BLEND)
		gl.Uniform1i(r.locAlphaClip, 1)
	default:
		gl.Disable(gl.BLEND)
		gl.Uniform1i(r.locAlphaClip, 0)
	}
	// Alpha-tested geometry is seen from both sides.
	if layer == frame.LayerAlphaTested {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
}

func (r *Renderer) draw(slot *frame.Slot, sb *slotBuffers, cmd frame.DrawCommand) error {
	if cmd.Mesh < 0 || cmd.Mesh >= len(r.meshes) {
		return fmt.Errorf("draw references mesh %d of %d", cmd.Mesh, len(r.meshes))
	}
	vao := r.meshes[cmd.Mesh].vao
	if cmd.Dynamic {
		vao = sb.waveVAO
	}
	if vao == 0 {
		return fmt.Errorf("draw of mesh %d has no vertex array (dynamic=%t)", cmd.Mesh, cmd.Dynamic)
	}

	gl.BindBufferRange(gl.UNIFORM_BUFFER, shaders.ObjectBinding, sb.objects,
		slot.Objects.Offset(cmd.ObjectIndex), slot.Objects.ElementByteSize())
	gl.BindBufferRange(gl.UNIFORM_BUFFER, shaders.MaterialBinding, sb.materials,
		slot.Materials.Offset(cmd.MaterialIndex), slot.Materials.ElementByteSize())

	mode := uint32(gl.TRIANGLES)
	if cmd.Points {
		mode = gl.POINTS
	}
	gl.BindVertexArray(vao)
	gl.DrawElementsBaseVertex(mode, int32(cmd.IndexCount), gl.UNSIGNED_INT,
		gl.PtrOffset(cmd.StartIndex*4), int32(cmd.BaseVertex))
	return nil
}

// CaptureNext reads back the next presented frame and hands its RGBA
// pixels, bottom row first, to fn.
func (r *Renderer) CaptureNext(fn func(pixels []byte, width, height int)) {
	r.capture = fn
}

// Present shows the frame.
func (r *Renderer) Present() error {
	if fn := r.capture; fn != nil {
		r.capture = nil
		w, h := r.config.Width, r.config.Height
		pixels := make([]byte, w*h*4)
		gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
		gl.ReadBuffer(gl.BACK)
		gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
		if err := checkError("read pixels"); err != nil {
			return err
		}
		fn(pixels, w, h)
	}
	if r.present != nil {
		r.present()
	}
	return nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Close releases all GL objects. The ring must be flushed first.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer")
	for _, sb := range r.slots {
		for _, b := range []uint32{sb.pass, sb.objects, sb.materials, sb.waveVBO} {
			if b != 0 {
				gl.DeleteBuffers(1, &b)
			}
		}
		if sb.waveVAO != 0 {
			gl.DeleteVertexArrays(1, &sb.waveVAO)
		}
	}
	for _, mb := range r.meshes {
		if mb.vao != 0 {
			gl.DeleteVertexArrays(1, &mb.vao)
		}
		for _, b := range []uint32{mb.vbo, mb.ebo} {
			if b != 0 {
				gl.DeleteBuffers(1, &b)
			}
		}
	}
	r.fence.Close()
	if r.program != nil {
		r.program.Delete()
	}
	if r.treeProgram != nil {
		r.treeProgram.Delete()
	}
	return nil
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%04x", op, code)
	}
	return nil
}
