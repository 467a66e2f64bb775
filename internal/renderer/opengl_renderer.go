package renderer

import (
	"errors"
	"fmt"
	"sort"

	"Skyview/internal/behaviour"
	"Skyview/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// OpenGLRenderer draws scenes into any number of windows whose contexts share objects.
// Buffers, textures and programs are shared; vertex array objects are per context.
type OpenGLRenderer struct {
	shaders              map[ShaderKind]*Shader
	textures             *TextureManager
	vaos                 map[WindowID]map[*Mesh]uint32
	meshes               []*Mesh
	currentShaderProgram uint32
	deferred             map[*MeshRenderer]bool // logged once until they draw
}

func NewOpenGLRenderer(images ImageSource) *OpenGLRenderer {
	return &OpenGLRenderer{
		shaders:  make(map[ShaderKind]*Shader),
		textures: NewTextureManager(images),
		vaos:     make(map[WindowID]map[*Mesh]uint32),
		deferred: make(map[*MeshRenderer]bool),
	}
}

// Init loads GL entry points and compiles the built-in programs. The primary window's context
// must be current.
func (rend *OpenGLRenderer) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("OpenGL initialization failed: %w", err)
	}

	for _, kind := range []ShaderKind{ShaderStandard, ShaderCubemap} {
		shader := InitShader(kind)
		if err := shader.Compile(); err != nil {
			return err
		}
		rend.shaders[kind] = &shader
	}
	rend.textures.Init()
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	logger.Log.Info("OpenGL render initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))))
	return nil
}

func (rend *OpenGLRenderer) Textures() *TextureManager {
	return rend.textures
}

// camerasFor returns the cameras drawing into window, in ascending Order.
func camerasFor(scene *behaviour.ComponentManager, window WindowID) []*Camera {
	var out []*Camera
	for _, cam := range behaviour.Query[*Camera](scene) {
		if cam.Target.Window == window {
			out = append(out, cam)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (rend *OpenGLRenderer) Render(window WindowID, width, height int32, scene *behaviour.ComponentManager, env Environment) RenderStats {
	var stats RenderStats
	// programs are shared but the current program is per context
	rend.currentShaderProgram = 0

	gl.Viewport(0, 0, width, height)
	if Debug {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}

	cameras := camerasFor(scene, window)
	if len(cameras) == 0 {
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		return stats
	}

	var light *DirectionalLight
	if lights := behaviour.Query[*DirectionalLight](scene); len(lights) > 0 {
		light = lights[0]
	}
	renderers := behaviour.Query[*MeshRenderer](scene)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	for i, cam := range cameras {
		stats.Cameras++
		cam.SetViewport(width, height)

		mask := uint32(gl.DEPTH_BUFFER_BIT)
		if i == 0 {
			c := cam.ClearColor
			gl.ClearColor(c[0], c[1], c[2], c[3])
			mask |= gl.COLOR_BUFFER_BIT
		}
		gl.DepthMask(true)
		gl.Clear(mask)

		viewProjection := cam.GetViewProjection()
		var frustum Frustum
		if FrustumCullingEnabled {
			frustum = cam.CalculateFrustum()
		}

		for _, mr := range renderers {
			if mr.Mesh == nil || mr.Material == nil {
				continue
			}
			model := mr.ModelMatrix()
			if FrustumCullingEnabled {
				center, radius := mr.WorldBoundingSphere(model)
				if !frustum.IntersectsSphere(center, radius) {
					stats.Culled++
					continue
				}
			}
			if rend.draw(window, mr, model, viewProjection, cam, light, env) {
				stats.Drawn++
			} else {
				stats.Deferred++
			}
		}
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.DepthMask(true)
	return stats
}

// draw issues one mesh draw. It reports false when the material's bind group is not ready.
func (rend *OpenGLRenderer) draw(window WindowID, mr *MeshRenderer, model, viewProjection mgl32.Mat4, cam *Camera, light *DirectionalLight, env Environment) bool {
	mat := mr.Material
	group, err := mat.AsBindGroup(rend.textures)
	if err != nil {
		if !rend.deferred[mr] {
			rend.deferred[mr] = true
			level := logger.Log.Debug
			if !errors.Is(err, ErrRetryNextUpdate) {
				level = logger.Log.Warn
			}
			level("Draw deferred", zap.String("mesh", mr.Mesh.Name), zap.Error(err))
		}
		return false
	}
	delete(rend.deferred, mr)

	shader, ok := rend.shaders[mat.ShaderKind()]
	if !ok {
		logger.Log.Error("No program for material", zap.Stringer("shader", mat.ShaderKind()))
		return false
	}

	desc := DefaultPipelineDescriptor(mr.Mesh.Name, mat.ShaderKind())
	mat.Specialize(&desc)
	applyPipelineState(desc)

	if rend.currentShaderProgram != shader.program {
		shader.Use()
		rend.currentShaderProgram = shader.program
	}
	u := shader.Uniforms()
	u.SetMat4("viewProjection", viewProjection)
	u.SetMat4("model", model)
	u.SetVec3("viewPos", cam.Position())
	u.SetVec3("ambientColor", env.Ambient.Color)
	u.SetFloat("ambientBrightness", env.Ambient.Brightness)
	if light != nil {
		u.SetVec3("light.direction", light.Direction())
		u.SetVec3("light.color", light.Color)
		u.SetFloat("light.intensity", light.Intensity())
	} else {
		u.SetFloat("light.intensity", 0)
	}
	if um, ok := mat.(UniformMaterial); ok {
		um.SetUniforms(u)
	}
	bindGroup(group, u)

	vao := rend.vao(window, mr.Mesh)
	gl.BindVertexArray(vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(mr.Mesh.Faces)), gl.UNSIGNED_INT, nil)
	return true
}

func applyPipelineState(desc PipelineDescriptor) {
	switch desc.CullMode {
	case CullNone:
		gl.Disable(gl.CULL_FACE)
	case CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	gl.FrontFace(gl.CCW)
	gl.DepthMask(desc.DepthWrite)
}

// bindGroup binds texture entries to consecutive units; a sampler entry applies to the unit of
// the texture before it.
func bindGroup(group PreparedBindGroup, u *UniformCache) {
	unit := int32(-1)
	for _, e := range group.Entries {
		switch {
		case e.Texture != 0:
			unit++
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(glTarget(e.ViewDimension), e.Texture)
		case e.Sampler != 0 && unit >= 0:
			gl.BindSampler(uint32(unit), e.Sampler)
		}
	}
	if unit < 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.BindSampler(0, 0)
	}
	u.SetInt("baseColorTexture", 0)
}

// vao returns the vertex array for mesh in window's context, creating buffers and the array
// on first use.
func (rend *OpenGLRenderer) vao(window WindowID, mesh *Mesh) uint32 {
	if !mesh.uploaded {
		gl.GenBuffers(1, &mesh.VBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, mesh.VBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh.InterleavedData)*4, gl.Ptr(mesh.InterleavedData), gl.STATIC_DRAW)

		gl.GenBuffers(1, &mesh.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mesh.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Faces)*4, gl.Ptr(mesh.Faces), gl.STATIC_DRAW)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

		mesh.uploaded = true
		rend.meshes = append(rend.meshes, mesh)
		logger.Log.Debug("Mesh uploaded", zap.String("mesh", mesh.Name), zap.Int("vertices", mesh.VertexCount()))
	}

	perWindow, ok := rend.vaos[window]
	if !ok {
		perWindow = make(map[*Mesh]uint32)
		rend.vaos[window] = perWindow
	}
	if vao, ok := perWindow[mesh]; ok {
		return vao
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, mesh.VBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mesh.EBO)

	stride := int32(vertexStride * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)

	perWindow[mesh] = vao
	return vao
}

func (rend *OpenGLRenderer) ReleaseWindow(window WindowID) {
	for _, vao := range rend.vaos[window] {
		gl.DeleteVertexArrays(1, &vao)
	}
	delete(rend.vaos, window)
}

// Cleanup frees shared objects. The primary context must be current.
func (rend *OpenGLRenderer) Cleanup() {
	for window := range rend.vaos {
		rend.ReleaseWindow(window)
	}
	for _, mesh := range rend.meshes {
		gl.DeleteBuffers(1, &mesh.VBO)
		gl.DeleteBuffers(1, &mesh.EBO)
		mesh.uploaded = false
	}
	rend.meshes = nil
	for _, shader := range rend.shaders {
		shader.Delete()
	}
	rend.textures.LogStats()
	rend.textures.Clear()
}

var _ Render = (*OpenGLRenderer)(nil)
