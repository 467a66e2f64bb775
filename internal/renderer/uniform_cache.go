package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformCache caches uniform locations to avoid repeated gl.GetUniformLocation calls
type UniformCache struct {
	locations map[string]int32
	program   uint32
}

// NewUniformCache creates a new uniform cache for a shader program
func NewUniformCache(program uint32) *UniformCache {
	return &UniformCache{
		locations: make(map[string]int32),
		program:   program,
	}
}

// GetLocation returns the cached uniform location or fetches and caches it
func (uc *UniformCache) GetLocation(name string) int32 {
	if loc, exists := uc.locations[name]; exists {
		return loc
	}

	loc := gl.GetUniformLocation(uc.program, gl.Str(name+"\x00"))
	uc.locations[name] = loc
	return loc
}

func (uc *UniformCache) SetFloat(name string, value float32) {
	if loc := uc.GetLocation(name); loc != -1 {
		gl.Uniform1f(loc, value)
	}
}

func (uc *UniformCache) SetVec3(name string, v mgl32.Vec3) {
	if loc := uc.GetLocation(name); loc != -1 {
		gl.Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (uc *UniformCache) SetVec4(name string, v mgl32.Vec4) {
	if loc := uc.GetLocation(name); loc != -1 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

func (uc *UniformCache) SetMat4(name string, m mgl32.Mat4) {
	if loc := uc.GetLocation(name); loc != -1 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func (uc *UniformCache) SetInt(name string, value int32) {
	if loc := uc.GetLocation(name); loc != -1 {
		gl.Uniform1i(loc, value)
	}
}

func (uc *UniformCache) SetBool(name string, value bool) {
	var v int32
	if value {
		v = 1
	}
	uc.SetInt(name, v)
}

// Clear clears the cache (call when shader program changes)
func (uc *UniformCache) Clear() {
	uc.locations = make(map[string]int32)
}
