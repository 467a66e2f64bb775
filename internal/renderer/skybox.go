package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NewCubeMesh builds an axis-aligned cube of edge length size centered at the origin, with
// outward normals and per-face uvs. Drawn with culling off it doubles as a skybox.
func NewCubeMesh(size float32) *Mesh {
	h := size / 2

	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3 // counter-clockwise seen from outside
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{-h, h, -h}, {h, h, -h}, {h, -h, -h}, {-h, -h, -h}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{h, -h, -h}, {h, h, -h}, {h, h, h}, {h, -h, h}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-h, -h, h}, {-h, h, h}, {-h, h, -h}, {-h, -h, -h}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{h, h, -h}, {-h, h, -h}, {-h, h, h}, {h, h, h}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{h, -h, h}, {-h, -h, h}, {-h, -h, -h}, {h, -h, -h}}},
	}
	uv := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	positions := make([]mgl32.Vec3, 0, 24)
	normals := make([]mgl32.Vec3, 0, 24)
	uvs := make([]mgl32.Vec2, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(positions))
		for i, c := range f.corners {
			positions = append(positions, c)
			normals = append(normals, f.normal)
			uvs = append(uvs, uv[i])
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}

	mesh, err := NewMesh("cube", positions, normals, uvs, indices)
	if err != nil {
		// the geometry above is fixed and always valid
		panic(err)
	}
	return mesh
}
