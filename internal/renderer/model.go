package renderer

import (
	"errors"
	"fmt"
	"math"

	"Skyview/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidMesh = errors.New("invalid mesh")

// floats per vertex: position(3) uv(2) normal(3)
const vertexStride = 8

// Mesh is indexed triangle geometry. Buffers are uploaded lazily by the renderer and shared
// between windows.
type Mesh struct {
	// HOT DATA
	VBO      uint32
	EBO      uint32
	uploaded bool

	BoundingSphereCenter mgl32.Vec3 // local space
	BoundingSphereRadius float32

	// COLD DATA
	Name            string
	InterleavedData []float32
	Faces           []uint32
}

// NewMesh interleaves the vertex attributes. normals and uvs may be nil; indices may be nil for
// non-indexed triangle lists.
func NewMesh(name string, positions []mgl32.Vec3, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) (*Mesh, error) {
	n := len(positions)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s has no positions", ErrInvalidMesh, name)
	}
	if normals != nil && len(normals) != n {
		return nil, fmt.Errorf("%w: %s has %d normals for %d positions", ErrInvalidMesh, name, len(normals), n)
	}
	if uvs != nil && len(uvs) != n {
		return nil, fmt.Errorf("%w: %s has %d uvs for %d positions", ErrInvalidMesh, name, len(uvs), n)
	}
	if indices == nil {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %s index count %d is not a triangle list", ErrInvalidMesh, name, len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= n {
			return nil, fmt.Errorf("%w: %s index %d out of range", ErrInvalidMesh, name, idx)
		}
	}

	data := make([]float32, 0, n*vertexStride)
	for i, p := range positions {
		data = append(data, p.X(), p.Y(), p.Z())
		if uvs != nil {
			data = append(data, uvs[i].X(), uvs[i].Y())
		} else {
			data = append(data, 0, 0)
		}
		if normals != nil {
			data = append(data, normals[i].X(), normals[i].Y(), normals[i].Z())
		} else {
			data = append(data, 0, 1, 0)
		}
	}

	m := &Mesh{Name: name, InterleavedData: data, Faces: indices}
	m.CalculateBoundingSphere()
	return m, nil
}

func (m *Mesh) VertexCount() int {
	return len(m.InterleavedData) / vertexStride
}

func (m *Mesh) Position(i int) mgl32.Vec3 {
	o := i * vertexStride
	return mgl32.Vec3{m.InterleavedData[o], m.InterleavedData[o+1], m.InterleavedData[o+2]}
}

func (m *Mesh) Normal(i int) mgl32.Vec3 {
	o := i*vertexStride + 5
	return mgl32.Vec3{m.InterleavedData[o], m.InterleavedData[o+1], m.InterleavedData[o+2]}
}

// CalculateBoundingSphere fits a sphere around the axis-aligned bounds.
func (m *Mesh) CalculateBoundingSphere() {
	n := m.VertexCount()
	if n == 0 {
		return
	}
	lo, hi := m.Position(0), m.Position(0)
	for i := 1; i < n; i++ {
		p := m.Position(i)
		for k := 0; k < 3; k++ {
			lo[k] = float32(math.Min(float64(lo[k]), float64(p[k])))
			hi[k] = float32(math.Max(float64(hi[k]), float64(p[k])))
		}
	}
	center := lo.Add(hi).Mul(0.5)
	var maxDistanceSq float32
	for i := 0; i < n; i++ {
		if d := m.Position(i).Sub(center).LenSqr(); d > maxDistanceSq {
			maxDistanceSq = d
		}
	}
	m.BoundingSphereCenter = center
	m.BoundingSphereRadius = float32(math.Sqrt(float64(maxDistanceSq)))
}

// MeshRenderer draws a mesh with a material at the owning object's world transform.
type MeshRenderer struct {
	behaviour.BaseComponent
	Mesh     *Mesh
	Material Material
}

func NewMeshRenderer(mesh *Mesh, material Material) *MeshRenderer {
	return &MeshRenderer{Mesh: mesh, Material: material}
}

func (r *MeshRenderer) GetComponentType() behaviour.ComponentType {
	return behaviour.ComponentTypeMesh
}

func (r *MeshRenderer) GetTypeName() string {
	return "MeshRenderer"
}

func (r *MeshRenderer) ModelMatrix() mgl32.Mat4 {
	if obj := r.GetGameObject(); obj != nil {
		return obj.Transform.WorldMatrix()
	}
	return mgl32.Ident4()
}

// WorldBoundingSphere transforms the mesh bounds by model, scaling the radius by the largest
// axis scale.
func (r *MeshRenderer) WorldBoundingSphere(model mgl32.Mat4) (mgl32.Vec3, float32) {
	center := model.Mul4x1(r.Mesh.BoundingSphereCenter.Vec4(1)).Vec3()
	scale := float32(0)
	for c := 0; c < 3; c++ {
		if l := model.Col(c).Vec3().Len(); l > scale {
			scale = l
		}
	}
	return center, r.Mesh.BoundingSphereRadius * scale
}
