package loader

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"Skyview/internal/assets"
	"Skyview/internal/behaviour"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

var (
	ErrBadSceneLabel = errors.New("bad scene label")
	ErrNoSuchScene   = errors.New("scene not found")
)

const unlitExtension = "KHR_materials_unlit"

// TextureLoader requests image assets by path relative to the asset root.
type TextureLoader interface {
	Load(p string) assets.Handle
}

// SceneRef is a glTF file plus the scene to instantiate, written "file.gltf#Scene2".
// Scene is -1 when the label is absent and the document's default scene is used.
type SceneRef struct {
	File  string
	Scene int
}

func ParseSceneRef(ref string) (SceneRef, error) {
	file, label, found := strings.Cut(ref, "#")
	if file == "" {
		return SceneRef{}, fmt.Errorf("%w: %q has no file", ErrBadSceneLabel, ref)
	}
	if !found {
		return SceneRef{File: file, Scene: -1}, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(label, "Scene"))
	if !strings.HasPrefix(label, "Scene") || err != nil || n < 0 {
		return SceneRef{}, fmt.Errorf("%w: %q", ErrBadSceneLabel, label)
	}
	return SceneRef{File: file, Scene: n}, nil
}

// LoadScene opens the glTF file named by ref under root and builds its scene. Textures are
// requested from textures and stream in after the meshes are already drawable.
func LoadScene(root, ref string, textures TextureLoader) (*behaviour.GameObject, error) {
	sr, err := ParseSceneRef(ref)
	if err != nil {
		return nil, err
	}

	doc, err := gltf.Open(filepath.Join(root, filepath.FromSlash(sr.File)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sr.File, err)
	}

	obj, err := BuildScene(doc, sr.Scene, path.Dir(sr.File), textures)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	logger.Log.Info("Scene loaded",
		zap.String("file", sr.File),
		zap.String("scene", obj.Name),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("materials", len(doc.Materials)))
	return obj, nil
}

// BuildScene instantiates scene index of doc as a hierarchy under a single root object.
// dir is the asset-relative directory image URIs resolve against.
func BuildScene(doc *gltf.Document, index int, dir string, textures TextureLoader) (*behaviour.GameObject, error) {
	if index < 0 {
		index = 0
		if doc.Scene != nil {
			index = int(*doc.Scene)
		}
	}
	if index >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: Scene%d of %d", ErrNoSuchScene, index, len(doc.Scenes))
	}
	scene := doc.Scenes[index]

	b := &builder{
		doc:       doc,
		dir:       dir,
		textures:  textures,
		materials: make(map[int]*renderer.StandardMaterial),
		meshes:    make(map[int][]primitive),
		visiting:  make(map[int]bool),
	}

	name := scene.Name
	if name == "" {
		name = fmt.Sprintf("Scene%d", index)
	}
	root := behaviour.NewGameObject(name)
	for _, n := range scene.Nodes {
		child, err := b.node(int(n))
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}
	return root, nil
}

type primitive struct {
	mesh     *renderer.Mesh
	material *renderer.StandardMaterial
}

type builder struct {
	doc       *gltf.Document
	dir       string
	textures  TextureLoader
	materials map[int]*renderer.StandardMaterial
	meshes    map[int][]primitive
	visiting  map[int]bool
}

func (b *builder) node(i int) (*behaviour.GameObject, error) {
	if i < 0 || i >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", i)
	}
	if b.visiting[i] {
		return nil, fmt.Errorf("node %d is its own ancestor", i)
	}
	b.visiting[i] = true
	defer delete(b.visiting, i)

	n := b.doc.Nodes[i]
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("Node%d", i)
	}
	obj := behaviour.NewGameObject(name)
	obj.Transform.Position, obj.Transform.Rotation, obj.Transform.Scale = nodeTransform(n)

	if n.Mesh != nil {
		prims, err := b.mesh(int(*n.Mesh))
		if err != nil {
			return nil, err
		}
		for _, p := range prims {
			obj.AddComponent(renderer.NewMeshRenderer(p.mesh, p.material))
		}
	}

	for _, c := range n.Children {
		child, err := b.node(int(c))
		if err != nil {
			return nil, err
		}
		obj.AddChild(child)
	}
	return obj, nil
}

// nodeTransform prefers a non-identity matrix over the TRS properties, as exporters write one
// or the other.
func nodeTransform(n *gltf.Node) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	var m mgl32.Mat4
	for k, v := range n.Matrix {
		m[k] = float32(v)
	}
	if m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return decompose(m)
	}

	pos := mgl32.Vec3{float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2])}
	rot := mgl32.Quat{
		W: float32(n.Rotation[3]),
		V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
	}
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	scale := mgl32.Vec3{float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2])}
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	return pos, rot.Normalize(), scale
}

// decompose splits a column-major TRS matrix. Shear is dropped.
func decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	pos := m.Col(3).Vec3()
	scale := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}
	var r mgl32.Mat4
	for c := 0; c < 3; c++ {
		if scale[c] == 0 {
			return pos, mgl32.QuatIdent(), scale
		}
		r.SetCol(c, m.Col(c).Mul(1/scale[c]))
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return pos, mgl32.Mat4ToQuat(r).Normalize(), scale
}

func (b *builder) mesh(i int) ([]primitive, error) {
	if prims, ok := b.meshes[i]; ok {
		return prims, nil
	}
	if i < 0 || i >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", i)
	}
	gm := b.doc.Meshes[i]

	var prims []primitive
	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			logger.Log.Debug("Skipping non-triangle primitive", zap.String("mesh", gm.Name), zap.Int("primitive", pi))
			continue
		}
		mesh, err := b.primitiveMesh(fmt.Sprintf("%s/%d", gm.Name, pi), p)
		if err != nil {
			return nil, err
		}
		mat := renderer.NewStandardMaterial()
		if p.Material != nil {
			if mat, err = b.material(int(*p.Material)); err != nil {
				return nil, err
			}
		}
		prims = append(prims, primitive{mesh: mesh, material: mat})
	}
	b.meshes[i] = prims
	return prims, nil
}

func (b *builder) primitiveMesh(name string, p *gltf.Primitive) (*renderer.Mesh, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%s: %w: no POSITION attribute", name, renderer.ErrInvalidMesh)
	}
	rawPos, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("%s: positions: %w", name, err)
	}
	positions := make([]mgl32.Vec3, len(rawPos))
	for k, v := range rawPos {
		positions[k] = mgl32.Vec3(v)
	}

	var indices []uint32
	if p.Indices != nil {
		if indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*p.Indices], nil); err != nil {
			return nil, fmt.Errorf("%s: indices: %w", name, err)
		}
	}

	var normals []mgl32.Vec3
	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		raw, err := modeler.ReadNormal(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("%s: normals: %w", name, err)
		}
		normals = make([]mgl32.Vec3, len(raw))
		for k, v := range raw {
			normals[k] = mgl32.Vec3(v)
		}
	} else {
		normals = RecalculateNormals(positions, indices)
	}

	var uvs []mgl32.Vec2
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		raw, err := modeler.ReadTextureCoord(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("%s: uvs: %w", name, err)
		}
		uvs = make([]mgl32.Vec2, len(raw))
		for k, v := range raw {
			uvs[k] = mgl32.Vec2(v)
		}
	}

	return renderer.NewMesh(name, positions, normals, uvs, indices)
}

func (b *builder) material(i int) (*renderer.StandardMaterial, error) {
	if mat, ok := b.materials[i]; ok {
		return mat, nil
	}
	if i < 0 || i >= len(b.doc.Materials) {
		return nil, fmt.Errorf("material %d out of range", i)
	}
	gm := b.doc.Materials[i]

	mat := renderer.NewStandardMaterial()
	mat.Name = gm.Name
	mat.DoubleSided = gm.DoubleSided
	mat.Emissive = mgl32.Vec3{float32(gm.EmissiveFactor[0]), float32(gm.EmissiveFactor[1]), float32(gm.EmissiveFactor[2])}
	if _, ok := gm.Extensions[unlitExtension]; ok {
		mat.Unlit = true
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		mat.BaseColor = mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			if h, ok := b.texture(int(pbr.BaseColorTexture.Index)); ok {
				mat.BaseColorTexture = &h
			}
		}
	}
	if gm.AlphaMode != gltf.AlphaBlend {
		mat.BaseColor[3] = 1
	}

	b.materials[i] = mat
	return mat, nil
}

// texture requests the image behind a glTF texture. Images embedded in buffers or data URIs
// are not streamed and the material renders untextured.
func (b *builder) texture(i int) (assets.Handle, bool) {
	if i < 0 || i >= len(b.doc.Textures) || b.doc.Textures[i].Source == nil {
		return assets.Handle{}, false
	}
	src := int(*b.doc.Textures[i].Source)
	if src < 0 || src >= len(b.doc.Images) {
		return assets.Handle{}, false
	}
	img := b.doc.Images[src]
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		logger.Log.Debug("Skipping embedded image", zap.String("image", img.Name), zap.Int("index", src))
		return assets.Handle{}, false
	}
	// glTF image URIs are percent-encoded relative references
	rel, err := url.PathUnescape(img.URI)
	if err != nil {
		logger.Log.Warn("Skipping image with malformed URI", zap.String("uri", img.URI), zap.Error(err))
		return assets.Handle{}, false
	}
	return b.textures.Load(path.Join(b.dir, rel)), true
}

// RecalculateNormals averages the face normals around each vertex. indices may be nil for a
// non-indexed triangle list.
func RecalculateNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	at := func(k int) int {
		if indices == nil {
			return k
		}
		return int(indices[k])
	}
	count := len(positions)
	if indices != nil {
		count = len(indices)
	}

	for k := 0; k+2 < count; k += 3 {
		i0, i1, i2 := at(k), at(k+1), at(k+2)
		if i0 >= len(positions) || i1 >= len(positions) || i2 >= len(positions) {
			continue
		}
		n := positions[i1].Sub(positions[i0]).Cross(positions[i2].Sub(positions[i0]))
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	}

	for k, n := range normals {
		if n.Len() == 0 {
			normals[k] = mgl32.Vec3{0, 1, 0}
			continue
		}
		normals[k] = n.Normalize()
	}
	return normals
}
