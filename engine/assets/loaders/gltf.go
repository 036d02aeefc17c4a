package loaders

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/palantir/stacktrace"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/quartz/engine/core"
	qmath "github.com/spaghettifunk/quartz/engine/math"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

type ModelLoader struct{}

// Load decodes a .gltf or .glb file.
func (ml *ModelLoader) Load(path string, params interface{}) (*Resource, error) {
	model, err := LoadGLTF(path)
	if err != nil {
		return nil, err
	}
	var size uint64
	for _, mesh := range model.Meshes {
		size += uint64(len(mesh.Vertices))*uint64(metadata.VertexSize) + uint64(len(mesh.Indices))*4
	}
	for _, tex := range model.Textures {
		size += uint64(len(tex.Pixels))
	}
	return &Resource{
		Name:     model.Name,
		FullPath: path,
		Type:     ResourceTypeModel,
		DataSize: size,
		Data:     model,
	}, nil
}

// LoadGLTF opens a text or binary GLTF file, chosen by extension.
func LoadGLTF(path string) (*ModelData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".gltf" && ext != ".glb" {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "unsupported model extension '%s' for '%s'", ext, path)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not parse model '%s'", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	model, err := DecodeDocument(doc, filepath.Dir(path), name)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not decode model '%s'", path)
	}
	core.LogInfo("loaded model '%s': %d meshes, %d materials, %d textures, %d nodes",
		name, len(model.Meshes), len(model.Materials), len(model.Textures), len(model.Nodes))
	return model, nil
}

// DecodeDocument turns a parsed document into ModelData. dir resolves
// external image URIs.
func DecodeDocument(doc *gltf.Document, dir, name string) (*ModelData, error) {
	d := &documentDecoder{doc: doc, dir: dir}
	model := &ModelData{Name: name}

	materials, srgb := d.materials()
	model.Materials = materials

	textures, err := d.textures(srgb)
	if err != nil {
		return nil, err
	}
	model.Textures = textures

	for i, mesh := range doc.Meshes {
		m, err := d.mesh(mesh, materials)
		if err != nil {
			return nil, stacktrace.Propagate(err, "mesh %d", i)
		}
		model.Meshes = append(model.Meshes, m)
	}

	nodes, roots, err := d.nodes()
	if err != nil {
		return nil, err
	}
	model.Nodes = nodes
	model.Roots = roots
	return model, nil
}

type documentDecoder struct {
	doc *gltf.Document
	dir string
}

func (d *documentDecoder) materials() ([]MaterialData, map[int]bool) {
	srgb := make(map[int]bool)
	out := make([]MaterialData, 0, len(d.doc.Materials))
	for _, gm := range d.doc.Materials {
		md := MaterialData{Material: metadata.DefaultMaterial()}
		for ch := range md.Textures {
			md.Textures[ch] = NoIndex
		}

		mat := &md.Material
		mat.Name = gm.Name
		if mat.Name == "" {
			mat.Name = uuid.NewString()
		}
		mat.EmissiveFactor = qmath.Vec3FromArray(gm.EmissiveFactor)
		mat.DoubleSided = gm.DoubleSided
		switch gm.AlphaMode {
		case gltf.AlphaMask:
			mat.AlphaMode = metadata.AlphaModeMask
		case gltf.AlphaBlend:
			mat.AlphaMode = metadata.AlphaModeBlend
		default:
			mat.AlphaMode = metadata.AlphaModeOpaque
		}
		if gm.AlphaCutoff != nil {
			mat.AlphaCutoff = float32(*gm.AlphaCutoff)
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				mat.BaseColorFactor = qmath.Vec4FromArray(*pbr.BaseColorFactor)
			}
			if pbr.MetallicFactor != nil {
				mat.MetallicFactor = float32(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				mat.RoughnessFactor = float32(*pbr.RoughnessFactor)
			}
			if pbr.BaseColorTexture != nil {
				md.Textures[metadata.TextureChannelBaseColor] = pbr.BaseColorTexture.Index
				srgb[pbr.BaseColorTexture.Index] = true
			}
			if pbr.MetallicRoughnessTexture != nil {
				md.Textures[metadata.TextureChannelMetallicRoughness] = pbr.MetallicRoughnessTexture.Index
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			md.Textures[metadata.TextureChannelNormal] = *gm.NormalTexture.Index
		}
		if gm.EmissiveTexture != nil {
			md.Textures[metadata.TextureChannelEmission] = gm.EmissiveTexture.Index
			srgb[gm.EmissiveTexture.Index] = true
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			md.Textures[metadata.TextureChannelOcclusion] = *gm.OcclusionTexture.Index
		}

		for ch, idx := range md.Textures {
			if idx != NoIndex && (idx < 0 || idx >= len(d.doc.Textures)) {
				core.LogWarn("material '%s' references missing texture %d, using default", mat.Name, idx)
				md.Textures[ch] = NoIndex
			}
		}
		out = append(out, md)
	}
	return out, srgb
}

// texCoordSet returns the TEXCOORD_n set a material channel samples with.
func (d *documentDecoder) texCoordSet(material int, channel metadata.TextureChannel) int {
	if material < 0 || material >= len(d.doc.Materials) {
		return 0
	}
	gm := d.doc.Materials[material]
	switch channel {
	case metadata.TextureChannelBaseColor:
		if gm.PBRMetallicRoughness != nil && gm.PBRMetallicRoughness.BaseColorTexture != nil {
			return gm.PBRMetallicRoughness.BaseColorTexture.TexCoord
		}
	case metadata.TextureChannelMetallicRoughness:
		if gm.PBRMetallicRoughness != nil && gm.PBRMetallicRoughness.MetallicRoughnessTexture != nil {
			return gm.PBRMetallicRoughness.MetallicRoughnessTexture.TexCoord
		}
	case metadata.TextureChannelNormal:
		if gm.NormalTexture != nil {
			return gm.NormalTexture.TexCoord
		}
	case metadata.TextureChannelEmission:
		if gm.EmissiveTexture != nil {
			return gm.EmissiveTexture.TexCoord
		}
	case metadata.TextureChannelOcclusion:
		if gm.OcclusionTexture != nil {
			return gm.OcclusionTexture.TexCoord
		}
	}
	return 0
}

func (d *documentDecoder) textures(srgb map[int]bool) ([]metadata.TextureData, error) {
	out := make([]metadata.TextureData, 0, len(d.doc.Textures))
	for i, gt := range d.doc.Textures {
		if gt.Source == nil || *gt.Source >= len(d.doc.Images) {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "texture %d has no image source", i)
		}
		gi := d.doc.Images[*gt.Source]
		data, err := d.imageBytes(gi)
		if err != nil {
			return nil, stacktrace.Propagate(err, "texture %d", i)
		}
		img, err := DecodeRGBA(data)
		if err != nil {
			return nil, stacktrace.Propagate(err, "texture %d", i)
		}

		sampler := metadata.DefaultSamplerParams()
		if gt.Sampler != nil && *gt.Sampler < len(d.doc.Samplers) {
			sampler = samplerParams(d.doc.Samplers[*gt.Sampler])
		}

		name := gt.Name
		if name == "" {
			name = gi.Name
		}
		if name == "" {
			name = uuid.NewString()
		}
		out = append(out, TextureFromImage(name, img, srgb[i], sampler))
	}
	return out, nil
}

func (d *documentDecoder) imageBytes(img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if *img.BufferView >= len(d.doc.BufferViews) {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "image buffer view %d out of range", *img.BufferView)
		}
		data, err := modeler.ReadBufferView(d.doc, d.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read image buffer view")
		}
		return data, nil
	}
	if img.IsEmbeddedResource() {
		data, err := img.MarshalData()
		if err != nil {
			return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not decode embedded image")
		}
		return data, nil
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	data, err := os.ReadFile(filepath.Join(d.dir, uri))
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read image '%s'", uri)
	}
	return data, nil
}

func samplerParams(s *gltf.Sampler) metadata.SamplerParams {
	p := metadata.DefaultSamplerParams()
	if s.MagFilter == gltf.MagNearest {
		p.FilterMagnify = metadata.TextureFilterModeNearest
	}
	switch s.MinFilter {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		p.FilterMinify = metadata.TextureFilterModeNearest
	}
	switch s.MinFilter {
	case gltf.MinNearestMipMapNearest, gltf.MinLinearMipMapNearest:
		p.FilterMipmap = metadata.TextureFilterModeNearest
	}
	p.RepeatU = repeatMode(s.WrapS)
	p.RepeatV = repeatMode(s.WrapT)
	return p
}

func repeatMode(w gltf.WrappingMode) metadata.TextureRepeat {
	switch w {
	case gltf.WrapClampToEdge:
		return metadata.TextureRepeatClampToEdge
	case gltf.WrapMirroredRepeat:
		return metadata.TextureRepeatMirroredRepeat
	default:
		return metadata.TextureRepeatRepeat
	}
}

func (d *documentDecoder) accessor(index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(d.doc.Accessors) {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "accessor %d out of range", index)
	}
	return d.doc.Accessors[index], nil
}

func (d *documentDecoder) mesh(gm *gltf.Mesh, materials []MaterialData) (MeshData, error) {
	mesh := MeshData{Name: gm.Name}
	for p, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			core.LogWarn("mesh '%s' primitive %d is not a triangle list, skipping", gm.Name, p)
			continue
		}
		material := NoIndex
		if prim.Material != nil && *prim.Material < len(materials) {
			material = *prim.Material
		}

		vertices, indices, err := d.primitive(prim, material, materials)
		if err != nil {
			return MeshData{}, stacktrace.Propagate(err, "primitive %d", p)
		}

		base := uint32(len(mesh.Vertices))
		start := uint32(len(mesh.Indices))
		for _, idx := range indices {
			mesh.Indices = append(mesh.Indices, base+idx)
		}
		mesh.Vertices = append(mesh.Vertices, vertices...)
		mesh.Primitives = append(mesh.Primitives, PrimitiveData{
			IndexStart: start,
			IndexCount: uint32(len(indices)),
			Material:   material,
		})
	}
	if len(mesh.Primitives) == 0 {
		return MeshData{}, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "mesh '%s' has no drawable primitives", gm.Name)
	}
	return mesh, nil
}

func (d *documentDecoder) primitive(prim *gltf.Primitive, material int, materials []MaterialData) ([]metadata.Vertex, []uint32, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "missing required attribute %s", gltf.POSITION)
	}
	normIdx, ok := prim.Attributes[gltf.NORMAL]
	if !ok {
		return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "missing required attribute %s", gltf.NORMAL)
	}

	acr, err := d.accessor(posIdx)
	if err != nil {
		return nil, nil, err
	}
	positions, err := modeler.ReadPosition(d.doc, acr, nil)
	if err != nil {
		return nil, nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read %s", gltf.POSITION)
	}
	acr, err = d.accessor(normIdx)
	if err != nil {
		return nil, nil, err
	}
	normals, err := modeler.ReadNormal(d.doc, acr, nil)
	if err != nil {
		return nil, nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read %s", gltf.NORMAL)
	}
	if len(normals) != len(positions) {
		return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "%d normals for %d positions", len(normals), len(positions))
	}

	vertices := make([]metadata.Vertex, len(positions))
	for i := range vertices {
		vertices[i].Position = positions[i]
		vertices[i].Normal = normals[i]
		vertices[i].Color = mgl32.Vec3{1, 1, 1}
	}

	indices, err := d.indices(prim, len(positions))
	if err != nil {
		return nil, nil, err
	}

	if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		acr, err := d.accessor(colIdx)
		if err != nil {
			return nil, nil, err
		}
		colors, err := modeler.ReadColor(d.doc, acr, nil)
		if err != nil {
			return nil, nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read %s", gltf.COLOR_0)
		}
		for i := 0; i < len(colors) && i < len(vertices); i++ {
			vertices[i].Color = mgl32.Vec3{float32(colors[i][0]) / 255, float32(colors[i][1]) / 255, float32(colors[i][2]) / 255}
		}
	}

	for ch := metadata.TextureChannel(0); ch < metadata.TextureChannelCount; ch++ {
		if material == NoIndex || !materials[material].Uses(ch) {
			continue
		}
		attr := fmt.Sprintf("TEXCOORD_%d", d.texCoordSet(material, ch))
		uvIdx, ok := prim.Attributes[attr]
		if !ok {
			continue
		}
		acr, err := d.accessor(uvIdx)
		if err != nil {
			return nil, nil, err
		}
		uvs, err := modeler.ReadTextureCoord(d.doc, acr, nil)
		if err != nil {
			return nil, nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read %s", attr)
		}
		for i := 0; i < len(uvs) && i < len(vertices); i++ {
			vertices[i].UV[ch] = uvs[i]
		}
	}

	if tanIdx, ok := prim.Attributes[gltf.TANGENT]; ok {
		acr, err := d.accessor(tanIdx)
		if err != nil {
			return nil, nil, err
		}
		tangents, err := modeler.ReadTangent(d.doc, acr, nil)
		if err != nil {
			return nil, nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read %s", gltf.TANGENT)
		}
		for i := 0; i < len(tangents) && i < len(vertices); i++ {
			vertices[i].Tangent = mgl32.Vec3{tangents[i][0], tangents[i][1], tangents[i][2]}
		}
	} else {
		pos := make([]mgl32.Vec3, len(vertices))
		nor := make([]mgl32.Vec3, len(vertices))
		uvs := make([]mgl32.Vec2, len(vertices))
		for i, v := range vertices {
			pos[i] = v.Position
			nor[i] = v.Normal
			uvs[i] = v.UV[metadata.TextureChannelBaseColor]
		}
		for i, t := range qmath.GenerateTangents(pos, nor, uvs, indices) {
			vertices[i].Tangent = t
		}
	}
	return vertices, indices, nil
}

// indices reads the index accessor, or generates a sequential list for
// non-indexed primitives. Every index is checked against the vertex count.
func (d *documentDecoder) indices(prim *gltf.Primitive, vertexCount int) ([]uint32, error) {
	var indices []uint32
	if prim.Indices == nil {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	} else {
		acr, err := d.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		switch acr.ComponentType {
		case gltf.ComponentUint, gltf.ComponentUshort, gltf.ComponentUbyte:
		default:
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "unsupported index component type %s", acr.ComponentType)
		}
		indices, err = modeler.ReadIndices(d.doc, acr, nil)
		if err != nil {
			return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read indices")
		}
	}
	for _, idx := range indices {
		if int(idx) >= vertexCount {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "index %d out of range for %d vertices", idx, vertexCount)
		}
	}
	return indices, nil
}

func (d *documentDecoder) nodes() ([]NodeData, []int, error) {
	nodes := make([]NodeData, len(d.doc.Nodes))
	for i, gn := range d.doc.Nodes {
		mesh := NoIndex
		if gn.Mesh != nil && *gn.Mesh < len(d.doc.Meshes) {
			mesh = *gn.Mesh
		}
		nodes[i] = NodeData{
			Name:   gn.Name,
			Mesh:   mesh,
			Parent: NoIndex,
			Local:  qmath.NodeLocalMatrix(gn.Matrix, gn.Translation, gn.Rotation, gn.Scale),
		}
	}
	for i, gn := range d.doc.Nodes {
		for _, child := range gn.Children {
			if child < 0 || child >= len(nodes) || child == i {
				return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "node %d has invalid child %d", i, child)
			}
			if nodes[child].Parent != NoIndex {
				return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "node %d has more than one parent", child)
			}
			nodes[child].Parent = i
			nodes[i].Children = append(nodes[i].Children, child)
		}
	}
	// a chain of parents that loops never reaches a root
	for i := range nodes {
		steps := 0
		for p := nodes[i].Parent; p != NoIndex; p = nodes[p].Parent {
			if steps++; steps > len(nodes) {
				return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "node %d is part of a cycle", i)
			}
		}
	}

	var roots []int
	if len(d.doc.Scenes) > 0 {
		scene := 0
		if d.doc.Scene != nil && *d.doc.Scene < len(d.doc.Scenes) {
			scene = *d.doc.Scene
		}
		for _, n := range d.doc.Scenes[scene].Nodes {
			if n < 0 || n >= len(nodes) {
				return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "scene %d references missing node %d", scene, n)
			}
			roots = append(roots, n)
		}
	} else {
		for i := range nodes {
			if nodes[i].Parent == NoIndex {
				roots = append(roots, i)
			}
		}
	}
	return nodes, roots, nil
}
