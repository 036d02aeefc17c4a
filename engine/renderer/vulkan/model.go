package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// Primitive is a slice of its mesh's index buffer drawn with one material.
type Primitive struct {
	IndexStart uint32
	IndexCount uint32
	// Material is a MaterialList index.
	Material uint32
}

// Mesh owns one vertex and one index buffer shared by its primitives.
type Mesh struct {
	Name        string
	Vertices    *StagedBuffer
	Indices     *StagedBuffer
	VertexCount uint32
	IndexCount  uint32
	Primitives  []Primitive
}

// Model is a GLTF model resident on the GPU. Its node tree is an arena of
// loaders.NodeData, with parents referenced by index.
type Model struct {
	Name   string
	Meshes []*Mesh

	// TextureIndices maps document texture indices to TextureList indices.
	TextureIndices []uint32
	// MaterialIndices maps document material indices to MaterialList indices.
	MaterialIndices []uint32

	graph loaders.ModelData
}

// LoadModel registers the model's textures and materials in the master lists
// and uploads every mesh.
func LoadModel(device *Device, data *loaders.ModelData, textures *TextureList, materials *MaterialList) (*Model, error) {
	m := &Model{
		Name:  data.Name,
		graph: loaders.ModelData{Name: data.Name, Nodes: data.Nodes, Roots: data.Roots},
	}

	var err error
	if m.TextureIndices, m.MaterialIndices, err = registerModelAssets(device, data, textures, materials); err != nil {
		return nil, err
	}

	for i := range data.Meshes {
		mesh, err := uploadMesh(device, &data.Meshes[i], m.MaterialIndices)
		if err != nil {
			m.Destroy(device)
			return nil, stacktrace.Propagate(err, "could not upload mesh %d of '%s'", i, data.Name)
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	core.LogInfo("Model '%s' loaded: %d meshes, %d nodes, %d textures, %d materials.",
		m.Name, len(m.Meshes), len(m.graph.Nodes), len(m.TextureIndices), len(m.MaterialIndices))
	return m, nil
}

// registerModelAssets appends the document's textures and then its materials,
// with material textures resolved to master indices. Channels without a
// document texture use the channel default.
func registerModelAssets(device *Device, data *loaders.ModelData, textures *TextureList, materials *MaterialList) ([]uint32, []uint32, error) {
	textureIndices := make([]uint32, len(data.Textures))
	for i := range data.Textures {
		index, err := textures.CreateTexture(device, &data.Textures[i])
		if err != nil {
			return nil, nil, err
		}
		textureIndices[i] = index
	}

	materialIndices := make([]uint32, len(data.Materials))
	for i, md := range data.Materials {
		material := md.Material
		for ch := metadata.TextureChannel(0); ch < metadata.TextureChannelCount; ch++ {
			local := md.Textures[ch]
			switch {
			case local == loaders.NoIndex:
				material.Textures[ch] = metadata.DefaultTextureIndex(ch)
			case local < 0 || local >= len(textureIndices):
				return nil, nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad,
					"material %d references missing texture %d for %s", i, local, ch)
			default:
				material.Textures[ch] = textureIndices[local]
			}
		}
		index, err := materials.CreateMaterial(material)
		if err != nil {
			return nil, nil, err
		}
		materialIndices[i] = index
	}
	return textureIndices, materialIndices, nil
}

// resolvePrimitives checks that every primitive stays inside the mesh buffers
// and maps its material to a master index.
func resolvePrimitives(data *loaders.MeshData, materialIndices []uint32) ([]Primitive, error) {
	vertexCount := uint32(len(data.Vertices))
	indexCount := uint32(len(data.Indices))
	for i, index := range data.Indices {
		if index >= vertexCount {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad,
				"mesh '%s' index %d references vertex %d of %d", data.Name, i, index, vertexCount)
		}
	}

	primitives := make([]Primitive, 0, len(data.Primitives))
	for i, p := range data.Primitives {
		if p.IndexStart+p.IndexCount > indexCount {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad,
				"mesh '%s' primitive %d covers indices [%d, %d) of %d", data.Name, i, p.IndexStart, p.IndexStart+p.IndexCount, indexCount)
		}
		material := metadata.DefaultMaterialIndex
		if p.Material != loaders.NoIndex {
			if p.Material < 0 || p.Material >= len(materialIndices) {
				return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad,
					"mesh '%s' primitive %d references missing material %d", data.Name, i, p.Material)
			}
			material = materialIndices[p.Material]
		}
		primitives = append(primitives, Primitive{IndexStart: p.IndexStart, IndexCount: p.IndexCount, Material: material})
	}
	return primitives, nil
}

func uploadMesh(device *Device, data *loaders.MeshData, materialIndices []uint32) (*Mesh, error) {
	primitives, err := resolvePrimitives(data, materialIndices)
	if err != nil {
		return nil, err
	}
	mesh := &Mesh{
		Name:        data.Name,
		VertexCount: uint32(len(data.Vertices)),
		IndexCount:  uint32(len(data.Indices)),
		Primitives:  primitives,
	}
	if mesh.IndexCount == 0 {
		return mesh, nil
	}
	if mesh.Vertices, err = NewStagedBuffer(device, metadata.VertexBytes(data.Vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
		return nil, err
	}
	if mesh.Indices, err = NewStagedBuffer(device, metadata.IndexBytes(data.Indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
		mesh.Destroy(device)
		return nil, err
	}
	return mesh, nil
}

func (m *Mesh) Destroy(device *Device) {
	if m.Indices != nil {
		m.Indices.Destroy(device)
		m.Indices = nil
	}
	if m.Vertices != nil {
		m.Vertices.Destroy(device)
		m.Vertices = nil
	}
}

// Nodes is the node arena.
func (m *Model) Nodes() []loaders.NodeData {
	return m.graph.Nodes
}

// WorldTransform multiplies the ancestor local transforms of node, root first.
func (m *Model) WorldTransform(node int) mgl32.Mat4 {
	return m.graph.WorldTransform(node)
}

// Walk visits the scene nodes in pre-order from the roots.
func (m *Model) Walk(fn func(node int)) {
	m.graph.Walk(fn)
}

func (m *Model) Destroy(device *Device) {
	for _, mesh := range m.Meshes {
		mesh.Destroy(device)
	}
	m.Meshes = nil
}
