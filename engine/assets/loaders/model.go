package loaders

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// NoIndex marks an absent local reference (no mesh, no parent, default texture).
const NoIndex = -1

// ModelData is a decoded GLTF model with every index local to the document.
type ModelData struct {
	Name      string
	Textures  []metadata.TextureData
	Materials []MaterialData
	Meshes    []MeshData
	// Nodes is an arena; parents and children are indices into it.
	Nodes []NodeData
	// Roots are the nodes of the selected scene.
	Roots []int
}

// MaterialData is a material whose textures still point at ModelData.Textures.
type MaterialData struct {
	// Material carries the factors; its Textures field is filled on upload.
	Material metadata.Material
	// Textures holds a local texture index per channel, or NoIndex.
	Textures [metadata.TextureChannelCount]int
}

// Uses reports whether the material samples a model texture for channel.
func (m *MaterialData) Uses(channel metadata.TextureChannel) bool {
	return m.Textures[channel] != NoIndex
}

// MeshData holds the concatenated vertices and indices of all primitives.
type MeshData struct {
	Name       string
	Vertices   []metadata.Vertex
	Indices    []uint32
	Primitives []PrimitiveData
}

// PrimitiveData is a slice of the mesh index buffer drawn with one material.
type PrimitiveData struct {
	IndexStart uint32
	IndexCount uint32
	// Material is a local material index, or NoIndex for the default material.
	Material int
}

type NodeData struct {
	Name     string
	Mesh     int
	Parent   int
	Children []int
	Local    mgl32.Mat4
}

// WorldTransform multiplies the local transforms from the root down to node.
func (m *ModelData) WorldTransform(node int) mgl32.Mat4 {
	world := mgl32.Ident4()
	for i := node; i != NoIndex; i = m.Nodes[i].Parent {
		world = m.Nodes[i].Local.Mul4(world)
	}
	return world
}

// Walk visits the scene nodes in pre-order.
func (m *ModelData) Walk(fn func(node int)) {
	var visit func(int)
	visit = func(i int) {
		fn(i)
		for _, child := range m.Nodes[i].Children {
			visit(child)
		}
	}
	for _, root := range m.Roots {
		visit(root)
	}
}
