package loaders

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

var (
	quadPositions = [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	quadNormals   = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	quadUVs       = [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	quadIndices   = []uint16{0, 1, 2, 0, 2, 3}
)

// quadDocument builds a single quad mesh; when textured, the material samples
// a 1x1 PNG for base color.
func quadDocument(t testing.TB, textured bool) *gltf.Document {
	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Indices: ptr(modeler.WriteIndices(doc, quadIndices)),
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, quadPositions),
			gltf.NORMAL:   modeler.WriteNormal(doc, quadNormals),
		},
	}
	if textured {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, quadUVs)
		img, err := modeler.WriteImage(doc, "t1", "image/png", bytes.NewReader(encodePNG(t, solidImage(1, 1, color.NRGBA{10, 20, 30, 255}))))
		qt.Assert(t, err, qt.IsNil)
		doc.Textures = []*gltf.Texture{{Name: "T1", Source: ptr(img)}}
		doc.Materials = []*gltf.Material{{
			Name: "textured",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
				BaseColorFactor:  &[4]float64{0.5, 0.5, 0.5, 1},
			},
			AlphaMode: gltf.AlphaMask,
		}}
		prim.Material = ptr(0)
	}
	doc.Meshes = []*gltf.Mesh{{Name: "quad", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: ptr(0)}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = ptr(0)
	return doc
}

func TestDecodeDocumentRoundTrip(t *testing.T) {
	c := qt.New(t)

	model, err := DecodeDocument(quadDocument(t, false), "", "quad")
	c.Assert(err, qt.IsNil)
	c.Assert(model.Meshes, qt.HasLen, 1)

	mesh := model.Meshes[0]
	c.Assert(mesh.Vertices, qt.HasLen, 4)
	for i, v := range mesh.Vertices {
		c.Assert([3]float32(v.Position), qt.Equals, quadPositions[i])
		c.Assert([3]float32(v.Normal), qt.Equals, quadNormals[i])
		c.Assert(v.Color, qt.Equals, mgl32.Vec3{1, 1, 1})
	}
	c.Assert(mesh.Indices, qt.DeepEquals, []uint32{0, 1, 2, 0, 2, 3})
	c.Assert(mesh.Primitives, qt.DeepEquals, []PrimitiveData{{IndexStart: 0, IndexCount: 6, Material: NoIndex}})
}

func TestDecodeDocumentPrimitivesStayInBounds(t *testing.T) {
	c := qt.New(t)

	doc := quadDocument(t, false)
	second := &gltf.Primitive{
		Indices: ptr(modeler.WriteIndices(doc, []uint8{0, 1, 2})),
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			gltf.NORMAL:   modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
		},
	}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, second)

	model, err := DecodeDocument(doc, "", "two")
	c.Assert(err, qt.IsNil)
	mesh := model.Meshes[0]
	c.Assert(mesh.Vertices, qt.HasLen, 7)
	c.Assert(mesh.Primitives[1], qt.Equals, PrimitiveData{IndexStart: 6, IndexCount: 3, Material: NoIndex})
	c.Assert(mesh.Indices[6:], qt.DeepEquals, []uint32{4, 5, 6})

	for _, p := range mesh.Primitives {
		c.Assert(p.IndexStart+p.IndexCount <= uint32(len(mesh.Indices)), qt.IsTrue)
		for _, idx := range mesh.Indices[p.IndexStart : p.IndexStart+p.IndexCount] {
			c.Assert(idx < uint32(len(mesh.Vertices)), qt.IsTrue)
		}
	}
}

func TestDecodeDocumentGeneratesTangents(t *testing.T) {
	c := qt.New(t)

	model, err := DecodeDocument(quadDocument(t, true), "", "quad")
	c.Assert(err, qt.IsNil)
	for _, v := range model.Meshes[0].Vertices {
		c.Assert(v.Tangent.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5), qt.IsTrue, qt.Commentf("tangent %v", v.Tangent))
	}
}

func TestDecodeDocumentMaterialsAndTextures(t *testing.T) {
	c := qt.New(t)

	model, err := DecodeDocument(quadDocument(t, true), "", "quad")
	c.Assert(err, qt.IsNil)

	c.Assert(model.Textures, qt.HasLen, 1)
	tex := model.Textures[0]
	c.Assert(tex.Name, qt.Equals, "T1")
	c.Assert(tex.SRGB, qt.IsTrue)
	c.Assert(tex.Pixels, qt.DeepEquals, []byte{10, 20, 30, 255})
	c.Assert(tex.Sampler, qt.Equals, metadata.DefaultSamplerParams())

	c.Assert(model.Materials, qt.HasLen, 1)
	mat := model.Materials[0]
	c.Assert(mat.Uses(metadata.TextureChannelBaseColor), qt.IsTrue)
	c.Assert(mat.Uses(metadata.TextureChannelNormal), qt.IsFalse)
	c.Assert(mat.Textures[metadata.TextureChannelBaseColor], qt.Equals, 0)
	c.Assert(mat.Material.BaseColorFactor, qt.Equals, mgl32.Vec4{0.5, 0.5, 0.5, 1})
	c.Assert(mat.Material.AlphaMode, qt.Equals, metadata.AlphaModeMask)
	c.Assert(mat.Material.AlphaCutoff, qt.Equals, float32(0.5))

	// only channels the material samples get texture coordinates
	mesh := model.Meshes[0]
	c.Assert(mesh.Primitives[0].Material, qt.Equals, 0)
	for i, v := range mesh.Vertices {
		c.Assert([2]float32(v.UV[metadata.TextureChannelBaseColor]), qt.Equals, quadUVs[i])
		c.Assert(v.UV[metadata.TextureChannelNormal], qt.Equals, mgl32.Vec2{})
	}
}

func TestDecodeDocumentRequiresNormals(t *testing.T) {
	c := qt.New(t)

	doc := quadDocument(t, false)
	delete(doc.Meshes[0].Primitives[0].Attributes, gltf.NORMAL)
	_, err := DecodeDocument(doc, "", "broken")
	c.Assert(err, qt.ErrorMatches, "(?s).*missing required attribute NORMAL.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeAssetLoad)
}

func TestDecodeDocumentRejectsOutOfRangeIndices(t *testing.T) {
	c := qt.New(t)

	doc := quadDocument(t, false)
	doc.Meshes[0].Primitives[0].Indices = ptr(modeler.WriteIndices(doc, []uint32{0, 1, 9}))
	_, err := DecodeDocument(doc, "", "broken")
	c.Assert(err, qt.ErrorMatches, "(?s).*index 9 out of range for 4 vertices.*")
}

func TestDecodeDocumentNodeTree(t *testing.T) {
	c := qt.New(t)

	doc := quadDocument(t, false)
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float64{1, 0, 0}, Children: []int{1}},
		{Name: "child", Mesh: ptr(0), Translation: [3]float64{0, 2, 0}, Children: []int{2}},
		{Name: "leaf", Scale: [3]float64{3, 3, 3}},
	}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}

	model, err := DecodeDocument(doc, "", "tree")
	c.Assert(err, qt.IsNil)
	c.Assert(model.Roots, qt.DeepEquals, []int{0})
	c.Assert(model.Nodes[1].Parent, qt.Equals, 0)
	c.Assert(model.Nodes[2].Parent, qt.Equals, 1)
	c.Assert(model.Nodes[0].Mesh, qt.Equals, NoIndex)

	world := model.WorldTransform(2)
	c.Assert(world.Col(3), qt.Equals, mgl32.Vec4{1, 2, 0, 1})
	c.Assert(world.At(0, 0), qt.Equals, float32(3))

	var order []string
	model.Walk(func(n int) { order = append(order, model.Nodes[n].Name) })
	c.Assert(order, qt.DeepEquals, []string{"root", "child", "leaf"})
}

func TestDecodeDocumentRejectsSharedChildren(t *testing.T) {
	c := qt.New(t)

	doc := quadDocument(t, false)
	doc.Nodes = []*gltf.Node{
		{Children: []int{2}},
		{Children: []int{2}},
		{Mesh: ptr(0)},
	}
	_, err := DecodeDocument(doc, "", "dag")
	c.Assert(err, qt.ErrorMatches, "(?s)node 2 has more than one parent.*")
}

func TestLoadGLTFFromDisk(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	path := filepath.Join(dir, "quad.glb")
	c.Assert(gltf.SaveBinary(quadDocument(t, true), path), qt.IsNil)

	loader := &ModelLoader{}
	res, err := loader.Load(path, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Type, qt.Equals, ResourceTypeModel)
	model := res.Data.(*ModelData)
	c.Assert(model.Name, qt.Equals, "quad")
	c.Assert(model.Meshes[0].Indices, qt.HasLen, 6)

	other := filepath.Join(dir, "quad.obj")
	c.Assert(os.WriteFile(other, nil, 0o644), qt.IsNil)
	_, err = LoadGLTF(other)
	c.Assert(err, qt.ErrorMatches, "(?s)unsupported model extension '.obj'.*")
}

func TestLoadDemoCube(t *testing.T) {
	c := qt.New(t)

	md, err := LoadGLTF("../../../assets/models/cube.gltf")
	c.Assert(err, qt.IsNil)
	c.Assert(md.Meshes, qt.HasLen, 1)
	c.Assert(md.Meshes[0].Vertices, qt.HasLen, 24)
	c.Assert(md.Meshes[0].Indices, qt.HasLen, 36)
	c.Assert(md.Materials, qt.HasLen, 1)
	c.Assert(md.Materials[0].Material.Name, qt.Equals, "orange")
	c.Assert(md.Textures, qt.HasLen, 0)
	c.Assert(md.Roots, qt.DeepEquals, []int{0})
}
