package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// CubeMap is the skybox: a six layer cube image with its sampler, and the
// unit cube it is drawn on.
type CubeMap struct {
	Image   *StagedImageBuffer
	View    vk.ImageView
	Sampler vk.Sampler

	Vertices   *StagedBuffer
	Indices    *StagedBuffer
	IndexCount uint32
}

// NewCubeMap uploads faces as one cube compatible image. Faces must be square
// and share one size.
func NewCubeMap(device *Device, faces *loaders.CubeFaces) (*CubeMap, error) {
	pixels, edge, err := loaders.ConcatCubeFaces(faces.Faces)
	if err != nil {
		return nil, err
	}

	cm := &CubeMap{}
	cm.Image, err = NewStagedImageBuffer(device, ImageSpec{
		Width:  edge,
		Height: edge,
		Layers: uint32(loaders.CubeFaceCount),
		Format: vk.FormatR8g8b8a8Srgb,
		Flags:  vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit),
		Tiling: vk.ImageTilingOptimal,
	}, pixels)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not upload the cube map")
	}

	if cm.View, err = cm.Image.CreateView(device, vk.ImageViewTypeCube, vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		cm.Destroy(device)
		return nil, err
	}
	if cm.Sampler, err = createSampler(device, metadata.DefaultSamplerParams()); err != nil {
		cm.Destroy(device)
		return nil, err
	}

	vertices, indices := unitCube()
	if cm.Vertices, err = NewStagedBuffer(device, metadata.VertexBytes(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
		cm.Destroy(device)
		return nil, err
	}
	if cm.Indices, err = NewStagedBuffer(device, metadata.IndexBytes(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
		cm.Destroy(device)
		return nil, err
	}
	cm.IndexCount = uint32(len(indices))
	return cm, nil
}

// unitCube is a cube of edge 2 centered at the origin. The skybox pipeline
// does not cull, so winding is irrelevant.
func unitCube() ([]metadata.PositionVertex, []uint32) {
	vertices := []metadata.PositionVertex{
		{Position: mgl32.Vec3{-1, -1, -1}},
		{Position: mgl32.Vec3{1, -1, -1}},
		{Position: mgl32.Vec3{1, 1, -1}},
		{Position: mgl32.Vec3{-1, 1, -1}},
		{Position: mgl32.Vec3{-1, -1, 1}},
		{Position: mgl32.Vec3{1, -1, 1}},
		{Position: mgl32.Vec3{1, 1, 1}},
		{Position: mgl32.Vec3{-1, 1, 1}},
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0, // -z
		4, 6, 5, 6, 4, 7, // +z
		0, 3, 7, 7, 4, 0, // -x
		1, 5, 6, 6, 2, 1, // +x
		0, 4, 5, 5, 1, 0, // -y
		3, 2, 6, 6, 7, 3, // +y
	}
	return vertices, indices
}

func (cm *CubeMap) Destroy(device *Device) {
	if cm.Indices != nil {
		cm.Indices.Destroy(device)
		cm.Indices = nil
	}
	if cm.Vertices != nil {
		cm.Vertices.Destroy(device)
		cm.Vertices = nil
	}
	if cm.Sampler != vk.NullSampler {
		vk.DestroySampler(device.LogicalDevice, cm.Sampler, nil)
		cm.Sampler = vk.NullSampler
	}
	if cm.View != vk.NullImageView {
		vk.DestroyImageView(device.LogicalDevice, cm.View, nil)
		cm.View = vk.NullImageView
	}
	if cm.Image != nil {
		cm.Image.Destroy(device)
		cm.Image = nil
	}
}
