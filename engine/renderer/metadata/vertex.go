package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief A texture channel a material can sample from. Each channel has its
 * own texture coordinate set in the vertex.
 */
type TextureChannel int

const (
	TextureChannelBaseColor TextureChannel = iota
	TextureChannelMetallicRoughness
	TextureChannelNormal
	TextureChannelEmission
	TextureChannelOcclusion
	TextureChannelCount
)

func (t TextureChannel) String() string {
	switch t {
	case TextureChannelBaseColor:
		return "base_color"
	case TextureChannelMetallicRoughness:
		return "metallic_roughness"
	case TextureChannelNormal:
		return "normal"
	case TextureChannelEmission:
		return "emission"
	case TextureChannelOcclusion:
		return "occlusion"
	default:
		return "unknown"
	}
}

/**
 * @brief The vertex layout shared by every mesh. Fields are packed without
 * padding and match the vertex input attributes of the main pipeline.
 */
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	Color    mgl32.Vec3
	/** @brief One texture coordinate per TextureChannel. */
	UV [TextureChannelCount]mgl32.Vec2
}

/** @brief Size of a Vertex in bytes. */
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

/** @brief A position-only vertex, used by the skybox cube. */
type PositionVertex struct {
	Position mgl32.Vec3
}

// VertexBytes views vertices as raw bytes without copying.
func VertexBytes[T Vertex | PositionVertex](vertices []T) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(vertices[0])) * len(vertices)
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}

// IndexBytes views 32-bit indices as raw bytes without copying.
func IndexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
}

// StructBytes views a plain value as raw bytes without copying.
func StructBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
