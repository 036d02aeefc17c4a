package metadata

import "github.com/go-gl/mathgl/mgl32"

// Layouts in this file mirror the shader blocks; vec3 members are padded to
// 16 bytes.

/** @brief Camera block, binding 0. */
type CameraUniform struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
	_          float32
}

/** @brief Ambient light block, binding 1. */
type AmbientLightUniform struct {
	Color mgl32.Vec3
	_     float32
}

/** @brief Directional light block, binding 2. */
type DirectionalLightUniform struct {
	Color     mgl32.Vec3
	_         float32
	Direction mgl32.Vec3
	_         float32
}

/** @brief Point light layout, declared for the light arrays. */
type PointLightUniform struct {
	Color     mgl32.Vec3
	Constant  float32
	Position  mgl32.Vec3
	Linear    float32
	Quadratic float32
	_         [3]float32
}

/** @brief Spot light layout, declared for the light arrays. */
type SpotLightUniform struct {
	Color       mgl32.Vec3
	CutOff      float32
	Position    mgl32.Vec3
	OuterCutOff float32
	Direction   mgl32.Vec3
	_           float32
}

/** @brief One element of the material storage buffer, binding 5. */
type MaterialUniform struct {
	BaseColorFactor mgl32.Vec4
	EmissiveFactor  mgl32.Vec3
	MetallicFactor  float32
	RoughnessFactor float32
	AlphaCutoff     float32
	AlphaMode       uint32
	DoubleSided     uint32
	Textures        [TextureChannelCount]uint32
	_               [3]uint32
}

/** @brief Push constant block shared by the vertex and fragment stages. */
type PushConstants struct {
	Model         mgl32.Mat4
	MaterialIndex uint32
}

const (
	/** @brief Offset of the model matrix in the push constant block. */
	PushConstantModelOffset uint32 = 0
	/** @brief Size of the model matrix. */
	PushConstantModelSize uint32 = 64
	/** @brief Offset of the material index in the push constant block. */
	PushConstantMaterialOffset uint32 = 64
	/** @brief Size of the material index. */
	PushConstantMaterialSize uint32 = 4
)
