package metadata

import "github.com/go-gl/mathgl/mgl32"

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/** @brief Master list index of the default material. */
const DefaultMaterialIndex uint32 = 0

/** @brief How the alpha channel of the base color is interpreted. */
type AlphaMode uint32

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

/**
 * @brief A material: texture master indices plus scalar and vector factors.
 */
type Material struct {
	/** @brief The name of the material. */
	Name string
	/** @brief Texture master indices, one per TextureChannel. */
	Textures [TextureChannelCount]uint32
	/** @brief Multiplies the base color texture. */
	BaseColorFactor mgl32.Vec4
	/** @brief Multiplies the emission texture. */
	EmissiveFactor mgl32.Vec3
	MetallicFactor  float32
	RoughnessFactor float32
	AlphaMode       AlphaMode
	/** @brief Fragments below this alpha are discarded in AlphaModeMask. */
	AlphaCutoff float32
	DoubleSided bool
}

/** @brief DefaultMaterial references every default texture with unit factors. */
func DefaultMaterial() Material {
	m := Material{
		Name:            DefaultMaterialName,
		BaseColorFactor: mgl32.Vec4{1, 1, 1, 1},
		EmissiveFactor:  mgl32.Vec3{1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		AlphaMode:       AlphaModeOpaque,
		AlphaCutoff:     0.5,
		DoubleSided:     false,
	}
	for ch := TextureChannel(0); ch < TextureChannelCount; ch++ {
		m.Textures[ch] = DefaultTextureIndex(ch)
	}
	return m
}

/** @brief Uniform packs the material into its std430 shader layout. */
func (m *Material) Uniform() MaterialUniform {
	u := MaterialUniform{
		BaseColorFactor: m.BaseColorFactor,
		EmissiveFactor:  m.EmissiveFactor,
		MetallicFactor:  m.MetallicFactor,
		RoughnessFactor: m.RoughnessFactor,
		AlphaCutoff:     m.AlphaCutoff,
		AlphaMode:       uint32(m.AlphaMode),
		Textures:        m.Textures,
	}
	if m.DoubleSided {
		u.DoubleSided = 1
	}
	return u
}
