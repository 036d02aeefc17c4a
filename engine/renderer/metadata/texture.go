package metadata

const (
	/** @brief The default base color texture name. */
	DefaultBaseColorTextureName string = "default_BASE"
	/** @brief The default metallic roughness texture name. */
	DefaultMetallicRoughnessTextureName string = "default_MR"
	/** @brief The default normal texture name. */
	DefaultNormalTextureName string = "default_NORM"
	/** @brief The default emission texture name. */
	DefaultEmissionTextureName string = "default_EMIS"
	/** @brief The default occlusion texture name. */
	DefaultOcclusionTextureName string = "default_OCCL"
)

/** @brief Master list indices of the default textures, in insertion order. */
const (
	DefaultBaseColorTextureIndex uint32 = iota
	DefaultMetallicRoughnessTextureIndex
	DefaultNormalTextureIndex
	DefaultEmissionTextureIndex
	DefaultOcclusionTextureIndex
	DefaultTextureCount
)

/** @brief DefaultTextureIndex returns the master index of a channel's default texture. */
func DefaultTextureIndex(channel TextureChannel) uint32 {
	return uint32(channel)
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear
)

/** @brief Represents how a texture is addressed outside of [0, 1]. */
type TextureRepeat int

const (
	TextureRepeatRepeat TextureRepeat = iota
	TextureRepeatMirroredRepeat
	TextureRepeatClampToEdge
	TextureRepeatClampToBorder
)

/**
 * @brief Sampler parameters of a texture, as described by the asset.
 */
type SamplerParams struct {
	FilterMinify  TextureFilter
	FilterMagnify TextureFilter
	FilterMipmap  TextureFilter
	RepeatU       TextureRepeat
	RepeatV       TextureRepeat
	RepeatW       TextureRepeat
}

/** @brief DefaultSamplerParams is linear filtering with repeat on every axis. */
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		FilterMinify:  TextureFilterModeLinear,
		FilterMagnify: TextureFilterModeLinear,
		FilterMipmap:  TextureFilterModeLinear,
		RepeatU:       TextureRepeatRepeat,
		RepeatV:       TextureRepeatRepeat,
		RepeatW:       TextureRepeatRepeat,
	}
}

/**
 * @brief Decoded texture ready for upload. Pixels are 8-bit RGBA.
 */
type TextureData struct {
	/** @brief The texture name. */
	Name string
	/** @brief The texture width in pixels. */
	Width uint32
	/** @brief The texture height in pixels. */
	Height uint32
	/** @brief Tightly packed RGBA pixels, Width*Height*4 bytes. */
	Pixels []byte
	/** @brief Whether the pixels are sRGB encoded color. */
	SRGB bool
	/** @brief How the texture is sampled. */
	Sampler SamplerParams
}
