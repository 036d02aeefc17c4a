package metadata

const (
	/** @brief Size of the fragment stage sampled image array. */
	MaxNumberTextures uint32 = 64
	/** @brief Size of the material storage buffer. */
	MaxNumberMaterials uint32 = 128
	/** @brief Declared for the point light uniform array. */
	MaxNumberPointLights uint32 = 16
	/** @brief Declared for the spot light uniform array. */
	MaxNumberSpotLights uint32 = 16
)
