package loaders

// ResourceType identifies which loader handles an asset.
type ResourceType int

const (
	ResourceTypeShader ResourceType = iota
	ResourceTypeImage
	ResourceTypeModel
	ResourceTypeCubeMap
)

func (r ResourceType) String() string {
	switch r {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeModel:
		return "model"
	case ResourceTypeCubeMap:
		return "cubemap"
	default:
		return "unknown"
	}
}

// Resource is the result of a loader. Data holds the typed payload:
// []byte for shaders, *image.NRGBA for images, *ModelData for models and
// *CubeFaces for cube maps.
type Resource struct {
	Name     string
	FullPath string
	Type     ResourceType
	DataSize uint64
	Data     interface{}
}

type Loader interface {
	Load(path string, params interface{}) (*Resource, error)
}
