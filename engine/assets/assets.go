package assets

import (
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	units "github.com/docker/go-units"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/core"
)

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	Size       uint64
	LastLoaded time.Time
}

// AssetManager resolves asset names against a root directory and dispatches
// them to the loader registered for their type.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]loaders.Loader

	mutex sync.RWMutex
}

func NewAssetManager(root string) (*AssetManager, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "asset root '%s' is not accessible", root)
	}
	if !fi.IsDir() {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "asset root '%s' is not a directory", root)
	}
	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[loaders.ResourceType]loaders.Loader),
	}
	am.RegisterLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.RegisterLoader(loaders.ResourceTypeImage, &loaders.ImageLoader{})
	am.RegisterLoader(loaders.ResourceTypeModel, &loaders.ModelLoader{})
	am.RegisterLoader(loaders.ResourceTypeCubeMap, &loaders.CubeMapLoader{})
	return am, nil
}

// RegisterLoader replaces the loader used for a resource type.
func (am *AssetManager) RegisterLoader(resourceType loaders.ResourceType, loader loaders.Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[resourceType] = loader
}

// Resolve maps a name relative to the asset root to a path. Absolute paths
// are returned unchanged.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(am.root, name)
}

// LoadAsset loads name with the loader registered for resourceType.
func (am *AssetManager) LoadAsset(name string, resourceType loaders.ResourceType, params interface{}) (*loaders.Resource, error) {
	am.mutex.RLock()
	loader, exists := am.loaders[resourceType]
	am.mutex.RUnlock()
	if !exists {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "no loader registered for asset type %s", resourceType)
	}

	path := am.Resolve(name)
	res, err := loader.Load(path, params)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not load %s '%s'", resourceType, name)
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       resourceType,
		Size:       res.DataSize,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()

	core.LogDebug("loaded %s '%s' (%s)", resourceType, name, units.BytesSize(float64(res.DataSize)))
	return res, nil
}

// LoadShader returns validated SPIR-V words as bytes.
func (am *AssetManager) LoadShader(name string) ([]byte, error) {
	res, err := am.LoadAsset(name, loaders.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.([]byte), nil
}

func (am *AssetManager) LoadImage(name string) (*image.NRGBA, error) {
	res, err := am.LoadAsset(name, loaders.ResourceTypeImage, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*image.NRGBA), nil
}

func (am *AssetManager) LoadModel(name string) (*loaders.ModelData, error) {
	res, err := am.LoadAsset(name, loaders.ResourceTypeModel, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*loaders.ModelData), nil
}

// LoadCubeMap loads six faces given relative to the asset root, in
// {posX, negX, posY, negY, posZ, negZ} order.
func (am *AssetManager) LoadCubeMap(faces [loaders.CubeFaceCount]string) (*loaders.CubeFaces, error) {
	var paths [loaders.CubeFaceCount]string
	for i, f := range faces {
		paths[i] = am.Resolve(f)
	}
	res, err := am.LoadAsset(faces[0], loaders.ResourceTypeCubeMap, paths)
	if err != nil {
		return nil, err
	}
	return res.Data.(*loaders.CubeFaces), nil
}

// Loaded returns what is known about a previously loaded asset.
func (am *AssetManager) Loaded(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[am.Resolve(name)]
	return info, ok
}

// TotalSize sums the payload size of every asset loaded so far.
func (am *AssetManager) TotalSize() uint64 {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var total uint64
	for _, info := range am.assets {
		total += info.Size
	}
	return total
}
