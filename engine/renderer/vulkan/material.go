package vulkan

import (
	"github.com/google/uuid"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// MaterialList is the append-only material master list. Materials reference
// textures by their TextureList index.
type MaterialList struct {
	materials []metadata.Material
}

func NewMaterialList() *MaterialList {
	return &MaterialList{}
}

// InitializeDefaults empties the list and inserts the default material at
// DefaultMaterialIndex.
func (ml *MaterialList) InitializeDefaults() {
	ml.CleanUpAll()
	ml.materials = append(ml.materials, metadata.DefaultMaterial())
}

// CreateMaterial appends m and returns its master index.
func (ml *MaterialList) CreateMaterial(m metadata.Material) (uint32, error) {
	if uint32(len(ml.materials)) >= metadata.MaxNumberMaterials {
		return 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "material master list is full (%d)", metadata.MaxNumberMaterials)
	}
	if m.Name == "" {
		m.Name = uuid.NewString()
	}
	ml.materials = append(ml.materials, m)
	return uint32(len(ml.materials) - 1), nil
}

func (ml *MaterialList) Len() int {
	return len(ml.materials)
}

func (ml *MaterialList) Get(index uint32) (metadata.Material, bool) {
	if int(index) >= len(ml.materials) {
		return metadata.Material{}, false
	}
	return ml.materials[index], true
}

// Uniforms packs the list into the storage buffer layout.
func (ml *MaterialList) Uniforms() []metadata.MaterialUniform {
	out := make([]metadata.MaterialUniform, len(ml.materials))
	for i := range ml.materials {
		out[i] = ml.materials[i].Uniform()
	}
	return out
}

func (ml *MaterialList) CleanUpAll() {
	ml.materials = nil
}
