package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

const spirvMagic uint32 = 0x07230203

type ShaderLoader struct{}

// Load reads a compiled SPIR-V module.
func (sl *ShaderLoader) Load(path string, params interface{}) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read shader '%s'", path)
	}
	if err := ValidateSPIRV(data); err != nil {
		return nil, stacktrace.Propagate(err, "invalid shader '%s'", path)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeShader,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

// ValidateSPIRV checks the word alignment and the magic number of a module.
func ValidateSPIRV(data []byte) error {
	if len(data) < 4 || len(data)%4 != 0 {
		return stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "SPIR-V size %d is not a positive multiple of 4", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != spirvMagic {
		return stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "bad SPIR-V magic number 0x%08x", magic)
	}
	return nil
}
