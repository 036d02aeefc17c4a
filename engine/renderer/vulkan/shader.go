package vulkan

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/core"
)

// ShaderSet holds the compiled SPIR-V of every shader the renderer uses.
// The skybox pair is optional.
type ShaderSet struct {
	MainVertex     []byte
	MainFragment   []byte
	SkyboxVertex   []byte
	SkyboxFragment []byte
}

func (s *ShaderSet) HasSkybox() bool {
	return len(s.SkyboxVertex) > 0 && len(s.SkyboxFragment) > 0
}

// ShaderStage is a shader module bound to one pipeline stage.
type ShaderStage struct {
	Handle vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

func NewShaderStage(device *Device, code []byte, stage vk.ShaderStageFlagBits) (*ShaderStage, error) {
	if err := loaders.ValidateSPIRV(code); err != nil {
		return nil, err
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    spirvWords(code),
	}
	var module vk.ShaderModule
	if err := checkResult(vk.CreateShaderModule(device.LogicalDevice, &createInfo, nil, &module), core.ErrCodeInitialization, "vkCreateShaderModule (%d bytes)", len(code)); err != nil {
		return nil, err
	}
	return &ShaderStage{Handle: module, Stage: stage}, nil
}

// spirvWords reinterprets a validated module as little endian words.
func spirvWords(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words
}

func (s *ShaderStage) CreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  VulkanSafeString("main"),
	}
}

func (s *ShaderStage) Destroy(device *Device) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(device.LogicalDevice, s.Handle, nil)
		s.Handle = vk.NullShaderModule
	}
}

// newShaderStages builds a vertex and fragment stage pair.
func newShaderStages(device *Device, vertex, fragment []byte) ([]*ShaderStage, error) {
	vs, err := NewShaderStage(device, vertex, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not create the vertex shader")
	}
	fs, err := NewShaderStage(device, fragment, vk.ShaderStageFragmentBit)
	if err != nil {
		vs.Destroy(device)
		return nil, stacktrace.Propagate(err, "could not create the fragment shader")
	}
	return []*ShaderStage{vs, fs}, nil
}
