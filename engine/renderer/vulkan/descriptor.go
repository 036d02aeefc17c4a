package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// Bindings of the main descriptor set.
const (
	BindingCamera uint32 = iota
	BindingAmbientLight
	BindingDirectionalLight
	BindingSampler
	BindingTextures
	BindingMaterials
)

// Bindings of the skybox descriptor set.
const (
	SkyboxBindingCamera uint32 = iota
	SkyboxBindingCubeMap
)

// uniformsPerFrame is the number of uniform buffers of the main set.
const uniformsPerFrame = 3

func stageFlags(bits ...vk.ShaderStageFlagBits) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	for _, b := range bits {
		flags |= vk.ShaderStageFlags(b)
	}
	return flags
}

// mainSetBindings describes the set read by the main pipeline.
func mainSetBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BindingCamera,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageVertexBit, vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BindingAmbientLight,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BindingDirectionalLight,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BindingSampler,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BindingTextures,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			DescriptorCount: metadata.MaxNumberTextures,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BindingMaterials,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

// skyboxSetBindings describes the set read by the skybox pipeline.
func skyboxSetBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         SkyboxBindingCamera,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         SkyboxBindingCubeMap,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      stageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

// descriptorPoolSizes sums the descriptors of one set of each layout, per
// type in first seen order, and multiplies by frames.
func descriptorPoolSizes(frames uint32, layouts ...[]vk.DescriptorSetLayoutBinding) []vk.DescriptorPoolSize {
	var sizes []vk.DescriptorPoolSize
	index := map[vk.DescriptorType]int{}
	for _, bindings := range layouts {
		for _, b := range bindings {
			i, ok := index[b.DescriptorType]
			if !ok {
				i = len(sizes)
				index[b.DescriptorType] = i
				sizes = append(sizes, vk.DescriptorPoolSize{Type: b.DescriptorType})
			}
			sizes[i].DescriptorCount += b.DescriptorCount * frames
		}
	}
	return sizes
}

func createDescriptorSetLayout(device *Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := checkResult(vk.CreateDescriptorSetLayout(device.LogicalDevice, &createInfo, nil, &layout), core.ErrCodeInitialization, "vkCreateDescriptorSetLayout %+v", createInfo); err != nil {
		return vk.NullDescriptorSetLayout, err
	}
	return layout, nil
}

func createDescriptorPool(device *Device, maxSets uint32, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := checkResult(vk.CreateDescriptorPool(device.LogicalDevice, &createInfo, nil, &pool), core.ErrCodeInitialization, "vkCreateDescriptorPool %+v", createInfo); err != nil {
		return vk.NullDescriptorPool, err
	}
	return pool, nil
}

// allocateDescriptorSets allocates count sets of layout from pool.
func allocateDescriptorSets(device *Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, count)
	if err := checkResult(vk.AllocateDescriptorSets(device.LogicalDevice, &allocInfo, &sets[0]), core.ErrCodeInitialization, "vkAllocateDescriptorSets %+v", allocInfo); err != nil {
		return nil, err
	}
	return sets, nil
}

func bufferWrite(set vk.DescriptorSet, binding uint32, descriptorType vk.DescriptorType, buffer vk.Buffer, size vk.DeviceSize) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer,
			Offset: 0,
			Range:  size,
		}},
	}
}

func imageWrite(set vk.DescriptorSet, binding uint32, descriptorType vk.DescriptorType, infos []vk.DescriptorImageInfo) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorCount: uint32(len(infos)),
		DescriptorType:  descriptorType,
		PImageInfo:      infos,
	}
}
