package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// Pipeline owns the main and skybox graphics pipelines together with their
// descriptor sets and the per-frame uniform buffers they read.
type Pipeline struct {
	FramesInFlight uint32
	// CurrentFrame is the in-flight frame index last handed out.
	CurrentFrame uint32

	main   *GraphicsPipeline
	skybox *GraphicsPipeline

	shaders ShaderSet
	extent  vk.Extent2D

	mainSetLayout   vk.DescriptorSetLayout
	skyboxSetLayout vk.DescriptorSetLayout
	descriptorPool  vk.DescriptorPool
	mainSets        []vk.DescriptorSet
	skyboxSets      []vk.DescriptorSet

	// uniforms holds camera, ambient and directional at 3f+0, 3f+1 and 3f+2.
	uniforms  []*LocallyMappedBuffer
	materials []*LocallyMappedBuffer
	sampler   vk.Sampler

	model mgl32.Mat4
}

// NewPipeline creates everything that does not depend on the surface, then
// builds the graphics pipelines for it.
func NewPipeline(device *Device, surface *Surface, renderPass *RenderPass, frames uint32, shaders ShaderSet) (*Pipeline, error) {
	if frames == 0 {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "at least one frame in flight is required")
	}
	p := &Pipeline{
		FramesInFlight: frames,
		shaders:        shaders,
		model:          mgl32.Ident4(),
	}
	if err := p.create(device); err != nil {
		p.Destroy(device)
		return nil, err
	}
	if err := p.Recreate(device, surface, renderPass); err != nil {
		p.Destroy(device)
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create(device *Device) error {
	var err error
	if p.mainSetLayout, err = createDescriptorSetLayout(device, mainSetBindings()); err != nil {
		return err
	}
	layouts := [][]vk.DescriptorSetLayoutBinding{mainSetBindings()}
	setsPerFrame := uint32(1)
	if p.shaders.HasSkybox() {
		if p.skyboxSetLayout, err = createDescriptorSetLayout(device, skyboxSetBindings()); err != nil {
			return err
		}
		layouts = append(layouts, skyboxSetBindings())
		setsPerFrame++
	}
	if p.descriptorPool, err = createDescriptorPool(device, setsPerFrame*p.FramesInFlight, descriptorPoolSizes(p.FramesInFlight, layouts...)); err != nil {
		return err
	}

	uniformUsage := vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	sizes := [uniformsPerFrame]vk.DeviceSize{
		vk.DeviceSize(unsafe.Sizeof(metadata.CameraUniform{})),
		vk.DeviceSize(unsafe.Sizeof(metadata.AmbientLightUniform{})),
		vk.DeviceSize(unsafe.Sizeof(metadata.DirectionalLightUniform{})),
	}
	for f := uint32(0); f < p.FramesInFlight; f++ {
		for _, size := range sizes {
			b, err := NewLocallyMappedBuffer(device, size, uniformUsage)
			if err != nil {
				return stacktrace.Propagate(err, "could not create uniform buffers of frame %d", f)
			}
			p.uniforms = append(p.uniforms, b)
		}
		materialSize := vk.DeviceSize(unsafe.Sizeof(metadata.MaterialUniform{})) * vk.DeviceSize(metadata.MaxNumberMaterials)
		b, err := NewLocallyMappedBuffer(device, materialSize, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
		if err != nil {
			return stacktrace.Propagate(err, "could not create the material buffer of frame %d", f)
		}
		p.materials = append(p.materials, b)
	}

	if p.sampler, err = createSampler(device, metadata.DefaultSamplerParams()); err != nil {
		return err
	}
	return nil
}

// vertexAttributes matches metadata.Vertex field by field.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	var v metadata.Vertex
	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Tangent))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Color))},
	}
	uvSize := uint32(unsafe.Sizeof(v.UV[0]))
	for ch := uint32(0); ch < uint32(metadata.TextureChannelCount); ch++ {
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: 4 + ch,
			Binding:  0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(v.UV)) + ch*uvSize,
		})
	}
	return attributes
}

func skyboxAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
	}
}

// pushConstantRanges splits the push constant block between the stages.
func pushConstantRanges() []vk.PushConstantRange {
	return []vk.PushConstantRange{
		{
			StageFlags: stageFlags(vk.ShaderStageVertexBit),
			Offset:     metadata.PushConstantModelOffset,
			Size:       metadata.PushConstantModelSize,
		},
		{
			StageFlags: stageFlags(vk.ShaderStageFragmentBit),
			Offset:     metadata.PushConstantMaterialOffset,
			Size:       metadata.PushConstantMaterialSize,
		},
	}
}

// mainPipelineConfig is the configuration of the pipeline drawing models.
func mainPipelineConfig(renderPass *RenderPass, extent vk.Extent2D, layout vk.DescriptorSetLayout, stages []*ShaderStage) *PipelineConfig {
	return &PipelineConfig{
		RenderPass:           renderPass,
		Stages:               stages,
		Stride:               metadata.VertexSize,
		Attributes:           vertexAttributes(),
		DescriptorSetLayouts: []vk.DescriptorSetLayout{layout},
		PushConstantRanges:   pushConstantRanges(),
		Extent:               extent,
		CullMode:             vk.CullModeBackBit,
		DepthTest:            true,
		DepthWrite:           true,
		DepthCompare:         vk.CompareOpLess,
		Blend:                true,
	}
}

// skyboxPipelineConfig draws the cube at the far plane behind everything.
func skyboxPipelineConfig(renderPass *RenderPass, extent vk.Extent2D, layout vk.DescriptorSetLayout, stages []*ShaderStage) *PipelineConfig {
	return &PipelineConfig{
		RenderPass:           renderPass,
		Stages:               stages,
		Stride:               uint32(unsafe.Sizeof(metadata.PositionVertex{})),
		Attributes:           skyboxAttributes(),
		DescriptorSetLayouts: []vk.DescriptorSetLayout{layout},
		Extent:               extent,
		CullMode:             vk.CullModeNone,
		DepthTest:            true,
		DepthWrite:           false,
		DepthCompare:         vk.CompareOpLessOrEqual,
	}
}

// Recreate rebuilds the graphics pipelines for the current surface extent
// and render pass.
func (p *Pipeline) Recreate(device *Device, surface *Surface, renderPass *RenderPass) error {
	p.Reset(device)
	p.extent = surface.Extent

	stages, err := newShaderStages(device, p.shaders.MainVertex, p.shaders.MainFragment)
	if err != nil {
		return err
	}
	defer destroyStages(device, stages)
	if p.main, err = NewGraphicsPipeline(device, mainPipelineConfig(renderPass, p.extent, p.mainSetLayout, stages)); err != nil {
		return stacktrace.Propagate(err, "could not create the main pipeline")
	}

	if p.skyboxSetLayout == vk.NullDescriptorSetLayout {
		return nil
	}
	skyStages, err := newShaderStages(device, p.shaders.SkyboxVertex, p.shaders.SkyboxFragment)
	if err != nil {
		return err
	}
	defer destroyStages(device, skyStages)
	if p.skybox, err = NewGraphicsPipeline(device, skyboxPipelineConfig(renderPass, p.extent, p.skyboxSetLayout, skyStages)); err != nil {
		return stacktrace.Propagate(err, "could not create the skybox pipeline")
	}
	return nil
}

func destroyStages(device *Device, stages []*ShaderStage) {
	for _, s := range stages {
		s.Destroy(device)
	}
}

// Reset drops the graphics pipelines and their layouts.
func (p *Pipeline) Reset(device *Device) {
	if p.skybox != nil {
		p.skybox.Destroy(device)
		p.skybox = nil
	}
	if p.main != nil {
		p.main.Destroy(device)
		p.main = nil
	}
}

// AllocateDescriptorSets rebuilds every descriptor set against the current
// master lists. cube may be nil.
func (p *Pipeline) AllocateDescriptorSets(device *Device, textures *TextureList, materials *MaterialList, cube *CubeMap) error {
	if err := checkResult(vk.ResetDescriptorPool(device.LogicalDevice, p.descriptorPool, 0), core.ErrCodeInitialization, "vkResetDescriptorPool"); err != nil {
		return err
	}
	p.mainSets, p.skyboxSets = nil, nil

	sets, err := allocateDescriptorSets(device, p.descriptorPool, p.mainSetLayout, p.FramesInFlight)
	if err != nil {
		return err
	}
	p.mainSets = sets

	uniforms := materials.Uniforms()
	var materialBytes []byte
	if len(uniforms) > 0 {
		materialBytes = unsafe.Slice((*byte)(unsafe.Pointer(&uniforms[0])), len(uniforms)*int(unsafe.Sizeof(uniforms[0])))
	}

	views := textures.Views()
	imageInfos := make([]vk.DescriptorImageInfo, len(views))
	for i, view := range views {
		imageInfos[i] = vk.DescriptorImageInfo{
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}

	var writes []vk.WriteDescriptorSet
	for f := uint32(0); f < p.FramesInFlight; f++ {
		if err := p.materials[f].Write(materialBytes); err != nil {
			return err
		}
		set := p.mainSets[f]
		camera, ambient, directional := p.frameUniforms(f)
		writes = append(writes,
			bufferWrite(set, BindingCamera, vk.DescriptorTypeUniformBuffer, camera.Handle(), camera.Size()),
			bufferWrite(set, BindingAmbientLight, vk.DescriptorTypeUniformBuffer, ambient.Handle(), ambient.Size()),
			bufferWrite(set, BindingDirectionalLight, vk.DescriptorTypeUniformBuffer, directional.Handle(), directional.Size()),
			imageWrite(set, BindingSampler, vk.DescriptorTypeSampler, []vk.DescriptorImageInfo{{Sampler: p.sampler}}),
			imageWrite(set, BindingTextures, vk.DescriptorTypeSampledImage, imageInfos),
			bufferWrite(set, BindingMaterials, vk.DescriptorTypeStorageBuffer, p.materials[f].Handle(), p.materials[f].Size()),
		)
	}

	if cube != nil && p.skyboxSetLayout != vk.NullDescriptorSetLayout {
		if p.skyboxSets, err = allocateDescriptorSets(device, p.descriptorPool, p.skyboxSetLayout, p.FramesInFlight); err != nil {
			return err
		}
		for f := uint32(0); f < p.FramesInFlight; f++ {
			camera, _, _ := p.frameUniforms(f)
			writes = append(writes,
				bufferWrite(p.skyboxSets[f], SkyboxBindingCamera, vk.DescriptorTypeUniformBuffer, camera.Handle(), camera.Size()),
				imageWrite(p.skyboxSets[f], SkyboxBindingCubeMap, vk.DescriptorTypeCombinedImageSampler, []vk.DescriptorImageInfo{{
					Sampler:     cube.Sampler,
					ImageView:   cube.View,
					ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				}}),
			)
		}
	}

	vk.UpdateDescriptorSets(device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	core.LogDebug("Descriptor sets allocated: %d textures, %d materials, skybox=%t.", textures.Len(), materials.Len(), p.skyboxSets != nil)
	return nil
}

func (p *Pipeline) frameUniforms(frame uint32) (camera, ambient, directional *LocallyMappedBuffer) {
	base := uniformsPerFrame * frame
	return p.uniforms[base], p.uniforms[base+1], p.uniforms[base+2]
}

func (p *Pipeline) UpdateCameraUniformBuffer(frame uint32, u metadata.CameraUniform) error {
	camera, _, _ := p.frameUniforms(frame)
	return camera.Write(metadata.StructBytes(&u))
}

func (p *Pipeline) UpdateAmbientLightUniformBuffer(frame uint32, u metadata.AmbientLightUniform) error {
	_, ambient, _ := p.frameUniforms(frame)
	return ambient.Write(metadata.StructBytes(&u))
}

func (p *Pipeline) UpdateDirectionalLightUniformBuffer(frame uint32, u metadata.DirectionalLightUniform) error {
	_, _, directional := p.frameUniforms(frame)
	return directional.Write(metadata.StructBytes(&u))
}

// UpdateModelUniformBuffer sets the doodad transform that prefixes every node
// transform pushed by RecordModel.
func (p *Pipeline) UpdateModelUniformBuffer(world mgl32.Mat4) {
	p.model = world
}

// IncrementCurrentInFlightFrameIndex advances and returns the frame index.
func (p *Pipeline) IncrementCurrentInFlightFrameIndex() uint32 {
	p.CurrentFrame = (p.CurrentFrame + 1) % p.FramesInFlight
	return p.CurrentFrame
}

// HasSkybox reports whether a cube map is bound for the skybox pass.
func (p *Pipeline) HasSkybox() bool {
	return p.skybox != nil && p.skyboxSets != nil
}

// RecordSkybox draws the cube map. It must come before any model.
func (p *Pipeline) RecordSkybox(cb *CommandBuffer, frame uint32, cube *CubeMap) {
	if !p.HasSkybox() || cube == nil {
		return
	}
	p.skybox.Bind(cb, p.extent)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, p.skybox.PipelineLayout, 0, 1, []vk.DescriptorSet{p.skyboxSets[frame]}, 0, nil)
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{cube.Vertices.Handle()}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb.Handle, cube.Indices.Handle(), 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb.Handle, cube.IndexCount, 1, 0, 0, 0)
}

// BindMain binds the main pipeline and the descriptor set of frame.
func (p *Pipeline) BindMain(cb *CommandBuffer, frame uint32) {
	p.main.Bind(cb, p.extent)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, p.main.PipelineLayout, 0, 1, []vk.DescriptorSet{p.mainSets[frame]}, 0, nil)
}

// RecordModel draws every mesh of model, visiting nodes in pre-order.
func (p *Pipeline) RecordModel(cb *CommandBuffer, model *Model) {
	nodes := model.Nodes()
	model.Walk(func(node int) {
		meshIndex := nodes[node].Mesh
		if meshIndex == loaders.NoIndex || meshIndex >= len(model.Meshes) {
			return
		}
		mesh := model.Meshes[meshIndex]
		if mesh.Vertices == nil || mesh.Indices == nil {
			return
		}
		vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{mesh.Vertices.Handle()}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(cb.Handle, mesh.Indices.Handle(), 0, vk.IndexTypeUint32)

		world := p.model.Mul4(model.WorldTransform(node))
		for _, prim := range mesh.Primitives {
			material := prim.Material
			vk.CmdPushConstants(cb.Handle, p.main.PipelineLayout, stageFlags(vk.ShaderStageFragmentBit),
				metadata.PushConstantMaterialOffset, metadata.PushConstantMaterialSize, unsafe.Pointer(&material))
			vk.CmdPushConstants(cb.Handle, p.main.PipelineLayout, stageFlags(vk.ShaderStageVertexBit),
				metadata.PushConstantModelOffset, metadata.PushConstantModelSize, unsafe.Pointer(&world[0]))
			vk.CmdDrawIndexed(cb.Handle, prim.IndexCount, 1, prim.IndexStart, 0, 0)
		}
	})
}

func (p *Pipeline) Destroy(device *Device) {
	p.Reset(device)
	if p.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(device.LogicalDevice, p.descriptorPool, nil)
		p.descriptorPool = vk.NullDescriptorPool
	}
	p.mainSets, p.skyboxSets = nil, nil
	if p.skyboxSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device.LogicalDevice, p.skyboxSetLayout, nil)
		p.skyboxSetLayout = vk.NullDescriptorSetLayout
	}
	if p.mainSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device.LogicalDevice, p.mainSetLayout, nil)
		p.mainSetLayout = vk.NullDescriptorSetLayout
	}
	if p.sampler != vk.NullSampler {
		vk.DestroySampler(device.LogicalDevice, p.sampler, nil)
		p.sampler = vk.NullSampler
	}
	for _, b := range p.uniforms {
		b.Destroy(device)
	}
	p.uniforms = nil
	for _, b := range p.materials {
		b.Destroy(device)
	}
	p.materials = nil
}
