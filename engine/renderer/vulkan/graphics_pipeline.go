package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// maxPushConstantRanges is what fits the guaranteed 128 bytes at 4 byte alignment.
const maxPushConstantRanges = 32

// PipelineConfig describes one graphics pipeline.
type PipelineConfig struct {
	// RenderPass the pipeline is used in, subpass 0.
	RenderPass *RenderPass
	Stages     []*ShaderStage
	// Stride of the vertex data bound at binding 0.
	Stride               uint32
	Attributes           []vk.VertexInputAttributeDescription
	DescriptorSetLayouts []vk.DescriptorSetLayout
	PushConstantRanges   []vk.PushConstantRange
	// Extent seeds the viewport and scissor, which are also dynamic.
	Extent       vk.Extent2D
	CullMode     vk.CullModeFlagBits
	IsWireframe  bool
	DepthTest    bool
	DepthWrite   bool
	DepthCompare vk.CompareOp
	Blend        bool
}

// GraphicsPipeline holds a pipeline and its layout.
type GraphicsPipeline struct {
	Handle         vk.Pipeline
	PipelineLayout vk.PipelineLayout
}

func NewGraphicsPipeline(device *Device, config *PipelineConfig) (*GraphicsPipeline, error) {
	if len(config.PushConstantRanges) > maxPushConstantRanges {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization,
			"cannot have more than %d push constant ranges, got %d", maxPushConstantRanges, len(config.PushConstantRanges))
	}
	p := &GraphicsPipeline{}

	viewport := viewportFor(config.Extent)
	scissor := vk.Rect2D{Offset: vk.Offset2D{X: 0, Y: 0}, Extent: config.Extent}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(config.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	if config.IsWireframe {
		rasterizer.PolygonMode = vk.PolygonModeLine
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthCompareOp:        config.DepthCompare,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
	}
	if config.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if config.Blend {
		blendAttachment.BlendEnable = vk.True
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	binding := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    config.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:            config.DescriptorSetLayouts,
		PushConstantRangeCount: uint32(len(config.PushConstantRanges)),
		PPushConstantRanges:    config.PushConstantRanges,
	}
	var layout vk.PipelineLayout
	if err := checkResult(vk.CreatePipelineLayout(device.LogicalDevice, &layoutCreateInfo, nil, &layout), core.ErrCodeInitialization, "vkCreatePipelineLayout %+v", layoutCreateInfo); err != nil {
		return nil, err
	}
	p.PipelineLayout = layout

	stages := make([]vk.PipelineShaderStageCreateInfo, len(config.Stages))
	for i, s := range config.Stages {
		stages[i] = s.CreateInfo()
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              p.PipelineLayout,
		RenderPass:          config.RenderPass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	if err := checkResult(vk.CreateGraphicsPipelines(device.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines), core.ErrCodeInitialization, "vkCreateGraphicsPipelines %+v", createInfo); err != nil {
		p.Destroy(device)
		return nil, err
	}
	p.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return p, nil
}

// viewportFor covers extent with the full depth range.
func viewportFor(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

// Bind binds the pipeline and sets the dynamic viewport and scissor to extent.
func (p *GraphicsPipeline) Bind(cb *CommandBuffer, extent vk.Extent2D) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, p.Handle)
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewportFor(extent)})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{{Offset: vk.Offset2D{X: 0, Y: 0}, Extent: extent}})
}

func (p *GraphicsPipeline) Destroy(device *Device) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(device.LogicalDevice, p.Handle, nil)
		p.Handle = vk.NullPipeline
	}
	if p.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(device.LogicalDevice, p.PipelineLayout, nil)
		p.PipelineLayout = vk.NullPipelineLayout
	}
}
