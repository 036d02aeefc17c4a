package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quartz/engine/core"
)

// RenderPass has one color attachment (presented) and one depth attachment,
// used by a single subpass.
type RenderPass struct {
	Handle vk.RenderPass

	ColorFormat vk.Format
	DepthFormat vk.Format
}

func NewRenderPass(device *Device, surface *Surface) (*RenderPass, error) {
	rp := &RenderPass{}
	if err := rp.Recreate(device, surface); err != nil {
		return nil, err
	}
	return rp, nil
}

// Recreate rebuilds the render pass, since the surface or depth format may
// have changed.
func (rp *RenderPass) Recreate(device *Device, surface *Surface) error {
	rp.Destroy(device)
	rp.ColorFormat = surface.Format.Format
	rp.DepthFormat = surface.DepthFormat

	attachments := []vk.AttachmentDescription{
		{
			Format:         rp.ColorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
			FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
		},
		{
			Format:         rp.DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReference := []vk.AttachmentReference{{
		Attachment: 0, // Attachment description array index
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReference,
		PDepthStencilAttachment: &depthReference,
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{externalDependency()},
	}

	var handle vk.RenderPass
	if err := checkResult(vk.CreateRenderPass(device.LogicalDevice, &createInfo, nil, &handle), core.ErrCodeInitialization, "vkCreateRenderPass %+v", createInfo); err != nil {
		return err
	}
	rp.Handle = handle
	return nil
}

// externalDependency orders the color and depth writes of the subpass after
// any previous use of the attachments.
func externalDependency() vk.SubpassDependency {
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	return vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}
}

// clearValues is the clear color with alpha 1 and depth 1.
func clearValues(color [3]float32) []vk.ClearValue {
	values := make([]vk.ClearValue, 2)
	values[0].SetColor([]float32{color[0], color[1], color[2], 1.0})
	values[1].SetDepthStencil(1.0, 0)
	return values
}

// Begin starts the render pass on framebuffer, clearing both attachments.
func (rp *RenderPass) Begin(cb *CommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D, clear [3]float32) {
	values := clearValues(clear)
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}
	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = CommandBufferStateInRenderPass
}

func (rp *RenderPass) End(cb *CommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = CommandBufferStateRecording
}

func (rp *RenderPass) Destroy(device *Device) {
	if rp.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(device.LogicalDevice, rp.Handle, nil)
		rp.Handle = vk.NullRenderPass
	}
}
