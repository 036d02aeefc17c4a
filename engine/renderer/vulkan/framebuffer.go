package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quartz/engine/core"
)

type Framebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *RenderPass
}

func NewFramebuffer(device *Device, renderpass *RenderPass, width, height uint32, attachments []vk.ImageView) (*Framebuffer, error) {
	fb := &Framebuffer{
		// Take a copy of the attachments.
		Attachments: append([]vk.ImageView(nil), attachments...),
		Renderpass:  renderpass,
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(fb.Attachments)),
		PAttachments:    fb.Attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := checkResult(vk.CreateFramebuffer(device.LogicalDevice, &createInfo, nil, &handle), core.ErrCodeInitialization, "vkCreateFramebuffer %+v", createInfo); err != nil {
		return nil, err
	}
	fb.Handle = handle
	return fb, nil
}

func (fb *Framebuffer) Destroy(device *Device) {
	if fb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(device.LogicalDevice, fb.Handle, nil)
		fb.Handle = vk.NullFramebuffer
	}
	fb.Attachments = nil
	fb.Renderpass = nil
}
