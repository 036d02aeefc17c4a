package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// ImageSpec describes a 2D (or 2D array / cube) device local image.
type ImageSpec struct {
	Width  uint32
	Height uint32
	// Layers is 1 for plain images and 6 for cube maps.
	Layers uint32
	Format vk.Format
	Usage  vk.ImageUsageFlags
	Flags  vk.ImageCreateFlags
	Tiling vk.ImageTiling
}

// ImageBuffer is an image with its own device local memory.
type ImageBuffer struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	Spec   ImageSpec

	layout vk.ImageLayout
}

func NewImageBuffer(device *Device, spec ImageSpec) (*ImageBuffer, error) {
	if spec.Layers == 0 {
		spec.Layers = 1
	}
	image, err := device.CreateImage(spec.Width, spec.Height, spec.Layers, spec.Usage, spec.Flags, spec.Format, spec.Tiling)
	if err != nil {
		return nil, err
	}
	memory, err := device.AllocateImageMemory(image, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(device.LogicalDevice, image, nil)
		return nil, err
	}
	return &ImageBuffer{
		Handle: image,
		Memory: memory,
		Spec:   spec,
		layout: vk.ImageLayoutUndefined,
	}, nil
}

// Layout is the layout the image was last transitioned to.
func (ib *ImageBuffer) Layout() vk.ImageLayout {
	return ib.layout
}

// CreateView builds a view over every layer of the image.
func (ib *ImageBuffer) CreateView(device *Device, viewType vk.ImageViewType, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    ib.Handle,
		ViewType: viewType,
		Format:   ib.Spec.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     ib.Spec.Layers,
		},
	}
	var view vk.ImageView
	if err := checkResult(vk.CreateImageView(device.LogicalDevice, &createInfo, nil, &view), core.ErrCodeInitialization, "vkCreateImageView %+v", createInfo); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// TransitionLayout moves the image to newLayout in a one-shot submission.
func (ib *ImageBuffer) TransitionLayout(device *Device, newLayout vk.ImageLayout) error {
	t, err := transitionBarrier(ib.layout, newLayout, ib.Spec.Format)
	if err != nil {
		return err
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       t.SrcAccess,
		DstAccessMask:       t.DstAccess,
		OldLayout:           ib.layout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               ib.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     t.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     ib.Spec.Layers,
		},
	}
	if err := device.OneShot(func(cmd vk.CommandBuffer) {
		vk.CmdPipelineBarrier(cmd, t.SrcStage, t.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	}); err != nil {
		return err
	}
	ib.layout = newLayout
	return nil
}

func (ib *ImageBuffer) Destroy(device *Device) {
	if ib.Handle != vk.NullImage {
		vk.DestroyImage(device.LogicalDevice, ib.Handle, nil)
		ib.Handle = vk.NullImage
	}
	if ib.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device.LogicalDevice, ib.Memory, nil)
		ib.Memory = vk.NullDeviceMemory
	}
	ib.layout = vk.ImageLayoutUndefined
}

// layoutTransition holds the access masks, stages and aspect of one barrier.
type layoutTransition struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	Aspect    vk.ImageAspectFlags
}

// transitionBarrier returns the barrier parameters of a supported layout
// transition and an error for any other pair.
func transitionBarrier(oldLayout, newLayout vk.ImageLayout, format vk.Format) (layoutTransition, error) {
	t := layoutTransition{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit)}
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		t.DstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		t.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		t.DstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		t.SrcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		t.DstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		t.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		t.DstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal:
		t.Aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if hasStencil(format) {
			t.Aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		t.DstAccess = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
		t.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		t.DstStage = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
	default:
		return t, stacktrace.NewError("unsupported image layout transition %d -> %d", oldLayout, newLayout)
	}
	return t, nil
}

// StagedImageBuffer is an ImageBuffer filled from a staging buffer and left
// in ShaderReadOnlyOptimal, ready for sampling.
type StagedImageBuffer struct {
	*ImageBuffer
	staging bufferHandle
}

// NewStagedImageBuffer uploads pixels, which hold every layer back to back,
// into a new image. TransferDst and Sampled usage are always added.
func NewStagedImageBuffer(device *Device, spec ImageSpec, pixels []byte) (*StagedImageBuffer, error) {
	spec.Usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	if spec.Tiling == 0 {
		spec.Tiling = vk.ImageTilingOptimal
	}

	staging, err := device.CreateBuffer(vk.DeviceSize(len(pixels)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not create the image staging buffer")
	}
	sib := &StagedImageBuffer{staging: bufferHandle{Buffer: staging, Size: vk.DeviceSize(len(pixels))}}
	if sib.staging.Memory, err = device.AllocateStagingMemory(staging, pixels); err != nil {
		sib.Destroy(device)
		return nil, err
	}

	if sib.ImageBuffer, err = NewImageBuffer(device, spec); err != nil {
		sib.Destroy(device)
		return nil, err
	}

	if err := sib.TransitionLayout(device, vk.ImageLayoutTransferDstOptimal); err != nil {
		sib.Destroy(device)
		return nil, err
	}
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     sib.Spec.Layers,
		},
		ImageExtent: vk.Extent3D{
			Width:  sib.Spec.Width,
			Height: sib.Spec.Height,
			Depth:  1,
		},
	}
	if err := device.OneShot(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBufferToImage(cmd, sib.staging.Buffer, sib.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	}); err != nil {
		sib.Destroy(device)
		return nil, err
	}
	if err := sib.TransitionLayout(device, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		sib.Destroy(device)
		return nil, err
	}
	return sib, nil
}

// StagingBytes reads back the bytes the image was created from.
func (sib *StagedImageBuffer) StagingBytes(device *Device) ([]byte, error) {
	return device.ReadMemory(sib.staging.Memory, int(sib.staging.Size))
}

func (sib *StagedImageBuffer) Destroy(device *Device) {
	if sib.ImageBuffer != nil {
		sib.ImageBuffer.Destroy(device)
	}
	sib.staging.destroy(device)
}
