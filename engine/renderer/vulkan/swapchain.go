package vulkan

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// Swapchain owns the presentable images with their framebuffers, plus the
// per frame in flight command buffers and synchronization objects.
type Swapchain struct {
	Handle vk.Swapchain
	Format vk.Format
	Extent vk.Extent2D

	Images []vk.Image
	Views  []vk.ImageView
	// Framebuffers holds one framebuffer per image, sharing the depth view.
	Framebuffers []*Framebuffer

	commandPool    vk.CommandPool
	commandBuffers []*CommandBuffer

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []*Fence
	// acquired marks image available semaphores signaled by an acquire that
	// no submit has waited on yet.
	acquired []bool

	device *Device
}

// NewSwapchain creates the per frame objects once and the swapchain itself
// for the current surface.
func NewSwapchain(device *Device, surface *Surface, renderPass *RenderPass, depth *DepthBuffer, frames uint32) (*Swapchain, error) {
	sc := &Swapchain{
		device:         device,
		commandBuffers: make([]*CommandBuffer, frames),
		imageAvailable: make([]vk.Semaphore, frames),
		renderFinished: make([]vk.Semaphore, frames),
		inFlight:       make([]*Fence, frames),
		acquired:       make([]bool, frames),
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.QueueFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := checkResult(vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, nil, &pool), core.ErrCodeInitialization, "vkCreateCommandPool %+v", poolCreateInfo); err != nil {
		return nil, err
	}
	sc.commandPool = pool

	for f := uint32(0); f < frames; f++ {
		cb, err := NewCommandBuffer(device, sc.commandPool, true)
		if err != nil {
			sc.Destroy()
			return nil, stacktrace.Propagate(err, "could not allocate the command buffer of frame %d", f)
		}
		sc.commandBuffers[f] = cb

		if sc.imageAvailable[f], err = newSemaphore(device); err != nil {
			sc.Destroy()
			return nil, err
		}
		if sc.renderFinished[f], err = newSemaphore(device); err != nil {
			sc.Destroy()
			return nil, err
		}
		// Signaled so that the first wait of each frame returns immediately.
		if sc.inFlight[f], err = NewFence(device, true); err != nil {
			sc.Destroy()
			return nil, err
		}
	}

	if err := sc.Recreate(surface, renderPass, depth); err != nil {
		sc.Destroy()
		return nil, err
	}
	return sc, nil
}

func newSemaphore(device *Device) (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := checkResult(vk.CreateSemaphore(device.LogicalDevice, &createInfo, nil, &semaphore), core.ErrCodeInitialization, "vkCreateSemaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

// swapchainCreateInfo describes a swapchain for surface. The device uses one
// queue family for graphics and present, so images are exclusive.
func swapchainCreateInfo(surface *Surface) vk.SwapchainCreateInfo {
	return vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface.Handle,
		MinImageCount:    chooseImageCount(surface.Capabilities),
		ImageFormat:      surface.Format.Format,
		ImageColorSpace:  surface.Format.ColorSpace,
		ImageExtent:      surface.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     surface.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      surface.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
}

// Recreate builds the swapchain, its views and framebuffers for the current
// surface. Reset must have been called on a previous swapchain.
func (sc *Swapchain) Recreate(surface *Surface, renderPass *RenderPass, depth *DepthBuffer) error {
	dev := sc.device.LogicalDevice

	// An acquire whose submit never happened leaves its semaphore signaled
	// with nothing to wait on it. Replace it before the next acquire, once
	// the device is idle so no queue still references it.
	pending := pendingAcquires(sc.acquired)
	if len(pending) > 0 {
		if err := sc.device.WaitIdle(); err != nil {
			return err
		}
	}
	for _, f := range pending {
		vk.DestroySemaphore(dev, sc.imageAvailable[f], nil)
		semaphore, err := newSemaphore(sc.device)
		if err != nil {
			return err
		}
		sc.imageAvailable[f] = semaphore
		sc.acquired[f] = false
	}

	createInfo := swapchainCreateInfo(surface)
	var handle vk.Swapchain
	if err := checkResult(vk.CreateSwapchain(dev, &createInfo, nil, &handle), core.ErrCodeInitialization, "vkCreateSwapchain %+v", createInfo); err != nil {
		return err
	}
	sc.Handle = handle
	sc.Format = surface.Format.Format
	sc.Extent = surface.Extent

	var count uint32
	if err := checkResult(vk.GetSwapchainImages(dev, sc.Handle, &count, nil), core.ErrCodeInitialization, "vkGetSwapchainImages"); err != nil {
		return err
	}
	sc.Images = make([]vk.Image, count)
	if err := checkResult(vk.GetSwapchainImages(dev, sc.Handle, &count, sc.Images), core.ErrCodeInitialization, "vkGetSwapchainImages"); err != nil {
		return err
	}

	sc.Views = make([]vk.ImageView, 0, count)
	sc.Framebuffers = make([]*Framebuffer, 0, count)
	for i, image := range sc.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   sc.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		var view vk.ImageView
		if err := checkResult(vk.CreateImageView(dev, &viewInfo, nil, &view), core.ErrCodeInitialization, "vkCreateImageView (swapchain image %d)", i); err != nil {
			return err
		}
		sc.Views = append(sc.Views, view)

		fb, err := NewFramebuffer(sc.device, renderPass, sc.Extent.Width, sc.Extent.Height, []vk.ImageView{view, depth.View})
		if err != nil {
			return stacktrace.Propagate(err, "could not create the framebuffer of image %d", i)
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}

	core.LogInfo("Swapchain created: %d images at %dx%d.", count, sc.Extent.Width, sc.Extent.Height)
	return nil
}

// WaitForInFlightFence blocks until the last submit of frame has completed.
func (sc *Swapchain) WaitForInFlightFence(frame uint32) error {
	return sc.inFlight[frame].Wait(sc.device, math.MaxUint64)
}

// ResetInFlightFence unsignals the fence of frame ahead of its next submit.
func (sc *Swapchain) ResetInFlightFence(frame uint32) error {
	return sc.inFlight[frame].Reset(sc.device)
}

// AcquireNextImage returns the index of the next presentable image, or
// outOfDate when the swapchain no longer matches the surface.
func (sc *Swapchain) AcquireNextImage(frame uint32) (image uint32, outOfDate bool, err error) {
	result := vk.AcquireNextImage(sc.device.LogicalDevice, sc.Handle, math.MaxUint64, sc.imageAvailable[frame], vk.NullFence, &image)
	switch result {
	case vk.Success, vk.Suboptimal:
		sc.acquired[frame] = true
		return image, false, nil
	case vk.ErrorOutOfDate:
		return 0, true, nil
	default:
		return 0, false, checkResult(result, core.ErrCodeDeviceLost, "vkAcquireNextImage")
	}
}

// ResetAndBeginDrawingCommandBuffer restarts the command buffer of frame and
// begins the render pass on the framebuffer of image.
func (sc *Swapchain) ResetAndBeginDrawingCommandBuffer(frame, image uint32, renderPass *RenderPass, clear [3]float32) (*CommandBuffer, error) {
	cb := sc.commandBuffers[frame]
	if err := cb.Reset(); err != nil {
		return nil, err
	}
	if err := cb.Begin(false, false, false); err != nil {
		return nil, err
	}
	renderPass.Begin(cb, sc.Framebuffers[image].Handle, sc.Extent, clear)
	return cb, nil
}

// RecordModelToDrawingCommandBuffer records every primitive of model placed
// at world. The main pipeline must be bound on cb.
func (sc *Swapchain) RecordModelToDrawingCommandBuffer(cb *CommandBuffer, pipeline *Pipeline, model *Model, world mgl32.Mat4) {
	pipeline.UpdateModelUniformBuffer(world)
	pipeline.RecordModel(cb, model)
}

// EndAndSubmitDrawingCommandBuffer ends the render pass and submits the
// command buffer of frame, signaling its in flight fence on completion.
func (sc *Swapchain) EndAndSubmitDrawingCommandBuffer(frame uint32, renderPass *RenderPass) error {
	cb := sc.commandBuffers[frame]
	renderPass.End(cb)
	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{sc.imageAvailable[frame]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{sc.renderFinished[frame]},
	}
	fence := sc.inFlight[frame]
	if err := sc.device.locks.SafeQueueCall(sc.device.QueueFamilyIndex, func() error {
		return checkResult(vk.QueueSubmit(sc.device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle), core.ErrCodeDeviceLost, "vkQueueSubmit")
	}); err != nil {
		return err
	}
	sc.acquired[frame] = false
	cb.UpdateSubmitted()
	return nil
}

// PresentImage queues image for presentation once frame's rendering is done.
// outOfDate reports that the swapchain should be recreated.
func (sc *Swapchain) PresentImage(frame, image uint32) (outOfDate bool, err error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{sc.renderFinished[frame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{image},
	}
	err = sc.device.locks.SafeQueueCall(sc.device.QueueFamilyIndex, func() error {
		var presentErr error
		outOfDate, presentErr = presentOutcome(vk.QueuePresent(sc.device.PresentQueue, &presentInfo))
		return presentErr
	})
	if err != nil {
		return false, stacktrace.Propagate(err, "could not present image %d of frame %d", image, frame)
	}
	return outOfDate, nil
}

// pendingAcquires returns the frames whose acquired image was never submitted.
func pendingAcquires(acquired []bool) []int {
	var frames []int
	for f, pending := range acquired {
		if pending {
			frames = append(frames, f)
		}
	}
	return frames
}

// presentOutcome classifies a vkQueuePresent result. Suboptimal still
// presents, but asks for a recreate like out-of-date does.
func presentOutcome(result vk.Result) (outOfDate bool, err error) {
	switch result {
	case vk.Success:
		return false, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return true, nil
	default:
		return false, checkResult(result, core.ErrCodeDeviceLost, "vkQueuePresent")
	}
}

// Reset drops the framebuffers, the views and the swapchain. Per frame
// objects are kept.
func (sc *Swapchain) Reset() {
	dev := sc.device.LogicalDevice
	for _, fb := range sc.Framebuffers {
		fb.Destroy(sc.device)
	}
	sc.Framebuffers = nil
	// Only the views: the images are owned by the swapchain.
	for _, view := range sc.Views {
		vk.DestroyImageView(dev, view, nil)
	}
	sc.Views = nil
	sc.Images = nil
	if sc.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(dev, sc.Handle, nil)
		sc.Handle = vk.NullSwapchain
	}
}

func (sc *Swapchain) Destroy() {
	sc.Reset()
	dev := sc.device.LogicalDevice
	for f := range sc.inFlight {
		if sc.inFlight[f] != nil {
			sc.inFlight[f].Destroy(sc.device)
		}
		if sc.renderFinished[f] != vk.NullSemaphore {
			vk.DestroySemaphore(dev, sc.renderFinished[f], nil)
			sc.renderFinished[f] = vk.NullSemaphore
		}
		if sc.imageAvailable[f] != vk.NullSemaphore {
			vk.DestroySemaphore(dev, sc.imageAvailable[f], nil)
			sc.imageAvailable[f] = vk.NullSemaphore
		}
		if sc.commandBuffers[f] != nil {
			sc.commandBuffers[f].Free(sc.device, sc.commandPool)
		}
	}
	if sc.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(dev, sc.commandPool, nil)
		sc.commandPool = vk.NullCommandPool
	}
	core.LogDebug("Swapchain destroyed.")
}
