package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// Fence tracks on the host whether the GPU has signaled it, so waits and
// resets on an already known state are skipped.
type Fence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(device *Device, createSignaled bool) (*Fence, error) {
	fence := &Fence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := checkResult(vk.CreateFence(device.LogicalDevice, &fenceCreateInfo, nil, &handle), core.ErrCodeInitialization, "vkCreateFence %+v", fenceCreateInfo); err != nil {
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (f *Fence) Destroy(device *Device) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(device.LogicalDevice, f.Handle, nil)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

// Wait blocks until the fence is signaled or timeoutNs elapses.
func (f *Fence) Wait(device *Device, timeoutNs uint64) error {
	if f.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		f.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return stacktrace.NewError("fence wait timed out after %dns", timeoutNs)
	default:
		return checkResult(result, core.ErrCodeDeviceLost, "vkWaitForFences")
	}
}

func (f *Fence) Reset(device *Device) error {
	if !f.IsSignaled {
		return nil
	}
	if err := checkResult(vk.ResetFences(device.LogicalDevice, 1, []vk.Fence{f.Handle}), core.ErrCodeDeviceLost, "vkResetFences"); err != nil {
		return err
	}
	f.IsSignaled = false
	return nil
}
