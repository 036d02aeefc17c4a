package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quartz/engine/core"
)

type CommandBufferState int

const (
	CommandBufferStateNotAllocated CommandBufferState = iota
	CommandBufferStateReady
	CommandBufferStateRecording
	CommandBufferStateInRenderPass
	CommandBufferStateRecordingEnded
	CommandBufferStateSubmitted
)

type CommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State CommandBufferState
}

// NewCommandBuffer allocates one command buffer from pool.
func NewCommandBuffer(device *Device, pool vk.CommandPool, isPrimary bool) (*CommandBuffer, error) {
	cb := &CommandBuffer{
		State: CommandBufferStateNotAllocated,
	}

	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := device.locks.SafeCall(CommandPoolManagement, func() error {
		return checkResult(vk.AllocateCommandBuffers(device.LogicalDevice, &allocateInfo, handles), core.ErrCodeInitialization, "vkAllocateCommandBuffers %+v", allocateInfo)
	}); err != nil {
		return nil, err
	}
	cb.Handle = handles[0]
	cb.State = CommandBufferStateReady

	return cb, nil
}

func (cb *CommandBuffer) Free(device *Device, pool vk.CommandPool) {
	if cb.Handle == nil {
		return
	}
	_ = device.locks.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(device.LogicalDevice, pool, 1, []vk.CommandBuffer{cb.Handle})
		return nil
	})
	cb.Handle = nil
	cb.State = CommandBufferStateNotAllocated
}

func (cb *CommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := checkResult(vk.BeginCommandBuffer(cb.Handle, &beginInfo), core.ErrCodeInitialization, "vkBeginCommandBuffer"); err != nil {
		return err
	}
	cb.State = CommandBufferStateRecording
	return nil
}

func (cb *CommandBuffer) End() error {
	if err := checkResult(vk.EndCommandBuffer(cb.Handle), core.ErrCodeInitialization, "vkEndCommandBuffer"); err != nil {
		return err
	}
	cb.State = CommandBufferStateRecordingEnded
	return nil
}

func (cb *CommandBuffer) UpdateSubmitted() {
	cb.State = CommandBufferStateSubmitted
}

// Reset returns the buffer to the initial state. The pool must allow resets.
func (cb *CommandBuffer) Reset() error {
	if err := checkResult(vk.ResetCommandBuffer(cb.Handle, 0), core.ErrCodeInitialization, "vkResetCommandBuffer"); err != nil {
		return err
	}
	cb.State = CommandBufferStateReady
	return nil
}

// BeginOneShot allocates a primary command buffer from pool and begins
// recording it for a single submission.
func (d *Device) BeginOneShot(pool vk.CommandPool) (*CommandBuffer, error) {
	cb, err := NewCommandBuffer(d, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		cb.Free(d, pool)
		return nil, err
	}
	return cb, nil
}

// EndOneShot ends recording, submits to the graphics queue, waits for it to go
// idle and frees the command buffer.
func (d *Device) EndOneShot(pool vk.CommandPool, cb *CommandBuffer) error {
	defer cb.Free(d, pool)

	if err := cb.End(); err != nil {
		return err
	}
	if err := d.SubmitOneShot(d.GraphicsQueue, cb.Handle); err != nil {
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

// OneShot records fn into a transient command buffer and runs it to completion.
func (d *Device) OneShot(fn func(cmd vk.CommandBuffer)) error {
	cb, err := d.BeginOneShot(d.TransientCommandPool)
	if err != nil {
		return err
	}
	fn(cb.Handle)
	return d.EndOneShot(d.TransientCommandPool, cb)
}
