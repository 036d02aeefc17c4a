package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

// LocallyMappedBuffer is a host visible, coherent buffer that stays mapped for
// its whole life. Per-frame uniforms are written straight through the pointer.
type LocallyMappedBuffer struct {
	handle bufferHandle
	ptr    unsafe.Pointer
}

func NewLocallyMappedBuffer(device *Device, size vk.DeviceSize, usage vk.BufferUsageFlags) (*LocallyMappedBuffer, error) {
	handle, err := device.newBuffer(size, usage, hostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	var ptr unsafe.Pointer
	if err := checkResult(vk.MapMemory(device.LogicalDevice, handle.Memory, 0, size, 0, &ptr), core.ErrCodeInitialization, "vkMapMemory"); err != nil {
		handle.destroy(device)
		return nil, err
	}
	return &LocallyMappedBuffer{handle: handle, ptr: ptr}, nil
}

func (b *LocallyMappedBuffer) Handle() vk.Buffer {
	return b.handle.Buffer
}

func (b *LocallyMappedBuffer) Size() vk.DeviceSize {
	return b.handle.Size
}

// Pointer is the start of the mapped range.
func (b *LocallyMappedBuffer) Pointer() unsafe.Pointer {
	return b.ptr
}

// Write copies data to the start of the buffer.
func (b *LocallyMappedBuffer) Write(data []byte) error {
	if vk.DeviceSize(len(data)) > b.handle.Size {
		return stacktrace.NewError("write of %d bytes overflows a %d byte buffer", len(data), b.handle.Size)
	}
	vk.Memcopy(b.ptr, data)
	return nil
}

func (b *LocallyMappedBuffer) Destroy(device *Device) {
	if b.ptr != nil {
		vk.UnmapMemory(device.LogicalDevice, b.handle.Memory)
		b.ptr = nil
	}
	b.handle.destroy(device)
}
