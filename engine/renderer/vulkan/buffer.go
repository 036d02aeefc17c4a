package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
)

const hostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

// CreateBuffer creates a buffer with exclusive sharing. Memory is bound separately.
func (d *Device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	if size == 0 {
		return vk.NullBuffer, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "cannot create a zero sized buffer")
	}
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := checkResult(vk.CreateBuffer(d.LogicalDevice, &createInfo, nil, &buffer), core.ErrCodeInitialization, "vkCreateBuffer %+v", createInfo); err != nil {
		return vk.NullBuffer, err
	}
	return buffer, nil
}

// AllocateBufferMemory allocates memory with the required properties and binds
// it to buffer at offset 0.
func (d *Device) AllocateBufferMemory(buffer vk.Buffer, required vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, buffer, &requirements)
	requirements.Deref()

	memory, err := d.allocate(requirements, required)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	if err := checkResult(vk.BindBufferMemory(d.LogicalDevice, buffer, memory, 0), core.ErrCodeInitialization, "vkBindBufferMemory"); err != nil {
		vk.FreeMemory(d.LogicalDevice, memory, nil)
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// CreateImage creates a 2D, single sample, single mip image with layers array
// layers. Cube maps pass 6 layers and ImageCreateCubeCompatibleBit.
func (d *Device) CreateImage(width, height, layers uint32, usage vk.ImageUsageFlags, flags vk.ImageCreateFlags, format vk.Format, tiling vk.ImageTiling) (vk.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     flags,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   layers,
		Samples:       vk.SampleCount1Bit,
		Tiling:        tiling,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if err := checkResult(vk.CreateImage(d.LogicalDevice, &createInfo, nil, &image), core.ErrCodeInitialization, "vkCreateImage %+v", createInfo); err != nil {
		return vk.NullImage, err
	}
	return image, nil
}

// AllocateImageMemory allocates memory with the required properties and binds
// it to image at offset 0.
func (d *Device) AllocateImageMemory(image vk.Image, required vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.LogicalDevice, image, &requirements)
	requirements.Deref()

	memory, err := d.allocate(requirements, required)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	if err := checkResult(vk.BindImageMemory(d.LogicalDevice, image, memory, 0), core.ErrCodeInitialization, "vkBindImageMemory"); err != nil {
		vk.FreeMemory(d.LogicalDevice, memory, nil)
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

func (d *Device) allocate(requirements vk.MemoryRequirements, required vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, err := d.ChooseMemoryTypeIndex(required, requirements)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if err := checkResult(vk.AllocateMemory(d.LogicalDevice, &allocInfo, nil, &memory), core.ErrCodeInitialization, "vkAllocateMemory %+v", allocInfo); err != nil {
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// PopulateWithLocalData maps memory, copies data to its start and unmaps it.
func (d *Device) PopulateWithLocalData(memory vk.DeviceMemory, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return d.locks.SafeCall(MemoryManagement, func() error {
		var ptr unsafe.Pointer
		if err := checkResult(vk.MapMemory(d.LogicalDevice, memory, 0, vk.DeviceSize(len(data)), 0, &ptr), core.ErrCodeInitialization, "vkMapMemory"); err != nil {
			return err
		}
		vk.Memcopy(ptr, data)
		vk.UnmapMemory(d.LogicalDevice, memory)
		return nil
	})
}

// AllocateStagingMemory backs buffer with host visible, coherent memory and
// fills it with data.
func (d *Device) AllocateStagingMemory(buffer vk.Buffer, data []byte) (vk.DeviceMemory, error) {
	memory, err := d.AllocateBufferMemory(buffer, hostVisibleCoherent)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	if err := d.PopulateWithLocalData(memory, data); err != nil {
		vk.FreeMemory(d.LogicalDevice, memory, nil)
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// ReadMemory copies size bytes from the start of host visible memory.
func (d *Device) ReadMemory(memory vk.DeviceMemory, size int) ([]byte, error) {
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	err := d.locks.SafeCall(MemoryManagement, func() error {
		var ptr unsafe.Pointer
		if err := checkResult(vk.MapMemory(d.LogicalDevice, memory, 0, vk.DeviceSize(size), 0, &ptr), core.ErrCodeInitialization, "vkMapMemory"); err != nil {
			return err
		}
		copy(out, unsafe.Slice((*byte)(ptr), size))
		vk.UnmapMemory(d.LogicalDevice, memory)
		return nil
	})
	return out, err
}

// SubmitOneShot submits cmd without semaphores and waits for queue to go idle.
func (d *Device) SubmitOneShot(queue vk.Queue, cmd vk.CommandBuffer) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	return d.locks.SafeQueueCall(d.QueueFamilyIndex, func() error {
		if err := checkResult(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence), core.ErrCodeInitialization, "vkQueueSubmit"); err != nil {
			return err
		}
		return checkResult(vk.QueueWaitIdle(queue), core.ErrCodeDeviceLost, "vkQueueWaitIdle")
	})
}

// bufferHandle is a buffer and its bound memory.
type bufferHandle struct {
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

func (d *Device) newBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, required vk.MemoryPropertyFlags) (bufferHandle, error) {
	buffer, err := d.CreateBuffer(size, usage)
	if err != nil {
		return bufferHandle{}, err
	}
	memory, err := d.AllocateBufferMemory(buffer, required)
	if err != nil {
		vk.DestroyBuffer(d.LogicalDevice, buffer, nil)
		return bufferHandle{}, err
	}
	return bufferHandle{Buffer: buffer, Memory: memory, Size: size}, nil
}

func (b *bufferHandle) destroy(d *Device) {
	if b.Buffer != vk.NullBuffer {
		vk.DestroyBuffer(d.LogicalDevice, b.Buffer, nil)
		b.Buffer = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(d.LogicalDevice, b.Memory, nil)
		b.Memory = vk.NullDeviceMemory
	}
	b.Size = 0
}
