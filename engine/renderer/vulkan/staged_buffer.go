package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
)

// StagedBuffer is a device local buffer filled once from a host visible
// staging buffer. The staging buffer stays owned until Destroy.
type StagedBuffer struct {
	staging     bufferHandle
	destination bufferHandle
}

// NewStagedBuffer uploads data into a device local buffer with usage plus
// TransferDst. It returns after the copy has completed on the GPU.
func NewStagedBuffer(device *Device, data []byte, usage vk.BufferUsageFlags) (*StagedBuffer, error) {
	size := vk.DeviceSize(len(data))

	staging, err := device.CreateBuffer(size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not create the staging buffer")
	}
	sb := &StagedBuffer{staging: bufferHandle{Buffer: staging, Size: size}}
	if sb.staging.Memory, err = device.AllocateStagingMemory(staging, data); err != nil {
		sb.Destroy(device)
		return nil, err
	}

	sb.destination, err = device.newBuffer(size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		sb.Destroy(device)
		return nil, stacktrace.Propagate(err, "could not create the destination buffer")
	}

	if err := device.OneShot(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, sb.staging.Buffer, sb.destination.Buffer, 1, []vk.BufferCopy{{Size: size}})
	}); err != nil {
		sb.Destroy(device)
		return nil, stacktrace.Propagate(err, "could not copy %d bytes to the device", size)
	}
	return sb, nil
}

func (sb *StagedBuffer) Handle() vk.Buffer {
	return sb.destination.Buffer
}

func (sb *StagedBuffer) Size() vk.DeviceSize {
	return sb.destination.Size
}

// StagingBytes reads back the staged payload.
func (sb *StagedBuffer) StagingBytes(device *Device) ([]byte, error) {
	return device.ReadMemory(sb.staging.Memory, int(sb.staging.Size))
}

func (sb *StagedBuffer) Destroy(device *Device) {
	sb.destination.destroy(device)
	sb.staging.destroy(device)
}
