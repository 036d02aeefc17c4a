package vulkan

import (
	"fmt"

	units "github.com/docker/go-units"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
	"golang.org/x/exp/slices"
)

// Device is the selected physical device and its logical device. A single
// queue serves graphics, transfer and present.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	// QueueFamilyIndex never changes for the lifetime of the device.
	QueueFamilyIndex uint32
	GraphicsQueue    vk.Queue
	PresentQueue     vk.Queue

	// TransientCommandPool backs the one-shot transfer command buffers.
	TransientCommandPool vk.CommandPool

	Name                 string
	Properties           vk.PhysicalDeviceProperties
	Memory               vk.PhysicalDeviceMemoryProperties
	MaxSamplerAnisotropy float32

	memoryTypes []vk.MemoryType
	extensions  []string
	locks       *VulkanLockPool
}

// deviceCandidate is what device selection looks at for one physical device.
type deviceCandidate struct {
	name              string
	queueFlags        []vk.QueueFlags
	presentSupport    []bool
	samplerAnisotropy bool
	extensions        []string
}

// queueFamily returns the first family with graphics that can also present.
func (c *deviceCandidate) queueFamily() (uint32, bool) {
	for i, flags := range c.queueFlags {
		if flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		if i < len(c.presentSupport) && c.presentSupport[i] {
			return uint32(i), true
		}
	}
	return 0, false
}

// unsuitable returns why the candidate cannot be used, or "" if it can.
func (c *deviceCandidate) unsuitable() string {
	if _, ok := c.queueFamily(); !ok {
		return "no queue family supports both graphics and present"
	}
	if !c.samplerAnisotropy {
		return "samplerAnisotropy is not supported"
	}
	if !slices.Contains(c.extensions, vk.KhrSwapchainExtensionName) {
		return fmt.Sprintf("required extension not found: '%s'", vk.KhrSwapchainExtensionName)
	}
	return ""
}

// selectDevice returns the index of the first suitable candidate and its queue family.
func selectDevice(candidates []deviceCandidate) (int, uint32, error) {
	for i := range candidates {
		if reason := candidates[i].unsuitable(); reason != "" {
			core.LogInfo("Skipping device '%s': %s.", candidates[i].name, reason)
			continue
		}
		family, _ := candidates[i].queueFamily()
		return i, family, nil
	}
	return -1, 0, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "no physical devices were found which meet the requirements")
}

// deviceExtensions lists the extensions to enable on a device advertising available.
func deviceExtensions(available []string) []string {
	extensions := []string{vk.KhrSwapchainExtensionName}
	if slices.Contains(available, portabilitySubsetExtension) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensions = append(extensions, portabilitySubsetExtension)
	}
	return extensions
}

// NewDevice picks the first physical device that can render and present to
// surface, then creates the logical device with one queue at priority 1.0.
func NewDevice(instance *Instance, surface vk.Surface) (*Device, error) {
	var count uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(instance.Handle, &count, nil), core.ErrCodeInitialization, "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if err := checkResult(vk.EnumeratePhysicalDevices(instance.Handle, &count, physicalDevices), core.ErrCodeInitialization, "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}

	candidates := make([]deviceCandidate, len(physicalDevices))
	for i, pd := range physicalDevices {
		c, err := describePhysicalDevice(pd, surface)
		if err != nil {
			return nil, err
		}
		candidates[i] = c
	}
	selected, family, err := selectDevice(candidates)
	if err != nil {
		return nil, err
	}

	d := &Device{
		PhysicalDevice:   physicalDevices[selected],
		QueueFamilyIndex: family,
		Name:             candidates[selected].name,
		locks:            NewVulkanLockPool(),
	}
	d.locks.SetQueueFamily(family)

	vk.GetPhysicalDeviceProperties(d.PhysicalDevice, &d.Properties)
	d.Properties.Deref()
	d.Properties.Limits.Deref()
	d.MaxSamplerAnisotropy = d.Properties.Limits.MaxSamplerAnisotropy

	vk.GetPhysicalDeviceMemoryProperties(d.PhysicalDevice, &d.Memory)
	d.Memory.Deref()
	d.memoryTypes = make([]vk.MemoryType, d.Memory.MemoryTypeCount)
	for i := uint32(0); i < d.Memory.MemoryTypeCount; i++ {
		d.Memory.MemoryTypes[i].Deref()
		d.memoryTypes[i] = d.Memory.MemoryTypes[i]
	}
	d.logProperties()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(d.PhysicalDevice, &features)
	features.Deref()
	enabled := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy:                      vk.True,
		ShaderSampledImageArrayDynamicIndexing: features.ShaderSampledImageArrayDynamicIndexing,
	}

	d.extensions = deviceExtensions(candidates[selected].extensions)

	core.LogInfo("Creating logical device...")
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{enabled},
		EnabledExtensionCount:   uint32(len(d.extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(d.extensions),
	}
	var logical vk.Device
	if err := checkResult(vk.CreateDevice(d.PhysicalDevice, &deviceCreateInfo, nil, &logical), core.ErrCodeInitialization, "vkCreateDevice %+v", deviceCreateInfo); err != nil {
		return nil, err
	}
	d.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(d.LogicalDevice, family, 0, &queue)
	d.GraphicsQueue = queue
	d.PresentQueue = queue
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var pool vk.CommandPool
	if err := checkResult(vk.CreateCommandPool(d.LogicalDevice, &poolCreateInfo, nil, &pool), core.ErrCodeInitialization, "vkCreateCommandPool %+v", poolCreateInfo); err != nil {
		d.Destroy()
		return nil, err
	}
	d.TransientCommandPool = pool
	core.LogInfo("Transient command pool created.")

	return d, nil
}

func describePhysicalDevice(pd vk.PhysicalDevice, surface vk.Surface) (deviceCandidate, error) {
	var c deviceCandidate

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	c.name = vk.ToString(properties.DeviceName[:])

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()
	c.samplerAnisotropy = features.SamplerAnisotropy == vk.True

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)

	core.LogDebug("Graphics | Present | Transfer | Name")
	for i := range families {
		families[i].Deref()
		var supportsPresent vk.Bool32
		if err := checkResult(vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfaceSupport"); err != nil {
			return c, err
		}
		c.queueFlags = append(c.queueFlags, families[i].QueueFlags)
		c.presentSupport = append(c.presentSupport, supportsPresent == vk.True)
		core.LogDebug("       %t |      %t |       %t | %s",
			families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			supportsPresent == vk.True,
			families[i].QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0,
			c.name)
	}

	var extCount uint32
	if err := checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &extCount, nil), core.ErrCodeInitialization, "vkEnumerateDeviceExtensionProperties"); err != nil {
		return c, err
	}
	if extCount > 0 {
		exts := make([]vk.ExtensionProperties, extCount)
		if err := checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &extCount, exts), core.ErrCodeInitialization, "vkEnumerateDeviceExtensionProperties"); err != nil {
			return c, err
		}
		for _, e := range exts {
			e.Deref()
			c.extensions = append(c.extensions, vk.ToString(e.ExtensionName[:]))
		}
	}
	return c, nil
}

func (d *Device) logProperties() {
	core.LogInfo("Selected device: '%s'.", d.Name)
	switch d.Properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	driver := vk.Version(d.Properties.DriverVersion)
	core.LogInfo("GPU Driver version: %d.%d.%d", driver.Major(), driver.Minor(), driver.Patch())
	api := vk.Version(d.Properties.ApiVersion)
	core.LogInfo("Vulkan API version: %d.%d.%d", api.Major(), api.Minor(), api.Patch())

	for i := uint32(0); i < d.Memory.MemoryHeapCount; i++ {
		heap := d.Memory.MemoryHeaps[i]
		heap.Deref()
		size := units.BytesSize(float64(heap.Size))
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogInfo("Local GPU memory: %s", size)
		} else {
			core.LogInfo("Shared System memory: %s", size)
		}
	}
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	return checkResult(vk.DeviceWaitIdle(d.LogicalDevice), core.ErrCodeDeviceLost, "vkDeviceWaitIdle")
}

func (d *Device) Destroy() {
	if d.LogicalDevice == nil {
		return
	}
	if d.TransientCommandPool != vk.NullCommandPool {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(d.LogicalDevice, d.TransientCommandPool, nil)
		d.TransientCommandPool = vk.NullCommandPool
	}
	core.LogInfo("Destroying logical device...")
	vk.DestroyDevice(d.LogicalDevice, nil)
	d.LogicalDevice = nil
	d.GraphicsQueue = nil
	d.PresentQueue = nil
	// Physical devices are not destroyed.
	d.PhysicalDevice = nil
}

// chooseMemoryType returns the smallest index allowed by typeBits whose
// property flags contain every required flag.
func chooseMemoryType(types []vk.MemoryType, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	for i, t := range types {
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.PropertyFlags&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}

// ChooseMemoryTypeIndex picks the memory type for an allocation with requirements req.
func (d *Device) ChooseMemoryTypeIndex(required vk.MemoryPropertyFlags, req vk.MemoryRequirements) (uint32, error) {
	index, ok := chooseMemoryType(d.memoryTypes, req.MemoryTypeBits, required)
	if !ok {
		return 0, stacktrace.NewErrorWithCode(core.ErrCodeInitialization,
			"no memory type matches bits %#b with properties %#x", req.MemoryTypeBits, uint32(required))
	}
	return index, nil
}
