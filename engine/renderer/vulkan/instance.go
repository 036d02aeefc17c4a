package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
	"golang.org/x/exp/slices"
)

const (
	validationLayerName                = "VK_LAYER_KHRONOS_validation"
	portabilityEnumerationExtension    = "VK_KHR_portability_enumeration"
	portabilitySubsetExtension         = "VK_KHR_portability_subset"
	instanceCreateEnumeratePortability = vk.InstanceCreateFlags(0x00000001)
)

// Window is what the renderer needs from the platform window.
type Window interface {
	RequiredInstanceExtensions() []string
	InstanceProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// FramebufferSize is the size in pixels, which may differ from the window size.
	FramebufferSize() (uint32, uint32)
	WasResized() bool
	ClearResized()
}

type InstanceConfig struct {
	ApplicationName    string
	ApplicationVersion uint32
	Validation         bool
}

type Instance struct {
	Handle     vk.Instance
	Validation bool

	layers        []string
	extensions    []string
	debugCallback vk.DebugReportCallback
}

// NewInstance loads the Vulkan entry points through the window toolkit and
// creates the instance, with the validation layer and debug callback when
// cfg.Validation is set.
func NewInstance(window Window, cfg InstanceConfig) (*Instance, error) {
	procAddr := window.InstanceProcAddr()
	if procAddr == nil {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeInitialization, "failed to initialize vk")
	}

	inst := &Instance{
		Validation:    cfg.Validation && core.ValidationAllowed(),
		debugCallback: vk.NullDebugReportCallback,
	}

	available, err := instanceExtensionNames()
	if err != nil {
		return nil, err
	}

	var flags vk.InstanceCreateFlags
	inst.extensions = append(inst.extensions, window.RequiredInstanceExtensions()...)
	if slices.Contains(available, portabilityEnumerationExtension) {
		inst.extensions = append(inst.extensions, portabilityEnumerationExtension)
		flags |= instanceCreateEnumeratePortability
	}
	if inst.Validation {
		inst.extensions = append(inst.extensions, vk.ExtDebugReportExtensionName)
	}
	if missing := missingNames(available, inst.extensions); len(missing) > 0 {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "required instance extension is missing: %s", missing[0])
	}
	core.LogInfo("Required extensions:")
	for _, e := range inst.extensions {
		core.LogInfo(e)
	}

	if inst.Validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layers, err := instanceLayerNames()
		if err != nil {
			return nil, err
		}
		required := []string{validationLayerName}
		if missing := missingNames(layers, required); len(missing) > 0 {
			return nil, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "required validation layer is missing: %s", missing[0])
		}
		inst.layers = required
		core.LogInfo("All required validation layers are present.")
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: cfg.ApplicationVersion,
		PApplicationName:   VulkanSafeString(cfg.ApplicationName),
		PEngineName:        VulkanSafeString("Quartz Engine"),
		EngineVersion:      uint32(vk.MakeVersion(0, 1, 0)),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		Flags:                   flags,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(inst.extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(inst.extensions),
		EnabledLayerCount:       uint32(len(inst.layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(inst.layers),
	}

	var handle vk.Instance
	if err := checkResult(vk.CreateInstance(&createInfo, nil, &handle), core.ErrCodeInitialization, "vkCreateInstance %+v", createInfo); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(handle); err != nil {
		vk.DestroyInstance(handle, nil)
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeInitialization, "failed to load instance entry points")
	}
	inst.Handle = handle
	core.LogInfo("Vulkan Instance created.")

	if inst.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       debugReportFlags(core.BuildMode()),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := checkResult(vk.CreateDebugReportCallback(inst.Handle, &debugCreateInfo, nil, &dbg), core.ErrCodeInitialization, "vkCreateDebugReportCallback"); err != nil {
			inst.Destroy()
			return nil, err
		}
		inst.debugCallback = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return inst, nil
}

// Destroy removes the debug callback, then the instance.
func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	if i.Handle != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(i.Handle, nil)
		i.Handle = nil
	}
}

// debugReportFlags covers every message kind, minus performance warnings in debug builds.
func debugReportFlags(mode core.Mode) vk.DebugReportFlags {
	flags := vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
		vk.DebugReportInformationBit | vk.DebugReportDebugBit)
	if mode != core.ModeDebug {
		flags |= vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)
	}
	return flags
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func instanceExtensionNames() ([]string, error) {
	var count uint32
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &count, nil), core.ErrCodeInitialization, "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &count, props), core.ErrCodeInitialization, "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	if err := checkResult(vk.EnumerateInstanceLayerProperties(&count, nil), core.ErrCodeInitialization, "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := checkResult(vk.EnumerateInstanceLayerProperties(&count, props), core.ErrCodeInitialization, "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}
