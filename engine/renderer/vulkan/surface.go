package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
	qmath "github.com/spaghettifunk/quartz/engine/math"
)

var (
	preferredSurfaceFormats = []vk.Format{vk.FormatB8g8r8a8Srgb, vk.FormatR8g8b8a8Srgb}
	depthFormatCandidates   = []vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint}
)

// Surface wraps the window's presentation surface and the properties derived
// from it on every (re)creation.
type Surface struct {
	Handle vk.Surface

	Capabilities vk.SurfaceCapabilities
	Format       vk.SurfaceFormat
	PresentMode  vk.PresentMode
	Extent       vk.Extent2D
	DepthFormat  vk.Format

	window Window
}

// NewSurface creates the surface handle. Properties are filled in by Recreate
// once a device exists.
func NewSurface(instance *Instance, window Window) (*Surface, error) {
	handle, err := window.CreateSurface(instance.Handle)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not create the window surface")
	}
	core.LogInfo("Vulkan surface created.")
	return &Surface{Handle: handle, window: window}, nil
}

// Recreate queries the surface again and picks format, present mode, extent
// and depth format.
func (s *Surface) Recreate(device *Device) error {
	var caps vk.SurfaceCapabilities
	if err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(device.PhysicalDevice, s.Handle, &caps), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	s.Capabilities = caps

	formats, err := surfaceFormats(device.PhysicalDevice, s.Handle)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "surface reports no formats")
	}
	modes, err := presentModes(device.PhysicalDevice, s.Handle)
	if err != nil {
		return err
	}

	width, height := s.window.FramebufferSize()
	s.Format = chooseSurfaceFormat(formats)
	s.PresentMode = choosePresentMode(modes)
	s.Extent = chooseExtent(caps, width, height)

	depth, err := chooseDepthFormat(depthFormatCandidates, func(f vk.Format) vk.FormatFeatureFlags {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, f, &props)
		props.Deref()
		return props.OptimalTilingFeatures
	})
	if err != nil {
		return err
	}
	s.DepthFormat = depth

	core.LogDebug("Surface: format=%d present=%d extent=%dx%d depth=%d",
		s.Format.Format, s.PresentMode, s.Extent.Width, s.Extent.Height, s.DepthFormat)
	return nil
}

func (s *Surface) WasResized() bool {
	return s.window.WasResized()
}

func (s *Surface) ClearResized() {
	s.window.ClearResized()
}

func (s *Surface) Destroy(instance *Instance) {
	if s.Handle != vk.NullSurface {
		vk.DestroySurface(instance.Handle, s.Handle, nil)
		s.Handle = vk.NullSurface
	}
}

func surfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if count == 0 {
		return formats, nil
	}
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func presentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if count == 0 {
		return modes, nil
	}
	if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, modes), core.ErrCodeInitialization, "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
		return nil, err
	}
	return modes, nil
}

// chooseSurfaceFormat prefers an sRGB format in the sRGB nonlinear color
// space, else the first reported. formats must not be empty.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, preferred := range preferredSurfaceFormats {
		for _, f := range formats {
			if f.Format == preferred && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return f
			}
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the current extent unless the surface lets the
// application decide, then clamps the framebuffer size.
func chooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  qmath.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: qmath.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount is maxImageCount when the surface sets one, else minImageCount+1.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	if caps.MaxImageCount > 0 {
		return caps.MaxImageCount
	}
	return caps.MinImageCount + 1
}

// chooseDepthFormat returns the first candidate usable as a depth attachment
// with optimal tiling.
func chooseDepthFormat(candidates []vk.Format, optimalFeatures func(vk.Format) vk.FormatFeatureFlags) (vk.Format, error) {
	want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, f := range candidates {
		if optimalFeatures(f)&want == want {
			return f, nil
		}
	}
	return vk.FormatUndefined, stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "failed to find a supported depth format")
}

// hasStencil reports whether a depth format carries a stencil component.
func hasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}
