package vulkan

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgbaSrgb := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	bgraSrgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	c.Assert(chooseSurfaceFormat([]vk.SurfaceFormat{unorm, rgbaSrgb, bgraSrgb}), qt.Equals, bgraSrgb)
	c.Assert(chooseSurfaceFormat([]vk.SurfaceFormat{unorm, rgbaSrgb}), qt.Equals, rgbaSrgb)
	c.Assert(chooseSurfaceFormat([]vk.SurfaceFormat{unorm}), qt.Equals, unorm)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	c.Assert(choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}), qt.Equals, vk.PresentModeMailbox)
	c.Assert(choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}), qt.Equals, vk.PresentModeFifo)
	c.Assert(choosePresentMode(nil), qt.Equals, vk.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	c.Assert(chooseExtent(caps, 1920, 1080), qt.Equals, vk.Extent2D{Width: 800, Height: 600})

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	c.Assert(chooseExtent(caps, 1920, 500), qt.Equals, vk.Extent2D{Width: 1024, Height: 500})
	c.Assert(chooseExtent(caps, 0, 0), qt.Equals, vk.Extent2D{Width: 1, Height: 1})
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)

	c.Assert(chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}), qt.Equals, uint32(3))
}

func TestChooseDepthFormat(t *testing.T) {
	c := qt.New(t)

	depthAttachment := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	supported := map[vk.Format]vk.FormatFeatureFlags{
		vk.FormatD24UnormS8Uint: depthAttachment,
	}
	format, err := chooseDepthFormat(depthFormatCandidates, func(f vk.Format) vk.FormatFeatureFlags {
		return supported[f]
	})
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, vk.FormatD24UnormS8Uint)
	c.Assert(hasStencil(format), qt.IsTrue)
	c.Assert(hasStencil(vk.FormatD32Sfloat), qt.IsFalse)

	_, err = chooseDepthFormat(depthFormatCandidates, func(vk.Format) vk.FormatFeatureFlags { return 0 })
	c.Assert(err, qt.ErrorMatches, "(?s).*failed to find a supported depth format.*")
}
