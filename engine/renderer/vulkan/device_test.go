package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/quartz/engine/core"
)

var (
	graphics = vk.QueueFlags(vk.QueueGraphicsBit)
	transfer = vk.QueueFlags(vk.QueueTransferBit)
)

func TestSelectDevice(t *testing.T) {
	tests := []struct {
		about      string
		candidates []deviceCandidate
		index      int
		family     uint32
		err        bool
	}{{
		about: "first family with graphics and present",
		candidates: []deviceCandidate{{
			name:              "gpu",
			queueFlags:        []vk.QueueFlags{transfer, graphics, graphics},
			presentSupport:    []bool{true, false, true},
			samplerAnisotropy: true,
			extensions:        []string{vk.KhrSwapchainExtensionName},
		}},
		index:  0,
		family: 2,
	}, {
		about: "skips devices without anisotropy or swapchain",
		candidates: []deviceCandidate{{
			name:              "no-aniso",
			queueFlags:        []vk.QueueFlags{graphics},
			presentSupport:    []bool{true},
			samplerAnisotropy: false,
			extensions:        []string{vk.KhrSwapchainExtensionName},
		}, {
			name:              "no-swapchain",
			queueFlags:        []vk.QueueFlags{graphics},
			presentSupport:    []bool{true},
			samplerAnisotropy: true,
		}, {
			name:              "good",
			queueFlags:        []vk.QueueFlags{graphics},
			presentSupport:    []bool{true},
			samplerAnisotropy: true,
			extensions:        []string{vk.KhrSwapchainExtensionName},
		}},
		index:  2,
		family: 0,
	}, {
		about: "graphics and present on different families",
		candidates: []deviceCandidate{{
			name:              "split",
			queueFlags:        []vk.QueueFlags{graphics, transfer},
			presentSupport:    []bool{false, true},
			samplerAnisotropy: true,
			extensions:        []string{vk.KhrSwapchainExtensionName},
		}},
		err: true,
	}, {
		about: "no devices",
		err:   true,
	}}

	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			index, family, err := selectDevice(test.candidates)
			if test.err {
				c.Assert(err, qt.ErrorMatches, "(?s).*no physical devices were found which meet the requirements.*")
				c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeInitialization)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(index, qt.Equals, test.index)
			c.Assert(family, qt.Equals, test.family)
		})
	}
}

func TestDeviceExtensions(t *testing.T) {
	c := qt.New(t)

	c.Assert(deviceExtensions([]string{vk.KhrSwapchainExtensionName}), qt.DeepEquals, []string{vk.KhrSwapchainExtensionName})
	c.Assert(deviceExtensions([]string{vk.KhrSwapchainExtensionName, portabilitySubsetExtension}), qt.DeepEquals,
		[]string{vk.KhrSwapchainExtensionName, portabilitySubsetExtension})
}

func TestChooseMemoryType(t *testing.T) {
	c := qt.New(t)

	local := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	types := []vk.MemoryType{
		{PropertyFlags: local},
		{PropertyFlags: hostVisibleCoherent},
		{PropertyFlags: local | hostVisibleCoherent},
	}

	index, ok := chooseMemoryType(types, 0b111, hostVisibleCoherent)
	c.Assert(ok, qt.IsTrue)
	c.Assert(index, qt.Equals, uint32(1))

	// Type 1 is excluded by the requirement bits.
	index, ok = chooseMemoryType(types, 0b101, hostVisibleCoherent)
	c.Assert(ok, qt.IsTrue)
	c.Assert(index, qt.Equals, uint32(2))

	_, ok = chooseMemoryType(types, 0b001, hostVisibleCoherent)
	c.Assert(ok, qt.IsFalse)
}

func TestChooseMemoryTypeIndex(t *testing.T) {
	c := qt.New(t)

	d := &Device{memoryTypes: []vk.MemoryType{{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)}}}
	_, err := d.ChooseMemoryTypeIndex(hostVisibleCoherent, vk.MemoryRequirements{MemoryTypeBits: 1})
	c.Assert(err, qt.ErrorMatches, "(?s).*no memory type matches.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeInitialization)
}
