package vulkan

import (
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/quartz/engine/core"
)

func TestVulkanResultString(t *testing.T) {
	c := qt.New(t)

	c.Assert(VulkanResultString(vk.ErrorOutOfDate, false), qt.Equals, "VK_ERROR_OUT_OF_DATE_KHR")
	c.Assert(VulkanResultString(vk.Success, true), qt.Equals, "VK_SUCCESS Command successfully completed")
	c.Assert(VulkanResultString(vk.Result(12345), false), qt.Equals, "VkResult(12345)")
	c.Assert(VulkanResultIsSuccess(vk.Suboptimal), qt.IsTrue)
	c.Assert(VulkanResultIsSuccess(vk.ErrorDeviceLost), qt.IsFalse)
}

func TestCheckResult(t *testing.T) {
	c := qt.New(t)

	c.Assert(checkResult(vk.Success, core.ErrCodeInitialization, "vkNothing"), qt.IsNil)

	err := checkResult(vk.ErrorOutOfDeviceMemory, core.ErrCodeInitialization, "vkAllocateMemory %d", 64)
	c.Assert(err, qt.ErrorMatches, "(?s).*vkAllocateMemory 64 failed with VK_ERROR_OUT_OF_DEVICE_MEMORY.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeInitialization)

	c.Assert(core.ErrorCode(checkResult(vk.ErrorOutOfDate, core.ErrCodeInitialization, "x")), qt.Equals, core.ErrCodeSurfaceOutOfDate)
	c.Assert(core.ErrorCode(checkResult(vk.ErrorDeviceLost, core.ErrCodeInitialization, "x")), qt.Equals, core.ErrCodeDeviceLost)
}

func TestPresentOutcome(t *testing.T) {
	c := qt.New(t)

	outOfDate, err := presentOutcome(vk.Success)
	c.Assert(err, qt.IsNil)
	c.Assert(outOfDate, qt.IsFalse)

	for _, result := range []vk.Result{vk.ErrorOutOfDate, vk.Suboptimal} {
		outOfDate, err = presentOutcome(result)
		c.Assert(err, qt.IsNil)
		c.Assert(outOfDate, qt.IsTrue)
	}

	outOfDate, err = presentOutcome(vk.ErrorDeviceLost)
	c.Assert(outOfDate, qt.IsFalse)
	c.Assert(err, qt.ErrorMatches, "(?s).*vkQueuePresent failed with VK_ERROR_DEVICE_LOST.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeDeviceLost)

	outOfDate, err = presentOutcome(vk.ErrorSurfaceLost)
	c.Assert(outOfDate, qt.IsFalse)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestPendingAcquires(t *testing.T) {
	c := qt.New(t)

	c.Assert(pendingAcquires([]bool{false, false}), qt.HasLen, 0)
	c.Assert(pendingAcquires([]bool{false, true, true}), qt.DeepEquals, []int{1, 2})
	c.Assert(pendingAcquires(nil), qt.HasLen, 0)
}

func TestVulkanSafeString(t *testing.T) {
	c := qt.New(t)

	c.Assert(VulkanSafeString(""), qt.Equals, "\x00")
	c.Assert(VulkanSafeString("main"), qt.Equals, "main\x00")
	c.Assert(VulkanSafeString("main\x00"), qt.Equals, "main\x00")
	c.Assert(VulkanSafeStrings([]string{"a", "b\x00"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
}

func TestMissingNames(t *testing.T) {
	c := qt.New(t)

	available := []string{"VK_KHR_surface", "VK_KHR_swapchain"}
	c.Assert(missingNames(available, []string{"VK_KHR_swapchain"}), qt.HasLen, 0)
	c.Assert(missingNames(available, []string{"VK_EXT_debug_report", "VK_KHR_surface", "VK_LAYER_KHRONOS_validation"}), qt.DeepEquals,
		[]string{"VK_EXT_debug_report", "VK_LAYER_KHRONOS_validation"})
}

func TestDebugReportFlags(t *testing.T) {
	c := qt.New(t)

	perf := vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)
	errs := vk.DebugReportFlags(vk.DebugReportErrorBit)

	c.Assert(debugReportFlags(core.ModeDebug)&perf, qt.Equals, vk.DebugReportFlags(0))
	c.Assert(debugReportFlags(core.ModeDebug)&errs, qt.Equals, errs)
	c.Assert(debugReportFlags(core.ModeTest)&perf, qt.Equals, perf)
}

func TestLockPoolSerializesGroup(t *testing.T) {
	c := qt.New(t)

	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(MemoryManagement, func() error {
				counter++
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(MemoryManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	c.Assert(counter, qt.Equals, 100)
}

func TestSafeQueueCallFallsBackToQueueGroup(t *testing.T) {
	c := qt.New(t)

	pool := NewVulkanLockPool()
	called := false
	err := pool.SafeQueueCall(7, func() error {
		called = true
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(called, qt.IsTrue)

	// A registered family does not hold the pool lock while fn runs.
	pool.SetQueueFamily(1)
	err = pool.SafeQueueCall(1, func() error {
		pool.SetQueueFamily(2)
		return nil
	})
	c.Assert(err, qt.IsNil)
}

func TestSpirvWords(t *testing.T) {
	c := qt.New(t)

	words := spirvWords([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	c.Assert(words, qt.DeepEquals, []uint32{0x07230203, 0x00010000})
}

func TestShaderSetHasSkybox(t *testing.T) {
	c := qt.New(t)

	set := ShaderSet{MainVertex: []byte{1}, MainFragment: []byte{1}}
	c.Assert(set.HasSkybox(), qt.IsFalse)
	set.SkyboxVertex = []byte{1}
	c.Assert(set.HasSkybox(), qt.IsFalse)
	set.SkyboxFragment = []byte{1}
	c.Assert(set.HasSkybox(), qt.IsTrue)
}

func TestExternalDependency(t *testing.T) {
	c := qt.New(t)

	dep := externalDependency()
	c.Assert(dep.SrcSubpass, qt.Equals, uint32(vk.SubpassExternal))
	c.Assert(dep.DstSubpass, qt.Equals, uint32(0))
	c.Assert(dep.DstAccessMask, qt.Equals, vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessDepthStencilAttachmentWriteBit))
}
