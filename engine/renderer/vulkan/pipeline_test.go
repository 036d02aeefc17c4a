package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

func TestVertexAttributes(t *testing.T) {
	c := qt.New(t)

	attributes := vertexAttributes()
	c.Assert(attributes, qt.HasLen, 9)

	offsets := []uint32{0, 12, 24, 36, 48, 56, 64, 72, 80}
	for i, a := range attributes {
		c.Assert(a.Location, qt.Equals, uint32(i))
		c.Assert(a.Binding, qt.Equals, uint32(0))
		c.Assert(a.Offset, qt.Equals, offsets[i], qt.Commentf("location %d", i))
		if i < 4 {
			c.Assert(a.Format, qt.Equals, vk.FormatR32g32b32Sfloat)
		} else {
			c.Assert(a.Format, qt.Equals, vk.FormatR32g32Sfloat)
		}
	}
	c.Assert(metadata.VertexSize, qt.Equals, uint32(88))
}

func TestPushConstantRanges(t *testing.T) {
	c := qt.New(t)

	ranges := pushConstantRanges()
	c.Assert(ranges, qt.HasLen, 2)
	c.Assert(ranges[0].StageFlags, qt.Equals, stageFlags(vk.ShaderStageVertexBit))
	c.Assert(ranges[0].Offset, qt.Equals, uint32(0))
	c.Assert(ranges[0].Size, qt.Equals, uint32(64))
	c.Assert(ranges[1].StageFlags, qt.Equals, stageFlags(vk.ShaderStageFragmentBit))
	c.Assert(ranges[1].Offset, qt.Equals, uint32(64))
	c.Assert(ranges[1].Size, qt.Equals, uint32(4))
}

func TestPipelineConfigs(t *testing.T) {
	c := qt.New(t)

	extent := vk.Extent2D{Width: 640, Height: 480}
	rp := &RenderPass{}

	main := mainPipelineConfig(rp, extent, vk.NullDescriptorSetLayout, nil)
	c.Assert(main.Stride, qt.Equals, metadata.VertexSize)
	c.Assert(main.CullMode, qt.Equals, vk.CullModeBackBit)
	c.Assert(main.DepthTest, qt.IsTrue)
	c.Assert(main.DepthWrite, qt.IsTrue)
	c.Assert(main.DepthCompare, qt.Equals, vk.CompareOpLess)
	c.Assert(main.Blend, qt.IsTrue)
	c.Assert(main.PushConstantRanges, qt.HasLen, 2)

	sky := skyboxPipelineConfig(rp, extent, vk.NullDescriptorSetLayout, nil)
	c.Assert(sky.Stride, qt.Equals, uint32(12))
	c.Assert(sky.Attributes, qt.HasLen, 1)
	c.Assert(sky.CullMode, qt.Equals, vk.CullModeNone)
	c.Assert(sky.DepthTest, qt.IsTrue)
	c.Assert(sky.DepthWrite, qt.IsFalse)
	c.Assert(sky.DepthCompare, qt.Equals, vk.CompareOpLessOrEqual)
	c.Assert(sky.PushConstantRanges, qt.HasLen, 0)
}

func TestIncrementCurrentInFlightFrameIndex(t *testing.T) {
	c := qt.New(t)

	p := &Pipeline{FramesInFlight: 2}
	c.Assert(p.IncrementCurrentInFlightFrameIndex(), qt.Equals, uint32(1))
	c.Assert(p.IncrementCurrentInFlightFrameIndex(), qt.Equals, uint32(0))
	c.Assert(p.IncrementCurrentInFlightFrameIndex(), qt.Equals, uint32(1))
	c.Assert(p.CurrentFrame, qt.Equals, uint32(1))
}

func TestSkyboxNeedsPipelineAndSets(t *testing.T) {
	c := qt.New(t)

	p := &Pipeline{}
	c.Assert(p.HasSkybox(), qt.IsFalse)
	p.skybox = &GraphicsPipeline{}
	c.Assert(p.HasSkybox(), qt.IsFalse)
	p.skyboxSets = make([]vk.DescriptorSet, 2)
	c.Assert(p.HasSkybox(), qt.IsTrue)
}
