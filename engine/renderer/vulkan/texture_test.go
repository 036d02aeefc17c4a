package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// fakeUploader records uploads without touching a device.
type fakeUploader struct {
	uploaded []string
	released []string
	failOn   string
}

func (f *fakeUploader) Upload(_ *Device, data *metadata.TextureData) (*Texture, error) {
	if data.Name == f.failOn {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch, "refusing %s", data.Name)
	}
	f.uploaded = append(f.uploaded, data.Name)
	return &Texture{Name: data.Name}, nil
}

func (f *fakeUploader) Release(_ *Device, t *Texture) {
	f.released = append(f.released, t.Name)
}

func newFakeTextureList() (*TextureList, *fakeUploader) {
	up := &fakeUploader{}
	return &TextureList{uploader: up}, up
}

func TestTextureListDefaults(t *testing.T) {
	c := qt.New(t)

	tl, up := newFakeTextureList()
	c.Assert(tl.InitializeDefaults(nil), qt.IsNil)
	c.Assert(tl.Len(), qt.Equals, int(metadata.DefaultTextureCount))
	c.Assert(up.uploaded, qt.DeepEquals, []string{
		metadata.DefaultBaseColorTextureName,
		metadata.DefaultMetallicRoughnessTextureName,
		metadata.DefaultNormalTextureName,
		metadata.DefaultEmissionTextureName,
		metadata.DefaultOcclusionTextureName,
	})
	c.Assert(tl.Get(metadata.DefaultNormalTextureIndex).Name, qt.Equals, metadata.DefaultNormalTextureName)

	// A second initialization releases the previous textures first.
	c.Assert(tl.InitializeDefaults(nil), qt.IsNil)
	c.Assert(up.released, qt.HasLen, 5)
	c.Assert(tl.Len(), qt.Equals, 5)
}

func TestTextureListDefaultsFailureReleases(t *testing.T) {
	c := qt.New(t)

	tl, up := newFakeTextureList()
	up.failOn = metadata.DefaultNormalTextureName
	err := tl.InitializeDefaults(nil)
	c.Assert(err, qt.ErrorMatches, "(?s).*could not create default texture '"+metadata.DefaultNormalTextureName+"'.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeAssetMismatch)
	c.Assert(tl.Len(), qt.Equals, 0)
	c.Assert(up.released, qt.DeepEquals, []string{
		metadata.DefaultBaseColorTextureName,
		metadata.DefaultMetallicRoughnessTextureName,
	})
}

func TestDefaultTexturePixels(t *testing.T) {
	c := qt.New(t)

	defaults := defaultTextures()
	c.Assert(defaults, qt.HasLen, int(metadata.DefaultTextureCount))
	c.Assert(defaults[metadata.DefaultBaseColorTextureIndex].Pixels, qt.DeepEquals, []byte{255, 255, 255, 255})
	c.Assert(defaults[metadata.DefaultBaseColorTextureIndex].SRGB, qt.IsTrue)
	c.Assert(defaults[metadata.DefaultNormalTextureIndex].Pixels, qt.DeepEquals, []byte{128, 128, 255, 255})
	c.Assert(defaults[metadata.DefaultNormalTextureIndex].SRGB, qt.IsFalse)
	c.Assert(defaults[metadata.DefaultEmissionTextureIndex].Pixels, qt.DeepEquals, []byte{0, 0, 0, 255})
	for _, d := range defaults {
		c.Assert(d.Width, qt.Equals, uint32(1))
		c.Assert(d.Height, qt.Equals, uint32(1))
	}
}

func TestCreateTexture(t *testing.T) {
	c := qt.New(t)

	tl, up := newFakeTextureList()
	c.Assert(tl.InitializeDefaults(nil), qt.IsNil)

	index, err := tl.CreateTexture(nil, &metadata.TextureData{Name: "bricks"})
	c.Assert(err, qt.IsNil)
	c.Assert(index, qt.Equals, uint32(5))

	unnamed := &metadata.TextureData{}
	index, err = tl.CreateTexture(nil, unnamed)
	c.Assert(err, qt.IsNil)
	c.Assert(index, qt.Equals, uint32(6))
	c.Assert(unnamed.Name, qt.Not(qt.Equals), "")

	up.failOn = "broken"
	_, err = tl.CreateTexture(nil, &metadata.TextureData{Name: "broken"})
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeAssetMismatch)
	c.Assert(tl.Len(), qt.Equals, 7)

	c.Assert(tl.Get(99), qt.IsNil)
}

func TestTextureListIsBounded(t *testing.T) {
	c := qt.New(t)

	tl, _ := newFakeTextureList()
	for i := uint32(0); i < metadata.MaxNumberTextures; i++ {
		_, err := tl.CreateTexture(nil, &metadata.TextureData{})
		c.Assert(err, qt.IsNil)
	}
	_, err := tl.CreateTexture(nil, &metadata.TextureData{})
	c.Assert(err, qt.ErrorMatches, "(?s).*texture master list is full.*")
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeAssetLoad)
}

func TestTextureViewsFillTheArray(t *testing.T) {
	c := qt.New(t)

	tl, _ := newFakeTextureList()
	c.Assert(tl.Views(), qt.HasLen, int(metadata.MaxNumberTextures))
	c.Assert(tl.InitializeDefaults(nil), qt.IsNil)
	c.Assert(tl.Views(), qt.HasLen, int(metadata.MaxNumberTextures))
}

func TestCleanUpAll(t *testing.T) {
	c := qt.New(t)

	tl, up := newFakeTextureList()
	c.Assert(tl.InitializeDefaults(nil), qt.IsNil)
	tl.CleanUpAll(nil)
	c.Assert(tl.Len(), qt.Equals, 0)
	c.Assert(up.released, qt.HasLen, 5)
}

func TestSamplerCreateInfo(t *testing.T) {
	c := qt.New(t)

	info := samplerCreateInfo(metadata.DefaultSamplerParams(), 16)
	c.Assert(info.MagFilter, qt.Equals, vk.FilterLinear)
	c.Assert(info.MinFilter, qt.Equals, vk.FilterLinear)
	c.Assert(info.MipmapMode, qt.Equals, vk.SamplerMipmapModeLinear)
	c.Assert(info.AddressModeU, qt.Equals, vk.SamplerAddressModeRepeat)
	c.Assert(info.AnisotropyEnable, qt.Equals, vk.Bool32(vk.True))
	c.Assert(info.MaxAnisotropy, qt.Equals, float32(16))

	params := metadata.SamplerParams{
		FilterMinify:  metadata.TextureFilterModeNearest,
		FilterMagnify: metadata.TextureFilterModeNearest,
		FilterMipmap:  metadata.TextureFilterModeNearest,
		RepeatU:       metadata.TextureRepeatClampToEdge,
		RepeatV:       metadata.TextureRepeatMirroredRepeat,
		RepeatW:       metadata.TextureRepeatClampToBorder,
	}
	info = samplerCreateInfo(params, 1)
	c.Assert(info.MagFilter, qt.Equals, vk.FilterNearest)
	c.Assert(info.MipmapMode, qt.Equals, vk.SamplerMipmapModeNearest)
	c.Assert(info.AddressModeU, qt.Equals, vk.SamplerAddressModeClampToEdge)
	c.Assert(info.AddressModeV, qt.Equals, vk.SamplerAddressModeMirroredRepeat)
	c.Assert(info.AddressModeW, qt.Equals, vk.SamplerAddressModeClampToBorder)
	c.Assert(info.AnisotropyEnable, qt.Equals, vk.Bool32(vk.False))
}
