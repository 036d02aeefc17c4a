package vulkan

import (
	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// Texture is a sampled image in the texture master list.
type Texture struct {
	Name    string
	Image   *StagedImageBuffer
	View    vk.ImageView
	Sampler vk.Sampler
}

// textureUploader creates or releases the GPU side of a texture.
type textureUploader interface {
	Upload(device *Device, data *metadata.TextureData) (*Texture, error)
	Release(device *Device, texture *Texture)
}

// TextureList is the append-only texture master list. A texture keeps its
// index for as long as the list lives, and the shaders address textures by
// that index.
type TextureList struct {
	textures []*Texture
	uploader textureUploader
}

func NewTextureList() *TextureList {
	return &TextureList{uploader: gpuTextureUploader{}}
}

// defaultTextures are 1x1 textures in DefaultTextureIndex order.
func defaultTextures() []metadata.TextureData {
	pixel := func(name string, srgb bool, r, g, b, a byte) metadata.TextureData {
		return metadata.TextureData{
			Name:    name,
			Width:   1,
			Height:  1,
			Pixels:  []byte{r, g, b, a},
			SRGB:    srgb,
			Sampler: metadata.DefaultSamplerParams(),
		}
	}
	return []metadata.TextureData{
		pixel(metadata.DefaultBaseColorTextureName, true, 255, 255, 255, 255),
		pixel(metadata.DefaultMetallicRoughnessTextureName, false, 255, 255, 255, 255),
		pixel(metadata.DefaultNormalTextureName, false, 128, 128, 255, 255),
		pixel(metadata.DefaultEmissionTextureName, true, 0, 0, 0, 255),
		pixel(metadata.DefaultOcclusionTextureName, false, 255, 255, 255, 255),
	}
}

// InitializeDefaults empties the list and inserts the default textures at
// their fixed indices.
func (tl *TextureList) InitializeDefaults(device *Device) error {
	tl.CleanUpAll(device)
	for _, data := range defaultTextures() {
		data := data
		if _, err := tl.CreateTexture(device, &data); err != nil {
			tl.CleanUpAll(device)
			return stacktrace.Propagate(err, "could not create default texture '%s'", data.Name)
		}
	}
	core.LogDebug("Default textures created.")
	return nil
}

// CreateTexture uploads data and appends it, returning its master index.
func (tl *TextureList) CreateTexture(device *Device, data *metadata.TextureData) (uint32, error) {
	if uint32(len(tl.textures)) >= metadata.MaxNumberTextures {
		return 0, stacktrace.NewErrorWithCode(core.ErrCodeAssetLoad, "texture master list is full (%d)", metadata.MaxNumberTextures)
	}
	if data.Name == "" {
		data.Name = uuid.NewString()
	}
	texture, err := tl.uploader.Upload(device, data)
	if err != nil {
		return 0, stacktrace.Propagate(err, "could not upload texture '%s'", data.Name)
	}
	tl.textures = append(tl.textures, texture)
	index := uint32(len(tl.textures) - 1)
	core.LogDebug("Texture '%s' (%dx%d) registered at %d.", data.Name, data.Width, data.Height, index)
	return index, nil
}

func (tl *TextureList) Len() int {
	return len(tl.textures)
}

func (tl *TextureList) Get(index uint32) *Texture {
	if int(index) >= len(tl.textures) {
		return nil
	}
	return tl.textures[index]
}

// Views returns one view per shader array slot; unused slots repeat the
// default base color view.
func (tl *TextureList) Views() []vk.ImageView {
	views := make([]vk.ImageView, metadata.MaxNumberTextures)
	var fallback vk.ImageView
	if len(tl.textures) > int(metadata.DefaultBaseColorTextureIndex) {
		fallback = tl.textures[metadata.DefaultBaseColorTextureIndex].View
	}
	for i := range views {
		if i < len(tl.textures) {
			views[i] = tl.textures[i].View
		} else {
			views[i] = fallback
		}
	}
	return views
}

// CleanUpAll releases every texture and empties the list.
func (tl *TextureList) CleanUpAll(device *Device) {
	for _, t := range tl.textures {
		tl.uploader.Release(device, t)
	}
	tl.textures = nil
}

// gpuTextureUploader uploads through a StagedImageBuffer.
type gpuTextureUploader struct{}

func (gpuTextureUploader) Upload(device *Device, data *metadata.TextureData) (*Texture, error) {
	if expected := int(data.Width) * int(data.Height) * 4; len(data.Pixels) != expected {
		return nil, stacktrace.NewErrorWithCode(core.ErrCodeAssetMismatch,
			"texture '%s' has %d bytes, expected %d", data.Name, len(data.Pixels), expected)
	}
	format := vk.FormatR8g8b8a8Unorm
	if data.SRGB {
		format = vk.FormatR8g8b8a8Srgb
	}
	image, err := NewStagedImageBuffer(device, ImageSpec{
		Width:  data.Width,
		Height: data.Height,
		Layers: 1,
		Format: format,
		Tiling: vk.ImageTilingOptimal,
	}, data.Pixels)
	if err != nil {
		return nil, err
	}
	t := &Texture{Name: data.Name, Image: image}

	if t.View, err = image.CreateView(device, vk.ImageViewType2d, vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		gpuTextureUploader{}.Release(device, t)
		return nil, err
	}
	if t.Sampler, err = createSampler(device, data.Sampler); err != nil {
		gpuTextureUploader{}.Release(device, t)
		return nil, err
	}
	return t, nil
}

func (gpuTextureUploader) Release(device *Device, t *Texture) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(device.LogicalDevice, t.Sampler, nil)
		t.Sampler = vk.NullSampler
	}
	if t.View != vk.NullImageView {
		vk.DestroyImageView(device.LogicalDevice, t.View, nil)
		t.View = vk.NullImageView
	}
	if t.Image != nil {
		t.Image.Destroy(device)
		t.Image = nil
	}
}

func createSampler(device *Device, params metadata.SamplerParams) (vk.Sampler, error) {
	createInfo := samplerCreateInfo(params, device.MaxSamplerAnisotropy)
	var sampler vk.Sampler
	if err := checkResult(vk.CreateSampler(device.LogicalDevice, &createInfo, nil, &sampler), core.ErrCodeInitialization, "vkCreateSampler %+v", createInfo); err != nil {
		return vk.NullSampler, err
	}
	return sampler, nil
}

// samplerCreateInfo translates sampler parameters, with anisotropy at maxAnisotropy.
func samplerCreateInfo(params metadata.SamplerParams, maxAnisotropy float32) vk.SamplerCreateInfo {
	anisotropy := vk.False
	if maxAnisotropy > 1 {
		anisotropy = vk.True
	}
	return vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filterMode(params.FilterMagnify),
		MinFilter:               filterMode(params.FilterMinify),
		MipmapMode:              mipmapMode(params.FilterMipmap),
		AddressModeU:            addressMode(params.RepeatU),
		AddressModeV:            addressMode(params.RepeatV),
		AddressModeW:            addressMode(params.RepeatW),
		AnisotropyEnable:        vk.Bool32(anisotropy),
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  0,
	}
}

func filterMode(f metadata.TextureFilter) vk.Filter {
	if f == metadata.TextureFilterModeNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func mipmapMode(f metadata.TextureFilter) vk.SamplerMipmapMode {
	if f == metadata.TextureFilterModeNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}

func addressMode(r metadata.TextureRepeat) vk.SamplerAddressMode {
	switch r {
	case metadata.TextureRepeatMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case metadata.TextureRepeatClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case metadata.TextureRepeatClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	default:
		return vk.SamplerAddressModeRepeat
	}
}
