package loaders

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/palantir/stacktrace"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

type ImageLoader struct{}

// Load decodes an image file into straight-alpha RGBA.
func (il *ImageLoader) Load(path string, params interface{}) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "could not read image '%s'", path)
	}
	img, err := DecodeRGBA(data)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not decode image '%s'", path)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeImage,
		DataSize: uint64(len(img.Pix)),
		Data:     img,
	}, nil
}

// DecodeRGBA decodes any registered image format and forces four 8-bit
// channels with straight alpha. The returned pixels are tightly packed.
func DecodeRGBA(data []byte) (*image.NRGBA, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeAssetLoad, "unsupported or corrupt image data")
	}
	core.LogDebug("decoded %s image %dx%d", format, src.Bounds().Dx(), src.Bounds().Dy())
	return ToNRGBA(src), nil
}

// ToNRGBA converts img to a zero-origin, tightly packed NRGBA image.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() && len(n.Pix) == n.Stride*b.Dy() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// TextureFromImage wraps decoded pixels for upload.
func TextureFromImage(name string, img *image.NRGBA, srgb bool, sampler metadata.SamplerParams) metadata.TextureData {
	return metadata.TextureData{
		Name:    name,
		Width:   uint32(img.Bounds().Dx()),
		Height:  uint32(img.Bounds().Dy()),
		Pixels:  img.Pix,
		SRGB:    srgb,
		Sampler: sampler,
	}
}
