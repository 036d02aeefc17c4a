package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	qt "github.com/frankban/quicktest"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t testing.TB, img image.Image) []byte {
	var buf bytes.Buffer
	qt.Assert(t, png.Encode(&buf, img), qt.IsNil)
	return buf.Bytes()
}

func ptr[T any](v T) *T {
	return &v
}
