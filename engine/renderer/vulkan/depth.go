package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"
)

// DepthBuffer is the depth attachment shared by every swapchain framebuffer.
type DepthBuffer struct {
	Image *ImageBuffer
	View  vk.ImageView
}

func NewDepthBuffer(device *Device, surface *Surface) (*DepthBuffer, error) {
	db := &DepthBuffer{}
	if err := db.Recreate(device, surface); err != nil {
		return nil, err
	}
	return db, nil
}

// Recreate builds the image and view at the current surface extent and depth format.
func (db *DepthBuffer) Recreate(device *Device, surface *Surface) error {
	db.Reset(device)

	image, err := NewImageBuffer(device, ImageSpec{
		Width:  surface.Extent.Width,
		Height: surface.Extent.Height,
		Layers: 1,
		Format: surface.DepthFormat,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Tiling: vk.ImageTilingOptimal,
	})
	if err != nil {
		return stacktrace.Propagate(err, "could not create the depth image")
	}
	db.Image = image

	view, err := image.CreateView(device, vk.ImageViewType2d, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		db.Reset(device)
		return stacktrace.Propagate(err, "could not create the depth view")
	}
	db.View = view

	if err := image.TransitionLayout(device, vk.ImageLayoutDepthStencilAttachmentOptimal); err != nil {
		db.Reset(device)
		return err
	}
	return nil
}

// Reset drops the view and the image.
func (db *DepthBuffer) Reset(device *Device) {
	if db.View != vk.NullImageView {
		vk.DestroyImageView(device.LogicalDevice, db.View, nil)
		db.View = vk.NullImageView
	}
	if db.Image != nil {
		db.Image.Destroy(device)
		db.Image = nil
	}
}
