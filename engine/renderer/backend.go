package renderer

import (
	"github.com/spaghettifunk/quartz/engine/assets"
	"github.com/spaghettifunk/quartz/engine/renderer/vulkan"
	"github.com/spaghettifunk/quartz/engine/scene"
)

// Backend is the graphics API the frontend drives.
type Backend interface {
	LoadScene(s *scene.Scene, am *assets.AssetManager) error
	// Draw renders one frame. drawn is false when the frame was skipped.
	Draw(s *scene.Scene) (drawn bool, err error)
	// Finish blocks until the GPU is idle.
	Finish() error
	Destroy()
}

// Window is the surface the renderer presents to.
type Window interface {
	vulkan.Window
	IsMinimized() bool
}

var _ Backend = (*vulkan.Context)(nil)

type backendFactory func(window Window, cfg vulkan.ContextConfig) (Backend, error)

func newVulkanBackend(window Window, cfg vulkan.ContextConfig) (Backend, error) {
	ctx, err := vulkan.NewContext(window, cfg)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}
