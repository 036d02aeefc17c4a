package renderer

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/assets"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/vulkan"
	"github.com/spaghettifunk/quartz/engine/scene"
)

const (
	MainVertexShader     = "shader.vert.spv"
	MainFragmentShader   = "shader.frag.spv"
	SkyboxVertexShader   = "skybox.vert.spv"
	SkyboxFragmentShader = "skybox.frag.spv"
)

// Renderer is the engine facing side of the renderer: it owns the backend,
// the loaded scene and the frame counters.
type Renderer struct {
	backend    Backend
	window     Window
	assets     *assets.AssetManager
	clearColor mgl32.Vec3
	scene      *scene.Scene

	framesDrawn   uint64
	framesSkipped uint64
}

// New loads the shaders and brings up the backend for window.
func New(window Window, cfg *core.Config, am *assets.AssetManager) (*Renderer, error) {
	return newRenderer(window, cfg, am, newVulkanBackend)
}

func newRenderer(window Window, cfg *core.Config, am *assets.AssetManager, factory backendFactory) (*Renderer, error) {
	shaders, err := loadShaders(am, cfg.Renderer)
	if err != nil {
		return nil, err
	}
	version, err := parseVersion(cfg.Application.Version)
	if err != nil {
		return nil, err
	}
	backend, err := factory(window, vulkan.ContextConfig{
		ApplicationName:    cfg.Application.Name,
		ApplicationVersion: version,
		Validation:         cfg.Renderer.Validation,
		FramesInFlight:     cfg.Renderer.FramesInFlight,
		Shaders:            shaders,
	})
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not initialize the renderer backend")
	}
	return &Renderer{
		backend:    backend,
		window:     window,
		assets:     am,
		clearColor: mgl32.Vec3(cfg.Renderer.ClearColor),
	}, nil
}

// loadShaders reads the main pair and, when enabled, the skybox pair. A
// missing skybox pair disables the skybox instead of failing.
func loadShaders(am *assets.AssetManager, cfg core.RendererConfig) (vulkan.ShaderSet, error) {
	var set vulkan.ShaderSet
	var err error
	if set.MainVertex, err = am.LoadShader(filepath.Join(cfg.ShaderDir, MainVertexShader)); err != nil {
		return set, err
	}
	if set.MainFragment, err = am.LoadShader(filepath.Join(cfg.ShaderDir, MainFragmentShader)); err != nil {
		return set, err
	}
	if !cfg.Skybox {
		return set, nil
	}
	vert, err := am.LoadShader(filepath.Join(cfg.ShaderDir, SkyboxVertexShader))
	if err != nil {
		core.LogWarn("skybox disabled: %v", err)
		return set, nil
	}
	frag, err := am.LoadShader(filepath.Join(cfg.ShaderDir, SkyboxFragmentShader))
	if err != nil {
		core.LogWarn("skybox disabled: %v", err)
		return set, nil
	}
	set.SkyboxVertex, set.SkyboxFragment = vert, frag
	return set, nil
}

// parseVersion turns "major.minor.patch" into a packed Vulkan version.
func parseVersion(v string) (uint32, error) {
	var major, minor, patch int
	if _, err := fmt.Sscanf(v, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return 0, stacktrace.Propagate(err, "invalid application version '%s'", v)
	}
	if major < 0 || minor < 0 || patch < 0 {
		return 0, stacktrace.NewError("invalid application version '%s'", v)
	}
	return uint32(vk.MakeVersion(major, minor, patch)), nil
}

// LoadScene replaces the current scene. A scene without a clear color
// gets the configured one.
func (r *Renderer) LoadScene(s *scene.Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ClearColor == (mgl32.Vec3{}) {
		s.ClearColor = r.clearColor
	}
	if err := r.backend.LoadScene(s, r.assets); err != nil {
		r.scene = nil
		return err
	}
	r.scene = s
	return nil
}

func (r *Renderer) Scene() *scene.Scene {
	return r.scene
}

// DrawFrame renders the loaded scene. Frames are skipped while the window is
// minimized or while the surface is being rebuilt.
func (r *Renderer) DrawFrame() (bool, error) {
	if r.scene == nil {
		return false, stacktrace.Propagate(core.ErrEngineNotInitialized, "no scene loaded")
	}
	if r.window.IsMinimized() {
		r.framesSkipped++
		return false, nil
	}
	drawn, err := r.backend.Draw(r.scene)
	if err != nil {
		if core.IsRecoverable(err) {
			core.LogDebug("frame skipped: %v", err)
			r.framesSkipped++
			return false, nil
		}
		return false, err
	}
	if drawn {
		r.framesDrawn++
	} else {
		r.framesSkipped++
	}
	return drawn, nil
}

// Frames returns how many frames were drawn and skipped so far.
func (r *Renderer) Frames() (drawn, skipped uint64) {
	return r.framesDrawn, r.framesSkipped
}

// Shutdown drains the GPU and releases the backend.
func (r *Renderer) Shutdown() error {
	if r.backend == nil {
		return nil
	}
	err := r.backend.Finish()
	r.backend.Destroy()
	r.backend = nil
	r.scene = nil
	if err != nil {
		return stacktrace.Propagate(err, "could not drain the GPU before shutdown")
	}
	return nil
}
