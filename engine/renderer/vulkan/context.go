package vulkan

import (
	"github.com/palantir/stacktrace"
	"github.com/spaghettifunk/quartz/engine/assets"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/scene"
)

// DefaultFramesInFlight is used when ContextConfig leaves FramesInFlight unset.
const DefaultFramesInFlight uint32 = 2

type ContextConfig struct {
	ApplicationName    string
	ApplicationVersion uint32
	Validation         bool
	FramesInFlight     uint32
	Shaders            ShaderSet
}

// Context owns every Vulkan object of the renderer together with the
// resources of the loaded scene.
type Context struct {
	Instance   *Instance
	Surface    *Surface
	Device     *Device
	RenderPass *RenderPass
	Pipeline   *Pipeline
	Depth      *DepthBuffer
	Swapchain  *Swapchain

	// Textures and Materials are the master lists the shaders index into.
	Textures  *TextureList
	Materials *MaterialList

	models  map[string]*Model
	cubeMap *CubeMap
	scene   *scene.Scene
	loop    frameLoop
}

// NewContext brings up Vulkan for window, ready for LoadScene.
func NewContext(window Window, cfg ContextConfig) (*Context, error) {
	if cfg.FramesInFlight == 0 {
		cfg.FramesInFlight = DefaultFramesInFlight
	}
	c := &Context{
		Textures:  NewTextureList(),
		Materials: NewMaterialList(),
		models:    make(map[string]*Model),
	}
	c.loop.stage = contextStage{c}

	var err error
	if c.Instance, err = NewInstance(window, InstanceConfig{
		ApplicationName:    cfg.ApplicationName,
		ApplicationVersion: cfg.ApplicationVersion,
		Validation:         cfg.Validation,
	}); err != nil {
		return nil, err
	}
	if c.Surface, err = NewSurface(c.Instance, window); err != nil {
		c.Destroy()
		return nil, err
	}
	if c.Device, err = NewDevice(c.Instance, c.Surface.Handle); err != nil {
		c.Destroy()
		return nil, err
	}
	if err = c.Surface.Recreate(c.Device); err != nil {
		c.Destroy()
		return nil, err
	}
	if c.RenderPass, err = NewRenderPass(c.Device, c.Surface); err != nil {
		c.Destroy()
		return nil, err
	}
	if c.Pipeline, err = NewPipeline(c.Device, c.Surface, c.RenderPass, cfg.FramesInFlight, cfg.Shaders); err != nil {
		c.Destroy()
		return nil, err
	}
	if c.Depth, err = NewDepthBuffer(c.Device, c.Surface); err != nil {
		c.Destroy()
		return nil, err
	}
	if c.Swapchain, err = NewSwapchain(c.Device, c.Surface, c.RenderPass, c.Depth, cfg.FramesInFlight); err != nil {
		c.Destroy()
		return nil, err
	}
	core.LogInfo("Vulkan context ready with %d frames in flight.", cfg.FramesInFlight)
	return c, nil
}

// LoadScene replaces the loaded scene: the master lists start over from their
// defaults, every distinct model is uploaded once and the descriptor sets are
// rebuilt.
func (c *Context) LoadScene(s *scene.Scene, am *assets.AssetManager) error {
	if err := c.Device.WaitIdle(); err != nil {
		return err
	}
	c.unloadScene()

	if err := c.Textures.InitializeDefaults(c.Device); err != nil {
		c.unloadScene()
		return err
	}
	c.Materials.InitializeDefaults()

	for _, path := range s.ModelPaths() {
		data, err := am.LoadModel(path)
		if err != nil {
			c.unloadScene()
			return stacktrace.Propagate(err, "could not load scene '%s'", s.Name)
		}
		model, err := LoadModel(c.Device, data, c.Textures, c.Materials)
		if err != nil {
			c.unloadScene()
			return stacktrace.Propagate(err, "could not upload model '%s'", path)
		}
		c.models[path] = model
	}

	if s.Skybox != nil {
		if !c.Pipeline.shaders.HasSkybox() {
			core.LogWarn("Scene '%s' has a skybox but no skybox shaders are loaded, skipping it.", s.Name)
		} else {
			faces, err := am.LoadCubeMap(s.Skybox.Faces)
			if err != nil {
				c.unloadScene()
				return stacktrace.Propagate(err, "could not load the skybox of scene '%s'", s.Name)
			}
			if c.cubeMap, err = NewCubeMap(c.Device, faces); err != nil {
				c.unloadScene()
				return err
			}
		}
	}

	if err := c.Pipeline.AllocateDescriptorSets(c.Device, c.Textures, c.Materials, c.cubeMap); err != nil {
		c.unloadScene()
		return err
	}

	s.Camera.SetAspect(c.Swapchain.Extent.Width, c.Swapchain.Extent.Height)
	c.scene = s
	core.LogInfo("Scene '%s' loaded: %d models, %d textures, %d materials.", s.Name, len(c.models), c.Textures.Len(), c.Materials.Len())
	return nil
}

func (c *Context) unloadScene() {
	for path, model := range c.models {
		model.Destroy(c.Device)
		delete(c.models, path)
	}
	if c.cubeMap != nil {
		c.cubeMap.Destroy(c.Device)
		c.cubeMap = nil
	}
	c.Textures.CleanUpAll(c.Device)
	c.Materials.CleanUpAll()
	c.scene = nil
}

// Draw renders s, which must be the scene last passed to LoadScene. drawn is
// false when the frame was skipped, in which case the swapchain is recreated
// on the next call.
func (c *Context) Draw(s *scene.Scene) (drawn bool, err error) {
	if c.scene == nil || c.scene != s {
		return false, stacktrace.NewError("scene '%s' is not loaded", s.Name)
	}
	return c.loop.Draw()
}

// RecreateSwapchain rebuilds everything sized by the surface. It fails with a
// recoverable error while the surface has no area.
func (c *Context) RecreateSwapchain() error {
	if err := c.Device.WaitIdle(); err != nil {
		return err
	}
	c.Swapchain.Reset()
	c.Pipeline.Reset(c.Device)
	c.Depth.Reset(c.Device)

	if err := c.Surface.Recreate(c.Device); err != nil {
		return err
	}
	if c.Surface.Extent.Width == 0 || c.Surface.Extent.Height == 0 {
		return stacktrace.NewErrorWithCode(core.ErrCodeSurfaceOutOfDate, "surface has no area")
	}
	if err := c.RenderPass.Recreate(c.Device, c.Surface); err != nil {
		return err
	}
	if err := c.Pipeline.Recreate(c.Device, c.Surface, c.RenderPass); err != nil {
		return err
	}
	if err := c.Depth.Recreate(c.Device, c.Surface); err != nil {
		return err
	}
	if err := c.Swapchain.Recreate(c.Surface, c.RenderPass, c.Depth); err != nil {
		return err
	}
	c.Surface.ClearResized()

	if c.scene != nil {
		c.scene.Camera.SetAspect(c.Swapchain.Extent.Width, c.Swapchain.Extent.Height)
	}
	return nil
}

// Finish waits for the GPU to drain. Call it before tearing anything down.
func (c *Context) Finish() error {
	return c.Device.WaitIdle()
}

// Destroy releases everything in reverse creation order. It is safe on a
// partially constructed context.
func (c *Context) Destroy() {
	if c.Device != nil {
		if err := c.Device.WaitIdle(); err != nil {
			core.LogError("could not wait for the device: %v", err)
		}
		c.unloadScene()
		if c.Swapchain != nil {
			c.Swapchain.Destroy()
			c.Swapchain = nil
		}
		if c.Depth != nil {
			c.Depth.Reset(c.Device)
			c.Depth = nil
		}
		if c.Pipeline != nil {
			c.Pipeline.Destroy(c.Device)
			c.Pipeline = nil
		}
		if c.RenderPass != nil {
			c.RenderPass.Destroy(c.Device)
			c.RenderPass = nil
		}
		c.Device.Destroy()
		c.Device = nil
	}
	if c.Surface != nil {
		c.Surface.Destroy(c.Instance)
		c.Surface = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}

// contextStage runs the frame steps against the loaded scene.
type contextStage struct {
	c *Context
}

func (st contextStage) WaitForInFlightFence(frame uint32) error {
	return st.c.Swapchain.WaitForInFlightFence(frame)
}

func (st contextStage) AcquireNextImage(frame uint32) (uint32, bool, error) {
	return st.c.Swapchain.AcquireNextImage(frame)
}

func (st contextStage) WasResized() bool {
	return st.c.Surface.WasResized()
}

func (st contextStage) UpdateUniforms(frame uint32) error {
	s, p := st.c.scene, st.c.Pipeline
	if err := p.UpdateCameraUniformBuffer(frame, s.Camera.Uniform()); err != nil {
		return err
	}
	if err := p.UpdateAmbientLightUniformBuffer(frame, s.Ambient.Uniform()); err != nil {
		return err
	}
	return p.UpdateDirectionalLightUniformBuffer(frame, s.Directional.Uniform())
}

func (st contextStage) ResetInFlightFence(frame uint32) error {
	return st.c.Swapchain.ResetInFlightFence(frame)
}

func (st contextStage) Record(frame, image uint32) error {
	c := st.c
	clearColor := [3]float32{c.scene.ClearColor[0], c.scene.ClearColor[1], c.scene.ClearColor[2]}
	cb, err := c.Swapchain.ResetAndBeginDrawingCommandBuffer(frame, image, c.RenderPass, clearColor)
	if err != nil {
		return err
	}
	c.Pipeline.RecordSkybox(cb, frame, c.cubeMap)
	c.Pipeline.BindMain(cb, frame)
	for _, d := range c.scene.Doodads {
		model, ok := c.models[d.ModelPath]
		if !ok {
			continue
		}
		c.Swapchain.RecordModelToDrawingCommandBuffer(cb, c.Pipeline, model, d.World())
	}
	return nil
}

func (st contextStage) Submit(frame uint32) error {
	return st.c.Swapchain.EndAndSubmitDrawingCommandBuffer(frame, st.c.RenderPass)
}

func (st contextStage) Present(frame, image uint32) (bool, error) {
	return st.c.Swapchain.PresentImage(frame, image)
}

func (st contextStage) Recreate() error {
	return st.c.RecreateSwapchain()
}

func (st contextStage) EndFrame(uint32) uint32 {
	return st.c.Pipeline.IncrementCurrentInFlightFrameIndex()
}
