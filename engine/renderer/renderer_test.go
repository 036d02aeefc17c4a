package renderer

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/assets"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/vulkan"
	"github.com/spaghettifunk/quartz/engine/scene"
)

var spirv = []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}

type fakeWindow struct {
	minimized bool
}

func (w *fakeWindow) RequiredInstanceExtensions() []string { return nil }
func (w *fakeWindow) InstanceProcAddr() unsafe.Pointer     { return nil }
func (w *fakeWindow) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, nil
}
func (w *fakeWindow) FramebufferSize() (uint32, uint32) { return 640, 480 }
func (w *fakeWindow) WasResized() bool                  { return false }
func (w *fakeWindow) ClearResized()                     {}
func (w *fakeWindow) IsMinimized() bool                 { return w.minimized }

type fakeBackend struct {
	loaded    *scene.Scene
	draws     int
	drawErr   error
	skip      bool
	finished  bool
	destroyed bool
}

func (b *fakeBackend) LoadScene(s *scene.Scene, _ *assets.AssetManager) error {
	b.loaded = s
	return nil
}

func (b *fakeBackend) Draw(*scene.Scene) (bool, error) {
	b.draws++
	if b.drawErr != nil {
		return false, b.drawErr
	}
	return !b.skip, nil
}

func (b *fakeBackend) Finish() error {
	b.finished = true
	return nil
}

func (b *fakeBackend) Destroy() {
	b.destroyed = true
}

func writeShaders(c *qt.C, names ...string) *assets.AssetManager {
	root := c.TempDir()
	c.Assert(os.MkdirAll(filepath.Join(root, "shaders"), 0o755), qt.IsNil)
	for _, name := range names {
		c.Assert(os.WriteFile(filepath.Join(root, "shaders", name), spirv, 0o644), qt.IsNil)
	}
	am, err := assets.NewAssetManager(root)
	c.Assert(err, qt.IsNil)
	return am
}

func newTestRenderer(c *qt.C, window Window, backend *fakeBackend) (*Renderer, vulkan.ContextConfig) {
	am := writeShaders(c, MainVertexShader, MainFragmentShader, SkyboxVertexShader, SkyboxFragmentShader)
	var got vulkan.ContextConfig
	r, err := newRenderer(window, core.DefaultConfig(), am, func(_ Window, cfg vulkan.ContextConfig) (Backend, error) {
		got = cfg
		return backend, nil
	})
	c.Assert(err, qt.IsNil)
	return r, got
}

func TestNewRendererPassesConfig(t *testing.T) {
	c := qt.New(t)

	_, cfg := newTestRenderer(c, &fakeWindow{}, &fakeBackend{})
	c.Assert(cfg.ApplicationName, qt.Equals, "Quartz")
	c.Assert(cfg.ApplicationVersion, qt.Equals, uint32(vk.MakeVersion(0, 1, 0)))
	c.Assert(cfg.FramesInFlight, qt.Equals, uint32(2))
	c.Assert(cfg.Shaders.MainVertex, qt.DeepEquals, spirv)
	c.Assert(cfg.Shaders.HasSkybox(), qt.IsTrue)
}

func TestLoadShaders(t *testing.T) {
	c := qt.New(t)

	am := writeShaders(c, MainVertexShader, MainFragmentShader)
	cfg := core.DefaultConfig().Renderer

	set, err := loadShaders(am, cfg)
	c.Assert(err, qt.IsNil)
	c.Assert(set.HasSkybox(), qt.IsFalse)

	_, err = loadShaders(writeShaders(c, MainVertexShader), cfg)
	c.Assert(err, qt.ErrorMatches, "(?s).*shader.frag.spv.*")

	cfg.Skybox = false
	am = writeShaders(c, MainVertexShader, MainFragmentShader, SkyboxVertexShader, SkyboxFragmentShader)
	set, err = loadShaders(am, cfg)
	c.Assert(err, qt.IsNil)
	c.Assert(set.HasSkybox(), qt.IsFalse)
}

func TestParseVersion(t *testing.T) {
	c := qt.New(t)

	v, err := parseVersion("1.2.3")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(vk.MakeVersion(1, 2, 3)))

	_, err = parseVersion("one")
	c.Assert(err, qt.ErrorMatches, "(?s).*invalid application version 'one'.*")
}

func TestLoadSceneAppliesClearColor(t *testing.T) {
	c := qt.New(t)

	backend := &fakeBackend{}
	r, _ := newTestRenderer(c, &fakeWindow{}, backend)
	r.clearColor = mgl32.Vec3{0.1, 0.2, 0.3}

	s := scene.New("empty")
	c.Assert(r.LoadScene(s), qt.IsNil)
	c.Assert(backend.loaded, qt.Equals, s)
	c.Assert(s.ClearColor, qt.Equals, mgl32.Vec3{0.1, 0.2, 0.3})
	c.Assert(r.Scene(), qt.Equals, s)

	colored := scene.New("colored")
	colored.ClearColor = mgl32.Vec3{1, 0, 0}
	c.Assert(r.LoadScene(colored), qt.IsNil)
	c.Assert(colored.ClearColor, qt.Equals, mgl32.Vec3{1, 0, 0})

	broken := scene.New("broken")
	broken.Camera = nil
	c.Assert(r.LoadScene(broken), qt.ErrorMatches, "(?s).*has no camera.*")
}

func TestDrawFrame(t *testing.T) {
	c := qt.New(t)

	window := &fakeWindow{}
	backend := &fakeBackend{}
	r, _ := newTestRenderer(c, window, backend)

	_, err := r.DrawFrame()
	c.Assert(err, qt.ErrorMatches, "(?s).*no scene loaded.*")

	c.Assert(r.LoadScene(scene.New("s")), qt.IsNil)

	drawn, err := r.DrawFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsTrue)

	window.minimized = true
	drawn, err = r.DrawFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsFalse)
	c.Assert(backend.draws, qt.Equals, 1)

	window.minimized = false
	backend.skip = true
	drawn, err = r.DrawFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsFalse)

	backend.drawErr = stacktrace.NewErrorWithCode(core.ErrCodeSurfaceOutOfDate, "surface has no area")
	drawn, err = r.DrawFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(drawn, qt.IsFalse)

	backend.drawErr = stacktrace.NewErrorWithCode(core.ErrCodeDeviceLost, "gone")
	_, err = r.DrawFrame()
	c.Assert(core.ErrorCode(err), qt.Equals, core.ErrCodeDeviceLost)

	drawnCount, skipped := r.Frames()
	c.Assert(drawnCount, qt.Equals, uint64(1))
	c.Assert(skipped, qt.Equals, uint64(3))
}

func TestShutdown(t *testing.T) {
	c := qt.New(t)

	backend := &fakeBackend{}
	r, _ := newTestRenderer(c, &fakeWindow{}, backend)
	c.Assert(r.Shutdown(), qt.IsNil)
	c.Assert(backend.finished, qt.IsTrue)
	c.Assert(backend.destroyed, qt.IsTrue)

	// A second shutdown is a no-op.
	c.Assert(r.Shutdown(), qt.IsNil)
}
