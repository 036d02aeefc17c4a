package platform

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Startup initialises GLFW. It must run before any window is created.
func Startup() error {
	if err := glfw.Init(); err != nil {
		return stacktrace.PropagateWithCode(err, core.ErrCodeInitialization, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return stacktrace.NewErrorWithCode(core.ErrCodeInitialization, "glfw reports no Vulkan loader")
	}
	return nil
}

// Shutdown terminates GLFW after every window is destroyed.
func Shutdown() {
	glfw.Terminate()
}

// Time returns seconds since Startup.
func Time() float64 {
	return glfw.GetTime()
}

// Window is a resizable GLFW window without a client API, forwarding its
// events to an input state.
type Window struct {
	handle *glfw.Window
	input  *core.Input

	width   uint32
	height  uint32
	resized bool
}

func NewWindow(cfg core.ApplicationConfig, input *core.Input) (*Window, error) {
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	handle, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Name, nil, nil)
	if err != nil {
		return nil, stacktrace.PropagateWithCode(err, core.ErrCodeInitialization, "failed to create window %dx%d", cfg.Width, cfg.Height)
	}

	w := &Window{
		handle: handle,
		input:  input,
	}
	fw, fh := handle.GetFramebufferSize()
	w.width, w.height = uint32(fw), uint32(fh)

	handle.SetKeyCallback(w.keyCallback)
	handle.SetMouseButtonCallback(w.mouseButtonCallback)
	handle.SetCursorPosCallback(w.cursorPosCallback)
	handle.SetScrollCallback(w.scrollCallback)
	handle.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	handle.SetPos(int(cfg.PosX), int(cfg.PosY))
	handle.Show()

	core.LogInfo("window '%s' created with framebuffer %dx%d", cfg.Name, w.width, w.height)
	return w, nil
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) SetShouldClose() {
	w.handle.SetShouldClose(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until an event arrives; used while minimised.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// FramebufferSize is the size in pixels, as last reported by GLFW.
func (w *Window) FramebufferSize() (uint32, uint32) {
	return w.width, w.height
}

func (w *Window) IsMinimized() bool {
	return w.width == 0 || w.height == 0
}

func (w *Window) WasResized() bool {
	return w.resized
}

func (w *Window) ClearResized() {
	w.resized = false
}

// CaptureCursor hides and locks the cursor for mouse look.
func (w *Window) CaptureCursor(capture bool) {
	mode := glfw.CursorNormal
	if capture {
		mode = glfw.CursorDisabled
	}
	w.handle.SetInputMode(glfw.CursorMode, mode)
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, stacktrace.PropagateWithCode(err, core.ErrCodeInitialization, "failed to create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	if code, ok := translateKey(key); ok {
		w.input.ProcessKey(code, action == glfw.Press)
	}
}

func (w *Window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if b, ok := translateButton(button); ok {
		w.input.ProcessButton(b, action == glfw.Press)
	}
}

func (w *Window) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	w.input.ProcessMouseMove(xpos, ypos)
}

func (w *Window) scrollCallback(_ *glfw.Window, _, yoff float64) {
	w.input.ProcessMouseWheel(yoff)
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	w.width, w.height = uint32(width), uint32(height)
	w.resized = true
	core.LogDebug("framebuffer resized to %dx%d", width, height)
}
