package platform

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/quartz/engine/core"
)

func TestTranslateKey(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		key  glfw.Key
		want core.KeyCode
	}{
		{glfw.KeyA, core.KEY_A},
		{glfw.KeyW, core.KEY_W},
		{glfw.KeyZ, core.KEY_Z},
		{glfw.KeyF1, core.KEY_F1},
		{glfw.KeyF12, core.KEY_F12},
		{glfw.KeyKP0, core.KEY_NUMPAD0},
		{glfw.KeyKP9, core.KEY_NUMPAD9},
		{glfw.KeyEscape, core.KEY_ESCAPE},
		{glfw.KeyLeftShift, core.KEY_LSHIFT},
		{glfw.KeySpace, core.KEY_SPACE},
	}
	for _, test := range tests {
		got, ok := translateKey(test.key)
		c.Assert(ok, qt.IsTrue, qt.Commentf("key %d", test.key))
		c.Assert(got, qt.Equals, test.want, qt.Commentf("key %d", test.key))
	}

	_, ok := translateKey(glfw.KeyUnknown)
	c.Assert(ok, qt.IsFalse)
}

func TestTranslateButton(t *testing.T) {
	c := qt.New(t)

	b, ok := translateButton(glfw.MouseButtonRight)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b, qt.Equals, core.BUTTON_RIGHT)

	_, ok = translateButton(glfw.MouseButton5)
	c.Assert(ok, qt.IsFalse)
}

func TestWindowCallbacksFeedInput(t *testing.T) {
	c := qt.New(t)

	input := core.NewInput()
	w := &Window{input: input}

	w.keyCallback(nil, glfw.KeyW, 0, glfw.Press, 0)
	c.Assert(input.IsKeyDown(core.KEY_W), qt.IsTrue)
	w.keyCallback(nil, glfw.KeyW, 0, glfw.Repeat, 0)
	c.Assert(input.IsKeyDown(core.KEY_W), qt.IsTrue)
	w.keyCallback(nil, glfw.KeyW, 0, glfw.Release, 0)
	c.Assert(input.IsKeyDown(core.KEY_W), qt.IsFalse)

	w.mouseButtonCallback(nil, glfw.MouseButtonLeft, glfw.Press, 0)
	c.Assert(input.IsButtonDown(core.BUTTON_LEFT), qt.IsTrue)

	w.cursorPosCallback(nil, 10, 20)
	x, y := input.MousePosition()
	c.Assert([2]float64{x, y}, qt.Equals, [2]float64{10, 20})

	w.framebufferSizeCallback(nil, 0, 0)
	c.Assert(w.WasResized(), qt.IsTrue)
	c.Assert(w.IsMinimized(), qt.IsTrue)
	w.framebufferSizeCallback(nil, 640, 480)
	fw, fh := w.FramebufferSize()
	c.Assert([2]uint32{fw, fh}, qt.Equals, [2]uint32{640, 480})
	w.ClearResized()
	c.Assert(w.WasResized(), qt.IsFalse)
}
