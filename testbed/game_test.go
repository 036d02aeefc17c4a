package testbed

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/scene"
)

func TestApplyMovement(t *testing.T) {
	c := qt.New(t)

	camera := scene.NewCamera()
	in := core.NewInput()

	applyMovement(camera, in, 1)
	c.Assert(camera.Position(), qt.Equals, mgl32.Vec3{})

	in.ProcessKey(core.KEY_W, true)
	applyMovement(camera, in, 0.5)
	c.Assert(camera.Position().ApproxEqual(mgl32.Vec3{0, 0, -2.5}), qt.IsTrue, qt.Commentf("%v", camera.Position()))

	in.ProcessKey(core.KEY_W, false)
	in.ProcessKey(core.KEY_E, true)
	in.ProcessKey(core.KEY_LSHIFT, true)
	applyMovement(camera, in, 0.5)
	c.Assert(camera.Position().ApproxEqual(mgl32.Vec3{0, 10, -2.5}), qt.IsTrue, qt.Commentf("%v", camera.Position()))
}

func TestApplyLook(t *testing.T) {
	c := qt.New(t)

	camera := scene.NewCamera()
	applyLook(camera, 0, 0)
	c.Assert(camera.Yaw(), qt.Equals, float32(0))

	applyLook(camera, 100, 40)
	c.Assert(camera.Yaw() > 0, qt.IsTrue)
	c.Assert(camera.Pitch() < 0, qt.IsTrue)
	// Turning right looks towards +X.
	c.Assert(camera.Forward().X() > 0, qt.IsTrue)
}

func TestNewTestGameWiresCallbacks(t *testing.T) {
	c := qt.New(t)

	g := NewTestGame(core.DefaultConfig())
	c.Assert(g.FnInitialize, qt.IsNotNil)
	c.Assert(g.FnUpdate, qt.IsNotNil)
	c.Assert(g.FnRender, qt.IsNotNil)

	g.Scene = scene.New("test")
	g.Input = core.NewInput()
	c.Assert(g.Initialize(), qt.IsNil)

	g.Input.ProcessKey(core.KEY_D, true)
	c.Assert(g.Update(1), qt.IsNil)
	c.Assert(g.Scene.Camera.Position().ApproxEqual(mgl32.Vec3{5, 0, 0}), qt.IsTrue, qt.Commentf("%v", g.Scene.Camera.Position()))

	c.Assert(g.OnResize(800, 600), qt.IsNil)
	state := g.State.(*gameState)
	c.Assert(state.width, qt.Equals, uint32(800))
}
