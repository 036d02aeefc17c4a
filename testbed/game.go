package testbed

import (
	"github.com/spaghettifunk/quartz/engine"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/scene"
)

const (
	moveSpeed        float32 = 5.0
	boostMultiplier  float32 = 4.0
	mouseSensitivity float32 = 0.0025
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	camera         *scene.Camera
	cursorCaptured bool

	width  uint32
	height uint32
}

func NewTestGame(cfg *core.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.State.(*gameState)
	state.camera = g.Scene.Camera
	core.LogInfo("Scene '%s' with %d doodads. WASD to move, Q/E down/up, shift to go faster, C toggles mouse look, escape quits.",
		g.Scene.Name, len(g.Scene.Doodads))
	return nil
}

// Update moves the camera on the fixed step.
func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	applyMovement(state.camera, g.Input, float32(deltaTime))
	return nil
}

// Render handles per frame input: quitting, cursor capture and mouse look.
func (g *TestGame) Render(deltaTime float64) error {
	state := g.State.(*gameState)

	if g.Input.KeyPressed(core.KEY_ESCAPE) {
		g.Window.SetShouldClose()
		return nil
	}
	if g.Input.KeyPressed(core.KEY_C) {
		state.cursorCaptured = !state.cursorCaptured
		g.Window.CaptureCursor(state.cursorCaptured)
	}
	if g.Input.KeyPressed(core.KEY_R) {
		pos := state.camera.Position()
		core.LogInfo("Camera Pos: [%.3f, %.3f, %.3f] Yaw: %.3f Pitch: %.3f", pos.X(), pos.Y(), pos.Z(), state.camera.Yaw(), state.camera.Pitch())
	}
	if state.cursorCaptured {
		dx, dy := g.Input.MouseDelta()
		applyLook(state.camera, dx, dy)
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}

// applyMovement translates the camera from the keys held in in.
func applyMovement(camera *scene.Camera, in *core.Input, dt float32) {
	amount := moveSpeed * dt
	if in.IsKeyDown(core.KEY_LSHIFT) {
		amount *= boostMultiplier
	}
	if in.IsKeyDown(core.KEY_W) {
		camera.MoveForward(amount)
	}
	if in.IsKeyDown(core.KEY_S) {
		camera.MoveBackward(amount)
	}
	if in.IsKeyDown(core.KEY_A) {
		camera.MoveLeft(amount)
	}
	if in.IsKeyDown(core.KEY_D) {
		camera.MoveRight(amount)
	}
	if in.IsKeyDown(core.KEY_E) || in.IsKeyDown(core.KEY_SPACE) {
		camera.MoveUp(amount)
	}
	if in.IsKeyDown(core.KEY_Q) {
		camera.MoveDown(amount)
	}
}

// applyLook turns cursor movement in pixels into yaw and pitch. Moving the
// cursor right turns right, moving it down looks down.
func applyLook(camera *scene.Camera, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	camera.Rotate(float32(dx)*mouseSensitivity, -float32(dy)*mouseSensitivity)
}
