package engine

import (
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/platform"
	"github.com/spaghettifunk/quartz/engine/scene"
)

// Game is implemented by the application running on the engine. Input,
// Window and Scene are set by the engine before FnInitialize runs.
type Game struct {
	Config *core.Config
	State  interface{}

	Input  *core.Input
	Window *platform.Window
	Scene  *scene.Scene

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error

// Update runs once per fixed step of deltaTime seconds.
type Update func(deltaTime float64) error

// Render runs once per frame, before the frame is drawn.
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
