package engine

import (
	"sync"
	"sync/atomic"

	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/assets"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/math"
	"github.com/spaghettifunk/quartz/engine/platform"
	"github.com/spaghettifunk/quartz/engine/renderer"
	"github.com/spaghettifunk/quartz/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is shutting down or has shut down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// metricsInterval is how often, in seconds, frame metrics are logged.
const metricsInterval = 5.0

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config

	platformStarted bool
	window          *platform.Window
	input           *core.Input
	assetManager    *assets.AssetManager
	renderer        *renderer.Renderer
	scene           *scene.Scene

	clock   *core.Clock
	ticker  *core.FixedTicker
	metrics *core.Metrics

	width  uint32
	height uint32

	stopRequested atomic.Bool
	done          chan struct{}
	doneOnce      sync.Once
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.Config == nil {
		return nil, stacktrace.NewError("a game with a configuration is required")
	}
	if g.FnUpdate == nil || g.FnInitialize == nil {
		return nil, stacktrace.NewError("the game must provide initialize and update functions")
	}
	if err := g.Config.Validate(); err != nil {
		return nil, stacktrace.Propagate(err, "invalid configuration")
	}
	core.SetLogLevel(g.Config.Log.Level)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.Config,
		input:        core.NewInput(),
		clock:        core.NewClock(),
		ticker:       core.NewFixedTicker(g.Config.Application.TickRate),
		metrics:      core.NewMetrics(),
		done:         make(chan struct{}),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize opens the window, brings up the renderer and loads the
// configured scene. It must run on the main thread.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return stacktrace.Propagate(core.ErrEngineRunning, "cannot initialize an engine that is %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	core.LogInfo("Initializing engine (%s build)", core.BuildMode())

	if err := platform.Startup(); err != nil {
		return err
	}
	e.platformStarted = true

	window, err := platform.NewWindow(e.config.Application, e.input)
	if err != nil {
		return err
	}
	e.window = window
	e.width, e.height = window.FramebufferSize()

	if e.assetManager, err = assets.NewAssetManager(e.config.Assets.Root); err != nil {
		return err
	}
	if e.scene, err = e.loadScene(); err != nil {
		return err
	}
	if e.renderer, err = renderer.New(window, e.config, e.assetManager); err != nil {
		return err
	}

	g := e.gameInstance
	g.Input = e.input
	g.Window = window
	g.Scene = e.scene
	if err := g.FnInitialize(); err != nil {
		return stacktrace.Propagate(err, "game initialization failed")
	}

	if err := e.renderer.LoadScene(e.scene); err != nil {
		return err
	}
	if err := e.onResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// loadScene reads the configured scene description, or starts from an empty
// scene when none is configured.
func (e *Engine) loadScene() (*scene.Scene, error) {
	if e.config.Scene.Path == "" {
		core.LogWarn("no scene configured, starting with an empty one")
		return scene.New("empty"), nil
	}
	return scene.Load(e.assetManager.Resolve(e.config.Scene.Path))
}

// Run drives the main loop until the window closes or Stop is called.
// Game updates run on fixed steps; rendering runs once per loop iteration.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return stacktrace.Propagate(core.ErrEngineNotInitialized, "cannot run an engine that is %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	lastTime := e.clock.Elapsed()
	sinceReport := 0.0

	for !e.stopRequested.Load() && !e.window.ShouldClose() {
		if e.window.IsMinimized() {
			// Nothing to draw until the window gets an area back.
			e.window.WaitEvents()
			e.clock.Update()
			lastTime = e.clock.Elapsed()
			continue
		}
		e.window.PollEvents()

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - lastTime
		lastTime = currentTime
		frameStartTime := platform.Time()

		if err := e.checkResize(); err != nil {
			return err
		}
		if err := e.tick(delta); err != nil {
			return err
		}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(delta); err != nil {
				return stacktrace.Propagate(err, "game render failed")
			}
		}
		if _, err := e.renderer.DrawFrame(); err != nil {
			return stacktrace.Propagate(err, "could not draw frame")
		}

		e.metrics.Update(platform.Time() - frameStartTime)
		sinceReport += delta
		if sinceReport >= metricsInterval {
			drawn, skipped := e.renderer.Frames()
			core.LogDebug("fps %.0f, frame %.3fms, %d drawn, %d skipped", e.metrics.FPS(), e.metrics.FrameTime(), drawn, skipped)
			sinceReport = 0
		}

		// Input is copied last so every consumer above saw this frame's changes.
		e.input.Update()
	}
	return nil
}

// tick runs the fixed updates due after delta seconds.
func (e *Engine) tick(delta float64) error {
	step := e.ticker.Step()
	for n := e.ticker.Advance(math.Clamp(delta, 0, 1)); n > 0; n-- {
		if err := e.gameInstance.FnUpdate(step); err != nil {
			return stacktrace.Propagate(err, "game update failed")
		}
		e.scene.Update(step)
	}
	return nil
}

func (e *Engine) checkResize() error {
	width, height := e.window.FramebufferSize()
	if width == e.width && height == e.height {
		return nil
	}
	return e.onResize(width, height)
}

func (e *Engine) onResize(width, height uint32) error {
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)
	if e.gameInstance.FnOnResize == nil {
		return nil
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		return stacktrace.Propagate(err, "game resize failed")
	}
	return nil
}

// Stop asks Run to return and waits until Shutdown has completed. It is safe
// to call from any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
	<-e.done
}

// Shutdown releases everything Initialize created. It must run on the main
// thread and is safe after a failed Initialize.
func (e *Engine) Shutdown() error {
	defer e.doneOnce.Do(func() { close(e.done) })
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	core.LogInfo("Shutting down engine")

	var firstErr error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			firstErr = stacktrace.Propagate(err, "game shutdown failed")
		}
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.renderer = nil
	}
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
	}
	if e.platformStarted {
		platform.Shutdown()
		e.platformStarted = false
	}
	return firstErr
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}
