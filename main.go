/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"

	"github.com/xlab/closer"

	"github.com/spaghettifunk/quartz/engine"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/testbed"
)

func main() {
	configPath := flag.String("config", engine.DefaultConfigPath, "path to the engine configuration")
	scenePath := flag.String("scene", "", "scene description to load, relative to the asset root")
	noValidation := flag.Bool("no-validation", false, "disable the Vulkan validation layers")
	flag.Parse()

	defer closer.Close()

	cfg, err := engine.LoadApplicationConfig(*configPath, *configPath != engine.DefaultConfigPath)
	if err != nil {
		core.LogError("%v", err)
		closer.Exit(1)
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}
	if *noValidation {
		cfg.Renderer.Validation = false
	}

	e, err := engine.New(testbed.NewTestGame(cfg).Game)
	if err != nil {
		core.LogError("%v", err)
		closer.Exit(1)
	}
	// On a signal the loop is asked to stop and closer waits for the main
	// thread to finish the shutdown.
	closer.Bind(e.Stop)

	if err := e.Initialize(); err != nil {
		core.LogError("%v", err)
		shutdown(e)
		closer.Exit(1)
	}

	if err := e.Run(); err != nil {
		core.LogError("%v", err)
		shutdown(e)
		closer.Exit(1)
	}
	shutdown(e)
}

func shutdown(e *engine.Engine) {
	if err := e.Shutdown(); err != nil {
		core.LogError("%v", err)
	}
}
