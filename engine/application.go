package engine

import (
	"errors"
	"io/fs"

	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/core"
)

// DefaultConfigPath is where the demo looks for its configuration.
const DefaultConfigPath = "config/quartz.toml"

// LoadApplicationConfig reads the configuration at path. When the file does
// not exist and required is false the defaults are returned.
func LoadApplicationConfig(path string, required bool) (*core.Config, error) {
	cfg, err := core.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !required && errors.Is(stacktrace.RootCause(err), fs.ErrNotExist) {
		core.LogWarn("no configuration at '%s', using defaults", path)
		return core.ParseConfig(nil)
	}
	return nil, err
}
