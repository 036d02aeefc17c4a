package core

import (
	"os"

	"github.com/palantir/stacktrace"
	"github.com/pelletier/go-toml/v2"
)

// Config is the engine configuration as read from a TOML file.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Log         LogConfig         `toml:"log"`
	Assets      AssetsConfig      `toml:"assets"`
	Scene       SceneConfig       `toml:"scene"`
}

type ApplicationConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	PosX    uint32 `toml:"pos_x"`
	PosY    uint32 `toml:"pos_y"`
	Width   uint32 `toml:"width"`
	Height  uint32 `toml:"height"`
	// TickRate is the number of fixed updates per second.
	TickRate float64 `toml:"tick_rate"`
}

type RendererConfig struct {
	Validation     bool       `toml:"validation"`
	FramesInFlight uint32     `toml:"frames_in_flight"`
	ShaderDir      string     `toml:"shader_dir"`
	ClearColor     [3]float32 `toml:"clear_color"`
	Skybox         bool       `toml:"skybox"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AssetsConfig struct {
	Root string `toml:"root"`
}

type SceneConfig struct {
	Path string `toml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:     "Quartz",
			Version:  "0.1.0",
			PosX:     100,
			PosY:     100,
			Width:    1280,
			Height:   720,
			TickRate: 60,
		},
		Renderer: RendererConfig{
			Validation:     true,
			FramesInFlight: 2,
			ShaderDir:      "shaders",
			Skybox:         true,
		},
		Log: LogConfig{
			Level: "debug",
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
	}
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not read config file '%s'", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML data on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, stacktrace.Propagate(err, "could not decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !ValidationAllowed() {
		cfg.Renderer.Validation = false
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return stacktrace.NewError("window size must be non-zero, got %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Application.TickRate <= 0 {
		return stacktrace.NewError("tick rate must be positive, got %f", c.Application.TickRate)
	}
	if c.Renderer.FramesInFlight == 0 || c.Renderer.FramesInFlight > 3 {
		return stacktrace.NewError("frames in flight must be between 1 and 3, got %d", c.Renderer.FramesInFlight)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return stacktrace.NewError("clear color component %d out of range: %f", i, v)
		}
	}
	return nil
}
