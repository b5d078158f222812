// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
	"go.uber.org/multierr"
)

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Loader   LoaderConfig   `yaml:"loader"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds the host window settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig holds presentation settings.
type RendererConfig struct {
	VSync bool `yaml:"vsync"`
	// ClearColor is RGBA in [0, 1].
	ClearColor [4]float64 `yaml:"clear_color"`
	// FOV is the vertical field of view in degrees.
	FOV float32 `yaml:"fov"`
	// ProfileInterval is how often frame statistics are logged, in seconds. 0 disables it.
	ProfileInterval float64 `yaml:"profile_interval"`
	// FrameLimit caps the frame rate. 0 leaves it uncapped.
	FrameLimit float64 `yaml:"frame_limit"`
	// Culling skips static meshes outside the view.
	Culling bool `yaml:"culling"`
	// Shader replaces the built-in WGSL shader when set.
	Shader string `yaml:"shader"`
}

// LoaderConfig holds model import settings.
type LoaderConfig struct {
	// Model is the .gltf or .glb file opened at startup.
	Model string  `yaml:"model"`
	Scale float32 `yaml:"scale"`
	// DecodeWorkers is the number of images decoded in parallel.
	DecodeWorkers int `yaml:"decode_workers"`
	// Scene selects the document scene, -1 for the default scene.
	Scene int `yaml:"scene"`
	// Animation is the name of the animation played on load. Empty plays the first one.
	Animation string `yaml:"animation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string            `yaml:"level"`
	Console bool              `yaml:"console"`
	File    logger.FileConfig `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-scene viewer",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			VSync:           true,
			ClearColor:      [4]float64{0.1, 0.1, 0.12, 1},
			FOV:             45,
			ProfileInterval: 5,
			Culling:         true,
		},
		Loader: LoaderConfig{
			Scale:         1,
			DecodeWorkers: 4,
			Scene:         -1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// LoggerConfig converts the logging section into a logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File:    c.Logging.File,
	}
}

// Validate reports every invalid setting at once.
//
// Returns:
//   - error: the combined validation errors, or nil
func (c *Config) Validate() error {
	var err error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.FOV <= 0 || c.Renderer.FOV >= 180 {
		err = multierr.Append(err, fmt.Errorf("fov %v must be in (0, 180)", c.Renderer.FOV))
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			err = multierr.Append(err, fmt.Errorf("clear_color[%d] = %v must be in [0, 1]", i, v))
		}
	}
	if c.Renderer.ProfileInterval < 0 {
		err = multierr.Append(err, errors.New("profile_interval must not be negative"))
	}
	if c.Renderer.FrameLimit < 0 {
		err = multierr.Append(err, errors.New("frame_limit must not be negative"))
	}
	if c.Loader.Model == "" {
		err = multierr.Append(err, errors.New("no model given"))
	}
	if c.Loader.Scale <= 0 {
		err = multierr.Append(err, fmt.Errorf("scale %v must be positive", c.Loader.Scale))
	}
	if c.Loader.DecodeWorkers < 1 {
		err = multierr.Append(err, fmt.Errorf("decode_workers %d must be at least 1", c.Loader.DecodeWorkers))
	}
	if c.Loader.Scene < -1 {
		err = multierr.Append(err, fmt.Errorf("scene %d must be -1 or a scene index", c.Loader.Scene))
	}
	if _, lvlErr := logger.ParseLevel(c.Logging.Level); lvlErr != nil {
		err = multierr.Append(err, lvlErr)
	}
	return err
}
