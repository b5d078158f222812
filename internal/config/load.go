package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// flags holds the command line overrides registered on a FlagSet.
type flags struct {
	config  *string
	model   *string
	scale   *float64
	debug   *bool
	width   *int
	height  *int
	vsync   *bool
	workers *int
}

func registerFlags(fs *flag.FlagSet) *flags {
	return &flags{
		config:  fs.String("config", "", "Path to config file"),
		model:   fs.String("model", "", "Path to the .gltf or .glb model to open"),
		scale:   fs.Float64("scale", 1, "Global model scale"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		width:   fs.Int("width", 0, "Window width"),
		height:  fs.Int("height", 0, "Window height"),
		vsync:   fs.Bool("vsync", true, "Wait for vertical sync"),
		workers: fs.Int("workers", 0, "Number of parallel image decoders"),
	}
}

// Load parses args with fs and loads configuration with priority: defaults < file < flags.
// The file is the -config flag when given, otherwise ./config.yaml when it exists.
// Only flags present in args override file values. A positional argument is taken as the model path.
//
// Parameters:
//   - fs: the flag set the overrides are registered on
//   - args: the command line arguments without the program name
//
// Returns:
//   - *Config: the merged configuration
//   - error: error if flag parsing or the config file fails
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	f := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	path := *f.config
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	f.apply(fs, cfg)
	if cfg.Loader.Model == "" && fs.NArg() > 0 {
		cfg.Loader.Model = fs.Arg(0)
	}
	return cfg, nil
}

// LoadFile loads a config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// apply copies every flag that was set on the command line into cfg.
func (f *flags) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "model":
			cfg.Loader.Model = *f.model
		case "scale":
			cfg.Loader.Scale = float32(*f.scale)
		case "debug":
			if *f.debug {
				cfg.Logging.Level = "debug"
			}
		case "width":
			cfg.Window.Width = *f.width
		case "height":
			cfg.Window.Height = *f.height
		case "vsync":
			cfg.Renderer.VSync = *f.vsync
		case "workers":
			cfg.Loader.DecodeWorkers = *f.workers
		}
	})
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
