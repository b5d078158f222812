// Command viewer opens a glTF 2.0 model in a window and plays its animations.
//
// Usage:
//
//	viewer [flags] model.glb
//
// Controls: left drag orbits, right or middle drag pans, the wheel zooms, arrow keys orbit,
// N and P switch animations, Space pauses, R rewinds, F frames the model, Escape quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/Carmen-Shannon/oxy-scene/internal/config"
	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Log

	var shaderSource string
	if cfg.Renderer.Shader != "" {
		data, err := os.ReadFile(cfg.Renderer.Shader)
		if err != nil {
			return fmt.Errorf("reading shader: %w", err)
		}
		shaderSource = string(data)
	}
	scenePipeline, err := engine.NewScenePipeline(engine.DefaultPipelineKey, shaderSource)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Close()

	presentMode := renderer.PresentModeVSync
	if !cfg.Renderer.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	r, err := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(cfg.Renderer.ClearColor),
		renderer.WithPipeline(scenePipeline),
		renderer.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer r.Release()

	prof := profiler.NewProfiler(log)
	prof.SetUpdateInterval(time.Duration(cfg.Renderer.ProfileInterval * float64(time.Second)))

	ldr := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithDevice(r.Device()),
		loader.WithLogger(log),
		loader.WithDecodeWorkers(cfg.Loader.DecodeWorkers),
		loader.WithScene(cfg.Loader.Scene),
		loader.WithProfiler(prof),
	)
	m, err := ldr.Load(cfg.Loader.Model, cfg.Loader.Scale)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.Loader.Model, err)
	}
	defer m.Release()

	sc := scene.NewScene(
		scene.WithName(m.Name()),
		scene.WithLogger(log),
		scene.WithCamera(camera.NewCamera(
			camera.WithFovDegrees(cfg.Renderer.FOV),
			camera.WithController(camera.NewCameraController()),
		)),
		scene.WithModel(m),
		scene.WithCulling(cfg.Renderer.Culling),
	)
	selectAnimation(log, sc, cfg.Loader.Animation)

	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(sc),
		engine.WithTitle(fmt.Sprintf("%s - %s", cfg.Window.Title, m.Name())),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Renderer.ProfileInterval > 0),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
		engine.WithLogger(log),
	)
	if err != nil {
		return err
	}

	log.Info("viewer ready",
		zap.String("model", cfg.Loader.Model),
		zap.Int("animations", len(m.Animations())),
		zap.Int("nodes", len(m.AllNodes())),
	)
	prof.Report()
	return eng.Run()
}

// selectAnimation plays the animation called name. An unknown name keeps the one already playing.
func selectAnimation(log *zap.Logger, sc scene.Scene, name string) {
	m := sc.Model()
	if name == "" || m == nil {
		return
	}
	i := m.AnimationIndex(name)
	if i < 0 {
		log.Warn("animation not found, playing the first one", zap.String("animation", name))
		return
	}
	if err := sc.SetAnimation(i); err != nil {
		log.Warn("failed to select animation", zap.String("animation", name), zap.Error(err))
	}
}
