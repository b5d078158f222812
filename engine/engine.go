package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"go.uber.org/zap"
)

// DefaultPipelineKey is the render pipeline the engine draws the scene with unless WithPipelineKey overrides it.
const DefaultPipelineKey = "scene"

// ErrIncomplete is returned by NewEngine when the window, renderer or scene is missing.
var ErrIncomplete = errors.New("engine needs a window, a renderer and a scene")

// engine implements the Engine interface.
// Drives the whole frame from the window's message loop on the calling thread.
type engine struct {
	log *zap.Logger

	window   window.Window
	renderer renderer.Renderer
	scene    scene.Scene

	profiler         *profiler.Profiler
	profilingEnabled bool

	pipelineKey      string
	baseTitle        string
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	now       func() time.Time
	lastFrame time.Time

	// pointer state for camera controls
	orbiting bool
	panning  bool
	cursorX  float32
	cursorY  float32

	quitOnce sync.Once
	err      error
}

// Engine is the viewer host. It connects window input to the scene's camera and playback
// and renders one frame per message loop iteration.
type Engine interface {
	// Window returns the host window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are recorded with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the displayed scene.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run processes window messages and renders until the window closes or a frame fails.
	//
	// Returns:
	//   - error: the frame error that stopped the loop, or nil when the window was closed
	Run() error

	// Quit closes the window, which ends Run after the current iteration.
	// Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the viewer host and installs its window callbacks.
//
// Parameters:
//   - options: functional options supplying the window, renderer, scene and settings
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrIncomplete if a required component is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		log:         zap.NewNop(),
		pipelineKey: DefaultPipelineKey,
		now:         time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil || e.renderer == nil || e.scene == nil {
		return nil, ErrIncomplete
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(e.log)
	}

	if w, h := e.renderer.Size(); w > 0 && h > 0 {
		e.scene.Camera().SetAspect(float32(w) / float32(h))
	}

	e.window.SetUpdateCallback(e.tick)
	e.window.SetResizeCallback(e.handleResize)
	e.window.SetScrollCallback(e.handleScroll)
	e.window.SetKeyDownCallback(e.handleKey)
	e.window.SetMouseButtonCallback(e.handleMouseButton)
	e.window.SetMouseMoveCallback(e.handleMouseMove)
	e.updateTitle()

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Run() error {
	e.lastFrame = e.now()
	e.window.ProcessMessages()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if err := e.window.Close(); err != nil {
			e.log.Warn("closing window", zap.Error(err))
		}
	})
}

// --- Frame ---

// tick runs once per message loop iteration.
func (e *engine) tick() {
	start := e.now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	if err := e.frame(dt); err != nil {
		e.log.Error("frame failed", zap.Error(err))
		e.err = err
		e.Quit()
		return
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// frame advances playback by dt and renders the scene.
// A minimized surface skips drawing without failing.
func (e *engine) frame(dt float32) error {
	e.profiler.Begin("update")
	if err := e.scene.Update(dt); err != nil {
		// A failed uniform write leaves the previous pose on screen; keep rendering.
		e.log.Warn("scene update", zap.Error(err))
	}
	e.profiler.End("update")

	cam := e.scene.Camera()
	cam.Update()
	e.renderer.SetViewProjection(cam.ViewProjection())
	l := e.scene.Light()
	e.renderer.SetLight(l.Direction(), l.Radiance(), l.Ambient())

	e.profiler.Begin("draw")
	defer e.profiler.End("draw")

	pass, err := e.renderer.BeginFrame(e.pipelineKey)
	if errors.Is(err, renderer.ErrSurfaceMinimized) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	e.scene.Draw(pass)
	if err := e.renderer.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	e.renderer.Present()

	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

// --- Input ---

func (e *engine) handleResize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		e.log.Warn("resize", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
	if width > 0 && height > 0 {
		e.scene.Camera().SetAspect(float32(width) / float32(height))
	}
}

func (e *engine) handleScroll(delta float32) {
	if ctrl := e.scene.Camera().Controller(); ctrl != nil {
		ctrl.Zoom(delta)
	}
}

func (e *engine) handleMouseButton(button common.MouseButton, pressed bool, x, y float32) {
	switch button {
	case common.MouseButtonLeft:
		e.orbiting = pressed
	case common.MouseButtonRight, common.MouseButtonMiddle:
		e.panning = pressed
	}
	e.cursorX, e.cursorY = x, y
}

func (e *engine) handleMouseMove(x, y float32) {
	dx, dy := x-e.cursorX, y-e.cursorY
	e.cursorX, e.cursorY = x, y

	ctrl := e.scene.Camera().Controller()
	if ctrl == nil {
		return
	}
	switch {
	case e.orbiting:
		ctrl.Drag(dx, dy)
	case e.panning:
		// Screen y grows downwards.
		ctrl.Pan(-dx, dy)
	}
}

func (e *engine) handleKey(key common.KeyCode) {
	s := e.scene
	switch key {
	case common.KeyN:
		s.NextAnimation()
		e.updateTitle()
	case common.KeyP:
		s.PreviousAnimation()
		e.updateTitle()
	case common.KeySpace:
		s.SetPaused(!s.Paused())
	case common.KeyR:
		s.ResetPlayback()
	case common.KeyF:
		s.FrameModel()
	case common.KeyLeft, common.KeyRight, common.KeyUp, common.KeyDown:
		e.orbitKey(key)
	}
}

func (e *engine) orbitKey(key common.KeyCode) {
	ctrl := e.scene.Camera().Controller()
	if ctrl == nil {
		return
	}
	step := ctrl.OrbitSpeed()
	switch key {
	case common.KeyLeft:
		ctrl.Orbit(-step, 0)
	case common.KeyRight:
		ctrl.Orbit(step, 0)
	case common.KeyUp:
		ctrl.Orbit(0, step)
	case common.KeyDown:
		ctrl.Orbit(0, -step)
	}
}

// updateTitle shows the playing animation's name next to the base title.
func (e *engine) updateTitle() {
	if e.baseTitle == "" {
		return
	}
	title := e.baseTitle
	if m := e.scene.Model(); m != nil {
		if i := e.scene.Animation(); i != scene.NoAnimation {
			anim := m.Animations()[i]
			name := anim.Name
			if name == "" {
				name = fmt.Sprintf("animation %d", i)
			}
			title = fmt.Sprintf("%s - %s", title, name)
		}
	}
	e.window.SetTitle(title)
}
