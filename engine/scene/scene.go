package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"go.uber.org/zap"
)

// NoAnimation is the animation index of a scene that is not playing anything.
const NoAnimation = -1

// scene is the implementation of the Scene interface.
type scene struct {
	mu  *sync.Mutex
	log *zap.Logger

	name   string
	model  model.Model
	camera camera.Camera
	light  light.Light

	animation int
	time      float32
	speed     float32
	paused    bool
	culling   bool
	// dirty forces one matrix upload on the next Update even when nothing is playing.
	dirty bool
}

// Scene is what the viewer shows: one imported model, the camera looking at it,
// the light shading it and the state of the animation being played.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Model returns the displayed model, or nil.
	//
	// Returns:
	//   - model.Model: the model
	Model() model.Model

	// SetModel replaces the displayed model, restarts playback and frames the camera on it.
	// The previous model is not released.
	//
	// Parameters:
	//   - m: the model to display
	SetModel(m model.Model)

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Light returns the scene's key light.
	//
	// Returns:
	//   - light.Light: the light
	Light() light.Light

	// Animation returns the index of the playing animation, or NoAnimation.
	//
	// Returns:
	//   - int: the animation index
	Animation() int

	// SetAnimation selects the animation to play from its start. NoAnimation stops playback
	// and leaves the model in its current pose.
	//
	// Parameters:
	//   - index: the animation index or NoAnimation
	//
	// Returns:
	//   - error: error if index is out of range
	SetAnimation(index int) error

	// NextAnimation selects the following animation, wrapping to the first.
	NextAnimation()

	// PreviousAnimation selects the preceding animation, wrapping to the last.
	PreviousAnimation()

	// Paused reports whether playback is paused.
	//
	// Returns:
	//   - bool: true if paused
	Paused() bool

	// SetPaused pauses or resumes playback.
	//
	// Parameters:
	//   - paused: the new state
	SetPaused(paused bool)

	// Speed returns the playback rate multiplier.
	//
	// Returns:
	//   - float32: the rate, negative plays backwards
	Speed() float32

	// SetSpeed sets the playback rate multiplier.
	//
	// Parameters:
	//   - speed: the rate, negative plays backwards
	SetSpeed(speed float32)

	// PlaybackTime returns the current animation time in seconds.
	//
	// Returns:
	//   - float32: the time within the animation's keyframe range
	PlaybackTime() float32

	// ResetPlayback rewinds the current animation to its start.
	ResetPlayback()

	// FrameModel points the camera at the model's bounds.
	FrameModel()

	// Update advances playback by dt and uploads the resulting node matrices.
	// Time wraps around the animation's keyframe range.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - error: the model's upload errors, or nil
	Update(dt float32) error

	// Draw records the model's draw calls into pass. With culling enabled, static meshes
	// outside the camera's view are skipped.
	//
	// Parameters:
	//   - pass: the open render pass
	Draw(pass renderer.RenderPass)
}

var _ Scene = &scene{}

// NewScene creates a scene with a default camera and light.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:        &sync.Mutex{},
		log:       zap.NewNop(),
		name:      "scene",
		animation: NoAnimation,
		speed:     1,
		culling:   true,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.camera == nil {
		s.camera = camera.NewCamera(camera.WithController(camera.NewCameraController()))
	}
	if s.light == nil {
		s.light = light.NewLight()
	}
	if s.model != nil {
		s.resetForModel()
	}
	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) Model() model.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *scene) SetModel(m model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.resetForModel()
}

// resetForModel starts the first animation, if any, and frames the camera. Caller must hold the mutex.
func (s *scene) resetForModel() {
	s.animation = NoAnimation
	s.time = 0
	s.dirty = true
	if s.model == nil {
		return
	}
	if len(s.model.Animations()) > 0 {
		s.selectAnimation(0)
	}
	s.frameModel()
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Light() light.Light {
	return s.light
}

func (s *scene) Animation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animation
}

func (s *scene) SetAnimation(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index == NoAnimation {
		s.animation = NoAnimation
		return nil
	}
	if s.model == nil || index < 0 || index >= len(s.model.Animations()) {
		return fmt.Errorf("animation index %d out of range", index)
	}
	s.selectAnimation(index)
	return nil
}

// selectAnimation switches to a valid index and rewinds it. Caller must hold the mutex.
func (s *scene) selectAnimation(index int) {
	anim := s.model.Animations()[index]
	s.animation = index
	s.time = anim.Start
	s.dirty = true
	s.log.Debug("playing animation",
		zap.Int("animation", index),
		zap.String("name", anim.Name),
		zap.Float32("duration", anim.Duration()),
	)
}

func (s *scene) NextAnimation() {
	s.step(1)
}

func (s *scene) PreviousAnimation() {
	s.step(-1)
}

func (s *scene) step(dir int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return
	}
	n := len(s.model.Animations())
	if n == 0 {
		return
	}
	next := 0
	if s.animation != NoAnimation {
		next = ((s.animation+dir)%n + n) % n
	} else if dir < 0 {
		next = n - 1
	}
	s.selectAnimation(next)
}

func (s *scene) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *scene) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *scene) Speed() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *scene) SetSpeed(speed float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
}

func (s *scene) PlaybackTime() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.time
}

func (s *scene) ResetPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.animation != NoAnimation {
		s.selectAnimation(s.animation)
	}
}

func (s *scene) FrameModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameModel()
}

// frameModel fits the camera to the model's bounds. Caller must hold the mutex.
func (s *scene) frameModel() {
	if s.model == nil {
		return
	}
	b := model.SceneBounds(s.model)
	if !b.Valid {
		return
	}
	ctrl := s.camera.Controller()
	if ctrl == nil {
		return
	}
	radius := b.Radius()
	ctrl.Frame(b.Center(), radius, s.camera.Fov())
	// Keep the whole model between the clip planes from any orbit distance.
	s.camera.SetClip(max(radius*0.001, 0.001), max(radius*200, 10))
}

func (s *scene) Update(dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return nil
	}
	if s.animation == NoAnimation {
		if !s.dirty {
			return nil
		}
		s.dirty = false
		return s.model.Update()
	}
	if s.paused && !s.dirty {
		return nil
	}
	s.dirty = false

	anim := s.model.Animations()[s.animation]
	if !s.paused {
		s.time = wrapTime(s.time+dt*s.speed, anim.Start, anim.Duration())
	}
	return s.model.UpdateAnimation(s.animation, s.time)
}

// wrapTime maps t into [start, start+duration). A zero duration pins t to start.
func wrapTime(t, start, duration float32) float32 {
	if duration <= 0 {
		return start
	}
	off := float32(math.Mod(float64(t-start), float64(duration)))
	if off < 0 {
		off += duration
	}
	return start + off
}

func (s *scene) Draw(pass renderer.RenderPass) {
	s.mu.Lock()
	m, culling := s.model, s.culling
	s.mu.Unlock()

	switch {
	case m == nil:
	case culling:
		m.DrawVisible(pass, common.ExtractFrustum(s.camera.ViewProjection()))
	default:
		m.Draw(pass)
	}
}
