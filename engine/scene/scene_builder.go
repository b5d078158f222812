package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithModel sets the initial model. Its first animation starts playing and the camera is framed on it.
//
// Parameters:
//   - m: the model to display
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithModel(m model.Model) SceneBuilderOption {
	return func(s *scene) {
		s.model = m
	}
}

// WithCamera replaces the default camera.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(c camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = c
	}
}

// WithLight replaces the default light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLight(l light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.light = l
	}
}

// WithSpeed sets the initial playback rate.
//
// Parameters:
//   - speed: the rate multiplier
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSpeed(speed float32) SceneBuilderOption {
	return func(s *scene) {
		s.speed = speed
	}
}

// WithCulling toggles frustum culling of static meshes in Draw. Culling is on by default.
//
// Parameters:
//   - enabled: whether Draw skips meshes outside the view
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCulling(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.culling = enabled
	}
}

// WithLogger sets the logger used for playback events. A nil logger is ignored.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.log = logger
		}
	}
}
