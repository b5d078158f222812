package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDevice is an option builder that sets the device models are uploaded to.
//
// Parameters:
//   - device: the GPU device
//
// Returns:
//   - LoaderBuilderOption: a function that applies the device option to a loader
func WithDevice(device renderer.Device) LoaderBuilderOption {
	return func(l *loader) {
		l.device = device
	}
}

// WithLogger is an option builder that sets the logger used for import diagnostics.
// A nil logger keeps the default no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.log = logger.Named("loader")
		}
	}
}

// WithDecodeWorkers is an option builder that sets how many images are decoded in parallel.
// Values below 2 decode sequentially.
//
// Parameters:
//   - workers: the number of decode workers
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithDecodeWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		l.decodeWorkers = workers
	}
}

// WithScene is an option builder that selects which document scene is loaded.
// DefaultScene picks the document's default scene.
//
// Parameters:
//   - scene: the scene index
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(scene int) LoaderBuilderOption {
	return func(l *loader) {
		l.scene = scene
	}
}

// WithProfiler is an option builder that records load section timings.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiler option to a loader
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
