package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrReleased is returned by Renderer operations after Release.
var ErrReleased = errors.New("renderer has been released")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      *zap.Logger

	width, height int
	inFrame       bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer owns the window surface and GPU device and drives the per-frame render pass that models draw into.
//
// A frame is BeginFrame, any number of draws into the returned RenderPass, EndFrame and Present.
// Pipelines are cached by key and bind the per-mesh uniform at group 0 and the camera at group 1.
type Renderer interface {
	// Device returns the resource factory the model loader creates GPU objects through.
	//
	// Returns:
	//   - Device: the device bound to this renderer
	Device() Device

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU pipeline for each description and caches it by PipelineKey.
	// Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// A zero size, as reported for a minimized window, is remembered but not applied.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the render targets cannot be recreated
	Resize(width, height int) error

	// Size returns the last surface size passed to Resize.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// SetViewProjection uploads the camera matrix used by every pipeline.
	//
	// Parameters:
	//   - m: the combined projection and view matrix
	SetViewProjection(m mgl32.Mat4)

	// SetLight uploads the directional light used by every pipeline.
	//
	// Parameters:
	//   - direction: the normalized direction the light travels in
	//   - radiance: the light color scaled by its intensity
	//   - ambient: the always-lit fraction of the base color
	SetLight(direction, radiance mgl32.Vec3, ambient float32)

	// BeginFrame opens the frame's render pass with the pipeline registered under key bound.
	//
	// Parameters:
	//   - key: the pipeline to draw with
	//
	// Returns:
	//   - RenderPass: the pass draw calls are recorded into
	//   - error: an error if a frame is already open, the surface is minimized, or the backend fails
	BeginFrame(key string) (RenderPass, error)

	// EndFrame submits the frame's commands.
	//
	// Returns:
	//   - error: an error if no frame is open or submission fails
	EndFrame() error

	// Present shows the submitted frame.
	Present()

	// Release frees every pipeline and the GPU device. Resources created through Device must be released first.
	Release()
}

var _ Renderer = &renderer{}

// ErrSurfaceMinimized is returned by BeginFrame while the surface has a zero size.
var ErrSurfaceMinimized = errors.New("surface has zero size")

// NewRenderer creates the WebGPU backend for the given surface and configures it at the given size.
//
// Parameters:
//   - surfaceDescriptor: the platform surface created by the host window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: builder options applied before the backend is created
//
// Returns:
//   - Renderer: the ready renderer
//   - error: a *common.GPUResourceError if the adapter, device or surface cannot be set up
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch r.backendType {
	case BackendTypeWGPU:
		backend, err := newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter, msaa)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	default:
		return nil, fmt.Errorf("unsupported renderer backend %d", r.backendType)
	}
	r.logger.Debug("renderer backend created", zap.Uint32("msaa", uint32(msaa)), zap.Bool("software", r.forceFallbackAdapter))

	if err := r.init(width, height); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   BackendTypeWGPU,
		logger:        zap.NewNop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// init applies the pending options to a freshly created backend, configures the surface and
// creates any pipelines supplied through WithPipeline.
func (r *renderer) init(width, height int) error {
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}
	if err := r.Resize(width, height); err != nil {
		return err
	}

	pending := make([]pipeline.Pipeline, 0, len(r.pipelineCache))
	for _, p := range r.pipelineCache {
		pending = append(pending, p)
	}
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	return r.RegisterPipelines(pending...)
}

func (r *renderer) Device() Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return nil
	}
	return r.backend.Device()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return ErrReleased
	}
	for _, p := range pipelines {
		if p == nil {
			continue
		}
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
		r.logger.Debug("pipeline registered", zap.String("pipeline", key))
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return ErrReleased
	}
	r.width, r.height = width, height
	if width <= 0 || height <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.width, r.height
}

func (r *renderer) SetViewProjection(m mgl32.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend != nil {
		r.backend.WriteViewProjection(m)
	}
}

func (r *renderer) SetLight(direction, radiance mgl32.Vec3, ambient float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend != nil {
		r.backend.WriteLight(direction, radiance, ambient)
	}
}

func (r *renderer) BeginFrame(key string) (RenderPass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return nil, ErrReleased
	}
	if r.inFrame {
		return nil, errors.New("frame already in progress")
	}
	if r.width <= 0 || r.height <= 0 {
		return nil, ErrSurfaceMinimized
	}

	pass, err := r.backend.BeginFrame(key)
	if err != nil {
		return nil, err
	}
	r.inFrame = true
	return pass, nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return ErrReleased
	}
	if !r.inFrame {
		return errNoFrame
	}
	r.inFrame = false
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend != nil {
		r.backend.Present()
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return
	}
	// The backend owns the GPU pipelines it created.
	r.backend.Release()
	r.backend = nil
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	r.inFrame = false
}
