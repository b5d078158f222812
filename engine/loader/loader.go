package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// DefaultScene selects the document's default scene, then scene 0, then every parentless node.
const DefaultScene = -1

// Profiler section names recorded during a load.
const (
	SectionDecode    = "loader.decode"
	SectionMaterials = "loader.materials"
	SectionGraph     = "loader.graph"
	SectionUpload    = "loader.upload"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	device   renderer.Device
	log      *zap.Logger
	profiler *profiler.Profiler

	decodeWorkers int
	scene         int

	modelCache map[string]model.Model

	backend loaderBackend
}

// Loader imports glTF 2.0 assets into GPU-backed models and caches them by path or name.
// Loading is synchronous; concurrent calls are safe for the cache but each load runs to completion on the
// calling goroutine.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned. The scale of the first
	// load wins; a later call with another scale logs a warning and still returns the cached model.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//   - scale: the global scale recorded on the model
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: a *common.AssetLoadError or *common.GPUResourceError if loading fails
	Load(path string, scale float32) (model.Model, error)

	// LoadReader imports a self-contained model from a reader stream and caches it by the given name.
	// A cached name is returned as is, with the same scale rule as Load.
	// External image files cannot be resolved from a stream and fall back to a white texture.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing GLB or embedded glTF data
	//   - scale: the global scale recorded on the model
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: a *common.AssetLoadError or *common.GPUResourceError if loading fails
	LoadReader(name string, r io.Reader, scale float32) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Evict removes a model from the cache and releases its GPU resources.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - bool: true if a model was removed
	Evict(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options.
// A device must be supplied with WithDevice before models can be loaded.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		log:           zap.NewNop(),
		decodeWorkers: 1,
		scene:         DefaultScene,
		modelCache:    make(map[string]model.Model),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string, scale float32) (model.Model, error) {
	if cached := l.cached(path, scale); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	l.profiler.Begin(SectionDecode)
	doc, err := backend.Open(path)
	l.profiler.End(SectionDecode)
	if err != nil {
		return nil, common.NewAssetLoadError(path, "failed to open document", err)
	}

	m, err := l.importDocument(path, filepath.Dir(path), doc, scale)
	if err != nil {
		return nil, err
	}
	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, r io.Reader, scale float32) (model.Model, error) {
	if cached := l.cached(name, scale); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, common.NewAssetLoadError(name, "no backend configured", common.ErrUnsupportedFormat)
	}

	l.profiler.Begin(SectionDecode)
	doc, err := l.backend.Decode(r)
	l.profiler.End(SectionDecode)
	if err != nil {
		return nil, common.NewAssetLoadError(name, "failed to decode stream", err)
	}

	m, err := l.importDocument(name, "", doc, scale)
	if err != nil {
		return nil, err
	}
	return l.store(name, m), nil
}

// cached returns the cached model for name, warning when it was loaded with a different scale.
func (l *loader) cached(name string, scale float32) model.Model {
	m := l.Get(name)
	if m != nil && m.Scale() != scale {
		l.log.Warn("model already cached with another scale, evict it to reload",
			zap.String("model", name), zap.Float32("cached", m.Scale()), zap.Float32("requested", scale))
	}
	return m
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	m, ok := l.modelCache[name]
	delete(l.modelCache, name)
	l.mu.Unlock()

	if ok && m != nil {
		m.Release()
	}
	return ok
}

// store caches m under key unless another load won the race, in which case m is released
// and the cached model is returned.
func (l *loader) store(key string, m model.Model) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.modelCache[key]; ok {
		m.Release()
		return existing
	}
	l.modelCache[key] = m
	return m
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l.backend == nil || !slices.Contains(l.backend.Extensions(), ext) {
		return nil, common.NewAssetLoadError(path, fmt.Sprintf("extension %q", ext), common.ErrUnsupportedFormat)
	}
	return l.backend, nil
}

// importDocument turns a decoded document into a Model.
// Samplers, textures and materials are imported first, then the node hierarchy of the selected scene
// (pass 1), then skins and animations are resolved against the node registry (pass 2). The geometry is
// uploaded last. Any fatal error releases every GPU object created so far.
//
// Parameters:
//   - name: the asset path or stream name used in errors and as the model name
//   - baseDir: the directory external images are resolved against, empty for streams
//   - doc: the decoded document
//   - scale: the global scale recorded on the model
//
// Returns:
//   - model.Model: the imported model
//   - error: a *common.AssetLoadError or *common.GPUResourceError
func (l *loader) importDocument(name, baseDir string, doc *gltf.Document, scale float32) (model.Model, error) {
	if l.device == nil {
		return nil, common.NewGPUResourceError("loader", common.ErrNoDevice)
	}

	g := &graphBuilder{
		path:          name,
		baseDir:       baseDir,
		doc:           doc,
		device:        l.device,
		log:           l.log.With(zap.String("asset", name)),
		decodeWorkers: l.decodeWorkers,
		scale:         scale,
		nodes:         make(map[int]*model.Node),
	}

	m, err := l.build(g)
	if err != nil {
		g.release()
		return nil, err
	}

	g.log.Info("model loaded",
		zap.Int("nodes", len(g.nodes)),
		zap.Int("vertices", len(g.vertices)),
		zap.Int("indices", len(g.indices)),
		zap.Int("materials", len(g.materials)),
		zap.Int("textures", len(g.textures)),
		zap.Int("skins", len(g.skins)),
		zap.Int("animations", len(g.animations)),
	)
	return m, nil
}

func (l *loader) build(g *graphBuilder) (model.Model, error) {
	l.profiler.Begin(SectionMaterials)
	g.samplers = importSamplers(g.doc)
	if err := g.importTextures(); err != nil {
		l.profiler.End(SectionMaterials)
		return nil, err
	}
	g.importMaterials()
	l.profiler.End(SectionMaterials)

	l.profiler.Begin(SectionGraph)
	if err := g.buildScene(l.scene); err != nil {
		l.profiler.End(SectionGraph)
		return nil, err
	}
	g.importAnimations()
	g.importSkins()
	l.profiler.End(SectionGraph)

	l.profiler.Begin(SectionUpload)
	defer l.profiler.End(SectionUpload)

	geometry, err := renderer.UploadGeometry(g.device,
		model.MarshalVertices(g.vertices), model.MarshalIndices(g.indices), uint32(len(g.indices)))
	if err != nil {
		return nil, err
	}

	if err := g.finalize(); err != nil {
		geometry.Release()
		var gpuErr *common.GPUResourceError
		if errors.As(err, &gpuErr) {
			return nil, err
		}
		return nil, common.NewGPUResourceError("mesh uniforms", err)
	}

	return model.NewModel(
		model.WithName(g.path),
		model.WithScale(g.scale),
		model.WithRoots(g.roots),
		model.WithNodes(g.nodes),
		model.WithMaterials(g.materials),
		model.WithTextures(g.textures),
		model.WithSamplers(g.samplers),
		model.WithSkins(g.skins),
		model.WithAnimations(g.animations),
		model.WithExtensions(g.doc.ExtensionsUsed),
		model.WithGeometry(geometry),
		model.WithVertexCount(uint32(len(g.vertices))),
	), nil
}

// buildScene runs pass 1 over the selected scene's root nodes.
// sceneIndex DefaultScene picks the document's default scene, then scene 0, then every parentless node.
func (g *graphBuilder) buildScene(sceneIndex int) error {
	roots, err := g.sceneRoots(sceneIndex)
	if err != nil {
		return err
	}
	for _, index := range roots {
		if index < 0 || index >= len(g.doc.Nodes) || g.doc.Nodes[index] == nil {
			return g.fail(fmt.Sprintf("scene root %d", index), common.ErrAccessorOutOfBounds)
		}
		if _, err := g.buildNode(nil, g.doc.Nodes[index], index); err != nil {
			return err
		}
	}
	return nil
}

func (g *graphBuilder) sceneRoots(sceneIndex int) ([]int, error) {
	if sceneIndex == DefaultScene {
		switch {
		case g.doc.Scene != nil:
			sceneIndex = *g.doc.Scene
		case len(g.doc.Scenes) > 0:
			sceneIndex = 0
		default:
			return parentlessNodes(g.doc), nil
		}
	}
	if sceneIndex < 0 || sceneIndex >= len(g.doc.Scenes) || g.doc.Scenes[sceneIndex] == nil {
		return nil, g.fail(fmt.Sprintf("scene %d", sceneIndex), common.ErrAccessorOutOfBounds)
	}
	return g.doc.Scenes[sceneIndex].Nodes, nil
}

// parentlessNodes returns every node that is nobody's child, in source order.
func parentlessNodes(doc *gltf.Document) []int {
	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i, n := range doc.Nodes {
		if n != nil && !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// release frees every GPU object the builder created.
func (g *graphBuilder) release() {
	for _, n := range g.nodes {
		if n.Mesh != nil {
			n.Mesh.Release()
		}
	}
	for _, t := range g.textures {
		t.Release()
	}
}
