package model

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithScale is an option builder that records the global scale the Model was loaded with.
//
// Parameters:
//   - scale: the scale factor
//
// Returns:
//   - ModelBuilderOption: a function that applies the scale option to a model
func WithScale(scale float32) ModelBuilderOption {
	return func(m *model) {
		m.scale = scale
	}
}

// WithRoots is an option builder that sets the top-level nodes of the Model.
//
// Parameters:
//   - roots: the root nodes in source order
//
// Returns:
//   - ModelBuilderOption: a function that applies the roots option to a model
func WithRoots(roots []*Node) ModelBuilderOption {
	return func(m *model) {
		m.roots = roots
	}
}

// WithNodes is an option builder that sets the flat node registry keyed by source index.
//
// Parameters:
//   - nodes: every node of the loaded scene
//
// Returns:
//   - ModelBuilderOption: a function that applies the nodes option to a model
func WithNodes(nodes map[int]*Node) ModelBuilderOption {
	return func(m *model) {
		if nodes != nil {
			m.nodes = nodes
		}
	}
}

// WithMaterials is an option builder that sets the materials. The last entry must be the shared default material.
//
// Parameters:
//   - materials: the materials
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(materials []*Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}

// WithTextures is an option builder that sets the imported textures.
//
// Parameters:
//   - textures: the textures
//
// Returns:
//   - ModelBuilderOption: a function that applies the textures option to a model
func WithTextures(textures []*Texture) ModelBuilderOption {
	return func(m *model) {
		m.textures = textures
	}
}

// WithSamplers is an option builder that sets the imported texture samplers.
//
// Parameters:
//   - samplers: the samplers
//
// Returns:
//   - ModelBuilderOption: a function that applies the samplers option to a model
func WithSamplers(samplers []TextureSampler) ModelBuilderOption {
	return func(m *model) {
		m.samplers = samplers
	}
}

// WithSkins is an option builder that sets the imported skins.
//
// Parameters:
//   - skins: the skins
//
// Returns:
//   - ModelBuilderOption: a function that applies the skins option to a model
func WithSkins(skins []*Skin) ModelBuilderOption {
	return func(m *model) {
		m.skins = skins
	}
}

// WithAnimations is an option builder that sets the imported animations.
//
// Parameters:
//   - animations: the animations
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []*Animation) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithExtensions is an option builder that records the glTF extensions used by the source document.
//
// Parameters:
//   - extensions: the extension names
//
// Returns:
//   - ModelBuilderOption: a function that applies the extensions option to a model
func WithExtensions(extensions []string) ModelBuilderOption {
	return func(m *model) {
		m.extensions = extensions
	}
}

// WithGeometry is an option builder that sets the shared GPU vertex and index buffers.
//
// Parameters:
//   - geometry: the uploaded buffers
//
// Returns:
//   - ModelBuilderOption: a function that applies the geometry option to a model
func WithGeometry(geometry *renderer.GeometryBuffers) ModelBuilderOption {
	return func(m *model) {
		m.geometry = geometry
	}
}

// WithVertexCount is an option builder that records the total vertex count.
//
// Parameters:
//   - count: the number of vertices
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertex count option to a model
func WithVertexCount(count uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertexCount = count
	}
}
