package engine

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/multierr"
)

// SceneShaderSource is the built-in shader: skinning on the vertex stage and a single
// directional light with ambient term on the fragment stage.
//
//go:embed assets/scene.wgsl
var SceneShaderSource string

// NewScenePipeline builds a render pipeline that draws imported models. The shader is checked
// against the vertex layout and uniform blocks the loader and renderer write.
//
// Parameters:
//   - key: the pipeline key, also passed to Renderer.BeginFrame
//   - source: WGSL source with @oxy: annotations; empty uses SceneShaderSource
//   - options: extra pipeline options applied after the defaults
//
// Returns:
//   - pipeline.Pipeline: the pipeline, ready for Renderer.RegisterPipelines
//   - error: error if the shader does not compile its annotations or does not match the engine's buffers
func NewScenePipeline(key, source string, options ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	if source == "" {
		source = SceneShaderSource
	}
	sh, err := shader.NewShader(key, source)
	if err != nil {
		return nil, err
	}

	layout := model.VertexLayout()
	err = multierr.Combine(
		sh.CheckVertexLayout(layout),
		sh.CheckUniformSizes(map[int]uint64{
			0: model.MeshUniformSize,
			1: renderer.SceneUniformSize,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	opts := append([]pipeline.PipelineBuilderOption{
		pipeline.WithShaderSource(sh.Source()),
		pipeline.WithEntryPoints(sh.VertexEntryPoint(), sh.FragmentEntryPoint()),
		pipeline.WithVertexLayout(layout),
		// glTF does not guarantee consistent winding on double-sided materials.
		pipeline.WithCullMode(wgpu.CullModeNone),
	}, options...)

	p := pipeline.NewPipeline(key, opts...)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
