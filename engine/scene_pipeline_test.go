package engine

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewScenePipelineBuiltin(t *testing.T) {
	p, err := NewScenePipeline(DefaultPipelineKey, "", pipeline.WithFrontFace(wgpu.FrontFaceCW))
	if err != nil {
		t.Fatalf("NewScenePipeline: %v", err)
	}
	if p.PipelineKey() != DefaultPipelineKey {
		t.Errorf("key = %q", p.PipelineKey())
	}
	if p.VertexEntryPoint() != "vs_main" || p.FragmentEntryPoint() != "fs_main" {
		t.Errorf("entry points = %q, %q", p.VertexEntryPoint(), p.FragmentEntryPoint())
	}
	if p.VertexLayout().ArrayStride != model.VertexSize {
		t.Errorf("stride = %d", p.VertexLayout().ArrayStride)
	}
	if p.CullMode() != wgpu.CullModeNone {
		t.Error("model pipelines draw both faces")
	}
	if p.FrontFace() != wgpu.FrontFaceCW {
		t.Error("caller options must override the defaults")
	}
	if strings.Contains(p.Source(), "@oxy:") || !strings.Contains(p.Source(), "struct MeshUniform") {
		t.Error("annotations were not expanded")
	}
}

func TestNewScenePipelineRejectsMismatchedShader(t *testing.T) {
	src := `//@oxy:include scene_uniform
//@oxy:group 2 0 storage_uniform extra scene_uniform

struct In {
    @location(0) position: vec4<f32>,
};

@vertex
fn vs(in: In) -> @builtin(position) vec4<f32> {
    return in.position;
}

@fragment
fn fs() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`
	_, err := NewScenePipeline("bad", src)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"location 0", "group 2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	if _, err := NewScenePipeline("bad", "@vertex fn vs() {}"); err == nil {
		t.Error("expected a missing fragment entry point error")
	}
}
