package pipeline

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

var testLayout = wgpu.VertexBufferLayout{
	ArrayStride: 12,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	},
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("scene")

	if p.PipelineKey() != "scene" {
		t.Errorf("key = %q", p.PipelineKey())
	}
	if p.VertexEntryPoint() != "vs_main" || p.FragmentEntryPoint() != "fs_main" {
		t.Errorf("entry points = %q, %q", p.VertexEntryPoint(), p.FragmentEntryPoint())
	}
	if !p.DepthWriteEnabled() || p.DepthCompare() != wgpu.CompareFunctionLess {
		t.Error("expected depth writes with a less-than compare")
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList || p.FrontFace() != wgpu.FrontFaceCCW {
		t.Error("unexpected primitive state")
	}
	if p.BlendEnabled() || p.BlendState() != nil {
		t.Error("blending should be off by default")
	}
	if p.RenderPipeline() != nil {
		t.Error("no GPU pipeline should exist before creation")
	}
}

func TestBuilderOptions(t *testing.T) {
	p := NewPipeline("blended",
		WithShaderSource("@vertex fn v() {}"),
		WithEntryPoints("v", "f"),
		WithVertexLayout(testLayout),
		WithDepthWriteEnabled(false),
		WithDepthCompare(wgpu.CompareFunctionLessEqual),
		WithBlendEnabled(true),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)

	if p.Source() != "@vertex fn v() {}" {
		t.Errorf("source = %q", p.Source())
	}
	if p.VertexEntryPoint() != "v" || p.FragmentEntryPoint() != "f" {
		t.Error("entry points not applied")
	}
	if p.VertexLayout().ArrayStride != 12 {
		t.Errorf("stride = %d", p.VertexLayout().ArrayStride)
	}
	if p.DepthWriteEnabled() || p.DepthCompare() != wgpu.CompareFunctionLessEqual {
		t.Error("depth options not applied")
	}
	if p.CullMode() != wgpu.CullModeBack || p.Topology() != wgpu.PrimitiveTopologyLineList || p.FrontFace() != wgpu.FrontFaceCW {
		t.Error("primitive options not applied")
	}
	if p.WriteMask() != wgpu.ColorWriteMaskRed {
		t.Error("write mask not applied")
	}
	bs := p.BlendState()
	if bs == nil || bs.Color.SrcFactor != wgpu.BlendFactorSrcAlpha {
		t.Errorf("expected the default alpha blend state, got %+v", bs)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	err := NewPipeline("", WithEntryPoints("", "f")).Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"empty pipeline key", "no shader source", "missing entry point", "no vertex layout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	err = NewPipeline("x", WithShaderSource("src"), WithVertexLayout(testLayout), WithBlendEnabled(true), WithBlendState(nil)).Validate()
	if err == nil || !strings.Contains(err.Error(), "without a blend state") {
		t.Errorf("expected a blend state error, got %v", err)
	}
}
