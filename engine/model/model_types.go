package model

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Mesh Types ---

// Primitive is one indexed draw range of a mesh inside the model's shared index buffer.
type Primitive struct {
	// FirstIndex is the offset of the first index in the shared index buffer.
	FirstIndex uint32
	// IndexCount is the number of indices drawn.
	IndexCount uint32
	// VertexCount is the number of vertices the primitive contributed.
	VertexCount uint32
	// Bounds encloses the primitive's positions in mesh space.
	Bounds Bounds
	// Material is the primitive's material, or the model's shared default material.
	Material *Material
}

// Mesh groups the primitives attached to a node with the node's uniform data.
type Mesh struct {
	// Name is the source mesh name.
	Name string
	// Primitives are the draw ranges in source order.
	Primitives []*Primitive
	// Uniform is the host copy of the per-mesh uniform block.
	Uniform MeshUniformBlock
	// UniformBuffer is the GPU copy of Uniform.
	UniformBuffer renderer.Buffer
	// Binding exposes UniformBuffer to the vertex stage at draw time.
	Binding renderer.UniformBinding

	scratch []byte
}

// writeMatrix uploads only the model matrix.
func (m *Mesh) writeMatrix() error {
	if m.UniformBuffer == nil {
		return nil
	}
	buf := make([]byte, MeshMatrixSize)
	common.PutMat4(buf, m.Uniform.Matrix)
	return m.UniformBuffer.Write(0, buf)
}

// writeBlock uploads the full uniform block.
func (m *Mesh) writeBlock() error {
	if m.UniformBuffer == nil {
		return nil
	}
	if len(m.scratch) != MeshUniformSize {
		m.scratch = make([]byte, MeshUniformSize)
	}
	m.Uniform.Marshal(m.scratch)
	return m.UniformBuffer.Write(0, m.scratch)
}

// Release frees the mesh's GPU objects.
func (m *Mesh) Release() {
	if m.Binding != nil {
		m.Binding.Release()
		m.Binding = nil
	}
	if m.UniformBuffer != nil {
		m.UniformBuffer.Release()
		m.UniformBuffer = nil
	}
}

// --- Skin Types ---

// Skin binds a mesh to a set of joint nodes.
type Skin struct {
	// Name is the source skin name.
	Name string
	// SkeletonRoot is the optional common root of the joint hierarchy.
	SkeletonRoot *Node
	// Joints are the resolved joint nodes in source order. Unresolved joints are omitted.
	Joints []*Node
	// InverseBindMatrices holds one matrix per entry of Joints when the skin provides them.
	InverseBindMatrices []mgl32.Mat4
}

// --- Material Types ---

// AlphaMode selects how a material's alpha channel is interpreted.
type AlphaMode int

const (
	// AlphaModeOpaque ignores alpha.
	AlphaModeOpaque AlphaMode = iota
	// AlphaModeMask discards fragments below the material's alpha cutoff.
	AlphaModeMask
	// AlphaModeBlend blends with the framebuffer.
	AlphaModeBlend
)

func (a AlphaMode) String() string {
	switch a {
	case AlphaModeMask:
		return "MASK"
	case AlphaModeBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}

// TexCoordSets records which UV set each material texture reads.
type TexCoordSets struct {
	BaseColor         uint8
	MetallicRoughness uint8
	Normal            uint8
	Occlusion         uint8
	Emissive          uint8
}

// Material holds metallic-roughness PBR parameters and texture references.
// Texture fields are nil when the material does not use that map.
type Material struct {
	Name string

	BaseColorTexture         *Texture
	MetallicRoughnessTexture *Texture
	NormalTexture            *Texture
	OcclusionTexture         *Texture
	EmissiveTexture          *Texture

	TexCoordSets TexCoordSets

	MetallicFactor  float32
	RoughnessFactor float32
	// AlphaCutoff is only meaningful for AlphaModeMask; it is 0 otherwise.
	AlphaCutoff     float32
	BaseColorFactor mgl32.Vec4
	EmissiveFactor  mgl32.Vec4
	AlphaMode       AlphaMode
	DoubleSided     bool
}

// NewDefaultMaterial returns the material used by primitives that reference none.
func NewDefaultMaterial() *Material {
	return &Material{
		Name:            "default",
		MetallicFactor:  1,
		RoughnessFactor: 1,
		BaseColorFactor: mgl32.Vec4{1, 1, 1, 1},
		EmissiveFactor:  mgl32.Vec4{0, 0, 0, 1},
		AlphaMode:       AlphaModeOpaque,
	}
}

// --- Texture Types ---

// TextureSampler is the filtering and wrapping state imported from a glTF sampler.
type TextureSampler struct {
	MagFilter    wgpu.FilterMode
	MinFilter    wgpu.FilterMode
	AddressModeU wgpu.AddressMode
	AddressModeV wgpu.AddressMode
	AddressModeW wgpu.AddressMode
}

// DefaultTextureSampler is used by textures that reference no sampler.
func DefaultTextureSampler() TextureSampler {
	return TextureSampler{
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
	}
}

// StagingData converts the sampler into the renderer's sampler description.
func (s TextureSampler) StagingData() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU: s.AddressModeU,
		AddressModeV: s.AddressModeV,
		AddressModeW: s.AddressModeW,
		MagFilter:    s.MagFilter,
		MinFilter:    s.MinFilter,
	}
}

// Texture is an imported image uploaded to the GPU together with its sampler state.
type Texture struct {
	// Index is the glTF texture index.
	Index  int
	Name   string
	Width  uint32
	Height uint32
	// Image is the GPU texture, nil when no device was available.
	Image   renderer.Texture
	Sampler TextureSampler
}

// Release frees the GPU image.
func (t *Texture) Release() {
	if t.Image != nil {
		t.Image.Release()
		t.Image = nil
	}
}
