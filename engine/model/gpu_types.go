package model

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxJoints is the number of joint matrices the per-mesh uniform block can hold.
// Skins with more joints are truncated to this many.
const MaxJoints = 128

const (
	// VertexSize is the byte size of one marshaled Vertex.
	VertexSize = 72

	// MeshMatrixSize is the byte size of the model matrix at the start of the uniform block.
	MeshMatrixSize = 64

	// MeshUniformSize is the byte size of the marshaled MeshUniformBlock, padded to 16 bytes.
	MeshUniformSize = 8272
)

// GPUVertexSource is the WGSL vertex input matching VertexLayout.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUMeshUniformSource is the WGSL definition of the per-mesh uniform written by MeshUniformBlock.Marshal.
//
//go:embed assets/mesh_uniform.wgsl
var GPUMeshUniformSource string

// Vertex is a single mesh vertex as imported from a glTF primitive.
type Vertex struct {
	Pos     [3]float32 // offset  0
	Normal  [3]float32 // offset 12
	UV0     [2]float32 // offset 24
	UV1     [2]float32 // offset 32
	Joint0  [4]float32 // offset 40
	Weight0 [4]float32 // offset 56
}

// Marshal writes the vertex into dst in little-endian order. dst must hold at least VertexSize bytes.
//
// Parameters:
//   - dst: the destination slice
func (v *Vertex) Marshal(dst []byte) {
	o := 0
	put := func(values ...float32) {
		for _, f := range values {
			binary.LittleEndian.PutUint32(dst[o:o+4], math.Float32bits(f))
			o += 4
		}
	}
	put(v.Pos[:]...)
	put(v.Normal[:]...)
	put(v.UV0[:]...)
	put(v.UV1[:]...)
	put(v.Joint0[:]...)
	put(v.Weight0[:]...)
}

// MarshalVertices packs a vertex slice into one contiguous byte slice for upload.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].Marshal(out[i*VertexSize:])
	}
	return out
}

// MarshalIndices packs 32-bit indices into little-endian bytes for upload.
func MarshalIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

// VertexLayout returns the vertex buffer layout matching Vertex.
// Shader locations are 0 position, 1 normal, 2 uv0, 3 uv1, 4 joint0, 5 weight0.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for slot 0
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 40, ShaderLocation: 4},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 56, ShaderLocation: 5},
		},
	}
}

// MeshUniformBlock is the per-mesh uniform data read by the vertex stage.
// WGSL layout: mat4x4<f32> matrix, array<mat4x4<f32>, 128> joints, f32 joint count, 12 bytes of padding.
type MeshUniformBlock struct {
	Matrix      mgl32.Mat4
	JointMatrix [MaxJoints]mgl32.Mat4
	JointCount  float32
}

// Marshal encodes the whole block into dst, which must hold at least MeshUniformSize bytes.
//
// Parameters:
//   - dst: the destination slice
func (u *MeshUniformBlock) Marshal(dst []byte) {
	common.PutMat4(dst[0:MeshMatrixSize], u.Matrix)
	for i := range u.JointMatrix {
		off := MeshMatrixSize + i*64
		common.PutMat4(dst[off:off+64], u.JointMatrix[i])
	}
	countOff := MeshMatrixSize + MaxJoints*64
	binary.LittleEndian.PutUint32(dst[countOff:countOff+4], math.Float32bits(u.JointCount))
	clear(dst[countOff+4 : MeshUniformSize])
}
