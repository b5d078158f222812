package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// MemoryProperty describes where a buffer's memory lives and how the host may access it.
type MemoryProperty uint32

const (
	// MemoryDeviceLocal places the buffer in memory only the GPU reads efficiently.
	MemoryDeviceLocal MemoryProperty = 1 << iota
	// MemoryHostVisible allows the host to populate the buffer directly.
	MemoryHostVisible
	// MemoryHostCoherent makes host writes visible to the GPU without explicit flushes.
	MemoryHostCoherent
)

// Has reports whether all bits of flag are set.
func (m MemoryProperty) Has(flag MemoryProperty) bool {
	return m&flag == flag
}

// BufferDescriptor describes a buffer to create through a Device.
type BufferDescriptor struct {
	// Label is a debug name attached to the GPU object.
	Label string
	// Usage is the set of wgpu usages the buffer is created with.
	Usage wgpu.BufferUsage
	// Memory selects host-visible staging memory or device-local memory.
	Memory MemoryProperty
	// Size is the buffer size in bytes.
	Size uint64
	// Data, when non-empty, is copied into the buffer at creation. Only valid for host-visible buffers.
	Data []byte
}

// Buffer is a GPU buffer created by a Device.
type Buffer interface {
	// Label returns the debug name the buffer was created with.
	//
	// Returns:
	//   - string: the buffer label
	Label() string

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Write copies data into the buffer at the given byte offset.
	//
	// Parameters:
	//   - offset: destination offset in bytes
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if the write does not fit in the buffer
	Write(offset uint64, data []byte) error

	// Release frees the GPU buffer. Calling Release more than once is a no-op.
	Release()
}

// Texture is a sampled GPU image together with its sampler state.
type Texture interface {
	// Label returns the debug name the texture was created with.
	//
	// Returns:
	//   - string: the texture label
	Label() string

	// Width returns the texture width in pixels.
	//
	// Returns:
	//   - uint32: width in pixels
	Width() uint32

	// Height returns the texture height in pixels.
	//
	// Returns:
	//   - uint32: height in pixels
	Height() uint32

	// Release frees the texture, its view and its sampler.
	Release()
}

// UniformBinding is the per-mesh descriptor that exposes a uniform buffer to the vertex stage.
type UniformBinding interface {
	// Buffer returns the uniform buffer the binding refers to.
	//
	// Returns:
	//   - Buffer: the bound buffer
	Buffer() Buffer

	// Release frees the binding. The referenced buffer is not released.
	Release()
}

// CommandEncoder records one-shot transfer commands.
type CommandEncoder interface {
	// CopyBuffer records a copy of size bytes from the start of src to the start of dst.
	//
	// Parameters:
	//   - src: the source buffer (must allow copy-src usage)
	//   - dst: the destination buffer (must allow copy-dst usage)
	//   - size: number of bytes to copy
	//
	// Returns:
	//   - error: an error if the copy cannot be recorded
	CopyBuffer(src, dst Buffer, size uint64) error
}

// RenderPass is the subset of a render pass the scene graph needs to issue draws.
type RenderPass interface {
	// SetVertexBuffer binds the vertex buffer at slot 0.
	//
	// Parameters:
	//   - buf: the vertex buffer
	SetVertexBuffer(buf Buffer)

	// SetIndexBuffer binds a 32-bit index buffer.
	//
	// Parameters:
	//   - buf: the index buffer
	SetIndexBuffer(buf Buffer)

	// SetUniformBinding binds a per-mesh uniform binding at the given group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the uniform binding
	SetUniformBinding(group uint32, binding UniformBinding)

	// DrawIndexed issues an indexed draw.
	//
	// Parameters:
	//   - indexCount: number of indices to draw
	//   - instanceCount: number of instances
	//   - firstIndex: offset into the index buffer, in indices
	//   - baseVertex: value added to each index
	//   - firstInstance: first instance id
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Device creates GPU objects and submits one-shot transfer work.
//
// The loader and scene graph only talk to the GPU through this interface, so a headless
// implementation can stand in for the wgpu device in tests and tools.
type Device interface {
	// CreateBuffer creates a buffer. When desc.Data is non-empty it is copied in at creation.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if creation fails
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// CreateTexture creates a 2D RGBA8 texture from staged pixels, uploads the pixels and creates its sampler.
	//
	// Parameters:
	//   - label: debug name
	//   - pixels: the RGBA pixel data and dimensions
	//   - sampler: the sampler state; filters and address modes are used as given, zero mipmap and LOD fields take renderer defaults
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if creation fails
	CreateTexture(label string, pixels common.TextureStagingData, sampler common.SamplerStagingData) (Texture, error)

	// CreateUniformBinding creates the descriptor that exposes buf as the per-mesh uniform block.
	//
	// Parameters:
	//   - label: debug name
	//   - buf: the uniform buffer
	//
	// Returns:
	//   - UniformBinding: the created binding
	//   - error: an error if creation fails
	CreateUniformBinding(label string, buf Buffer) (UniformBinding, error)

	// BeginCommands starts a one-shot command encoder for transfer work.
	//
	// Parameters:
	//   - label: debug name
	//
	// Returns:
	//   - CommandEncoder: the encoder
	//   - error: an error if the encoder cannot be created
	BeginCommands(label string) (CommandEncoder, error)

	// Flush finishes the encoder, submits it and blocks until the GPU has executed it.
	//
	// Parameters:
	//   - enc: an encoder returned by BeginCommands
	//
	// Returns:
	//   - error: an error if encoding or submission fails
	Flush(enc CommandEncoder) error

	// Queue returns the graphics queue, or nil for devices without one.
	//
	// Returns:
	//   - *wgpu.Queue: the queue handle
	Queue() *wgpu.Queue
}
