package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// GeometryBuffers holds the device-local vertex and index buffers shared by every mesh of a model.
type GeometryBuffers struct {
	// Vertex is nil when the model has no vertices.
	Vertex Buffer
	// Index is nil when the model has no indices.
	Index Buffer
	// IndexCount is the total number of 32-bit indices in Index.
	IndexCount uint32
}

// Empty reports whether there is nothing to draw.
func (g *GeometryBuffers) Empty() bool {
	return g == nil || g.Vertex == nil || g.Index == nil || g.IndexCount == 0
}

// Release frees both buffers.
func (g *GeometryBuffers) Release() {
	if g == nil {
		return
	}
	if g.Vertex != nil {
		g.Vertex.Release()
		g.Vertex = nil
	}
	if g.Index != nil {
		g.Index.Release()
		g.Index = nil
	}
}

type geometryUpload struct {
	name  string
	data  []byte
	usage wgpu.BufferUsage
	dst   *Buffer
}

// UploadGeometry copies vertex and index bytes into device-local buffers.
// Each non-empty stream is written into a host-visible staging buffer, copied to its destination by a single
// one-shot command submission, and the staging buffers are released once the device has finished the copy.
// Empty geometry produces no buffers and no submission.
//
// Parameters:
//   - device: the device to create buffers on
//   - vertexData: the packed vertex bytes
//   - indexData: the packed uint32 index bytes
//   - indexCount: number of indices in indexData
//
// Returns:
//   - *GeometryBuffers: the device-local buffers
//   - error: a *common.GPUResourceError if any step fails
func UploadGeometry(device Device, vertexData, indexData []byte, indexCount uint32) (*GeometryBuffers, error) {
	if device == nil {
		return nil, common.NewGPUResourceError("geometry", common.ErrNoDevice)
	}

	geometry := &GeometryBuffers{IndexCount: indexCount}
	uploads := []geometryUpload{
		{name: "vertex", data: vertexData, usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst, dst: &geometry.Vertex},
		{name: "index", data: indexData, usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst, dst: &geometry.Index},
	}

	staging := make([]Buffer, 0, len(uploads))
	defer func() {
		for _, s := range staging {
			s.Release()
		}
	}()

	for _, u := range uploads {
		if len(u.data) == 0 {
			continue
		}
		size := uint64(len(u.data))

		src, err := device.CreateBuffer(BufferDescriptor{
			Label:  u.name + " staging buffer",
			Usage:  wgpu.BufferUsageCopySrc,
			Memory: MemoryHostVisible | MemoryHostCoherent,
			Size:   size,
			Data:   u.data,
		})
		if err != nil {
			geometry.Release()
			return nil, common.NewGPUResourceError(u.name+" staging buffer", err)
		}
		staging = append(staging, src)

		dst, err := device.CreateBuffer(BufferDescriptor{
			Label:  u.name + " buffer",
			Usage:  u.usage,
			Memory: MemoryDeviceLocal,
			Size:   size,
		})
		if err != nil {
			geometry.Release()
			return nil, common.NewGPUResourceError(u.name+" buffer", err)
		}
		*u.dst = dst
	}

	if len(staging) == 0 {
		return geometry, nil
	}

	enc, err := device.BeginCommands("geometry upload")
	if err != nil {
		geometry.Release()
		return nil, common.NewGPUResourceError("geometry upload commands", err)
	}

	i := 0
	for _, u := range uploads {
		if len(u.data) == 0 {
			continue
		}
		if err := enc.CopyBuffer(staging[i], *u.dst, uint64(len(u.data))); err != nil {
			geometry.Release()
			return nil, common.NewGPUResourceError(u.name+" buffer copy", err)
		}
		i++
	}

	if err := device.Flush(enc); err != nil {
		geometry.Release()
		return nil, common.NewGPUResourceError("geometry upload submit", err)
	}

	return geometry, nil
}
