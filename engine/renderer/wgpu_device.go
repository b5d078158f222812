package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var errForeignResource = errors.New("resource was not created by this device")

type wgpuDevice struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	// uniformLayout is the group 0 layout shared by every per-mesh uniform binding.
	uniformLayout *wgpu.BindGroupLayout
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps an already requested wgpu device and its queue.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the device's queue
//
// Returns:
//   - Device: the device wrapper
//   - error: an error if the per-mesh uniform layout cannot be created
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) (Device, error) {
	return newWGPUDevice(device, queue)
}

func newWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) (*wgpuDevice, error) {
	if device == nil || queue == nil {
		return nil, common.ErrNoDevice
	}

	entry := wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageVertex,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeUniform

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Mesh Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{entry},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh uniform layout: %w", err)
	}

	return &wgpuDevice{
		mu:            &sync.Mutex{},
		device:        device,
		queue:         queue,
		uniformLayout: layout,
	}, nil
}

func (d *wgpuDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.Size == 0 {
		return nil, errors.New("buffer size must be greater than zero")
	}

	var (
		buf *wgpu.Buffer
		err error
	)
	if len(desc.Data) > 0 {
		if !desc.Memory.Has(MemoryHostVisible) {
			return nil, fmt.Errorf("buffer %q: initial data requires host-visible memory", desc.Label)
		}
		buf, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Data,
			Usage:    desc.Usage,
		})
	} else {
		buf, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            desc.Label,
			Size:             desc.Size,
			Usage:            desc.Usage,
			MappedAtCreation: false,
		})
	}
	if err != nil {
		return nil, err
	}

	return &wgpuBuffer{
		label:  desc.Label,
		size:   desc.Size,
		buffer: buf,
		queue:  d.queue,
	}, nil
}

func (d *wgpuDevice) CreateTexture(label string, pixels common.TextureStagingData, sampler common.SamplerStagingData) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !pixels.Valid() {
		return nil, fmt.Errorf("texture %q: pixel data does not match %dx%d", label, pixels.Width, pixels.Height)
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              pixels.Width,
			Height:             pixels.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  pixels.Width * 4,
			RowsPerImage: pixels.Height,
		},
		&wgpu.Extent3D{
			Width:              pixels.Width,
			Height:             pixels.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  sampler.AddressModeU,
		AddressModeV:  sampler.AddressModeV,
		AddressModeW:  sampler.AddressModeW,
		MagFilter:     sampler.MagFilter,
		MinFilter:     sampler.MinFilter,
		MipmapFilter:  common.Coalesce(sampler.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(sampler.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(sampler.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(sampler.MaxAnisotropy, 1),
		Compare:       sampler.Compare,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	return &wgpuTexture{
		label:   label,
		width:   pixels.Width,
		height:  pixels.Height,
		texture: tex,
		view:    view,
		sampler: samp,
	}, nil
}

func (d *wgpuDevice) CreateUniformBinding(label string, buf Buffer) (UniformBinding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.buffer == nil {
		return nil, errForeignResource
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: d.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  wb.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &wgpuUniformBinding{buffer: wb, bindGroup: bg}, nil
}

func (d *wgpuDevice) BeginCommands(label string) (CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return &wgpuCommandEncoder{encoder: enc}, nil
}

func (d *wgpuDevice) Flush(enc CommandEncoder) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	we, ok := enc.(*wgpuCommandEncoder)
	if !ok || we.encoder == nil {
		return errForeignResource
	}
	defer func() {
		we.encoder.Release()
		we.encoder = nil
	}()

	commandBuffer, err := we.encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	d.queue.Submit(commandBuffer)
	d.device.Poll(true, nil)

	return nil
}

func (d *wgpuDevice) Queue() *wgpu.Queue {
	return d.queue
}

// release frees the uniform layout, the queue and the device itself.
func (d *wgpuDevice) release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.uniformLayout != nil {
		d.uniformLayout.Release()
		d.uniformLayout = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
}

// --- wgpu resource wrappers ---

type wgpuBuffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
	queue  *wgpu.Queue
}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Write(offset uint64, data []byte) error {
	if b.buffer == nil {
		return fmt.Errorf("buffer %q has been released", b.label)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("write of %d bytes at offset %d overflows buffer %q (%d bytes)", len(data), offset, b.label, b.size)
	}
	b.queue.WriteBuffer(b.buffer, offset, data)
	return nil
}

func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

type wgpuTexture struct {
	label   string
	width   uint32
	height  uint32
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (t *wgpuTexture) Label() string {
	return t.label
}

func (t *wgpuTexture) Width() uint32 {
	return t.width
}

func (t *wgpuTexture) Height() uint32 {
	return t.height
}

func (t *wgpuTexture) Release() {
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

type wgpuUniformBinding struct {
	buffer    *wgpuBuffer
	bindGroup *wgpu.BindGroup
}

func (u *wgpuUniformBinding) Buffer() Buffer {
	return u.buffer
}

func (u *wgpuUniformBinding) Release() {
	if u.bindGroup != nil {
		u.bindGroup.Release()
		u.bindGroup = nil
	}
}

type wgpuCommandEncoder struct {
	encoder *wgpu.CommandEncoder
}

func (e *wgpuCommandEncoder) CopyBuffer(src, dst Buffer, size uint64) error {
	s, ok := src.(*wgpuBuffer)
	if !ok {
		return errForeignResource
	}
	d, ok := dst.(*wgpuBuffer)
	if !ok {
		return errForeignResource
	}
	if size > s.size || size > d.size {
		return fmt.Errorf("copy of %d bytes exceeds %q (%d) or %q (%d)", size, s.label, s.size, d.label, d.size)
	}
	e.encoder.CopyBufferToBuffer(s.buffer, 0, d.buffer, 0, size)
	return nil
}

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetVertexBuffer(buf Buffer) {
	if b, ok := buf.(*wgpuBuffer); ok && b.buffer != nil {
		p.pass.SetVertexBuffer(0, b.buffer, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer) {
	if b, ok := buf.(*wgpuBuffer); ok && b.buffer != nil {
		p.pass.SetIndexBuffer(b.buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetUniformBinding(group uint32, binding UniformBinding) {
	if u, ok := binding.(*wgpuUniformBinding); ok && u.bindGroup != nil {
		p.pass.SetBindGroup(group, u.bindGroup, nil)
	}
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
