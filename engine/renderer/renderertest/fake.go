// Package renderertest provides an in-memory renderer.Device and renderer.RenderPass for tests.
// Buffers keep their contents on the host so tests can inspect what would have reached the GPU.
package renderertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

// Copy records one CopyBuffer call.
type Copy struct {
	Src, Dst *Buffer
	Size     uint64
}

// Device is a headless renderer.Device.
type Device struct {
	mu *sync.Mutex

	// FailBufferLabel makes CreateBuffer fail for the buffer with this label.
	FailBufferLabel string
	// FailTextures makes CreateTexture fail.
	FailTextures bool
	// FailFlush makes Flush fail.
	FailFlush bool

	Buffers  []*Buffer
	Textures []*Texture
	Bindings []*Binding
	Copies   []Copy
	Flushes  int
}

var _ renderer.Device = &Device{}

// NewDevice creates an empty fake device.
func NewDevice() *Device {
	return &Device{mu: &sync.Mutex{}}
}

func (d *Device) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailBufferLabel != "" && d.FailBufferLabel == desc.Label {
		return nil, ErrInjected
	}
	if desc.Size == 0 {
		return nil, errors.New("buffer size must be greater than zero")
	}
	if len(desc.Data) > 0 && !desc.Memory.Has(renderer.MemoryHostVisible) {
		return nil, fmt.Errorf("buffer %q: initial data requires host-visible memory", desc.Label)
	}

	b := &Buffer{
		label:  desc.Label,
		Usage:  desc.Usage,
		Memory: desc.Memory,
		Data:   make([]byte, desc.Size),
	}
	copy(b.Data, desc.Data)
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateTexture(label string, pixels common.TextureStagingData, sampler common.SamplerStagingData) (renderer.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailTextures {
		return nil, ErrInjected
	}
	if !pixels.Valid() {
		return nil, fmt.Errorf("texture %q: pixel data does not match %dx%d", label, pixels.Width, pixels.Height)
	}

	t := &Texture{label: label, Pixels: pixels, Sampler: sampler}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) CreateUniformBinding(label string, buf renderer.Buffer) (renderer.UniformBinding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := buf.(*Buffer)
	if !ok {
		return nil, errors.New("buffer was not created by the fake device")
	}
	binding := &Binding{Label: label, buffer: b}
	d.Bindings = append(d.Bindings, binding)
	return binding, nil
}

func (d *Device) BeginCommands(label string) (renderer.CommandEncoder, error) {
	return &Encoder{Label: label}, nil
}

func (d *Device) Flush(enc renderer.CommandEncoder) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := enc.(*Encoder)
	if !ok {
		return errors.New("encoder was not created by the fake device")
	}
	if d.FailFlush {
		return ErrInjected
	}
	for _, c := range e.copies {
		copy(c.Dst.Data[:c.Size], c.Src.Data[:c.Size])
	}
	d.Copies = append(d.Copies, e.copies...)
	d.Flushes++
	return nil
}

func (d *Device) Queue() *wgpu.Queue {
	return nil
}

// BufferByLabel returns the most recently created buffer with the given label.
func (d *Device) BufferByLabel(label string) *Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(d.Buffers) - 1; i >= 0; i-- {
		if d.Buffers[i].label == label {
			return d.Buffers[i]
		}
	}
	return nil
}

// Live returns the number of buffers that have not been released.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, b := range d.Buffers {
		if !b.Released {
			n++
		}
	}
	return n
}

// Buffer is a host-memory renderer.Buffer.
type Buffer struct {
	label    string
	Usage    wgpu.BufferUsage
	Memory   renderer.MemoryProperty
	Data     []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string {
	return b.label
}

func (b *Buffer) Size() uint64 {
	return uint64(len(b.Data))
}

func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.Released {
		return fmt.Errorf("buffer %q has been released", b.label)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("write of %d bytes at offset %d overflows buffer %q", len(data), offset, b.label)
	}
	copy(b.Data[offset:], data)
	b.Writes++
	return nil
}

func (b *Buffer) Release() {
	b.Released = true
}

// Texture is a host-memory renderer.Texture.
type Texture struct {
	label    string
	Pixels   common.TextureStagingData
	Sampler  common.SamplerStagingData
	Released bool
}

func (t *Texture) Label() string {
	return t.label
}

func (t *Texture) Width() uint32 {
	return t.Pixels.Width
}

func (t *Texture) Height() uint32 {
	return t.Pixels.Height
}

func (t *Texture) Release() {
	t.Released = true
}

// Binding is a fake renderer.UniformBinding.
type Binding struct {
	Label    string
	buffer   *Buffer
	Released bool
}

func (b *Binding) Buffer() renderer.Buffer {
	return b.buffer
}

func (b *Binding) Release() {
	b.Released = true
}

// Encoder records copies until the device flushes it.
type Encoder struct {
	Label  string
	copies []Copy
}

func (e *Encoder) CopyBuffer(src, dst renderer.Buffer, size uint64) error {
	s, ok := src.(*Buffer)
	if !ok {
		return errors.New("source buffer was not created by the fake device")
	}
	d, ok := dst.(*Buffer)
	if !ok {
		return errors.New("destination buffer was not created by the fake device")
	}
	if size > s.Size() || size > d.Size() {
		return fmt.Errorf("copy of %d bytes exceeds %q or %q", size, s.label, d.label)
	}
	e.copies = append(e.copies, Copy{Src: s, Dst: d, Size: size})
	return nil
}

// Draw records one DrawIndexed call together with the state bound at the time.
type Draw struct {
	IndexCount, InstanceCount, FirstIndex uint32
	BaseVertex                            int32
	FirstInstance                         uint32
	Binding                               renderer.UniformBinding
}

// RenderPass records the commands issued against it.
type RenderPass struct {
	VertexBuffer      renderer.Buffer
	IndexBuffer       renderer.Buffer
	VertexBufferBinds int
	IndexBufferBinds  int
	Draws             []Draw

	bound renderer.UniformBinding
}

var _ renderer.RenderPass = &RenderPass{}

func (p *RenderPass) SetVertexBuffer(buf renderer.Buffer) {
	p.VertexBuffer = buf
	p.VertexBufferBinds++
}

func (p *RenderPass) SetIndexBuffer(buf renderer.Buffer) {
	p.IndexBuffer = buf
	p.IndexBufferBinds++
}

func (p *RenderPass) SetUniformBinding(group uint32, binding renderer.UniformBinding) {
	p.bound = binding
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Draws = append(p.Draws, Draw{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
		Binding:       p.bound,
	})
}
