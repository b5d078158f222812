package renderer_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestUploadGeometryCopiesThroughStaging(t *testing.T) {
	dev := renderertest.NewDevice()
	vertices := bytes.Repeat([]byte{1, 2, 3, 4}, 16)
	indices := []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}

	geo, err := renderer.UploadGeometry(dev, vertices, indices, 3)
	if err != nil {
		t.Fatalf("UploadGeometry: %v", err)
	}

	if dev.Flushes != 1 {
		t.Errorf("expected a single submission, got %d", dev.Flushes)
	}
	if len(dev.Copies) != 2 {
		t.Fatalf("expected 2 copies, got %d", len(dev.Copies))
	}

	for _, name := range []string{"vertex staging buffer", "index staging buffer"} {
		s := dev.BufferByLabel(name)
		if s == nil {
			t.Fatalf("missing %s", name)
		}
		if !s.Released {
			t.Errorf("%s was not released", name)
		}
		if !s.Memory.Has(renderer.MemoryHostVisible) || s.Usage&wgpu.BufferUsageCopySrc == 0 {
			t.Errorf("%s has wrong memory %v / usage %v", name, s.Memory, s.Usage)
		}
	}

	vb := geo.Vertex.(*renderertest.Buffer)
	ib := geo.Index.(*renderertest.Buffer)
	if vb.Released || ib.Released {
		t.Fatal("destination buffers must stay alive")
	}
	if !vb.Memory.Has(renderer.MemoryDeviceLocal) || vb.Usage&wgpu.BufferUsageVertex == 0 {
		t.Errorf("vertex buffer has wrong memory %v / usage %v", vb.Memory, vb.Usage)
	}
	if ib.Usage&wgpu.BufferUsageIndex == 0 {
		t.Errorf("index buffer has wrong usage %v", ib.Usage)
	}
	if !bytes.Equal(vb.Data, vertices) {
		t.Error("vertex bytes were not copied to the destination buffer")
	}
	if !bytes.Equal(ib.Data, indices) {
		t.Error("index bytes were not copied to the destination buffer")
	}
	if geo.IndexCount != 3 || geo.Empty() {
		t.Errorf("unexpected geometry state: count=%d empty=%v", geo.IndexCount, geo.Empty())
	}

	geo.Release()
	if !vb.Released || !ib.Released {
		t.Error("Release did not free the destination buffers")
	}
}

func TestUploadGeometryEmpty(t *testing.T) {
	dev := renderertest.NewDevice()

	geo, err := renderer.UploadGeometry(dev, nil, nil, 0)
	if err != nil {
		t.Fatalf("UploadGeometry: %v", err)
	}
	if !geo.Empty() {
		t.Error("expected empty geometry")
	}
	if len(dev.Buffers) != 0 || dev.Flushes != 0 {
		t.Errorf("empty geometry created %d buffers and %d submissions", len(dev.Buffers), dev.Flushes)
	}
}

func TestUploadGeometryFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*renderertest.Device)
		resource string
	}{
		{
			name:     "staging buffer",
			setup:    func(d *renderertest.Device) { d.FailBufferLabel = "index staging buffer" },
			resource: "index staging buffer",
		},
		{
			name:     "destination buffer",
			setup:    func(d *renderertest.Device) { d.FailBufferLabel = "vertex buffer" },
			resource: "vertex buffer",
		},
		{
			name:     "submit",
			setup:    func(d *renderertest.Device) { d.FailFlush = true },
			resource: "geometry upload submit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := renderertest.NewDevice()
			tt.setup(dev)

			geo, err := renderer.UploadGeometry(dev, make([]byte, 64), make([]byte, 12), 3)
			if geo != nil {
				t.Error("expected no geometry on failure")
			}

			var gpuErr *common.GPUResourceError
			if !errors.As(err, &gpuErr) {
				t.Fatalf("expected GPUResourceError, got %v", err)
			}
			if gpuErr.Resource != tt.resource {
				t.Errorf("resource = %q, want %q", gpuErr.Resource, tt.resource)
			}
			if dev.Live() != 0 {
				t.Errorf("%d buffers leaked", dev.Live())
			}
		})
	}
}

func TestUploadGeometryNoDevice(t *testing.T) {
	_, err := renderer.UploadGeometry(nil, []byte{0, 0, 0, 0}, nil, 0)
	if !errors.Is(err, common.ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}
