package loader

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func ptr[T any](v T) *T {
	return &v
}

func closeTo(a, b float32) bool {
	return mgl32.Abs(a-b) <= 1e-5
}

// docBuilder assembles an in-memory document backed by a single buffer.
type docBuilder struct {
	doc *gltf.Document
	buf []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{}}
}

// view appends raw bytes as a new buffer view and returns its index.
func (b *docBuilder) view(data []byte, stride int) int {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.buf),
		ByteLength: len(data),
		ByteStride: stride,
	})
	b.buf = append(b.buf, data...)
	return len(b.doc.BufferViews) - 1
}

// accessor appends data and an accessor describing count elements of it.
func (b *docBuilder) accessor(data []byte, typ gltf.AccessorType, ct gltf.ComponentType, count int) int {
	bv := b.view(data, 0)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    ptr(bv),
		ComponentType: ct,
		Type:          typ,
		Count:         count,
	})
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) floats(typ gltf.AccessorType, values ...float32) int {
	return b.accessor(floatBytes(values...), typ, gltf.ComponentFloat, len(values)/componentCount(typ))
}

func (b *docBuilder) vec3(vs ...mgl32.Vec3) int {
	var flat []float32
	for _, v := range vs {
		flat = append(flat, v[:]...)
	}
	return b.floats(gltf.AccessorVec3, flat...)
}

func (b *docBuilder) scalars(values ...float32) int {
	return b.floats(gltf.AccessorScalar, values...)
}

func (b *docBuilder) u16Indices(values ...uint16) int {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return b.accessor(data, gltf.AccessorScalar, gltf.ComponentUshort, len(values))
}

func (b *docBuilder) mat4s(ms ...mgl32.Mat4) int {
	var flat []float32
	for _, m := range ms {
		flat = append(flat, m[:]...)
	}
	return b.floats(gltf.AccessorMat4, flat...)
}

// mesh adds a mesh with the given primitives and returns its index.
func (b *docBuilder) mesh(prims ...*gltf.Primitive) int {
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Primitives: prims})
	return len(b.doc.Meshes) - 1
}

// node adds a node and returns its index.
func (b *docBuilder) node(n *gltf.Node) int {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return len(b.doc.Nodes) - 1
}

// triangle adds a position-only indexed triangle primitive.
func (b *docBuilder) triangle() *gltf.Primitive {
	pos := b.vec3(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	idx := b.u16Indices(0, 1, 2)
	return &gltf.Primitive{
		Attributes: map[string]int{gltf.POSITION: pos},
		Indices:    ptr(idx),
	}
}

func (b *docBuilder) finish() *gltf.Document {
	b.doc.Buffers = []*gltf.Buffer{{ByteLength: len(b.buf), Data: b.buf}}
	return b.doc
}

func floatBytes(values ...float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// testLoader returns a loader backed by a fake device and an observed logger.
func testLoader(options ...LoaderBuilderOption) (*loader, *renderertest.Device, *observer.ObservedLogs) {
	dev := renderertest.NewDevice()
	core, logs := observer.New(zapcore.DebugLevel)
	opts := append([]LoaderBuilderOption{WithDevice(dev), WithLogger(zap.New(core))}, options...)
	return NewLoader(BackendTypeGLTF, opts...).(*loader), dev, logs
}

// importDoc runs the whole import pipeline on an in-memory document.
func importDoc(t *testing.T, l *loader, doc *gltf.Document) model.Model {
	t.Helper()
	m, err := l.importDocument("test.gltf", "", doc, 1)
	if err != nil {
		t.Fatalf("importDocument: %v", err)
	}
	return m
}

// builderFor returns a graph builder for doc without running any pass.
func builderFor(doc *gltf.Document, logger *zap.Logger) *graphBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &graphBuilder{
		path:          "test.gltf",
		doc:           doc,
		device:        renderertest.NewDevice(),
		log:           logger,
		decodeWorkers: 1,
		scale:         1,
		nodes:         make(map[int]*model.Node),
	}
}
