package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// accessorView is a strided window over a glTF buffer. It never copies the source bytes.
type accessorView struct {
	// data starts at the accessor's first element.
	data          []byte
	stride        int
	count         int
	componentType gltf.ComponentType
	accessorType  gltf.AccessorType
	normalized    bool
}

// resolveAccessor builds a zero-copy view over the accessor at index.
// The view is bounds-checked against the underlying buffer; sparse accessors and
// accessors without a buffer view are rejected.
//
// Parameters:
//   - doc: the glTF document
//   - index: the accessor index
//
// Returns:
//   - accessorView: the view
//   - error: wraps common.ErrAccessorOutOfBounds when any reference does not resolve
func resolveAccessor(doc *gltf.Document, index int) (accessorView, error) {
	if index < 0 || index >= len(doc.Accessors) || doc.Accessors[index] == nil {
		return accessorView{}, fmt.Errorf("accessor %d: %w", index, common.ErrAccessorOutOfBounds)
	}
	acc := doc.Accessors[index]
	if acc.Sparse != nil {
		return accessorView{}, fmt.Errorf("accessor %d: sparse accessors are not supported", index)
	}
	if acc.BufferView == nil {
		return accessorView{}, fmt.Errorf("accessor %d has no buffer view: %w", index, common.ErrAccessorOutOfBounds)
	}

	bvIndex := *acc.BufferView
	if bvIndex < 0 || bvIndex >= len(doc.BufferViews) || doc.BufferViews[bvIndex] == nil {
		return accessorView{}, fmt.Errorf("accessor %d buffer view %d: %w", index, bvIndex, common.ErrAccessorOutOfBounds)
	}
	bv := doc.BufferViews[bvIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return accessorView{}, fmt.Errorf("buffer view %d buffer %d: %w", bvIndex, bv.Buffer, common.ErrAccessorOutOfBounds)
	}
	buf := doc.Buffers[bv.Buffer]

	elemSize := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elemSize == 0 {
		return accessorView{}, fmt.Errorf("accessor %d: unknown layout %v/%v", index, acc.Type, acc.ComponentType)
	}
	stride := elemSize
	if bv.ByteStride > 0 {
		stride = bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if start < 0 || start > len(buf.Data) {
		return accessorView{}, fmt.Errorf("accessor %d starts at %d past buffer length %d: %w", index, start, len(buf.Data), common.ErrAccessorOutOfBounds)
	}
	if acc.Count < 0 {
		return accessorView{}, fmt.Errorf("accessor %d has negative count %d: %w", index, acc.Count, common.ErrAccessorOutOfBounds)
	}
	// Checked as a quotient so huge counts cannot overflow.
	if acc.Count > 0 {
		room := len(buf.Data) - start - elemSize
		if room < 0 || acc.Count-1 > room/stride {
			return accessorView{}, fmt.Errorf("accessor %d: %d elements of stride %d do not fit in %d bytes after offset %d: %w",
				index, acc.Count, stride, len(buf.Data), start, common.ErrAccessorOutOfBounds)
		}
	}

	return accessorView{
		data:          buf.Data[start:],
		stride:        stride,
		count:         acc.Count,
		componentType: acc.ComponentType,
		accessorType:  acc.Type,
		normalized:    acc.Normalized,
	}, nil
}

// Float reads component c of element i as a float. Normalized integers are mapped to [0,1] or [-1,1].
func (v accessorView) Float(i, c int) float32 {
	off := i*v.stride + c*componentSize(v.componentType)
	switch v.componentType {
	case gltf.ComponentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(v.data[off:]))
	case gltf.ComponentUbyte:
		x := float32(v.data[off])
		if v.normalized {
			return x / 255
		}
		return x
	case gltf.ComponentByte:
		x := float32(int8(v.data[off]))
		if v.normalized {
			return max(x/127, -1)
		}
		return x
	case gltf.ComponentUshort:
		x := float32(binary.LittleEndian.Uint16(v.data[off:]))
		if v.normalized {
			return x / 65535
		}
		return x
	case gltf.ComponentShort:
		x := float32(int16(binary.LittleEndian.Uint16(v.data[off:])))
		if v.normalized {
			return max(x/32767, -1)
		}
		return x
	case gltf.ComponentUint:
		return float32(binary.LittleEndian.Uint32(v.data[off:]))
	}
	return 0
}

// Uint reads component c of element i as an unsigned integer.
func (v accessorView) Uint(i, c int) uint32 {
	off := i*v.stride + c*componentSize(v.componentType)
	switch v.componentType {
	case gltf.ComponentUbyte, gltf.ComponentByte:
		return uint32(v.data[off])
	case gltf.ComponentUshort, gltf.ComponentShort:
		return uint32(binary.LittleEndian.Uint16(v.data[off:]))
	case gltf.ComponentUint:
		return binary.LittleEndian.Uint32(v.data[off:])
	case gltf.ComponentFloat:
		return uint32(math.Float32frombits(binary.LittleEndian.Uint32(v.data[off:])))
	}
	return 0
}

func (v accessorView) Vec2(i int) mgl32.Vec2 {
	return mgl32.Vec2{v.Float(i, 0), v.Float(i, 1)}
}

func (v accessorView) Vec3(i int) mgl32.Vec3 {
	return mgl32.Vec3{v.Float(i, 0), v.Float(i, 1), v.Float(i, 2)}
}

func (v accessorView) Vec4(i int) mgl32.Vec4 {
	return mgl32.Vec4{v.Float(i, 0), v.Float(i, 1), v.Float(i, 2), v.Float(i, 3)}
}

// Mat4 reads element i as a column-major 4x4 float matrix.
func (v accessorView) Mat4(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	for c := range m {
		m[c] = v.Float(i, c)
	}
	return m
}

// is reports whether the view has the given accessor type and one of the listed component types.
func (v accessorView) is(typ gltf.AccessorType, components ...gltf.ComponentType) bool {
	if v.accessorType != typ {
		return false
	}
	for _, c := range components {
		if v.componentType == c {
			return true
		}
	}
	return false
}

func errUnexpectedLayout(v accessorView) error {
	return fmt.Errorf("unexpected accessor layout %v/%v", v.accessorType, v.componentType)
}

// resolveAttribute looks up a vertex attribute of a primitive.
// An attribute that is missing or whose layout is not one of the accepted ones is reported
// as absent. Only a reference that fails to resolve is an error.
//
// Parameters:
//   - doc: the glTF document
//   - prim: the primitive
//   - name: the attribute semantic, e.g. gltf.POSITION
//   - typ: the required accessor type
//   - components: the accepted component types
//
// Returns:
//   - accessorView: the attribute data when present
//   - bool: true when the attribute is present and supported
//   - error: the resolution failure, if any
func resolveAttribute(doc *gltf.Document, prim *gltf.Primitive, name string, typ gltf.AccessorType, components ...gltf.ComponentType) (accessorView, bool, error) {
	index, ok := prim.Attributes[name]
	if !ok {
		return accessorView{}, false, nil
	}
	view, err := resolveAccessor(doc, index)
	if err != nil {
		return accessorView{}, false, fmt.Errorf("attribute %s: %w", name, err)
	}
	if !view.is(typ, components...) {
		return accessorView{}, false, nil
	}
	return view, true, nil
}

// readIndices appends the indices of the accessor at index to out, each offset by vertexStart.
//
// Parameters:
//   - doc: the glTF document
//   - index: the index accessor
//   - vertexStart: the number of vertices already emitted before this primitive
//   - out: the destination slice
//
// Returns:
//   - []uint32: out with the indices appended
//   - error: wraps common.ErrUnsupportedIndexType for anything but u8/u16/u32 components
func readIndices(doc *gltf.Document, index int, vertexStart uint32, out []uint32) ([]uint32, error) {
	view, err := resolveAccessor(doc, index)
	if err != nil {
		return out, err
	}
	switch view.componentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return out, fmt.Errorf("index accessor %d component type %v: %w", index, view.componentType, common.ErrUnsupportedIndexType)
	}
	for i := 0; i < view.count; i++ {
		out = append(out, view.Uint(i, 0)+vertexStart)
	}
	return out, nil
}

// --- Helper Functions ---

// componentSize returns the byte size of a component type.
func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	default:
		return 0
	}
}

// componentCount returns the number of components of an accessor type.
func componentCount(at gltf.AccessorType) int {
	switch at {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	default:
		return 0
	}
}
