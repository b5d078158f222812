package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDrawBindsGeometryOnceAndDrawsEveryPrimitive(t *testing.T) {
	dev := renderertest.NewDevice()
	geo, err := renderer.UploadGeometry(dev, make([]byte, VertexSize*3), make([]byte, 4*9), 9)
	if err != nil {
		t.Fatalf("UploadGeometry: %v", err)
	}

	root := NewNode(0, "root")
	root.Mesh = newTestMesh(t, dev, "root uniform")
	root.Mesh.Primitives = []*Primitive{
		{FirstIndex: 0, IndexCount: 3},
		{FirstIndex: 3, IndexCount: 0},
	}
	child := NewNode(1, "child")
	child.Mesh = newTestMesh(t, dev, "child uniform")
	child.Mesh.Primitives = []*Primitive{{FirstIndex: 3, IndexCount: 6}}
	attach(root, child)
	bare := NewNode(2, "bare")

	m := NewModel(
		WithRoots([]*Node{root, bare}),
		WithNodes(map[int]*Node{0: root, 1: child, 2: bare}),
		WithGeometry(geo),
	)

	pass := &renderertest.RenderPass{}
	m.Draw(pass)

	if pass.VertexBufferBinds != 1 || pass.IndexBufferBinds != 1 {
		t.Errorf("geometry bound %d/%d times, want once each", pass.VertexBufferBinds, pass.IndexBufferBinds)
	}
	if pass.VertexBuffer != geo.Vertex || pass.IndexBuffer != geo.Index {
		t.Error("the model's shared buffers were not bound")
	}
	if len(pass.Draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(pass.Draws))
	}

	first, second := pass.Draws[0], pass.Draws[1]
	if first.IndexCount != 3 || first.FirstIndex != 0 || first.InstanceCount != 1 || first.Binding != root.Mesh.Binding {
		t.Errorf("unexpected first draw %+v", first)
	}
	if second.IndexCount != 6 || second.FirstIndex != 3 || second.Binding != child.Mesh.Binding {
		t.Errorf("unexpected second draw %+v", second)
	}
}

func TestDrawVisibleCullsStaticMeshes(t *testing.T) {
	dev := renderertest.NewDevice()
	geo, err := renderer.UploadGeometry(dev, make([]byte, VertexSize*3), make([]byte, 4*9), 9)
	if err != nil {
		t.Fatalf("UploadGeometry: %v", err)
	}
	unitBox := Bounds{}.Extend(mgl32.Vec3{-1, -1, -1}).Extend(mgl32.Vec3{1, 1, 1})

	ahead := NewNode(0, "ahead")
	ahead.Translation = mgl32.Vec3{0, 0, -10}
	ahead.Mesh = newTestMesh(t, dev, "ahead uniform")
	ahead.Mesh.Primitives = []*Primitive{{IndexCount: 3, Bounds: unitBox}}

	behind := NewNode(1, "behind")
	behind.Translation = mgl32.Vec3{0, 0, 10}
	behind.Mesh = newTestMesh(t, dev, "behind uniform")
	behind.Mesh.Primitives = []*Primitive{{IndexCount: 6, Bounds: unitBox}}

	skinned := NewNode(2, "skinned")
	skinned.Translation = mgl32.Vec3{0, 0, 10}
	skinned.Mesh = newTestMesh(t, dev, "skinned uniform")
	skinned.Mesh.Primitives = []*Primitive{{IndexCount: 9, Bounds: unitBox}}
	skinned.Skin = &Skin{Joints: []*Node{skinned}}

	m := NewModel(
		WithRoots([]*Node{ahead, behind, skinned}),
		WithNodes(map[int]*Node{0: ahead, 1: behind, 2: skinned}),
		WithGeometry(geo),
	)
	if err := m.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	frustum := common.ExtractFrustum(common.Perspective(mgl32.DegToRad(90), 1, 0.1, 100))
	pass := &renderertest.RenderPass{}
	m.DrawVisible(pass, frustum)

	if len(pass.Draws) != 2 {
		t.Fatalf("got %d draws, want the mesh ahead and the skinned mesh", len(pass.Draws))
	}
	if pass.Draws[0].IndexCount != 3 || pass.Draws[1].IndexCount != 9 {
		t.Errorf("unexpected draws %+v", pass.Draws)
	}

	all := &renderertest.RenderPass{}
	m.Draw(all)
	if len(all.Draws) != 3 {
		t.Errorf("Draw must not cull, got %d draws", len(all.Draws))
	}
}

func TestDrawWithoutGeometryIsNoop(t *testing.T) {
	m := NewModel(WithRoots([]*Node{NewNode(0, "root")}))
	pass := &renderertest.RenderPass{}
	m.Draw(pass)
	if pass.VertexBufferBinds != 0 || len(pass.Draws) != 0 {
		t.Error("empty model recorded commands")
	}
}

func TestModelRegistryAndDefaults(t *testing.T) {
	nodes := map[int]*Node{4: NewNode(4, "d"), 1: NewNode(1, "b"), 2: NewNode(2, "c")}
	def := NewDefaultMaterial()
	m := NewModel(
		WithName("scene"),
		WithNodes(nodes),
		WithMaterials([]*Material{{Name: "a"}, def}),
		WithAnimations([]*Animation{{Name: "walk"}, {Name: "run"}}),
	)

	if m.Scale() != 1 {
		t.Errorf("default scale = %v", m.Scale())
	}
	if m.NodeByIndex(4).Name != "d" || m.NodeByIndex(3) != nil {
		t.Error("registry lookup failed")
	}
	all := m.AllNodes()
	if len(all) != 3 || all[0].Index != 1 || all[2].Index != 4 {
		t.Errorf("AllNodes not ordered by index: %v", all)
	}
	if m.DefaultMaterial() != def {
		t.Error("default material is not the last material")
	}
	if m.AnimationIndex("run") != 1 || m.AnimationIndex("swim") != -1 {
		t.Error("AnimationIndex lookup failed")
	}
	if err := m.UpdateAnimation(5, 0); err == nil {
		t.Error("expected out of range animation error")
	}
}

func TestModelRelease(t *testing.T) {
	dev := renderertest.NewDevice()
	geo, err := renderer.UploadGeometry(dev, make([]byte, VertexSize), make([]byte, 12), 3)
	if err != nil {
		t.Fatalf("UploadGeometry: %v", err)
	}
	n := NewNode(0, "n")
	n.Mesh = newTestMesh(t, dev, "uniform")

	m := NewModel(WithNodes(map[int]*Node{0: n}), WithRoots([]*Node{n}), WithGeometry(geo))
	m.Release()

	if dev.Live() != 0 {
		t.Errorf("%d buffers still alive after Release", dev.Live())
	}
	if !dev.Bindings[0].Released {
		t.Error("uniform binding not released")
	}
}

func TestVertexMarshalLayout(t *testing.T) {
	v := Vertex{
		Pos:     [3]float32{1, 2, 3},
		Normal:  [3]float32{4, 5, 6},
		UV0:     [2]float32{7, 8},
		UV1:     [2]float32{9, 10},
		Joint0:  [4]float32{11, 12, 13, 14},
		Weight0: [4]float32{15, 16, 17, 18},
	}
	out := MarshalVertices([]Vertex{v, v})
	if len(out) != 2*VertexSize {
		t.Fatalf("len = %d, want %d", len(out), 2*VertexSize)
	}
	for i := 0; i < 18; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[VertexSize+i*4:]))
		if got != float32(i+1) {
			t.Errorf("float %d = %v, want %v", i, got, i+1)
		}
	}

	layout := VertexLayout()
	if layout.ArrayStride != VertexSize || len(layout.Attributes) != 6 {
		t.Errorf("unexpected layout %+v", layout)
	}
	if last := layout.Attributes[5]; last.Offset != 56 || last.ShaderLocation != 5 {
		t.Errorf("weights attribute = %+v", last)
	}
}

func TestMeshUniformMarshal(t *testing.T) {
	var u MeshUniformBlock
	u.Matrix = mgl32.Translate3D(1, 2, 3)
	u.JointMatrix[MaxJoints-1] = mgl32.Scale3D(4, 4, 4)
	u.JointCount = 3

	buf := make([]byte, MeshUniformSize)
	for i := range buf {
		buf[i] = 0xff
	}
	u.Marshal(buf)

	if got := readMat4(t, buf); got != u.Matrix {
		t.Errorf("matrix = %v", got)
	}
	if got := readMat4(t, buf[MeshMatrixSize+(MaxJoints-1)*64:]); got != u.JointMatrix[MaxJoints-1] {
		t.Errorf("last joint = %v", got)
	}
	countOff := MeshMatrixSize + MaxJoints*64
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[countOff:])); got != 3 {
		t.Errorf("joint count = %v", got)
	}
	for _, b := range buf[countOff+4:] {
		if b != 0 {
			t.Fatal("padding was not cleared")
		}
	}
}

func TestMarshalIndices(t *testing.T) {
	out := MarshalIndices([]uint32{1, 65536})
	if binary.LittleEndian.Uint32(out[0:]) != 1 || binary.LittleEndian.Uint32(out[4:]) != 65536 {
		t.Errorf("unexpected bytes %v", out)
	}
}
