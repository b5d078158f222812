package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/go-gl/mathgl/mgl32"
)

const matEpsilon = 1e-4

// closeTo compares with an absolute tolerance; mgl32's relative check is too strict around zero.
func closeTo(a, b float32) bool {
	return mgl32.Abs(a-b) <= matEpsilon
}

func readMat4(t *testing.T, data []byte) mgl32.Mat4 {
	t.Helper()
	if len(data) < 64 {
		t.Fatalf("need 64 bytes, got %d", len(data))
	}
	var m mgl32.Mat4
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return m
}

func newTestMesh(t *testing.T, dev *renderertest.Device, label string) *Mesh {
	t.Helper()
	buf, err := dev.CreateBuffer(renderer.BufferDescriptor{
		Label:  label,
		Usage:  0,
		Memory: renderer.MemoryHostVisible | renderer.MemoryHostCoherent,
		Size:   MeshUniformSize,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	binding, err := dev.CreateUniformBinding(label, buf)
	if err != nil {
		t.Fatalf("CreateUniformBinding: %v", err)
	}
	return &Mesh{Name: label, UniformBuffer: buf, Binding: binding}
}

func attach(parent, child *Node) {
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

func TestLocalMatrixOrder(t *testing.T) {
	n := NewNode(0, "n")
	n.Translation = mgl32.Vec3{1, 2, 3}
	n.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	n.Scale = mgl32.Vec3{2, 2, 2}
	n.Matrix = mgl32.Translate3D(1, 0, 0)

	want := mgl32.Translate3D(1, 2, 3).
		Mul4(n.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(2, 2, 2)).
		Mul4(mgl32.Translate3D(1, 0, 0))
	if got := n.LocalMatrix(); !got.ApproxFuncEqual(want, closeTo) {
		t.Fatalf("LocalMatrix = %v, want %v", got, want)
	}

	// The matrix applies first: origin -> (1,0,0) -> scaled (2,0,0) -> rotated (0,2,0) -> translated (1,4,3).
	p := n.LocalMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !p.ApproxFuncEqual(mgl32.Vec4{1, 4, 3, 1}, closeTo) {
		t.Errorf("origin maps to %v", p)
	}
}

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(7, "seven")
	if !n.LocalMatrix().ApproxFuncEqual(mgl32.Ident4(), closeTo) {
		t.Errorf("default local matrix is not identity: %v", n.LocalMatrix())
	}
	if n.SkinIndex != -1 {
		t.Errorf("SkinIndex = %d, want -1", n.SkinIndex)
	}
}

func TestWorldMatrixAssociativity(t *testing.T) {
	transforms := []struct {
		t mgl32.Vec3
		r mgl32.Quat
		s mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{0, 2, 0}, mgl32.QuatRotate(1.1, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{2, 2, 2}},
		{mgl32.Vec3{0, 0, -3}, mgl32.QuatRotate(-0.7, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0.5, 1, 2}},
		{mgl32.Vec3{4, 1, 1}, mgl32.QuatIdent(), mgl32.Vec3{1, 3, 1}},
		{mgl32.Vec3{-1, -1, 0}, mgl32.QuatRotate(2.0, mgl32.Vec3{1, 1, 0}.Normalize()), mgl32.Vec3{1, 1, 1}},
	}

	for depth := 0; depth < len(transforms); depth++ {
		var chain []*Node
		for i := 0; i <= depth; i++ {
			n := NewNode(i, "")
			n.Translation = transforms[i].t
			n.Rotation = transforms[i].r
			n.Scale = transforms[i].s
			if i > 0 {
				attach(chain[i-1], n)
			}
			chain = append(chain, n)
		}

		want := mgl32.Ident4()
		for _, n := range chain {
			want = want.Mul4(n.LocalMatrix())
		}
		leaf := chain[depth]
		if got := leaf.WorldMatrix(); !got.ApproxFuncEqual(want, closeTo) {
			t.Errorf("depth %d: WorldMatrix = %v, want %v", depth, got, want)
		}
		if depth == 0 && !leaf.WorldMatrix().ApproxFuncEqual(leaf.LocalMatrix(), closeTo) {
			t.Errorf("root world matrix differs from its local matrix")
		}
		if depth > 0 {
			viaParent := leaf.Parent.WorldMatrix().Mul4(leaf.LocalMatrix())
			if !leaf.WorldMatrix().ApproxFuncEqual(viaParent, closeTo) {
				t.Errorf("depth %d: world != parent world * local", depth)
			}
		}
	}
}

func TestUpdateRecursiveStaticMesh(t *testing.T) {
	dev := renderertest.NewDevice()
	root := NewNode(0, "root")
	root.Translation = mgl32.Vec3{0, 5, 0}
	child := NewNode(1, "child")
	child.Translation = mgl32.Vec3{1, 0, 0}
	child.Mesh = newTestMesh(t, dev, "child uniform")
	attach(root, child)

	if err := root.UpdateRecursive(); err != nil {
		t.Fatalf("UpdateRecursive: %v", err)
	}

	buf := dev.BufferByLabel("child uniform")
	if buf.Writes != 1 {
		t.Fatalf("expected one write, got %d", buf.Writes)
	}
	want := mgl32.Translate3D(1, 5, 0)
	if got := readMat4(t, buf.Data); !got.ApproxFuncEqual(want, closeTo) {
		t.Errorf("uploaded matrix = %v, want %v", got, want)
	}
	for i, b := range buf.Data[MeshMatrixSize:] {
		if b != 0 {
			t.Fatalf("static update wrote past the model matrix at byte %d", MeshMatrixSize+i)
		}
	}
}

func TestUpdateRecursiveSkinnedMesh(t *testing.T) {
	dev := renderertest.NewDevice()

	root := NewNode(0, "root")
	meshNode := NewNode(1, "mesh")
	meshNode.Translation = mgl32.Vec3{0, 0, 2}
	meshNode.Mesh = newTestMesh(t, dev, "skinned uniform")
	attach(root, meshNode)

	jointA := NewNode(2, "a")
	jointA.Translation = mgl32.Vec3{1, 0, 0}
	jointB := NewNode(3, "b")
	jointB.Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	attach(root, jointA)
	attach(jointA, jointB)

	ibmA := mgl32.Translate3D(-1, 0, 0)
	ibmB := mgl32.Scale3D(2, 2, 2)
	meshNode.Skin = &Skin{
		Joints:              []*Node{jointA, jointB},
		InverseBindMatrices: []mgl32.Mat4{ibmA, ibmB},
	}

	if err := root.UpdateRecursive(); err != nil {
		t.Fatalf("UpdateRecursive: %v", err)
	}

	inv := meshNode.WorldMatrix().Inv()
	wantA := inv.Mul4(jointA.WorldMatrix()).Mul4(ibmA)
	wantB := inv.Mul4(jointB.WorldMatrix()).Mul4(ibmB)

	u := meshNode.Mesh.Uniform
	if u.JointCount != 2 {
		t.Errorf("JointCount = %v, want 2", u.JointCount)
	}
	if !u.JointMatrix[0].ApproxFuncEqual(wantA, closeTo) || !u.JointMatrix[1].ApproxFuncEqual(wantB, closeTo) {
		t.Errorf("joint matrices = %v, %v", u.JointMatrix[0], u.JointMatrix[1])
	}

	buf := dev.BufferByLabel("skinned uniform")
	if got := readMat4(t, buf.Data[MeshMatrixSize+64:]); !got.ApproxFuncEqual(wantB, closeTo) {
		t.Errorf("uploaded joint 1 = %v, want %v", got, wantB)
	}
	countOff := MeshMatrixSize + MaxJoints*64
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[countOff:])); got != 2 {
		t.Errorf("uploaded joint count = %v, want 2", got)
	}
}

func TestUpdateRecursiveCapsJoints(t *testing.T) {
	dev := renderertest.NewDevice()
	root := NewNode(0, "root")
	root.Mesh = newTestMesh(t, dev, "capped uniform")

	skin := &Skin{}
	for i := 0; i < MaxJoints+5; i++ {
		j := NewNode(i+1, "")
		attach(root, j)
		skin.Joints = append(skin.Joints, j)
		skin.InverseBindMatrices = append(skin.InverseBindMatrices, mgl32.Ident4())
	}
	root.Skin = skin

	if err := root.UpdateRecursive(); err != nil {
		t.Fatalf("UpdateRecursive: %v", err)
	}
	if root.Mesh.Uniform.JointCount != MaxJoints {
		t.Errorf("JointCount = %v, want %d", root.Mesh.Uniform.JointCount, MaxJoints)
	}
}

func TestUpdateRecursiveReachesEveryMesh(t *testing.T) {
	dev := renderertest.NewDevice()
	root := NewNode(0, "root")
	mid := NewNode(1, "mid")
	leaf := NewNode(2, "leaf")
	leaf.Mesh = newTestMesh(t, dev, "leaf uniform")
	attach(root, mid)
	attach(mid, leaf)

	if err := root.UpdateRecursive(); err != nil {
		t.Fatalf("UpdateRecursive: %v", err)
	}
	if dev.BufferByLabel("leaf uniform").Writes != 1 {
		t.Error("mesh below a mesh-less node was not updated")
	}

	// A failed write is reported but does not stop the traversal.
	mid.Mesh = newTestMesh(t, dev, "mid uniform")
	dev.BufferByLabel("mid uniform").Release()
	if err := root.UpdateRecursive(); err == nil {
		t.Error("expected the released buffer write to fail")
	}
	if dev.BufferByLabel("leaf uniform").Writes != 2 {
		t.Error("traversal stopped at the failing mesh")
	}
}
