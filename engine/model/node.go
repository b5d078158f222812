package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

// Node is one element of a model's scene hierarchy.
// Children are owned by their parent; Parent and Skin are back references.
type Node struct {
	// Index is the node's index in the source document.
	Index int
	Name  string

	Parent   *Node
	Children []*Node

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	// Matrix is applied before scale, rotation and translation. Identity when the source has none.
	Matrix mgl32.Mat4

	Mesh *Mesh

	// SkinIndex is the source skin index, -1 when the node is not skinned.
	SkinIndex int
	// Skin is resolved from SkinIndex once all skins are imported.
	Skin *Skin
}

// NewNode returns a node with an identity transform and no skin.
//
// Parameters:
//   - index: the source node index
//   - name: the source node name
//
// Returns:
//   - *Node: the node
func NewNode(index int, name string) *Node {
	return &Node{
		Index:     index,
		Name:      name,
		Rotation:  mgl32.QuatIdent(),
		Scale:     mgl32.Vec3{1, 1, 1},
		Matrix:    mgl32.Ident4(),
		SkinIndex: -1,
	}
}

// LocalMatrix returns T * R * S * M for this node alone.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	return common.ComposeTRS(n.Translation, n.Rotation, n.Scale, n.Matrix)
}

// WorldMatrix returns the product of every ancestor's local matrix and this node's, root first.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// UpdateRecursive refreshes the uniform block of this node's mesh and of every descendant's mesh.
// A static mesh receives only its world matrix. A skinned mesh also receives
// inverse(world) * jointWorld * inverseBind for up to MaxJoints joints and the joint count.
// Write failures do not stop the traversal; they are collected and returned together.
//
// Returns:
//   - error: the combined write errors, or nil
func (n *Node) UpdateRecursive() error {
	var err error
	if n.Mesh != nil {
		err = multierr.Append(err, n.updateMesh())
	}
	for _, child := range n.Children {
		err = multierr.Append(err, child.UpdateRecursive())
	}
	return err
}

func (n *Node) updateMesh() error {
	world := n.WorldMatrix()
	n.Mesh.Uniform.Matrix = world

	if n.Skin == nil {
		if err := n.Mesh.writeMatrix(); err != nil {
			return fmt.Errorf("node %d %q: write model matrix: %w", n.Index, n.Name, err)
		}
		return nil
	}

	inverse := world.Inv()
	count := min(len(n.Skin.Joints), MaxJoints)
	for i := 0; i < count; i++ {
		ibm := mgl32.Ident4()
		if i < len(n.Skin.InverseBindMatrices) {
			ibm = n.Skin.InverseBindMatrices[i]
		}
		n.Mesh.Uniform.JointMatrix[i] = inverse.Mul4(n.Skin.Joints[i].WorldMatrix()).Mul4(ibm)
	}
	n.Mesh.Uniform.JointCount = float32(count)

	if err := n.Mesh.writeBlock(); err != nil {
		return fmt.Errorf("node %d %q: write joint matrices: %w", n.Index, n.Name, err)
	}
	return nil
}

// Walk visits n and every descendant depth first, parents before children.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}
