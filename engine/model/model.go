package model

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"go.uber.org/multierr"
)

// model is the implementation of the Model interface.
type model struct {
	name       string
	scale      float32
	roots      []*Node
	nodes      map[int]*Node
	materials  []*Material
	textures   []*Texture
	samplers   []TextureSampler
	skins      []*Skin
	animations []*Animation
	extensions []string

	geometry    *renderer.GeometryBuffers
	vertexCount uint32
}

// Model is an imported glTF scene: a node hierarchy with meshes, skins, animations and materials,
// plus the shared GPU vertex and index buffers every mesh draws from.
// It is produced by the Loader and is not safe for concurrent mutation.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Scale returns the global scale the model was loaded with.
	//
	// Returns:
	//   - float32: the scale factor
	Scale() float32

	// Roots returns the top-level nodes of the loaded scene in source order.
	//
	// Returns:
	//   - []*Node: the root nodes
	Roots() []*Node

	// NodeByIndex looks up a node by its source index in the flat registry.
	//
	// Parameters:
	//   - index: the glTF node index
	//
	// Returns:
	//   - *Node: the node, or nil if it was not part of the loaded scene
	NodeByIndex(index int) *Node

	// AllNodes returns every node of the loaded scene ordered by source index.
	//
	// Returns:
	//   - []*Node: the nodes
	AllNodes() []*Node

	// Materials returns the imported materials. The last entry is the shared default material.
	//
	// Returns:
	//   - []*Material: the materials
	Materials() []*Material

	// DefaultMaterial returns the material assigned to primitives that reference none.
	//
	// Returns:
	//   - *Material: the shared default material
	DefaultMaterial() *Material

	// Textures returns the imported textures in source order.
	//
	// Returns:
	//   - []*Texture: the textures
	Textures() []*Texture

	// Samplers returns the imported texture samplers in source order.
	//
	// Returns:
	//   - []TextureSampler: the samplers
	Samplers() []TextureSampler

	// Skins returns the imported skins in source order.
	//
	// Returns:
	//   - []*Skin: the skins
	Skins() []*Skin

	// Animations returns the imported animations in source order.
	//
	// Returns:
	//   - []*Animation: the animations
	Animations() []*Animation

	// AnimationIndex finds an animation by name.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	AnimationIndex(name string) int

	// Extensions returns the glTF extensions the source document declares as used.
	//
	// Returns:
	//   - []string: the extension names
	Extensions() []string

	// Geometry returns the shared device-local vertex and index buffers.
	//
	// Returns:
	//   - *renderer.GeometryBuffers: the buffers, or nil when the model has no geometry
	Geometry() *renderer.GeometryBuffers

	// VertexCount returns the total number of vertices across all primitives.
	//
	// Returns:
	//   - uint32: the vertex count
	VertexCount() uint32

	// IndexCount returns the total number of indices across all primitives.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// Update recomputes world and joint matrices for every root and uploads them.
	//
	// Returns:
	//   - error: the combined uniform write errors, or nil
	Update() error

	// UpdateAnimation samples the animation at time t, applies it to the target nodes and
	// propagates the new transforms. t is clamped to the animation's range.
	//
	// Parameters:
	//   - index: the animation index
	//   - t: the time in seconds
	//
	// Returns:
	//   - error: an error if index is out of range or a uniform write fails
	UpdateAnimation(index int, t float32) error

	// Draw records the model into a render pass. The shared vertex and index buffers are bound once,
	// then every node with a mesh binds its uniform at group 0 and draws each of its primitives.
	//
	// Parameters:
	//   - pass: the render pass to record into
	Draw(pass renderer.RenderPass)

	// DrawVisible is Draw without the primitives of static meshes whose bounds, at the node's last
	// uploaded world matrix, lie outside frustum. Skinned meshes are always drawn.
	//
	// Parameters:
	//   - pass: the render pass to record into
	//   - frustum: the camera's view volume
	DrawVisible(pass renderer.RenderPass, frustum common.Frustum)

	// Release frees every GPU object owned by the model.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model from the provided options.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Model: the constructed model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		scale: 1,
		nodes: make(map[int]*Node),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Scale() float32 {
	return m.scale
}

func (m *model) Roots() []*Node {
	return m.roots
}

func (m *model) NodeByIndex(index int) *Node {
	return m.nodes[index]
}

func (m *model) AllNodes() []*Node {
	out := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (m *model) Materials() []*Material {
	return m.materials
}

func (m *model) DefaultMaterial() *Material {
	if len(m.materials) == 0 {
		return nil
	}
	return m.materials[len(m.materials)-1]
}

func (m *model) Textures() []*Texture {
	return m.textures
}

func (m *model) Samplers() []TextureSampler {
	return m.samplers
}

func (m *model) Skins() []*Skin {
	return m.skins
}

func (m *model) Animations() []*Animation {
	return m.animations
}

func (m *model) AnimationIndex(name string) int {
	for i, a := range m.animations {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Extensions() []string {
	return m.extensions
}

func (m *model) Geometry() *renderer.GeometryBuffers {
	return m.geometry
}

func (m *model) VertexCount() uint32 {
	return m.vertexCount
}

func (m *model) IndexCount() uint32 {
	if m.geometry == nil {
		return 0
	}
	return m.geometry.IndexCount
}

func (m *model) Update() error {
	var err error
	for _, root := range m.roots {
		err = multierr.Append(err, root.UpdateRecursive())
	}
	return err
}

func (m *model) UpdateAnimation(index int, t float32) error {
	if index < 0 || index >= len(m.animations) {
		return fmt.Errorf("animation index %d out of range [0, %d)", index, len(m.animations))
	}
	m.animations[index].Apply(t)
	return m.Update()
}

func (m *model) Draw(pass renderer.RenderPass) {
	m.draw(pass, nil)
}

func (m *model) DrawVisible(pass renderer.RenderPass, frustum common.Frustum) {
	m.draw(pass, func(n *Node, prim *Primitive) bool {
		if n.Skin != nil || !prim.Bounds.Valid {
			return true
		}
		b := prim.Bounds.Transform(n.Mesh.Uniform.Matrix)
		return frustum.IntersectsAABB(b.Min, b.Max)
	})
}

// draw records every primitive that visible accepts. A nil visible accepts all.
func (m *model) draw(pass renderer.RenderPass, visible func(*Node, *Primitive) bool) {
	if pass == nil || m.geometry.Empty() {
		return
	}
	pass.SetVertexBuffer(m.geometry.Vertex)
	pass.SetIndexBuffer(m.geometry.Index)
	for _, root := range m.roots {
		drawNode(pass, root, visible)
	}
}

func drawNode(pass renderer.RenderPass, n *Node, visible func(*Node, *Primitive) bool) {
	if n.Mesh != nil && n.Mesh.Binding != nil {
		bound := false
		for _, prim := range n.Mesh.Primitives {
			if prim.IndexCount == 0 || (visible != nil && !visible(n, prim)) {
				continue
			}
			if !bound {
				pass.SetUniformBinding(0, n.Mesh.Binding)
				bound = true
			}
			pass.DrawIndexed(prim.IndexCount, 1, prim.FirstIndex, 0, 0)
		}
	}
	for _, child := range n.Children {
		drawNode(pass, child, visible)
	}
}

func (m *model) Release() {
	for _, n := range m.nodes {
		if n.Mesh != nil {
			n.Mesh.Release()
		}
	}
	for _, t := range m.textures {
		t.Release()
	}
	if m.geometry != nil {
		m.geometry.Release()
		m.geometry = nil
	}
}
