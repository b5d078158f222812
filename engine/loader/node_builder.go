package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// graphBuilder carries the state of a single document import.
// Pass 1 builds the node hierarchy and the shared vertex/index streams; pass 2 resolves
// skins and animations against the flat node registry.
type graphBuilder struct {
	path          string
	baseDir       string
	doc           *gltf.Document
	device        renderer.Device
	log           *zap.Logger
	decodeWorkers int
	scale         float32

	vertices []model.Vertex
	indices  []uint32

	roots      []*model.Node
	nodes      map[int]*model.Node
	samplers   []model.TextureSampler
	textures   []*model.Texture
	materials  []*model.Material
	skins      []*model.Skin
	animations []*model.Animation
}

// fail wraps err as the AssetLoadError for the document being imported.
func (g *graphBuilder) fail(reason string, err error) error {
	return common.NewAssetLoadError(g.path, reason, err)
}

// buildNode creates the node for src, builds its children, converts its mesh primitives into the shared
// vertex and index streams, and attaches it to parent or to the root list. Every node lands in the registry.
//
// Parameters:
//   - parent: the parent node, nil for a root
//   - src: the source node
//   - index: the source node index
//
// Returns:
//   - *model.Node: the built node
//   - error: an *common.AssetLoadError or *common.GPUResourceError
func (g *graphBuilder) buildNode(parent *model.Node, src *gltf.Node, index int) (*model.Node, error) {
	if _, seen := g.nodes[index]; seen {
		return nil, g.fail(fmt.Sprintf("node %d appears more than once in the hierarchy", index), nil)
	}

	node := model.NewNode(index, src.Name)
	node.Parent = parent
	node.Translation = common.Vec3FromFloat64(src.TranslationOrDefault())
	node.Rotation = common.QuatFromFloat64(src.RotationOrDefault())
	node.Scale = common.Vec3FromFloat64(src.ScaleOrDefault())
	node.Matrix = common.Mat4FromFloat64(src.MatrixOrDefault())
	if src.Skin != nil {
		node.SkinIndex = *src.Skin
	}
	g.nodes[index] = node

	for _, childIndex := range src.Children {
		if childIndex < 0 || childIndex >= len(g.doc.Nodes) || g.doc.Nodes[childIndex] == nil {
			return nil, g.fail(fmt.Sprintf("node %d child %d", index, childIndex), common.ErrAccessorOutOfBounds)
		}
		if _, err := g.buildNode(node, g.doc.Nodes[childIndex], childIndex); err != nil {
			return nil, err
		}
	}

	if src.Mesh != nil {
		mesh, err := g.buildMesh(node, *src.Mesh)
		if err != nil {
			return nil, err
		}
		node.Mesh = mesh
	}

	if parent != nil {
		parent.Children = append(parent.Children, node)
	} else {
		g.roots = append(g.roots, node)
	}
	return node, nil
}

// buildMesh converts every primitive of the mesh at meshIndex and creates the node's uniform buffer.
func (g *graphBuilder) buildMesh(node *model.Node, meshIndex int) (*model.Mesh, error) {
	if meshIndex < 0 || meshIndex >= len(g.doc.Meshes) || g.doc.Meshes[meshIndex] == nil {
		return nil, g.fail(fmt.Sprintf("node %d mesh %d", node.Index, meshIndex), common.ErrAccessorOutOfBounds)
	}
	src := g.doc.Meshes[meshIndex]

	mesh := &model.Mesh{Name: src.Name}
	mesh.Uniform.Matrix = node.Matrix
	for i, prim := range src.Primitives {
		if prim == nil {
			continue
		}
		p, err := g.buildPrimitive(prim)
		if err != nil {
			return nil, g.fail(fmt.Sprintf("mesh %d primitive %d", meshIndex, i), err)
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}

	label := fmt.Sprintf("node %d mesh uniform", node.Index)
	buf, err := g.device.CreateBuffer(renderer.BufferDescriptor{
		Label:  label,
		Usage:  wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Memory: renderer.MemoryHostVisible | renderer.MemoryHostCoherent,
		Size:   model.MeshUniformSize,
	})
	if err != nil {
		return nil, common.NewGPUResourceError(label, err)
	}
	mesh.UniformBuffer = buf

	binding, err := g.device.CreateUniformBinding(label, buf)
	if err != nil {
		mesh.Release()
		return nil, common.NewGPUResourceError(label+" binding", err)
	}
	mesh.Binding = binding
	return mesh, nil
}

// buildPrimitive appends the primitive's vertices and offset indices to the shared streams.
// POSITION is mandatory. Missing normals and UVs read as zero; joints and weights are only taken when both
// JOINTS_0 and WEIGHTS_0 resolve, and an all-zero weight becomes (1,0,0,0).
func (g *graphBuilder) buildPrimitive(prim *gltf.Primitive) (*model.Primitive, error) {
	firstIndex := uint32(len(g.indices))
	vertexStart := uint32(len(g.vertices))

	pos, ok, err := resolveAttribute(g.doc, prim, gltf.POSITION, gltf.AccessorVec3, gltf.ComponentFloat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrMissingPosition
	}

	normals := g.optionalAttribute(prim, gltf.NORMAL, gltf.AccessorVec3, gltf.ComponentFloat)
	uv0 := g.optionalAttribute(prim, gltf.TEXCOORD_0, gltf.AccessorVec2, gltf.ComponentFloat, gltf.ComponentUbyte, gltf.ComponentUshort)
	uv1 := g.optionalAttribute(prim, gltf.TEXCOORD_1, gltf.AccessorVec2, gltf.ComponentFloat, gltf.ComponentUbyte, gltf.ComponentUshort)
	joints := g.optionalAttribute(prim, gltf.JOINTS_0, gltf.AccessorVec4, gltf.ComponentUbyte, gltf.ComponentUshort)
	weights := g.optionalAttribute(prim, gltf.WEIGHTS_0, gltf.AccessorVec4, gltf.ComponentFloat, gltf.ComponentUbyte, gltf.ComponentUshort)
	skinned := joints != nil && weights != nil

	var bounds model.Bounds
	for v := 0; v < pos.count; v++ {
		var vert model.Vertex
		vert.Pos = pos.Vec3(v)
		bounds = bounds.Extend(vert.Pos)
		if normals != nil && v < normals.count {
			if n := normals.Vec3(v); n.Len() > 0 {
				vert.Normal = n.Normalize()
			}
		}
		if uv0 != nil && v < uv0.count {
			vert.UV0 = uv0.Vec2(v)
		}
		if uv1 != nil && v < uv1.count {
			vert.UV1 = uv1.Vec2(v)
		}
		if skinned && v < joints.count && v < weights.count {
			for c := 0; c < 4; c++ {
				vert.Joint0[c] = float32(joints.Uint(v, c))
			}
			vert.Weight0 = weights.Vec4(v)
		}
		if mgl32.Vec4(vert.Weight0).Len() == 0 {
			vert.Weight0 = [4]float32{1, 0, 0, 0}
		}
		g.vertices = append(g.vertices, vert)
	}

	if prim.Indices != nil {
		g.indices, err = readIndices(g.doc, *prim.Indices, vertexStart, g.indices)
		if err != nil {
			return nil, err
		}
	}

	return &model.Primitive{
		FirstIndex:  firstIndex,
		IndexCount:  uint32(len(g.indices)) - firstIndex,
		VertexCount: uint32(pos.count),
		Bounds:      bounds,
		Material:    g.materialFor(prim),
	}, nil
}

// optionalAttribute resolves an attribute whose absence is not an error.
// Broken references are logged and treated as absent.
func (g *graphBuilder) optionalAttribute(prim *gltf.Primitive, name string, typ gltf.AccessorType, components ...gltf.ComponentType) *accessorView {
	view, ok, err := resolveAttribute(g.doc, prim, name, typ, components...)
	if err != nil {
		g.log.Warn("ignoring unresolvable attribute", zap.String("attribute", name), zap.Error(err))
		return nil
	}
	if !ok {
		if _, present := prim.Attributes[name]; present {
			g.log.Debug("ignoring attribute with unsupported layout", zap.String("attribute", name))
		}
		return nil
	}
	return &view
}
