package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned box. The zero value is empty.
type Bounds struct {
	Min, Max mgl32.Vec3
	// Valid is false until the first point is added.
	Valid bool
}

// Extend returns b grown to contain p.
func (b Bounds) Extend(p mgl32.Vec3) Bounds {
	if !b.Valid {
		return Bounds{Min: p, Max: p, Valid: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if !o.Valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Transform returns the box enclosing b's eight corners after m is applied.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	if !b.Valid {
		return b
	}
	var out Bounds
	for i := 0; i < 8; i++ {
		corner := b.Min
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns half the length of the box diagonal.
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Len() / 2
}

// SceneBounds encloses every primitive of m at its node's current world transform, in bind pose.
//
// Parameters:
//   - m: the model
//
// Returns:
//   - Bounds: the world-space box, not Valid when the model has no geometry
func SceneBounds(m Model) Bounds {
	var out Bounds
	for _, root := range m.Roots() {
		root.Walk(func(n *Node) {
			if n.Mesh == nil {
				return
			}
			world := n.WorldMatrix()
			for _, p := range n.Mesh.Primitives {
				out = out.Union(p.Bounds.Transform(world))
			}
		})
	}
	return out
}
