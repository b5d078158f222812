package common

import "github.com/go-gl/mathgl/mgl32"

// Plane is the plane Normal·p + Distance = 0. Points with a positive distance lie on the inside.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum holds the six planes of a view volume, oriented inwards.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts the planes of a view-projection matrix with the Gribb/Hartmann method.
// The near plane assumes the [0, 1] clip depth produced by Perspective.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeFromRow(r3.Add(r0))
	f.Planes[FrustumRight] = planeFromRow(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeFromRow(r3.Add(r1))
	f.Planes[FrustumTop] = planeFromRow(r3.Sub(r1))
	f.Planes[FrustumNear] = planeFromRow(r2)
	f.Planes[FrustumFar] = planeFromRow(r3.Sub(r2))
	return f
}

// planeFromRow normalizes a plane given as (a, b, c, d). A degenerate row stays zero, which accepts every point.
func planeFromRow(row mgl32.Vec4) Plane {
	p := Plane{Normal: row.Vec3(), Distance: row.W()}
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Mul(1 / l)
		p.Distance /= l
	}
	return p
}

// ContainsPoint reports whether p lies inside or on every plane.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Normal.Dot(p)+pl.Distance < 0 {
			return false
		}
	}
	return true
}

// IntersectsAABB reports whether the box [lo, hi] is at least partly inside. The test is
// conservative: some boxes near the frustum's corners pass although they are outside.
//
// Parameters:
//   - lo: the box minimum
//   - hi: the box maximum
//
// Returns:
//   - bool: false only if the box is entirely outside one plane
func (f Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		// The corner furthest along the plane normal.
		var p mgl32.Vec3
		for i := range 3 {
			if pl.Normal[i] >= 0 {
				p[i] = hi[i]
			} else {
				p[i] = lo[i]
			}
		}
		if pl.Normal.Dot(p)+pl.Distance < 0 {
			return false
		}
	}
	return true
}
