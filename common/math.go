package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PutMat4 writes a column-major matrix into dst as 16 little-endian float32 values.
// dst must be at least 64 bytes long.
//
// Parameters:
//   - dst: destination byte slice
//   - m: the matrix to encode
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Mat4FromFloat64 narrows a glTF column-major matrix to float32.
func Mat4FromFloat64(m [16]float64) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Vec3FromFloat64 narrows a glTF vector to float32.
func Vec3FromFloat64(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// QuatFromFloat64 converts a glTF rotation stored as (x, y, z, w) into a quaternion.
func QuatFromFloat64(q [4]float64) mgl32.Quat {
	return mgl32.Quat{
		W: float32(q[3]),
		V: mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])},
	}
}

// QuatFromVec4 converts an (x, y, z, w) vector into a quaternion.
func QuatFromVec4(v mgl32.Vec4) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// ComposeTRS builds T * R * S * M, the local transform of a scene node.
// The rotation is normalized before use; a zero quaternion yields the identity rotation.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion
//   - s: scale
//   - m: extra matrix applied first (identity when the node has none)
//
// Returns:
//   - mgl32.Mat4: the composed column-major matrix
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3, m mgl32.Mat4) mgl32.Mat4 {
	rot := mgl32.Ident4()
	if r.Len() != 0 {
		rot = r.Normalize().Mat4()
	}
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2])).
		Mul4(m)
}

// Perspective creates a perspective projection matrix for WebGPU clip space, where depth maps to [0, 1].
// mgl32.Perspective targets the OpenGL [-1, 1] depth range and cannot be used directly.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}
