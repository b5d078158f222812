package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// SceneUniformSize is the view-projection matrix followed by the light block.
	SceneUniformSize = 96

	// LightBlockSize is the byte size of the light part of the scene uniform.
	LightBlockSize = 32
)

// GPUSceneUniformSource is the WGSL definition of the scene uniform bound at group 1.
//
//go:embed assets/scene_uniform.wgsl
var GPUSceneUniformSource string

// PutLightBlock encodes the light as two vec4s: direction with ambient in w, then radiance with w = 1.
// dst must hold at least LightBlockSize bytes.
func PutLightBlock(dst []byte, direction, radiance mgl32.Vec3, ambient float32) {
	vals := [8]float32{
		direction[0], direction[1], direction[2], ambient,
		radiance[0], radiance[1], radiance[2], 1,
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
