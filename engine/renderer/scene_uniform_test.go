package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPutLightBlock(t *testing.T) {
	dst := make([]byte, LightBlockSize)
	PutLightBlock(dst, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{2, 3, 4}, 0.25)

	want := []float32{0, -1, 0, 0.25, 2, 3, 4, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(dst[i*4:]))
		if got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}
