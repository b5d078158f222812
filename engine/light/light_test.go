package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

)

func closeTo(a, b float32) bool {
	return mgl32.Abs(a-b) <= 1e-5
}

func TestDefaults(t *testing.T) {
	l := NewLight()
	if mgl32.Abs(l.Direction().Len()-1) > 1e-5 {
		t.Errorf("direction %v is not normalized", l.Direction())
	}
	if l.Direction().Y() >= 0 {
		t.Error("default light should shine downward")
	}
	if !l.Enabled() || l.Intensity() != 1 || l.Ambient() != 0.25 {
		t.Errorf("enabled=%v intensity=%v ambient=%v", l.Enabled(), l.Intensity(), l.Ambient())
	}
	if l.Radiance() != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("radiance = %v", l.Radiance())
	}
}

func TestOptions(t *testing.T) {
	l := NewLight(
		WithDirection(mgl32.Vec3{0, 0, -2}),
		WithColor(mgl32.Vec3{1, 0.5, 0}),
		WithIntensity(2),
		WithAmbient(3),
		WithEnabled(false),
	)
	if l.Direction() != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("direction = %v", l.Direction())
	}
	if l.Ambient() != 1 {
		t.Errorf("ambient = %v, want clamped 1", l.Ambient())
	}
	if l.Radiance() != (mgl32.Vec3{}) {
		t.Error("a disabled light has no radiance")
	}
	l.SetEnabled(true)
	if l.Radiance() != (mgl32.Vec3{2, 1, 0}) {
		t.Errorf("radiance = %v", l.Radiance())
	}

	if NewLight(WithIntensity(-1)).Intensity() != 0 {
		t.Error("negative intensity should clamp to 0")
	}
}

func TestSetDirectionIgnoresZero(t *testing.T) {
	l := NewLight(WithDirection(mgl32.Vec3{1, 0, 0}))
	l.SetDirection(mgl32.Vec3{})
	if l.Direction() != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("direction = %v", l.Direction())
	}
	l.SetDirection(mgl32.Vec3{0, 3, 0})
	if !l.Direction().ApproxFuncEqual(mgl32.Vec3{0, 1, 0}, closeTo) {
		t.Errorf("direction = %v", l.Direction())
	}
}
