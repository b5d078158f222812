package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	return ExtractFrustum(Perspective(mgl32.DegToRad(90), 1, 1, 100))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name string
		p    mgl32.Vec3
		want bool
	}{
		{"ahead", mgl32.Vec3{0, 0, -10}, true},
		{"behind the camera", mgl32.Vec3{0, 0, 5}, false},
		{"past the far plane", mgl32.Vec3{0, 0, -200}, false},
		{"right of the view", mgl32.Vec3{20, 0, -10}, false},
		{"above the view", mgl32.Vec3{0, 20, -10}, false},
		{"inside the right edge", mgl32.Vec3{9, 0, -10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsPoint(tt.p); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()

	if f.IntersectsAABB(mgl32.Vec3{15, -1, -11}, mgl32.Vec3{25, 1, -9}) {
		t.Error("box right of the view should be outside")
	}
	if !f.IntersectsAABB(mgl32.Vec3{5, -1, -11}, mgl32.Vec3{15, 1, -9}) {
		t.Error("box straddling the right plane should intersect")
	}
	if !f.IntersectsAABB(mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9}) {
		t.Error("box in front of the camera should intersect")
	}
	if f.IntersectsAABB(mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 4}) {
		t.Error("box behind the camera should be outside")
	}
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	for i, pl := range testFrustum().Planes {
		if l := pl.Normal.Len(); l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal length %v", i, l)
		}
	}
}

func TestZeroFrustumAcceptsEverything(t *testing.T) {
	var f Frustum
	if !f.ContainsPoint(mgl32.Vec3{1e6, -1e6, 1e6}) {
		t.Error("zero frustum should accept every point")
	}
}
