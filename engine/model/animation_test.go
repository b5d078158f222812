package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSamplerInterpolation(t *testing.T) {
	tests := []struct {
		name    string
		sampler AnimationSampler
		at      float32
		want    mgl32.Vec4
	}{
		{
			name: "linear midpoint",
			sampler: AnimationSampler{
				Interpolation: InterpolationLinear,
				Inputs:        []float32{0, 2},
				Outputs:       []mgl32.Vec4{{0, 0, 0, 0}, {2, 4, 6, 0}},
			},
			at:   1,
			want: mgl32.Vec4{1, 2, 3, 0},
		},
		{
			name: "step holds the previous key",
			sampler: AnimationSampler{
				Interpolation: InterpolationStep,
				Inputs:        []float32{0, 1, 2},
				Outputs:       []mgl32.Vec4{{1, 0, 0, 0}, {2, 0, 0, 0}, {3, 0, 0, 0}},
			},
			at:   1.9,
			want: mgl32.Vec4{2, 0, 0, 0},
		},
		{
			name: "before the first key",
			sampler: AnimationSampler{
				Inputs:  []float32{1, 2},
				Outputs: []mgl32.Vec4{{5, 0, 0, 0}, {6, 0, 0, 0}},
			},
			at:   0,
			want: mgl32.Vec4{5, 0, 0, 0},
		},
		{
			name: "after the last key",
			sampler: AnimationSampler{
				Inputs:  []float32{1, 2},
				Outputs: []mgl32.Vec4{{5, 0, 0, 0}, {6, 0, 0, 0}},
			},
			at:   3,
			want: mgl32.Vec4{6, 0, 0, 0},
		},
		{
			name: "cubic spline with zero tangents",
			sampler: AnimationSampler{
				Interpolation: InterpolationCubicSpline,
				Inputs:        []float32{0, 1},
				Outputs: []mgl32.Vec4{
					{}, {0, 0, 0, 0}, {},
					{}, {4, 0, 0, 0}, {},
				},
			},
			at:   0.5,
			want: mgl32.Vec4{2, 0, 0, 0},
		},
		{
			name: "cubic spline uses the out and in tangents",
			sampler: AnimationSampler{
				Interpolation: InterpolationCubicSpline,
				Inputs:        []float32{0, 1},
				Outputs: []mgl32.Vec4{
					{}, {0, 0, 0, 0}, {1, 0, 0, 0},
					{1, 0, 0, 0}, {1, 0, 0, 0}, {},
				},
			},
			at:   0.5,
			want: mgl32.Vec4{0.5, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.sampler.Sample(tt.at, false)
			if !ok {
				t.Fatal("sampler reported no keyframes")
			}
			if !got.ApproxFuncEqual(tt.want, closeTo) {
				t.Errorf("Sample(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSamplerRejectsShortOutputs(t *testing.T) {
	s := AnimationSampler{
		Interpolation: InterpolationCubicSpline,
		Inputs:        []float32{0, 1},
		Outputs:       []mgl32.Vec4{{}, {}, {}},
	}
	if _, ok := s.Sample(0.5, false); ok {
		t.Error("expected a cubic sampler without three outputs per key to be rejected")
	}
}

func TestAnimationApplyRotationSlerp(t *testing.T) {
	n := NewNode(0, "spin")
	q0 := mgl32.QuatIdent()
	q1 := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	anim := &Animation{
		Start: 0,
		End:   1,
		Samplers: []*AnimationSampler{{
			Interpolation: InterpolationLinear,
			Inputs:        []float32{0, 1},
			Outputs: []mgl32.Vec4{
				{q0.V[0], q0.V[1], q0.V[2], q0.W},
				{q1.V[0], q1.V[1], q1.V[2], q1.W},
			},
		}},
		Channels: []*AnimationChannel{{Path: PathRotation, SamplerIndex: 0, Node: n}},
	}

	anim.Apply(0.5)
	want := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	if !n.Rotation.OrientationEqualThreshold(want, 1e-4) {
		t.Errorf("rotation = %v, want %v", n.Rotation, want)
	}

	// Time past the end clamps to the final key.
	anim.Apply(10)
	if !n.Rotation.OrientationEqualThreshold(q1, 1e-4) {
		t.Errorf("clamped rotation = %v, want %v", n.Rotation, q1)
	}
}

func TestAnimationApplyTranslationAndScale(t *testing.T) {
	n := NewNode(0, "mover")
	anim := &Animation{
		Start: 0,
		End:   2,
		Samplers: []*AnimationSampler{
			{Inputs: []float32{0, 2}, Outputs: []mgl32.Vec4{{0, 0, 0, 0}, {4, 0, 0, 0}}},
			{Inputs: []float32{0, 2}, Outputs: []mgl32.Vec4{{1, 1, 1, 0}, {3, 3, 3, 0}}},
		},
		Channels: []*AnimationChannel{
			{Path: PathTranslation, SamplerIndex: 0, Node: n},
			{Path: PathScale, SamplerIndex: 1, Node: n},
			{Path: PathScale, SamplerIndex: 9, Node: n},
		},
	}

	anim.Apply(1)
	if n.Translation != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("translation = %v", n.Translation)
	}
	if n.Scale != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("scale = %v", n.Scale)
	}
	if anim.Duration() != 2 {
		t.Errorf("duration = %v", anim.Duration())
	}
}
