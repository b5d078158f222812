package model

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Interpolation selects how an animation sampler blends between keyframes.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return "LINEAR"
	}
}

// Path is the node property an animation channel drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

func (p Path) String() string {
	switch p {
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return "translation"
	}
}

// AnimationSampler holds keyframe times and values.
// VEC3 outputs are stored with w = 0. Cubic-spline samplers store three outputs per
// keyframe: in-tangent, value, out-tangent.
type AnimationSampler struct {
	Interpolation Interpolation
	Inputs        []float32
	Outputs       []mgl32.Vec4
}

// AnimationChannel connects a sampler to a node property.
type AnimationChannel struct {
	Path         Path
	SamplerIndex int
	Node         *Node
}

// Animation is a named set of channels sharing a time range.
type Animation struct {
	Name string
	// Start and End are the smallest and largest keyframe times over all samplers.
	Start    float32
	End      float32
	Samplers []*AnimationSampler
	Channels []*AnimationChannel
}

// Duration returns End - Start, or 0 for an empty animation.
func (a *Animation) Duration() float32 {
	if a.End < a.Start {
		return 0
	}
	return a.End - a.Start
}

// Apply samples every channel at time t and writes the result into the target nodes' TRS.
// t is clamped to [Start, End]. Node matrices are not propagated; callers run UpdateRecursive afterwards.
//
// Parameters:
//   - t: the animation time in seconds
func (a *Animation) Apply(t float32) {
	t = mgl32.Clamp(t, a.Start, a.End)

	for _, ch := range a.Channels {
		if ch.Node == nil || ch.SamplerIndex < 0 || ch.SamplerIndex >= len(a.Samplers) {
			continue
		}
		s := a.Samplers[ch.SamplerIndex]
		value, ok := s.Sample(t, ch.Path == PathRotation)
		if !ok {
			continue
		}

		switch ch.Path {
		case PathTranslation:
			ch.Node.Translation = value.Vec3()
		case PathRotation:
			ch.Node.Rotation = common.QuatFromVec4(value).Normalize()
		case PathScale:
			ch.Node.Scale = value.Vec3()
		}
	}
}

// Sample evaluates the sampler at time t. Times outside the keyframe range hold the first or last value.
//
// Parameters:
//   - t: the sample time
//   - rotation: true when the outputs are quaternions and must be interpolated spherically
//
// Returns:
//   - mgl32.Vec4: the sampled value
//   - bool: false when the sampler has no usable keyframes
func (s *AnimationSampler) Sample(t float32, rotation bool) (mgl32.Vec4, bool) {
	n := len(s.Inputs)
	stride := 1
	if s.Interpolation == InterpolationCubicSpline {
		stride = 3
	}
	if n == 0 || len(s.Outputs) < n*stride {
		return mgl32.Vec4{}, false
	}

	value := func(i int) mgl32.Vec4 {
		if stride == 3 {
			return s.Outputs[i*3+1]
		}
		return s.Outputs[i]
	}

	if n == 1 || t <= s.Inputs[0] {
		return value(0), true
	}
	if t >= s.Inputs[n-1] {
		return value(n - 1), true
	}

	// First keyframe strictly after t; the segment is [k, k+1].
	k := sort.Search(n, func(i int) bool { return s.Inputs[i] > t }) - 1
	t0, t1 := s.Inputs[k], s.Inputs[k+1]
	dt := t1 - t0
	if dt <= 0 {
		return value(k), true
	}
	u := (t - t0) / dt

	switch s.Interpolation {
	case InterpolationStep:
		return value(k), true

	case InterpolationCubicSpline:
		p0 := s.Outputs[k*3+1]
		m0 := s.Outputs[k*3+2].Mul(dt)
		p1 := s.Outputs[(k+1)*3+1]
		m1 := s.Outputs[(k+1)*3].Mul(dt)

		u2 := u * u
		u3 := u2 * u
		out := p0.Mul(2*u3 - 3*u2 + 1).
			Add(m0.Mul(u3 - 2*u2 + u)).
			Add(p1.Mul(-2*u3 + 3*u2)).
			Add(m1.Mul(u3 - u2))
		if rotation {
			out = out.Normalize()
		}
		return out, true

	default:
		a, b := value(k), value(k+1)
		if rotation {
			q := mgl32.QuatSlerp(common.QuatFromVec4(a).Normalize(), common.QuatFromVec4(b).Normalize(), u)
			return mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W}, true
		}
		return a.Add(b.Sub(a).Mul(u)), true
	}
}
