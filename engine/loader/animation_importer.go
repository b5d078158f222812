package loader

import (
	"math"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// importAnimations converts every document animation.
// Samplers keep their source positions so channels can reference them by index; a sampler whose
// data cannot be read stays in place with no keyframes.
func (g *graphBuilder) importAnimations() {
	g.animations = make([]*model.Animation, 0, len(g.doc.Animations))
	for i, src := range g.doc.Animations {
		anim := &model.Animation{}
		if src == nil {
			g.animations = append(g.animations, anim)
			continue
		}
		anim.Name = src.Name

		start, end := float32(math.MaxFloat32), float32(-math.MaxFloat32)
		for j, s := range src.Samplers {
			sampler := g.importAnimationSampler(i, j, s)
			for _, t := range sampler.Inputs {
				start = min(start, t)
				end = max(end, t)
			}
			anim.Samplers = append(anim.Samplers, sampler)
		}
		if start > end {
			start, end = 0, 0
		}
		anim.Start, anim.End = start, end

		for j, c := range src.Channels {
			if ch := g.importChannel(i, j, c, len(anim.Samplers)); ch != nil {
				anim.Channels = append(anim.Channels, ch)
			}
		}

		g.animations = append(g.animations, anim)
	}
}

func (g *graphBuilder) importAnimationSampler(anim, index int, src *gltf.AnimationSampler) *model.AnimationSampler {
	sampler := &model.AnimationSampler{}
	if src == nil {
		return sampler
	}

	switch src.Interpolation {
	case gltf.InterpolationStep:
		sampler.Interpolation = model.InterpolationStep
	case gltf.InterpolationCubicSpline:
		sampler.Interpolation = model.InterpolationCubicSpline
	default:
		sampler.Interpolation = model.InterpolationLinear
	}

	input, err := resolveAccessor(g.doc, src.Input)
	if err == nil && !input.is(gltf.AccessorScalar, gltf.ComponentFloat) {
		err = errUnexpectedLayout(input)
	}
	if err != nil {
		g.log.Warn("skipping animation sampler input",
			zap.Int("animation", anim), zap.Int("sampler", index), zap.Error(err))
		return sampler
	}
	sampler.Inputs = make([]float32, input.count)
	for k := range sampler.Inputs {
		sampler.Inputs[k] = input.Float(k, 0)
	}

	output, err := resolveAccessor(g.doc, src.Output)
	if err != nil {
		g.log.Warn("skipping animation sampler output",
			zap.Int("animation", anim), zap.Int("sampler", index), zap.Error(err))
		return sampler
	}
	switch {
	case output.is(gltf.AccessorVec3, gltf.ComponentFloat):
		sampler.Outputs = make([]mgl32.Vec4, output.count)
		for k := range sampler.Outputs {
			sampler.Outputs[k] = output.Vec3(k).Vec4(0)
		}
	case output.is(gltf.AccessorVec4, gltf.ComponentFloat):
		sampler.Outputs = make([]mgl32.Vec4, output.count)
		for k := range sampler.Outputs {
			sampler.Outputs[k] = output.Vec4(k)
		}
	default:
		g.log.Warn("skipping animation sampler output with unsupported layout",
			zap.Int("animation", anim), zap.Int("sampler", index),
			zap.Int("type", int(output.accessorType)), zap.Int("component", int(output.componentType)))
	}
	return sampler
}

func (g *graphBuilder) importChannel(anim, index int, src *gltf.AnimationChannel, samplers int) *model.AnimationChannel {
	if src == nil {
		return nil
	}
	ch := &model.AnimationChannel{SamplerIndex: src.Sampler}
	switch src.Target.Path {
	case gltf.TRSTranslation:
		ch.Path = model.PathTranslation
	case gltf.TRSRotation:
		ch.Path = model.PathRotation
	case gltf.TRSScale:
		ch.Path = model.PathScale
	case gltf.TRSWeights:
		g.log.Warn("morph target weights are not supported, skipping channel",
			zap.Int("animation", anim), zap.Int("channel", index))
		return nil
	default:
		// Decoded documents never get here: unknown path strings decode as translation.
		// Only documents assembled in memory can carry other values.
		g.log.Warn("unknown channel path, skipping channel",
			zap.Int("animation", anim), zap.Int("channel", index))
		return nil
	}

	if src.Sampler < 0 || src.Sampler >= samplers {
		g.log.Warn("channel sampler out of range, skipping channel",
			zap.Int("animation", anim), zap.Int("channel", index), zap.Int("sampler", src.Sampler))
		return nil
	}
	if src.Target.Node == nil {
		return nil
	}
	node, ok := g.nodes[*src.Target.Node]
	if !ok {
		g.log.Debug("dropping channel with unresolved target node",
			zap.Int("animation", anim), zap.Int("channel", index), zap.Int("node", *src.Target.Node))
		return nil
	}
	ch.Node = node
	return ch
}
