package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
)

// glTF sampler codes as written in the JSON document.
const (
	gltfFilterNearest              = 9728
	gltfFilterLinear               = 9729
	gltfFilterNearestMipmapNearest = 9984
	gltfFilterLinearMipmapNearest  = 9985
	gltfFilterNearestMipmapLinear  = 9986
	gltfFilterLinearMipmapLinear   = 9987

	gltfWrapRepeat         = 10497
	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
)

// magFilterCode converts the decoded magnification filter back to its glTF code. Unset is 0.
func magFilterCode(f gltf.MagFilter) int {
	switch f {
	case gltf.MagNearest:
		return gltfFilterNearest
	case gltf.MagLinear:
		return gltfFilterLinear
	default:
		return 0
	}
}

// minFilterCode converts the decoded minification filter back to its glTF code. Unset is 0.
func minFilterCode(f gltf.MinFilter) int {
	switch f {
	case gltf.MinNearest:
		return gltfFilterNearest
	case gltf.MinLinear:
		return gltfFilterLinear
	case gltf.MinNearestMipMapNearest:
		return gltfFilterNearestMipmapNearest
	case gltf.MinLinearMipMapNearest:
		return gltfFilterLinearMipmapNearest
	case gltf.MinNearestMipMapLinear:
		return gltfFilterNearestMipmapLinear
	case gltf.MinLinearMipMapLinear:
		return gltfFilterLinearMipmapLinear
	default:
		return 0
	}
}

// wrapCode converts the decoded wrapping mode back to its glTF code.
func wrapCode(w gltf.WrappingMode) int {
	switch w {
	case gltf.WrapClampToEdge:
		return gltfWrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return gltfWrapMirroredRepeat
	default:
		return gltfWrapRepeat
	}
}

// filterMode maps a glTF filter code to a wgpu filter. Unknown codes filter nearest.
func filterMode(code int) wgpu.FilterMode {
	switch code {
	case gltfFilterLinear, gltfFilterNearestMipmapLinear, gltfFilterLinearMipmapLinear:
		return wgpu.FilterModeLinear
	default:
		return wgpu.FilterModeNearest
	}
}

// addressMode maps a glTF wrap code to a wgpu address mode. Unknown codes repeat.
func addressMode(code int) wgpu.AddressMode {
	switch code {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

// importSamplers converts every document sampler. The W axis wraps like V.
func importSamplers(doc *gltf.Document) []model.TextureSampler {
	out := make([]model.TextureSampler, 0, len(doc.Samplers))
	for _, s := range doc.Samplers {
		if s == nil {
			out = append(out, model.DefaultTextureSampler())
			continue
		}
		v := addressMode(wrapCode(s.WrapT))
		out = append(out, model.TextureSampler{
			MagFilter:    filterMode(magFilterCode(s.MagFilter)),
			MinFilter:    filterMode(minFilterCode(s.MinFilter)),
			AddressModeU: addressMode(wrapCode(s.WrapS)),
			AddressModeV: v,
			AddressModeW: v,
		})
	}
	return out
}
