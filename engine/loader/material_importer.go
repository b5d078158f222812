package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// defaultMaskCutoff applies to MASK materials that give no explicit cutoff.
const defaultMaskCutoff = 0.5

// importMaterials converts every document material and appends one shared default material last.
// Factors left unset in the document keep the glTF defaults.
func (g *graphBuilder) importMaterials() {
	g.materials = make([]*model.Material, 0, len(g.doc.Materials)+1)
	for i, src := range g.doc.Materials {
		mat := model.NewDefaultMaterial()
		if src == nil {
			g.materials = append(g.materials, mat)
			continue
		}
		mat.Name = src.Name
		mat.DoubleSided = src.DoubleSided
		mat.EmissiveFactor = mgl32.Vec4{
			float32(src.EmissiveFactor[0]),
			float32(src.EmissiveFactor[1]),
			float32(src.EmissiveFactor[2]),
			1,
		}

		if pbr := src.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				f := *pbr.BaseColorFactor
				mat.BaseColorFactor = mgl32.Vec4{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
			}
			if pbr.MetallicFactor != nil {
				mat.MetallicFactor = float32(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				mat.RoughnessFactor = float32(*pbr.RoughnessFactor)
			}
			if ti := pbr.BaseColorTexture; ti != nil {
				mat.BaseColorTexture = g.textureRef(i, "baseColor", ti.Index)
				mat.TexCoordSets.BaseColor = uint8(ti.TexCoord)
			}
			if ti := pbr.MetallicRoughnessTexture; ti != nil {
				mat.MetallicRoughnessTexture = g.textureRef(i, "metallicRoughness", ti.Index)
				mat.TexCoordSets.MetallicRoughness = uint8(ti.TexCoord)
			}
		}
		if nt := src.NormalTexture; nt != nil && nt.Index != nil {
			mat.NormalTexture = g.textureRef(i, "normal", *nt.Index)
			mat.TexCoordSets.Normal = uint8(nt.TexCoord)
		}
		if ot := src.OcclusionTexture; ot != nil && ot.Index != nil {
			mat.OcclusionTexture = g.textureRef(i, "occlusion", *ot.Index)
			mat.TexCoordSets.Occlusion = uint8(ot.TexCoord)
		}
		if et := src.EmissiveTexture; et != nil {
			mat.EmissiveTexture = g.textureRef(i, "emissive", et.Index)
			mat.TexCoordSets.Emissive = uint8(et.TexCoord)
		}

		switch src.AlphaMode {
		case gltf.AlphaBlend:
			mat.AlphaMode = model.AlphaModeBlend
		case gltf.AlphaMask:
			mat.AlphaMode = model.AlphaModeMask
			mat.AlphaCutoff = defaultMaskCutoff
			if src.AlphaCutoff != nil {
				mat.AlphaCutoff = float32(*src.AlphaCutoff)
			}
		default:
			mat.AlphaMode = model.AlphaModeOpaque
		}

		g.materials = append(g.materials, mat)
	}
	g.materials = append(g.materials, model.NewDefaultMaterial())
}

// textureRef resolves a material texture reference. Out of range references are nil.
func (g *graphBuilder) textureRef(material int, slot string, index int) *model.Texture {
	if index < 0 || index >= len(g.textures) {
		g.log.Warn("material texture out of range",
			zap.Int("material", material), zap.String("slot", slot), zap.Int("texture", index))
		return nil
	}
	return g.textures[index]
}

// materialFor returns the primitive's material or the shared default.
func (g *graphBuilder) materialFor(prim *gltf.Primitive) *model.Material {
	def := g.materials[len(g.materials)-1]
	if prim.Material == nil {
		return def
	}
	if i := *prim.Material; i >= 0 && i < len(g.materials)-1 {
		return g.materials[i]
	}
	g.log.Warn("primitive material out of range, using default", zap.Int("material", *prim.Material))
	return def
}
