package loader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestImportMaterialsDefaults(t *testing.T) {
	g := builderFor(&gltf.Document{Materials: []*gltf.Material{{Name: "plain"}}}, nil)
	g.importMaterials()

	require.Len(t, g.materials, 2)
	mat := g.materials[0]
	assert.Equal(t, "plain", mat.Name)
	assert.Equal(t, model.AlphaModeOpaque, mat.AlphaMode)
	assert.Zero(t, mat.AlphaCutoff)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, mat.BaseColorFactor)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, mat.EmissiveFactor)
	assert.Equal(t, float32(1), mat.MetallicFactor)
	assert.Equal(t, float32(1), mat.RoughnessFactor)
	assert.Nil(t, mat.BaseColorTexture)
}

func TestImportMaterialsAlphaModes(t *testing.T) {
	doc := &gltf.Document{Materials: []*gltf.Material{
		{AlphaMode: gltf.AlphaMask},
		{AlphaMode: gltf.AlphaMask, AlphaCutoff: ptr(0.25)},
		{AlphaMode: gltf.AlphaBlend},
		{AlphaMode: gltf.AlphaOpaque, AlphaCutoff: ptr(0.9)},
	}}
	g := builderFor(doc, nil)
	g.importMaterials()

	tests := []struct {
		mode   model.AlphaMode
		cutoff float32
	}{
		{model.AlphaModeMask, 0.5},
		{model.AlphaModeMask, 0.25},
		{model.AlphaModeBlend, 0},
		{model.AlphaModeOpaque, 0},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.mode, g.materials[i].AlphaMode, "material %d mode", i)
		assert.Equal(t, tt.cutoff, g.materials[i].AlphaCutoff, "material %d cutoff", i)
	}
}

func TestImportMaterialsFactorsAndTextures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc := &gltf.Document{Materials: []*gltf.Material{{
		DoubleSided:    true,
		EmissiveFactor: [3]float64{0.1, 0.2, 0.3},
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:          &[4]float64{0.5, 0.25, 1, 0.75},
			MetallicFactor:           ptr(0.0),
			RoughnessFactor:          ptr(0.5),
			BaseColorTexture:         &gltf.TextureInfo{Index: 1, TexCoord: 1},
			MetallicRoughnessTexture: &gltf.TextureInfo{Index: 7},
		},
		NormalTexture:    &gltf.NormalTexture{Index: ptr(0)},
		OcclusionTexture: &gltf.OcclusionTexture{Index: ptr(1), TexCoord: 1},
	}}}
	g := builderFor(doc, zap.New(core))
	g.textures = []*model.Texture{{Index: 0}, {Index: 1}}
	g.importMaterials()

	mat := g.materials[0]
	assert.True(t, mat.DoubleSided)
	assert.InDelta(t, 0.2, mat.EmissiveFactor[1], 1e-6)
	assert.Equal(t, float32(1), mat.EmissiveFactor[3])
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 1, 0.75}, mat.BaseColorFactor)
	assert.Zero(t, mat.MetallicFactor)
	assert.Equal(t, float32(0.5), mat.RoughnessFactor)

	assert.Same(t, g.textures[1], mat.BaseColorTexture)
	assert.Same(t, g.textures[0], mat.NormalTexture)
	assert.Same(t, g.textures[1], mat.OcclusionTexture)
	assert.Nil(t, mat.MetallicRoughnessTexture, "out of range texture must be dropped")
	assert.Equal(t, model.TexCoordSets{BaseColor: 1, Occlusion: 1}, mat.TexCoordSets)
	assert.Equal(t, 1, logs.FilterMessage("material texture out of range").Len())
}

func TestSharedDefaultMaterial(t *testing.T) {
	b := newDocBuilder()
	b.doc.Materials = []*gltf.Material{{Name: "red"}}
	tri := b.triangle()
	other := b.triangle()
	other.Material = ptr(0)
	missing := b.triangle()
	missing.Material = ptr(5)
	b.node(&gltf.Node{Mesh: ptr(b.mesh(tri, other, missing))})
	doc := b.finish()

	l, _, _ := testLoader()
	m := importDoc(t, l, doc)

	mats := m.Materials()
	require.Len(t, mats, 2)
	def := m.DefaultMaterial()
	assert.Same(t, mats[len(mats)-1], def, "default material is stored last")

	prims := m.NodeByIndex(0).Mesh.Primitives
	require.Len(t, prims, 3)
	assert.Same(t, def, prims[0].Material)
	assert.Same(t, mats[0], prims[1].Material)
	assert.Same(t, def, prims[2].Material)
}
