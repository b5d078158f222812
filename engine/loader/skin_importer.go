package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// importSkins resolves every document skin against the node registry.
// Joints that are not part of the loaded scene are skipped together with their inverse bind matrix,
// so Joints and InverseBindMatrices stay index aligned. Inverse bind matrices are read as one MAT4 block;
// an unreadable block leaves the skin without them and a short block is padded with identity.
func (g *graphBuilder) importSkins() {
	g.skins = make([]*model.Skin, 0, len(g.doc.Skins))
	for i, src := range g.doc.Skins {
		skin := &model.Skin{}
		if src == nil {
			g.skins = append(g.skins, skin)
			continue
		}
		skin.Name = src.Name

		if src.Skeleton != nil {
			skin.SkeletonRoot = g.nodes[*src.Skeleton]
		}

		var ibms []mgl32.Mat4
		if src.InverseBindMatrices != nil {
			var err error
			ibms, err = readMat4Block(g.doc, *src.InverseBindMatrices)
			if err != nil {
				g.log.Warn("ignoring inverse bind matrices", zap.Int("skin", i), zap.Error(err))
			} else if len(ibms) < len(src.Joints) {
				g.log.Warn("fewer inverse bind matrices than joints, padding with identity",
					zap.Int("skin", i), zap.Int("matrices", len(ibms)), zap.Int("joints", len(src.Joints)))
			}
		}

		for k, j := range src.Joints {
			node, ok := g.nodes[j]
			if !ok {
				g.log.Debug("skipping unresolved joint", zap.Int("skin", i), zap.Int("node", j))
				continue
			}
			skin.Joints = append(skin.Joints, node)
			if ibms == nil {
				continue
			}
			ibm := mgl32.Ident4()
			if k < len(ibms) {
				ibm = ibms[k]
			}
			skin.InverseBindMatrices = append(skin.InverseBindMatrices, ibm)
		}

		g.skins = append(g.skins, skin)
	}
}

// readMat4Block reads every element of a MAT4 float accessor.
func readMat4Block(doc *gltf.Document, index int) ([]mgl32.Mat4, error) {
	view, err := resolveAccessor(doc, index)
	if err != nil {
		return nil, err
	}
	if !view.is(gltf.AccessorMat4, gltf.ComponentFloat) {
		return nil, errUnexpectedLayout(view)
	}
	out := make([]mgl32.Mat4, view.count)
	for i := range out {
		out[i] = view.Mat4(i)
	}
	return out, nil
}
