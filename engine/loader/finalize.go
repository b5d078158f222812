package loader

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// finalize wires every skinned node to its skin and pushes the initial transforms of every mesh to the GPU.
//
// Returns:
//   - error: the combined uniform write errors, or nil
func (g *graphBuilder) finalize() error {
	nodes := make([]*model.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Index < nodes[j].Index })

	for _, n := range nodes {
		if n.SkinIndex < 0 {
			continue
		}
		if n.SkinIndex >= len(g.skins) {
			g.log.Warn("node skin out of range", zap.Int("node", n.Index), zap.Int("skin", n.SkinIndex))
			continue
		}
		n.Skin = g.skins[n.SkinIndex]
	}

	var err error
	for _, n := range nodes {
		if n.Mesh != nil {
			err = multierr.Append(err, n.UpdateRecursive())
		}
	}
	return err
}
