package loader

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"go.uber.org/zap"
)

// decodeImages decodes the source image of every document texture.
// Results are stored by texture index, so the parallel path produces the same output as the sequential one.
// Missing or undecodable images fall back to a 1x1 white texture and are reported as warnings.
func (g *graphBuilder) decodeImages() []common.TextureStagingData {
	out := make([]common.TextureStagingData, len(g.doc.Textures))

	decode := func(i int) {
		pixels, err := g.decodeTextureImage(i)
		if err != nil {
			g.log.Warn("texture image unavailable, using fallback",
				zap.Int("texture", i), zap.Error(err))
			pixels = fallbackImage()
		}
		out[i] = pixels
	}

	if g.decodeWorkers <= 1 || len(out) < 2 {
		for i := range out {
			decode(i)
		}
		return out
	}

	pool := worker.NewDynamicWorkerPool(min(g.decodeWorkers, len(out)), len(out), 1*time.Second)
	defer pool.Stop()

	// The pool's own Wait blocks until idle workers exit, so a WaitGroup is the barrier.
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		id := i
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				decode(id)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}

// decodeTextureImage resolves and decodes the image referenced by texture i.
func (g *graphBuilder) decodeTextureImage(i int) (common.TextureStagingData, error) {
	tex := g.doc.Textures[i]
	if tex == nil || tex.Source == nil {
		return common.TextureStagingData{}, errNoImageSource
	}
	src := *tex.Source
	if src < 0 || src >= len(g.doc.Images) || g.doc.Images[src] == nil {
		return common.TextureStagingData{}, fmt.Errorf("image %d out of range", src)
	}
	data, err := imageBytes(g.doc, g.doc.Images[src], g.baseDir)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return decodeImage(data)
}

// importTextures decodes every texture image, pairs it with its sampler and uploads it.
// A texture without a sampler filters linearly and repeats on every axis.
//
// Returns:
//   - error: a *common.GPUResourceError if a texture cannot be created
func (g *graphBuilder) importTextures() error {
	images := g.decodeImages()

	g.textures = make([]*model.Texture, 0, len(g.doc.Textures))
	for i, tex := range g.doc.Textures {
		sampler := model.DefaultTextureSampler()
		name := ""
		if tex != nil {
			name = tex.Name
			if tex.Sampler != nil {
				if s := *tex.Sampler; s >= 0 && s < len(g.samplers) {
					sampler = g.samplers[s]
				} else {
					g.log.Warn("texture sampler out of range, using default",
						zap.Int("texture", i), zap.Int("sampler", s))
				}
			}
		}

		label := fmt.Sprintf("texture %d", i)
		if name != "" {
			label = fmt.Sprintf("texture %d (%s)", i, name)
		}
		img, err := g.device.CreateTexture(label, images[i], sampler.StagingData())
		if err != nil {
			return common.NewGPUResourceError(label, err)
		}

		g.textures = append(g.textures, &model.Texture{
			Index:   i,
			Name:    name,
			Width:   images[i].Width,
			Height:  images[i].Height,
			Image:   img,
			Sampler: sampler,
		})
	}
	return nil
}
