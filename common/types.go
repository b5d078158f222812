// package common contains plain data types, typed errors and math helpers shared by the loader, model and renderer packages.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds decoded RGBA8 pixels waiting to be copied into a GPU texture.
type TextureStagingData struct {
	// Pixels holds Width*Height*4 bytes, row-major, one RGBA quadruple per pixel.
	Pixels []byte
	// Width of the image in pixels.
	Width uint32
	// Height of the image in pixels.
	Height uint32
}

// Valid reports whether the pixel slice matches the declared dimensions.
func (s TextureStagingData) Valid() bool {
	return s.Width > 0 && s.Height > 0 && uint64(len(s.Pixels)) == uint64(s.Width)*uint64(s.Height)*4
}

// SamplerStagingData holds the filtering and addressing state of a sampler pending GPU creation.
// Zero mipmap, LOD and anisotropy fields are replaced with renderer defaults when the sampler is created.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW select how coordinates outside [0, 1] are handled per axis.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter select the magnification and minification filters.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter selects how mip levels are blended.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the sampled level of detail.
	LodMinClamp, LodMaxClamp float32
	// Compare is the comparison function for depth samplers; undefined for color textures.
	Compare wgpu.CompareFunction
	// MaxAnisotropy is the anisotropic filtering limit.
	MaxAnisotropy uint16
}
