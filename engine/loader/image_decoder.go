package loader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/qmuntal/gltf"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errNoImageSource = errors.New("image has no buffer view or URI")

// imageBytes returns the encoded bytes of a document image: an embedded buffer view,
// a base64 data URI, or a file relative to baseDir.
func imageBytes(doc *gltf.Document, img *gltf.Image, baseDir string) ([]byte, error) {
	if img.BufferView != nil {
		return bufferViewBytes(doc, *img.BufferView)
	}
	if strings.HasPrefix(img.URI, "data:") {
		return decodeDataURI(img.URI)
	}
	if img.URI == "" {
		return nil, errNoImageSource
	}
	if baseDir == "" {
		return nil, fmt.Errorf("external image %q needs a base directory", img.URI)
	}
	name, err := url.PathUnescape(img.URI)
	if err != nil {
		name = img.URI
	}
	return os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(name)))
}

// bufferViewBytes returns the bytes covered by a buffer view without copying.
func bufferViewBytes(doc *gltf.Document, index int) ([]byte, error) {
	if index < 0 || index >= len(doc.BufferViews) || doc.BufferViews[index] == nil {
		return nil, fmt.Errorf("buffer view %d: %w", index, common.ErrAccessorOutOfBounds)
	}
	bv := doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return nil, fmt.Errorf("buffer view %d buffer %d: %w", index, bv.Buffer, common.ErrAccessorOutOfBounds)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer: offset=%d length=%d size=%d: %w",
			index, bv.ByteOffset, bv.ByteLength, len(data), common.ErrAccessorOutOfBounds)
	}
	return data[bv.ByteOffset:end], nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI: no comma found")
	}
	if !strings.HasSuffix(header, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// decodeImage decodes png, jpeg, webp or bmp bytes into tightly packed RGBA8 pixels.
// Sources without an alpha channel are packed as RGB first and then expanded with a zero alpha byte.
//
// Parameters:
//   - data: the encoded image
//
// Returns:
//   - common.TextureStagingData: the pixels and dimensions
//   - error: error if the format is unknown or the data is corrupt
func decodeImage(data []byte) (common.TextureStagingData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return common.TextureStagingData{}, fmt.Errorf("%s image has no pixels", format)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	pixels := nrgba.Pix
	if !hasAlphaChannel(img) {
		pixels = rgbToRGBA(packRGB(nrgba.Pix))
	}
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}, nil
}

// hasAlphaChannel reports whether the decoder produced an image type that carries alpha.
func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Paletted, *image.Alpha, *image.Alpha16:
		return true
	default:
		return false
	}
}

// packRGB drops the alpha byte of tightly packed RGBA8 pixels.
func packRGB(rgba []byte) []byte {
	out := make([]byte, 0, len(rgba)/4*3)
	for i := 0; i+3 < len(rgba); i += 4 {
		out = append(out, rgba[i], rgba[i+1], rgba[i+2])
	}
	return out
}

// rgbToRGBA expands RGB8 pixels to RGBA8 with a zero alpha byte.
func rgbToRGBA(rgb []byte) []byte {
	out := make([]byte, len(rgb)/3*4)
	for i, j := 0, 0; i+2 < len(rgb); i, j = i+3, j+4 {
		out[j] = rgb[i]
		out[j+1] = rgb[i+1]
		out[j+2] = rgb[i+2]
	}
	return out
}

// fallbackImage is the 1x1 white texture used when an image cannot be decoded.
func fallbackImage() common.TextureStagingData {
	return common.TextureStagingData{Pixels: []byte{0xff, 0xff, 0xff, 0xff}, Width: 1, Height: 1}
}
