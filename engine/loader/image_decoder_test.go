package loader

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
	"golang.org/x/image/bmp"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImageKeepsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{})
	src.SetNRGBA(1, 0, color.NRGBA{R: 50, G: 60, B: 70, A: 255})

	got, err := decodeImage(encodePNG(t, src))
	if err != nil {
		t.Fatalf("decodeImage: %v", err)
	}
	if got.Width != 2 || got.Height != 1 {
		t.Fatalf("size = %dx%d", got.Width, got.Height)
	}
	want := []byte{0, 0, 0, 0, 50, 60, 70, 255}
	if !bytes.Equal(got.Pixels, want) {
		t.Errorf("pixels = %v, want %v", got.Pixels, want)
	}
}

func TestDecodeImageRGBExpandsWithZeroAlpha(t *testing.T) {
	// An opaque RGBA image is written as a three channel PNG.
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetRGBA(0, 1, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	got, err := decodeImage(encodePNG(t, src))
	if err != nil {
		t.Fatalf("decodeImage: %v", err)
	}
	want := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	if !bytes.Equal(got.Pixels, want) {
		t.Errorf("pixels = %v, want %v", got.Pixels, want)
	}
}

func TestDecodeImageOtherFormats(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 128
	}

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, gray, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	opaque := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 0xff
	}
	var bm bytes.Buffer
	if err := bmp.Encode(&bm, opaque); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}

	for name, data := range map[string][]byte{"jpeg": jpg.Bytes(), "bmp": bm.Bytes()} {
		t.Run(name, func(t *testing.T) {
			got, err := decodeImage(data)
			if err != nil {
				t.Fatalf("decodeImage: %v", err)
			}
			if !got.Valid() {
				t.Errorf("%d pixel bytes for %dx%d", len(got.Pixels), got.Width, got.Height)
			}
			if got.Pixels[3] != 0 {
				t.Errorf("alpha = %d, want 0 for a source without alpha", got.Pixels[3])
			}
		})
	}

	if _, err := decodeImage([]byte("not an image")); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestRGBToRGBA(t *testing.T) {
	got := rgbToRGBA([]byte{1, 2, 3, 4, 5, 6})
	want := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("rgbToRGBA = %v, want %v", got, want)
	}
	if got := packRGB([]byte{1, 2, 3, 9, 4, 5, 6, 9}); !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("packRGB = %v", got)
	}
}

func TestImageBytesSources(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	b := newDocBuilder()
	bv := b.view(payload, 0)
	doc := b.finish()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tex ture.png"), payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name    string
		img     *gltf.Image
		baseDir string
		wantErr bool
	}{
		{"buffer view", &gltf.Image{BufferView: ptr(bv)}, "", false},
		{"data uri", &gltf.Image{URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)}, "", false},
		{"escaped file", &gltf.Image{URI: "tex%20ture.png"}, dir, false},
		{"file without base dir", &gltf.Image{URI: "tex%20ture.png"}, "", true},
		{"missing file", &gltf.Image{URI: "missing.png"}, dir, true},
		{"no source", &gltf.Image{}, dir, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imageBytes(doc, tt.img, tt.baseDir)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("imageBytes: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("got %v, want %v", got, payload)
			}
		})
	}
}

func texturedDoc(t *testing.T, count int) *gltf.Document {
	t.Helper()
	b := newDocBuilder()
	for i := 0; i < count; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: uint8(i), A: 255})
		bv := b.view(encodePNG(t, img), 0)
		b.doc.Images = append(b.doc.Images, &gltf.Image{BufferView: ptr(bv), MimeType: "image/png"})
		b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Source: ptr(i)})
	}
	return b.finish()
}

func TestImportTexturesSamplersAndFallback(t *testing.T) {
	doc := texturedDoc(t, 2)
	doc.Samplers = []*gltf.Sampler{{MagFilter: gltf.MagNearest, MinFilter: gltf.MinNearest}}
	doc.Textures[1].Sampler = ptr(0)
	doc.Textures = append(doc.Textures, &gltf.Texture{Name: "broken", Source: ptr(9)})

	g := builderFor(doc, nil)
	g.samplers = importSamplers(doc)
	if err := g.importTextures(); err != nil {
		t.Fatalf("importTextures: %v", err)
	}
	if len(g.textures) != 3 {
		t.Fatalf("got %d textures", len(g.textures))
	}

	if got := g.textures[0].Sampler; got != model.DefaultTextureSampler() {
		t.Errorf("texture without sampler = %+v", got)
	}
	if got := g.textures[0].Sampler.MinFilter; got != wgpu.FilterModeLinear {
		t.Errorf("default min filter = %v", got)
	}
	if got := g.textures[1].Sampler.MagFilter; got != wgpu.FilterModeNearest {
		t.Errorf("sampled texture mag filter = %v", got)
	}

	broken := g.textures[2]
	if broken.Width != 1 || broken.Height != 1 {
		t.Errorf("fallback size = %dx%d", broken.Width, broken.Height)
	}
	fake := broken.Image.(*renderertest.Texture)
	if !bytes.Equal(fake.Pixels.Pixels, []byte{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("fallback pixels = %v", fake.Pixels.Pixels)
	}
}

func TestDecodeImagesParallelMatchesSequential(t *testing.T) {
	doc := texturedDoc(t, 8)

	seq := builderFor(doc, nil)
	par := builderFor(doc, nil)
	par.decodeWorkers = 4

	a := seq.decodeImages()
	b := par.decodeImages()
	for i := range a {
		if !bytes.Equal(a[i].Pixels, b[i].Pixels) {
			t.Errorf("texture %d differs between sequential and parallel decode", i)
		}
		if a[i].Pixels[0] != uint8(i) {
			t.Errorf("texture %d stored at the wrong index", i)
		}
	}
}
