package processing

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

	"github.com/chai2010/webp"
)

// createTestImage builds a gradient so resized copies stay recognizable.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 96, 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func writeWebP(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func TestLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	src := createTestImage(80, 60)

	tests := []struct {
		name string
		path string
	}{
		{"jpeg", writeJPEG(t, dir, "photo.jpg", src)},
		{"png", writePNG(t, dir, "photo.png", src)},
		{"webp", writeWebP(t, dir, "photo.webp", src)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := p.LoadImage(tt.path)
			if err != nil {
				t.Fatalf("LoadImage failed: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != 80 || b.Dy() != 60 {
				t.Errorf("Expected 80x60, got %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	p := NewProcessor()
	if _, err := p.LoadImage(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadImageOriented(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	path := writeJPEG(t, dir, "upright.jpg", createTestImage(64, 48))

	// Encoded without EXIF, so orientation 1: dimensions must survive.
	img, err := p.LoadImageOriented(path)
	if err != nil {
		t.Fatalf("LoadImageOriented failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("Expected 64x48, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestValidateFile(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()

	good := writeJPEG(t, dir, "good.jpg", createTestImage(20, 20))
	if err := p.ValidateFile(good); err != nil {
		t.Errorf("Valid JPEG rejected: %v", err)
	}

	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("this is not an image at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.ValidateFile(bad); err == nil {
		t.Error("Garbage file passed validation")
	}

	if err := p.ValidateFile(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("Missing file passed validation")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(400, 200)

	b64, err := p.PrepareImageForModel(img, "jpg", 100, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("Output is not valid base64: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Output is not a JPEG: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 100 {
		t.Errorf("Expected longest side resized to 100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dy() != 50 {
		t.Errorf("Expected aspect preserved (50), got %d", bounds.Dy())
	}
}

func TestPrepareImageForModelNoResize(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(50, 40)

	b64, err := p.PrepareImageForModel(img, "jpg", 100, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, _ := base64.StdEncoding.DecodeString(b64)
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 40 {
		t.Errorf("Image under maxDim must not be resized, got %v", decoded.Bounds())
	}
}

func TestPrepareImageForModelPNG(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(30, 30)

	b64, err := p.PrepareImageForModel(img, "png", 0, 0)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, _ := base64.StdEncoding.DecodeString(b64)
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("Output is not a PNG: %v", err)
	}
}

func TestReadOrientationDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(10, 10), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"jpeg without exif", buf.Bytes()},
		{"garbage", []byte("garbage bytes")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadOrientation(tt.data); got != 1 {
				t.Errorf("Expected orientation 1, got %d", got)
			}
		})
	}
}

func TestFixOrientation(t *testing.T) {
	src := createTestImage(40, 20)

	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{1, 40, 20},
		{2, 40, 20},
		{3, 40, 20},
		{4, 40, 20},
		{5, 20, 40},
		{6, 20, 40},
		{7, 20, 40},
		{8, 20, 40},
		{0, 40, 20},  // unknown passes through
		{99, 40, 20}, // unknown passes through
	}

	for _, tt := range tests {
		got := FixOrientation(src, tt.orientation)
		b := got.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("Orientation %d: expected %dx%d, got %dx%d",
				tt.orientation, tt.wantW, tt.wantH, b.Dx(), b.Dy())
		}
	}
}

func TestFixOrientationFlipH(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	flipped := FixOrientation(img, 2)

	r, _, _, _ := flipped.At(3, 0).RGBA()
	if r>>8 != 255 {
		t.Error("FlipH should move the (0,0) marker to (3,0)")
	}
}
