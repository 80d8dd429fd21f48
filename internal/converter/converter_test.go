package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"go.uber.org/zap/zaptest"
)

func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestConverter_Convert_PercentScale(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 200, 100)

	res, err := c.Convert(src, "image/png", "photo.png", Options{
		Format:  FormatPNG,
		Percent: 50,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 100 || res.Height != 50 {
		t.Errorf("Expected dimensions 100x50, got %dx%d", res.Width, res.Height)
	}

	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Failed to decode output as PNG: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("Encoded dimensions 100x50 expected, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestConverter_Convert_WidthKeepsAspectRatio(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 800, 600)

	res, err := c.Convert(src, "image/png", "photo.png", Options{
		Format: FormatJPEG,
		Width:  300,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 300 {
		t.Errorf("Expected width 300, got %d", res.Width)
	}
	if res.Height != 225 {
		t.Errorf("Expected aspect-preserving height 225, got %d", res.Height)
	}
}

func TestConverter_Convert_HeightKeepsAspectRatio(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 800, 600)

	res, err := c.Convert(src, "image/png", "photo.png", Options{
		Format: FormatPNG,
		Height: 300,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 400 || res.Height != 300 {
		t.Errorf("Expected dimensions 400x300, got %dx%d", res.Width, res.Height)
	}
}

func TestConverter_Convert_ExplicitDimensions(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 800, 600)

	res, err := c.Convert(src, "image/png", "photo.png", Options{
		Format: FormatPNG,
		Width:  300,
		Height: 300,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 300 || res.Height != 300 {
		t.Errorf("Expected dimensions 300x300, got %dx%d", res.Width, res.Height)
	}
}

func TestConverter_Convert_PercentTakesPrecedence(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 200, 200)

	res, err := c.Convert(src, "image/png", "photo.png", Options{
		Format:  FormatPNG,
		Percent: 50,
		Width:   999,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 100 || res.Height != 100 {
		t.Errorf("Expected percent scaling to win (100x100), got %dx%d", res.Width, res.Height)
	}
}

func TestConverter_Convert_NoDimensionsPreservesOriginal(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 400, 300)

	res, err := c.Convert(src, "image/png", "photo.png", Options{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Width != 400 || res.Height != 300 {
		t.Errorf("Expected dimensions 400x300 (original), got %dx%d", res.Width, res.Height)
	}
}

func TestConverter_Convert_FormatConversion(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	src := createTestPNG(t, 100, 100)

	tests := []struct {
		format Format
		decode func([]byte) error
	}{
		{FormatJPEG, func(b []byte) error {
			_, err := jpeg.Decode(bytes.NewReader(b))
			return err
		}},
		{FormatWebP, func(b []byte) error {
			_, err := webp.Decode(bytes.NewReader(b))
			return err
		}},
		{FormatPNG, func(b []byte) error {
			_, err := png.Decode(bytes.NewReader(b))
			return err
		}},
	}

	for _, tt := range tests {
		res, err := c.Convert(src, "image/png", "photo.png", Options{Format: tt.format})
		if err != nil {
			t.Fatalf("Convert to %s failed: %v", tt.format, err)
		}
		if err := tt.decode(res.Data); err != nil {
			t.Errorf("Output does not decode as %s: %v", tt.format, err)
		}
		if res.MimeType != tt.format.MimeType() {
			t.Errorf("Expected mime %s, got %s", tt.format.MimeType(), res.MimeType)
		}
		if res.Size != int64(len(res.Data)) {
			t.Errorf("Size %d does not match payload length %d", res.Size, len(res.Data))
		}
	}
}

func TestConverter_Convert_InvalidInput(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	_, err := c.Convert([]byte("not an image"), "image/png", "broken.png", Options{Format: FormatPNG})
	if err == nil {
		t.Fatal("Expected error for invalid image payload, got nil")
	}
}

func TestConverter_Convert_UnsupportedInputType(t *testing.T) {
	c := New(zaptest.NewLogger(t))

	_, err := c.Convert(createTestPNG(t, 10, 10), "application/pdf", "doc.pdf", Options{Format: FormatPNG})
	if err == nil {
		t.Fatal("Expected error for unsupported input type, got nil")
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		original string
		format   Format
		upscaled bool
		want     string
	}{
		{"photo.png", FormatJPEG, false, "photo.jpg"},
		{"photo.jpeg", FormatWebP, false, "photo.webp"},
		{"photo.webp", FormatPNG, false, "photo.png"},
		{"archive.tar.gz", FormatPNG, false, "archive.tar.png"},
		{"noext", FormatJPEG, false, "noext.jpg"},
		{"photo.png", FormatPNG, true, "photo-upscaled.png"},
	}

	for _, tt := range tests {
		got := OutputFilename(tt.original, tt.format, tt.upscaled)
		if got != tt.want {
			t.Errorf("OutputFilename(%q, %s, %v) = %q, want %q",
				tt.original, tt.format, tt.upscaled, got, tt.want)
		}
	}
}
