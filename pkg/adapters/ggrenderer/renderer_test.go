package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/lottiemp4/pkg/ports"
)

func TestRenderer_CanvasFor(t *testing.T) {
	r := New()

	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	canvas := r.CanvasFor(dst, color.White)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	// The canvas draws into dst
	if got := dst.RGBAAt(50, 50); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected white background in dst, got %v", got)
	}
}

func TestRenderer_EncodeDecodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	// Encode
	data, err := r.EncodeImage(img, ports.FormatPNG)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	// Decode
	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("expected 30x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	// Create 100x100 image
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	// Resize to 50x50
	resized := r.ResizeImage(img, 50, 50)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	canvas := r.CanvasFor(dst, color.White)

	// Create small red image
	small := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			small.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	// Draw at position (10, 10)
	canvas.DrawImage(small, 10, 10)

	if c := dst.RGBAAt(15, 15); c.R < 250 || c.G > 5 || c.A != 255 {
		t.Errorf("expected red pixel from drawn image, got %v", c)
	}
	if c := dst.RGBAAt(5, 5); c != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected background outside the drawn image, got %v", c)
	}
}

func TestCanvas_TransparentSourceStaysOpaque(t *testing.T) {
	r := New()
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	canvas := r.CanvasFor(dst, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	// Half transparent red over opaque blue
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range src.Pix {
		if i%4 == 0 || i%4 == 3 {
			src.Pix[i] = 128
		}
	}
	canvas.DrawImage(src, 0, 0)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if a := dst.RGBAAt(x, y).A; a != 255 {
				t.Fatalf("pixel (%d,%d) alpha = %d, want 255", x, y, a)
			}
		}
	}
	c := dst.RGBAAt(5, 5)
	if c.R < 120 || c.B < 120 {
		t.Errorf("expected a red/blue blend, got %v", c)
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	dst := image.NewRGBA(image.Rect(0, 0, 40, 20))
	canvas := r.CanvasFor(dst, color.White)

	small := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := 0; i < len(small.Pix); i += 4 {
		small.Pix[i], small.Pix[i+3] = 255, 255
	}
	canvas.DrawImageScaled(small, 0, 0, 40, 20)

	if c := dst.RGBAAt(20, 10); c.R != 255 || c.G > 10 {
		t.Errorf("expected red at center after scaling, got %v", c)
	}
}

func TestRenderer_ResizeImageKeepsAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	resized := New().ResizeImage(src, 16, 16).(*image.RGBA)
	if a := resized.RGBAAt(8, 8).A; a != 0 {
		t.Errorf("expected a transparent pixel, got alpha %d", a)
	}
}

func TestRenderer_UnsupportedFormat(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(7)); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if _, err := r.DecodeImage([]byte("not a png"), ports.FormatPNG); err == nil {
		t.Error("expected a decode error")
	}
}
