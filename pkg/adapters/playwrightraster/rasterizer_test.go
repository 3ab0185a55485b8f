package playwrightraster

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/user/lottiemp4/pkg/pipeline"
)

func TestDocument(t *testing.T) {
	doc := Document([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"/>`))
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %s", doc)
	}
	if !strings.Contains(doc, `<body><svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"/></body>`) {
		t.Errorf("svg not embedded in body: %s", doc)
	}
	if !strings.Contains(doc, "margin:0") {
		t.Errorf("body margin not reset: %s", doc)
	}
}

func TestRasterizer_NotOpen(t *testing.T) {
	r := New(Options{})
	_, err := r.Rasterize(context.Background(), []byte(`<svg/>`), pipeline.Dimension{Width: 2, Height: 2})
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close without Open: %v", err)
	}
}

func TestRasterizer_Playwright(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	r := New(Options{})
	if err := r.Open(context.Background()); err != nil {
		t.Skipf("Playwright not available: %v", err)
	}
	defer r.Close()

	size := pipeline.Dimension{Width: 40, Height: 20}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20">` +
		`<rect x="20" y="0" width="20" height="20" fill="#00ff00"/></svg>`
	out, err := r.Rasterize(context.Background(), []byte(svg), size)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	defer out.Release()

	img := out.Image()
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("unexpected size %v", b)
	}
	if c := color.RGBAModel.Convert(img.At(30, 10)).(color.RGBA); c.G < 200 || c.A != 255 {
		t.Errorf("right pixel = %v, want green", c)
	}
	if c := color.RGBAModel.Convert(img.At(5, 10)).(color.RGBA); c.A != 0 {
		t.Errorf("left pixel = %v, want transparent", c)
	}
}
