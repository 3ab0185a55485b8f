package mocks

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/user/lottiemp4/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// CanvasFor composites with image/draw so that pixel checks in tests still hold.
type Renderer struct {
	DecodeImageFunc func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc func(img image.Image, format ports.ImageFormat) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image

	CanvasCalls int
}

func (m *Renderer) CanvasFor(dst *image.RGBA, bg color.Color) ports.Canvas {
	m.CanvasCalls++
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Canvas{img: dst}
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	img *image.RGBA

	ScaledCalls int
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	r := img.Bounds().Sub(img.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(m.img, r, img, img.Bounds().Min, draw.Over)
}

// DrawImageScaled ignores scaling and draws at the original size.
func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.ScaledCalls++
	m.DrawImage(img, x, y)
}

var _ ports.Canvas = (*Canvas)(nil)
