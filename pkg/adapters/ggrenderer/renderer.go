// Package ggrenderer implements ports.Renderer. Compositing goes through gg;
// resampling uses the Catmull-Rom kernel from x/image/draw.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/lottiemp4/pkg/ports"
)

// Renderer implements ports.Renderer.
type Renderer struct {
	png png.Encoder
}

// New creates a Renderer. PNG output favors speed over size since it is only
// used for debug frames.
func New() *Renderer {
	return &Renderer{png: png.Encoder{CompressionLevel: png.BestSpeed}}
}

// CanvasFor wraps dst in a gg context and clears it to bg.
// Everything drawn afterwards is composited over bg, so an opaque bg yields opaque pixels.
func (r *Renderer) CanvasFor(dst *image.RGBA, bg color.Color) ports.Canvas {
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, dst: dst}
}

func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if format != ports.FormatPNG {
		return nil, fmt.Errorf("ggrenderer: unsupported format %s", format)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}

func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat) ([]byte, error) {
	if format != ports.FormatPNG {
		return nil, fmt.Errorf("ggrenderer: unsupported format %s", format)
	}
	var buf bytes.Buffer
	if err := r.png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// ResizeImage keeps the source alpha; callers composite the result themselves.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas over a frame buffer.
type Canvas struct {
	dc  *gg.Context
	dst *image.RGBA
}

func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}

func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	if width <= 0 || height <= 0 || img.Bounds().Empty() {
		return
	}
	rect := image.Rect(x, y, x+width, y+height)
	draw.CatmullRom.Scale(c.dst, rect, img, img.Bounds(), draw.Over, nil)
}

var _ ports.Canvas = (*Canvas)(nil)
