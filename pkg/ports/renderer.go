package ports

import (
	"image"
	"image/color"
)

// Renderer composites rasters onto frame buffers and converts them to and from files.
type Renderer interface {
	// CanvasFor wraps dst as a drawing canvas and fills it with bg.
	CanvasFor(dst *image.RGBA, bg color.Color) Canvas

	DecodeImage(data []byte, format ImageFormat) (image.Image, error)
	EncodeImage(img image.Image, format ImageFormat) ([]byte, error)

	// ResizeImage returns a copy of img resampled to width x height.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas draws onto the buffer it was created for.
type Canvas interface {
	// DrawImage composites img over the canvas with its top-left corner at (x, y).
	DrawImage(img image.Image, x, y int)

	// DrawImageScaled composites img over the canvas, resampled to fill the given rectangle.
	DrawImageScaled(img image.Image, x, y, width, height int)
}

// ImageFormat identifies an image file format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
)

func (f ImageFormat) String() string {
	if f == FormatPNG {
		return "png"
	}
	return "unknown"
}
