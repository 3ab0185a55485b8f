package ports

import (
	"context"
	"image"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// Rasterizer turns an SVG document into pixels.
// A rasterizer owns an off-screen render surface between Open and Close.
type Rasterizer interface {
	// Open acquires the render surface for one conversion.
	Open(ctx context.Context) error

	// Rasterize renders svg at exactly size pixels.
	// The returned Raster must be released by the caller.
	Rasterize(ctx context.Context, svg []byte, size pipeline.Dimension) (Raster, error)

	// Close releases the render surface. It is safe to call more than once.
	Close() error
}

// Raster is a scoped rasterization result.
type Raster interface {
	// Image returns the rasterized pixels, possibly with transparency.
	Image() image.Image

	// Release frees the underlying resources. The image must not be used afterwards.
	Release()
}
