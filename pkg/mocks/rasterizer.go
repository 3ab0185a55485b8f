package mocks

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Rasterizer is a mock implementation of ports.Rasterizer.
// Without RasterizeFunc it returns a canvas filled with Fill (transparent by default).
type Rasterizer struct {
	mu sync.Mutex

	OpenFunc      func(ctx context.Context) error
	RasterizeFunc func(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error)
	Fill          color.Color

	OpenCalls  int
	CloseCalls int
	SVGs       [][]byte
	Acquired   int
	Released   int
}

func (m *Rasterizer) Open(ctx context.Context) error {
	m.mu.Lock()
	m.OpenCalls++
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return nil
}

func (m *Rasterizer) Rasterize(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
	m.mu.Lock()
	m.SVGs = append(m.SVGs, svg)
	m.mu.Unlock()

	if m.RasterizeFunc != nil {
		return m.RasterizeFunc(ctx, svg, size)
	}

	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	if m.Fill != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(m.Fill), image.Point{}, draw.Src)
	}
	m.mu.Lock()
	m.Acquired++
	m.mu.Unlock()
	return &Raster{img: img, release: m.release}, nil
}

func (m *Rasterizer) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released++
}

func (m *Rasterizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// Outstanding returns the number of rasters not yet released.
func (m *Rasterizer) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Acquired - m.Released
}

var _ ports.Rasterizer = (*Rasterizer)(nil)

// Raster is a mock implementation of ports.Raster.
type Raster struct {
	img      image.Image
	release  func()
	released bool
}

// NewRaster wraps img; release may be nil.
func NewRaster(img image.Image, release func()) *Raster {
	return &Raster{img: img, release: release}
}

func (r *Raster) Image() image.Image {
	return r.img
}

func (r *Raster) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.release != nil {
		r.release()
	}
}

var _ ports.Raster = (*Raster)(nil)
