// Package svgraster rasterizes SVG in pure Go with oksvg and rasterx.
package svgraster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/framepool"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// ErrNotOpen is returned when Rasterize is called outside Open/Close.
var ErrNotOpen = errors.New("svgraster: render surface not open")

// Rasterizer implements ports.Rasterizer. Its render surface is a pool of
// scratch images that outlives individual frames.
type Rasterizer struct {
	pool   *framepool.Pool
	logger ports.Logger

	mu   sync.Mutex
	open bool
}

// New creates a rasterizer drawing into buffers from pool.
// A nil pool uses a private one.
func New(pool *framepool.Pool, log ports.Logger) *Rasterizer {
	if pool == nil {
		pool = framepool.New()
	}
	if log == nil {
		log = logger.NewNoop()
	}
	return &Rasterizer{pool: pool, logger: log.WithComponent("svgraster")}
}

// Open marks the surface as acquired.
func (r *Rasterizer) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = true
	return ctx.Err()
}

// Rasterize draws svg scaled to size onto a transparent scratch image.
// Unsupported SVG features are skipped rather than treated as errors.
func (r *Rasterizer) Rasterize(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
	r.mu.Lock()
	open := r.open
	r.mu.Unlock()
	if !open {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("svgraster: parse: %w", err)
	}
	icon.SetTarget(0, 0, float64(size.Width), float64(size.Height))

	img := r.pool.Get(image.Rect(0, 0, size.Width, size.Height))
	clear(img.Pix)

	scanner := rasterx.NewScannerGV(size.Width, size.Height, img, img.Bounds())
	dasher := rasterx.NewDasher(size.Width, size.Height, scanner)
	icon.Draw(dasher, 1.0)

	return &raster{img: img, pool: r.pool}, nil
}

// Close releases the surface. It is safe to call more than once.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	return nil
}

type raster struct {
	img  *image.RGBA
	pool *framepool.Pool
}

func (r *raster) Image() image.Image {
	return r.img
}

func (r *raster) Release() {
	if r.img == nil {
		return
	}
	r.pool.Put(r.img)
	r.img = nil
}

var _ ports.Rasterizer = (*Rasterizer)(nil)
