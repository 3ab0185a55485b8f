// Package rasterize implements the frame rasterization stage.
//
// Each call seeks the animation player to a sample time, renders the scene to
// SVG, normalizes the SVG root and rasterizes it onto an opaque pooled buffer.
package rasterize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/lottiemp4/pkg/framepool"
	"github.com/user/lottiemp4/pkg/lottie"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
	"github.com/user/lottiemp4/pkg/svgroot"
)

// Input identifies one output frame.
type Input struct {
	Index      int
	SampleTime float64 // source frames relative to the in-point
}

// FrameStage produces pooled frame buffers.
type FrameStage interface {
	pipeline.Stage[Input, *image.RGBA]
	Release(buf *image.RGBA)
}

// Stage rasterizes animation frames.
// The rasterizer's render surface must be opened by the caller.
type Stage struct {
	player     *lottie.Player
	rasterizer ports.Rasterizer
	renderer   ports.Renderer
	pool       *framepool.Pool
	sink       ports.DebugSink
	logger     ports.Logger
	size       pipeline.Dimension
	background color.Color
}

// NewStage creates a new rasterize stage producing frames of the given size.
// A nil background means white.
func NewStage(player *lottie.Player, rasterizer ports.Rasterizer, renderer ports.Renderer, pool *framepool.Pool,
	sink ports.DebugSink, logger ports.Logger, size pipeline.Dimension, background color.Color) *Stage {
	if background == nil {
		background = color.White
	}
	if pool == nil {
		pool = framepool.New()
	}
	return &Stage{
		player:     player,
		rasterizer: rasterizer,
		renderer:   renderer,
		pool:       pool,
		sink:       sink,
		logger:     logger.WithComponent("rasterize"),
		size:       size,
		background: opaque(background),
	}
}

// Execute renders one frame. The returned buffer belongs to the pool and must be
// handed back with Release once the encoder has consumed it.
func (s *Stage) Execute(ctx context.Context, input Input) (*image.RGBA, error) {
	doc := s.player.Document()
	s.player.Seek(doc.InPoint + input.SampleTime)

	svg, err := s.player.RenderSVG()
	if err != nil {
		if errors.Is(err, lottie.ErrEmptyScene) {
			return nil, fmt.Errorf("%w: frame %d: %w", pipeline.ErrRenderSurfaceMissing, input.Index, err)
		}
		return nil, fmt.Errorf("render frame %d: %w", input.Index, err)
	}

	svg, err = svgroot.Normalize(svg, s.size.Width, s.size.Height)
	if err != nil {
		return nil, fmt.Errorf("normalize frame %d: %w", input.Index, err)
	}
	if s.sink != nil && s.sink.Enabled() {
		if err := s.sink.SaveFrameSVG(input.Index, svg); err != nil {
			s.logger.Warn("Failed to save debug SVG for frame %d: %v", input.Index, err)
		}
	}

	raster, err := s.rasterizer.Rasterize(ctx, svg, s.size)
	if err != nil {
		return nil, fmt.Errorf("rasterize frame %d: %w", input.Index, err)
	}
	defer raster.Release()

	buf := s.pool.Get(image.Rect(0, 0, s.size.Width, s.size.Height))
	canvas := s.renderer.CanvasFor(buf, s.background)
	src := raster.Image()
	if b := src.Bounds(); b.Dx() == s.size.Width && b.Dy() == s.size.Height {
		canvas.DrawImage(src, 0, 0)
	} else {
		s.logger.Debug("Raster is %dx%d, scaling to %s", b.Dx(), b.Dy(), s.size)
		canvas.DrawImageScaled(src, 0, 0, s.size.Width, s.size.Height)
	}

	if s.sink != nil && s.sink.Enabled() {
		if err := s.sink.SaveFrame(input.Index, buf); err != nil {
			s.logger.Warn("Failed to save debug frame %d: %v", input.Index, err)
		}
	}
	return buf, nil
}

// Release returns a frame buffer to the pool.
func (s *Stage) Release(buf *image.RGBA) {
	s.pool.Put(buf)
}

// opaque drops any alpha from c so that composited frames never carry transparency.
func opaque(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}

var _ FrameStage = (*Stage)(nil)
