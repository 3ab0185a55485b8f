package rasterize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/framepool"
	"github.com/user/lottiemp4/pkg/lottie"
	"github.com/user/lottiemp4/pkg/lottie/lottietest"
	"github.com/user/lottiemp4/pkg/mocks"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

var size = pipeline.Dimension{Width: 64, Height: 32}

func newStage(doc *lottie.Document, r *mocks.Rasterizer, sink ports.DebugSink, bg color.Color) *Stage {
	return NewStage(lottie.NewPlayer(doc), r, &mocks.Renderer{}, framepool.New(), sink, logger.NewNoop(), size, bg)
}

func TestStage_ProducesOpaqueFrame(t *testing.T) {
	r := &mocks.Rasterizer{}
	stage := newStage(lottietest.Square(), r, nil, nil)

	buf, err := stage.Execute(context.Background(), Input{Index: 0, SampleTime: 0})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer stage.Release(buf)

	if buf.Bounds().Dx() != size.Width || buf.Bounds().Dy() != size.Height {
		t.Errorf("frame size = %v, want %s", buf.Bounds(), size)
	}
	// The mock raster is fully transparent, so only the white background shows.
	if got := buf.RGBAAt(10, 10); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected white background, got %v", got)
	}
	if !buf.Opaque() {
		t.Error("frame must be opaque")
	}
	if r.Outstanding() != 0 {
		t.Errorf("raster not released: %d outstanding", r.Outstanding())
	}
}

func TestStage_NormalizesSVGRoot(t *testing.T) {
	r := &mocks.Rasterizer{}
	stage := newStage(lottietest.Square(), r, nil, nil)

	buf, err := stage.Execute(context.Background(), Input{Index: 0, SampleTime: 15})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	stage.Release(buf)

	if len(r.SVGs) != 1 {
		t.Fatalf("expected 1 rasterize call, got %d", len(r.SVGs))
	}
	svg := r.SVGs[0]
	for _, want := range []string{`xmlns="http://www.w3.org/2000/svg"`, `width="64"`, `height="32"`, `viewBox="`} {
		if !bytes.Contains(svg, []byte(want)) {
			t.Errorf("normalized SVG missing %s: %s", want, svg)
		}
	}
}

func TestStage_SemiTransparentRasterIsFlattened(t *testing.T) {
	r := &mocks.Rasterizer{Fill: color.NRGBA{R: 255, A: 128}}
	stage := newStage(lottietest.Square(), r, nil, color.Black)

	buf, err := stage.Execute(context.Background(), Input{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer stage.Release(buf)

	c := buf.RGBAAt(5, 5)
	if c.A != 255 {
		t.Errorf("alpha = %d, want 255", c.A)
	}
	if c.R < 120 || c.R > 136 || c.G != 0 || c.B != 0 {
		t.Errorf("expected half red over black, got %v", c)
	}
}

func TestStage_SeekIsIdempotent(t *testing.T) {
	r := &mocks.Rasterizer{}
	stage := newStage(lottietest.Square(), r, nil, nil)

	for i := 0; i < 2; i++ {
		buf, err := stage.Execute(context.Background(), Input{Index: i, SampleTime: 10})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		stage.Release(buf)
	}
	if !bytes.Equal(r.SVGs[0], r.SVGs[1]) {
		t.Error("the same sample time must render the same SVG")
	}
}

// Scenario E: nothing to render.
func TestStage_EmptyScene(t *testing.T) {
	r := &mocks.Rasterizer{}
	stage := newStage(lottietest.Empty(), r, nil, nil)

	_, err := stage.Execute(context.Background(), Input{})
	if !errors.Is(err, pipeline.ErrRenderSurfaceMissing) {
		t.Errorf("expected ErrRenderSurfaceMissing, got %v", err)
	}
	if len(r.SVGs) != 0 {
		t.Error("rasterizer should not be called for an empty scene")
	}
}

func TestStage_RasterizeErrorReleasesNothing(t *testing.T) {
	want := errors.New("surface lost")
	r := &mocks.Rasterizer{
		RasterizeFunc: func(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
			return nil, want
		},
	}
	stage := newStage(lottietest.Square(), r, nil, nil)

	if _, err := stage.Execute(context.Background(), Input{}); !errors.Is(err, want) {
		t.Errorf("expected wrapped rasterizer error, got %v", err)
	}
}

func TestStage_ScalesMismatchedRaster(t *testing.T) {
	released := false
	r := &mocks.Rasterizer{
		RasterizeFunc: func(ctx context.Context, svg []byte, size pipeline.Dimension) (ports.Raster, error) {
			return mocks.NewRaster(image.NewRGBA(image.Rect(0, 0, 128, 64)), func() { released = true }), nil
		},
	}
	renderer := &mocks.Renderer{}
	stage := NewStage(lottie.NewPlayer(lottietest.Square()), r, renderer, nil, nil, logger.NewNoop(), size, nil)

	buf, err := stage.Execute(context.Background(), Input{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	stage.Release(buf)
	if !released {
		t.Error("raster should be released")
	}
	if renderer.CanvasCalls != 1 {
		t.Errorf("expected 1 canvas, got %d", renderer.CanvasCalls)
	}
}

func TestStage_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	stage := newStage(lottietest.Square(), &mocks.Rasterizer{}, sink, nil)

	for i := 0; i < 3; i++ {
		buf, err := stage.Execute(context.Background(), Input{Index: i, SampleTime: float64(i)})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		stage.Release(buf)
	}
	if len(sink.FrameSVGs) != 3 || sink.FrameCount() != 3 {
		t.Errorf("expected 3 saved SVGs and frames, got %d and %d", len(sink.FrameSVGs), sink.FrameCount())
	}
}
