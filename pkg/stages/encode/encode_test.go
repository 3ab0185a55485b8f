package encode

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/mocks"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/progress"
	"github.com/user/lottiemp4/pkg/stages/plan"
	"github.com/user/lottiemp4/pkg/stages/rasterize"
)

// fakeFrames hands out opaque frames and tracks their return.
type fakeFrames struct {
	size     image.Rectangle
	inputs   []rasterize.Input
	out      int
	onFrame  func(i int)
	failAt   int
	failWith error
}

func (f *fakeFrames) Execute(ctx context.Context, input rasterize.Input) (*image.RGBA, error) {
	if f.failWith != nil && input.Index == f.failAt {
		return nil, f.failWith
	}
	if f.onFrame != nil {
		f.onFrame(input.Index)
	}
	f.inputs = append(f.inputs, input)
	f.out++
	img := image.NewRGBA(f.size)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img, nil
}

func (f *fakeFrames) Release(buf *image.RGBA) {
	f.out--
}

func testInput(t *testing.T, frameRate, ip, op float64, res pipeline.Resolution, fps int) Input {
	t.Helper()
	p, err := plan.NewStage().Execute(context.Background(), plan.Input{
		FrameRate: frameRate, InPoint: ip, OutPoint: op,
		Request: pipeline.ConversionRequest{Resolution: res, FPS: fps},
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	// Small frames keep the test fast; the loop never looks at the pixel size.
	p.Dimensions = pipeline.Dimension{Width: 16, Height: 8}
	return Input{
		Plan: p,
		Config: pipeline.EncoderConfig{
			Codec: pipeline.CodecH264, Profile: pipeline.ProfileHigh,
			FPS: fps, Width: 16, Height: 8, KeyframeInterval: fps * 2,
		},
	}
}

func newFrames() *fakeFrames {
	return &fakeFrames{size: image.Rect(0, 0, 16, 8), failAt: -1}
}

// Scenario A: one second at FHD/30.
func TestStage_ScenarioA(t *testing.T) {
	frames := newFrames()
	enc := &mocks.VideoEncoder{}
	mux := &mocks.Muxer{}
	var events []pipeline.ProgressEvent

	input := testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30)
	input.Reporter = progress.Func(func(e pipeline.ProgressEvent) { events = append(events, e) })

	result, err := NewStage(frames, enc, mux, logger.NewNoop()).Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(enc.EncodeFrameCalls) != 30 {
		t.Fatalf("expected 30 EncodeFrame calls, got %d", len(enc.EncodeFrameCalls))
	}
	for i, call := range enc.EncodeFrameCalls {
		if want := plan.PresentationTimestampUs(i, 30); call.TimestampUs != want {
			t.Errorf("frame %d timestamp = %d, want %d", i, call.TimestampUs, want)
		}
		if call.Keyframe != (i == 0) {
			t.Errorf("frame %d keyframe = %v", i, call.Keyframe)
		}
		if !call.Opaque {
			t.Errorf("frame %d is not opaque", i)
		}
	}
	if frames.out != 0 {
		t.Errorf("%d frame buffers not released", frames.out)
	}
	if mux.FinalizeCalls != 1 {
		t.Errorf("Finalize called %d times", mux.FinalizeCalls)
	}
	if result.FrameCount != 30 || result.ChunkCount != 30 || result.DurationMs != 1000 {
		t.Errorf("unexpected result: frames=%d chunks=%d duration=%d", result.FrameCount, result.ChunkCount, result.DurationMs)
	}
	if len(result.VideoData) == 0 {
		t.Error("expected video data")
	}

	// Progress at frames 0, 5, ..., 25 and the final frame 29.
	wantPercents := []int{10, 24, 38, 53, 67, 81, 92}
	if len(events) != len(wantPercents) {
		t.Fatalf("expected %d progress events, got %d", len(wantPercents), len(events))
	}
	for i, e := range events {
		if e.Percent != wantPercents[i] {
			t.Errorf("event %d percent = %d, want %d", i, e.Percent, wantPercents[i])
		}
	}
	if events[len(events)-1].Message != "Encoding frame 30/30" {
		t.Errorf("unexpected final message %q", events[len(events)-1].Message)
	}
}

func TestStage_SampleTimes(t *testing.T) {
	frames := newFrames()
	input := testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 60)

	if _, err := NewStage(frames, &mocks.VideoEncoder{}, &mocks.Muxer{}, logger.NewNoop()).Execute(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames.inputs) != 60 {
		t.Fatalf("expected 60 frames, got %d", len(frames.inputs))
	}
	for i, in := range frames.inputs {
		if want := input.Plan.Timing.SampleTime(i); in.SampleTime != want {
			t.Errorf("frame %d sample time = %v, want %v", i, in.SampleTime, want)
		}
	}
}

func TestStage_DelayedChunksStayOrdered(t *testing.T) {
	enc := &mocks.VideoEncoder{Delay: 4}
	mux := &mocks.Muxer{}
	input := testInput(t, 30, 0, 90, pipeline.ResolutionFHD, 30)

	result, err := NewStage(newFrames(), enc, mux, logger.NewNoop()).Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enc.FlushCalled {
		t.Error("expected Flush")
	}
	if len(mux.Chunks) != 90 || result.ChunkCount != 90 {
		t.Fatalf("expected 90 chunks, got %d", len(mux.Chunks))
	}
	var keys []int
	for i, c := range mux.Chunks {
		if i > 0 && c.TimestampUs <= mux.Chunks[i-1].TimestampUs {
			t.Fatalf("chunk %d out of order", i)
		}
		if c.Keyframe {
			keys = append(keys, i)
		}
	}
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 60 {
		t.Errorf("keyframes = %v, want [0 60]", keys)
	}
}

// Scenario F: the encoder fails at frame 10 of 30.
func TestStage_EncoderErrorMidway(t *testing.T) {
	frames := newFrames()
	enc := &mocks.VideoEncoder{}
	enc.EncodeFrameFunc = func(img image.Image, ts int64, key bool) ([]pipeline.EncodedChunk, error) {
		if len(enc.EncodeFrameCalls) == 11 {
			return nil, errors.New("hardware session lost")
		}
		return []pipeline.EncodedChunk{{Data: []byte{1}, TimestampUs: ts, Keyframe: key}}, nil
	}
	mux := &mocks.Muxer{}
	var last int
	input := testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30)
	input.Reporter = progress.Func(func(e pipeline.ProgressEvent) { last = e.Percent })

	_, err := NewStage(frames, enc, mux, logger.NewNoop()).Execute(context.Background(), input)
	if !errors.Is(err, pipeline.ErrEncoderRuntime) {
		t.Fatalf("expected ErrEncoderRuntime, got %v", err)
	}
	if want := "hardware session lost"; !strings.Contains(err.Error(), want) {
		t.Errorf("error should carry the codec diagnostic: %v", err)
	}
	if enc.CloseCalls != 1 {
		t.Errorf("Close called %d times, want 1", enc.CloseCalls)
	}
	if enc.FlushCalled || mux.FinalizeCalls != 0 {
		t.Error("nothing may be flushed or finalized after a failure")
	}
	if frames.out != 0 {
		t.Errorf("%d frame buffers not released", frames.out)
	}
	if last == 100 {
		t.Error("progress must not reach 100 on failure")
	}
}

func TestStage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := newFrames()
	frames.onFrame = func(i int) {
		if i == 7 {
			cancel()
		}
	}
	enc := &mocks.VideoEncoder{}
	mux := &mocks.Muxer{}

	_, err := NewStage(frames, enc, mux, logger.NewNoop()).Execute(ctx, testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30))
	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(enc.EncodeFrameCalls) != 8 {
		t.Errorf("expected the loop to stop after frame 7, got %d frames", len(enc.EncodeFrameCalls))
	}
	if enc.FlushCalled || mux.FinalizeCalls != 0 {
		t.Error("cancelled conversions are discarded, not flushed")
	}
	if enc.CloseCalls != 1 {
		t.Errorf("Close called %d times, want 1", enc.CloseCalls)
	}
}

func TestStage_MuxError(t *testing.T) {
	mux := &mocks.Muxer{
		AppendFunc: func(c pipeline.EncodedChunk) error {
			if c.TimestampUs > 100_000 {
				return errors.New("disk full")
			}
			return nil
		},
	}
	enc := &mocks.VideoEncoder{}

	_, err := NewStage(newFrames(), enc, mux, logger.NewNoop()).Execute(context.Background(), testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30))
	if !errors.Is(err, pipeline.ErrMux) {
		t.Fatalf("expected ErrMux, got %v", err)
	}
	if enc.CloseCalls != 1 {
		t.Errorf("Close called %d times", enc.CloseCalls)
	}
}

func TestStage_MuxerLifecycleErrors(t *testing.T) {
	tests := []struct {
		name string
		mux  *mocks.Muxer
	}{
		{"begin", &mocks.Muxer{BeginFunc: func(meta pipeline.MuxMetadata) error {
			return errors.New("unsupported track")
		}}},
		{"finalize", &mocks.Muxer{FinalizeFunc: func() ([]byte, error) {
			return nil, errors.New("short write")
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &mocks.VideoEncoder{}
			_, err := NewStage(newFrames(), enc, tt.mux, logger.NewNoop()).Execute(context.Background(), testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30))
			if !errors.Is(err, pipeline.ErrMux) {
				t.Fatalf("expected ErrMux, got %v", err)
			}
			if enc.CloseCalls != 1 {
				t.Errorf("Close called %d times, want 1", enc.CloseCalls)
			}
		})
	}
}

func TestStage_BeginError(t *testing.T) {
	enc := &mocks.VideoEncoder{
		BeginFunc: func(ctx context.Context, cfg pipeline.EncoderConfig) error {
			return errors.New("no session")
		},
	}
	_, err := NewStage(newFrames(), enc, &mocks.Muxer{}, logger.NewNoop()).Execute(context.Background(), testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30))
	if !errors.Is(err, pipeline.ErrEncoderRuntime) {
		t.Fatalf("expected ErrEncoderRuntime, got %v", err)
	}
}

func TestStage_RenderErrorPropagates(t *testing.T) {
	frames := newFrames()
	frames.failAt = 3
	frames.failWith = pipeline.ErrRenderSurfaceMissing

	_, err := NewStage(frames, &mocks.VideoEncoder{}, &mocks.Muxer{}, logger.NewNoop()).Execute(context.Background(), testInput(t, 30, 0, 30, pipeline.ResolutionFHD, 30))
	if !errors.Is(err, pipeline.ErrRenderSurfaceMissing) {
		t.Fatalf("expected ErrRenderSurfaceMissing, got %v", err)
	}
}
