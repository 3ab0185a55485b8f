// Package encode implements the encode/mux loop.
//
// Frames are rasterized, encoded and muxed strictly one after another. Encoded
// chunks are handed to the muxer as soon as the encoder returns them.
package encode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
	"github.com/user/lottiemp4/pkg/stages/plan"
	"github.com/user/lottiemp4/pkg/stages/rasterize"
)

// Progress percentages owned by the loop.
const (
	ProgressStart = 10
	ProgressSpan  = 85
	progressEvery = 5
)

// FrameSource produces pooled frame buffers.
type FrameSource = rasterize.FrameStage

// Input configures one run of the loop.
type Input struct {
	Plan     pipeline.Plan
	Config   pipeline.EncoderConfig
	Reporter ports.ProgressReporter
}

// Stage runs the encode/mux loop.
type Stage struct {
	frames  FrameSource
	encoder ports.VideoEncoder
	muxer   ports.Muxer
	logger  ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(frames FrameSource, encoder ports.VideoEncoder, muxer ports.Muxer, logger ports.Logger) *Stage {
	return &Stage{
		frames:  frames,
		encoder: encoder,
		muxer:   muxer,
		logger:  logger.WithComponent("encode"),
	}
}

// Execute encodes every planned frame and returns the finalized container.
// The encoder is always closed before returning. On cancellation nothing is
// flushed and pipeline.ErrCancelled is returned.
func (s *Stage) Execute(ctx context.Context, input Input) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}
	timing := input.Plan.Timing
	total := timing.TotalOutputFrames
	fps := timing.TargetFPS
	if total <= 0 || fps <= 0 {
		return result, fmt.Errorf("%w: %d frames at %d fps", pipeline.ErrInvalidDuration, total, fps)
	}

	s.logger.Debug("Encoding %d frames at %d fps", total, fps)

	if err := s.encoder.Begin(ctx, input.Config); err != nil {
		return result, fmt.Errorf("%w: begin: %w", pipeline.ErrEncoderRuntime, err)
	}
	defer s.encoder.Close()

	err := s.muxer.Begin(pipeline.MuxMetadata{
		Codec:  input.Config.Codec,
		Width:  input.Config.Width,
		Height: input.Config.Height,
		FPS:    fps,
	})
	if err != nil {
		return result, muxError(err)
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: at frame %d/%d: %w", pipeline.ErrCancelled, i, total, err)
		}

		chunks, err := s.encodeFrame(ctx, timing, i)
		if err != nil {
			return result, err
		}
		if err := s.appendChunks(chunks, &result); err != nil {
			return result, err
		}
		result.FrameCount++

		if i%progressEvery == 0 || i == total-1 {
			report(input.Reporter, pipeline.ProgressEvent{
				Message: fmt.Sprintf("Encoding frame %d/%d", i+1, total),
				Percent: ProgressStart + int(math.Round(float64(i)/float64(total)*ProgressSpan)),
			})
			runtime.Gosched()
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: before flush: %w", pipeline.ErrCancelled, err)
	}
	rest, err := s.encoder.Flush()
	if err != nil {
		return result, fmt.Errorf("%w: flush: %w", pipeline.ErrEncoderRuntime, err)
	}
	if err := s.appendChunks(rest, &result); err != nil {
		return result, err
	}

	data, err := s.muxer.Finalize()
	if err != nil {
		return result, muxError(err)
	}

	result.VideoData = data
	result.DurationMs = int(math.Round(timing.DurationSeconds * 1000))
	s.logger.Debug("Video encoded: %d bytes", len(data))
	return result, nil
}

// encodeFrame rasterizes frame i and submits it. The frame buffer goes back
// to the pool as soon as the encoder has taken it.
func (s *Stage) encodeFrame(ctx context.Context, timing pipeline.TimingPlan, i int) ([]pipeline.EncodedChunk, error) {
	buf, err := s.frames.Execute(ctx, rasterize.Input{Index: i, SampleTime: timing.SampleTime(i)})
	if err != nil {
		return nil, err
	}
	defer s.frames.Release(buf)

	pts := plan.PresentationTimestampUs(i, timing.TargetFPS)
	chunks, err := s.encoder.EncodeFrame(buf, pts, plan.IsKeyframe(i, timing.TargetFPS))
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %w", pipeline.ErrEncoderRuntime, i, err)
	}
	return chunks, nil
}

func (s *Stage) appendChunks(chunks []pipeline.EncodedChunk, result *pipeline.EncodeResult) error {
	for _, c := range chunks {
		if err := s.muxer.Append(c); err != nil {
			return muxError(err)
		}
		result.ChunkCount++
	}
	return nil
}

// muxError classifies any muxer failure as pipeline.ErrMux.
func muxError(err error) error {
	if errors.Is(err, pipeline.ErrMux) {
		return err
	}
	return fmt.Errorf("%w: %w", pipeline.ErrMux, err)
}

func report(r ports.ProgressReporter, e pipeline.ProgressEvent) {
	if r != nil {
		r.Report(e)
	}
}

var _ pipeline.Stage[Input, pipeline.EncodeResult] = (*Stage)(nil)
