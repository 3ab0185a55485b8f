// Package orchestrator runs one animation-to-video conversion end to end.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/lottiemp4/pkg/adapters/ggrenderer"
	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/adapters/mp4muxer"
	"github.com/user/lottiemp4/pkg/adapters/nullsink"
	"github.com/user/lottiemp4/pkg/framepool"
	"github.com/user/lottiemp4/pkg/lottie"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
	"github.com/user/lottiemp4/pkg/progress"
	"github.com/user/lottiemp4/pkg/stages/encode"
	"github.com/user/lottiemp4/pkg/stages/negotiate"
	"github.com/user/lottiemp4/pkg/stages/plan"
	"github.com/user/lottiemp4/pkg/stages/rasterize"
)

// Progress milestones outside the encode loop.
const (
	ProgressPreparing  = 0
	ProgressNegotiated = 5
	ProgressFinalizing = 95
	ProgressDone       = 100
)

// EncoderFactory creates an encoder for a negotiated configuration.
type EncoderFactory func(cfg pipeline.EncoderConfig) (ports.VideoEncoder, error)

// MuxerFactory creates a fresh container assembler.
type MuxerFactory func() ports.Muxer

// Options wires the orchestrator's collaborators.
// Rasterizer, Probers and NewEncoder are required; everything else has a default.
type Options struct {
	Rasterizer ports.Rasterizer
	Probers    []ports.EncoderProber
	NewEncoder EncoderFactory

	NewMuxer   MuxerFactory
	Renderer   ports.Renderer
	Pool       *framepool.Pool
	Sink       ports.DebugSink
	Logger     ports.Logger
	Background color.Color
}

// Orchestrator runs conversions one at a time.
// Use separate instances for concurrent conversions.
type Orchestrator struct {
	opts   Options
	logger ports.Logger

	mu    sync.Mutex
	state pipeline.State
}

// New creates an orchestrator in the Idle state.
func New(opts Options) *Orchestrator {
	if opts.NewMuxer == nil {
		opts.NewMuxer = func() ports.Muxer { return mp4muxer.New() }
	}
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	if opts.Pool == nil {
		opts.Pool = framepool.New()
	}
	if opts.Sink == nil {
		opts.Sink = nullsink.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Orchestrator{
		opts:   opts,
		logger: opts.Logger,
		state:  pipeline.Idle{},
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() pipeline.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s pipeline.State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// start moves to Rendering unless a conversion is already running.
func (o *Orchestrator) start() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !pipeline.CanStart(o.state) {
		return false
	}
	o.state = pipeline.Rendering{}
	return true
}

// Convert renders doc into a video. Progress is reported synchronously to
// reporter, which may be nil. Percentages never decrease and reach 100 only
// on success. The render surface is released before Convert returns, on every path.
func (o *Orchestrator) Convert(ctx context.Context, doc *lottie.Document, req pipeline.ConversionRequest, reporter ports.ProgressReporter) (result pipeline.ConversionResult, err error) {
	if !o.start() {
		return result, pipeline.ErrBusy
	}

	runID := uuid.NewString()
	began := time.Now()
	prog := progress.NewMonotonic(progress.Func(func(e pipeline.ProgressEvent) {
		o.setState(pipeline.Rendering{Progress: e})
		if reporter != nil {
			reporter.Report(e)
		}
	}))

	defer func() {
		if err != nil {
			if ctx.Err() != nil && !errors.Is(err, pipeline.ErrCancelled) {
				err = fmt.Errorf("%w: %w", pipeline.ErrCancelled, err)
			}
			if errors.Is(err, pipeline.ErrCancelled) {
				o.logger.Info("Conversion cancelled")
			} else {
				o.logger.Error("Conversion failed: %v", err)
			}
			o.setState(pipeline.Failed{Err: err})
			return
		}
		o.setState(pipeline.Completed{Result: result})
	}()

	if err := o.validate(doc); err != nil {
		return result, err
	}

	o.logger.Info("Starting conversion %s", runID)
	prog.Report(pipeline.ProgressEvent{Message: "Preparing", Percent: ProgressPreparing})

	p, err := plan.NewStage().Execute(ctx, plan.Input{
		FrameRate: doc.FrameRate,
		InPoint:   doc.InPoint,
		OutPoint:  doc.OutPoint,
		Request:   req,
	})
	if err != nil {
		return result, err
	}
	o.logger.Info("Converting %s at %d fps (%d frames, %.2fs)",
		p.Dimensions, p.Timing.TargetFPS, p.Timing.TotalOutputFrames, p.Timing.DurationSeconds)
	o.saveDebugJSON(o.opts.Sink.SavePlanJSON, p)

	cfg, err := negotiate.NewStage(o.logger, o.opts.Probers...).Execute(ctx, negotiate.Input{
		Resolution: req.Resolution,
		Dimensions: p.Dimensions,
		FPS:        p.Timing.TargetFPS,
	})
	if err != nil {
		return result, err
	}
	o.logger.Info("Encoder: %s %s, level %s, %d kbps", cfg.Codec, cfg.Profile, cfg.Level, cfg.Bitrate/1000)
	o.saveDebugJSON(o.opts.Sink.SaveEncoderJSON, cfg)
	prog.Report(pipeline.ProgressEvent{
		Message: fmt.Sprintf("Using %s (%s)", cfg.CodecString, cfg.Profile),
		Percent: ProgressNegotiated,
	})

	encoder, err := o.opts.NewEncoder(cfg)
	if err != nil {
		return result, fmt.Errorf("%w: create encoder: %w", pipeline.ErrEncoderRuntime, err)
	}

	if err := o.opts.Rasterizer.Open(ctx); err != nil {
		encoder.Close()
		return result, fmt.Errorf("open render surface: %w", err)
	}
	defer func() {
		if cerr := o.opts.Rasterizer.Close(); cerr != nil {
			o.logger.Warn("Failed to close rasterizer: %v", cerr)
		}
	}()

	player := lottie.NewPlayer(doc)
	frames := rasterize.NewStage(player, o.opts.Rasterizer, o.opts.Renderer, o.opts.Pool,
		o.opts.Sink, o.logger, p.Dimensions, o.opts.Background)
	encoded, err := encode.NewStage(frames, encoder, o.opts.NewMuxer(), o.logger).Execute(ctx, encode.Input{
		Plan:     p,
		Config:   cfg,
		Reporter: prog,
	})
	if err != nil {
		return result, err
	}

	prog.Report(pipeline.ProgressEvent{Message: "Finalizing", Percent: ProgressFinalizing})
	result = pipeline.ConversionResult{
		RunID:      runID,
		VideoData:  encoded.VideoData,
		FrameCount: encoded.FrameCount,
		DurationMs: encoded.DurationMs,
		FileSize:   int64(len(encoded.VideoData)),
		Dimensions: p.Dimensions,
		Encoder:    cfg,
	}
	o.logger.Info("Conversion completed: %d frames, %d bytes", result.FrameCount, result.FileSize)
	o.logger.Debug("Conversion %s took %s", runID, time.Since(began).Round(time.Millisecond))
	prog.Report(pipeline.ProgressEvent{Message: "Done", Percent: ProgressDone})
	return result, nil
}

func (o *Orchestrator) validate(doc *lottie.Document) error {
	if o.opts.Rasterizer == nil || o.opts.NewEncoder == nil {
		return errors.New("orchestrator: rasterizer and encoder factory are required")
	}
	if doc == nil {
		return fmt.Errorf("%w: no animation document", lottie.ErrInvalidDocument)
	}
	return nil
}

func (o *Orchestrator) saveDebugJSON(save func([]byte) error, v any) {
	if !o.opts.Sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		err = save(data)
	}
	if err != nil {
		o.logger.Warn("Failed to save debug data: %v", err)
	}
}
