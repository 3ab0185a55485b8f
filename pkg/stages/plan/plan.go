// Package plan implements the planning stage: output dimensions and frame timing.
package plan

import (
	"context"
	"fmt"
	"math"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// Input holds the animation range and the caller's request.
type Input struct {
	FrameRate float64
	InPoint   float64
	OutPoint  float64
	Request   pipeline.ConversionRequest
}

// Stage computes the conversion plan.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new plan stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute resolves the output dimensions and the frame timing.
func (s *Stage) Execute(ctx context.Context, input Input) (pipeline.Plan, error) {
	timing, err := ComputeTiming(input.FrameRate, input.InPoint, input.OutPoint, input.Request.FPS)
	if err != nil {
		return pipeline.Plan{}, err
	}
	return pipeline.Plan{
		Dimensions: ResolveDimensions(input.Request.Resolution),
		Timing:     timing,
	}, nil
}

// ResolveDimensions maps a resolution class to even pixel dimensions.
// Unknown classes resolve to FHD.
func ResolveDimensions(r pipeline.Resolution) pipeline.Dimension {
	var w, h int
	switch r {
	case pipeline.ResolutionHD:
		w, h = 1280, 720
	case pipeline.ResolutionUHD:
		w, h = 3840, 2160
	default:
		w, h = 1920, 1080
	}
	// 4:2:0 chroma subsampling needs even sizes
	return pipeline.Dimension{Width: w &^ 1, Height: h &^ 1}
}

// MaxOutputFrames bounds the frame count of a single conversion.
const MaxOutputFrames = math.MaxInt32

// ComputeTiming derives the frame timing plan.
// Returns pipeline.ErrInvalidDuration when the range yields no output frames.
func ComputeTiming(frameRate, inPoint, outPoint float64, targetFPS int) (pipeline.TimingPlan, error) {
	if frameRate <= 0 || targetFPS <= 0 || math.IsNaN(frameRate) || math.IsNaN(inPoint) || math.IsNaN(outPoint) {
		return pipeline.TimingPlan{}, fmt.Errorf("%w: frame rate %g, target fps %d", pipeline.ErrInvalidDuration, frameRate, targetFPS)
	}
	duration := (outPoint - inPoint) / frameRate
	total := math.Ceil(duration * float64(targetFPS))
	if total <= 0 || total > MaxOutputFrames || math.IsInf(total, 0) {
		return pipeline.TimingPlan{}, fmt.Errorf("%w: range [%g, %g) at %g fps", pipeline.ErrInvalidDuration, inPoint, outPoint, frameRate)
	}
	return pipeline.TimingPlan{
		DurationSeconds:   duration,
		SourceTotalFrames: outPoint - inPoint,
		TotalOutputFrames: int(total),
		TargetFPS:         targetFPS,
	}, nil
}

// PresentationTimestampUs returns the timestamp of output frame i in microseconds.
// Frames are paced at a fixed interval.
func PresentationTimestampUs(i, fps int) int64 {
	return int64(math.Round(float64(i) * (1_000_000 / float64(fps))))
}

// IsKeyframe reports whether output frame i must be a keyframe.
// A keyframe is forced every two seconds of output.
func IsKeyframe(i, fps int) bool {
	return i%(fps*2) == 0
}

// KeyframeInterval returns the forced keyframe distance in frames.
func KeyframeInterval(fps int) int {
	return fps * 2
}

var _ pipeline.Stage[Input, pipeline.Plan] = (*Stage)(nil)
