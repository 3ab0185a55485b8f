package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int
	Height int
}

// String returns the dimension formatted as WxH.
func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Resolution is the output resolution class requested by the caller.
type Resolution string

const (
	ResolutionHD  Resolution = "hd"
	ResolutionFHD Resolution = "fhd"
	ResolutionUHD Resolution = "uhd"
)

// ParseResolution parses a resolution class name.
// Accepts the class names as well as the common aliases 720p, 1080p, 4k and 2160p.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hd", "720p":
		return ResolutionHD, nil
	case "fhd", "1080p", "":
		return ResolutionFHD, nil
	case "uhd", "4k", "2160p":
		return ResolutionUHD, nil
	default:
		return "", fmt.Errorf("unknown resolution %q (want hd, fhd or uhd)", s)
	}
}

// ConversionRequest is supplied once per conversion.
type ConversionRequest struct {
	Resolution Resolution
	FPS        int // Target output frame rate (30, 60 or 120 in practice)
}

// =============================================================================
// Plan Stage Types
// =============================================================================

// TimingPlan holds the values derived from the animation range and the target frame rate.
type TimingPlan struct {
	DurationSeconds   float64 // (outPoint - inPoint) / frameRate
	SourceTotalFrames float64 // outPoint - inPoint
	TotalOutputFrames int     // ceil(DurationSeconds * TargetFPS)
	TargetFPS         int
}

// SampleTime maps an output frame index to a source sample time, in source frame
// units relative to the in-point. The mapping is a linear resample and the last
// output frame does not necessarily land on the final source frame.
func (p TimingPlan) SampleTime(i int) float64 {
	if p.TotalOutputFrames <= 0 {
		return 0
	}
	return float64(i) / float64(p.TotalOutputFrames) * p.SourceTotalFrames
}

// FrameDurationUs returns the nominal duration of one output frame in microseconds.
func (p TimingPlan) FrameDurationUs() int64 {
	if p.TargetFPS <= 0 {
		return 0
	}
	return int64(math.Round(1_000_000 / float64(p.TargetFPS)))
}

// Plan is the result of the plan stage.
type Plan struct {
	Dimensions Dimension
	Timing     TimingPlan
}

// =============================================================================
// Negotiate Stage Types
// =============================================================================

// Codec identifies a video codec family.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecAV1  Codec = "av1"
)

// Profile identifies an encoder profile tier.
type Profile string

const (
	// ProfileHigh is the preferred high-quality profile.
	ProfileHigh Profile = "high"
	// ProfileBaseline is the conservative fallback profile.
	ProfileBaseline Profile = "baseline"
)

// EncoderConfig is selected once before the encode loop starts and is immutable afterwards.
type EncoderConfig struct {
	Codec            Codec
	CodecString      string // RFC 6381 codec string, e.g. avc1.640033
	Profile          Profile
	Level            string // Codec level, e.g. "5.1"
	Bitrate          int    // Target bitrate in bits per second
	FPS              int
	Width            int
	Height           int
	KeyframeInterval int    // Maximum distance between keyframes in frames
	Implementation   string // Encoder implementation chosen by the prober, e.g. libx264
}

// Dimensions returns the configured frame size.
func (c EncoderConfig) Dimensions() Dimension {
	return Dimension{Width: c.Width, Height: c.Height}
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodedChunk is one unit of encoder output.
// Data is Annex B for H.264 and a temporal unit of OBUs for AV1.
type EncodedChunk struct {
	Data        []byte
	TimestampUs int64
	DurationUs  int64
	Keyframe    bool
}

// MuxMetadata configures the container assembler.
type MuxMetadata struct {
	Codec  Codec
	Width  int
	Height int
	FPS    int
}

// EncodeResult contains the assembled video.
type EncodeResult struct {
	VideoData  []byte
	FrameCount int
	ChunkCount int
	DurationMs int
}

// =============================================================================
// Conversion Types
// =============================================================================

// ConversionResult is handed to the caller once per successful conversion.
type ConversionResult struct {
	RunID      string
	VideoData  []byte
	FrameCount int
	DurationMs int
	FileSize   int64
	Dimensions Dimension
	Encoder    EncoderConfig
}

// ProgressEvent is emitted synchronously while a conversion runs.
type ProgressEvent struct {
	Message string
	Percent int // 0-100
}
