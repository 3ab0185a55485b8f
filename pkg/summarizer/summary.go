package summarizer

import (
	"time"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// Summary contains everything worth reporting about one conversion.
type Summary struct {
	GeneratedAt time.Time
	RunID       string

	Source   SourceInfo
	Settings Settings
	Encoder  EncoderInfo
	Video    VideoInfo
	Host     HostInfo

	// Elapsed is the wall-clock time of the conversion.
	Elapsed time.Duration
}

// SourceInfo describes the input animation.
type SourceInfo struct {
	Path      string
	Name      string
	Width     int
	Height    int
	FrameRate float64
	InPoint   float64
	OutPoint  float64
}

// DurationSeconds returns the animation length in seconds.
func (s SourceInfo) DurationSeconds() float64 {
	if s.FrameRate <= 0 {
		return 0
	}
	return (s.OutPoint - s.InPoint) / s.FrameRate
}

// Settings contains the conversion request as the user expressed it.
type Settings struct {
	Resolution     string
	FPS            int
	RequestedCodec string
	Rasterizer     string
	Background     string
}

// EncoderInfo describes the negotiated encoder.
type EncoderInfo struct {
	Codec          string
	CodecString    string
	Profile        string
	Level          string
	Bitrate        int
	Implementation string
	FallbackUsed   bool
}

// VideoInfo describes the produced file.
type VideoInfo struct {
	FrameCount int
	DurationMs int
	FileSize   int64
	Width      int
	Height     int
	Keyframes  int
	OutputPath string
}

// HostInfo describes the machine the conversion ran on.
type HostInfo struct {
	OS       string
	Arch     string
	CPUs     int
	MemoryMB uint64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID sets the conversion run id.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithSource sets the input animation details.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets the requested settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithEncoder copies the negotiated encoder configuration.
func (b *Builder) WithEncoder(cfg pipeline.EncoderConfig, fallbackUsed bool) *Builder {
	b.summary.Encoder = EncoderInfo{
		Codec:          string(cfg.Codec),
		CodecString:    cfg.CodecString,
		Profile:        string(cfg.Profile),
		Level:          cfg.Level,
		Bitrate:        cfg.Bitrate,
		Implementation: cfg.Implementation,
		FallbackUsed:   fallbackUsed,
	}
	return b
}

// WithResult copies the conversion result.
func (b *Builder) WithResult(result pipeline.ConversionResult, outputPath string) *Builder {
	b.summary.Video.FrameCount = result.FrameCount
	b.summary.Video.DurationMs = result.DurationMs
	b.summary.Video.FileSize = result.FileSize
	b.summary.Video.Width = result.Dimensions.Width
	b.summary.Video.Height = result.Dimensions.Height
	b.summary.Video.OutputPath = outputPath
	return b
}

// WithKeyframes sets the number of keyframes found in the output.
func (b *Builder) WithKeyframes(n int) *Builder {
	b.summary.Video.Keyframes = n
	return b
}

// WithHost sets host information.
func (b *Builder) WithHost(host HostInfo) *Builder {
	b.summary.Host = host
	return b
}

// WithElapsed sets the conversion wall-clock time.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
