package ports

import (
	"context"
	"image"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// VideoEncoder abstracts a streaming video encoder.
// Frames are submitted in presentation order; encoded chunks come back in the same order,
// possibly delayed by the encoder's internal buffering.
type VideoEncoder interface {
	// Begin initializes the encoder with a negotiated configuration.
	Begin(ctx context.Context, cfg pipeline.EncoderConfig) error

	// EncodeFrame submits one frame and returns the chunks that became ready.
	// keyframe requests a keyframe at this frame.
	EncodeFrame(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error)

	// Flush drains the encoder and returns the remaining chunks.
	Flush() ([]pipeline.EncodedChunk, error)

	// Close releases encoder resources. It is safe to call after Flush and more than once.
	Close() error
}

// EncoderProber reports encoder capabilities of the current platform.
type EncoderProber interface {
	// Codec returns the codec family this prober covers.
	Codec() pipeline.Codec

	// Available returns nil when encoding is possible at all.
	Available(ctx context.Context) error

	// Supports reports whether the given configuration can be encoded.
	Supports(ctx context.Context, cfg pipeline.EncoderConfig) (bool, error)
}
