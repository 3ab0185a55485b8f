//go:build !libaom || !cgo

// Package av1encoder provides an AV1 video encoder using libaom.
//
// This build has no libaom; every operation fails with ErrPlatformNotSupported.
package av1encoder

import (
	"context"
	"image"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Supported reports whether this build can encode AV1.
const Supported = false

// Encoder is a placeholder used when libaom is not linked in.
type Encoder struct{}

// New creates a new AV1 encoder.
func New(log ports.Logger) *Encoder {
	return &Encoder{}
}

// Begin always fails.
func (e *Encoder) Begin(ctx context.Context, cfg pipeline.EncoderConfig) error {
	return ErrPlatformNotSupported
}

// EncodeFrame always fails.
func (e *Encoder) EncodeFrame(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error) {
	return nil, ErrPlatformNotSupported
}

// Flush always fails.
func (e *Encoder) Flush() ([]pipeline.EncodedChunk, error) {
	return nil, ErrPlatformNotSupported
}

// Close does nothing.
func (e *Encoder) Close() error {
	return nil
}

var _ ports.VideoEncoder = (*Encoder)(nil)
