package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrEncodingFailed is returned when ffmpeg fails while encoding.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found")

	// ErrNoH264Encoder is returned when ffmpeg has no usable H.264 encoder.
	ErrNoH264Encoder = errors.New("h264encoder: no usable H.264 encoder in ffmpeg")

	// ErrFrameSize is returned when a frame does not match the configured size.
	ErrFrameSize = errors.New("h264encoder: frame size mismatch")
)
