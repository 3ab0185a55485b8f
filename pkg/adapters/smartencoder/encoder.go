// Package smartencoder selects the best available codec with fallback support.
//
// H.264 through ffmpeg is preferred. When it is unavailable the AV1 encoder
// (libaom) is used instead, if this binary was built with it.
package smartencoder

import (
	"errors"
	"fmt"

	"github.com/user/lottiemp4/pkg/adapters/av1encoder"
	"github.com/user/lottiemp4/pkg/adapters/h264encoder"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Backend represents the encoding backend used.
type Backend string

const (
	// BackendFFmpeg represents FFmpeg-based H.264 encoding.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendLibaom represents libaom for AV1 encoding.
	BackendLibaom Backend = "libaom"
)

// Info contains information about the selected encoder.
type Info struct {
	// Codec is the actual codec being used.
	Codec pipeline.Codec
	// Backend is the encoding backend being used.
	Backend Backend
	// Implementation is the concrete encoder, e.g. libx264 or h264_nvenc.
	Implementation string
	// RequestedCodec is the codec that was originally requested.
	RequestedCodec pipeline.Codec
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
}

// Options configures codec selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// DisableFallback turns off the fallback to the other codec.
	DisableFallback bool
	// Logger is passed to the encoders.
	Logger ports.Logger
}

// ErrUnknownCodec is returned for codecs this package cannot encode.
var ErrUnknownCodec = errors.New("smartencoder: unknown codec")

// Probers returns the capability probers to try, in order of preference.
// The first entry probes the preferred codec; the fallback codec follows unless disabled.
func Probers(preferred pipeline.Codec, opts Options) []ports.EncoderProber {
	h264 := h264encoder.NewProber(h264encoder.Options{FFmpegPath: opts.FFmpegPath, Logger: opts.Logger})
	av1 := av1encoder.NewProber()

	var probers []ports.EncoderProber
	switch preferred {
	case pipeline.CodecAV1:
		probers = []ports.EncoderProber{av1, h264}
	default:
		probers = []ports.EncoderProber{h264, av1}
	}
	if opts.DisableFallback {
		probers = probers[:1]
	}
	return probers
}

// NewEncoder creates the encoder for a negotiated configuration.
func NewEncoder(cfg pipeline.EncoderConfig, opts Options) (ports.VideoEncoder, error) {
	switch cfg.Codec {
	case pipeline.CodecH264:
		return h264encoder.New(h264encoder.Options{FFmpegPath: opts.FFmpegPath, Logger: opts.Logger}), nil
	case pipeline.CodecAV1:
		return av1encoder.New(opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, cfg.Codec)
	}
}

// Describe reports which backend serves a negotiated configuration.
func Describe(requested pipeline.Codec, cfg pipeline.EncoderConfig) Info {
	info := Info{
		Codec:          cfg.Codec,
		Implementation: cfg.Implementation,
		RequestedCodec: requested,
		FallbackUsed:   requested != "" && requested != cfg.Codec,
	}
	switch cfg.Codec {
	case pipeline.CodecAV1:
		info.Backend = BackendLibaom
		if info.Implementation == "" {
			info.Implementation = "libaom"
		}
	default:
		info.Backend = BackendFFmpeg
	}
	return info
}

// IsAV1Available reports whether this build links libaom.
func IsAV1Available() bool {
	return av1encoder.Supported
}
