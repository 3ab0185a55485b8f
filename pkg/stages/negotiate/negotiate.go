// Package negotiate implements the encoder negotiation stage.
//
// Negotiation runs once per conversion, before any frame is rendered. It picks
// the first codec whose prober reports availability, then asks that prober
// whether the preferred high profile is supported and falls back to baseline.
package negotiate

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Bitrates in bits per second.
const (
	HighBitrateUHD  = 40_000_000
	HighBitrate     = 15_000_000
	BaselineBitrate = 10_000_000
)

// Input holds what negotiation depends on.
type Input struct {
	Resolution pipeline.Resolution
	Dimensions pipeline.Dimension
	FPS        int
}

// implementationReporter is implemented by probers that pick a concrete encoder.
type implementationReporter interface {
	Implementation() string
}

// Stage selects the encoder configuration.
type Stage struct {
	probers []ports.EncoderProber
	logger  ports.Logger
}

// NewStage creates a negotiate stage. Probers are tried in order.
func NewStage(logger ports.Logger, probers ...ports.EncoderProber) *Stage {
	return &Stage{
		probers: probers,
		logger:  logger.WithComponent("negotiate"),
	}
}

// Execute returns the configuration the encode loop must use.
// It fails with pipeline.ErrEncodingUnsupported when no prober is available.
// A rejected or failed high profile probe is logged and never returned.
func (s *Stage) Execute(ctx context.Context, input Input) (pipeline.EncoderConfig, error) {
	prober, err := s.available(ctx)
	if err != nil {
		return pipeline.EncoderConfig{}, err
	}

	impl := ""
	if r, ok := prober.(implementationReporter); ok {
		impl = r.Implementation()
	}

	high := Config(prober.Codec(), pipeline.ProfileHigh, input)
	high.Implementation = impl

	ok, err := prober.Supports(ctx, high)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.EncoderConfig{}, ctx.Err()
		}
		s.logger.Warn("Encoder probe failed, using baseline profile: %v", fmt.Errorf("%w: %w", pipeline.ErrEncoderConfigRejected, err))
	} else if !ok {
		s.logger.Debug("High profile not supported at %s@%d, using baseline profile", input.Dimensions, input.FPS)
	}
	if ok && err == nil {
		s.logger.Debug("Selected %s (%s, level %s, %d bps)", high.CodecString, high.Profile, high.Level, high.Bitrate)
		return high, nil
	}

	base := Config(prober.Codec(), pipeline.ProfileBaseline, input)
	base.Implementation = impl
	s.logger.Debug("Selected %s (%s, level %s, %d bps)", base.CodecString, base.Profile, base.Level, base.Bitrate)
	return base, nil
}

func (s *Stage) available(ctx context.Context) (ports.EncoderProber, error) {
	var errs []error
	for i, p := range s.probers {
		err := p.Available(ctx)
		if err == nil {
			if i > 0 {
				s.logger.Warn("%s encoder not available, falling back to %s", s.probers[0].Codec(), p.Codec())
			}
			return p, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug("%s encoder not available: %v", p.Codec(), err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, pipeline.ErrEncodingUnsupported
	}
	return nil, fmt.Errorf("%w: %w", pipeline.ErrEncodingUnsupported, errors.Join(errs...))
}

// Config builds the configuration for a codec and profile tier.
func Config(codec pipeline.Codec, profile pipeline.Profile, input Input) pipeline.EncoderConfig {
	w, h, fps := input.Dimensions.Width, input.Dimensions.Height, input.FPS
	high := profile == pipeline.ProfileHigh

	bitrate := BaselineBitrate
	if high {
		bitrate = HighBitrate
		if input.Resolution == pipeline.ResolutionUHD {
			bitrate = HighBitrateUHD
		}
	}

	cfg := pipeline.EncoderConfig{
		Codec:            codec,
		Profile:          profile,
		Bitrate:          bitrate,
		FPS:              fps,
		Width:            w,
		Height:           h,
		KeyframeInterval: fps * 2,
	}
	switch codec {
	case pipeline.CodecAV1:
		name, idx := AV1Level(w, h, fps)
		cfg.Level = name
		cfg.CodecString = AV1CodecString(idx)
	default:
		name, idc := AVCLevel(w, h, fps, bitrate, high)
		cfg.Level = name
		cfg.CodecString = AVCCodecString(high, idc)
	}
	return cfg
}

var _ pipeline.Stage[Input, pipeline.EncoderConfig] = (*Stage)(nil)
