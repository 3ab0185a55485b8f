package av1encoder

import (
	"context"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Maximum frame size of AV1 level 6.3.
const (
	maxWidth  = 16384
	maxHeight = 8704
)

// Prober reports AV1 capabilities of this build.
type Prober struct{}

// NewProber creates an AV1 prober.
func NewProber() *Prober {
	return &Prober{}
}

// Codec returns pipeline.CodecAV1.
func (p *Prober) Codec() pipeline.Codec {
	return pipeline.CodecAV1
}

// Available returns ErrPlatformNotSupported unless libaom is linked in.
func (p *Prober) Available(ctx context.Context) error {
	if !Supported {
		return ErrPlatformNotSupported
	}
	return ctx.Err()
}

// Supports accepts any even frame size within the AV1 limits.
// libaom has no profile restrictions that matter for 8-bit 4:2:0 input.
func (p *Prober) Supports(ctx context.Context, cfg pipeline.EncoderConfig) (bool, error) {
	if err := p.Available(ctx); err != nil {
		return false, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return false, nil
	}
	if cfg.Width > maxWidth || cfg.Height > maxHeight || cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return false, nil
	}
	return true, nil
}

var _ ports.EncoderProber = (*Prober)(nil)
