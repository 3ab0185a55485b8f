package h264encoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Prober checks which H.264 configurations the local ffmpeg can encode.
// Results are not cached between calls.
type Prober struct {
	opts Options
	log  ports.Logger

	mu   sync.Mutex
	impl string
}

// NewProber creates a prober. Only FFmpegPath and Logger are used from opts.
func NewProber(opts Options) *Prober {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Prober{opts: opts, log: log.WithComponent("h264prober")}
}

// Codec returns pipeline.CodecH264.
func (p *Prober) Codec() pipeline.Codec {
	return pipeline.CodecH264
}

// Available finds ffmpeg and the first H.264 encoder that completes a test encode.
func (p *Prober) Available(ctx context.Context) error {
	path, err := FindFFmpeg(p.opts.FFmpegPath)
	if err != nil {
		return err
	}
	encoders, err := ListEncoders(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	candidates := CandidateEncoders(encoders)
	if len(candidates) == 0 {
		return ErrNoH264Encoder
	}

	for _, name := range candidates {
		err := testEncode(ctx, path, pipeline.EncoderConfig{
			Codec:          pipeline.CodecH264,
			Width:          256,
			Height:         144,
			FPS:            30,
			Implementation: name,
		})
		if err == nil {
			p.log.Debug("Using H.264 encoder %s", name)
			p.mu.Lock()
			p.impl = name
			p.mu.Unlock()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Debug("H.264 encoder %s failed test encode: %v", name, err)
	}
	return ErrNoH264Encoder
}

// Implementation returns the encoder chosen by the last successful Available call.
func (p *Prober) Implementation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.impl
}

// Supports runs a one-frame test encode with cfg.
// A configuration ffmpeg rejects yields (false, nil); failing to run ffmpeg yields an error.
func (p *Prober) Supports(ctx context.Context, cfg pipeline.EncoderConfig) (bool, error) {
	path, err := FindFFmpeg(p.opts.FFmpegPath)
	if err != nil {
		return false, err
	}
	if cfg.Implementation == "" {
		cfg.Implementation = p.Implementation()
	}
	err = testEncode(ctx, path, cfg)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		p.log.Debug("Configuration %s %s@%s rejected: %v", cfg.Profile, cfg.Dimensions(), cfg.Level, err)
		return false, nil
	}
	return false, err
}

// testEncode encodes a single synthetic frame and discards the output.
func testEncode(ctx context.Context, ffmpegPath string, cfg pipeline.EncoderConfig) error {
	impl := cfg.Implementation
	if impl == "" {
		impl = "libx264"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=white:s=%dx%d:r=%d", cfg.Width, cfg.Height, cfg.FPS),
		"-frames:v", "1",
		"-c:v", impl,
		"-pix_fmt", "yuv420p",
	}
	if cfg.Profile != "" {
		args = append(args, "-profile:v", string(cfg.Profile))
	}
	if cfg.Level != "" && impl == "libx264" {
		args = append(args, "-level:v", cfg.Level)
	}
	if cfg.Bitrate > 0 {
		args = append(args, "-b:v", strconv.Itoa(cfg.Bitrate/1000)+"k")
	}
	args = append(args, "-f", "null", "-")

	out, err := exec.CommandContext(ctx, ffmpegPath, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	end := len(out)
	for end > 0 && (out[end-1] == '\n' || out[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && out[start-1] != '\n' {
		start--
	}
	return string(out[start:end])
}

// Ensure Prober implements ports.EncoderProber
var _ ports.EncoderProber = (*Prober)(nil)
