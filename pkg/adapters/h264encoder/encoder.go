// Package h264encoder provides streaming H.264 encoding through an ffmpeg child process.
//
// Raw RGBA frames are written to ffmpeg's stdin and an Annex B elementary stream
// is read back from its stdout. Every access unit starts with an access unit
// delimiter, which is how the stream is split back into per-frame chunks.
package h264encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Eyevinn/mp4ff/avc"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Options configures the encoder.
type Options struct {
	FFmpegPath string // Empty means FindFFmpeg("")
	Preset     string // libx264 preset, default "fast"
	Logger     ports.Logger
}

// Encoder implements ports.VideoEncoder on top of ffmpeg.
type Encoder struct {
	opts Options
	log  ports.Logger

	mu       sync.Mutex
	cfg      pipeline.EncoderConfig
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stderr   *tailBuffer
	group    *errgroup.Group
	scratch  *image.RGBA
	pending  []int64 // timestamps of submitted frames not yet returned
	ready    [][]byte
	readErr  error
	frameDur int64
	running  bool
}

// New creates a new H.264 encoder.
func New(opts Options) *Encoder {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	if opts.Preset == "" {
		opts.Preset = "fast"
	}
	return &Encoder{opts: opts, log: log.WithComponent("h264encoder")}
}

// Begin starts ffmpeg with the negotiated configuration.
// The child process is bound to ctx and killed when it is cancelled.
func (e *Encoder) Begin(ctx context.Context, cfg pipeline.EncoderConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("%w: already running", ErrEncodingFailed)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return fmt.Errorf("%w: invalid config %dx%d@%d", ErrEncodingFailed, cfg.Width, cfg.Height, cfg.FPS)
	}

	ffmpegPath, err := FindFFmpeg(e.opts.FFmpegPath)
	if err != nil {
		return err
	}
	impl := cfg.Implementation
	if impl == "" {
		impl = "libx264"
	}
	cfg.Implementation = impl

	args := BuildArgs(cfg, e.opts.Preset)
	e.log.Debug("ffmpeg %v", args)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	e.stderr = newTailBuffer(8 * 1024)
	cmd.Stderr = e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.cfg = cfg
	e.cmd = cmd
	e.stdin = stdin
	e.pending = nil
	e.ready = nil
	e.readErr = nil
	e.frameDur = int64(math.Round(1_000_000 / float64(cfg.FPS)))
	e.running = true

	e.group = new(errgroup.Group)
	e.group.Go(func() error {
		return e.readLoop(stdout)
	})
	return nil
}

// BuildArgs returns the ffmpeg arguments for a configuration.
// B-frames are disabled so that output order equals input order.
func BuildArgs(cfg pipeline.EncoderConfig, preset string) []string {
	gop := cfg.KeyframeInterval
	if gop <= 0 {
		gop = cfg.FPS * 2
	}
	impl := cfg.Implementation
	if impl == "" {
		impl = "libx264"
	}
	bitrate := strconv.Itoa(cfg.Bitrate/1000) + "k"

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.Itoa(cfg.FPS),
		"-i", "pipe:0",
		"-c:v", impl,
		"-pix_fmt", "yuv420p",
		"-profile:v", string(cfg.Profile),
	}
	if impl == "libx264" {
		args = append(args, "-preset", preset)
		if cfg.Level != "" {
			args = append(args, "-level:v", cfg.Level)
		}
	}
	if cfg.Bitrate > 0 {
		args = append(args,
			"-b:v", bitrate,
			"-maxrate", bitrate,
			"-bufsize", strconv.Itoa(cfg.Bitrate*2/1000)+"k",
		)
	}
	args = append(args,
		"-bf", "0",
		"-g", strconv.Itoa(gop),
		"-keyint_min", strconv.Itoa(gop),
		"-sc_threshold", "0",
		"-force_key_frames", fmt.Sprintf("expr:eq(mod(n,%d),0)", gop),
		"-bsf:v", "h264_metadata=aud=insert",
		"-f", "h264",
		"pipe:1",
	)
	return args
}

// readLoop drains ffmpeg's stdout and splits it into access units.
func (e *Encoder) readLoop(r io.Reader) error {
	var sp auSplitter
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			units := sp.push(buf[:n])
			if len(units) > 0 {
				e.mu.Lock()
				e.ready = append(e.ready, units...)
				e.mu.Unlock()
			}
		}
		if errors.Is(err, io.EOF) {
			if rest := sp.flush(); len(rest) > 0 {
				e.mu.Lock()
				e.ready = append(e.ready, rest)
				e.mu.Unlock()
			}
			return nil
		}
		if err != nil {
			e.mu.Lock()
			e.readErr = err
			e.mu.Unlock()
			return fmt.Errorf("read ffmpeg output: %w", err)
		}
	}
}

// EncodeFrame submits one frame and returns the chunks ffmpeg has produced so far.
// ffmpeg lags behind the input, so chunks usually belong to earlier frames.
// The keyframe cadence is fixed at Begin; keyframe only documents the caller's intent
// and the returned chunks carry the flag found in the bitstream.
func (e *Encoder) EncodeFrame(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil, ErrNotInitialized
	}
	if e.readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, e.readErr)
	}
	b := img.Bounds()
	if b.Dx() != e.cfg.Width || b.Dy() != e.cfg.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), e.cfg.Width, e.cfg.Height)
	}

	pix := e.rawRGBA(img)
	e.pending = append(e.pending, timestampUs)

	// Writing may block until ffmpeg consumes input; the reader appends under mu.
	stdin := e.stdin
	e.mu.Unlock()
	_, err := stdin.Write(pix)
	e.mu.Lock()
	if err != nil {
		return nil, fmt.Errorf("%w: write frame: %v: %s", ErrEncodingFailed, err, e.stderr.String())
	}

	if keyframe {
		e.log.Debug("keyframe requested at %dus", timestampUs)
	}
	return e.takeReady()
}

// rawRGBA returns tightly packed RGBA pixels, copying only when needed.
func (e *Encoder) rawRGBA(img image.Image) []byte {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba.Pix[:rgba.Stride*rgba.Rect.Dy()]
	}
	if e.scratch == nil || e.scratch.Rect.Dx() != e.cfg.Width || e.scratch.Rect.Dy() != e.cfg.Height {
		e.scratch = image.NewRGBA(image.Rect(0, 0, e.cfg.Width, e.cfg.Height))
	}
	draw.Draw(e.scratch, e.scratch.Bounds(), img, img.Bounds().Min, draw.Src)
	return e.scratch.Pix
}

// takeReady pairs completed access units with submitted timestamps. Caller holds mu.
func (e *Encoder) takeReady() ([]pipeline.EncodedChunk, error) {
	if len(e.ready) == 0 {
		return nil, nil
	}
	if len(e.ready) > len(e.pending) {
		return nil, fmt.Errorf("%w: %d access units for %d submitted frames", ErrEncodingFailed, len(e.ready), len(e.pending))
	}
	chunks := make([]pipeline.EncodedChunk, len(e.ready))
	for i, au := range e.ready {
		chunks[i] = pipeline.EncodedChunk{
			Data:        au,
			TimestampUs: e.pending[i],
			DurationUs:  e.frameDur,
			Keyframe:    isIDR(au),
		}
	}
	e.pending = e.pending[len(e.ready):]
	e.ready = nil
	return chunks, nil
}

// Flush closes ffmpeg's input, waits for it to exit and returns the remaining chunks.
func (e *Encoder) Flush() ([]pipeline.EncodedChunk, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	e.running = false
	stdin, cmd, group := e.stdin, e.cmd, e.group
	e.mu.Unlock()

	stdin.Close()
	readErr := group.Wait()
	waitErr := cmd.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmd = nil
	if waitErr != nil {
		return nil, fmt.Errorf("%w: ffmpeg exited: %v: %s", ErrEncodingFailed, waitErr, e.stderr.String())
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, readErr)
	}
	chunks, err := e.takeReady()
	if err != nil {
		return nil, err
	}
	if len(e.pending) > 0 {
		return nil, fmt.Errorf("%w: %d frames produced no output", ErrEncodingFailed, len(e.pending))
	}
	return chunks, nil
}

// Close kills ffmpeg if it is still running. It is safe to call more than once
// and after Flush.
func (e *Encoder) Close() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	stdin, cmd, group := e.stdin, e.cmd, e.group
	e.cmd = nil
	e.pending = nil
	e.ready = nil
	e.mu.Unlock()

	stdin.Close()
	if cmd.Process != nil {
		cmd.Process.Kill()
	}
	group.Wait()
	cmd.Wait()
	return nil
}

// isIDR reports whether an access unit contains an IDR slice.
func isIDR(au []byte) bool {
	for _, nalu := range avc.ExtractNalusFromByteStream(au) {
		if len(nalu) > 0 && avc.GetNaluType(nalu[0]) == avc.NALU_IDR {
			return true
		}
	}
	return false
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
