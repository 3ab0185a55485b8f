package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
// By default every frame yields one chunk immediately; set Delay to hold back
// that many chunks until Flush, like a real encoder's lookahead.
type VideoEncoder struct {
	mu sync.Mutex

	BeginFunc       func(ctx context.Context, cfg pipeline.EncoderConfig) error
	EncodeFrameFunc func(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error)
	FlushFunc       func() ([]pipeline.EncodedChunk, error)
	Delay           int

	// Recorded calls for verification
	BeginCalled      bool
	Config           pipeline.EncoderConfig
	EncodeFrameCalls []EncodeFrameCall
	FlushCalled      bool
	CloseCalls       int

	queue []pipeline.EncodedChunk
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	TimestampUs int64
	Keyframe    bool
	Width       int
	Height      int
	Opaque      bool
}

func (m *VideoEncoder) Begin(ctx context.Context, cfg pipeline.EncoderConfig) error {
	m.mu.Lock()
	m.BeginCalled = true
	m.Config = cfg
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, cfg)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error) {
	m.mu.Lock()
	b := img.Bounds()
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{
		TimestampUs: timestampUs,
		Keyframe:    keyframe,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Opaque:      isOpaque(img),
	})
	m.mu.Unlock()

	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img, timestampUs, keyframe)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, pipeline.EncodedChunk{
		Data:        []byte{byte(len(m.EncodeFrameCalls))},
		TimestampUs: timestampUs,
		DurationUs:  m.frameDur(),
		Keyframe:    keyframe,
	})
	if len(m.queue) <= m.Delay {
		return nil, nil
	}
	out := m.queue[:len(m.queue)-m.Delay]
	m.queue = append([]pipeline.EncodedChunk(nil), m.queue[len(out):]...)
	return out, nil
}

func (m *VideoEncoder) Flush() ([]pipeline.EncodedChunk, error) {
	m.mu.Lock()
	m.FlushCalled = true
	m.mu.Unlock()
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out, nil
}

func (m *VideoEncoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	m.queue = nil
	return nil
}

func (m *VideoEncoder) frameDur() int64 {
	if m.Config.FPS <= 0 {
		return 0
	}
	return int64(1_000_000 / m.Config.FPS)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// EncoderProber is a mock implementation of ports.EncoderProber.
type EncoderProber struct {
	CodecValue    pipeline.Codec
	AvailableErr  error
	SupportsFunc  func(ctx context.Context, cfg pipeline.EncoderConfig) (bool, error)
	SupportsCalls []pipeline.EncoderConfig
}

func (m *EncoderProber) Codec() pipeline.Codec {
	if m.CodecValue == "" {
		return pipeline.CodecH264
	}
	return m.CodecValue
}

func (m *EncoderProber) Available(ctx context.Context) error {
	return m.AvailableErr
}

func (m *EncoderProber) Supports(ctx context.Context, cfg pipeline.EncoderConfig) (bool, error) {
	m.SupportsCalls = append(m.SupportsCalls, cfg)
	if m.SupportsFunc != nil {
		return m.SupportsFunc(ctx, cfg)
	}
	return true, nil
}

var _ ports.EncoderProber = (*EncoderProber)(nil)

// Muxer is a mock implementation of ports.Muxer that records chunks.
type Muxer struct {
	BeginFunc    func(meta pipeline.MuxMetadata) error
	AppendFunc   func(chunk pipeline.EncodedChunk) error
	FinalizeFunc func() ([]byte, error)

	Meta          pipeline.MuxMetadata
	Chunks        []pipeline.EncodedChunk
	FinalizeCalls int
}

func (m *Muxer) Begin(meta pipeline.MuxMetadata) error {
	m.Meta = meta
	m.Chunks = nil
	m.FinalizeCalls = 0
	if m.BeginFunc != nil {
		return m.BeginFunc(meta)
	}
	return nil
}

func (m *Muxer) Append(chunk pipeline.EncodedChunk) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(chunk); err != nil {
			return err
		}
	}
	m.Chunks = append(m.Chunks, chunk)
	return nil
}

func (m *Muxer) Finalize() ([]byte, error) {
	m.FinalizeCalls++
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc()
	}
	out := make([]byte, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		out = append(out, c.Data...)
	}
	return out, nil
}

var _ ports.Muxer = (*Muxer)(nil)
