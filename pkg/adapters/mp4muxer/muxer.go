// Package mp4muxer assembles encoded video chunks into a fragmented MP4 file.
package mp4muxer

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

const trackID = 1

var (
	// ErrNotStarted is returned when Append or Finalize is called before Begin.
	ErrNotStarted = errors.New("mp4muxer: not started")

	// ErrFinalized is returned when the muxer is used after Finalize.
	ErrFinalized = errors.New("mp4muxer: already finalized")

	// ErrOutOfOrder is returned when a chunk's timestamp does not increase.
	ErrOutOfOrder = errors.New("mp4muxer: chunk out of order")

	// ErrNoSamples is returned by Finalize when nothing was appended.
	ErrNoSamples = errors.New("mp4muxer: no samples")
)

// sample is a chunk converted for the container, waiting for its duration.
type sample struct {
	data       []byte
	decodeTime uint64
	durationUs int64
	keyframe   bool
}

// Muxer writes ftyp and moov when the first keyframe arrives, then one
// moof+mdat fragment per GOP. A sample's duration is known only when the next
// chunk arrives, so one sample is always held back.
type Muxer struct {
	meta      pipeline.MuxMetadata
	timescale uint32

	buf       bytes.Buffer
	init      *mp4.InitSegment
	frag      *mp4.Fragment
	fragCount int
	seq       uint32
	pending   *sample

	lastTs    int64
	samples   int
	begun     bool
	finalized bool
}

// New creates a muxer.
func New() *Muxer {
	return &Muxer{}
}

// Begin configures the track. It may be called again to start a new file.
func (m *Muxer) Begin(meta pipeline.MuxMetadata) error {
	if meta.Width <= 0 || meta.Height <= 0 || meta.Width > math.MaxUint16 || meta.Height > math.MaxUint16 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", pipeline.ErrMux, meta.Width, meta.Height)
	}
	if meta.FPS <= 0 {
		return fmt.Errorf("%w: invalid frame rate %d", pipeline.ErrMux, meta.FPS)
	}
	switch meta.Codec {
	case pipeline.CodecH264, pipeline.CodecAV1:
	default:
		return fmt.Errorf("%w: unsupported codec %q", pipeline.ErrMux, meta.Codec)
	}

	*m = Muxer{
		meta:      meta,
		timescale: uint32(meta.FPS * 1000),
		lastTs:    math.MinInt64,
		begun:     true,
	}
	return nil
}

// Append adds one chunk. Chunks must arrive in strictly increasing timestamp order
// and the first chunk must be a keyframe.
func (m *Muxer) Append(chunk pipeline.EncodedChunk) error {
	if err := m.usable(); err != nil {
		return err
	}
	if chunk.TimestampUs <= m.lastTs {
		return fmt.Errorf("%w: %w: timestamp %d after %d", pipeline.ErrMux, ErrOutOfOrder, chunk.TimestampUs, m.lastTs)
	}
	if len(chunk.Data) == 0 {
		return fmt.Errorf("%w: empty chunk at %d", pipeline.ErrMux, chunk.TimestampUs)
	}

	if m.init == nil {
		if !chunk.Keyframe {
			return fmt.Errorf("%w: first chunk is not a keyframe", pipeline.ErrMux)
		}
		if err := m.writeInit(chunk.Data); err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrMux, err)
		}
	}

	data, err := m.sampleData(chunk.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrMux, err)
	}
	next := &sample{
		data:       data,
		decodeTime: m.toTimescale(chunk.TimestampUs),
		durationUs: chunk.DurationUs,
		keyframe:   chunk.Keyframe,
	}

	if m.pending != nil {
		dur := next.decodeTime - m.pending.decodeTime
		if err := m.addSample(m.pending, uint32(dur)); err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrMux, err)
		}
	}
	if next.keyframe && m.frag != nil {
		if err := m.flushFragment(); err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrMux, err)
		}
	}

	m.pending = next
	m.lastTs = chunk.TimestampUs
	return nil
}

// Finalize writes the last fragment and returns the complete file.
func (m *Muxer) Finalize() ([]byte, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	m.finalized = true

	if m.pending == nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrMux, ErrNoSamples)
	}

	dur := m.toTimescale(m.pending.durationUs)
	if dur == 0 {
		dur = uint64(m.timescale) / uint64(m.meta.FPS)
	}
	if err := m.addSample(m.pending, uint32(dur)); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrMux, err)
	}
	m.pending = nil
	if err := m.flushFragment(); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrMux, err)
	}

	out := make([]byte, m.buf.Len())
	copy(out, m.buf.Bytes())
	m.buf.Reset()
	return out, nil
}

// Samples returns the number of samples written to fragments so far.
func (m *Muxer) Samples() int {
	return m.samples
}

// Fragments returns the number of fragments written so far.
func (m *Muxer) Fragments() int {
	return m.fragCount
}

func (m *Muxer) usable() error {
	if !m.begun {
		return fmt.Errorf("%w: %w", pipeline.ErrMux, ErrNotStarted)
	}
	if m.finalized {
		return fmt.Errorf("%w: %w", pipeline.ErrMux, ErrFinalized)
	}
	return nil
}

func (m *Muxer) toTimescale(us int64) uint64 {
	if us <= 0 {
		return 0
	}
	return uint64(math.Round(float64(us) * float64(m.timescale) / 1_000_000))
}

// writeInit writes ftyp and moov using the decoder configuration found in the first keyframe.
func (m *Muxer) writeInit(keyframe []byte) error {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(m.timescale, "video", "und")
	trak := init.Moov.Trak

	width, height := uint16(m.meta.Width), uint16(m.meta.Height)
	brand := "avc1"
	switch m.meta.Codec {
	case pipeline.CodecH264:
		avcC, err := avcConfig(keyframe)
		if err != nil {
			return err
		}
		trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("avc1", width, height, avcC))
	case pipeline.CodecAV1:
		av1C, err := av1Config(keyframe)
		if err != nil {
			return err
		}
		trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", width, height, av1C))
		brand = "av01"
	}

	trak.Tkhd.Width = mp4.Fixed32(m.meta.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.meta.Height << 16)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", brand, "mp41", "iso6"})
	if err := ftyp.Encode(&m.buf); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&m.buf); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	m.init = init
	return nil
}

func (m *Muxer) sampleData(data []byte) ([]byte, error) {
	if m.meta.Codec == pipeline.CodecAV1 {
		return stripTemporalDelimiters(data), nil
	}
	avcc := annexBToAVCC(data)
	if len(avcc) == 0 {
		return nil, fmt.Errorf("chunk has no picture data")
	}
	return avcc, nil
}

func (m *Muxer) addSample(s *sample, dur uint32) error {
	if m.frag == nil {
		m.seq++
		frag, err := mp4.CreateFragment(m.seq, trackID)
		if err != nil {
			return fmt.Errorf("create fragment: %w", err)
		}
		m.frag = frag
	}

	flags := mp4.NonSyncSampleFlags
	if s.keyframe {
		flags = mp4.SyncSampleFlags
	}
	m.frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: flags,
			Size:  uint32(len(s.data)),
			Dur:   dur,
		},
		DecodeTime: s.decodeTime,
		Data:       s.data,
	})
	m.samples++
	return nil
}

func (m *Muxer) flushFragment() error {
	if m.frag == nil {
		return nil
	}
	if err := m.frag.Encode(&m.buf); err != nil {
		return fmt.Errorf("encode fragment %d: %w", m.seq, err)
	}
	m.frag = nil
	m.fragCount++
	return nil
}

// Ensure Muxer implements ports.Muxer
var _ ports.Muxer = (*Muxer)(nil)
