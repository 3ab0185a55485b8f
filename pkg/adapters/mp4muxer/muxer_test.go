package mp4muxer

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/user/lottiemp4/pkg/inspect"
	"github.com/user/lottiemp4/pkg/pipeline"
)

func obuBytes(typ byte, payload []byte) []byte {
	out := []byte{typ<<3 | 0x02, byte(len(payload))}
	return append(out, payload...)
}

func av1TemporalUnit(keyframe bool, frameNum int) []byte {
	var tu []byte
	tu = append(tu, obuBytes(obuTemporalDelimiter, nil)...)
	if keyframe {
		tu = append(tu, obuBytes(obuSequenceHeader, []byte{0x00, 0x00, 0x00, 0x00})...)
	}
	tu = append(tu, obuBytes(6, []byte{0x10, byte(frameNum), 0xAB, 0xCD})...)
	return tu
}

// Parameter sets of a 640x360 High profile stream.
const (
	testSPS = "6764001eacd940a02ff9610000030001000003003c8f162d96"
	testPPS = "68ebecb22c"
)

func h264AccessUnit(t *testing.T, keyframe bool, frameNum int) []byte {
	t.Helper()
	startCode := []byte{0, 0, 0, 1}
	au := append([]byte{}, startCode...)
	au = append(au, 0x09, 0xF0) // AUD
	if keyframe {
		for _, ps := range []string{testSPS, testPPS} {
			nalu, err := hex.DecodeString(ps)
			if err != nil {
				t.Fatal(err)
			}
			au = append(au, startCode...)
			au = append(au, nalu...)
		}
		au = append(au, startCode...)
		return append(au, 0x65, 0x88, 0x84, byte(frameNum), 0x21)
	}
	au = append(au, startCode...)
	return append(au, 0x41, 0x9A, byte(frameNum), 0x33)
}

func ptsUs(i, fps int) int64 {
	return int64(math.Round(float64(i) * (1_000_000 / float64(fps))))
}

func newAV1Muxer(t *testing.T) *Muxer {
	t.Helper()
	m := New()
	if err := m.Begin(pipeline.MuxMetadata{Codec: pipeline.CodecAV1, Width: 64, Height: 36, FPS: 30}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return m
}

func TestMuxer_AV1ReadBack(t *testing.T) {
	m := newAV1Muxer(t)

	const frames = 90
	for i := 0; i < frames; i++ {
		key := i%60 == 0
		chunk := pipeline.EncodedChunk{
			Data:        av1TemporalUnit(key, i),
			TimestampUs: ptsUs(i, 30),
			Keyframe:    key,
		}
		if err := m.Append(chunk); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	data, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if m.Samples() != frames {
		t.Errorf("expected %d samples written, got %d", frames, m.Samples())
	}
	if m.Fragments() != 2 {
		t.Errorf("expected 2 fragments (one per GOP), got %d", m.Fragments())
	}

	rep, err := inspect.Bytes(data)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if rep.Codec != pipeline.CodecAV1 || rep.SampleType != "av01" {
		t.Errorf("expected av01, got %s (%s)", rep.SampleType, rep.Codec)
	}
	if rep.Width != 64 || rep.Height != 36 {
		t.Errorf("expected 64x36, got %dx%d", rep.Width, rep.Height)
	}
	if !rep.Fragmented {
		t.Error("expected fragmented output")
	}
	if rep.SampleCount() != frames {
		t.Fatalf("expected %d samples, got %d", frames, rep.SampleCount())
	}

	keys := rep.KeyframeIndices()
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 60 {
		t.Errorf("expected keyframes at [0 60], got %v", keys)
	}

	for i, s := range rep.Samples {
		want := ptsUs(i, 30)
		if diff := s.TimestampUs - want; diff < -1 || diff > 1 {
			t.Errorf("sample %d: expected timestamp ~%d, got %d", i, want, s.TimestampUs)
		}
		if i > 0 && s.TimestampUs <= rep.Samples[i-1].TimestampUs {
			t.Errorf("sample %d: timestamps not increasing", i)
		}
	}

	// temporal delimiters are stripped from samples
	if got, want := rep.Samples[1].Size, len(av1TemporalUnit(false, 1))-2; got != want {
		t.Errorf("expected sample size %d, got %d", want, got)
	}

	if d := rep.DurationMs(); d != 3000 {
		t.Errorf("expected 3000ms, got %d", d)
	}
}

func TestMuxer_H264ReadBack(t *testing.T) {
	m := New()
	if err := m.Begin(pipeline.MuxMetadata{Codec: pipeline.CodecH264, Width: 640, Height: 360, FPS: 30}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	const frames = 90
	for i := 0; i < frames; i++ {
		key := i%60 == 0
		chunk := pipeline.EncodedChunk{
			Data:        h264AccessUnit(t, key, i),
			TimestampUs: ptsUs(i, 30),
			Keyframe:    key,
		}
		if err := m.Append(chunk); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	data, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if m.Fragments() != 2 {
		t.Errorf("expected 2 fragments, got %d", m.Fragments())
	}

	rep, err := inspect.Bytes(data)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if rep.Codec != pipeline.CodecH264 || rep.SampleType != "avc1" {
		t.Errorf("expected avc1, got %s (%s)", rep.SampleType, rep.Codec)
	}
	if rep.Width != 640 || rep.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", rep.Width, rep.Height)
	}
	if rep.SampleCount() != frames {
		t.Fatalf("expected %d samples, got %d", frames, rep.SampleCount())
	}
	keys := rep.KeyframeIndices()
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 60 {
		t.Errorf("expected keyframes at [0 60], got %v", keys)
	}

	// samples are AVCC: one length-prefixed slice, parameter sets and AUD dropped
	if got := rep.Samples[0].Size; got != 4+5 {
		t.Errorf("expected keyframe sample size 9, got %d", got)
	}
	if got := rep.Samples[1].Size; got != 4+4 {
		t.Errorf("expected delta sample size 8, got %d", got)
	}

	if d := rep.DurationMs(); d != 3000 {
		t.Errorf("expected 3000ms, got %d", d)
	}
}

func TestMuxer_RejectsOutOfOrder(t *testing.T) {
	m := newAV1Muxer(t)

	if err := m.Append(pipeline.EncodedChunk{Data: av1TemporalUnit(true, 0), TimestampUs: 33333, Keyframe: true}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	for _, ts := range []int64{33333, 0} {
		err := m.Append(pipeline.EncodedChunk{Data: av1TemporalUnit(false, 1), TimestampUs: ts})
		if !errors.Is(err, pipeline.ErrMux) || !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("timestamp %d: expected ErrMux/ErrOutOfOrder, got %v", ts, err)
		}
	}
}

func TestMuxer_FirstChunkMustBeKeyframe(t *testing.T) {
	m := newAV1Muxer(t)

	err := m.Append(pipeline.EncodedChunk{Data: av1TemporalUnit(false, 0), TimestampUs: 0})
	if !errors.Is(err, pipeline.ErrMux) {
		t.Errorf("expected ErrMux, got %v", err)
	}
}

func TestMuxer_FinalizeTwice(t *testing.T) {
	m := newAV1Muxer(t)
	if err := m.Append(pipeline.EncodedChunk{Data: av1TemporalUnit(true, 0), Keyframe: true}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := m.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if _, err := m.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("expected ErrFinalized, got %v", err)
	}
	if err := m.Append(pipeline.EncodedChunk{Data: av1TemporalUnit(false, 1), TimestampUs: 1}); !errors.Is(err, ErrFinalized) {
		t.Errorf("expected ErrFinalized after Finalize, got %v", err)
	}
}

func TestMuxer_NotStarted(t *testing.T) {
	m := New()
	if err := m.Append(pipeline.EncodedChunk{Data: []byte{1}, Keyframe: true}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if _, err := m.Finalize(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestMuxer_FinalizeWithoutSamples(t *testing.T) {
	m := newAV1Muxer(t)
	if _, err := m.Finalize(); !errors.Is(err, ErrNoSamples) || !errors.Is(err, pipeline.ErrMux) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestMuxer_BeginValidation(t *testing.T) {
	tests := []struct {
		name string
		meta pipeline.MuxMetadata
	}{
		{"zero width", pipeline.MuxMetadata{Codec: pipeline.CodecH264, Width: 0, Height: 10, FPS: 30}},
		{"zero fps", pipeline.MuxMetadata{Codec: pipeline.CodecH264, Width: 10, Height: 10, FPS: 0}},
		{"unknown codec", pipeline.MuxMetadata{Codec: "vp9", Width: 10, Height: 10, FPS: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Begin(tt.meta); !errors.Is(err, pipeline.ErrMux) {
				t.Errorf("expected ErrMux, got %v", err)
			}
		})
	}
}

func TestMuxer_H264KeyframeWithoutSPS(t *testing.T) {
	m := New()
	if err := m.Begin(pipeline.MuxMetadata{Codec: pipeline.CodecH264, Width: 64, Height: 36, FPS: 30}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	idrOnly := []byte{0, 0, 0, 1, 0x65, 0x88, 0x84, 0x00}
	if err := m.Append(pipeline.EncodedChunk{Data: idrOnly, Keyframe: true}); !errors.Is(err, pipeline.ErrMux) {
		t.Errorf("expected ErrMux, got %v", err)
	}
}

func TestAnnexBToAVCC(t *testing.T) {
	in := []byte{
		0, 0, 0, 1, 0x09, 0x10, // AUD
		0, 0, 0, 1, 0x67, 0xAA, // SPS
		0, 0, 1, 0x68, 0xBB, // PPS
		0, 0, 1, 0x65, 0x01, 0x02, 0x03, // IDR slice
	}
	want := []byte{0, 0, 0, 4, 0x65, 0x01, 0x02, 0x03}

	if got := annexBToAVCC(in); !bytes.Equal(got, want) {
		t.Errorf("expected %x, got %x", want, got)
	}
}

func TestStripTemporalDelimiters(t *testing.T) {
	tu := av1TemporalUnit(true, 7)
	got := stripTemporalDelimiters(tu)
	if !bytes.Equal(got, tu[2:]) {
		t.Errorf("expected %x, got %x", tu[2:], got)
	}
}

func TestSeqLevelIdx(t *testing.T) {
	// reduced_still_picture_header with seq_level_idx 13 (level 5.1)
	reduced := obuBytes(obuSequenceHeader, []byte{0x08 | 0x03, 0x40})
	if got := seqLevelIdx(reduced); got != 13 {
		t.Errorf("expected 13, got %d", got)
	}
	if got := seqLevelIdx([]byte{0x0A}); got != 8 {
		t.Errorf("expected fallback 8, got %d", got)
	}
}
