// Package inspect reads back MP4 files and reports their video track layout.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// ErrNoVideoTrack is returned when the file has no video track.
var ErrNoVideoTrack = errors.New("inspect: no video track found")

// Sample describes one video sample.
type Sample struct {
	TimestampUs int64
	DurationUs  int64
	Size        int
	Keyframe    bool
}

// Report summarizes the video track of an MP4 file.
type Report struct {
	Codec      pipeline.Codec
	SampleType string // avc1, av01, ...
	Width      int
	Height     int
	Timescale  uint32
	Fragmented bool
	Fragments  int
	Samples    []Sample
}

// SampleCount returns the number of samples.
func (r Report) SampleCount() int {
	return len(r.Samples)
}

// KeyframeIndices returns the indices of sync samples.
func (r Report) KeyframeIndices() []int {
	var out []int
	for i, s := range r.Samples {
		if s.Keyframe {
			out = append(out, i)
		}
	}
	return out
}

// DurationMs returns the presentation duration rounded to the nearest millisecond.
func (r Report) DurationMs() int {
	if len(r.Samples) == 0 {
		return 0
	}
	last := r.Samples[len(r.Samples)-1]
	return int(math.Round(float64(last.TimestampUs+last.DurationUs) / 1000))
}

// File inspects an MP4 file on disk.
func File(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Reader(f)
}

// Bytes inspects MP4 data in memory.
func Bytes(data []byte) (Report, error) {
	return Reader(bytes.NewReader(data))
}

// Reader inspects MP4 data from r.
func Reader(r io.ReadSeeker) (Report, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return Report{}, fmt.Errorf("decode mp4: %w", err)
	}

	var moov *mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov == nil {
		return Report{}, ErrNoVideoTrack
	}

	trak := videoTrack(moov)
	if trak == nil {
		return Report{}, ErrNoVideoTrack
	}

	rep := Report{
		Timescale:  1000,
		Fragmented: mp4File.IsFragmented(),
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		rep.Timescale = trak.Mdia.Mdhd.Timescale
	}
	describeSampleEntry(trak, &rep)

	if rep.Fragmented {
		if err := readFragments(mp4File, trak.Tkhd.TrackID, &rep); err != nil {
			return Report{}, err
		}
	}
	return rep, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func describeSampleEntry(trak *mp4.TrakBox, rep *Report) {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		vse, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		rep.SampleType = vse.Type()
		rep.Width = int(vse.Width)
		rep.Height = int(vse.Height)
		switch vse.Type() {
		case "avc1", "avc3":
			rep.Codec = pipeline.CodecH264
		case "av01":
			rep.Codec = pipeline.CodecAV1
		}
		return
	}
}

func readFragments(f *mp4.File, trackID uint32, rep *Report) error {
	var trex *mp4.TrexBox
	if f.Init != nil && f.Init.Moov.Mvex != nil {
		for _, t := range f.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	toUs := func(t uint64) int64 {
		return int64(t * 1_000_000 / uint64(rep.Timescale))
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			rep.Fragments++
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return fmt.Errorf("get samples: %w", err)
				}
				for _, s := range samples {
					rep.Samples = append(rep.Samples, Sample{
						TimestampUs: toUs(s.DecodeTime),
						DurationUs:  toUs(uint64(s.Dur)),
						Size:        int(s.Size),
						Keyframe:    s.Flags == mp4.SyncSampleFlags,
					})
				}
			}
		}
	}
	return nil
}
