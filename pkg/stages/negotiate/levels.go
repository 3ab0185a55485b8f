package negotiate

import (
	"fmt"
	"strconv"
)

// avcLevel is one row of the H.264 level limits table (Annex A).
type avcLevel struct {
	name   string
	idc    int
	maxFS  int // macroblocks per frame
	maxMBs int // macroblocks per second
	maxBR  int // kbit/s for baseline/main; high allows 1.25x
}

var avcLevels = []avcLevel{
	{"1", 10, 99, 1485, 64},
	{"1.1", 11, 396, 3000, 192},
	{"1.2", 12, 396, 6000, 384},
	{"1.3", 13, 396, 11880, 768},
	{"2", 20, 396, 11880, 2000},
	{"2.1", 21, 792, 19800, 4000},
	{"2.2", 22, 1620, 20250, 4000},
	{"3", 30, 1620, 40500, 10000},
	{"3.1", 31, 3600, 108000, 14000},
	{"3.2", 32, 5120, 216000, 20000},
	{"4", 40, 8192, 245760, 20000},
	{"4.1", 41, 8192, 245760, 50000},
	{"4.2", 42, 8704, 522240, 50000},
	{"5", 50, 22080, 589824, 135000},
	{"5.1", 51, 36864, 983040, 240000},
	{"5.2", 52, 36864, 2073600, 240000},
	{"6", 60, 139264, 4177920, 240000},
	{"6.1", 61, 139264, 8355840, 480000},
	{"6.2", 62, 139264, 16711680, 800000},
}

// AVCLevel returns the lowest H.264 level that fits the frame size, rate and bitrate.
// The highest level is returned when nothing fits.
func AVCLevel(width, height, fps, bitrate int, high bool) (name string, idc int) {
	mbs := ((width + 15) / 16) * ((height + 15) / 16)
	mbps := mbs * fps
	kbps := (bitrate + 999) / 1000
	for _, l := range avcLevels {
		maxBR := l.maxBR
		if high {
			maxBR = maxBR * 5 / 4
		}
		if mbs <= l.maxFS && mbps <= l.maxMBs && kbps <= maxBR {
			return l.name, l.idc
		}
	}
	last := avcLevels[len(avcLevels)-1]
	return last.name, last.idc
}

// AVCCodecString returns the RFC 6381 avc1 codec string.
// Baseline is signalled as constrained baseline (constraint flags 0xE0).
func AVCCodecString(high bool, levelIDC int) string {
	if high {
		return fmt.Sprintf("avc1.6400%02X", levelIDC)
	}
	return fmt.Sprintf("avc1.42E0%02X", levelIDC)
}

// av1Level is one row of the AV1 level table (Annex A.3).
type av1Level struct {
	name        string
	idx         int
	maxPicSize  int
	maxDispRate int64 // luma samples per second
}

var av1Levels = []av1Level{
	{"2.0", 0, 147456, 4423680},
	{"2.1", 1, 278784, 8363520},
	{"3.0", 4, 665856, 19975680},
	{"3.1", 5, 1065024, 31950720},
	{"4.0", 8, 2359296, 70778880},
	{"4.1", 9, 2359296, 141557760},
	{"5.0", 12, 8912896, 267386880},
	{"5.1", 13, 8912896, 534773760},
	{"5.2", 14, 8912896, 1069547520},
	{"6.0", 16, 35651584, 1069547520},
	{"6.1", 17, 35651584, 2139095040},
	{"6.2", 18, 35651584, 4278190080},
}

// AV1Level returns the lowest AV1 level for the frame size and rate.
func AV1Level(width, height, fps int) (name string, idx int) {
	pic := width * height
	rate := int64(pic) * int64(fps)
	for _, l := range av1Levels {
		if pic <= l.maxPicSize && rate <= l.maxDispRate {
			return l.name, l.idx
		}
	}
	last := av1Levels[len(av1Levels)-1]
	return last.name, last.idx
}

// AV1CodecString returns the av01 codec string for 8-bit main profile, main tier.
func AV1CodecString(levelIdx int) string {
	idx := strconv.Itoa(levelIdx)
	if levelIdx < 10 {
		idx = "0" + idx
	}
	return "av01.0." + idx + "M.08"
}
