package mp4muxer

import (
	"encoding/binary"
	"fmt"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// avcConfig builds the avcC box from the SPS and PPS carried by a keyframe.
func avcConfig(keyframe []byte) (*mp4.AvcCBox, error) {
	var sps, pps []byte
	for _, nalu := range avc.ExtractNalusFromByteStream(keyframe) {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS:
			if sps == nil {
				sps = nalu
			}
		case avc.NALU_PPS:
			if pps == nil {
				pps = nalu
			}
		}
	}
	if sps == nil {
		return nil, fmt.Errorf("SPS not found in first keyframe")
	}
	if pps == nil {
		return nil, fmt.Errorf("PPS not found in first keyframe")
	}
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	return avcC, nil
}

// annexBToAVCC converts a start-code delimited access unit to 4-byte length
// prefixed NAL units. Parameter sets and access unit delimiters are dropped;
// the parameter sets live in the avcC box.
func annexBToAVCC(data []byte) []byte {
	nalus := avc.ExtractNalusFromByteStream(data)
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}

	out := make([]byte, 0, size)
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS, avc.NALU_PPS, avc.NALU_AUD:
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(nalu)))
		out = append(out, nalu...)
	}
	return out
}
