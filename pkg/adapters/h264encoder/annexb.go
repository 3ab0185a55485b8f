package h264encoder

const nalAUD = 9

// auSplitter cuts an Annex B byte stream into access units at AUD boundaries.
type auSplitter struct {
	buf     []byte
	scanned int
}

// push appends data and returns every access unit that is now complete.
// The unit in progress stays buffered until the next AUD or flush.
func (s *auSplitter) push(data []byte) [][]byte {
	s.buf = append(s.buf, data...)

	var units [][]byte
	start := s.scanned
	if start < 3 {
		start = 3
	}
	for i := start; i < len(s.buf); i++ {
		if s.buf[i-1] != 1 || s.buf[i-2] != 0 || s.buf[i-3] != 0 || s.buf[i]&0x1F != nalAUD {
			continue
		}
		cut := i - 3
		if cut > 0 && s.buf[cut-1] == 0 {
			cut--
		}
		if cut > 0 {
			au := make([]byte, cut)
			copy(au, s.buf[:cut])
			units = append(units, au)
			s.buf = s.buf[cut:]
			i -= cut
		}
	}
	s.scanned = len(s.buf)
	return units
}

// flush returns whatever is left as the final access unit.
func (s *auSplitter) flush() []byte {
	rest := s.buf
	s.buf = nil
	s.scanned = 0
	return rest
}
