package audio

import "io"

// SliceSource plays an in-memory sample slice.
type SliceSource struct {
	samples []float32
	pos     int
}

func NewSliceSource(samples []float32) *SliceSource {
	return &SliceSource{samples: samples}
}

func (s *SliceSource) Read(dst []float32) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(dst, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

// Remaining returns the number of unread samples.
func (s *SliceSource) Remaining() int {
	return len(s.samples) - s.pos
}

// fill reads from src until dst is full or src is exhausted. It reports
// whether src reached EOF.
func fill(src Source, dst []float32) (int, bool) {
	total := 0
	for total < len(dst) {
		n, err := src.Read(dst[total:])
		total += n
		if err != nil {
			return total, true
		}
		if n == 0 {
			break
		}
	}
	return total, false
}
