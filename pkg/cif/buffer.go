package cif

// byteBuffer is a growable owned byte sequence. Its logical length may be
// smaller than the backing slice; bytes exposed by growing are not cleared
// and must be written before they are read.
type byteBuffer struct {
	b []byte
}

const initialBufferCapacity = 64

func (s *byteBuffer) Len() int {
	return len(s.b)
}

func (s *byteBuffer) bytes() []byte {
	return s.b
}

// setSize sets the logical length to n. Capacity never shrinks; growth at
// least doubles it so appends are amortized O(1).
func (s *byteBuffer) setSize(n int) {
	if n > cap(s.b) {
		capacity := max(2*cap(s.b), initialBufferCapacity)
		if n > capacity {
			capacity = n
		}
		grown := make([]byte, len(s.b), capacity)
		copy(grown, s.b)
		s.b = grown
	}
	s.b = s.b[:n]
}

// erase removes n bytes starting at pos.
func (s *byteBuffer) erase(pos, n int) {
	copy(s.b[pos:], s.b[pos+n:])
	s.b = s.b[:len(s.b)-n]
}

func (s *byteBuffer) assign(p []byte) {
	s.setSize(len(p))
	copy(s.b, p)
}

func (s *byteBuffer) append(p []byte) {
	old := len(s.b)
	s.setSize(old + len(p))
	copy(s.b[old:], p)
}

func (s *byteBuffer) appendByte(c byte) {
	old := len(s.b)
	s.setSize(old + 1)
	s.b[old] = c
}
