package cif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultChunkSize is the number of bytes requested from a Filler per fill.
const DefaultChunkSize = 4 << 20

// SourceOptions configures a Source.
type SourceOptions struct {
	// ChunkSize is the fill request size. Zero means DefaultChunkSize.
	ChunkSize int

	// Retry controls waiting on would-block fills.
	Retry RetryPolicy
}

// Source buffers input from a Filler and hands it out either line by line
// (mmCIF) or as exact byte counts (BinaryCIF). Consumed bytes are dropped
// from the front of the buffer on each refill, so memory stays bounded by the
// longest line (or largest binary item) plus one chunk.
type Source struct {
	buf           byteBuffer
	lineStart     int
	nextLineStart int
	drained       bool

	filler    Filler
	chunkSize int
	retry     RetryPolicy
	sleep     func(time.Duration)
}

// NewSource returns a Source reading from filler.
func NewSource(filler Filler, opts SourceOptions) *Source {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Retry.Delay <= 0 {
		opts.Retry.Delay = DefaultRetryDelay
	}
	return &Source{
		filler:    filler,
		chunkSize: opts.ChunkSize,
		retry:     opts.Retry,
		sleep:     time.Sleep,
	}
}

// ReadLine returns the next line without its terminator. Lines end at "\n",
// "\r", "\r\n" or a NUL byte. At the true end of input the final partial
// line (possibly empty) is returned with eof set; further calls keep
// returning an empty line with eof set.
//
// The returned slice is only valid until the next call on the Source.
func (s *Source) ReadLine() ([]byte, bool, error) {
	s.lineStart = s.nextLineStart
	if s.lineStart > s.buf.Len() {
		return nil, true, nil
	}

	for {
		rest := s.buf.bytes()[s.lineStart:]
		if i := bytes.IndexAny(rest, "\r\n\x00"); i >= 0 {
			// A trailing '\r' may be the first half of "\r\n".
			if rest[i] != '\r' || i+1 < len(rest) || s.drained {
				return s.finishLine(s.lineStart + i), false, nil
			}
		}

		if s.drained {
			end := s.buf.Len()
			s.nextLineStart = end + 1
			return s.buf.bytes()[s.lineStart:end], true, nil
		}

		n, err := s.expand(0)
		if err != nil {
			return nil, false, err
		}
		if n == 0 {
			s.drained = true
		}
	}
}

func (s *Source) finishLine(end int) []byte {
	data := s.buf.bytes()
	s.nextLineStart = end + 1
	if data[end] == '\r' && end+1 < len(data) && data[end+1] == '\n' {
		s.nextLineStart++
	}
	return data[s.lineStart:end]
}

// ReadExact returns the next n bytes of input. It keeps filling until n
// bytes are available; if the input ends first an IO error wrapping
// ErrShortRead is returned.
//
// The returned slice is only valid until the next call on the Source.
func (s *Source) ReadExact(n int) ([]byte, error) {
	for s.lineStart+n > s.buf.Len() {
		if s.drained {
			return nil, ioError(fmt.Sprintf("read %d bytes", n), ErrShortRead)
		}
		got, err := s.expand(s.lineStart + n - s.buf.Len())
		if err != nil {
			return nil, err
		}
		if got == 0 {
			s.drained = true
		}
	}
	p := s.buf.bytes()[s.lineStart : s.lineStart+n]
	s.lineStart += n
	s.nextLineStart = s.lineStart
	return p, nil
}

// Peek returns up to n bytes of input without consuming them. Fewer than n
// bytes are returned only when the input ends first.
//
// The returned slice is only valid until the next call on the Source.
func (s *Source) Peek(n int) ([]byte, error) {
	s.lineStart = min(s.nextLineStart, s.buf.Len())
	s.nextLineStart = s.lineStart
	for s.lineStart+n > s.buf.Len() && !s.drained {
		got, err := s.expand(s.lineStart + n - s.buf.Len())
		if err != nil {
			return nil, err
		}
		if got == 0 {
			s.drained = true
		}
	}
	end := min(s.lineStart+n, s.buf.Len())
	return s.buf.bytes()[s.lineStart:end], nil
}

// Read implements io.Reader over the unconsumed input so a Source can feed
// another decoder, such as a decompressor.
func (s *Source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.lineStart = min(s.nextLineStart, s.buf.Len())
	s.nextLineStart = s.lineStart
	if s.lineStart == s.buf.Len() {
		if s.drained {
			return 0, io.EOF
		}
		got, err := s.expand(0)
		if err != nil {
			return 0, err
		}
		if got == 0 {
			s.drained = true
			return 0, io.EOF
		}
	}
	n := copy(p, s.buf.bytes()[s.lineStart:])
	s.lineStart += n
	s.nextLineStart = s.lineStart
	return n, nil
}

// unreadByte steps the binary read position back by one byte. It is only
// valid directly after a successful ReadExact.
func (s *Source) unreadByte() error {
	if s.lineStart == 0 {
		return ioError("unread byte", errors.New("at start of buffer"))
	}
	s.lineStart--
	s.nextLineStart = s.lineStart
	return nil
}

// expand drops consumed bytes and then appends one fill of at least
// minBytes (and at least one chunk) worth of space. It returns the number
// of bytes the Filler supplied.
func (s *Source) expand(minBytes int) (int, error) {
	if s.lineStart > 0 {
		s.buf.erase(0, s.lineStart)
		s.nextLineStart -= s.lineStart
		s.lineStart = 0
	}

	current := s.buf.Len()
	want := max(s.chunkSize, minBytes)
	s.buf.setSize(current + want)

	n, err := s.fill(s.buf.bytes()[current : current+want])
	n = min(max(n, 0), want)
	s.buf.setSize(current + n)
	return n, err
}

func (s *Source) fill(p []byte) (int, error) {
	for attempt := 0; ; attempt++ {
		n, err := s.filler.Fill(p)
		if err == nil {
			return n, nil
		}
		if !isWouldBlock(err) {
			return 0, ioError("read input", err)
		}
		if s.retry.MaxRetries > 0 && attempt >= s.retry.MaxRetries {
			return 0, ioError("read input", fmt.Errorf("%w: %w", ErrTooManyRetries, err))
		}
		s.sleep(s.retry.Delay)
	}
}
