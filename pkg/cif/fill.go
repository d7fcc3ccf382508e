package cif

import (
	"errors"
	"io"
	"time"
)

// Filler supplies input bytes to a Source. Fill writes up to len(p) bytes
// into p and returns how many it wrote; 0 with a nil error means end of
// input. Returning ErrWouldBlock (or an error wrapping EAGAIN) asks the
// Source to wait and retry.
type Filler interface {
	Fill(p []byte) (int, error)
}

// FillerFunc adapts an ordinary function to the Filler interface.
type FillerFunc func(p []byte) (int, error)

// Fill calls f(p).
func (f FillerFunc) Fill(p []byte) (int, error) {
	return f(p)
}

// RetryPolicy controls how a Source waits on a Filler that reports no data
// is available yet.
type RetryPolicy struct {
	// Delay between attempts. Zero means DefaultRetryDelay.
	Delay time.Duration

	// MaxRetries bounds consecutive would-block results. Zero means retry
	// forever.
	MaxRetries int
}

// DefaultRetryDelay is the pause between would-block retries.
const DefaultRetryDelay = 100 * time.Microsecond

type readerFiller struct {
	r io.Reader
}

// NewReaderFiller returns a Filler that reads from r. io.EOF is mapped to
// end of input; a read that returns no bytes and no error is treated as
// would-block.
func NewReaderFiller(r io.Reader) Filler {
	return &readerFiller{r: r}
}

func (f *readerFiller) Fill(p []byte) (int, error) {
	n, err := f.r.Read(p)
	switch {
	case n > 0:
		// Bytes already read take precedence; a sticky error returns again.
		return n, nil
	case errors.Is(err, io.EOF):
		return 0, nil
	case err != nil:
		return 0, err
	default:
		return 0, ErrWouldBlock
	}
}

// fdFiller reads a raw descriptor without wrapping it in an *os.File, so
// the descriptor is never closed or registered with the runtime poller.
type fdFiller struct {
	fd uintptr
}

// NewFDFiller returns a Filler that reads from an already open file
// descriptor (a handle on Windows). The descriptor is not closed by the
// Filler and must stay open while the Filler is in use. On a non-blocking
// descriptor an empty read reports ErrWouldBlock, which the Source retries.
func NewFDFiller(fd uintptr) Filler {
	return &fdFiller{fd: fd}
}
