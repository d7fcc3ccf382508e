//go:build unix

package cif

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func (f *fdFiller) Fill(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(f.fd), p) //nolint:gosec // descriptors fit in an int
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return 0, ErrWouldBlock
		case err != nil:
			return 0, fmt.Errorf("read fd %d: %w", f.fd, err)
		}
		return n, nil
	}
}
