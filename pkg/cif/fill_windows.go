//go:build windows

package cif

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

func (f *fdFiller) Fill(p []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(windows.Handle(f.fd), p, &n, nil)
	switch {
	case errors.Is(err, windows.ERROR_BROKEN_PIPE), errors.Is(err, windows.ERROR_HANDLE_EOF):
		return 0, nil
	case errors.Is(err, windows.ERROR_NO_DATA):
		return 0, ErrWouldBlock
	case err != nil:
		return 0, fmt.Errorf("read handle %d: %w", f.fd, err)
	}
	return int(n), nil
}
