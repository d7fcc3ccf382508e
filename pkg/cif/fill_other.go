//go:build !unix && !windows

package cif

import (
	"fmt"
	"runtime"
)

func (f *fdFiller) Fill([]byte) (int, error) {
	return 0, fmt.Errorf("read fd %d: descriptors are not supported on %s", f.fd, runtime.GOOS)
}
