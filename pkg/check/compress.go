package check

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic starts every gzip member. The PDB archive ships both mmCIF and
// BinaryCIF files gzip-compressed.
var gzipMagic = []byte{0x1f, 0x8b}

// Decompress returns a reader of r's content, transparently inflating a
// gzip stream. The second result reports whether r was compressed.
func Decompress(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("read header: %w", err)
	}
	if !IsGzip(head) {
		return br, false, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, false, fmt.Errorf("open gzip stream: %w", err)
	}
	return zr, true, nil
}

// IsGzip reports whether head starts with the gzip magic bytes.
func IsGzip(head []byte) bool {
	return bytes.HasPrefix(head, gzipMagic)
}
