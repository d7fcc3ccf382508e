package check

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/yaklabco/gocif/pkg/config"
)

// MessagePack map markers. A BinaryCIF file is a single top-level map.
const (
	fixMapLow  = 0x80
	fixMapHigh = 0x8f
	map16      = 0xde
	map32      = 0xdf
)

// IsBinaryLead reports whether b can start a BinaryCIF file.
func IsBinaryLead(b byte) bool {
	return (b >= fixMapLow && b <= fixMapHigh) || b == map16 || b == map32
}

// Sniff reads the first byte of r to choose between mmCIF and BinaryCIF and
// returns a reader that still yields that byte. Empty input is mmCIF.
func Sniff(r io.Reader) (config.InputFormat, io.Reader, error) {
	var first [1]byte

	n, err := io.ReadFull(r, first[:])
	switch {
	case errors.Is(err, io.EOF):
		return config.InputMMCIF, r, nil
	case err != nil:
		return "", nil, fmt.Errorf("read first byte: %w", err)
	}

	format := config.InputMMCIF
	if IsBinaryLead(first[0]) {
		format = config.InputBCIF
	}
	return format, io.MultiReader(bytes.NewReader(first[:n]), r), nil
}
