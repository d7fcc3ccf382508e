package cif_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gocif/pkg/cif"
)

func int8Bytes(values ...int8) []byte {
	out := make([]byte, len(values))
	for i, v := range values {
		out[i] = byte(v)
	}
	return out
}

func enc(kind cif.EncodingKind, typ int32) cif.Encoding {
	return cif.Encoding{Kind: kind, KindName: kind.String(), Type: typ, Factor: 1, ByteCount: 1}
}

func rleSized(srcSize int) cif.Encoding {
	e := enc(cif.EncodingRunLength, -1)
	e.SrcSize = srcSize
	return e
}

func texts(t *testing.T, col *cif.Column) []string {
	t.Helper()

	out := make([]string, col.Len())
	for i := range out {
		v, ok := col.Text(i)
		if !ok {
			v = "<none>"
		}
		out[i] = v
	}
	return out
}

func TestDecode(t *testing.T) {
	t.Parallel()

	float64Bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(float64Bytes, math.Float64bits(1.5))
	float32Bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(float32Bytes, math.Float32bits(0.1))

	packed := func(unsigned bool) cif.Encoding {
		e := enc(cif.EncodingIntegerPacking, -1)
		e.IsUnsigned = unsigned
		return e
	}
	delta := enc(cif.EncodingDelta, -1)
	delta.Origin = 10
	fixed := enc(cif.EncodingFixedPoint, -1)
	fixed.Factor = 100

	strArray := enc(cif.EncodingStringArray, -1)
	strArray.StringData = "ALAGLY"
	strArray.DataEncoding = []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32)}
	strArray.OffsetEncoding = []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32)}
	strArray.Offsets = int32Bytes(0, 3, 6)

	tests := []struct {
		name  string
		data  []byte
		chain []cif.Encoding
		want  []string
	}{
		{
			name:  "int8",
			data:  int8Bytes(-1, 5),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt8)},
			want:  []string{"-1", "5"},
		},
		{
			name:  "uint16",
			data:  []byte{0xff, 0xff, 0x01, 0x00},
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeUint16)},
			want:  []string{"65535", "1"},
		},
		{
			name:  "int32",
			data:  int32Bytes(-70000, 3),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32)},
			want:  []string{"-70000", "3"},
		},
		{
			name:  "float64",
			data:  float64Bytes,
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeFloat64)},
			want:  []string{"1.5"},
		},
		{
			name:  "float32",
			data:  float32Bytes,
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeFloat32)},
			want:  []string{"0.1"},
		},
		{
			name:  "signed integer packing",
			data:  int8Bytes(127, 3, -128, -2, 5),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt8), packed(false)},
			want:  []string{"130", "-130", "5"},
		},
		{
			name:  "unsigned integer packing",
			data:  []byte{255, 10, 7},
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeUint8), packed(true)},
			want:  []string{"265", "7"},
		},
		{
			name:  "delta",
			data:  int32Bytes(0, 1, 2),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), delta},
			want:  []string{"10", "11", "13"},
		},
		{
			name:  "run length",
			data:  int32Bytes(5, 3, 7, 1),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), enc(cif.EncodingRunLength, -1)},
			want:  []string{"5", "5", "5", "7"},
		},
		{
			name:  "run length with srcSize",
			data:  int32Bytes(5, 3, 7, 1),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), rleSized(4)},
			want:  []string{"5", "5", "5", "7"},
		},
		{
			name:  "fixed point",
			data:  int32Bytes(123, -5),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), fixed},
			want:  []string{"1.23", "-0.05"},
		},
		{
			name:  "string array",
			data:  int32Bytes(1, 0, -1),
			chain: []cif.Encoding{strArray},
			want:  []string{"GLY", "ALA", "<none>"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			col, err := cif.Decode(testCase.data, testCase.chain)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, texts(t, col))
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	unsupported := cif.Encoding{KindName: "MysteryEncoding"}
	fixed := enc(cif.EncodingFixedPoint, -1)

	tests := []struct {
		name  string
		data  []byte
		chain []cif.Encoding
		want  string
	}{
		{
			name:  "no encodings",
			data:  []byte{1},
			chain: nil,
			want:  "still raw bytes",
		},
		{
			name:  "unsupported kind",
			data:  []byte{1},
			chain: []cif.Encoding{unsupported},
			want:  `unsupported encoding "MysteryEncoding"`,
		},
		{
			name:  "unsupported byte type",
			data:  []byte{1},
			chain: []cif.Encoding{enc(cif.EncodingByteArray, 7)},
			want:  "unsupported ByteArray type 7",
		},
		{
			name:  "misaligned bytes",
			data:  []byte{1, 2, 3},
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt16)},
			want:  "not a multiple of 2",
		},
		{
			name:  "odd run length",
			data:  int8Bytes(1, 2, 3),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt8), enc(cif.EncodingRunLength, -1)},
			want:  "odd length 3",
		},
		{
			name:  "run length past the value limit",
			data:  int32Bytes(7, 1<<30),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), enc(cif.EncodingRunLength, -1)},
			want:  fmt.Sprintf("RunLength expands past %d values", cif.MaxDecodedValues),
		},
		{
			name:  "run length pairs summing past the limit",
			data:  int32Bytes(1, cif.MaxDecodedValues, 2, 1),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), enc(cif.EncodingRunLength, -1)},
			want:  "RunLength expands past",
		},
		{
			name:  "run length disagrees with srcSize",
			data:  int32Bytes(5, 3),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), rleSized(4)},
			want:  "expands to 3 values, srcSize is 4",
		},
		{
			name:  "negative run length",
			data:  int32Bytes(5, -1),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), enc(cif.EncodingRunLength, -1)},
			want:  "count -1 is negative",
		},
		{
			name:  "unterminated packing",
			data:  int8Bytes(1, 127),
			chain: []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt8), enc(cif.EncodingIntegerPacking, -1)},
			want:  "not terminated",
		},
		{
			name:  "fixed point on raw bytes",
			data:  []byte{1},
			chain: []cif.Encoding{fixed},
			want:  "FixedPoint cannot be applied",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := cif.Decode(testCase.data, testCase.chain)
			require.Error(t, err)
			assert.True(t, cif.IsFileFormat(err))
			assert.Contains(t, err.Error(), testCase.want)
		})
	}
}

func TestColumnAccessors(t *testing.T) {
	t.Parallel()

	col, err := cif.Decode(int32Bytes(4, 5), []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32)})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, col.Ints())
	assert.Nil(t, col.Floats())

	fixed := enc(cif.EncodingFixedPoint, -1)
	fixed.Factor = 10
	col, err = cif.Decode(int32Bytes(15), []cif.Encoding{enc(cif.EncodingByteArray, cif.ByteTypeInt32), fixed})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, col.Floats())
	assert.Nil(t, col.Ints())
}

func TestParseEncodingKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cif.EncodingDelta, cif.ParseEncodingKind("Delta"))
	assert.Equal(t, cif.EncodingUnsupported, cif.ParseEncodingKind("delta"))
	assert.Equal(t, "RunLength", cif.EncodingRunLength.String())
	assert.Equal(t, "ByteArray<-IntegerPacking", cif.ChainString([]cif.Encoding{
		{Kind: cif.EncodingByteArray}, {Kind: cif.EncodingIntegerPacking},
	}))
}
