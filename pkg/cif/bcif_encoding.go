package cif

import "strings"

// EncodingKind identifies a BinaryCIF column encoding.
type EncodingKind uint8

const (
	// EncodingUnsupported is any kind this package cannot decode.
	EncodingUnsupported EncodingKind = iota
	EncodingStringArray
	EncodingByteArray
	EncodingIntegerPacking
	EncodingDelta
	EncodingRunLength
	EncodingFixedPoint
)

var encodingKindNames = map[string]EncodingKind{
	"StringArray":    EncodingStringArray,
	"ByteArray":      EncodingByteArray,
	"IntegerPacking": EncodingIntegerPacking,
	"Delta":          EncodingDelta,
	"RunLength":      EncodingRunLength,
	"FixedPoint":     EncodingFixedPoint,
}

// ParseEncodingKind maps a BinaryCIF "kind" string to an EncodingKind.
func ParseEncodingKind(name string) EncodingKind {
	return encodingKindNames[name]
}

func (k EncodingKind) String() string {
	for name, kind := range encodingKindNames {
		if kind == k {
			return name
		}
	}
	return "Unsupported"
}

// ByteArray element types.
const (
	ByteTypeInt8    = 1
	ByteTypeInt16   = 2
	ByteTypeInt32   = 3
	ByteTypeUint8   = 4
	ByteTypeUint16  = 5
	ByteTypeUint32  = 6
	ByteTypeFloat32 = 32
	ByteTypeFloat64 = 33
)

// Encoding is one step of a column's encoding chain. Fields not used by Kind
// keep their defaults.
type Encoding struct {
	Kind     EncodingKind
	KindName string

	// Delta.
	Origin int32

	// RunLength and Delta: number of decoded values, 0 when not given.
	SrcSize int

	// FixedPoint.
	Factor float64

	// ByteArray element type, -1 when not given.
	Type int32

	// IntegerPacking.
	IsUnsigned bool
	ByteCount  int32

	// StringArray.
	StringData     string
	Offsets        []byte
	DataEncoding   []Encoding
	OffsetEncoding []Encoding
}

// newEncoding returns an Encoding with the BinaryCIF defaults.
func newEncoding() Encoding {
	return Encoding{
		Factor:    1,
		Type:      -1,
		ByteCount: 1,
	}
}

// BinaryData is an encoded byte payload together with the chain needed to
// decode it. The chain is ordered most recently parsed first, which is also
// the order the steps must be applied in.
type BinaryData struct {
	Data     []byte
	Encoding []Encoding
}

// BinaryColumn is one column of a BinaryCIF category.
type BinaryColumn struct {
	Name string
	Data BinaryData

	// Mask marks omitted (1) and unknown (2) rows. It is nil when every
	// row holds a value.
	Mask *BinaryData
}

// BinaryCategory is a BinaryCIF category after its structure has been read.
// It is only valid during the call that receives it.
type BinaryCategory struct {
	Name     string
	RowCount int
	Columns  []BinaryColumn
}

// ChainString renders a chain as "ByteArray<-IntegerPacking<-Delta" for
// diagnostics, in application order.
func ChainString(chain []Encoding) string {
	names := make([]string, 0, len(chain))
	for _, enc := range chain {
		name := enc.Kind.String()
		if enc.Kind == EncodingUnsupported && enc.KindName != "" {
			name = enc.KindName
		}
		names = append(names, name)
	}
	return strings.Join(names, "<-")
}
