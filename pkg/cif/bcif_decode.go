package cif

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

type columnKind uint8

const (
	columnRaw columnKind = iota
	columnInts
	columnFloats
	columnStrings
)

// Column is a fully decoded BinaryCIF column.
type Column struct {
	kind      columnKind
	raw       []byte
	ints      []int64
	floats    []float64
	floatBits int
	strs      []string
	present   []bool

	// limit bounds RunLength expansion.
	limit int
}

// Len returns the number of values.
func (c *Column) Len() int {
	switch c.kind {
	case columnInts:
		return len(c.ints)
	case columnFloats:
		return len(c.floats)
	case columnStrings:
		return len(c.strs)
	default:
		return 0
	}
}

// Ints returns the values of an integer column, or nil.
func (c *Column) Ints() []int64 {
	if c.kind != columnInts {
		return nil
	}
	return c.ints
}

// Floats returns the values of a floating-point column, or nil.
func (c *Column) Floats() []float64 {
	if c.kind != columnFloats {
		return nil
	}
	return c.floats
}

// Text returns value i formatted as mmCIF text. ok is false for a string
// column entry that has no value.
func (c *Column) Text(i int) (string, bool) {
	switch c.kind {
	case columnInts:
		return strconv.FormatInt(c.ints[i], 10), true
	case columnFloats:
		return strconv.FormatFloat(c.floats[i], 'f', -1, c.floatBits), true
	case columnStrings:
		return c.strs[i], c.present[i]
	default:
		return "", false
	}
}

// MaxDecodedValues bounds the number of values a single column may expand
// to. Expanding encodings that would exceed it fail with a FileFormat error.
const MaxDecodedValues = 1 << 25

// Decode applies chain to data. The chain is ordered as stored in
// BinaryData: its first element is applied first.
func Decode(data []byte, chain []Encoding) (*Column, error) {
	return decode(data, chain, MaxDecodedValues)
}

// decode is Decode with a bound on the number of values.
func decode(data []byte, chain []Encoding, limit int) (*Column, error) {
	col := &Column{kind: columnRaw, raw: data, limit: limit}
	for _, enc := range chain {
		if err := col.apply(enc); err != nil {
			return nil, err
		}
	}
	if col.kind == columnRaw {
		return nil, decodeErrorf("data is still raw bytes after %q", ChainString(chain))
	}
	return col, nil
}

func decodeInts(data []byte, chain []Encoding, limit int) ([]int64, error) {
	col, err := decode(data, chain, limit)
	if err != nil {
		return nil, err
	}
	if col.kind != columnInts {
		return nil, decodeErrorf("expected integers from %q", ChainString(chain))
	}
	return col.ints, nil
}

func decodeErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindFileFormat, Msg: "decode BinaryCIF column: " + fmt.Sprintf(format, args...)}
}

func (c *Column) apply(enc Encoding) error {
	switch enc.Kind {
	case EncodingByteArray:
		return c.applyByteArray(enc)
	case EncodingIntegerPacking:
		return c.applyIntegerPacking(enc)
	case EncodingDelta:
		return c.applyDelta(enc)
	case EncodingRunLength:
		return c.applyRunLength(enc)
	case EncodingFixedPoint:
		return c.applyFixedPoint(enc)
	case EncodingStringArray:
		return c.applyStringArray(enc)
	default:
		return decodeErrorf("unsupported encoding %q", enc.KindName)
	}
}

func (c *Column) expect(kind columnKind, enc Encoding) error {
	if c.kind != kind {
		return decodeErrorf("%s cannot be applied at this point of the chain", enc.Kind)
	}
	return nil
}

func (c *Column) setInts(ints []int64) {
	c.kind, c.raw, c.ints = columnInts, nil, ints
}

func (c *Column) applyByteArray(enc Encoding) error {
	if err := c.expect(columnRaw, enc); err != nil {
		return err
	}

	size := map[int32]int{
		ByteTypeInt8: 1, ByteTypeUint8: 1,
		ByteTypeInt16: 2, ByteTypeUint16: 2,
		ByteTypeInt32: 4, ByteTypeUint32: 4, ByteTypeFloat32: 4,
		ByteTypeFloat64: 8,
	}[enc.Type]
	if size == 0 {
		return decodeErrorf("unsupported ByteArray type %d", enc.Type)
	}
	if len(c.raw)%size != 0 {
		return decodeErrorf("ByteArray of %d bytes is not a multiple of %d", len(c.raw), size)
	}

	n := len(c.raw) / size
	le := binary.LittleEndian
	switch enc.Type {
	case ByteTypeFloat32, ByteTypeFloat64:
		floats := make([]float64, n)
		for i := range floats {
			if enc.Type == ByteTypeFloat32 {
				floats[i] = float64(math.Float32frombits(le.Uint32(c.raw[i*4:])))
			} else {
				floats[i] = math.Float64frombits(le.Uint64(c.raw[i*8:]))
			}
		}
		c.floatBits = 64
		if enc.Type == ByteTypeFloat32 {
			c.floatBits = 32
		}
		c.kind, c.raw, c.floats = columnFloats, nil, floats
		return nil
	}

	ints := make([]int64, n)
	for i := range ints {
		switch enc.Type {
		case ByteTypeInt8:
			ints[i] = int64(int8(c.raw[i])) //nolint:gosec // two's complement reinterpretation
		case ByteTypeUint8:
			ints[i] = int64(c.raw[i])
		case ByteTypeInt16:
			ints[i] = int64(int16(le.Uint16(c.raw[i*2:]))) //nolint:gosec // two's complement reinterpretation
		case ByteTypeUint16:
			ints[i] = int64(le.Uint16(c.raw[i*2:]))
		case ByteTypeInt32:
			ints[i] = int64(int32(le.Uint32(c.raw[i*4:]))) //nolint:gosec // two's complement reinterpretation
		case ByteTypeUint32:
			ints[i] = int64(le.Uint32(c.raw[i*4:]))
		}
	}
	c.setInts(ints)
	return nil
}

// applyIntegerPacking undoes packing of wide integers into 1- or 2-byte
// values: a run of limit values is summed together with the value ending it.
func (c *Column) applyIntegerPacking(enc Encoding) error {
	if err := c.expect(columnInts, enc); err != nil {
		return err
	}

	var upper, lower int64
	switch {
	case enc.ByteCount == 1 && enc.IsUnsigned:
		upper = math.MaxUint8
	case enc.ByteCount == 1:
		upper, lower = math.MaxInt8, math.MinInt8
	case enc.IsUnsigned:
		upper = math.MaxUint16
	default:
		upper, lower = math.MaxInt16, math.MinInt16
	}

	out := make([]int64, 0, len(c.ints))
	for i := 0; i < len(c.ints); i++ {
		var value int64
		for {
			t := c.ints[i]
			value += t
			if t != upper && (enc.IsUnsigned || t != lower) {
				break
			}
			i++
			if i == len(c.ints) {
				return decodeErrorf("IntegerPacking run is not terminated")
			}
		}
		out = append(out, value)
	}
	c.setInts(out)
	return nil
}

func (c *Column) applyDelta(enc Encoding) error {
	if err := c.expect(columnInts, enc); err != nil {
		return err
	}
	value := int64(enc.Origin)
	out := make([]int64, len(c.ints))
	for i, d := range c.ints {
		value += d
		out[i] = value
	}
	c.setInts(out)
	return nil
}

// applyRunLength expands (value, count) pairs. The total is checked against
// the column limit and the encoding's srcSize before anything is allocated.
func (c *Column) applyRunLength(enc Encoding) error {
	if c.kind != columnInts {
		return decodeErrorf("RunLength cannot be applied at this point of the chain")
	}
	if len(c.ints)%2 != 0 {
		return decodeErrorf("RunLength data has odd length %d", len(c.ints))
	}

	total := 0
	for i := 1; i < len(c.ints); i += 2 {
		count := c.ints[i]
		if count < 0 {
			return decodeErrorf("RunLength count %d is negative", count)
		}
		if count > int64(c.limit-total) {
			return decodeErrorf("RunLength expands past %d values", c.limit)
		}
		total += int(count)
	}
	if enc.SrcSize > 0 && total != enc.SrcSize {
		return decodeErrorf("RunLength expands to %d values, srcSize is %d", total, enc.SrcSize)
	}

	out := make([]int64, 0, total)
	for i := 0; i < len(c.ints); i += 2 {
		for range c.ints[i+1] {
			out = append(out, c.ints[i])
		}
	}
	c.setInts(out)
	return nil
}

func (c *Column) applyFixedPoint(enc Encoding) error {
	if err := c.expect(columnInts, enc); err != nil {
		return err
	}
	if enc.Factor == 0 {
		return decodeErrorf("FixedPoint factor is zero")
	}
	out := make([]float64, len(c.ints))
	for i, v := range c.ints {
		out[i] = float64(v) / enc.Factor
	}
	c.kind, c.ints, c.floats, c.floatBits = columnFloats, nil, out, 64
	return nil
}

// applyStringArray resolves indices into the substrings of StringData cut at
// Offsets. A negative index has no value.
func (c *Column) applyStringArray(enc Encoding) error {
	if err := c.expect(columnRaw, enc); err != nil {
		return err
	}
	indices, err := decodeInts(c.raw, enc.DataEncoding, c.limit)
	if err != nil {
		return err
	}
	offsets, err := decodeInts(enc.Offsets, enc.OffsetEncoding, c.limit+1)
	if err != nil {
		return err
	}

	substrings := make([]string, 0, max(len(offsets)-1, 0))
	for i := 1; i < len(offsets); i++ {
		start, end := offsets[i-1], offsets[i]
		if start < 0 || end < start || end > int64(len(enc.StringData)) {
			return decodeErrorf("StringArray offsets %d..%d out of range", start, end)
		}
		substrings = append(substrings, enc.StringData[start:end])
	}

	strs := make([]string, len(indices))
	present := make([]bool, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			continue
		}
		if idx >= int64(len(substrings)) {
			return decodeErrorf("StringArray index %d out of range", idx)
		}
		strs[i], present[i] = substrings[idx], true
	}
	c.kind, c.raw, c.strs, c.present = columnStrings, nil, strs, present
	return nil
}

// Mask values other than 0 mark rows without a literal value.
const (
	maskOmitted = 1
	maskUnknown = 2
)

func columnError(category, column string, err error) *Error {
	return &Error{Kind: KindFileFormat, Msg: fmt.Sprintf("column %s.%s", category, column), Err: err}
}

type boundColumn struct {
	keyword *Keyword
	values  *Column
	mask    []int64
}

// handleBinaryCategory passes cat to the binary category handler and then,
// unless reads are structural only, decodes the registered columns and
// delivers one row at a time.
func (r *Reader) handleBinaryCategory(cat *BinaryCategory) error {
	if r.binaryCategory != nil {
		if err := r.binaryCategory(r, cat); err != nil {
			return err
		}
	}
	if r.structuralOnly {
		return nil
	}

	c, ok, err := r.lookupCategory(cat.Name)
	if err != nil || !ok {
		return err
	}

	if cat.RowCount < 0 {
		return &Error{Kind: KindFileFormat, Msg: fmt.Sprintf("category %s has negative rowCount %d", cat.Name, cat.RowCount)}
	}
	limit := columnLimit(cat)

	bound := make([]boundColumn, 0, len(cat.Columns))
	for i := range cat.Columns {
		col := &cat.Columns[i]
		kw, ok, err := r.lookupKeyword(c, col.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		b, err := bindColumn(kw, col, limit)
		if err != nil {
			return columnError(cat.Name, col.Name, err)
		}
		bound = append(bound, b)
	}

	rows, err := binaryRowCount(cat, bound, limit)
	if err != nil {
		return err
	}
	for row := range rows {
		if c.removed {
			break
		}
		for _, b := range bound {
			b.set(row)
		}
		if err := r.deliver(c, true); err != nil {
			return err
		}
	}
	return nil
}

// columnLimit is the most values any column of cat may decode to: the
// declared rowCount, or MaxDecodedValues when none is given.
func columnLimit(cat *BinaryCategory) int {
	if cat.RowCount > 0 && cat.RowCount < MaxDecodedValues {
		return cat.RowCount
	}
	return MaxDecodedValues
}

func bindColumn(kw *Keyword, col *BinaryColumn, limit int) (boundColumn, error) {
	values, err := decode(col.Data.Data, col.Data.Encoding, limit)
	if err != nil {
		return boundColumn{}, err
	}
	b := boundColumn{keyword: kw, values: values}
	if col.Mask != nil {
		if b.mask, err = decodeInts(col.Mask.Data, col.Mask.Encoding, limit); err != nil {
			return boundColumn{}, err
		}
		if len(b.mask) != values.Len() {
			return boundColumn{}, decodeErrorf("mask has %d entries for %d values", len(b.mask), values.Len())
		}
	}
	return b, nil
}

func (b boundColumn) set(row int) {
	if b.mask != nil {
		switch b.mask[row] {
		case maskOmitted:
			b.keyword.setOmitted()
			return
		case maskUnknown:
			b.keyword.setUnknown()
			return
		}
	}
	if text, ok := b.values.Text(row); ok {
		b.keyword.setOwned(text)
	} else {
		b.keyword.setOmitted()
	}
}

// binaryRowCount settles the number of rows from the column lengths: the
// bound columns, or the first column when none is bound. A declared rowCount
// must agree with them. A category without columns has no rows.
func binaryRowCount(cat *BinaryCategory, bound []boundColumn, limit int) (int, error) {
	var (
		rows     int
		measured string
	)
	switch {
	case len(bound) > 0:
		rows, measured = bound[0].values.Len(), bound[0].keyword.name
	case len(cat.Columns) > 0:
		first := &cat.Columns[0]
		values, err := decode(first.Data.Data, first.Data.Encoding, limit)
		if err != nil {
			return 0, columnError(cat.Name, first.Name, err)
		}
		rows, measured = values.Len(), first.Name
	default:
		return 0, nil
	}

	if cat.RowCount > 0 && rows != cat.RowCount {
		return 0, decodeErrorf("column %s.%s has %d values, expected %d",
			cat.Name, measured, rows, cat.RowCount)
	}
	for _, b := range bound {
		if b.values.Len() != rows {
			return 0, decodeErrorf("column %s.%s has %d values, expected %d",
				cat.Name, b.keyword.name, b.values.Len(), rows)
		}
	}
	return rows, nil
}
