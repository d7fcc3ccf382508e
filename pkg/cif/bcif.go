package cif

import (
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// sourceScanner exposes a Source as an io.Reader and io.ByteScanner so the
// msgpack decoder reads straight from the Source without buffering past the
// current value.
type sourceScanner struct {
	src *Source
}

func (s sourceScanner) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := s.src.ReadExact(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

func (s sourceScanner) ReadByte() (byte, error) {
	b, err := s.src.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s sourceScanner) UnreadByte() error {
	return s.src.unreadByte()
}

// binaryState persists between Read calls on a BinaryCIF Reader.
type binaryState struct {
	dec *msgpack.Decoder

	// blocksLeft is -1 until the file header has been read.
	blocksLeft int
}

// readBinary processes one BinaryCIF data block.
func (r *Reader) readBinary() (bool, error) {
	if r.bin == nil {
		r.bin = &binaryState{
			dec:        msgpack.NewDecoder(sourceScanner{src: r.src}),
			blocksLeft: -1,
		}
	}
	if r.bin.blocksLeft < 0 {
		n, err := r.readFileHeader()
		if err != nil {
			return false, err
		}
		r.bin.blocksLeft = n
		r.logger.Debug("read BinaryCIF header", "blocks", n)
	}

	// Like the text engine, a call past the last block still finalizes.
	r.freeze()
	if r.bin.blocksLeft > 0 {
		if err := r.readBlock(); err != nil {
			return false, err
		}
		r.bin.blocksLeft--
		r.blocks++
	}

	if !r.structuralOnly {
		if err := r.deliverAll(); err != nil {
			return false, err
		}
		if err := r.finalizeAll(); err != nil {
			return false, err
		}
	}
	return r.bin.blocksLeft > 0, nil
}

// readFileHeader reads the top-level map up to and including the length of
// "dataBlocks", leaving the decoder at the first block. A file without
// "dataBlocks" has no blocks.
func (r *Reader) readFileHeader() (int, error) {
	n, err := r.readMapLen()
	if err != nil {
		return 0, err
	}
	for range n {
		key, err := r.readString()
		if err != nil {
			return 0, err
		}
		if key == "dataBlocks" {
			return r.readArrayLen()
		}
		if err := r.skip(); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func (r *Reader) readBlock() error {
	r.blockName = ""
	n, err := r.readMapLen()
	if err != nil {
		return err
	}
	for range n {
		key, err := r.readString()
		if err != nil {
			return err
		}
		switch key {
		case "header":
			if r.blockName, err = r.readString(); err != nil {
				return err
			}
		case "categories":
			err = r.readCategories()
		default:
			err = r.skip()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) readCategories() error {
	n, err := r.readArrayLen()
	if err != nil {
		return err
	}
	for range n {
		cat, err := r.readCategory()
		if err != nil {
			return err
		}
		r.logger.Debug("read BinaryCIF category",
			"name", cat.Name, "rows", cat.RowCount, "columns", len(cat.Columns))
		if err := r.handleBinaryCategory(cat); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) readCategory() (*BinaryCategory, error) {
	n, err := r.readMapLen()
	if err != nil {
		return nil, err
	}
	cat := &BinaryCategory{}
	for range n {
		key, err := r.readString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "name":
			cat.Name, err = r.readString()
		case "rowCount":
			cat.RowCount, err = r.readInt()
		case "columns":
			cat.Columns, err = r.readColumns()
		default:
			err = r.skip()
		}
		if err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (r *Reader) readColumns() ([]BinaryColumn, error) {
	n, err := r.readArrayLen()
	if err != nil {
		return nil, err
	}
	columns := make([]BinaryColumn, 0, min(n, maxPrealloc))
	for range n {
		col, err := r.readColumn()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (r *Reader) readColumn() (BinaryColumn, error) {
	var col BinaryColumn
	n, err := r.readMapLen()
	if err != nil {
		return col, err
	}
	for range n {
		key, err := r.readString()
		if err != nil {
			return col, err
		}
		switch key {
		case "name":
			col.Name, err = r.readString()
		case "data":
			col.Data, err = r.readData()
		case "mask":
			err = r.readMask(&col)
		default:
			err = r.skip()
		}
		if err != nil {
			return col, err
		}
	}
	r.logger.Debug("read BinaryCIF column", "name", col.Name,
		"encoding", ChainString(col.Data.Encoding))
	return col, nil
}

func (r *Reader) readMask(col *BinaryColumn) error {
	code, err := r.bin.dec.PeekCode()
	if err != nil {
		return binaryError(err, "expected a mask")
	}
	if code == nilCode {
		return r.skip()
	}
	mask, err := r.readData()
	if err != nil {
		return err
	}
	col.Mask = &mask
	return nil
}

// readData reads a {"data": bin, "encoding": [...]} map.
func (r *Reader) readData() (BinaryData, error) {
	var data BinaryData
	n, err := r.readMapLen()
	if err != nil {
		return data, err
	}
	for range n {
		key, err := r.readString()
		if err != nil {
			return data, err
		}
		switch key {
		case "data":
			data.Data, err = r.readBinaryBytes()
		case "encoding":
			data.Encoding, err = r.readEncodings()
		default:
			err = r.skip()
		}
		if err != nil {
			return data, err
		}
	}
	return data, nil
}

// readEncodings reads an encoding array. The result is ordered most recently
// parsed first.
func (r *Reader) readEncodings() ([]Encoding, error) {
	n, err := r.readArrayLen()
	if err != nil {
		return nil, err
	}
	chain := make([]Encoding, 0, min(n, maxPrealloc))
	for range n {
		enc, err := r.readEncoding()
		if err != nil {
			return nil, err
		}
		chain = append(chain, enc)
	}
	slices.Reverse(chain)
	return chain, nil
}

func (r *Reader) readEncoding() (Encoding, error) {
	enc := newEncoding()
	n, err := r.readMapLen()
	if err != nil {
		return enc, err
	}
	for range n {
		key, err := r.readString()
		if err != nil {
			return enc, err
		}
		var i int
		switch key {
		case "kind":
			if enc.KindName, err = r.readString(); err == nil {
				enc.Kind = ParseEncodingKind(enc.KindName)
			}
		case "dataEncoding":
			enc.DataEncoding, err = r.readEncodings()
		case "offsetEncoding":
			enc.OffsetEncoding, err = r.readEncodings()
		case "stringData":
			enc.StringData, err = r.readString()
		case "offsets":
			enc.Offsets, err = r.readBinaryBytes()
		case "origin":
			i, err = r.readInt()
			enc.Origin = int32(i) //nolint:gosec // BinaryCIF integers are 32-bit
		case "srcSize":
			enc.SrcSize, err = r.readInt()
		case "factor":
			enc.Factor, err = r.readNumber()
		case "type":
			i, err = r.readInt()
			enc.Type = int32(i) //nolint:gosec // BinaryCIF integers are 32-bit
		case "byteCount":
			i, err = r.readInt()
			enc.ByteCount = int32(i) //nolint:gosec // BinaryCIF integers are 32-bit
		case "isUnsigned":
			enc.IsUnsigned, err = r.readBool()
		default:
			err = r.skip()
		}
		if err != nil {
			return enc, err
		}
	}
	return enc, nil
}

const (
	// nilCode is the MessagePack nil marker.
	nilCode = 0xc0

	// maxPrealloc bounds slice capacity taken from untrusted lengths.
	maxPrealloc = 1024
)

func (r *Reader) readMapLen() (int, error) {
	n, err := r.bin.dec.DecodeMapLen()
	if err != nil {
		return 0, binaryError(err, "Was expecting a map")
	}
	if n < 0 {
		return 0, binaryError(nil, "Was expecting a map")
	}
	return n, nil
}

func (r *Reader) readArrayLen() (int, error) {
	n, err := r.bin.dec.DecodeArrayLen()
	if err != nil {
		return 0, binaryError(err, "Was expecting an array")
	}
	if n < 0 {
		return 0, binaryError(nil, "Was expecting an array")
	}
	return n, nil
}

func (r *Reader) readString() (string, error) {
	s, err := r.bin.dec.DecodeString()
	if err != nil {
		return "", binaryError(err, "Was expecting a string")
	}
	return s, nil
}

func (r *Reader) readBinaryBytes() ([]byte, error) {
	b, err := r.bin.dec.DecodeBytes()
	if err != nil {
		return nil, binaryError(err, "Was expecting binary")
	}
	return b, nil
}

func (r *Reader) readInt() (int, error) {
	n, err := r.bin.dec.DecodeInt64()
	if err != nil {
		return 0, binaryError(err, "Was expecting an integer")
	}
	return int(n), nil
}

func (r *Reader) readNumber() (float64, error) {
	f, err := r.bin.dec.DecodeFloat64()
	if err != nil {
		return 0, binaryError(err, "Was expecting a number")
	}
	return f, nil
}

func (r *Reader) readBool() (bool, error) {
	b, err := r.bin.dec.DecodeBool()
	if err != nil {
		return false, binaryError(err, "Was expecting a boolean")
	}
	return b, nil
}

// skip discards the next value, including nested maps and arrays.
func (r *Reader) skip() error {
	if err := r.bin.dec.Skip(); err != nil {
		return binaryError(err, "Could not skip object")
	}
	return nil
}
