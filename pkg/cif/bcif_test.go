package cif_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yaklabco/gocif/pkg/cif"
)

func encodeDocument(t *testing.T, doc any) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func byteArray(typ int) map[string]any {
	return map[string]any{"kind": "ByteArray", "type": typ}
}

func int32Bytes(values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v)) //nolint:gosec // two's complement
	}
	return out
}

func intColumn(name string, values ...int32) map[string]any {
	return map[string]any{
		"name": name,
		"data": map[string]any{
			"data":     int32Bytes(values...),
			"encoding": []any{byteArray(cif.ByteTypeInt32)},
		},
		"mask": nil,
	}
}

// runLengthColumn stores (value, count) pairs as a RunLength column.
func runLengthColumn(name string, pairs ...int32) map[string]any {
	return map[string]any{
		"name": name,
		"data": map[string]any{
			"data": int32Bytes(pairs...),
			"encoding": []any{
				map[string]any{"kind": "RunLength", "srcType": cif.ByteTypeInt32},
				byteArray(cif.ByteTypeInt32),
			},
		},
	}
}

func stringColumn(name string, values ...string) map[string]any {
	seen := map[string]int32{}
	var text strings.Builder
	offsets := []int32{0}
	indices := make([]int32, len(values))
	for i, v := range values {
		idx, ok := seen[v]
		if !ok {
			idx = int32(len(seen)) //nolint:gosec // small test fixture
			seen[v] = idx
			text.WriteString(v)
			offsets = append(offsets, int32(text.Len())) //nolint:gosec // small test fixture
		}
		indices[i] = idx
	}

	return map[string]any{
		"name": name,
		"data": map[string]any{
			"data": int32Bytes(indices...),
			"encoding": []any{map[string]any{
				"kind":           "StringArray",
				"dataEncoding":   []any{byteArray(cif.ByteTypeInt32)},
				"stringData":     text.String(),
				"offsetEncoding": []any{byteArray(cif.ByteTypeInt32)},
				"offsets":        int32Bytes(offsets...),
			}},
		},
	}
}

func withMask(col map[string]any, mask ...int8) map[string]any {
	raw := make([]byte, len(mask))
	for i, m := range mask {
		raw[i] = byte(m)
	}
	col["mask"] = map[string]any{
		"data":     raw,
		"encoding": []any{byteArray(cif.ByteTypeInt8)},
	}
	return col
}

func bcifCategory(name string, rows int, columns ...map[string]any) map[string]any {
	cat := map[string]any{"name": name, "columns": columns}
	if rows > 0 {
		cat["rowCount"] = rows
	}
	return cat
}

func bcifBlock(header string, categories ...map[string]any) map[string]any {
	return map[string]any{"header": header, "categories": categories}
}

func bcifDocument(blocks ...map[string]any) map[string]any {
	return map[string]any{
		"version":    "0.3.0",
		"encoder":    "gocif tests",
		"dataBlocks": blocks,
	}
}

func newBinaryReader(data []byte, opts ...cif.Option) *cif.Reader {
	src := cif.NewSource(cif.NewReaderFiller(bytes.NewReader(data)), cif.SourceOptions{ChunkSize: 16})
	return cif.NewReader(src, cif.FormatBinary, opts...)
}

func TestBinaryReader_DeliversRows(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(
		bcifBlock("1ABC",
			bcifCategory("_atom_site", 3,
				intColumn("id", 1, 2, 3),
				withMask(stringColumn("type_symbol", "N", "C", "N"), 0, 1, 2),
				intColumn("occupancy_extra", 9, 9, 9),
			),
			bcifCategory("_unregistered", 1, intColumn("x", 1)),
		),
		bcifBlock("2XYZ",
			bcifCategory("_atom_site", 1,
				intColumn("id", 7),
				stringColumn("type_symbol", "O"),
			),
		),
	)

	r := newBinaryReader(encodeDocument(t, doc))
	rec := recordCategory(r, "_atom_site", "id", "type_symbol")
	var unknown []string
	r.SetUnknownCategoryHandler(func(_ *cif.Reader, category string, line int) error {
		unknown = append(unknown, fmt.Sprintf("category %s at %d", category, line))
		return nil
	}, nil)
	r.SetUnknownKeywordHandler(func(_ *cif.Reader, category, keyword string, line int) error {
		unknown = append(unknown, fmt.Sprintf("keyword %s.%s at %d", category, keyword, line))
		return nil
	}, nil)

	more, err := r.Read()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, "1ABC", r.BlockName())
	assert.Equal(t, []string{"1 N", "2 <omitted>", "3 <unknown>"}, rec.rows)
	assert.Equal(t, []string{
		"keyword _atom_site.occupancy_extra at 0",
		"category _unregistered at 0",
	}, unknown)

	more, err = r.Read()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, "2XYZ", r.BlockName())
	assert.Equal(t, []string{"1 N", "2 <omitted>", "3 <unknown>", "7 O"}, rec.rows)
}

func TestBinaryReader_NoDataBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  map[string]any
	}{
		{name: "no dataBlocks key", doc: map[string]any{"version": "0.3.0"}},
		{name: "empty dataBlocks", doc: map[string]any{"dataBlocks": []any{}}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			r := newBinaryReader(encodeDocument(t, testCase.doc))
			rec := recordCategory(r, "_entry", "id")
			finalized := 0
			r.AddCategory("_struct", cif.Callbacks{
				Finalize: func(*cif.Reader) error {
					finalized++
					return nil
				},
			})

			more, err := r.Read()
			require.NoError(t, err)
			assert.False(t, more)
			assert.Empty(t, rec.rows)
			assert.Equal(t, 1, finalized)

			more, err = r.Read()
			require.NoError(t, err)
			assert.False(t, more)
			assert.Equal(t, 2, finalized)
			assert.Zero(t, r.Blocks())
		})
	}
}

func TestTextAndBinaryReaders_FinalizeEmptyInput(t *testing.T) {
	t.Parallel()

	readers := map[string]*cif.Reader{
		"mmcif": newTextReader(""),
		"bcif":  newBinaryReader(encodeDocument(t, map[string]any{"dataBlocks": []any{}})),
	}
	for name, r := range readers {
		finalized := 0
		r.AddCategory("_entry", cif.Callbacks{
			Finalize: func(*cif.Reader) error {
				finalized++
				return nil
			},
		})
		more, err := r.Read()
		require.NoError(t, err, name)
		assert.False(t, more, name)
		assert.Equal(t, 1, finalized, name)
	}
}

func TestBinaryReader_SkipsUnknownNestedValues(t *testing.T) {
	t.Parallel()

	cat := bcifCategory("_entry", 0, stringColumn("id", "1ABC"))
	cat["extraInfo"] = map[string]any{"nested": []any{1, map[string]any{"deep": []any{"x", 2.5}}}}
	doc := bcifDocument(bcifBlock("1ABC", cat))
	doc["commentary"] = map[string]any{"a": []any{map[string]any{"b": []any{1, 2, 3}}}}

	r := newBinaryReader(encodeDocument(t, doc))
	rec := recordCategory(r, "_entry", "id")

	more, err := r.Read()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []string{"1ABC"}, rec.rows)
}

func TestBinaryReader_StructuralOnly(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("1ABC",
		bcifCategory("_atom_site", 2,
			intColumn("id", 1, 2),
			withMask(stringColumn("label", "A", "B"), 0, 0),
		),
		bcifCategory("_entry", 1, stringColumn("id", "1ABC")),
	))

	r := newBinaryReader(encodeDocument(t, doc), cif.WithStructuralOnly())
	rec := recordCategory(r, "_atom_site", "id")
	var got []string
	r.SetBinaryCategoryHandler(func(_ *cif.Reader, cat *cif.BinaryCategory) error {
		parts := []string{fmt.Sprintf("%s rows=%d", cat.Name, cat.RowCount)}
		for _, col := range cat.Columns {
			desc := col.Name + "=" + cif.ChainString(col.Data.Encoding)
			if col.Mask != nil {
				desc += " mask=" + cif.ChainString(col.Mask.Encoding)
			}
			parts = append(parts, desc)
		}
		got = append(got, strings.Join(parts, " "))
		return nil
	})

	more, err := r.Read()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Empty(t, rec.rows)

	want := []string{
		"_atom_site rows=2 id=ByteArray label=StringArray mask=ByteArray",
		"_entry rows=1 id=StringArray",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("binary categories mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryReader_RowCountFromColumns(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("x", bcifCategory("_x", 0, intColumn("a", 4, 5))))
	r := newBinaryReader(encodeDocument(t, doc))
	rec := recordCategory(r, "_x", "a")

	_, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5"}, rec.rows)
}

func TestBinaryReader_ColumnLengthMismatch(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("x", bcifCategory("_x", 2, intColumn("a", 1, 2, 3))))
	r := newBinaryReader(encodeDocument(t, doc))
	recordCategory(r, "_x", "a")

	_, err := r.Read()
	require.Error(t, err)
	assert.True(t, cif.IsFileFormat(err))
	assert.Contains(t, err.Error(), "has 3 values, expected 2")
}

func TestBinaryReader_RowCountDisagreesWithColumns(t *testing.T) {
	t.Parallel()

	negative := bcifCategory("_x", 0, intColumn("id", 1))
	negative["rowCount"] = -1

	tests := []struct {
		name string
		cat  map[string]any
		want string
	}{
		{
			name: "unbound column shorter than rowCount",
			cat:  bcifCategory("_x", 5, intColumn("other", 1, 2)),
			want: "column _x.other has 2 values, expected 5",
		},
		{
			name: "huge rowCount",
			cat:  bcifCategory("_x", 1<<40, intColumn("other", 1, 2)),
			want: "column _x.other has 2 values, expected 1099511627776",
		},
		{
			name: "bound column longer than rowCount",
			cat:  bcifCategory("_x", 2, intColumn("id", 1, 2, 3)),
			want: "column _x.id has 3 values, expected 2",
		},
		{
			name: "run length past rowCount",
			cat:  bcifCategory("_x", 2, runLengthColumn("id", 7, 1<<30)),
			want: "RunLength expands past 2 values",
		},
		{
			name: "unbound run length past the value limit",
			cat:  bcifCategory("_x", 0, runLengthColumn("other", 7, 1<<30)),
			want: "RunLength expands past",
		},
		{
			name: "negative rowCount",
			cat:  negative,
			want: "negative rowCount -1",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			r := newBinaryReader(encodeDocument(t, bcifDocument(bcifBlock("x", testCase.cat))))
			rec := recordCategory(r, "_x", "id")

			_, err := r.Read()
			require.Error(t, err)
			assert.True(t, cif.IsFileFormat(err))
			assert.Contains(t, err.Error(), testCase.want)
			assert.Empty(t, rec.rows)
		})
	}
}

func TestBinaryReader_RunLengthColumn(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("x", bcifCategory("_x", 3, runLengthColumn("id", 4, 2, 9, 1))))
	r := newBinaryReader(encodeDocument(t, doc))
	rec := recordCategory(r, "_x", "id")

	_, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "4", "9"}, rec.rows)
}

func TestBinaryReader_CategoryWithoutColumns(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("x", map[string]any{"name": "_x", "rowCount": 3, "columns": []any{}}))
	r := newBinaryReader(encodeDocument(t, doc))
	rec := recordCategory(r, "_x", "id")

	more, err := r.Read()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Empty(t, rec.rows)
}

func TestBinaryReader_RemoveAllCategoriesInsideCallback(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("x",
		bcifCategory("_x", 3, intColumn("id", 1, 2, 3)),
		bcifCategory("_z", 1, intColumn("id", 4)),
	))
	r := newBinaryReader(encodeDocument(t, doc))

	var got []string
	var id *cif.Keyword
	id = r.AddCategory("_x", cif.Callbacks{
		Data: func(rr *cif.Reader) error {
			got = append(got, describe(id))
			rr.RemoveAllCategories()
			return nil
		},
	}).AddKeyword("id")
	z := recordCategory(r, "_z", "id")

	_, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, got)
	assert.Empty(t, z.rows)
}

func TestBinaryReader_NotAMap(t *testing.T) {
	t.Parallel()

	data, err := msgpack.Marshal([]int{1, 2})
	require.NoError(t, err)

	_, err = newBinaryReader(data).Read()
	require.Error(t, err)
	assert.True(t, cif.IsFileFormat(err))
	assert.Contains(t, err.Error(), "Was expecting a map")
}

func TestBinaryReader_Truncated(t *testing.T) {
	t.Parallel()

	doc := bcifDocument(bcifBlock("1ABC",
		bcifCategory("_atom_site", 4, intColumn("id", 1, 2, 3, 4), stringColumn("name", "CA", "CB", "N", "O")),
	))
	data := encodeDocument(t, doc)

	r := newBinaryReader(data[:len(data)/2])
	recordCategory(r, "_atom_site", "id")

	_, err := r.Read()
	require.Error(t, err)
	assert.True(t, cif.IsIO(err))
	require.ErrorIs(t, err, cif.ErrShortRead)
}
