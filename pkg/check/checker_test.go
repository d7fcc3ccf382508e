package check_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

const sampleCIF = `data_1ABC
_entry.id 1ABC
_struct.title 'Test structure'
_exptl.method 'X-RAY DIFFRACTION'
loop_
_atom_site.id
_atom_site.type_symbol
_atom_site.Cartn_x
_atom_site.pdbx_formal_charge
1 N 1.0 ?
2 C 2.5 ?
3 O 3.0 ?
data_2XYZ
_entry.id 2XYZ
`

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Reader.ChunkSize = 32
	cfg.Schema = map[string][]string{
		"_entry":     {"id"},
		"_struct":    {"title"},
		"_atom_site": {"id", "type_symbol", "Cartn_x"},
	}
	return cfg
}

func checkString(t *testing.T, input string, cfg *config.Config) *check.Outcome {
	t.Helper()

	out, err := check.New().Check(context.Background(), strings.NewReader(input), "test.cif", config.InputAuto, cfg)
	require.NoError(t, err)
	return out
}

func TestCheck_Text(t *testing.T) {
	t.Parallel()

	out := checkString(t, sampleCIF, testConfig())

	assert.Equal(t, config.InputMMCIF, out.Format)
	assert.Equal(t, 2, out.Blocks)
	assert.Equal(t, []string{"1ABC", "2XYZ"}, out.BlockNames)
	assert.Equal(t, map[string]int{"_entry": 2, "_struct": 1, "_atom_site": 3}, out.Rows)
	assert.Equal(t, 6, out.TotalRows())
	assert.Equal(t, []string{"_atom_site", "_entry", "_struct"}, out.Categories())
	assert.Equal(t, []string{"_atom_site.pdbx_formal_charge", "_exptl"}, out.Unknown)
	assert.Empty(t, out.Diagnostics, "unknown names are not diagnostics outside strict mode")
	assert.False(t, out.HasErrors())
}

func TestCheck_Strict(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Strict = true

	out := checkString(t, sampleCIF, cfg)

	require.Len(t, out.Diagnostics, 2)
	assert.Equal(t, check.Diagnostic{
		Path:     "test.cif",
		Line:     4,
		Severity: config.SeverityError,
		Code:     check.CodeUnknownCategory,
		Message:  "category _exptl is not in the schema",
	}, out.Diagnostics[0])
	assert.Equal(t, check.CodeUnknownKeyword, out.Diagnostics[1].Code)
	assert.Equal(t, 9, out.Diagnostics[1].Line)
	assert.True(t, out.HasErrors())
	assert.Equal(t, 2, out.Count(config.SeverityError))
}

func TestCheck_SyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "unterminated quote",
			input:    "data_x\n_entry.id 'open\n",
			wantLine: 2,
			wantMsg:  "Single-quoted string not terminated",
		},
		{
			name:     "ragged loop",
			input:    "data_x\nloop_\n_atom_site.id\n_atom_site.type_symbol\n1 N\n2\n",
			wantLine: 7,
			wantMsg:  "Wrong number of data values in loop",
		},
		{
			name:     "unterminated multiline",
			input:    "data_x\n_struct.title\n;line one\n",
			wantLine: 3,
			wantMsg:  "End of file while reading multiline string",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			out := checkString(t, testCase.input, testConfig())

			require.Len(t, out.Diagnostics, 1)
			diag := out.Diagnostics[0]
			assert.Equal(t, check.CodeSyntax, diag.Code)
			assert.Equal(t, config.SeverityError, diag.Severity)
			assert.Equal(t, testCase.wantLine, diag.Line)
			assert.Contains(t, diag.Message, testCase.wantMsg)
			assert.Equal(t, 1, out.Blocks)
		})
	}
}

func TestCheck_NoData(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "# only a comment\n"} {
		out := checkString(t, input, testConfig())

		require.Len(t, out.Diagnostics, 1)
		assert.Equal(t, check.CodeNoData, out.Diagnostics[0].Code)
		assert.Equal(t, config.SeverityWarning, out.Diagnostics[0].Severity)
		assert.Zero(t, out.Blocks)
	}
}

func int32Bytes(values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v)) //nolint:gosec // two's complement
	}
	return out
}

func bcifFixture(t *testing.T) []byte {
	t.Helper()

	column := func(name string, values ...int32) map[string]any {
		return map[string]any{
			"name": name,
			"data": map[string]any{
				"data":     int32Bytes(values...),
				"encoding": []any{map[string]any{"kind": "ByteArray", "type": 3}},
			},
		}
	}

	doc := map[string]any{
		"version": "0.3.0",
		"encoder": "check tests",
		"dataBlocks": []any{
			map[string]any{
				"header": "1ABC",
				"categories": []any{
					map[string]any{
						"name":     "_atom_site",
						"rowCount": 3,
						"columns":  []any{column("id", 1, 2, 3), column("label_seq_id", 7, 7, 8)},
					},
					map[string]any{
						"name":     "_cell",
						"rowCount": 1,
						"columns":  []any{column("Z_PDB", 4)},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func TestCheck_Binary(t *testing.T) {
	t.Parallel()

	data := bcifFixture(t)

	out, err := check.New().Check(context.Background(), bytes.NewReader(data), "x.bin", config.InputAuto, testConfig())
	require.NoError(t, err)

	assert.Equal(t, config.InputBCIF, out.Format)
	assert.Equal(t, 1, out.Blocks)
	assert.Equal(t, []string{"1ABC"}, out.BlockNames)
	assert.Equal(t, 3, out.Rows["_atom_site"])
	assert.Equal(t, []string{"_atom_site.label_seq_id", "_cell"}, out.Unknown)
	assert.Empty(t, out.Diagnostics)
}

func TestCheck_BinaryTruncated(t *testing.T) {
	t.Parallel()

	data := bcifFixture(t)
	truncated := data[:len(data)-5]

	out, err := check.New().Check(context.Background(), bytes.NewReader(truncated), "x.bcif", config.InputBCIF, testConfig())
	require.NoError(t, err)

	require.NotEmpty(t, out.Diagnostics)
	assert.Equal(t, check.CodeTruncated, out.Diagnostics[0].Code)
	assert.True(t, out.HasErrors())
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	textPath := filepath.Join(dir, "1abc.cif")
	require.NoError(t, os.WriteFile(textPath, []byte(sampleCIF), 0o644))

	// A .cif extension wins over sniffing.
	binAsText := filepath.Join(dir, "odd.cif")
	require.NoError(t, os.WriteFile(binAsText, bcifFixture(t), 0o644))

	binPath := filepath.Join(dir, "1abc.bcif")
	require.NoError(t, os.WriteFile(binPath, bcifFixture(t), 0o644))

	checker := check.New()
	ctx := context.Background()

	out, err := checker.CheckFile(ctx, textPath, testConfig())
	require.NoError(t, err)
	assert.Equal(t, textPath, out.Path)
	assert.Equal(t, config.InputMMCIF, out.Format)
	assert.Equal(t, 2, out.Blocks)

	out, err = checker.CheckFile(ctx, binPath, testConfig())
	require.NoError(t, err)
	assert.Equal(t, config.InputBCIF, out.Format)
	assert.Equal(t, 3, out.Rows["_atom_site"])

	out, err = checker.CheckFile(ctx, binAsText, testConfig())
	require.NoError(t, err)
	assert.Equal(t, config.InputMMCIF, out.Format)
	assert.Zero(t, out.Blocks)

	_, err = checker.CheckFile(ctx, filepath.Join(dir, "missing.cif"), testConfig())
	require.ErrorIs(t, err, fsutil.ErrNotFound)
}

func TestCheck_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := check.New().Check(ctx, strings.NewReader(sampleCIF), "x.cif", config.InputMMCIF, testConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  config.InputFormat
	}{
		{"empty", nil, config.InputMMCIF},
		{"text", []byte("data_x\n"), config.InputMMCIF},
		{"fixmap", []byte{0x83, 0xa1}, config.InputBCIF},
		{"map16", []byte{0xde, 0x00, 0x03}, config.InputBCIF},
		{"map32", []byte{0xdf}, config.InputBCIF},
		{"array is not a file", []byte{0x91}, config.InputMMCIF},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			format, r, err := check.Sniff(bytes.NewReader(testCase.input))
			require.NoError(t, err)
			assert.Equal(t, testCase.want, format)

			var rest bytes.Buffer
			_, err = rest.ReadFrom(r)
			require.NoError(t, err)
			assert.Equal(t, string(testCase.input), rest.String(), "sniffed byte must be replayed")
		})
	}
}

func TestDiagnostic_String(t *testing.T) {
	t.Parallel()

	diag := check.Diagnostic{
		Path:     "a.cif",
		Line:     3,
		Severity: config.SeverityError,
		Code:     check.CodeSyntax,
		Message:  "bad",
	}
	assert.Equal(t, "a.cif:3: error: bad (syntax)", diag.String())

	diag.Line = 0
	assert.Equal(t, "a.cif: error: bad (syntax)", diag.String())
}
