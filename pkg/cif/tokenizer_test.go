package cif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenSummary struct {
	kind TokenKind
	text string
}

func summarize(tokens []Token) []tokenSummary {
	out := make([]tokenSummary, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tokenSummary{kind: tok.Kind, text: string(tok.Text)})
	}
	return out
}

func TestTokenizeLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []tokenSummary
	}{
		{
			name: "empty line",
			line: "",
			want: []tokenSummary{},
		},
		{
			name: "blank line",
			line: " \t ",
			want: []tokenSummary{},
		},
		{
			name: "comment line",
			line: "# _entry.id 1",
			want: []tokenSummary{},
		},
		{
			name: "variable and value",
			line: "_entry.id   1ABC",
			want: []tokenSummary{
				{TokenVariable, "_entry.id"},
				{TokenValue, "1ABC"},
			},
		},
		{
			name: "reserved words",
			line: "data_1abc\tsave_frame save_ loop_",
			want: []tokenSummary{
				{TokenData, "data_1abc"},
				{TokenSave, "save_frame"},
				{TokenSave, "save_"},
				{TokenLoop, "loop_"},
			},
		},
		{
			name: "placeholders",
			line: ". ? .. ?x",
			want: []tokenSummary{
				{TokenOmitted, "."},
				{TokenUnknown, "?"},
				{TokenValue, ".."},
				{TokenValue, "?x"},
			},
		},
		{
			name: "quoted values",
			line: `'single value' "double value" ''`,
			want: []tokenSummary{
				{TokenValue, "single value"},
				{TokenValue, "double value"},
				{TokenValue, ""},
			},
		},
		{
			name: "embedded quote",
			line: `'O5' B' next`,
			want: []tokenSummary{
				{TokenValue, "O5' B"},
				{TokenValue, "next"},
			},
		},
		{
			name: "quoted reserved word stays a value",
			line: `'loop_' "_entry.id" '.'`,
			want: []tokenSummary{
				{TokenValue, "loop_"},
				{TokenValue, "_entry.id"},
				{TokenValue, "."},
			},
		},
		{
			name: "trailing comment",
			line: "1 2 # three",
			want: []tokenSummary{
				{TokenValue, "1"},
				{TokenValue, "2"},
			},
		},
		{
			name: "hash inside token",
			line: "a#b",
			want: []tokenSummary{
				{TokenValue, "a#b"},
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			tokens, err := tokenizeLine(nil, []byte(testCase.line), 1)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, summarize(tokens))
		})
	}
}

func TestTokenizeLine_UnterminatedQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{"single", "'abc", "Single-quoted string not terminated in file, line 7"},
		{"double", `x "abc"d`, "Double-quoted string not terminated in file, line 7"},
		{"mismatched", `'abc"`, "Single-quoted string not terminated in file, line 7"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := tokenizeLine(nil, []byte(testCase.line), 7)
			require.Error(t, err)
			assert.True(t, IsFileFormat(err))
			assert.Equal(t, testCase.want, err.Error())

			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, 7, cerr.Line)
		})
	}
}

func TestTokenizeLine_ReusesDestination(t *testing.T) {
	t.Parallel()

	dst := make([]Token, 0, 8)
	tokens, err := tokenizeLine(dst, []byte("a b c"), 1)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	tokens, err = tokenizeLine(tokens, []byte("d"), 2)
	require.NoError(t, err)
	assert.Equal(t, []tokenSummary{{TokenValue, "d"}}, summarize(tokens))
}
