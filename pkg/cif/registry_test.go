package cif

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	builder := newRegistryBuilder[int](nil)
	builder.insert("_atom_site", 1)
	builder.insert("_Entry", 2)
	builder.insert("_struct", 3)
	reg := builder.freeze()

	tests := []struct {
		key   string
		want  int
		found bool
	}{
		{"_atom_site", 1, true},
		{"_ATOM_SITE", 1, true},
		{"_entry", 2, true},
		{"_ENTRY", 2, true},
		{"_Struct", 3, true},
		{"_missing", 0, false},
		{"", 0, false},
	}

	for _, testCase := range tests {
		t.Run(testCase.key, func(t *testing.T) {
			t.Parallel()

			got, ok := reg.lookup(testCase.key)
			assert.Equal(t, testCase.found, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestRegistry_EachVisitsInSortedOrder(t *testing.T) {
	t.Parallel()

	builder := newRegistryBuilder[string](nil)
	for _, key := range []string{"c", "B", "a", "D"} {
		builder.insert(key, key)
	}
	reg := builder.freeze()

	var got []string
	require.NoError(t, reg.each(func(v string) error {
		got = append(got, v)
		return nil
	}))
	assert.Equal(t, []string{"a", "B", "c", "D"}, got)

	stop := errors.New("stop")
	calls := 0
	err := reg.each(func(string) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRegistry_FreezeIsASnapshot(t *testing.T) {
	t.Parallel()

	builder := newRegistryBuilder[int](nil)
	builder.insert("b", 1)
	reg := builder.freeze()
	builder.insert("a", 2)

	_, ok := reg.lookup("a")
	assert.False(t, ok)

	reg = builder.freeze()
	got, ok := reg.lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestRegistry_RemoveAllReleasesValues(t *testing.T) {
	t.Parallel()

	var released []int
	builder := newRegistryBuilder(func(v int) { released = append(released, v) })
	builder.insert("x", 1)
	builder.insert("y", 2)
	builder.removeAll()

	assert.Equal(t, []int{1, 2}, released)
	assert.Zero(t, builder.len())
}

func TestCompareFold(t *testing.T) {
	t.Parallel()

	assert.Zero(t, compareFold("ABC", "abc"))
	assert.Negative(t, compareFold("ab", "abc"))
	assert.Positive(t, compareFold("b", "A"))
	assert.Negative(t, compareFold("_a", "a"))
}
