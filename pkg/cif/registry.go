package cif

import "slices"

type registryEntry[V any] struct {
	key   string
	value V
}

// registryBuilder collects case-insensitive key/value pairs in insertion
// order. It has no lookup; call freeze to obtain a sortedRegistry.
type registryBuilder[V any] struct {
	entries []registryEntry[V]
	release func(V)
}

func newRegistryBuilder[V any](release func(V)) *registryBuilder[V] {
	return &registryBuilder[V]{
		entries: make([]registryEntry[V], 0, 8),
		release: release,
	}
}

func (b *registryBuilder[V]) insert(key string, value V) {
	b.entries = append(b.entries, registryEntry[V]{key: key, value: value})
}

func (b *registryBuilder[V]) len() int {
	return len(b.entries)
}

// removeAll releases every value and empties the builder, keeping its
// backing storage.
func (b *registryBuilder[V]) removeAll() {
	if b.release != nil {
		for _, e := range b.entries {
			b.release(e.value)
		}
	}
	clear(b.entries)
	b.entries = b.entries[:0]
}

// freeze returns a sorted snapshot of the current entries.
func (b *registryBuilder[V]) freeze() *sortedRegistry[V] {
	entries := slices.Clone(b.entries)
	slices.SortStableFunc(entries, func(x, y registryEntry[V]) int {
		return compareFold(x.key, y.key)
	})
	return &sortedRegistry[V]{entries: entries}
}

// sortedRegistry is the query phase of a registry: keys are sorted
// case-insensitively and looked up by binary search.
type sortedRegistry[V any] struct {
	entries []registryEntry[V]
}

func (r *sortedRegistry[V]) lookup(key string) (V, bool) {
	left, right := 0, len(r.entries)-1
	for left <= right {
		mid := int(uint(left+right) >> 1)
		switch c := compareFold(r.entries[mid].key, key); {
		case c < 0:
			left = mid + 1
		case c > 0:
			right = mid - 1
		default:
			return r.entries[mid].value, true
		}
	}
	var zero V
	return zero, false
}

func (r *sortedRegistry[V]) len() int {
	return len(r.entries)
}

// each calls fn for every entry in sorted order, stopping at the first error.
func (r *sortedRegistry[V]) each(fn func(V) error) error {
	for _, e := range r.entries {
		if err := fn(e.value); err != nil {
			return err
		}
	}
	return nil
}

// compareFold compares two strings ignoring ASCII case, like strcasecmp.
func compareFold(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
