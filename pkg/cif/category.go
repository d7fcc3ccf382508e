package cif

// Callbacks are the caller hooks attached to a Category. Any of them may be
// nil. Captured state lives in the closures; Release, if set, runs once when
// the category is removed from its Reader.
type Callbacks struct {
	// Data runs when a row or a set of single values is complete.
	Data func(r *Reader) error

	// EndFrame runs when a save frame closes.
	EndFrame func(r *Reader) error

	// Finalize runs at the end of each data block.
	Finalize func(r *Reader) error

	// Release runs when the category is removed.
	Release func()
}

// Category is a registered category and its keyword slots.
type Category struct {
	name      string
	callbacks Callbacks

	builder *registryBuilder[*Keyword]
	sorted  *sortedRegistry[*Keyword]
	dirty   bool
	removed bool
}

// Name returns the category name as registered, for example "_atom_site".
func (c *Category) Name() string { return c.name }

// AddKeyword registers a keyword of this category. Matching against the file
// is case-insensitive. The returned Keyword receives values as they are read.
func (c *Category) AddKeyword(name string) *Keyword {
	kw := &Keyword{name: name}
	c.builder.insert(name, kw)
	c.dirty = true
	return kw
}

// Keyword returns the registered keyword with the given name.
func (c *Category) Keyword(name string) (*Keyword, bool) {
	return c.keywords().lookup(name)
}

// Keywords returns the registered keywords in case-insensitive name order.
func (c *Category) Keywords() []*Keyword {
	reg := c.keywords()
	out := make([]*Keyword, 0, reg.len())
	_ = reg.each(func(kw *Keyword) error {
		out = append(out, kw)
		return nil
	})
	return out
}

func (c *Category) keywords() *sortedRegistry[*Keyword] {
	if c.sorted == nil || c.dirty {
		c.sorted = c.builder.freeze()
		c.dirty = false
	}
	return c.sorted
}

// hasValues reports whether any keyword was seen since the last delivery.
func (c *Category) hasValues() bool {
	for _, e := range c.sorted.entries {
		if e.value.InFile() {
			return true
		}
	}
	return false
}

func (c *Category) clearValues() {
	for _, e := range c.sorted.entries {
		e.value.reset()
	}
}

func (c *Category) release() {
	c.removed = true
	if c.callbacks.Release != nil {
		c.callbacks.Release()
	}
}
