package cif

import (
	"io"

	"github.com/charmbracelet/log"
)

// Format selects the input encoding.
type Format int

const (
	// FormatText is the mmCIF text grammar.
	FormatText Format = iota

	// FormatBinary is BinaryCIF (MessagePack).
	FormatBinary
)

func (f Format) String() string {
	if f == FormatBinary {
		return "bcif"
	}
	return "mmcif"
}

// UnknownCategoryFunc is called when the file names a category that was not
// registered. line is 0 for BinaryCIF input.
type UnknownCategoryFunc func(r *Reader, category string, line int) error

// UnknownKeywordFunc is called when the file names an unregistered keyword of
// a registered category. line is 0 for BinaryCIF input.
type UnknownKeywordFunc func(r *Reader, category, keyword string, line int) error

type unknownHandler[F any] struct {
	fn      F
	release func()
}

func (h *unknownHandler[F]) replace(fn F, release func()) {
	if h.release != nil {
		h.release()
	}
	h.fn = fn
	h.release = release
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger routes debug diagnostics to logger. By default nothing is
// logged.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStructuralOnly makes BinaryCIF reads stop after the structural walk:
// column data is not decoded or delivered to registered categories. Only
// the binary category handler observes the file.
func WithStructuralOnly() Option {
	return func(r *Reader) {
		r.structuralOnly = true
	}
}

// Reader reads one data block per call to Read and dispatches the values it
// finds to the registered categories.
type Reader struct {
	src            *Source
	format         Format
	logger         *log.Logger
	structuralOnly bool

	// Text state.
	line       int
	tokens     []Token
	tokenIndex int
	multiline  byteBuffer
	blockName  string
	blocks     int

	categories *registryBuilder[*Category]
	sorted     *sortedRegistry[*Category]
	dirty      bool

	unknownCategory unknownHandler[UnknownCategoryFunc]
	unknownKeyword  unknownHandler[UnknownKeywordFunc]
	binaryCategory  func(r *Reader, cat *BinaryCategory) error

	bin *binaryState
}

// NewReader returns a Reader over src in the given format.
func NewReader(src *Source, format Format, opts ...Option) *Reader {
	r := &Reader{
		src:    src,
		format: format,
		logger: log.New(io.Discard),
		tokens: make([]Token, 0, 32),
		categories: newRegistryBuilder(func(c *Category) {
			c.release()
		}),
		dirty: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns the input format.
func (r *Reader) Format() Format { return r.format }

// Line returns the current 1-based line number of text input. It is
// meaningful inside callbacks and is 0 before reading starts.
func (r *Reader) Line() int { return r.line }

// BlockName returns the name of the data block being read: the text after
// "data_" for mmCIF, or the block header for BinaryCIF.
func (r *Reader) BlockName() string { return r.blockName }

// Blocks returns the number of data blocks started so far.
func (r *Reader) Blocks() int { return r.blocks }

// AddCategory registers a category. Matching against the file is
// case-insensitive.
func (r *Reader) AddCategory(name string, cb Callbacks) *Category {
	c := &Category{
		name:      name,
		callbacks: cb,
		builder:   newRegistryBuilder[*Keyword](nil),
	}
	r.categories.insert(name, c)
	r.dirty = true
	return c
}

// Category returns the registered category with the given name.
func (r *Reader) Category(name string) (*Category, bool) {
	r.freeze()
	return r.sorted.lookup(name)
}

// RemoveAllCategories releases every registered category together with the
// unknown-category and unknown-keyword handlers. The Reader stays usable and
// new categories may be added. Called from a callback, the rest of the
// current Read sees no categories.
func (r *Reader) RemoveAllCategories() {
	r.categories.removeAll()
	r.sorted = r.categories.freeze()
	r.dirty = false
	r.unknownCategory.replace(nil, nil)
	r.unknownKeyword.replace(nil, nil)
}

// SetUnknownCategoryHandler installs fn for unregistered categories,
// releasing any previous handler. release, if set, runs when the handler is
// replaced or the Reader is closed.
func (r *Reader) SetUnknownCategoryHandler(fn UnknownCategoryFunc, release func()) {
	r.unknownCategory.replace(fn, release)
}

// SetUnknownKeywordHandler installs fn for unregistered keywords,
// releasing any previous handler.
func (r *Reader) SetUnknownKeywordHandler(fn UnknownKeywordFunc, release func()) {
	r.unknownKeyword.replace(fn, release)
}

// SetBinaryCategoryHandler installs fn to observe every BinaryCIF category
// after its structure is read and before its values are delivered.
func (r *Reader) SetBinaryCategoryHandler(fn func(r *Reader, cat *BinaryCategory) error) {
	r.binaryCategory = fn
}

// Close releases all categories and handlers. The Source is not closed.
func (r *Reader) Close() {
	r.RemoveAllCategories()
	r.binaryCategory = nil
}

// Read processes one data block. more reports whether another data block
// follows, in which case Read may be called again. Finalize callbacks run
// once per call, including a call on input with no data block left. They do
// not run for BinaryCIF read with WithStructuralOnly.
func (r *Reader) Read() (bool, error) {
	if r.format == FormatBinary {
		return r.readBinary()
	}
	return r.readText()
}

// freeze sorts the registries after any registration change.
func (r *Reader) freeze() {
	if r.dirty || r.sorted == nil {
		r.sorted = r.categories.freeze()
		r.dirty = false
	}
	for _, e := range r.sorted.entries {
		e.value.keywords()
	}
}

func (r *Reader) lookupCategory(name string) (*Category, bool, error) {
	c, ok := r.sorted.lookup(name)
	if ok {
		return c, true, nil
	}
	if fn := r.unknownCategory.fn; fn != nil {
		if err := fn(r, name, r.line); err != nil {
			return nil, false, err
		}
	}
	return nil, false, nil
}

func (r *Reader) lookupKeyword(c *Category, name string) (*Keyword, bool, error) {
	kw, ok := c.sorted.lookup(name)
	if ok {
		return kw, true, nil
	}
	if fn := r.unknownKeyword.fn; fn != nil {
		if err := fn(r, c.name, name, r.line); err != nil {
			return nil, false, err
		}
	}
	return nil, false, nil
}

// deliver runs the data callback of c when forced or when any keyword was
// seen, then clears the keyword values.
func (r *Reader) deliver(c *Category, force bool) error {
	var err error
	if c.callbacks.Data != nil && !c.removed && (force || c.hasValues()) {
		err = c.callbacks.Data(r)
	}
	c.clearValues()
	return err
}

func (r *Reader) deliverAll() error {
	return r.sorted.each(func(c *Category) error {
		return r.deliver(c, false)
	})
}

func (r *Reader) endFrameAll() error {
	return r.sorted.each(func(c *Category) error {
		if c.callbacks.EndFrame == nil || c.removed {
			return nil
		}
		return c.callbacks.EndFrame(r)
	})
}

func (r *Reader) finalizeAll() error {
	return r.sorted.each(func(c *Category) error {
		if c.callbacks.Finalize == nil || c.removed {
			return nil
		}
		return c.callbacks.Finalize(r)
	})
}
