// Package check reads mmCIF and BinaryCIF files against a schema of
// categories and keywords and reports what it finds.
package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

// Checker checks files. It is safe for concurrent use; every call builds its
// own reader.
type Checker struct {
	logger *log.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger passes logger on to the readers the checker creates.
func WithLogger(logger *log.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New returns a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckFile opens path and checks it. Problems with the content are
// reported as diagnostics; the error is reserved for files that could not
// be read at all and for cancellation.
func (c *Checker) CheckFile(ctx context.Context, path string, cfg *config.Config) (*Outcome, error) {
	file, _, err := fsutil.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return c.Check(ctx, file, path, config.FormatForPath(cfg.Format, path), cfg)
}

// Check reads r, naming it name in diagnostics. Gzip input is inflated
// first. An InputAuto format is resolved from the first content byte.
func (c *Checker) Check(
	ctx context.Context,
	r io.Reader,
	name string,
	format config.InputFormat,
	cfg *config.Config,
) (*Outcome, error) {
	r, compressed, err := Decompress(r)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", name, err)
	}

	if format == config.InputAuto || format == "" {
		format, r, err = Sniff(r)
		if err != nil {
			return nil, fmt.Errorf("detect format of %s: %w", name, err)
		}
	}

	out := &Outcome{
		Path:       name,
		Format:     format,
		Compressed: compressed,
		Rows:       make(map[string]int),
	}

	src := NewSource(cif.NewReaderFiller(r), cfg.Reader)

	var opts []cif.Option
	if c.logger != nil {
		opts = append(opts, cif.WithLogger(c.logger.With("path", name)))
	}

	reader := cif.NewReader(src, ReaderFormat(format), opts...)
	defer reader.Close()

	unknown := newUnknownSet(out, cfg.Strict)
	registerSchema(reader, cfg.Schema, out)
	reader.SetUnknownCategoryHandler(unknown.category, nil)
	reader.SetUnknownKeywordHandler(unknown.keyword, nil)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}

		more, err := reader.Read()
		for len(out.BlockNames) < reader.Blocks() {
			out.BlockNames = append(out.BlockNames, reader.BlockName())
		}
		if err != nil {
			if ferr := recordReadError(out, err); ferr != nil {
				return nil, fmt.Errorf("check %s: %w", name, ferr)
			}
			break
		}
		if !more {
			break
		}
	}

	out.Blocks = reader.Blocks()
	if out.Blocks == 0 && len(out.Diagnostics) == 0 {
		out.add(0, config.SeverityWarning, CodeNoData, "no data block found")
	}
	out.Unknown = unknown.sorted()
	SortDiagnostics(out.Diagnostics)

	return out, nil
}

// registerSchema adds one category per schema entry. Each delivery counts
// as a row.
func registerSchema(reader *cif.Reader, schema map[string][]string, out *Outcome) {
	for _, name := range slices.Sorted(maps.Keys(schema)) {
		cat := reader.AddCategory(name, cif.Callbacks{
			Data: func(*cif.Reader) error {
				out.Rows[name]++
				return nil
			},
		})
		for _, keyword := range schema[name] {
			cat.AddKeyword(keyword)
		}
	}
}

// recordReadError turns a reader error into a diagnostic. Errors that are
// not about the content are returned.
func recordReadError(out *Outcome, err error) error {
	var cerr *cif.Error
	if !errors.As(err, &cerr) {
		return err
	}

	switch {
	case errors.Is(err, cif.ErrShortRead):
		out.add(cerr.Line, config.SeverityError, CodeTruncated, "unexpected end of input: "+cerr.Error())
	case cerr.Kind == cif.KindFileFormat:
		out.add(cerr.Line, config.SeverityError, CodeSyntax, cerr.Error())
	default:
		return err
	}
	return nil
}

// NewSource builds a byte source over filler tuned by rc.
func NewSource(filler cif.Filler, rc config.ReaderConfig) *cif.Source {
	return cif.NewSource(filler, cif.SourceOptions{
		ChunkSize: rc.ChunkSize,
		Retry: cif.RetryPolicy{
			Delay:      rc.RetryDelay,
			MaxRetries: rc.MaxRetries,
		},
	})
}

// ReaderFormat maps a resolved input format to the reader's format.
func ReaderFormat(f config.InputFormat) cif.Format {
	if f == config.InputBCIF {
		return cif.FormatBinary
	}
	return cif.FormatText
}
