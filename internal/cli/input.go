package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/internal/logging"
	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

// input is one opened file (or standard input) wrapped in a cif.Reader.
type input struct {
	name   string
	format config.InputFormat
	reader *cif.Reader
	closer io.Closer
}

// Close releases the reader and the underlying file.
func (in *input) Close() error {
	in.reader.Close()
	if in.closer != nil {
		return in.closer.Close()
	}
	return nil
}

// openInput opens path ("-" for standard input) and resolves its format
// from the configuration, the extension, or the first byte.
func openInput(
	ctx context.Context,
	cmd *cobra.Command,
	path string,
	cfg *config.Config,
	opts ...cif.Option,
) (*input, error) {
	in := &input{name: path, format: config.FormatForPath(cfg.Format, path)}

	var rd io.Reader
	if path == stdinPath {
		in.name = "<stdin>"
		in.format = cfg.Format
		rd = cmd.InOrStdin()
		if interactiveStdin(rd) {
			return nil, withExitCode(ExitInvalidUsage, fmt.Errorf("refusing to read from a terminal; pipe a file into standard input"))
		}
	} else {
		file, _, err := fsutil.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		rd = file
		in.closer = file
	}

	src, err := in.source(rd, path == stdinPath, cfg.Reader)
	if err != nil {
		in.closeFile()
		return nil, err
	}

	opts = append([]cif.Option{cif.WithLogger(logging.Default().With(logging.FieldPath, in.name))}, opts...)
	in.reader = cif.NewReader(src, check.ReaderFormat(in.format), opts...)

	return in, nil
}

// source builds the byte source for rd. Standard input backed by a file
// with an explicit format is read from its descriptor, so would-block
// results reach the Source's retry policy; gzip input on it is still
// inflated. Everything else may be gzip-compressed too and, under auto, is
// sniffed.
func (in *input) source(rd io.Reader, stdin bool, rc config.ReaderConfig) (*cif.Source, error) {
	auto := in.format == config.InputAuto || in.format == ""
	if file, ok := rd.(*os.File); ok && stdin && !auto {
		src := check.NewSource(cif.NewFDFiller(file.Fd()), rc)
		head, err := src.Peek(2)
		if err != nil {
			return nil, withExitCode(ExitIOError, fmt.Errorf("read %s: %w", in.name, err))
		}
		if !check.IsGzip(head) {
			return src, nil
		}
		rd = src
	}

	plain, _, err := check.Decompress(rd)
	if err != nil {
		return nil, withExitCode(ExitIOError, fmt.Errorf("open %s: %w", in.name, err))
	}
	if auto {
		format, replay, err := check.Sniff(plain)
		if err != nil {
			return nil, fmt.Errorf("detect format of %s: %w", in.name, err)
		}
		in.format = format
		plain = replay
	}
	return check.NewSource(cif.NewReaderFiller(plain), rc), nil
}

func (in *input) closeFile() {
	if in.closer != nil {
		_ = in.closer.Close()
	}
}

// readAll drives the reader to the end of input, checking ctx between
// blocks. afterBlock, when set, runs after each Read call.
func (in *input) readAll(ctx context.Context, afterBlock func()) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := in.reader.Read()
		if err != nil {
			return fmt.Errorf("read %s: %w", in.name, err)
		}
		if afterBlock != nil {
			afterBlock()
		}
		if !more {
			return nil
		}
	}
}
