package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/internal/logging"
	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/config"
)

// Placeholders written for keywords without a plain value.
const (
	dumpUnknown = "?"
	dumpOmitted = "."
)

type dumpFlags struct {
	category string
	keywords []string
	input    string
	json     bool
	noHeader bool
}

func newDumpCommand() *cobra.Command {
	flags := &dumpFlags{}

	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the rows of one category",
		Long: `Print every row of one category, one line per row.

Rows are written as tab-separated values preceded by a header, or as JSON
lines with --json. Unknown values print as "?" and omitted values as ".";
keywords missing from the file print as empty fields (or are left out of
the JSON object). The first column is the data block name.

When --keywords is not given, the keywords configured for the category in
the schema are used.

Examples:
  gocif dump 1abc.cif --category _atom_site --keywords id,type_symbol,Cartn_x
  gocif dump 1abc.bcif --category _entity --json
  cat 1abc.cif | gocif dump - --category _entry`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "category to print (e.g. _atom_site)")
	cmd.Flags().StringSliceVarP(&flags.keywords, "keywords", "k", nil, "keywords to print, in order")
	cmd.Flags().StringVar(&flags.input, "input", "auto", "input format: auto, mmcif, bcif")
	cmd.Flags().BoolVar(&flags.json, "json", false, "write JSON lines")
	cmd.Flags().BoolVar(&flags.noHeader, "no-header", false, "omit the header line")

	return cmd
}

func runDump(cmd *cobra.Command, path string, flags *dumpFlags) error {
	cliCfg := &config.Config{}
	if cmd.Flags().Changed("input") {
		format, err := config.ParseInputFormat(flags.input)
		if err != nil {
			return withExitCode(ExitInvalidUsage, err)
		}
		cliCfg.Format = format
	}

	cfg, _, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	category := flags.category
	if category == "" {
		return withExitCode(ExitInvalidUsage, errors.New("--category is required"))
	}
	if !strings.HasPrefix(category, "_") {
		category = "_" + category
	}
	keywords := flags.keywords
	if len(keywords) == 0 {
		keywords = schemaKeywords(cfg.Schema, category)
	}
	if len(keywords) == 0 {
		return withExitCode(ExitInvalidUsage,
			fmt.Errorf("no keywords for %s: pass --keywords or add it to the schema", category))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	in, err := openInput(ctx, cmd, path, cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	printer := &rowPrinter{out: out, keywords: keywords, json: flags.json}
	cat := in.reader.AddCategory(category, cif.Callbacks{Data: printer.row})
	for _, kw := range keywords {
		printer.values = append(printer.values, cat.AddKeyword(kw))
	}

	if !flags.json && !flags.noHeader {
		fmt.Fprintf(out, "block\t%s\n", strings.Join(keywords, "\t"))
	}

	if err := in.readAll(ctx, nil); err != nil {
		return err
	}

	logging.Default().Debug("dump finished",
		logging.FieldPath, in.name,
		logging.FieldCategory, category,
		logging.FieldRows, printer.rows,
	)

	return out.Flush()
}

// schemaKeywords looks category up in schema case-insensitively.
func schemaKeywords(schema map[string][]string, category string) []string {
	for name, keywords := range schema {
		if strings.EqualFold(name, category) {
			return keywords
		}
	}
	return nil
}

// rowPrinter writes one line per delivered row.
type rowPrinter struct {
	out      *bufio.Writer
	keywords []string
	values   []*cif.Keyword
	json     bool
	rows     int
}

func (p *rowPrinter) row(r *cif.Reader) error {
	p.rows++
	if p.json {
		return p.jsonRow(r)
	}

	p.out.WriteString(r.BlockName())
	for _, kw := range p.values {
		p.out.WriteByte('\t')
		switch kw.State() {
		case cif.ValueUnknown:
			p.out.WriteString(dumpUnknown)
		case cif.ValueOmitted:
			p.out.WriteString(dumpOmitted)
		default:
			p.out.Write(kw.Bytes())
		}
	}
	return p.out.WriteByte('\n')
}

func (p *rowPrinter) jsonRow(r *cif.Reader) error {
	obj := make(map[string]string, len(p.values)+1)
	obj["block"] = r.BlockName()
	for i, kw := range p.values {
		if kw.InFile() {
			obj[p.keywords[i]] = cellText(kw)
		}
	}
	line, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	p.out.Write(line)
	return p.out.WriteByte('\n')
}

// cellText renders a keyword's current value, using the CIF placeholders
// for unknown and omitted values.
func cellText(kw *cif.Keyword) string {
	switch kw.State() {
	case cif.ValueUnknown:
		return dumpUnknown
	case cif.ValueOmitted:
		return dumpOmitted
	}
	value, _ := kw.Value()
	return value
}
