package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yaklabco/gocif/internal/ui/pretty"
	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/config"
)

type inspectFlags struct {
	input string
	json  bool
}

// inspectBlock is the structure of one data block.
type inspectBlock struct {
	Name       string            `json:"name"`
	Categories []inspectCategory `json:"categories"`
}

type inspectCategory struct {
	Name    string          `json:"name"`
	Line    int             `json:"line,omitempty"`
	Rows    int             `json:"rows,omitempty"`
	Columns []inspectColumn `json:"columns,omitempty"`
}

type inspectColumn struct {
	Name         string `json:"name"`
	Bytes        int    `json:"bytes"`
	Encoding     string `json:"encoding"`
	MaskBytes    int    `json:"maskBytes,omitempty"`
	MaskEncoding string `json:"maskEncoding,omitempty"`
}

func newInspectCommand() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the structure of a file without decoding it",
		Long: `Show the data blocks and categories of a file.

For BinaryCIF, every category is listed with its row count and each column
with its encoded size and encoding chain; column data is not decoded. For
mmCIF, every category is listed with the line it first appears on.

Examples:
  gocif inspect 1abc.bcif
  gocif inspect 1abc.cif --json`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "auto", "input format: auto, mmcif, bcif")
	cmd.Flags().BoolVar(&flags.json, "json", false, "write JSON")

	return cmd
}

func runInspect(cmd *cobra.Command, path string, flags *inspectFlags) error {
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	in, err := openInput(ctx, cmd, path, cfg, cif.WithStructuralOnly())
	if err != nil {
		return err
	}
	defer in.Close()

	collector := &structureCollector{}
	in.reader.SetBinaryCategoryHandler(collector.binaryCategory)
	in.reader.SetUnknownCategoryHandler(collector.textCategory, nil)

	if err := in.readAll(ctx, func() { collector.nameBlock(in.reader) }); err != nil {
		return err
	}

	if flags.json {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		blocks := collector.blocks
		if blocks == nil {
			blocks = []inspectBlock{}
		}
		if err := encoder.Encode(blocks); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	}

	color := cfg.Color
	if color == "" {
		color = "auto"
	}
	styles := pretty.NewStyles(pretty.IsColorEnabled(color, cmd.OutOrStdout()))
	return writeStructure(cmd.OutOrStdout(), styles, in.format, collector.blocks)
}

// structureCollector records categories as the reader reports them.
type structureCollector struct {
	blocks  []inspectBlock
	current int
	seen    map[string]bool
}

// block returns the entry for the reader's current block, starting a new
// one when the reader moved on.
func (c *structureCollector) block(r *cif.Reader) *inspectBlock {
	if len(c.blocks) == 0 || r.Blocks() != c.current {
		c.current = r.Blocks()
		c.blocks = append(c.blocks, inspectBlock{Name: r.BlockName()})
		c.seen = make(map[string]bool)
	}
	return &c.blocks[len(c.blocks)-1]
}

// nameBlock fills in the last block's name once the reader has finished
// it; a BinaryCIF header may follow the categories it names.
func (c *structureCollector) nameBlock(r *cif.Reader) {
	if n := len(c.blocks); n > 0 && c.blocks[n-1].Name == "" {
		c.blocks[n-1].Name = r.BlockName()
	}
}

func (c *structureCollector) binaryCategory(r *cif.Reader, cat *cif.BinaryCategory) error {
	b := c.block(r)

	entry := inspectCategory{Name: cat.Name, Rows: cat.RowCount}
	for _, col := range cat.Columns {
		column := inspectColumn{
			Name:     col.Name,
			Bytes:    len(col.Data.Data),
			Encoding: cif.ChainString(col.Data.Encoding),
		}
		if col.Mask != nil {
			column.MaskBytes = len(col.Mask.Data)
			column.MaskEncoding = cif.ChainString(col.Mask.Encoding)
		}
		entry.Columns = append(entry.Columns, column)
	}
	b.Categories = append(b.Categories, entry)
	return nil
}

func (c *structureCollector) textCategory(r *cif.Reader, category string, line int) error {
	b := c.block(r)

	key := strings.ToLower(category)
	if c.seen[key] {
		return nil
	}
	c.seen[key] = true
	b.Categories = append(b.Categories, inspectCategory{Name: category, Line: line})
	return nil
}

func writeStructure(w io.Writer, styles *pretty.Styles, format config.InputFormat, blocks []inspectBlock) error {
	out := bufio.NewWriter(w)

	if len(blocks) == 0 {
		fmt.Fprintln(out, styles.Dim.Render("no data blocks"))
	}

	for _, b := range blocks {
		fmt.Fprintf(out, "%s %s\n",
			styles.Bold.Render("data_"+b.Name),
			styles.Dim.Render(fmt.Sprintf("(%s, %d categories)", format, len(b.Categories))))

		width := 0
		for _, cat := range b.Categories {
			width = max(width, len(cat.Name))
		}

		for _, cat := range b.Categories {
			pad := strings.Repeat(" ", width-len(cat.Name))
			if format != config.InputBCIF {
				fmt.Fprintf(out, "  %s%s  %s\n", styles.Category.Render(cat.Name), pad,
					styles.Dim.Render(fmt.Sprintf("line %d", cat.Line)))
				continue
			}

			fmt.Fprintf(out, "  %s%s  %s\n", styles.Category.Render(cat.Name), pad,
				styles.Count.Render(humanize.Comma(int64(cat.Rows))+" rows"))
			writeColumns(out, styles, cat.Columns)
		}
	}

	return out.Flush()
}

func writeColumns(out *bufio.Writer, styles *pretty.Styles, columns []inspectColumn) {
	width := 0
	for _, col := range columns {
		width = max(width, len(col.Name))
	}
	for _, col := range columns {
		pad := strings.Repeat(" ", width-len(col.Name))
		fmt.Fprintf(out, "    %s%s  %10s  %s\n", styles.Keyword.Render(col.Name), pad,
			humanize.IBytes(uint64(col.Bytes)), styles.Dim.Render(col.Encoding))
		if col.MaskEncoding != "" {
			fmt.Fprintf(out, "    %s  %10s  %s\n", strings.Repeat(" ", width),
				humanize.IBytes(uint64(col.MaskBytes)), styles.Dim.Render("mask "+col.MaskEncoding))
		}
	}
}
