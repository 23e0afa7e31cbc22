package output

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

type OutputFormat string

const (
	TableFormat OutputFormat = "table"
	CSVFormat   OutputFormat = "csv"
	JSONFormat  OutputFormat = "json"
	YAMLFormat  OutputFormat = "yaml"
)

var AllFormats = append([]OutputFormat{TableFormat, CSVFormat}, NonTabularFormats...)
var NonTabularFormats = []OutputFormat{JSONFormat, YAMLFormat}

var noStyle = table.Style{
	Name:   "StyleDefault",
	Box:    table.StyleBoxDefault,
	Color:  table.ColorOptionsDefault,
	Format: table.FormatOptionsDefault,
	HTML:   table.DefaultHTMLOptions,
	Options: table.Options{
		DrawBorder:      false,
		SeparateColumns: false,
		SeparateFooter:  false,
		SeparateHeader:  false,
		SeparateRows:    false,
	},
	Title: table.TitleOptionsDefault,
}

var red = color.New(color.FgRed)

// RedStr colours s red unless colour is disabled (not a terminal, or NO_COLOR).
func RedStr(s string) string {
	return red.Sprint(s)
}

type OutputOptions struct {
	Format     OutputFormat // The output format for listings
	Pretty     bool         // Pretty print json output
	HideHeader bool         // Hide the column headers
	NoStyle    bool         // Remove all styling from table output.
	Wide       bool         // Print full values in the table results
	SortBy     []table.SortBy
}

type TableColumn[T any] struct {
	table.ColumnConfig
	Value func(T) string
}

// Output renders items as a table or csv, or encodes the whole slice as json
// or yaml.
func Output[T any](cmd *cobra.Command, columns []TableColumn[T], options OutputOptions, items []T) error {
	switch options.Format {
	case TableFormat, CSVFormat:
		outputTable(cmd, columns, options, items)
		return nil
	default:
		return encode(cmd, options, items)
	}
}

// OutputOne is Output for a single value. Json and yaml encode the value
// itself rather than a one-element list.
func OutputOne[T any](cmd *cobra.Command, columns []TableColumn[T], options OutputOptions, item T) error {
	switch options.Format {
	case TableFormat, CSVFormat:
		outputTable(cmd, columns, options, []T{item})
		return nil
	default:
		return encode(cmd, options, item)
	}
}

// OutputNonTabular encodes v as json or yaml. Table and csv fall back to yaml.
func OutputNonTabular(cmd *cobra.Command, options OutputOptions, v any) error {
	if options.Format == TableFormat || options.Format == CSVFormat || options.Format == "" {
		options.Format = YAMLFormat
	}
	return encode(cmd, options, v)
}

func encode(cmd *cobra.Command, options OutputOptions, v any) error {
	switch options.Format {
	case JSONFormat:
		encoder := json.NewEncoder(cmd.OutOrStdout())
		if options.Pretty {
			encoder.SetIndent("", "  ")
		}
		return encoder.Encode(v)
	case YAMLFormat:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	default:
		return fmt.Errorf("invalid format %q", options.Format)
	}
}

func outputTable[T any](cmd *cobra.Command, columns []TableColumn[T], options OutputOptions, items []T) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	if options.SortBy != nil {
		tw.SortBy(options.SortBy)
	}

	configs := lo.Map(columns, func(c TableColumn[T], i int) table.ColumnConfig {
		config := c.ColumnConfig
		config.Number = i + 1
		if options.Wide {
			config.WidthMax = 0
			config.WidthMaxEnforcer = nil
		}
		return config
	})
	tw.SetColumnConfigs(configs)

	if !options.HideHeader {
		tw.AppendHeader(lo.Map(columns, func(c TableColumn[T], _ int) any { return c.Name }))
	}

	tw.SetStyle(table.StyleColoredGreenWhiteOnBlack)
	if options.NoStyle || options.Format == CSVFormat {
		tw.SetStyle(noStyle)
	}

	for _, item := range items {
		tw.AppendRow(lo.Map(columns, func(c TableColumn[T], _ int) any {
			return c.Value(item)
		}))
	}

	switch options.Format {
	case TableFormat:
		tw.Render()
	case CSVFormat:
		tw.RenderCSV()
	}
}
