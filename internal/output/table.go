package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table wraps tablewriter with the borderless style used across the CLI.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *Table {
	t := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	return &Table{table: t}
}

// SetHeader sets the column headers.
func (t *Table) SetHeader(headers []string) {
	t.header = headers
}

// Append adds a row.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table.
func (t *Table) Render() error {
	if len(t.header) > 0 {
		t.table.Header(t.header)
	}
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}
