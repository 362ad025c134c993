package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableColumn describes one rendered column.
type tableColumn struct {
	Header string
	Align  columnAlignment
	// Empty replaces blank cells, so a missing timestamp reads as "-".
	Empty string
}

func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		align := text.AlignLeft
		if col.Align == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, col := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if cell == "" {
				cell = col.Empty
			}
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

var capabilityColumns = []tableColumn{
	{Header: "Capability"},
	{Header: "State"},
	{Header: "Pending", Align: alignRight},
	{Header: "Updated", Empty: "-"},
}
