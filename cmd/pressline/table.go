package main

import (
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const tableCellWidthMax = 60

// tableView is a rounded go-pretty table. Columns whose index appears in
// right are right aligned; rows shorter than headers are padded.
type tableView struct {
	headers []string
	rows    [][]string
	footer  []string
	right   []int
}

func (v tableView) String() string {
	if len(v.headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(v.row(v.headers))
	for _, r := range v.rows {
		tw.AppendRow(v.row(r))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.row(v.footer))
	}

	configs := make([]table.ColumnConfig, len(v.headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignLeft,
			WidthMax:    tableCellWidthMax,
		}
		if slices.Contains(v.right, i) {
			configs[i].Align = text.AlignRight
			configs[i].AlignFooter = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render() + "\n"
}

func (v tableView) row(cells []string) table.Row {
	out := make(table.Row, len(v.headers))
	for i := range out {
		out[i] = ""
		if i < len(cells) {
			out[i] = cells[i]
		}
	}
	return out
}
