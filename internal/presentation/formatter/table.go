package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

type TableFormatter struct {
	w io.Writer
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{w: w}
}

// Format prints one table per chart, preceded by its title and subtitle
// and followed by its notes.
func (f *TableFormatter) Format(charts []Chart) error {
	data := nonEmpty(charts)
	if len(data) == 0 {
		_, err := fmt.Fprintln(f.w, NoDataMessage)
		return err
	}
	for i, c := range data {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		if err := f.formatChart(c); err != nil {
			return fmt.Errorf("failed to render %q: %w", c.Title, err)
		}
	}
	return nil
}

func (f *TableFormatter) formatChart(c Chart) error {
	fmt.Fprintln(f.w, c.Title)
	fmt.Fprintln(f.w, strings.Repeat("─", util.GetDisplayWidth(c.Title)))
	if c.Subtitle != "" {
		fmt.Fprintln(f.w, c.Subtitle)
	}

	table := tablewriter.NewWriter(f.w)
	table.Header(columns(c))
	if c.Kind != model.ChartTable {
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.PerColumn = numericAlignment(len(columns(c)))
		})
	}
	if err := table.Bulk(rows(c, decimal)); err != nil {
		return err
	}
	if c.Total != nil {
		table.Footer(totalRow(c))
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, note := range c.Notes {
		fmt.Fprintln(f.w, note)
	}
	return nil
}

// numericAlignment left-aligns the category column and right-aligns values.
func numericAlignment(n int) []tw.Align {
	align := make([]tw.Align, n)
	for i := range align {
		align[i] = tw.AlignRight
	}
	if n > 0 {
		align[0] = tw.AlignLeft
	}
	return align
}

func totalRow(c Chart) []string {
	row := make([]string, len(columns(c)))
	row[0] = "Total"
	if len(row) > 1 {
		row[len(row)-1] = decimal(*c.Total)
	}
	return row
}
