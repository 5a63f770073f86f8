// Package formatter prints dashboard charts as tables, JSON, CSV or a
// colored summary.
package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// Chart is the renderer-neutral panel produced by the dashboards.
type Chart = model.Chart

// NoDataMessage is printed instead of an empty chart set.
const NoDataMessage = "No hay datos para mostrar"

// Formatter writes a set of charts.
type Formatter interface {
	Format(charts []Chart) error
}

// New returns the formatter registered for format.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "table", "":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "summary":
		return NewSummaryFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s. Must be table, json, csv, or summary", format)
	}
}

// nonEmpty drops charts without data.
func nonEmpty(charts []Chart) []Chart {
	out := make([]Chart, 0, len(charts))
	for _, c := range charts {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// header returns the column names of a series chart.
func header(c Chart) []string {
	cols := []string{"Categoría"}
	for _, s := range c.Series {
		cols = append(cols, s.Name)
	}
	if c.Goal != nil {
		cols = append(cols, "Meta")
	}
	return cols
}

// rows flattens a chart into string cells. Tables keep their rows; series
// charts get one row per category.
func rows(c Chart, number func(float64) string) [][]string {
	if c.Kind == model.ChartTable {
		return c.Rows
	}
	out := make([][]string, 0, len(c.Categories))
	for i, cat := range c.Categories {
		row := []string{cat}
		for _, s := range c.Series {
			v := ""
			if i < len(s.Values) {
				v = number(s.Values[i])
			}
			row = append(row, v)
		}
		if c.Goal != nil {
			row = append(row, number(*c.Goal))
		}
		out = append(out, row)
	}
	return out
}

func columns(c Chart) []string {
	if c.Kind == model.ChartTable {
		return c.Columns
	}
	return header(c)
}

func decimal(v float64) string {
	return util.FormatDecimal(v)
}
