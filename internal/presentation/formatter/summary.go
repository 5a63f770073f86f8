package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	totalColor = color.New(color.FgGreen, color.Bold)
	goalColor  = color.New(color.FgYellow)
	mutedColor = color.New(color.FgHiBlack)
)

const summaryWidth = 60

// SummaryFormatter prints the headline figures of each chart.
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

// Format prints, per chart, the title, the series totals and the leading
// category.
func (f *SummaryFormatter) Format(charts []Chart) error {
	fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
	data := nonEmpty(charts)
	if len(data) == 0 {
		fmt.Fprintln(f.w, NoDataMessage)
		fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
		return nil
	}

	for _, c := range data {
		titleColor.Fprintln(f.w, c.Title)
		if c.Subtitle != "" {
			mutedColor.Fprintln(f.w, "  "+c.Subtitle)
		}
		if c.Kind == model.ChartTable {
			fmt.Fprintf(f.w, "  Registros: %d\n", len(c.Rows))
			fmt.Fprintln(f.w)
			continue
		}
		for _, s := range c.Series {
			if strings.HasPrefix(s.Name, "%") {
				continue
			}
			label, value := top(c.Categories, s.Values)
			fmt.Fprintf(f.w, "  %s: %s", s.Name, totalColor.Sprint(util.FormatDecimal(sum(s.Values))))
			if label != "" {
				fmt.Fprintf(f.w, " (mayor: %s %s)", label, util.FormatDecimal(value))
			}
			fmt.Fprintln(f.w)
		}
		if c.Goal != nil {
			goalColor.Fprintf(f.w, "  Meta: %s\n", util.FormatDecimal(*c.Goal))
		}
		if c.Total != nil {
			fmt.Fprintf(f.w, "  Total: %s\n", totalColor.Sprint(util.FormatDecimal(*c.Total)))
		}
		fmt.Fprintln(f.w)
	}
	fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
	return nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// top returns the category holding the largest value.
func top(categories []string, values []float64) (string, float64) {
	best, label := 0.0, ""
	for i, v := range values {
		if i < len(categories) && (label == "" || v > best) {
			best, label = v, categories[i]
		}
	}
	return label, best
}
