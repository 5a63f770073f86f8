package model

// ChartKind hints how a chart is drawn.
type ChartKind string

const (
	ChartBar    ChartKind = "bar"
	ChartLine   ChartKind = "line"
	ChartPie    ChartKind = "pie"
	ChartPareto ChartKind = "pareto"
	ChartTable  ChartKind = "table"
)

// ChartSeries is one named list of values aligned with Chart.Categories.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is a renderer-neutral description of one dashboard panel. Tables
// use Columns and Rows instead of Categories and Series.
type Chart struct {
	Kind       ChartKind     `json:"kind"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Series     []ChartSeries `json:"series,omitempty"`
	Goal       *float64      `json:"goal,omitempty"`
	Total      *float64      `json:"total,omitempty"`
	Columns    []string      `json:"columns,omitempty"`
	Rows       [][]string    `json:"rows,omitempty"`
	Notes      []string      `json:"notes,omitempty"`
}

// Empty reports whether the chart carries no data.
func (c Chart) Empty() bool {
	if c.Kind == ChartTable {
		return len(c.Rows) == 0
	}
	return len(c.Categories) == 0
}

// NewLabeledChart builds a chart from series sharing the labels of the
// first one.
func NewLabeledChart(kind ChartKind, title string, names []string, series ...[]LabeledValue) Chart {
	c := Chart{Kind: kind, Title: title}
	if len(series) == 0 {
		return c
	}
	for _, lv := range series[0] {
		c.Categories = append(c.Categories, lv.Label)
	}
	for i, s := range series {
		cs := ChartSeries{Values: make([]float64, len(s))}
		if i < len(names) {
			cs.Name = names[i]
		}
		for j, lv := range s {
			cs.Values[j] = lv.Value
		}
		c.Series = append(c.Series, cs)
	}
	return c
}

// Float returns a pointer to v for optional chart fields.
func Float(v float64) *float64 {
	return &v
}
