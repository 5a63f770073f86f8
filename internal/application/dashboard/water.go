package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/aggregator"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	waterComparisonTitle = "Comparación consumo hídrico"
	unitM3               = "m³"
)

// WaterFields are the selectors of the water page.
var WaterFields = []Field{
	{Name: "year", Label: "Año"},
	{Name: "month", Label: "Mes", Parent: "year"},
	{Name: "day", Label: "Día", Parent: "month"},
}

// WaterPage compares the consumption of the water series.
type WaterPage struct {
	loader *GapFillingLoader
	cfg    *Config
	tp     *util.TimeProvider
	series []model.Series
}

// NewWaterPage creates the page over the given loader.
func NewWaterPage(loader *GapFillingLoader, cfg *Config, tp *util.TimeProvider) *WaterPage {
	return &WaterPage{loader: loader, cfg: cfg, tp: tp, series: model.WaterSeries}
}

func (p *WaterPage) Name() string    { return "water" }
func (p *WaterPage) Fields() []Field { return WaterFields }

func span(start, end time.Time) model.Interval {
	return model.Interval{Start: start.UnixMilli(), End: end.UnixMilli()}
}

// InitialLoad fetches the last InitialDays days of every series.
func (p *WaterPage) InitialLoad(ctx context.Context) []LoadReport {
	start, end := p.tp.LastDays(p.cfg.InitialDays)
	return p.loader.LoadAll(ctx, p.series, span(start, end))
}

// dataWindow is the interval the comparative and accumulated charts use.
func (p *WaterPage) dataWindow(year, month, day int) model.Interval {
	switch {
	case year != 0 && month != 0 && day != 0:
		from := p.tp.Date(year, time.Month(month), day, 21, 0)
		to := p.tp.Date(year, time.Month(month), day+1, 3, 55)
		return span(from, to)
	case year != 0 && month != 0:
		return span(p.tp.MonthBounds(year, time.Month(month)))
	case year != 0:
		return span(p.tp.YearBounds(year))
	default:
		return span(p.tp.LastDays(p.cfg.InitialDays - 1))
	}
}

// nightWindow runs from 21:30 of the day before the reference day to 05:30
// of the reference day. Unset fields fall back to today.
func (p *WaterPage) nightWindow(year, month, day int) model.Interval {
	now := p.tp.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if day == 0 {
		day = now.Day()
	}
	from := p.tp.Date(year, time.Month(month), day-1, 21, 30)
	to := p.tp.Date(year, time.Month(month), day, 5, 30)
	return span(from, to)
}

func (p *WaterPage) Build(ctx context.Context, state FilterState) (View, error) {
	view := newView(p, state)
	year, month, day := state.Int("year"), state.Int("month"), state.Int("day")
	loc := p.tp.Location()

	// The whole year feeds the month options, whatever the depth of the
	// selection.
	if year != 0 {
		p.loader.LoadAll(ctx, p.series, span(p.tp.YearBounds(year)))
	}
	window := p.dataWindow(year, month, day)
	night := p.nightWindow(year, month, day)
	p.loader.LoadAll(ctx, p.series, window)
	p.loader.LoadAll(ctx, p.series, night)
	if day == 0 {
		weekly, _, _ := p.weeklyWindow(year, month)
		p.loader.LoadAll(ctx, p.series, weekly)
	}

	view.Options = p.options(year, month)

	var (
		comparative = make([][]model.LabeledValue, len(p.series))
		nocturnal   = make([][]model.LabeledValue, len(p.series))
		totals      = make([]float64, len(p.series))
		names       = make([]string, len(p.series))
		hasData     bool
	)
	granularity, title := comparisonGrouping(year, month, day, p.cfg.InitialDays)
	for i, s := range p.series {
		names[i] = s.Label
		points := p.loader.Cache().Points(s.ID, window)
		if len(points) > 0 {
			hasData = true
		}
		comparative[i] = aggregator.Aggregate(points, granularity, loc)
		totals[i] = aggregator.Total(points)
		nocturnal[i] = aggregator.AggregateFixed(p.loader.Cache().Points(s.ID, night), aggregator.Hourly, loc, aggregator.NightLabels())
	}

	if !hasData {
		view.Message = NoDataMessage
		util.LoggerFor(ctx).Infof("WaterPage: no readings for %v", state)
		return view, nil
	}

	view.Charts = append(view.Charts, stackedChart("Consumo nocturno", "Total", names, nocturnal))

	labels := aggregator.UnionLabels(granularity, comparative...)
	for i := range comparative {
		comparative[i] = aggregator.Align(comparative[i], labels)
	}
	comp := model.NewLabeledChart(model.ChartBar, title, names, comparative...)
	comp.Categories = labels
	total := lo.Sum(totals)
	comp.Subtitle = fmt.Sprintf("Consumo total: %s %s", util.FormatDecimal(total), unitM3)
	comp.Total = model.Float(total)
	view.Charts = append(view.Charts, comp)

	if day == 0 {
		view.Charts = append(view.Charts, p.weeklyChart(year, month, names))
	}

	projections := make([][]model.LabeledValue, len(totals))
	for i, t := range totals {
		projections[i] = aggregator.Projection(t)
	}
	view.Charts = append(view.Charts, model.NewLabeledChart(model.ChartBar, "Consumo acumulado", names, projections...))
	return view, nil
}

// comparisonGrouping picks the bucket size and title for a selection.
func comparisonGrouping(year, month, day, initialDays int) (aggregator.Granularity, string) {
	switch {
	case year != 0 && month != 0 && day != 0:
		return aggregator.Hourly, waterComparisonTitle + " por hora"
	case year != 0 && month != 0:
		return aggregator.Daily, waterComparisonTitle + " por día"
	case year != 0:
		return aggregator.Monthly, waterComparisonTitle + " por mes"
	default:
		return aggregator.Daily, fmt.Sprintf("%s últimos %d días", waterComparisonTitle, initialDays)
	}
}

// stackedChart builds a per-series chart with a "Total: x m³" subtitle.
func stackedChart(title, totalLabel string, names []string, series [][]model.LabeledValue) model.Chart {
	c := model.NewLabeledChart(model.ChartBar, title, names, series...)
	total := 0.0
	for _, s := range series {
		total += aggregator.Sum(s)
	}
	c.Subtitle = fmt.Sprintf("%s: %s %s", totalLabel, util.FormatDecimal(total), unitM3)
	c.Total = model.Float(total)
	return c
}

// weeklyChart shows Tuesday to Friday consumption: work weeks of a month,
// or months of a year.
func (p *WaterPage) weeklyChart(year, month int, names []string) model.Chart {
	loc := p.tp.Location()
	iv, granularity, title := p.weeklyWindow(year, month)

	series := make([][]model.LabeledValue, len(p.series))
	for i, s := range p.series {
		points := aggregator.WorkDaysOnly(p.loader.Cache().Points(s.ID, iv), loc)
		series[i] = aggregator.Aggregate(points, granularity, loc)
	}
	labels := aggregator.UnionLabels(granularity, series...)
	for i := range series {
		series[i] = aggregator.Align(series[i], labels)
	}
	c := stackedChart(title, "Total", names, series)
	c.Categories = labels
	return c
}

// weeklyWindow returns the interval, bucket size and title of the weekly
// chart: the months of a selected year, otherwise the work weeks of the
// selected or current month.
func (p *WaterPage) weeklyWindow(year, month int) (model.Interval, aggregator.Granularity, string) {
	switch {
	case year != 0 && month == 0:
		return span(p.tp.YearBounds(year)), aggregator.Monthly,
			fmt.Sprintf("Consumo mensual %d (Mar-Vie)", year)
	case year != 0:
		return span(p.tp.MonthBounds(year, time.Month(month))), aggregator.WorkWeekly,
			fmt.Sprintf("Consumo semanas %d/%d (Mar-Vie)", month, year)
	default:
		now := p.tp.Now()
		return span(p.tp.MonthBounds(now.Year(), now.Month())), aggregator.WorkWeekly,
			fmt.Sprintf("Consumo semanas %d/%d (Mar-Vie)", int(now.Month()), now.Year())
	}
}

// options lists years from the first data year to now, and the months and
// days present in the cache for the selected year and month.
func (p *WaterPage) options(year, month int) map[string][]Option {
	loc := p.tp.Location()
	first := time.UnixMilli(p.cfg.DataStart).In(loc).Year()
	current := p.tp.Now().Year()

	out := map[string][]Option{}
	for y := first; y <= current; y++ {
		out["year"] = append(out["year"], Option{Value: strconv.Itoa(y), Label: strconv.Itoa(y)})
	}
	if year == 0 {
		return out
	}

	var stamps []time.Time
	for _, s := range p.series {
		for _, pt := range p.loader.Cache().Points(s.ID, span(p.tp.YearBounds(year))) {
			stamps = append(stamps, time.UnixMilli(pt.Timestamp).In(loc))
		}
	}

	months := lo.Uniq(lo.Map(stamps, func(t time.Time, _ int) int { return int(t.Month()) }))
	sort.Ints(months)
	for _, m := range months {
		out["month"] = append(out["month"], Option{Value: strconv.Itoa(m), Label: model.MonthName(m)})
	}
	if month == 0 {
		return out
	}

	inMonth := lo.Filter(stamps, func(t time.Time, _ int) bool { return int(t.Month()) == month })
	days := lo.Uniq(lo.Map(inMonth, func(t time.Time, _ int) int { return t.Day() }))
	sort.Ints(days)
	for _, d := range days {
		out["day"] = append(out["day"], Option{Value: strconv.Itoa(d), Label: strconv.Itoa(d)})
	}
	return out
}
