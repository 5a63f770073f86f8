package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/aggregator"
	"github.com/penwyp/go-ssgg-monitor/internal/data/client"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	paretoDays    = 7
	paretoTop     = 10
	maxDetailRows = 500
	maxAreasShown = 5
)

// DowntimeFields are the selectors of the downtime page in cascade order.
var DowntimeFields = []Field{
	{Name: "year", Label: "Año"},
	{Name: "month", Label: "Mes", Parent: "year"},
	{Name: "area", Label: "Área", Parent: "year"},
	{Name: "section", Label: "Sección", Parent: "area"},
	{Name: "tpm", Label: "TPM", Parent: "section"},
	{Name: "detention", Label: "Detención", Parent: "tpm"},
	{Name: "day", Label: "Día", Parent: "month"},
}

// DowntimePage analyses the stoppages attributed to SSGG.
type DowntimePage struct {
	loader *PeriodLoader
	cfg    *Config
	tp     *util.TimeProvider
}

// NewDowntimePage creates the page.
func NewDowntimePage(loader *PeriodLoader, cfg *Config, tp *util.TimeProvider) *DowntimePage {
	return &DowntimePage{loader: loader, cfg: cfg, tp: tp}
}

func (p *DowntimePage) Name() string    { return "downtime" }
func (p *DowntimePage) Fields() []Field { return DowntimeFields }

// Preload warms the current month in the background.
func (p *DowntimePage) Preload(ctx context.Context) {
	now := p.tp.Now()
	p.loader.Preload(ctx, now.Year(), model.MonthShortNames[now.Month()-1])
}

// years returns the years with published months, ascending.
func (p *DowntimePage) years() []string {
	years := lo.Keys(p.cfg.AvailableMonths)
	sort.Ints(years)
	return lo.Map(years, func(y int, _ int) string { return strconv.Itoa(y) })
}

func (p *DowntimePage) Build(ctx context.Context, state FilterState) (View, error) {
	view := newView(p, state)
	view.Options["year"] = plainOptions(p.years())

	year := state.Int("year")
	if year == 0 {
		return p.paretoView(ctx, view), nil
	}

	months := p.cfg.AvailableMonths[year]
	view.Options["month"] = plainOptions(months)
	toLoad := months
	if m := state.Get("month"); m != "" {
		toLoad = []string{m}
	}
	all := p.loader.LoadMonths(ctx, year, toLoad)

	filtered := all
	if m := state.Get("month"); m != "" {
		filtered = inMonth(filtered, m)
	}
	filtered = filterDowntime(filtered, state)
	p.fillOptions(&view, all, state)

	if len(filtered) == 0 {
		view.Message = NoDataMessage
		return view, nil
	}

	switch {
	case state.Has("day"):
		view.Charts = append(view.Charts, dayDetailChart(filtered, state))
	case state.Has("month"):
		view.Charts = append(view.Charts, statChart(
			fmt.Sprintf("Detenciones por Dia - %s %d", state.Get("month"), year),
			aggregator.DowntimeByDay(filtered), "Minutos Totales", "Cantidad Detenciones"))
	case !state.Has("area"):
		view.Charts = append(view.Charts, statChart(
			fmt.Sprintf("Detenciones por Mes - Año %d", year),
			aggregator.DowntimeByMonth(filtered), "Minutos Totales", "Cantidad Detenciones"))
	default:
		view.Charts = append(view.Charts, areaCharts(filtered, state.Get("area"))...)
	}

	view.Charts = append(view.Charts, downtimePieChart(filtered), downtimeDetailTable(filtered))
	return view, nil
}

// paretoView ranks the TPM types of the last seven days.
func (p *DowntimePage) paretoView(ctx context.Context, view View) View {
	now := p.tp.Now()
	dates := make(map[string]bool, paretoDays)
	perYear := make(map[int][]string)
	var first, last string
	for i := paretoDays - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		label := fmt.Sprintf("%02d-%02d-%d", d.Day(), int(d.Month()), d.Year())
		dates[label] = true
		if first == "" {
			first = label
		}
		last = label
		month := model.MonthShortNames[d.Month()-1]
		if !lo.Contains(perYear[d.Year()], month) {
			perYear[d.Year()] = append(perYear[d.Year()], month)
		}
	}

	var recent []model.DowntimeRecord
	years := lo.Keys(perYear)
	sort.Ints(years)
	for _, y := range years {
		for _, r := range p.loader.LoadMonths(ctx, y, perYear[y]) {
			if dates[r.Date] {
				recent = append(recent, r)
			}
		}
	}

	stats := aggregator.DowntimePareto(recent, paretoTop)
	if len(stats) == 0 {
		view.Message = NoDataMessage
		return view
	}
	total := lo.SumBy(stats, func(s aggregator.CategoryStat) float64 { return s.Minutes })

	c := model.Chart{
		Kind:     model.ChartPareto,
		Title:    "Diagrama de Pareto - Ultimos 7 Días",
		Subtitle: fmt.Sprintf("Del %s al %s | Total: %.0f minutos | Responsable: %s", first, last, total, client.ResponsibleFilter),
		Total:    model.Float(total),
	}
	minutes := model.ChartSeries{Name: "Minutos"}
	counts := model.ChartSeries{Name: "Cantidad"}
	cumulative := model.ChartSeries{Name: "% Acumulado"}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Label)
		minutes.Values = append(minutes.Values, s.Minutes)
		counts.Values = append(counts.Values, float64(s.Count))
		cumulative.Values = append(cumulative.Values, s.CumulativePct)
	}
	c.Series = []model.ChartSeries{minutes, counts, cumulative}
	view.Charts = append(view.Charts, c)
	return view
}

// filterDowntime applies the category and day selections.
func filterDowntime(recs []model.DowntimeRecord, state FilterState) []model.DowntimeRecord {
	return lo.Filter(recs, func(r model.DowntimeRecord, _ int) bool {
		return (!state.Has("area") || r.Area == state.Get("area")) &&
			(!state.Has("section") || r.Section == state.Get("section")) &&
			(!state.Has("tpm") || r.TPM == state.Get("tpm")) &&
			(!state.Has("detention") || r.Detention == state.Get("detention")) &&
			(!state.Has("day") || sameNumber(r.Day, state.Get("day")))
	})
}

// inMonth keeps the records of the selected month abbreviation.
func inMonth(recs []model.DowntimeRecord, month string) []model.DowntimeRecord {
	idx := model.MonthShortIndex(month)
	return lo.Filter(recs, func(r model.DowntimeRecord, _ int) bool {
		n, err := strconv.Atoi(r.Month)
		return err == nil && n == idx
	})
}

// fillOptions recomputes the dependent options from the loaded data: each
// level is narrowed by the selections above it.
func (p *DowntimePage) fillOptions(view *View, all []model.DowntimeRecord, state FilterState) {
	base := all
	if state.Has("month") {
		base = inMonth(base, state.Get("month"))
	}
	days := base
	if state.Has("day") {
		base = lo.Filter(base, func(r model.DowntimeRecord, _ int) bool { return sameNumber(r.Day, state.Get("day")) })
	}

	view.Options["area"] = plainOptions(distinct(base, func(r model.DowntimeRecord) string { return r.Area }))
	if state.Has("area") {
		base = lo.Filter(base, func(r model.DowntimeRecord, _ int) bool { return r.Area == state.Get("area") })
	}
	view.Options["section"] = plainOptions(distinct(base, func(r model.DowntimeRecord) string { return r.Section }))
	if state.Has("section") {
		base = lo.Filter(base, func(r model.DowntimeRecord, _ int) bool { return r.Section == state.Get("section") })
	}
	view.Options["tpm"] = plainOptions(distinct(base, func(r model.DowntimeRecord) string { return r.TPM }))
	if state.Has("tpm") {
		base = lo.Filter(base, func(r model.DowntimeRecord, _ int) bool { return r.TPM == state.Get("tpm") })
	}
	view.Options["detention"] = plainOptions(distinct(base, func(r model.DowntimeRecord) string { return r.Detention }))

	dayValues := distinct(days, func(r model.DowntimeRecord) string { return r.Day })
	sort.SliceStable(dayValues, func(i, j int) bool {
		a, _ := strconv.Atoi(dayValues[i])
		b, _ := strconv.Atoi(dayValues[j])
		return a < b
	})
	view.Options["day"] = plainOptions(dayValues)
}

// distinct returns the sorted non-empty values of key.
func distinct[T any](items []T, key func(T) string) []string {
	values := lo.Uniq(lo.FilterMap(items, func(it T, _ int) (string, bool) {
		v := key(it)
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

func sameNumber(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return x == y
}

// statChart plots minutes and counts per category.
func statChart(title string, stats []aggregator.CategoryStat, minutesName, countName string) model.Chart {
	c := model.Chart{Kind: model.ChartBar, Title: title}
	minutes := model.ChartSeries{Name: minutesName}
	counts := model.ChartSeries{Name: countName}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Label)
		minutes.Values = append(minutes.Values, s.Minutes)
		counts.Values = append(counts.Values, float64(s.Count))
	}
	c.Series = []model.ChartSeries{minutes, counts}
	return c
}

func dayDetailChart(recs []model.DowntimeRecord, state FilterState) model.Chart {
	total := aggregator.TotalMinutes(recs)
	avg := util.Round(total/float64(len(recs)), 2)
	c := statChart(
		fmt.Sprintf("Detalle del Día %s/%s/%s", state.Get("day"), state.Get("month"), state.Get("year")),
		aggregator.DowntimeByDetention(recs), "Minutos", "Cantidad")
	c.Subtitle = fmt.Sprintf("Total: %.0f min | Promedio: %.2f min | %d detenciones", math.Round(total), avg, len(recs))
	c.Total = model.Float(total)
	return c
}

// areaCharts draws the minutes of each record per area. Without a selected
// area only the first areas are drawn and a note tells how many exist.
func areaCharts(recs []model.DowntimeRecord, selected string) []model.Chart {
	details, areas := aggregator.DowntimeByArea(recs, selected)
	charts := make([]model.Chart, 0, len(details))
	for _, d := range details {
		c := model.Chart{
			Kind:     model.ChartBar,
			Title:    "Area: " + d.Area,
			Subtitle: fmt.Sprintf("Seccion: %s | Promedio: %.2f min | Mostrando %d de %d registros", d.Section, d.Average, len(d.Rows), d.TotalRows),
		}
		minutes := model.ChartSeries{Name: "Minutos"}
		for _, r := range d.Rows {
			c.Categories = append(c.Categories, r.Fecha)
			minutes.Values = append(minutes.Values, float64(r.Minutes))
		}
		c.Series = []model.ChartSeries{minutes}
		charts = append(charts, c)
	}
	if selected == "" && areas > maxAreasShown && len(charts) > 0 {
		last := &charts[len(charts)-1]
		last.Notes = append(last.Notes, fmt.Sprintf("Mostrando %d de %d areas. Seleccione un area especifica para ver mas detalles.", maxAreasShown, areas))
	}
	return charts
}

func downtimePieChart(recs []model.DowntimeRecord) model.Chart {
	stats := aggregator.DowntimePie(recs)
	total := lo.SumBy(stats, func(s aggregator.CategoryStat) float64 { return s.Minutes })
	c := model.Chart{
		Kind:     model.ChartPie,
		Title:    "Distribución de Detenciones por Área y Sección",
		Subtitle: fmt.Sprintf("Total: %.0f minutos | %d detenciones", total, len(recs)),
		Total:    model.Float(total),
	}
	minutes := model.ChartSeries{Name: "Minutos"}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Label)
		minutes.Values = append(minutes.Values, s.Minutes)
	}
	c.Series = []model.ChartSeries{minutes}
	return c
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func downtimeDetailTable(recs []model.DowntimeRecord) model.Chart {
	title := fmt.Sprintf("Detalle de Detenciones (%d registros", len(recs))
	rows := recs
	if len(rows) > maxDetailRows {
		rows = rows[:maxDetailRows]
		title += fmt.Sprintf(" - Mostrando primeros %d", maxDetailRows)
	}
	c := model.Chart{
		Kind:  model.ChartTable,
		Title: title + ")",
		Columns: []string{"#", "Fecha", "Desc Area", "Desc Seccion", "Desc TPM", "Desc Turno",
			"Desc Detencion", "Observacion", "Hora Inicio", "Hora Termino", "Minutos"},
	}
	for i, r := range rows {
		c.Rows = append(c.Rows, []string{
			strconv.Itoa(i + 1), dash(r.Fecha), dash(r.Area), dash(r.Section), dash(r.TPM),
			dash(r.Shift), dash(r.Detention), dash(r.Observation), dash(r.StartHour),
			dash(r.EndHour), strconv.FormatFloat(float64(r.Minutes), 'f', -1, 64),
		})
	}
	return c
}
