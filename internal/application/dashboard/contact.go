package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/aggregator"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	// ContactGoal is the target direct-contact percentage per room.
	ContactGoal = 20.0
	// ContactNoDataMessage replaces the charts when no room matches.
	ContactNoDataMessage = "No hay datos de salas para la selección actual"
	contactRecentDays    = 7
)

// ContactFields are the selectors of the direct-contact page. The area
// applies on its own; the date fields cascade.
var ContactFields = []Field{
	{Name: "area", Label: "Sala"},
	{Name: "year", Label: "Año"},
	{Name: "month", Label: "Mes", Parent: "year"},
	{Name: "day", Label: "Día", Parent: "month"},
}

// ContactPage charts the direct-contact survey per process room.
type ContactPage struct {
	source ContactSource
	tp     *util.TimeProvider

	mu       sync.Mutex
	readings []model.ContactReading
	loaded   bool
}

// NewContactPage creates the page.
func NewContactPage(source ContactSource, tp *util.TimeProvider) *ContactPage {
	return &ContactPage{source: source, tp: tp}
}

func (p *ContactPage) Name() string    { return "contact" }
func (p *ContactPage) Fields() []Field { return ContactFields }

// Readings fetches the survey once. A failed fetch yields no readings and
// is retried on the next call.
func (p *ContactPage) Readings(ctx context.Context) []model.ContactReading {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.readings
	}
	rows, err := p.source.FetchContact(ctx)
	if err != nil {
		util.LoggerFor(ctx).Warnf("Failed to fetch direct contact data: %v", err)
		return nil
	}
	p.readings = parser.FlattenContact(rows)
	p.loaded = true
	util.LoggerFor(ctx).Debugf("Loaded %d direct contact readings from %d rows", len(p.readings), len(rows))
	return p.readings
}

// Reload drops the fetched survey.
func (p *ContactPage) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = nil
	p.loaded = false
}

func (p *ContactPage) Build(ctx context.Context, state FilterState) (View, error) {
	view := newView(p, state)
	all := p.Readings(ctx)
	year, month := state.Int("year"), state.Int("month")

	view.Options["area"] = plainOptions(numericSorted(lo.Map(all, func(r model.ContactReading, _ int) string { return r.Room })))
	view.Options["year"] = plainOptions(numericSorted(lo.Map(all, func(r model.ContactReading, _ int) string { return itoa(r.Year) })))
	if year != 0 {
		months := numericSorted(lo.FilterMap(all, func(r model.ContactReading, _ int) (string, bool) {
			return itoa(r.Month), r.Year == year
		}))
		view.Options["month"] = lo.Map(months, func(m string, _ int) Option {
			n, _ := strconv.Atoi(m)
			return Option{Value: m, Label: model.MonthName(n)}
		})
	}
	if year != 0 && month != 0 {
		days := numericSorted(lo.FilterMap(all, func(r model.ContactReading, _ int) (string, bool) {
			return itoa(r.Day), r.Year == year && r.Month == month
		}))
		view.Options["day"] = lo.Map(days, func(d string, _ int) Option {
			return Option{Value: d, Label: "Día " + d}
		})
	}

	filtered, suffix := p.filter(all, state)
	if len(filtered) == 0 {
		view.Message = ContactNoDataMessage
		return view, nil
	}

	rooms := aggregator.RoomAverages(filtered)
	bar := model.Chart{
		Kind:     model.ChartBar,
		Title:    "Contacto Directo por Sala de Procesos" + suffix,
		Subtitle: fmt.Sprintf("Total de registros: %d", len(filtered)),
		Goal:     model.Float(ContactGoal),
	}
	avg := model.ChartSeries{Name: "% Contacto Directo"}
	for _, r := range rooms {
		bar.Categories = append(bar.Categories, r.Room)
		avg.Values = append(avg.Values, r.Average)
	}
	bar.Series = []model.ChartSeries{avg}

	bySum := make([]aggregator.RoomStat, len(rooms))
	copy(bySum, rooms)
	sort.SliceStable(bySum, func(i, j int) bool { return bySum[i].Sum > bySum[j].Sum })
	pie := model.Chart{
		Kind:  model.ChartPie,
		Title: "Distribución de Contacto Directo" + suffix,
	}
	sums := model.ChartSeries{Name: "Valor acumulado"}
	total := 0.0
	for _, r := range bySum {
		pie.Categories = append(pie.Categories, r.Room)
		sums.Values = append(sums.Values, r.Sum)
		total += r.Sum
	}
	pie.Series = []model.ChartSeries{sums}
	pie.Total = model.Float(util.Round(total, 2))

	view.Charts = append(view.Charts, bar, pie)
	return view, nil
}

// filter applies the room and the date case, returning the title suffix.
func (p *ContactPage) filter(all []model.ContactReading, state FilterState) ([]model.ContactReading, string) {
	area := state.Get("area")
	year, month, day := state.Int("year"), state.Int("month"), state.Int("day")

	keep := func(pred func(r model.ContactReading) bool) []model.ContactReading {
		return lo.Filter(all, func(r model.ContactReading, _ int) bool {
			return (area == "" || r.Room == area) && pred(r)
		})
	}

	switch {
	case year == 0:
		now := p.tp.Now()
		limit := now.AddDate(0, 0, -contactRecentDays)
		return keep(func(r model.ContactReading) bool {
			if r.Year == 0 || r.Month == 0 || r.Day == 0 {
				return false
			}
			d := p.tp.Date(r.Year, time.Month(r.Month), r.Day, 0, 0)
			return !d.Before(limit) && !d.After(now)
		}), " - Últimos 7 días"
	case month == 0:
		return keep(func(r model.ContactReading) bool { return r.Year == year }),
			fmt.Sprintf(" - Año %d", year)
	case day == 0:
		return keep(func(r model.ContactReading) bool { return r.Year == year && r.Month == month }),
			fmt.Sprintf(" - %s %d", model.MonthName(month), year)
	default:
		return keep(func(r model.ContactReading) bool {
				return r.Year == year && r.Month == month && r.Day == day
			}),
			fmt.Sprintf(" - %d de %s %d", day, model.MonthName(month), year)
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// numericSorted returns the distinct non-empty values, numbers first in
// numeric order and then text in lexical order.
func numericSorted(values []string) []string {
	out := lo.Uniq(lo.Filter(values, func(v string, _ int) bool { return v != "" }))
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.ParseFloat(out[i], 64)
		b, errB := strconv.ParseFloat(out[j], 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return out[i] < out[j]
	})
	return out
}
