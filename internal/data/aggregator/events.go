package aggregator

import (
	"math"
	"sort"
	"strconv"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// CategoryStat summarises the records of one category.
type CategoryStat struct {
	Label         string  `json:"label"`
	Minutes       float64 `json:"minutes"`
	Count         int     `json:"count"`
	CumulativePct float64 `json:"cumulativePct,omitempty"`
}

// GroupStats sums weight and counts items per key. Groups come back in
// label order.
func GroupStats[T any](items []T, key func(T) string, weight func(T) float64) []CategoryStat {
	index := make(map[string]int)
	var out []CategoryStat
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, CategoryStat{Label: k})
		}
		out[i].Count++
		if weight != nil {
			out[i].Minutes += weight(it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// withCumulative fills CumulativePct from value, rounded to one decimal.
func withCumulative(stats []CategoryStat, value func(CategoryStat) float64) []CategoryStat {
	total := 0.0
	for _, s := range stats {
		total += value(s)
	}
	acc := 0.0
	for i := range stats {
		acc += value(stats[i])
		if total > 0 {
			stats[i].CumulativePct = util.Round(acc/total*100, 1)
		}
	}
	return stats
}

func byMinutesDesc(stats []CategoryStat) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Minutes > stats[j].Minutes })
}

func byCountDesc(stats []CategoryStat) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func minutes(r model.DowntimeRecord) float64 { return float64(r.Minutes) }

// TotalMinutes sums the minutes of the records.
func TotalMinutes(recs []model.DowntimeRecord) float64 {
	total := 0.0
	for _, r := range recs {
		total += minutes(r)
	}
	return total
}

// DowntimePareto ranks stoppage types by minutes and keeps the top limit.
// The cumulative share is computed over the kept categories, and minutes are
// rounded after accumulating.
func DowntimePareto(recs []model.DowntimeRecord, limit int) []CategoryStat {
	stats := GroupStats(recs, func(r model.DowntimeRecord) string {
		return orDefault(r.TPM, "Sin clasificar")
	}, minutes)
	byMinutesDesc(stats)
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	withCumulative(stats, func(s CategoryStat) float64 { return s.Minutes })
	for i := range stats {
		stats[i].Minutes = math.Round(stats[i].Minutes)
	}
	return stats
}

// DowntimeByMonth totals minutes per month abbreviation in calendar order.
func DowntimeByMonth(recs []model.DowntimeRecord) []CategoryStat {
	var dated []model.DowntimeRecord
	for _, r := range recs {
		if r.Fecha != "" {
			dated = append(dated, r)
		}
	}
	stats := GroupStats(dated, func(r model.DowntimeRecord) string {
		if n, err := strconv.Atoi(r.Month); err == nil && n >= 1 && n <= 12 {
			return model.MonthShortNames[n-1]
		}
		return r.Month
	}, minutes)
	sort.SliceStable(stats, func(i, j int) bool {
		return monthOrder(stats[i].Label) < monthOrder(stats[j].Label)
	})
	roundMinutes(stats)
	return stats
}

func monthOrder(label string) int {
	if i := model.MonthShortIndex(label); i > 0 {
		return i
	}
	return 13
}

// DowntimeByDay totals minutes per day of month in numeric order.
func DowntimeByDay(recs []model.DowntimeRecord) []CategoryStat {
	var dated []model.DowntimeRecord
	for _, r := range recs {
		if r.Day != "" {
			dated = append(dated, r)
		}
	}
	stats := GroupStats(dated, func(r model.DowntimeRecord) string { return r.Day }, minutes)
	sort.SliceStable(stats, func(i, j int) bool {
		a, _ := strconv.Atoi(stats[i].Label)
		b, _ := strconv.Atoi(stats[j].Label)
		return a < b
	})
	roundMinutes(stats)
	return stats
}

// DowntimeByDetention ranks stoppage causes of a day by minutes.
func DowntimeByDetention(recs []model.DowntimeRecord) []CategoryStat {
	stats := GroupStats(recs, func(r model.DowntimeRecord) string {
		return orDefault(r.Detention, "Sin clasificar")
	}, minutes)
	byMinutesDesc(stats)
	roundMinutes(stats)
	return stats
}

// DowntimePie returns the top ten "area - section" pairs by minutes, rounded
// to two decimals.
func DowntimePie(recs []model.DowntimeRecord) []CategoryStat {
	stats := GroupStats(recs, func(r model.DowntimeRecord) string {
		return orDefault(r.Area, "Sin área") + " - " + orDefault(r.Section, "Sin sección")
	}, minutes)
	for i := range stats {
		stats[i].Minutes = util.Round(stats[i].Minutes, 2)
	}
	byMinutesDesc(stats)
	if len(stats) > 10 {
		stats = stats[:10]
	}
	return stats
}

func roundMinutes(stats []CategoryStat) {
	for i := range stats {
		stats[i].Minutes = math.Round(stats[i].Minutes)
	}
}

// AreaDetail is the per-area breakdown shown when no narrower filter applies.
type AreaDetail struct {
	Area      string
	Section   string
	Average   float64
	Rows      []model.DowntimeRecord
	TotalRows int
}

const (
	maxAreas       = 5
	maxRowsPerArea = 100
)

// DowntimeByArea returns the detail of the selected area, or of the first
// five areas in alphabetical order, plus the number of distinct areas.
func DowntimeByArea(recs []model.DowntimeRecord, selected string) ([]AreaDetail, int) {
	byArea := make(map[string][]model.DowntimeRecord)
	var areas []string
	for _, r := range recs {
		if r.Area == "" {
			continue
		}
		if _, ok := byArea[r.Area]; !ok {
			areas = append(areas, r.Area)
		}
		byArea[r.Area] = append(byArea[r.Area], r)
	}
	sort.Strings(areas)

	shown := areas
	if selected != "" {
		shown = []string{selected}
	} else if len(shown) > maxAreas {
		shown = shown[:maxAreas]
	}

	out := make([]AreaDetail, 0, len(shown))
	for _, area := range shown {
		rows := byArea[area]
		d := AreaDetail{Area: area, Section: "no definida", TotalRows: len(rows)}
		if len(rows) > 0 && rows[0].Section != "" {
			d.Section = rows[0].Section
		}
		limited := rows
		if len(limited) > maxRowsPerArea {
			limited = limited[:maxRowsPerArea]
		}
		d.Rows = limited
		if len(limited) > 0 {
			d.Average = util.Round(TotalMinutes(limited)/float64(len(limited)), 2)
		}
		out = append(out, d)
	}
	return out, len(areas)
}

// RoomStat is the direct-contact percentage of one room.
type RoomStat struct {
	Room    string
	Sum     float64
	Count   int
	Average float64
}

// RoomAverages averages readings per room, highest average first.
func RoomAverages(readings []model.ContactReading) []RoomStat {
	stats := GroupStats(readings,
		func(r model.ContactReading) string { return r.Room },
		func(r model.ContactReading) float64 { return r.Value })

	out := make([]RoomStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, RoomStat{
			Room:    s.Label,
			Sum:     util.Round(s.Minutes, 2),
			Count:   s.Count,
			Average: util.Round(s.Minutes/float64(s.Count), 2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average > out[j].Average })
	return out
}

// CountPareto counts items per key, most frequent first, with the
// cumulative share of the count.
func CountPareto[T any](items []T, key func(T) string) []CategoryStat {
	stats := GroupStats(items, key, nil)
	byCountDesc(stats)
	return withCumulative(stats, func(s CategoryStat) float64 { return float64(s.Count) })
}
