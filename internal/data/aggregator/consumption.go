// Package aggregator turns cumulative readings and event records into the
// labeled series shown by the dashboards.
package aggregator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// Granularity selects how readings are bucketed.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
	Monthly
	// WorkWeekly groups Tuesday to Friday readings under the Tuesday that
	// starts their week; other weekdays are discarded.
	WorkWeekly
)

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hour"
	case Daily:
		return "day"
	case Monthly:
		return "month"
	case WorkWeekly:
		return "week"
	default:
		return "unknown"
	}
}

// workDays are the weekdays retained for weekly figures.
var workDays = map[time.Weekday]bool{
	time.Tuesday:   true,
	time.Wednesday: true,
	time.Thursday:  true,
	time.Friday:    true,
}

// IsWorkDay reports whether t falls on Tuesday through Friday.
func IsWorkDay(t time.Time) bool {
	return workDays[t.Weekday()]
}

// Key returns the bucket label of t, or false when t is excluded.
func (g Granularity) Key(t time.Time) (string, bool) {
	switch g {
	case Hourly:
		return fmt.Sprintf("%02d:00", t.Hour()), true
	case Daily:
		return fmt.Sprintf("%02d-%02d-%d", t.Day(), int(t.Month()), t.Year()), true
	case Monthly:
		return fmt.Sprintf("%02d-%d", int(t.Month()), t.Year()), true
	case WorkWeekly:
		if !IsWorkDay(t) {
			return "", false
		}
		tuesday := t.AddDate(0, 0, -int(t.Weekday()-time.Tuesday))
		return fmt.Sprintf("Semana %02d/%02d", tuesday.Day(), int(tuesday.Month())), true
	default:
		return "", false
	}
}

// sortKey orders labels chronologically by parsing them back.
func (g Granularity) sortKey(label string) []int {
	switch g {
	case Hourly:
		h, _ := strconv.Atoi(strings.TrimSuffix(label, ":00"))
		return []int{h}
	case Daily:
		p := atoiAll(strings.Split(label, "-"))
		if len(p) == 3 {
			return []int{p[2], p[1], p[0]}
		}
	case Monthly:
		p := atoiAll(strings.Split(label, "-"))
		if len(p) == 2 {
			return []int{p[1], p[0]}
		}
	case WorkWeekly:
		p := atoiAll(strings.Split(strings.TrimPrefix(label, "Semana "), "/"))
		if len(p) == 2 {
			return []int{p[1], p[0]}
		}
	}
	return nil
}

func atoiAll(parts []string) []int {
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i], _ = strconv.Atoi(p)
	}
	return out
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// consumption returns max(0, last-first) of points sorted by timestamp.
func consumption(points []model.TimePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return max(0, points[len(points)-1].Value-points[0].Value)
}

func bucketize(points []model.TimePoint, g Granularity, loc *time.Location) map[string][]model.TimePoint {
	buckets := make(map[string][]model.TimePoint)
	for _, p := range points {
		key, ok := g.Key(time.UnixMilli(p.Timestamp).In(loc))
		if !ok {
			continue
		}
		buckets[key] = append(buckets[key], p)
	}
	return buckets
}

// Aggregate groups points by g and returns per-bucket consumption in
// chronological label order. Buckets without points are omitted.
func Aggregate(points []model.TimePoint, g Granularity, loc *time.Location) []model.LabeledValue {
	buckets := bucketize(points, g, loc)

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return lessInts(g.sortKey(labels[i]), g.sortKey(labels[j]))
	})

	out := make([]model.LabeledValue, 0, len(labels))
	for _, label := range labels {
		out = append(out, model.LabeledValue{Label: label, Value: consumption(buckets[label])})
	}
	return out
}

// AggregateFixed returns one value per label, in the given order, with zero
// for labels that received no points.
func AggregateFixed(points []model.TimePoint, g Granularity, loc *time.Location, labels []string) []model.LabeledValue {
	buckets := bucketize(points, g, loc)
	out := make([]model.LabeledValue, 0, len(labels))
	for _, label := range labels {
		out = append(out, model.LabeledValue{Label: label, Value: consumption(buckets[label])})
	}
	return out
}

// NightHours are the hours plotted on the nocturnal chart, in display order.
var NightHours = []int{21, 22, 23, 0, 1, 2, 3, 4, 5}

// NightLabels returns the hourly labels of NightHours.
func NightLabels() []string {
	labels := make([]string, len(NightHours))
	for i, h := range NightHours {
		labels[i] = fmt.Sprintf("%02d:00", h)
	}
	return labels
}

// Total is the consumption across the whole set of points.
func Total(points []model.TimePoint) float64 {
	cp := make([]model.TimePoint, len(points))
	copy(cp, points)
	return consumption(cp)
}

// Projection extrapolates a daily total to a week and a 30-day month.
func Projection(total float64) []model.LabeledValue {
	return []model.LabeledValue{
		{Label: "Diario", Value: total},
		{Label: "Semanal", Value: total * 7},
		{Label: "Mensual", Value: total * 30},
	}
}

// WorkDaysOnly keeps the points that fall on Tuesday through Friday.
func WorkDaysOnly(points []model.TimePoint, loc *time.Location) []model.TimePoint {
	out := make([]model.TimePoint, 0, len(points))
	for _, p := range points {
		if IsWorkDay(time.UnixMilli(p.Timestamp).In(loc)) {
			out = append(out, p)
		}
	}
	return out
}

// UnionLabels merges the labels of several series, keeping g's order.
func UnionLabels(g Granularity, series ...[]model.LabeledValue) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range series {
		for _, lv := range s {
			if !seen[lv.Label] {
				seen[lv.Label] = true
				labels = append(labels, lv.Label)
			}
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		return lessInts(g.sortKey(labels[i]), g.sortKey(labels[j]))
	})
	return labels
}

// Align returns the values of s for each label, zero when absent.
func Align(s []model.LabeledValue, labels []string) []model.LabeledValue {
	index := make(map[string]float64, len(s))
	for _, lv := range s {
		index[lv.Label] = lv.Value
	}
	out := make([]model.LabeledValue, len(labels))
	for i, l := range labels {
		out[i] = model.LabeledValue{Label: l, Value: index[l]}
	}
	return out
}

// Sum adds the values of a series.
func Sum(s []model.LabeledValue) float64 {
	total := 0.0
	for _, lv := range s {
		total += lv.Value
	}
	return total
}
