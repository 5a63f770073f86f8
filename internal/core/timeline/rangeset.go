// Package timeline tracks which time ranges of a series have been fetched.
package timeline

import (
	"sort"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// RangeSet is the sorted list of loaded intervals of one series. Intervals
// separated by at most model.MergeGap milliseconds are kept coalesced.
// A RangeSet is not safe for concurrent use.
type RangeSet struct {
	ranges []model.Interval
}

// NewRangeSet builds a set from previously stored intervals.
func NewRangeSet(ranges ...model.Interval) *RangeSet {
	rs := &RangeSet{}
	for _, r := range ranges {
		rs.Add(r)
	}
	return rs
}

// Add records iv as loaded. Invalid intervals are ignored.
func (rs *RangeSet) Add(iv model.Interval) {
	if !iv.Valid() {
		return
	}
	rs.ranges = append(rs.ranges, iv)
	sort.Slice(rs.ranges, func(i, j int) bool {
		return rs.ranges[i].Start < rs.ranges[j].Start
	})

	merged := rs.ranges[:1]
	for _, r := range rs.ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+model.MergeGap {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	rs.ranges = merged
}

// Covers reports whether a single stored range contains iv.
func (rs *RangeSet) Covers(iv model.Interval) bool {
	if !iv.Valid() {
		return false
	}
	for _, r := range rs.ranges {
		if r.Contains(iv) {
			return true
		}
	}
	return false
}

// Missing returns the parts of iv not covered by the set, in order.
// Fragments shorter than two milliseconds are dropped.
func (rs *RangeSet) Missing(iv model.Interval) []model.Interval {
	if !iv.Valid() {
		return nil
	}
	if len(rs.ranges) == 0 {
		return []model.Interval{iv}
	}

	var out []model.Interval
	cur := iv.Start
	for _, r := range rs.ranges {
		if cur < r.Start && cur < iv.End {
			out = append(out, model.Interval{Start: cur, End: min(r.Start-1, iv.End)})
		}
		cur = max(cur, r.End+1)
	}
	if cur < iv.End {
		out = append(out, model.Interval{Start: cur, End: iv.End})
	}

	filtered := out[:0]
	for _, m := range out {
		if m.Start < m.End {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Ranges returns a copy of the stored intervals.
func (rs *RangeSet) Ranges() []model.Interval {
	out := make([]model.Interval, len(rs.ranges))
	copy(out, rs.ranges)
	return out
}

// Len returns the number of disjoint stored intervals.
func (rs *RangeSet) Len() int {
	return len(rs.ranges)
}
