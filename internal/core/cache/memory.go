// Package cache holds the in-memory time-range cache of totalizer readings.
package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/core/timeline"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

type seriesEntry struct {
	points       map[int64]float64
	ranges       *timeline.RangeSet
	lastAccessed int64
	isDirty      bool
}

func newSeriesEntry() *seriesEntry {
	return &seriesEntry{
		points: make(map[int64]float64),
		ranges: timeline.NewRangeSet(),
	}
}

// TimeRangeCache stores, per series, the readings fetched so far and the set
// of intervals already requested from the API. An interval is recorded as
// loaded even when the API returned no readings for it.
type TimeRangeCache struct {
	mu     sync.RWMutex
	series map[model.SeriesID]*seriesEntry
}

func NewTimeRangeCache() *TimeRangeCache {
	return &TimeRangeCache{
		series: make(map[model.SeriesID]*seriesEntry),
	}
}

// entry returns the entry for id, creating it. Callers hold the write lock.
func (c *TimeRangeCache) entry(id model.SeriesID) *seriesEntry {
	e, ok := c.series[id]
	if !ok {
		e = newSeriesEntry()
		c.series[id] = e
	}
	return e
}

// IsCovered reports whether one stored range of the series contains iv.
func (c *TimeRangeCache) IsCovered(id model.SeriesID, iv model.Interval) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.series[id]
	if !ok {
		return false
	}
	return e.ranges.Covers(iv)
}

// Missing returns the sub-intervals of iv that have not been loaded.
func (c *TimeRangeCache) Missing(id model.SeriesID, iv model.Interval) []model.Interval {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.series[id]
	if !ok {
		if !iv.Valid() {
			return nil
		}
		return []model.Interval{iv}
	}
	return e.ranges.Missing(iv)
}

// Merge records iv as loaded.
func (c *TimeRangeCache) Merge(id model.SeriesID, iv model.Interval) {
	if !iv.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(id)
	e.ranges.Add(iv)
	e.isDirty = true
}

// Put upserts readings by timestamp; a repeated timestamp keeps the last value.
func (c *TimeRangeCache) Put(id model.SeriesID, points []model.TimePoint) {
	if len(points) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(id)
	for _, p := range points {
		e.points[p.Timestamp] = p.Value
	}
	e.isDirty = true
}

// Commit stores points and marks iv as loaded in one step, so readers never
// observe a range flagged as loaded without its readings.
func (c *TimeRangeCache) Commit(id model.SeriesID, points []model.TimePoint, iv model.Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(id)
	for _, p := range points {
		e.points[p.Timestamp] = p.Value
	}
	if iv.Valid() {
		e.ranges.Add(iv)
	}
	e.isDirty = true
	util.LogDebugf("TimeRangeCache: %s committed %d points, %d ranges", id, len(points), e.ranges.Len())
}

// Get returns every cached reading of the series ordered by timestamp.
func (c *TimeRangeCache) Get(id model.SeriesID) []model.TimePoint {
	return c.Points(id, model.Interval{Start: minInt64, End: maxInt64})
}

const (
	minInt64 = -1 << 63
	maxInt64 = 1<<63 - 1
)

// Points returns the readings inside iv ordered by timestamp.
func (c *TimeRangeCache) Points(id model.SeriesID, iv model.Interval) []model.TimePoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.series[id]
	if !ok {
		return []model.TimePoint{}
	}
	e.lastAccessed = time.Now().Unix()

	out := make([]model.TimePoint, 0, len(e.points))
	for ts, v := range e.points {
		if ts >= iv.Start && ts <= iv.End {
			out = append(out, model.TimePoint{Timestamp: ts, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Ranges returns a copy of the loaded intervals of the series.
func (c *TimeRangeCache) Ranges(id model.SeriesID) []model.Interval {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.series[id]
	if !ok {
		return []model.Interval{}
	}
	return e.ranges.Ranges()
}

// Restore seeds a series from a persisted snapshot.
func (c *TimeRangeCache) Restore(id model.SeriesID, points []model.TimePoint, ranges []model.Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := newSeriesEntry()
	for _, p := range points {
		e.points[p.Timestamp] = p.Value
	}
	for _, r := range ranges {
		e.ranges.Add(r)
	}
	c.series[id] = e
	util.LogInfo(fmt.Sprintf("TimeRangeCache: restored %s with %d points and %d ranges", id, len(points), e.ranges.Len()))
}

// DirtySeries returns the series changed since the last call and resets
// their dirty flag.
func (c *TimeRangeCache) DirtySeries() []model.SeriesID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []model.SeriesID
	for id, e := range c.series {
		if e.isDirty {
			ids = append(ids, id)
			e.isDirty = false
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clear drops every series.
func (c *TimeRangeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = make(map[model.SeriesID]*seriesEntry)
	util.LogInfo("TimeRangeCache: cleared")
}

// Stats summarises one series.
type Stats struct {
	Points int
	Ranges int
	First  int64
	Last   int64
}

// Stats returns point and range counts for a series.
func (c *TimeRangeCache) Stats(id model.SeriesID) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.series[id]
	if !ok {
		return Stats{}
	}
	s := Stats{Points: len(e.points), Ranges: e.ranges.Len()}
	first := true
	for ts := range e.points {
		if first || ts < s.First {
			s.First = ts
		}
		if first || ts > s.Last {
			s.Last = ts
		}
		first = false
	}
	return s
}
