package cache

import (
	"sync"
	"testing"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeCacheCoverage(t *testing.T) {
	c := NewTimeRangeCache()
	iv := model.Interval{Start: 100, End: 200}

	assert.False(t, c.IsCovered(model.SeriesPollo, iv))
	assert.Equal(t, []model.Interval{iv}, c.Missing(model.SeriesPollo, iv))

	c.Merge(model.SeriesPollo, iv)
	assert.True(t, c.IsCovered(model.SeriesPollo, iv))
	assert.False(t, c.IsCovered(model.SeriesPavo, iv), "series are independent")

	assert.Equal(t,
		[]model.Interval{{Start: 50, End: 99}, {Start: 201, End: 250}},
		c.Missing(model.SeriesPollo, model.Interval{Start: 50, End: 250}))
}

func TestTimeRangeCacheInvalidIntervalIsNoop(t *testing.T) {
	c := NewTimeRangeCache()
	c.Merge(model.SeriesPollo, model.Interval{Start: 10, End: 1})
	assert.Empty(t, c.Ranges(model.SeriesPollo))
	assert.Nil(t, c.Missing(model.SeriesPollo, model.Interval{Start: 10, End: 1}))
}

func TestTimeRangeCachePutKeepsLastWriteAndOrders(t *testing.T) {
	c := NewTimeRangeCache()
	c.Put(model.SeriesPavo, []model.TimePoint{
		{Timestamp: 300, Value: 3},
		{Timestamp: 100, Value: 1},
		{Timestamp: 200, Value: 2},
	})
	c.Put(model.SeriesPavo, []model.TimePoint{{Timestamp: 200, Value: 20}})

	got := c.Get(model.SeriesPavo)
	require.Len(t, got, 3)
	assert.Equal(t, []model.TimePoint{
		{Timestamp: 100, Value: 1},
		{Timestamp: 200, Value: 20},
		{Timestamp: 300, Value: 3},
	}, got)

	assert.Equal(t, []model.TimePoint{{Timestamp: 200, Value: 20}},
		c.Points(model.SeriesPavo, model.Interval{Start: 150, End: 250}))
	assert.Empty(t, c.Get(model.SeriesPollo))
}

func TestTimeRangeCacheCommitEmptyStillMarksLoaded(t *testing.T) {
	c := NewTimeRangeCache()
	iv := model.Interval{Start: 0, End: 1000}
	c.Commit(model.SeriesPollo, nil, iv)

	assert.True(t, c.IsCovered(model.SeriesPollo, iv))
	assert.Empty(t, c.Get(model.SeriesPollo))
}

func TestTimeRangeCacheRestoreAndDirty(t *testing.T) {
	c := NewTimeRangeCache()
	c.Restore(model.SeriesPollo,
		[]model.TimePoint{{Timestamp: 5, Value: 1}, {Timestamp: 9, Value: 4}},
		[]model.Interval{{Start: 0, End: 10}})

	assert.Empty(t, c.DirtySeries(), "restored data is already persisted")
	stats := c.Stats(model.SeriesPollo)
	assert.Equal(t, Stats{Points: 2, Ranges: 1, First: 5, Last: 9}, stats)

	c.Merge(model.SeriesPavo, model.Interval{Start: 0, End: 1})
	c.Put(model.SeriesPollo, []model.TimePoint{{Timestamp: 11, Value: 5}})
	assert.Equal(t, []model.SeriesID{model.SeriesPavo, model.SeriesPollo}, c.DirtySeries())
	assert.Empty(t, c.DirtySeries())

	c.Clear()
	assert.Equal(t, Stats{}, c.Stats(model.SeriesPollo))
}

func TestTimeRangeCacheConcurrentAccess(t *testing.T) {
	c := NewTimeRangeCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := int64(i * 1000)
			c.Commit(model.SeriesPollo, []model.TimePoint{{Timestamp: ts, Value: float64(i)}},
				model.Interval{Start: ts, End: ts + 999})
			_ = c.IsCovered(model.SeriesPollo, model.Interval{Start: ts, End: ts + 10})
			_ = c.Get(model.SeriesPollo)
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Get(model.SeriesPollo), 50)
	assert.True(t, c.IsCovered(model.SeriesPollo, model.Interval{Start: 0, End: 49999}))
}
