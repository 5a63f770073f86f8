package timeline

import (
	"testing"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
)

const day = model.MergeGap

func iv(s, e int64) model.Interval { return model.Interval{Start: s, End: e} }

func TestRangeSetAdd(t *testing.T) {
	tests := []struct {
		name string
		add  []model.Interval
		want []model.Interval
	}{
		{
			name: "single",
			add:  []model.Interval{iv(100, 200)},
			want: []model.Interval{iv(100, 200)},
		},
		{
			name: "overlapping merge",
			add:  []model.Interval{iv(100, 200), iv(150, 300)},
			want: []model.Interval{iv(100, 300)},
		},
		{
			name: "gap of exactly one day coalesces",
			add:  []model.Interval{iv(0, 1000), iv(1000+day, 1000+day+10)},
			want: []model.Interval{iv(0, 1000+day+10)},
		},
		{
			name: "gap beyond one day stays separate",
			add:  []model.Interval{iv(0, 1000), iv(1001+day, 2000+day)},
			want: []model.Interval{iv(0, 1000), iv(1001+day, 2000+day)},
		},
		{
			name: "out of order insert",
			add:  []model.Interval{iv(10*day, 11*day), iv(0, 100)},
			want: []model.Interval{iv(0, 100), iv(10*day, 11*day)},
		},
		{
			name: "contained interval keeps outer end",
			add:  []model.Interval{iv(0, 1000), iv(10, 20)},
			want: []model.Interval{iv(0, 1000)},
		},
		{
			name: "invalid interval ignored",
			add:  []model.Interval{iv(100, 200), iv(500, 400)},
			want: []model.Interval{iv(100, 200)},
		},
		{
			name: "idempotent",
			add:  []model.Interval{iv(100, 200), iv(100, 200)},
			want: []model.Interval{iv(100, 200)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRangeSet(tt.add...)
			assert.Equal(t, tt.want, rs.Ranges())
		})
	}
}

func TestRangeSetCovers(t *testing.T) {
	rs := NewRangeSet(iv(100, 200), iv(300+day, 400+day))

	assert.True(t, rs.Covers(iv(100, 200)))
	assert.True(t, rs.Covers(iv(120, 180)))
	assert.False(t, rs.Covers(iv(50, 150)))
	// Spanning two disjoint ranges is not covered even if the gap were loaded.
	assert.False(t, rs.Covers(iv(150, 350+day)))
	assert.False(t, rs.Covers(iv(200, 100)))
	assert.False(t, NewRangeSet().Covers(iv(1, 2)))
}

func TestRangeSetMissing(t *testing.T) {
	tests := []struct {
		name   string
		ranges []model.Interval
		query  model.Interval
		want   []model.Interval
	}{
		{
			name:  "empty set returns query",
			query: iv(50, 250),
			want:  []model.Interval{iv(50, 250)},
		},
		{
			name:   "both sides",
			ranges: []model.Interval{iv(100, 200)},
			query:  iv(50, 250),
			want:   []model.Interval{iv(50, 99), iv(201, 250)},
		},
		{
			name:   "fully covered",
			ranges: []model.Interval{iv(0, 1000)},
			query:  iv(10, 20),
			want:   []model.Interval{},
		},
		{
			name:   "between two ranges",
			ranges: []model.Interval{iv(0, 100), iv(200+day, 300+day)},
			query:  iv(50, 250+day),
			want:   []model.Interval{iv(101, 199+day)},
		},
		{
			name:   "query before all ranges",
			ranges: []model.Interval{iv(1000, 2000)},
			query:  iv(10, 20),
			want:   []model.Interval{iv(10, 20)},
		},
		{
			name:   "single millisecond fragment dropped",
			ranges: []model.Interval{iv(100, 200)},
			query:  iv(99, 200),
			want:   []model.Interval{},
		},
		{
			name:  "invalid query",
			query: iv(10, 5),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRangeSet(tt.ranges...)
			got := rs.Missing(tt.query)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeSetMissingThenAddCovers(t *testing.T) {
	rs := NewRangeSet(iv(100, 200))
	q := iv(50, 250)
	for _, m := range rs.Missing(q) {
		rs.Add(m)
	}
	rs.Add(q)
	assert.True(t, rs.Covers(q))
	assert.Equal(t, 1, rs.Len())
}
