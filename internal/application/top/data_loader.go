package top

import (
	"context"
	"fmt"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// DataLoader owns the water cache, its gap-filling loader and the snapshot
// store that warms it across runs.
type DataLoader struct {
	cache  *cache.TimeRangeCache
	loader *dashboard.GapFillingLoader
	store  dashboard.SnapshotStore
	series []model.Series
}

// NewDataLoader wires a fresh cache to source. store may be nil.
func NewDataLoader(cfg *dashboard.Config, source dashboard.WaterSource, store dashboard.SnapshotStore, tp *util.TimeProvider) (*DataLoader, error) {
	if source == nil {
		return nil, fmt.Errorf("water source is required")
	}
	c := cache.NewTimeRangeCache()
	return &DataLoader{
		cache:  c,
		loader: dashboard.NewGapFillingLoader(c, source, cfg, tp),
		store:  store,
		series: model.WaterSeries,
	}, nil
}

// Loader returns the gap-filling loader pages should use.
func (d *DataLoader) Loader() *dashboard.GapFillingLoader {
	return d.loader
}

// Restore seeds the cache from stored snapshots.
func (d *DataLoader) Restore(ctx context.Context) int {
	n := dashboard.RestoreWater(ctx, d.store, d.cache, d.series)
	if n > 0 {
		util.LoggerFor(ctx).Infof("Restored %d water series from snapshots", n)
	}
	return n
}

// PersistDirtyEntries saves the series changed since the last call.
func (d *DataLoader) PersistDirtyEntries(ctx context.Context) error {
	return dashboard.PersistWater(ctx, d.store, d.cache)
}

// Clear forgets every cached reading so the next build refetches.
func (d *DataLoader) Clear() {
	d.cache.Clear()
}

// Stats reports the cache state of every series.
func (d *DataLoader) Stats() map[model.SeriesID]cache.Stats {
	out := make(map[model.SeriesID]cache.Stats, len(d.series))
	for _, s := range d.series {
		out[s.ID] = d.cache.Stats(s.ID)
	}
	return out
}
