package dashboard

import (
	"context"

	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// waterSnapshot is the persisted form of one cached series.
type waterSnapshot struct {
	Points []model.TimePoint `json:"points"`
	Ranges []model.Interval  `json:"ranges"`
}

// WaterSnapshotKey is the store key of a series.
func WaterSnapshotKey(id model.SeriesID) string {
	return "water-" + string(id)
}

// RestoreWater seeds c from the store. Missing or stale snapshots are
// skipped; it returns the number of series restored.
func RestoreWater(ctx context.Context, store SnapshotStore, c *cache.TimeRangeCache, series []model.Series) int {
	if store == nil {
		return 0
	}
	restored := 0
	for _, s := range series {
		var snap waterSnapshot
		if err := store.Load(ctx, WaterSnapshotKey(s.ID), &snap); err != nil {
			util.LoggerFor(ctx).Debugf("RestoreWater: no snapshot for %s: %v", s.ID, err)
			continue
		}
		c.Restore(s.ID, snap.Points, snap.Ranges)
		restored++
	}
	return restored
}

// PersistWater saves every series changed since the last call.
func PersistWater(ctx context.Context, store SnapshotStore, c *cache.TimeRangeCache) error {
	if store == nil {
		return nil
	}
	for _, id := range c.DirtySeries() {
		snap := waterSnapshot{Points: c.Get(id), Ranges: c.Ranges(id)}
		if err := store.Save(ctx, WaterSnapshotKey(id), snap); err != nil {
			return err
		}
		util.LoggerFor(ctx).Debugf("PersistWater: saved %s (%d points)", id, len(snap.Points))
	}
	return nil
}
