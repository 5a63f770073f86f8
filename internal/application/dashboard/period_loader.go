package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// PeriodKey identifies one month of downtime data, e.g. "2025-Mar".
func PeriodKey(year int, month string) string {
	return fmt.Sprintf("%d-%s", year, month)
}

// PeriodLoader loads downtime months, keeping each in memory and in the
// snapshot store. Concurrent loads of the same month share one request.
// Only closed months go through the snapshot store; the current month is
// still gaining records and is always fetched.
type PeriodLoader struct {
	source DowntimeSource
	store  SnapshotStore
	tp     *util.TimeProvider
	group  singleflight.Group

	mu     sync.RWMutex
	memory map[string][]model.DowntimeRecord
}

// NewPeriodLoader creates a loader. store may be nil; a nil tp uses the
// global time provider.
func NewPeriodLoader(source DowntimeSource, store SnapshotStore, tp *util.TimeProvider) *PeriodLoader {
	if tp == nil {
		tp = util.GetTimeProvider()
	}
	return &PeriodLoader{
		source: source,
		store:  store,
		tp:     tp,
		memory: make(map[string][]model.DowntimeRecord),
	}
}

// Load returns the records of one month. Failures yield no records and are
// not remembered, so the next call retries.
func (l *PeriodLoader) Load(ctx context.Context, year int, month string) []model.DowntimeRecord {
	key := PeriodKey(year, month)

	l.mu.RLock()
	recs, ok := l.memory[key]
	l.mu.RUnlock()
	if ok {
		return recs
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		return l.loadPeriod(ctx, key, year, month)
	})
	if err != nil {
		util.LoggerFor(ctx).Warnf("PeriodLoader: %s failed: %v", key, err)
		return []model.DowntimeRecord{}
	}
	if shared {
		util.LoggerFor(ctx).Debugf("PeriodLoader: %s shared an in-flight request", key)
	}
	return v.([]model.DowntimeRecord)
}

func (l *PeriodLoader) loadPeriod(ctx context.Context, key string, year int, month string) ([]model.DowntimeRecord, error) {
	log := util.LoggerFor(ctx)
	useStore := l.store != nil && l.closed(year, month)

	if useStore {
		var snap []model.DowntimeRecord
		if err := l.store.Load(ctx, key, &snap); err == nil {
			snap = parser.NormalizeDowntimeAll(snap)
			l.remember(key, snap)
			log.Debugf("PeriodLoader: %s restored %d records from snapshot", key, len(snap))
			return snap, nil
		}
	}

	recs, err := l.source.FetchDowntime(ctx, fmt.Sprint(year), month)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.DowntimeRecord{}
	}
	l.remember(key, recs)

	if useStore {
		if err := l.store.Save(ctx, key, recs); err != nil {
			log.Warnf("PeriodLoader: failed to save snapshot %s: %v", key, err)
		}
	}
	log.Infof("PeriodLoader: %s loaded %d records", key, len(recs))
	return recs, nil
}

// closed reports whether the month ended before now. Unknown month names
// count as open.
func (l *PeriodLoader) closed(year int, month string) bool {
	m := model.MonthShortIndex(month)
	if m == 0 {
		m, _ = strconv.Atoi(month)
	}
	if m < 1 || m > 12 {
		return false
	}
	_, end := l.tp.MonthBounds(year, time.Month(m))
	return end.Before(l.tp.Now())
}

func (l *PeriodLoader) remember(key string, recs []model.DowntimeRecord) {
	l.mu.Lock()
	l.memory[key] = recs
	l.mu.Unlock()
}

// LoadMonths loads several months concurrently and concatenates them in
// the order given.
func (l *PeriodLoader) LoadMonths(ctx context.Context, year int, months []string) []model.DowntimeRecord {
	results := make([][]model.DowntimeRecord, len(months))
	var g errgroup.Group
	for i, m := range months {
		g.Go(func() error {
			results[i] = l.Load(ctx, year, m)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.DowntimeRecord
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// Preload warms one month in the background.
func (l *PeriodLoader) Preload(ctx context.Context, year int, month string) {
	go func() {
		recs := l.Load(ctx, year, month)
		util.LoggerFor(ctx).Debugf("PeriodLoader: preloaded %s (%d records)", PeriodKey(year, month), len(recs))
	}()
}

// Loaded reports whether a month is in memory.
func (l *PeriodLoader) Loaded(year int, month string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.memory[PeriodKey(year, month)]
	return ok
}

// Reset forgets every month held in memory.
func (l *PeriodLoader) Reset() {
	l.mu.Lock()
	l.memory = make(map[string][]model.DowntimeRecord)
	l.mu.Unlock()
}
