package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// LoadReport describes one EnsureLoaded call. Err collects the fetch
// failures; they are logged, never returned.
type LoadReport struct {
	Series    model.SeriesID
	Requested model.Interval
	Cached    bool
	Fetched   []model.Interval
	Awaited   int
	Points    int
	Err       error
}

// flight is a sub-interval being fetched by some caller.
type flight struct {
	iv   model.Interval
	done chan struct{}
}

// GapFillingLoader makes the cache cover requested intervals by fetching
// only the missing pieces. Pieces already being fetched by another caller
// are awaited instead of fetched twice.
//
// Requests are clipped to the current time: readings that do not exist yet
// are never recorded as loaded, so later calls fetch them once they appear.
// The per-request deadline belongs to the source; the loader only bounds
// concurrency.
type GapFillingLoader struct {
	cache         *cache.TimeRangeCache
	source        WaterSource
	sensor        string
	maxConcurrent int
	tp            *util.TimeProvider

	mu       sync.Mutex
	inflight map[model.SeriesID][]*flight
}

// NewGapFillingLoader creates a loader over c. A nil tp uses the global
// time provider.
func NewGapFillingLoader(c *cache.TimeRangeCache, source WaterSource, cfg *Config, tp *util.TimeProvider) *GapFillingLoader {
	if tp == nil {
		tp = util.GetTimeProvider()
	}
	return &GapFillingLoader{
		cache:         c,
		source:        source,
		sensor:        cfg.Sensor,
		maxConcurrent: cfg.MaxConcurrent,
		tp:            tp,
		inflight:      make(map[model.SeriesID][]*flight),
	}
}

// Cache returns the underlying cache.
func (l *GapFillingLoader) Cache() *cache.TimeRangeCache {
	return l.cache
}

// EnsureLoaded fetches whatever part of iv the cache lacks. After it
// returns, iv is recorded as loaded up to the current time even if every
// fetch failed.
func (l *GapFillingLoader) EnsureLoaded(ctx context.Context, id model.SeriesID, iv model.Interval) LoadReport {
	iv = l.clip(iv)
	report := LoadReport{Series: id, Requested: iv}
	if !iv.Valid() {
		return report
	}
	if l.cache.IsCovered(id, iv) {
		report.Cached = true
		return report
	}

	missing := l.cache.Missing(id, iv)
	toFetch, waits, release := l.claim(id, missing)
	defer release()
	report.Fetched = toFetch
	report.Awaited = len(waits)

	log := util.LoggerFor(ctx)
	log.Debugf("GapFillingLoader: %s needs %d pieces, fetching %d, awaiting %d", id, len(missing), len(toFetch), len(waits))

	var (
		mu     sync.Mutex
		points []model.TimePoint
		errs   *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	if l.maxConcurrent > 0 {
		g.SetLimit(l.maxConcurrent)
	}
	for _, piece := range toFetch {
		g.Go(func() error {
			pts, err := l.fetch(gctx, id, piece)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s [%d,%d]: %w", id, piece.Start, piece.End, err))
				return nil
			}
			points = append(points, pts...)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range waits {
		select {
		case <-f.done:
		case <-ctx.Done():
		}
	}

	l.cache.Commit(id, points, iv)
	report.Points = len(points)
	if err := errs.ErrorOrNil(); err != nil {
		report.Err = err
		log.Warnf("GapFillingLoader: %d of %d fetches failed for %s: %v", len(errs.Errors), len(toFetch), id, err)
	}
	return report
}

// LoadAll runs EnsureLoaded for every series concurrently.
func (l *GapFillingLoader) LoadAll(ctx context.Context, series []model.Series, iv model.Interval) []LoadReport {
	reports := make([]LoadReport, len(series))
	var g errgroup.Group
	for i, s := range series {
		g.Go(func() error {
			reports[i] = l.EnsureLoaded(ctx, s.ID, iv)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// clip ends iv at the current time. An interval that starts in the future
// comes back invalid.
func (l *GapFillingLoader) clip(iv model.Interval) model.Interval {
	if now := l.tp.Now().UnixMilli(); iv.End > now {
		iv.End = now
	}
	return iv
}

func (l *GapFillingLoader) fetch(ctx context.Context, id model.SeriesID, piece model.Interval) ([]model.TimePoint, error) {
	raw, err := l.source.FetchWater(ctx, id, l.sensor, piece)
	if err != nil {
		return nil, err
	}
	return parser.ParseReadings(raw), nil
}

// claim registers the pieces nobody is fetching yet and returns the
// flights of other callers overlapping the rest. release must be called
// once the results are committed.
func (l *GapFillingLoader) claim(id model.SeriesID, missing []model.Interval) ([]model.Interval, []*flight, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	busy := l.inflight[id]
	var (
		toFetch []model.Interval
		waits   []*flight
		mine    []*flight
	)
	waiting := make(map[*flight]bool)
	for _, piece := range missing {
		var overlapping []model.Interval
		for _, f := range busy {
			if f.iv.Overlaps(piece) {
				overlapping = append(overlapping, f.iv)
				if !waiting[f] {
					waiting[f] = true
					waits = append(waits, f)
				}
			}
		}
		for _, rest := range subtract(piece, overlapping) {
			toFetch = append(toFetch, rest)
			mine = append(mine, &flight{iv: rest, done: make(chan struct{})})
		}
	}
	l.inflight[id] = append(l.inflight[id], mine...)

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		remaining := l.inflight[id][:0]
		for _, f := range l.inflight[id] {
			if !contains(mine, f) {
				remaining = append(remaining, f)
			}
		}
		if len(remaining) == 0 {
			delete(l.inflight, id)
		} else {
			l.inflight[id] = remaining
		}
		for _, f := range mine {
			close(f.done)
		}
	}
	return toFetch, waits, release
}

// InFlight returns the number of pieces currently being fetched for id.
func (l *GapFillingLoader) InFlight(id model.SeriesID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight[id])
}

func contains(list []*flight, f *flight) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

// subtract removes busy intervals from piece exactly, without the merge gap
// the cache applies.
func subtract(piece model.Interval, busy []model.Interval) []model.Interval {
	if len(busy) == 0 {
		return []model.Interval{piece}
	}
	sorted := make([]model.Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []model.Interval
	cursor := piece.Start
	for _, b := range sorted {
		if b.End < cursor {
			continue
		}
		if b.Start > piece.End {
			break
		}
		if b.Start > cursor {
			out = append(out, model.Interval{Start: cursor, End: b.Start - 1})
		}
		if b.End >= piece.End {
			return out
		}
		cursor = b.End + 1
	}
	if cursor <= piece.End {
		out = append(out, model.Interval{Start: cursor, End: piece.End})
	}
	return out
}
