package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	minuteMs = int64(60_000)
	hourMs   = 60 * minuteMs
	dayMs    = 24 * hourMs
)

var errFake = errors.New("connection refused")

// fakeWater serves synthetic totalizer readings, one every step, whose
// value grows by one per hour. When until is set, no reading after it
// exists yet.
type fakeWater struct {
	mu    sync.Mutex
	calls map[model.SeriesID][]model.Interval
	fail  bool
	gate  chan struct{}
	step  int64
	until int64
	scale map[model.SeriesID]float64
}

func newFakeWater() *fakeWater {
	return &fakeWater{calls: make(map[model.SeriesID][]model.Interval), step: 15 * minuteMs}
}

func (f *fakeWater) FetchWater(ctx context.Context, id model.SeriesID, _ string, iv model.Interval) ([]model.RawReading, error) {
	f.mu.Lock()
	f.calls[id] = append(f.calls[id], iv)
	gate, fail, step, until := f.gate, f.fail, f.step, f.until
	scale := 1.0
	if s, ok := f.scale[id]; ok {
		scale = s
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errFake
	}
	last := iv.End
	if until > 0 && until < last {
		last = until
	}
	var out []model.RawReading
	first := (iv.Start + step - 1) / step * step
	for ts := first; ts <= last; ts += step {
		out = append(out, model.RawReading{
			Timestamp:   float64(ts),
			Totalizador: scale * float64(ts) / float64(hourMs),
		})
	}
	return out, nil
}

func (f *fakeWater) Calls(id model.SeriesID) []model.Interval {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Interval, len(f.calls[id]))
	copy(out, f.calls[id])
	return out
}

func (f *fakeWater) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

// fakeDowntime serves records per month abbreviation.
type fakeDowntime struct {
	mu      sync.Mutex
	byMonth map[string][]model.DowntimeRecord
	calls   map[string]int
	fail    bool
	delay   time.Duration
}

func newFakeDowntime(byMonth map[string][]model.DowntimeRecord) *fakeDowntime {
	return &fakeDowntime{byMonth: byMonth, calls: make(map[string]int)}
}

func (f *fakeDowntime) FetchDowntime(_ context.Context, year, month string) ([]model.DowntimeRecord, error) {
	f.mu.Lock()
	f.calls[year+"-"+month]++
	fail, delay := f.fail, f.delay
	src := f.byMonth[year+"-"+month]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, errFake
	}
	recs := make([]model.DowntimeRecord, len(src))
	copy(recs, src)
	return parser.NormalizeDowntimeAll(recs), nil
}

func (f *fakeDowntime) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeDowntime) SetFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

type fakeContact struct {
	rows  []map[string]interface{}
	err   error
	calls int
}

func (f *fakeContact) FetchContact(context.Context) ([]map[string]interface{}, error) {
	f.calls++
	return f.rows, f.err
}

type savedNC struct {
	nc       model.NonConformity
	original string
}

type fakeNC struct {
	records []model.NonConformity
	err     error
	saveErr error
	fetches int
	saved   []savedNC
}

func (f *fakeNC) FetchNonConformities(context.Context) ([]model.NonConformity, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.NonConformity, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, parser.NormalizeNonConformity(r))
	}
	return out, nil
}

func (f *fakeNC) SaveNonConformity(_ context.Context, nc model.NonConformity, original string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedNC{nc: nc, original: original})
	return nil
}

func testConfig() *Config {
	cfg := &Config{RequestTimeout: 2 * time.Second}
	_ = cfg.Validate()
	return cfg
}

func fixedTime(year int, month time.Month, day, hour int) *util.TimeProvider {
	return util.NewFixedTimeProvider(time.Date(year, month, day, hour, 0, 0, 0, time.UTC))
}

func chartByTitle(v View, prefix string) (model.Chart, bool) {
	for _, c := range v.Charts {
		if len(c.Title) >= len(prefix) && c.Title[:len(prefix)] == prefix {
			return c, true
		}
	}
	return model.Chart{}, false
}

func optionValues(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
