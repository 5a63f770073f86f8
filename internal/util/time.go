package util

import (
	"fmt"
	"sync"
	"time"
)

// TimeProvider is a global time utility that handles timezone-aware time operations
type TimeProvider struct {
	location *time.Location
	now      func() time.Time
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	mu                 sync.Mutex
)

// InitializeTimeProvider initializes the global time provider with the specified timezone
func InitializeTimeProvider(timezone string) error {
	mu.Lock()
	defer mu.Unlock()

	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}

	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global time provider instance
// If not initialized, it defaults to Local timezone
func GetTimeProvider() *TimeProvider {
	mu.Lock()
	p := globalTimeProvider
	mu.Unlock()
	if p == nil {
		_ = InitializeTimeProvider("Local")
		mu.Lock()
		p = globalTimeProvider
		mu.Unlock()
	}
	return p
}

// NewFixedTimeProvider returns a provider whose clock is frozen at now.
func NewFixedTimeProvider(now time.Time) *TimeProvider {
	return &TimeProvider{
		location: now.Location(),
		now:      func() time.Time { return now },
	}
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/Santiago, America/New_York, Europe/Madrid", timezone, err)
		}
		loc = l
	}
	tp.location = loc
	return nil
}

// Location returns the configured location.
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	if tp.now != nil {
		return tp.now().In(tp.location)
	}
	return time.Now().In(tp.location)
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location)
}

// FromMillis converts epoch milliseconds to a time in the configured timezone.
func (tp *TimeProvider) FromMillis(ms int64) time.Time {
	return tp.In(time.UnixMilli(ms))
}

// Date builds a wall-clock time in the configured timezone.
func (tp *TimeProvider) Date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, tp.Location())
}

// Format formats a time according to the layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location).Format(layout)
}

// StartOfDay returns 00:00:00.000 of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DayBounds returns the first and last millisecond of a calendar day.
func (tp *TimeProvider) DayBounds(year int, month time.Month, day int) (time.Time, time.Time) {
	start := time.Date(year, month, day, 0, 0, 0, 0, tp.Location())
	return start, EndOfDay(start)
}

// MonthBounds returns the first and last millisecond of a month.
func (tp *TimeProvider) MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, tp.Location())
	return start, EndOfDay(start.AddDate(0, 1, -1))
}

// YearBounds returns Jan 1 00:00 to Dec 31 23:59:59.999.
func (tp *TimeProvider) YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, tp.Location())
	return start, EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, tp.Location()))
}

// LastDays returns the window that ends today at 23:59:59.999 and starts at
// 00:00 of the day `back` days earlier.
func (tp *TimeProvider) LastDays(back int) (time.Time, time.Time) {
	end := EndOfDay(tp.Now())
	return StartOfDay(end.AddDate(0, 0, -back)), end
}
