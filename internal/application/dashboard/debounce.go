package dashboard

import (
	"time"

	"github.com/bep/debounce"
)

// Debouncer coalesces bursts of calls into the last one.
type Debouncer struct {
	call func(f func())
}

// NewDebouncer creates a debouncer firing after d of silence.
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{call: debounce.New(d)}
}

// Trigger schedules f, replacing any pending function.
func (d *Debouncer) Trigger(f func()) {
	d.call(f)
}
