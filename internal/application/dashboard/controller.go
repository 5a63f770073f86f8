package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// RenderFunc receives every view the controller produces.
type RenderFunc func(view View, err error)

// Controller drives one page: it owns the cascade, rebuilds the view on
// every transition and hands it to the renderer. Bursts of transitions are
// debounced; a build started for an older selection is discarded.
type Controller struct {
	page      Page
	debouncer *Debouncer
	render    RenderFunc

	mu      sync.RWMutex
	cascade *Cascade
	last    View

	generation atomic.Uint64
	buildMu    sync.Mutex
}

// NewController creates a controller with an empty selection.
func NewController(page Page, debounce time.Duration, render RenderFunc) *Controller {
	if render == nil {
		render = func(View, error) {}
	}
	return &Controller{
		page:      page,
		debouncer: NewDebouncer(debounce),
		render:    render,
		cascade:   NewCascade(page.Fields()...),
	}
}

// Page returns the driven page.
func (c *Controller) Page() Page {
	return c.page
}

// State returns a copy of the current selection.
func (c *Controller) State() FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cascade.State()
}

// Last returns the most recent view.
func (c *Controller) Last() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Select sets one field and schedules a render.
func (c *Controller) Select(ctx context.Context, field, value string) error {
	c.mu.Lock()
	err := c.cascade.Set(field, value)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.schedule(ctx)
	return nil
}

// Apply replaces the whole selection and schedules a render.
func (c *Controller) Apply(ctx context.Context, selection map[string]string) error {
	next, err := Apply(c.page.Fields(), selection)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.cascade = next
	c.mu.Unlock()
	c.schedule(ctx)
	return nil
}

// Clear resets the selection and schedules a render.
func (c *Controller) Clear(ctx context.Context) {
	c.mu.Lock()
	c.cascade.Clear()
	c.mu.Unlock()
	c.schedule(ctx)
}

// Cycle moves field to its next option, wrapping to unset after the last.
func (c *Controller) Cycle(ctx context.Context, field string) error {
	c.mu.RLock()
	enabled := c.cascade.Enabled(field)
	current := c.cascade.Get(field)
	options := c.last.Options[field]
	c.mu.RUnlock()

	if !enabled {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, field)
	}
	if len(options) == 0 {
		return nil
	}
	next := options[0].Value
	for i, o := range options {
		if o.Value == current {
			next = ""
			if i+1 < len(options) {
				next = options[i+1].Value
			}
			break
		}
	}
	return c.Select(ctx, field, next)
}

// Refresh builds the view for the current selection right away.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	gen := c.generation.Add(1)
	return c.build(ctx, gen)
}

func (c *Controller) schedule(ctx context.Context) {
	gen := c.generation.Add(1)
	c.debouncer.Trigger(func() {
		_, _ = c.build(ctx, gen)
	})
}

// build runs one page build under its own trace id. Only the newest
// generation reaches the renderer.
func (c *Controller) build(ctx context.Context, gen uint64) (View, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if gen != c.generation.Load() {
		return c.Last(), nil
	}

	ctx = util.WithTraceID(ctx)
	state := c.State()
	start := time.Now()
	view, err := c.page.Build(ctx, state)
	view.TraceID = util.TraceIDFrom(ctx)
	util.LoggerFor(ctx).Debugf("Built %s view for %v in %v (%d charts)", c.page.Name(), state, time.Since(start), len(view.Charts))

	if gen != c.generation.Load() {
		util.LoggerFor(ctx).Debugf("Discarding stale %s view", c.page.Name())
		return view, err
	}
	if err == nil {
		c.mu.Lock()
		c.last = view
		c.mu.Unlock()
	}
	c.render(view, err)
	return view, err
}
