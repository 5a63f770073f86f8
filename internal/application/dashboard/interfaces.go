package dashboard

import (
	"context"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// WaterSource fetches raw totalizer readings for one interval.
type WaterSource interface {
	FetchWater(ctx context.Context, series model.SeriesID, sensor string, iv model.Interval) ([]model.RawReading, error)
}

// DowntimeSource fetches the stoppages of one month.
type DowntimeSource interface {
	FetchDowntime(ctx context.Context, year, monthName string) ([]model.DowntimeRecord, error)
}

// ContactSource fetches the direct-contact survey rows.
type ContactSource interface {
	FetchContact(ctx context.Context) ([]map[string]interface{}, error)
}

// NonConformitySource reads and writes non-conformities.
type NonConformitySource interface {
	FetchNonConformities(ctx context.Context) ([]model.NonConformity, error)
	SaveNonConformity(ctx context.Context, nc model.NonConformity, originalFolio string) error
}

// SnapshotStore persists warm-start snapshots. A nil store disables them.
type SnapshotStore interface {
	Load(ctx context.Context, key string, out interface{}) error
	Save(ctx context.Context, key string, value interface{}) error
}

// Page builds the view of one dashboard for a filter selection.
type Page interface {
	// Name identifies the page in logs and output.
	Name() string
	// Fields returns the selectors of the page in cascade order.
	Fields() []Field
	// Build loads what the selection needs and aggregates it.
	Build(ctx context.Context, state FilterState) (View, error)
}
