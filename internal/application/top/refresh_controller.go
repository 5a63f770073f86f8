package top

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// RefreshController manages the initial load, forced reloads and snapshot
// persistence of the water page.
type RefreshController struct {
	dataLoader *DataLoader
	page       *dashboard.WaterPage
	controller *dashboard.Controller

	refreshMutex sync.Mutex
}

// NewRefreshController creates a new RefreshController instance
func NewRefreshController(dataLoader *DataLoader, page *dashboard.WaterPage, controller *dashboard.Controller) *RefreshController {
	return &RefreshController{dataLoader: dataLoader, page: page, controller: controller}
}

// InitialLoad restores snapshots, fetches the default window and builds
// the first view.
func (rc *RefreshController) InitialLoad(ctx context.Context) (dashboard.View, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	ctx = util.WithTraceID(ctx)
	rc.dataLoader.Restore(ctx)
	for _, r := range rc.page.InitialLoad(ctx) {
		util.LoggerFor(ctx).Infof("Initial load %s: fetched %d pieces, %d points", r.Series, len(r.Fetched), r.Points)
	}
	rc.persist(ctx)
	return rc.controller.Refresh(ctx)
}

// RefreshData rebuilds the current selection. Only ranges the cache lacks
// are fetched; readings newer than the last load always are.
func (rc *RefreshController) RefreshData(ctx context.Context) (dashboard.View, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()
	view, err := rc.controller.Refresh(ctx)
	rc.persist(ctx)
	return view, err
}

// Reload drops the in-memory cache and rebuilds from the API.
func (rc *RefreshController) Reload(ctx context.Context) (dashboard.View, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	rc.dataLoader.Clear()
	view, err := rc.controller.Refresh(ctx)
	if err != nil {
		return view, fmt.Errorf("reload failed: %w", err)
	}
	rc.persist(ctx)
	return view, nil
}

// Persist saves changed series.
func (rc *RefreshController) Persist(ctx context.Context) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()
	rc.persist(ctx)
}

func (rc *RefreshController) persist(ctx context.Context) {
	if err := rc.dataLoader.PersistDirtyEntries(ctx); err != nil {
		util.LoggerFor(ctx).Warnf("Failed to persist water snapshots: %v", err)
	}
}
