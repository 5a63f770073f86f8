package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	datacache "github.com/penwyp/go-ssgg-monitor/internal/data/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/data/client"
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// app is what every dashboard command needs once flags are parsed.
type app struct {
	settings *settings
	tp       *util.TimeProvider
	api      *client.Client
	store    *datacache.SnapshotStore
	session  model.Session
}

// newApp loads settings, initialises logging and time, and opens the
// snapshot store. Commands other than login pass needSession.
func newApp(ctx context.Context, needSession bool) (*app, error) {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}
	initLogging(s)
	if err := util.InitializeTimeProvider(s.Dashboard.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Dashboard.Timezone, err)
	}

	a := &app{
		settings: s,
		tp:       util.GetTimeProvider(),
		api:      client.New(s.Dashboard.ClientConfig()),
	}
	if needSession {
		sess, err := loadSession(s.SessionFile)
		if err != nil {
			return nil, err
		}
		a.session = sess
		util.LoggerFor(ctx).Debugf("Session: %s (%s)", sess.User(), sess.Role())
	}

	store, err := datacache.Open(datacache.Config{
		Backend: datacache.BackendType(s.Dashboard.CacheBackend),
		Dir:     s.Dashboard.CacheDir,
		DSN:     s.Dashboard.CacheDSN,
		TTL:     s.Dashboard.CacheTTL,
	})
	if err != nil {
		// The store only warms the caches; run cold without it.
		util.LogWarnf("Snapshot store unavailable, running without it: %v", err)
	} else {
		a.store = store
	}

	if s.Reset && a.store != nil {
		if err := a.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}
	return a, nil
}

func initLogging(s *settings) {
	logLevel := "info"
	if s.Debug {
		logLevel = "debug"
	}
	if err := ensureDir(filepath.Dir(s.LogFile)); err != nil {
		s.LogFile = ""
	}
	util.InitLogger(util.LoggerOptions{
		Level:          logLevel,
		File:           s.LogFile,
		Format:         util.LogFormat(s.LogFormat),
		DebugToConsole: s.Debug,
	})
}

// snapshotStore returns the store as the dashboard interface, nil when
// unavailable.
func (a *app) snapshotStore() dashboard.SnapshotStore {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			util.LogWarnf("Failed to close snapshot store: %v", err)
		}
	}
}

// buildView validates the selection against the page's cascade and builds
// it under a fresh trace id.
func buildView(ctx context.Context, page dashboard.Page, selection map[string]string) (dashboard.View, error) {
	cascade, err := dashboard.Apply(page.Fields(), selection)
	if err != nil {
		return dashboard.View{}, fmt.Errorf("invalid filter: %w", err)
	}
	ctx = util.WithTraceID(ctx)
	util.LoggerFor(ctx).Infof("Building %s view for %v", page.Name(), cascade.State())
	return page.Build(ctx, cascade.State())
}

// render prints a view in the configured format. The view message goes
// before the charts only for human-readable formats.
func (a *app) render(cmd *cobra.Command, view dashboard.View) error {
	format := a.settings.Dashboard.Output
	f, err := formatter.New(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if view.Message != "" && len(view.Charts) > 0 && (format == "table" || format == "summary") {
		fmt.Fprintln(cmd.OutOrStdout(), view.Message)
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return f.Format(view.Charts)
}

// selection keeps the non-empty name/value pairs.
func selection(pairs ...string) map[string]string {
	out := make(map[string]string)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out[pairs[i]] = pairs[i+1]
		}
	}
	return out
}
