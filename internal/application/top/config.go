package top

import (
	"time"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
)

// TopConfig contains configuration for the top command
type TopConfig struct {
	Dashboard *dashboard.Config

	// SelectionFile is a JSON {year,month,day} document applied whenever it
	// changes. Empty disables the watcher.
	SelectionFile string

	// RefreshInterval rebuilds the current view so new readings show up.
	RefreshInterval time.Duration
	// PersistInterval saves changed series to the snapshot store.
	PersistInterval time.Duration
}

// Validate checks if the configuration is valid
func (c *TopConfig) Validate() error {
	if c.Dashboard == nil {
		c.Dashboard = &dashboard.Config{}
	}
	if err := c.Dashboard.Validate(); err != nil {
		return err
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 5 * time.Minute
	}
	if c.PersistInterval == 0 {
		c.PersistInterval = time.Minute
	}
	return nil
}
