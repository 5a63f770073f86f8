package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/top"
)

var (
	topSelectionFile   string
	topRefreshInterval time.Duration
	topPersistInterval time.Duration
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Monitor water consumption interactively",
	Long: `Similar to Linux top command, keeps the water dashboard on screen and
refreshes it periodically.

Keys:
  y / m / d   cycle the year, month and day options
  c           clear the selection
  r           reload from the portal
  h           toggle help
  q           quit

With --selection-file, writing {"year": 2025, "month": 5} to that file
applies the selection as if it had been typed.`,
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().StringVar(&topSelectionFile, "selection-file", "",
		"JSON file whose {year, month, day} drives the selection")
	topCmd.Flags().DurationVar(&topRefreshInterval, "refresh-interval", 5*time.Minute,
		"Data refresh interval")
	topCmd.Flags().DurationVar(&topPersistInterval, "persist-interval", time.Minute,
		"Snapshot persistence interval")
}

func runTop(cmd *cobra.Command, _ []string) error {
	if topRefreshInterval < time.Second {
		return fmt.Errorf("refresh-interval must be at least 1s")
	}
	if topPersistInterval < time.Second {
		return fmt.Errorf("persist-interval must be at least 1s")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	config := &top.TopConfig{
		Dashboard:       &a.settings.Dashboard,
		RefreshInterval: topRefreshInterval,
		PersistInterval: topPersistInterval,
	}
	if topSelectionFile != "" {
		config.SelectionFile = expandPath(topSelectionFile)
	}

	orchestrator, err := top.NewOrchestrator(config, a.api, a.snapshotStore(), a.tp)
	if err != nil {
		return err
	}
	return orchestrator.Run(ctx)
}
