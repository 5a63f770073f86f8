package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

var (
	waterYear  string
	waterMonth string
	waterDay   string
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Water consumption of the chicken and turkey lines",
	Long: `Prints the nocturnal, comparative, weekly and accumulated consumption charts.

Without filters the last days are compared day by day. A year compares
months, a month compares days and a day compares the hours of its night shift.`,
	RunE: runWater,
}

func init() {
	rootCmd.AddCommand(waterCmd)

	waterCmd.Flags().StringVar(&waterYear, "year", "", "Year (e.g., 2025)")
	waterCmd.Flags().StringVar(&waterMonth, "month", "", "Month number or name; requires --year")
	waterCmd.Flags().StringVar(&waterDay, "day", "", "Day of month; requires --month")
}

func runWater(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	month, err := monthNumber(waterMonth)
	if err != nil {
		return err
	}

	c := cache.NewTimeRangeCache()
	dashboard.RestoreWater(ctx, a.snapshotStore(), c, model.WaterSeries)
	loader := dashboard.NewGapFillingLoader(c, a.api, &a.settings.Dashboard, a.tp)
	page := dashboard.NewWaterPage(loader, &a.settings.Dashboard, a.tp)

	view, err := buildView(ctx, page, selection("year", waterYear, "month", month, "day", waterDay))
	if err != nil {
		return err
	}
	if err := dashboard.PersistWater(ctx, a.snapshotStore(), c); err != nil {
		util.LogWarnf("Failed to persist water snapshots: %v", err)
	}
	return a.render(cmd, view)
}
