package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/aggregator"
	"github.com/penwyp/go-ssgg-monitor/internal/data/export"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

var (
	exportFormat string
	exportData   string
	exportYear   int
	exportMonth  string
	exportOut    string
	exportSink   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export water readings or downtime records",
	Long: `Writes the raw data of a year or month to a file, or the aggregated water
consumption to InfluxDB.

Examples:
  go-ssgg-monitor export --format parquet --year 2025 --month 5
  go-ssgg-monitor export --data downtime --format xlsx --year 2025
  go-ssgg-monitor export --sink influx --year 2025`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "",
		"File format (parquet, xlsx)")
	exportCmd.Flags().StringVar(&exportData, "data", "water",
		"Data to export (water, downtime)")
	exportCmd.Flags().IntVar(&exportYear, "year", 0,
		"Year to export")
	exportCmd.Flags().StringVar(&exportMonth, "month", "",
		"Month number or name (default whole year)")
	exportCmd.Flags().StringVar(&exportOut, "out", "",
		"Output file (default ssgg-<data>-<period>.<format>)")
	exportCmd.Flags().StringVar(&exportSink, "sink", "",
		"Also write aggregated consumption to a sink (influx)")
}

// exportRequest is the validated flag set.
type exportRequest struct {
	format string
	data   string
	year   int
	month  int
	out    string
	sink   string
}

func parseExportFlags() (exportRequest, error) {
	req := exportRequest{
		format: strings.ToLower(exportFormat),
		data:   strings.ToLower(exportData),
		year:   exportYear,
		sink:   strings.ToLower(exportSink),
	}
	if req.year <= 0 {
		return req, fmt.Errorf("--year is required")
	}
	month, err := parseMonth(exportMonth)
	if err != nil {
		return req, err
	}
	req.month = month

	switch req.format {
	case "", "parquet", "xlsx":
	default:
		return req, fmt.Errorf("unsupported export format: %s. Must be parquet or xlsx", req.format)
	}
	switch req.data {
	case "water", "downtime":
	default:
		return req, fmt.Errorf("unsupported export data: %s. Must be water or downtime", req.data)
	}
	switch req.sink {
	case "":
	case "influx":
		if req.data != "water" {
			return req, fmt.Errorf("the influx sink only accepts water data")
		}
	default:
		return req, fmt.Errorf("unsupported sink: %s. Must be influx", req.sink)
	}
	if req.format == "" && req.sink == "" {
		return req, fmt.Errorf("nothing to export: set --format or --sink")
	}

	if req.format != "" {
		req.out = exportOut
		if req.out == "" {
			period := strconv.Itoa(req.year)
			if req.month > 0 {
				period += fmt.Sprintf("-%02d", req.month)
			}
			req.out = fmt.Sprintf("ssgg-%s-%s.%s", req.data, period, req.format)
		}
		req.out = expandPath(req.out)
	}
	return req, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	req, err := parseExportFlags()
	if err != nil {
		return err
	}

	ctx := util.WithTraceID(cmd.Context())
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if req.data == "downtime" {
		return a.exportDowntime(ctx, cmd, req)
	}
	return a.exportWater(ctx, cmd, req)
}

func (a *app) period(req exportRequest) model.Interval {
	if req.month > 0 {
		start, end := a.tp.MonthBounds(req.year, time.Month(req.month))
		return model.Interval{Start: start.UnixMilli(), End: end.UnixMilli()}
	}
	start, end := a.tp.YearBounds(req.year)
	return model.Interval{Start: start.UnixMilli(), End: end.UnixMilli()}
}

func (a *app) exportWater(ctx context.Context, cmd *cobra.Command, req exportRequest) error {
	c := cache.NewTimeRangeCache()
	dashboard.RestoreWater(ctx, a.snapshotStore(), c, model.WaterSeries)
	loader := dashboard.NewGapFillingLoader(c, a.api, &a.settings.Dashboard, a.tp)

	iv := a.period(req)
	for _, r := range loader.LoadAll(ctx, model.WaterSeries, iv) {
		if r.Err != nil {
			util.LoggerFor(ctx).Warnf("Export: incomplete %s data: %v", r.Series, r.Err)
		}
	}
	if err := dashboard.PersistWater(ctx, a.snapshotStore(), c); err != nil {
		util.LoggerFor(ctx).Warnf("Failed to persist water snapshots: %v", err)
	}

	if req.format != "" {
		var rows []export.WaterRow
		for _, s := range model.WaterSeries {
			rows = append(rows, export.WaterRows(s.ID, c.Points(s.ID, iv))...)
		}
		if err := writeRows(req, rows, export.WaterSheet("Agua", rows)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d water readings to %s\n", len(rows), req.out)
	}

	if req.sink == "influx" {
		sink, err := export.NewInfluxSink(a.settings.Influx)
		if err != nil {
			return err
		}
		defer sink.Close()
		points := consumptionPoints(c, a.tp, req.year, req.month)
		if err := sink.WriteConsumption(ctx, points); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d consumption points to InfluxDB\n", len(points))
	}
	return nil
}

func (a *app) exportDowntime(ctx context.Context, cmd *cobra.Command, req exportRequest) error {
	months := a.settings.Dashboard.AvailableMonths[req.year]
	if req.month > 0 {
		months = []string{model.MonthShortNames[req.month-1]}
	}
	loader := dashboard.NewPeriodLoader(a.api, a.snapshotStore(), a.tp)
	rows := export.DowntimeRows(loader.LoadMonths(ctx, req.year, months))

	if err := writeRows(req, rows, export.DowntimeSheet("Detenciones", rows)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d downtime records to %s\n", len(rows), req.out)
	return nil
}

// writeRows writes rows as parquet, or sheet as xlsx.
func writeRows[T any](req exportRequest, rows []T, sheet export.Sheet) error {
	switch req.format {
	case "parquet":
		return export.WriteParquet(rows, req.out)
	case "xlsx":
		return export.WriteXLSX([]export.Sheet{sheet}, req.out)
	}
	return nil
}

// consumptionPoints totals each series per day of the month, or per month
// of the year. Buckets without readings are skipped.
func consumptionPoints(c *cache.TimeRangeCache, tp *util.TimeProvider, year, month int) []export.ConsumptionPoint {
	type bucket struct {
		start, end time.Time
	}
	var (
		buckets     []bucket
		granularity aggregator.Granularity
	)
	if month > 0 {
		granularity = aggregator.Daily
		_, last := tp.MonthBounds(year, time.Month(month))
		for d := 1; d <= last.Day(); d++ {
			start, end := tp.DayBounds(year, time.Month(month), d)
			buckets = append(buckets, bucket{start, end})
		}
	} else {
		granularity = aggregator.Monthly
		for m := time.January; m <= time.December; m++ {
			start, end := tp.MonthBounds(year, m)
			buckets = append(buckets, bucket{start, end})
		}
	}

	var out []export.ConsumptionPoint
	for _, s := range model.WaterSeries {
		for _, b := range buckets {
			points := c.Points(s.ID, model.Interval{Start: b.start.UnixMilli(), End: b.end.UnixMilli()})
			if len(points) == 0 {
				continue
			}
			label, _ := granularity.Key(b.start)
			out = append(out, export.ConsumptionPoint{
				Series:      s.Label,
				Granularity: granularity.String(),
				Label:       label,
				Start:       b.start,
				Value:       aggregator.Total(points),
			})
		}
	}
	return out
}
