package export

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// InfluxConfig locates the InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// ConsumptionPoint is one aggregated consumption bucket.
type ConsumptionPoint struct {
	Series      string
	Granularity string
	Label       string
	Start       time.Time
	Value       float64
}

// InfluxSink writes consumption points to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink creates the client. Connectivity is checked on first write.
func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx sink requires url, org and bucket")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// WriteConsumption writes each point to the water_consumption measurement.
func (s *InfluxSink) WriteConsumption(ctx context.Context, points []ConsumptionPoint) error {
	if len(points) == 0 {
		return nil
	}
	batch := make([]*write.Point, 0, len(points))
	for _, p := range points {
		batch = append(batch, write.NewPoint(
			"water_consumption",
			map[string]string{
				"series":      p.Series,
				"granularity": p.Granularity,
				"label":       p.Label,
			},
			map[string]interface{}{
				"m3": p.Value,
			},
			p.Start,
		))
	}
	if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
		return fmt.Errorf("failed to write points to InfluxDB: %w", err)
	}
	util.LoggerFor(ctx).Infof("InfluxSink: wrote %d consumption points", len(batch))
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
