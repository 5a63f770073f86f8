// Package export writes loaded dashboard data to files and external sinks.
package export

import (
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// WaterRow is one totalizer reading of a series.
type WaterRow struct {
	Series    string  `parquet:"series,snappy"`
	Timestamp int64   `parquet:"timestamp_ms,snappy"`
	Value     float64 `parquet:"totalizador,snappy"`
}

// DowntimeRow is one flattened stoppage record.
type DowntimeRow struct {
	Fecha       string  `parquet:"fecha,snappy"`
	Area        string  `parquet:"area,snappy"`
	Section     string  `parquet:"seccion,snappy"`
	TPM         string  `parquet:"tpm,snappy"`
	Shift       string  `parquet:"turno,snappy"`
	Detention   string  `parquet:"detencion,snappy"`
	StartHour   string  `parquet:"hora_inicio,snappy"`
	EndHour     string  `parquet:"hora_termino,snappy"`
	Minutes     float64 `parquet:"minutos,snappy"`
	Observation *string `parquet:"observacion,optional,snappy"`
}

// WaterRows flattens the points of a series.
func WaterRows(series model.SeriesID, points []model.TimePoint) []WaterRow {
	rows := make([]WaterRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, WaterRow{Series: string(series), Timestamp: p.Timestamp, Value: p.Value})
	}
	return rows
}

// DowntimeRows flattens downtime records.
func DowntimeRows(recs []model.DowntimeRecord) []DowntimeRow {
	rows := make([]DowntimeRow, 0, len(recs))
	for _, r := range recs {
		row := DowntimeRow{
			Fecha:     r.Fecha,
			Area:      r.Area,
			Section:   r.Section,
			TPM:       r.TPM,
			Shift:     r.Shift,
			Detention: r.Detention,
			StartHour: r.StartHour,
			EndHour:   r.EndHour,
			Minutes:   float64(r.Minutes),
		}
		if r.Observation != "" {
			obs := r.Observation
			row.Observation = &obs
		}
		rows = append(rows, row)
	}
	return rows
}
