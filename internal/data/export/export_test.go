package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

func sampleDowntime() []model.DowntimeRecord {
	return []model.DowntimeRecord{
		{Fecha: "03-02-2025", Area: "Faena", Section: "Lavado", TPM: "Mecánico", Minutes: 15.5, Observation: "correa"},
		{Fecha: "04-02-2025", Area: "Despacho", Section: "Andén", TPM: "Eléctrico", Minutes: 30},
	}
}

func TestWriteParquet_WaterRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.parquet")
	rows := WaterRows(model.SeriesPollo, []model.TimePoint{
		{Timestamp: 1000, Value: 10.5},
		{Timestamp: 2000, Value: 12},
	})
	require.NoError(t, WriteParquet(rows, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[WaterRow](file)
	defer reader.Close()

	got := make([]WaterRow, reader.NumRows())
	n, err := reader.Read(got)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, rows, got)
}

func TestWriteParquet_DowntimeOptionalObservation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downtime.parquet")
	rows := DowntimeRows(sampleDowntime())
	require.NoError(t, WriteParquet(rows, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[DowntimeRow](file)
	defer reader.Close()

	got := make([]DowntimeRow, reader.NumRows())
	_, err = reader.Read(got)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Observation)
	assert.Equal(t, "correa", *got[0].Observation)
	assert.Nil(t, got[1].Observation)
	assert.Equal(t, 30.0, got[1].Minutes)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	sheets := []Sheet{
		DowntimeSheet("Detenciones", DowntimeRows(sampleDowntime())),
		WaterSheet("Pollo", WaterRows(model.SeriesPollo, []model.TimePoint{{Timestamp: 1, Value: 2}})),
	}
	require.NoError(t, WriteXLSX(sheets, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Detenciones", "Pollo"}, f.GetSheetList())

	rows, err := f.GetRows("Detenciones")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "Faena", rows[1][1])
	assert.Equal(t, "correa", rows[1][9])
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	assert.Error(t, WriteXLSX(nil, filepath.Join(t.TempDir(), "x.xlsx")))
}

func TestInfluxSink_WriteConsumption(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
		query  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/write" {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(body))
			query = r.URL.RawQuery
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sink, err := NewInfluxSink(InfluxConfig{URL: server.URL, Token: "t", Org: "ariztia", Bucket: "ssgg"})
	require.NoError(t, err)
	defer sink.Close()

	err = sink.WriteConsumption(context.Background(), []ConsumptionPoint{
		{Series: "Pollo", Granularity: "day", Label: "03-02-2025", Start: time.Unix(1738540800, 0), Value: 12.5},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.True(t, strings.HasPrefix(bodies[0], "water_consumption,"))
	assert.Contains(t, bodies[0], "series=Pollo")
	assert.Contains(t, bodies[0], "m3=12.5")
	assert.Contains(t, query, "bucket=ssgg")
}

func TestNewInfluxSink_RequiresConfig(t *testing.T) {
	_, err := NewInfluxSink(InfluxConfig{URL: "http://localhost:8086"})
	assert.Error(t, err)
}
