package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"_id": "a1", "ANNIO": float64(2025), "MES": float64(3), "DIA": float64(10), "FECHA": "10-03-2025", "META": float64(20), "Sala_Cortes": 0.25, "Sala_Empaque": 0.1},
		{"_id": "a2", "ANNIO": float64(2025), "MES": float64(3), "DIA": float64(11), "Sala_Cortes": 0.35, "Sala_Empaque": "0,3"},
		{"_id": "a3", "ANNIO": float64(2025), "MES": float64(1), "DIA": float64(5), "Sala_Cortes": 0.4},
		{"_id": "a4", "ANNIO": float64(2024), "MES": float64(12), "DIA": float64(20), "Sala_Empaque": 0.05},
	}
}

func newTestContactPage(src *fakeContact) *ContactPage {
	return NewContactPage(src, fixedTime(2025, time.March, 12, 10))
}

func TestContactPageLastSevenDays(t *testing.T) {
	page := newTestContactPage(&fakeContact{rows: contactRows()})
	view, err := page.Build(context.Background(), FilterState{})
	require.NoError(t, err)

	require.Len(t, view.Charts, 2)
	bar := view.Charts[0]
	assert.Equal(t, "Contacto Directo por Sala de Procesos - Últimos 7 días", bar.Title)
	assert.Equal(t, "Total de registros: 4", bar.Subtitle)
	assert.Equal(t, []string{"Sala Cortes", "Sala Empaque"}, bar.Categories)
	assert.Equal(t, []float64{30, 20}, bar.Series[0].Values)
	require.NotNil(t, bar.Goal)
	assert.Equal(t, ContactGoal, *bar.Goal)

	pie := view.Charts[1]
	assert.Equal(t, "Distribución de Contacto Directo - Últimos 7 días", pie.Title)
	assert.Equal(t, []float64{60, 40}, pie.Series[0].Values)
	assert.InDelta(t, 100.0, *pie.Total, 1e-9)

	assert.Equal(t, []string{"2024", "2025"}, optionValues(view.Options["year"]))
	assert.Equal(t, []string{"Sala Cortes", "Sala Empaque"}, optionValues(view.Options["area"]))
	assert.Empty(t, view.Options["month"])
}

func TestContactPageDateCases(t *testing.T) {
	tests := []struct {
		name    string
		state   FilterState
		suffix  string
		records int
	}{
		{"year", FilterState{"year": "2025"}, " - Año 2025", 5},
		{"month", FilterState{"year": "2025", "month": "3"}, " - Marzo 2025", 4},
		{"day", FilterState{"year": "2025", "month": "3", "day": "10"}, " - 10 de Marzo 2025", 2},
		{"area and year", FilterState{"area": "Sala Empaque", "year": "2024"}, " - Año 2024", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newTestContactPage(&fakeContact{rows: contactRows()})
			view, err := page.Build(context.Background(), tt.state)
			require.NoError(t, err)
			require.NotEmpty(t, view.Charts)
			assert.Equal(t, "Contacto Directo por Sala de Procesos"+tt.suffix, view.Charts[0].Title)
			assert.Equal(t, "Distribución de Contacto Directo"+tt.suffix, view.Charts[1].Title)
			assert.Contains(t, view.Charts[0].Subtitle, ": "+itoa(tt.records))
		})
	}
}

func TestContactPageOptions(t *testing.T) {
	page := newTestContactPage(&fakeContact{rows: contactRows()})
	view, err := page.Build(context.Background(), FilterState{"year": "2025", "month": "3"})
	require.NoError(t, err)

	assert.Equal(t, []Option{{Value: "1", Label: "Enero"}, {Value: "3", Label: "Marzo"}}, view.Options["month"])
	assert.Equal(t, []Option{{Value: "10", Label: "Día 10"}, {Value: "11", Label: "Día 11"}}, view.Options["day"])
}

func TestContactPageNoData(t *testing.T) {
	page := newTestContactPage(&fakeContact{rows: contactRows()})
	view, err := page.Build(context.Background(), FilterState{"year": "2023"})
	require.NoError(t, err)
	assert.Equal(t, ContactNoDataMessage, view.Message)
	assert.Empty(t, view.Charts)
}

func TestContactPageFetchOnceAndRetryAfterFailure(t *testing.T) {
	src := &fakeContact{err: errFake}
	page := newTestContactPage(src)
	ctx := context.Background()

	view, err := page.Build(ctx, FilterState{})
	require.NoError(t, err)
	assert.Equal(t, ContactNoDataMessage, view.Message)

	src.err = nil
	src.rows = contactRows()
	_, err = page.Build(ctx, FilterState{})
	require.NoError(t, err)
	_, err = page.Build(ctx, FilterState{"year": "2025"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	page.Reload()
	page.Readings(ctx)
	assert.Equal(t, 3, src.calls)
}

func TestNumericSorted(t *testing.T) {
	assert.Equal(t, []string{"2", "10", "Sala A", "sala b"}, numericSorted([]string{"10", "sala b", "", "2", "Sala A", "10"}))
}
