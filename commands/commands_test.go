package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-ssgg-monitor/internal/core/cache"
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

func TestLoginStoresSession(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "login", "--user", "ana", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Bienvenido ana (Ariztia, ADMIN)")

	home, _ := os.UserHomeDir()
	sess, err := loadSession(filepath.Join(home, ".go-ssgg-monitor", "session.json"))
	require.NoError(t, err)
	assert.Equal(t, "ana", sess.User())
	assert.True(t, sess.IsAdmin())
}

func TestLoginRejected(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "login", "--user", "ana", "--password", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Usuario o contraseña incorrectos")
}

func TestCommandsRequireSession(t *testing.T) {
	setupCLI(t)

	for _, args := range [][]string{
		{"water"},
		{"downtime"},
		{"contact"},
		{"nc", "list"},
		{"export", "--format", "parquet", "--year", "2025"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, args...)
			assert.ErrorIs(t, err, model.ErrNoSession)
		})
	}
}

func TestLogout(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := execute(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Sesión cerrada")

	out, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No hay sesión activa")

	_, err = execute(t, "water")
	assert.ErrorIs(t, err, model.ErrNoSession)
}

func TestWaterCommand(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := execute(t, "water")
	require.NoError(t, err)
	assert.Contains(t, out, "Consumo nocturno")
	assert.Contains(t, out, "Comparación consumo hídrico")

	home, _ := os.UserHomeDir()
	entries, err := os.ReadDir(filepath.Join(home, ".go-ssgg-monitor", "cache"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "water snapshots are persisted")
}

func TestWaterCommandInvalidFilter(t *testing.T) {
	setupCLI(t)
	login(t)

	_, err := execute(t, "water", "--month", "3")
	assert.ErrorContains(t, err, "invalid filter")

	_, err = execute(t, "water", "--year", "2025", "--month", "13")
	assert.ErrorContains(t, err, "invalid month")
}

func TestNCListJSON(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := execute(t, "nc", "list", "-o", "json")
	require.NoError(t, err)

	var charts []model.Chart
	require.NoError(t, sonic.UnmarshalString(out, &charts))
	require.Len(t, charts, 2)
	assert.Equal(t, "Pareto de No Conformidades por Mes", charts[0].Title)
	assert.Equal(t, model.ChartTable, charts[1].Kind)
}

func TestNCAdd(t *testing.T) {
	portal := setupCLI(t)
	login(t)

	out, err := execute(t, "nc", "add",
		"--folio", "7", "--year", "2025", "--month", "3", "--date", "2025-03-14",
		"--area", "Calidad", "--type", "Proceso", "--state", "Abierta")
	require.NoError(t, err)
	assert.Contains(t, out, "No conformidad 7 agregada")

	saved := portal.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "Marzo", saved[0]["MES"])
	assert.Equal(t, "14-03-2025", saved[0]["FECHA_DETECCION"])
	assert.Equal(t, "ana", saved[0]["USUARIO"])
}

func TestNCAddIncomplete(t *testing.T) {
	setupCLI(t)
	login(t)

	_, err := execute(t, "nc", "add", "--folio", "7")
	assert.ErrorContains(t, err, "faltan campos obligatorios")
}

func TestNCVisitorCannotEdit(t *testing.T) {
	portal := setupCLI(t)
	portal.setRole(model.RoleVisitor)
	login(t)

	_, err := execute(t, "nc", "edit", "--original-folio", "1", "--state", "Cerrada")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.Empty(t, portal.Saved())
}

func TestNCEditKeepsFields(t *testing.T) {
	portal := setupCLI(t)
	login(t)

	_, err := execute(t, "nc", "edit", "--original-folio", "1", "--state", "Cerrada")
	require.NoError(t, err)

	saved := portal.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "Cerrada", saved[0]["ESTADO"])
	assert.Equal(t, "Calidad", saved[0]["AREA"])
	assert.Equal(t, "1", saved[0]["N_FOLIO_ORIGINAL"])
}

func TestExportParquet(t *testing.T) {
	setupCLI(t)
	login(t)

	target := filepath.Join(t.TempDir(), "water.parquet")
	out, err := execute(t, "export", "--format", "parquet", "--year", "2025", "--month", "2", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestParseExportFlags(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		data    string
		year    int
		month   string
		sink    string
		wantErr string
		wantOut string
	}{
		{name: "missing year", format: "parquet", data: "water", wantErr: "--year is required"},
		{name: "bad format", format: "pdf", data: "water", year: 2025, wantErr: "unsupported export format"},
		{name: "bad data", format: "xlsx", data: "gas", year: 2025, wantErr: "unsupported export data"},
		{name: "nothing to do", data: "water", year: 2025, wantErr: "nothing to export"},
		{name: "influx downtime", data: "downtime", year: 2025, sink: "influx", wantErr: "only accepts water"},
		{name: "bad sink", data: "water", year: 2025, sink: "kafka", wantErr: "unsupported sink"},
		{name: "default name", format: "xlsx", data: "downtime", year: 2025, month: "Mar", wantOut: "ssgg-downtime-2025-03.xlsx"},
		{name: "sink only", data: "water", year: 2025, sink: "influx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exportFormat, exportData, exportYear = tt.format, tt.data, tt.year
			exportMonth, exportSink, exportOut = tt.month, tt.sink, ""

			req, err := parseExportFlags()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantOut != "" {
				assert.Equal(t, tt.wantOut, filepath.Base(req.out))
			} else {
				assert.Empty(t, req.out)
			}
		})
	}
}

func TestConsumptionPoints(t *testing.T) {
	tp := util.NewFixedTimeProvider(time.Date(2025, time.May, 12, 10, 0, 0, 0, time.UTC))
	c := cache.NewTimeRangeCache()

	day := func(d, h int) int64 { return time.Date(2025, time.May, d, h, 0, 0, 0, time.UTC).UnixMilli() }
	start, end := tp.MonthBounds(2025, time.May)
	c.Commit(model.SeriesPollo, []model.TimePoint{
		{Timestamp: day(1, 0), Value: 10},
		{Timestamp: day(1, 23), Value: 14},
		{Timestamp: day(3, 6), Value: 20},
		{Timestamp: day(3, 18), Value: 29},
	}, model.Interval{Start: start.UnixMilli(), End: end.UnixMilli()})

	daily := consumptionPoints(c, tp, 2025, 5)
	require.Len(t, daily, 2)
	assert.Equal(t, "Pollo", daily[0].Series)
	assert.Equal(t, "day", daily[0].Granularity)
	assert.Equal(t, "01-05-2025", daily[0].Label)
	assert.Equal(t, 4.0, daily[0].Value)
	assert.Equal(t, "03-05-2025", daily[1].Label)
	assert.Equal(t, 9.0, daily[1].Value)

	monthly := consumptionPoints(c, tp, 2025, 0)
	require.Len(t, monthly, 1)
	assert.Equal(t, "05-2025", monthly[0].Label)
	assert.Equal(t, "month", monthly[0].Granularity)
	assert.Equal(t, 19.0, monthly[0].Value)
}
