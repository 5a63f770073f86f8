package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

func fixedWidth() int { return 80 }

func TestRenderCharts(t *testing.T) {
	var buf bytes.Buffer
	td := NewTerminalDisplayTo(&buf, fixedWidth)
	td.Render(Screen{
		Title: "SSGG Monitor - Agua",
		Selection: []SelectionItem{
			{Label: "Año", Value: "2025", Enabled: true},
			{Label: "Mes", Enabled: true},
			{Label: "Día", Enabled: false},
		},
		Charts: []model.Chart{{
			Kind:       model.ChartBar,
			Title:      "Consumo nocturno",
			Categories: []string{"21:00", "22:00"},
			Series:     []model.ChartSeries{{Name: "Pavo", Values: []float64{1234.5, 10}}},
			Goal:       model.Float(20),
		}},
		Status: "Cargando...",
	})
	out := buf.String()

	assert.Contains(t, out, "SSGG Monitor - Agua")
	assert.Contains(t, out, "Año: 2025  |  Mes: Todos  |  Día: (bloqueado)")
	assert.Contains(t, out, "1.234,50")
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "Meta: 20,00")
	assert.Contains(t, out, "Cargando...")
}

func TestRenderMessageAndHelp(t *testing.T) {
	var buf bytes.Buffer
	td := NewTerminalDisplayTo(&buf, fixedWidth)

	td.Render(Screen{Title: "x"})
	assert.Contains(t, buf.String(), noDataLabel)

	buf.Reset()
	td.Render(Screen{Title: "x", Message: "Sin conexión"})
	assert.Contains(t, buf.String(), "Sin conexión")

	buf.Reset()
	td.Render(Screen{Title: "x", ShowHelp: true, Message: "ignored"})
	assert.Contains(t, buf.String(), "Atajos de teclado")
	assert.NotContains(t, buf.String(), "ignored")
}

func TestRenderTableTruncates(t *testing.T) {
	chart := model.Chart{Kind: model.ChartTable, Title: "Detalle", Columns: []string{"#", "Área"}}
	for i := 0; i < 13; i++ {
		chart.Rows = append(chart.Rows, []string{"1", "Faena"})
	}
	var buf bytes.Buffer
	NewTerminalDisplayTo(&buf, fixedWidth).Render(Screen{Title: "x", Charts: []model.Chart{chart}})
	assert.Contains(t, buf.String(), "… 3 filas más")
	assert.Equal(t, maxRows, strings.Count(buf.String(), "Faena"))
}

func TestAlternateScreenIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	td := NewTerminalDisplayTo(&buf, fixedWidth)
	td.EnterAlternateScreen()
	td.EnterAlternateScreen()
	assert.Equal(t, 1, strings.Count(buf.String(), enterAltScreen))
	td.ExitAlternateScreen()
	td.ExitAlternateScreen()
	assert.Equal(t, 1, strings.Count(buf.String(), exitAltScreen))
}

func TestPadString(t *testing.T) {
	assert.Equal(t, "Año  ", PadString("Año", 5, true))
	assert.Equal(t, "  Año", PadString("Año", 5, false))
	assert.Equal(t, "Salá…", PadString("Salá Cortes", 5, true))
}
