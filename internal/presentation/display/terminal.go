// Package display draws the interactive dashboard on the terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const (
	enterAltScreen = "\033[?1049h"
	exitAltScreen  = "\033[?1049l"
	clearToEnd     = "\033[J"

	labelWidth  = 16
	valueWidth  = 12
	maxRows     = 10
	noDataLabel = "No hay datos para mostrar"
)

// SelectionItem is one field shown in the header.
type SelectionItem struct {
	Label   string
	Value   string
	Enabled bool
}

// Screen is everything drawn in one frame.
type Screen struct {
	Title     string
	Selection []SelectionItem
	Charts    []model.Chart
	Message   string
	Status    string
	ShowHelp  bool
}

// TerminalDisplay renders screens, redrawing from the top-left corner.
type TerminalDisplay struct {
	out               io.Writer
	width             func() int
	inAlternateScreen bool
}

// NewTerminalDisplay draws on stdout.
func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayTo(os.Stdout, TerminalWidth)
}

// NewTerminalDisplayTo draws on out with a custom width source.
func NewTerminalDisplayTo(out io.Writer, width func() int) *TerminalDisplay {
	return &TerminalDisplay{out: out, width: width}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, enterAltScreen, util.ClearScreen, util.MoveCursorHome, util.HideCursor)
	td.inAlternateScreen = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen, util.MoveCursorHome, util.ShowCursor, exitAltScreen)
	td.inAlternateScreen = false
}

// Render draws s, overwriting the previous frame.
func (td *TerminalDisplay) Render(s Screen) {
	var b strings.Builder
	width := td.width()

	b.WriteString(util.MoveCursorHome)
	b.WriteString(util.ColorBold + util.CenterText(s.Title, width) + util.ColorReset + "\n")
	b.WriteString(strings.Repeat("═", width) + "\n")
	b.WriteString(selectionLine(s.Selection) + "\n")
	b.WriteString(strings.Repeat("─", width) + "\n")

	switch {
	case s.ShowHelp:
		writeHelp(&b)
	case s.Message != "":
		b.WriteString("\n  " + s.Message + "\n")
	case len(s.Charts) == 0:
		b.WriteString("\n  " + noDataLabel + "\n")
	default:
		for _, c := range s.Charts {
			writeChart(&b, c, width)
		}
	}

	b.WriteString("\n")
	footer := "y/m/d: cambiar año/mes/día  c: limpiar  r: recargar  h: ayuda  q: salir"
	if s.Status != "" {
		footer = s.Status + "  |  " + footer
	}
	b.WriteString(runewidth.Truncate(footer, width, "…") + "\n")
	b.WriteString(clearToEnd)

	fmt.Fprint(td.out, b.String())
}

func selectionLine(items []SelectionItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		v := it.Value
		switch {
		case !it.Enabled:
			v = "(bloqueado)"
		case v == "":
			v = "Todos"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", it.Label, v))
	}
	return "  " + strings.Join(parts, "  |  ")
}

func writeHelp(b *strings.Builder) {
	lines := []string{
		"",
		"Atajos de teclado:",
		"",
		"  y   - Recorre los años disponibles",
		"  m   - Recorre los meses del año elegido",
		"  d   - Recorre los días del mes elegido",
		"  c   - Limpia la selección",
		"  r   - Recarga los datos",
		"  h   - Muestra u oculta esta ayuda",
		"  q   - Salir (también Esc o Ctrl+C)",
	}
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
}

// writeChart draws the first series of a chart as horizontal bars, or the
// first rows of a table chart.
func writeChart(b *strings.Builder, c model.Chart, width int) {
	b.WriteString("\n" + util.ColorBold + c.Title + util.ColorReset + "\n")
	if c.Subtitle != "" {
		b.WriteString("  " + c.Subtitle + "\n")
	}
	if c.Empty() {
		b.WriteString("  " + noDataLabel + "\n")
		return
	}
	if c.Kind == model.ChartTable {
		writeTable(b, c, width)
		return
	}

	series := c.Series[0]
	peak := 0.0
	for _, v := range series.Values {
		peak = max(peak, v)
	}
	barWidth := max(width-labelWidth-valueWidth-6, 10)
	for i, cat := range c.Categories {
		if i >= len(series.Values) {
			break
		}
		v := series.Values[i]
		fmt.Fprintf(b, "  %s %s %s\n",
			PadString(cat, labelWidth, true),
			PadString(util.Bar(v, peak, barWidth), barWidth, true),
			PadString(util.FormatDecimal(v), valueWidth, false))
	}
	if c.Goal != nil {
		fmt.Fprintf(b, "  Meta: %s\n", util.FormatDecimal(*c.Goal))
	}
	for _, note := range c.Notes {
		b.WriteString("  " + note + "\n")
	}
}

func writeTable(b *strings.Builder, c model.Chart, width int) {
	if len(c.Columns) == 0 {
		return
	}
	col := max((width-2)/len(c.Columns)-1, 4)
	cells := make([]string, len(c.Columns))
	for i, h := range c.Columns {
		cells[i] = PadString(h, col, true)
	}
	b.WriteString("  " + strings.Join(cells, " ") + "\n")
	for i, row := range c.Rows {
		if i >= maxRows {
			fmt.Fprintf(b, "  … %d filas más\n", len(c.Rows)-maxRows)
			break
		}
		for j := range cells {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			cells[j] = PadString(v, col, true)
		}
		b.WriteString("  " + strings.Join(cells, " ") + "\n")
	}
}
