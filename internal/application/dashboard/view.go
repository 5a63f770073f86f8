package dashboard

import (
	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// NoDataMessage is shown in place of charts for an empty selection.
const NoDataMessage = "No hay datos para mostrar"

// Option is one selectable value of a field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// View is everything a renderer needs for one page and selection.
type View struct {
	Page    string              `json:"page"`
	Filter  FilterState         `json:"filter"`
	Options map[string][]Option `json:"options"`
	Enabled map[string]bool     `json:"enabled"`
	Charts  []model.Chart       `json:"charts"`
	Message string              `json:"message,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
}

// Empty reports whether the view carries no chart data.
func (v View) Empty() bool {
	for _, c := range v.Charts {
		if !c.Empty() {
			return false
		}
	}
	return true
}

func newView(page Page, state FilterState) View {
	c, _ := Apply(page.Fields(), state)
	enabled := map[string]bool{}
	if c != nil {
		enabled = c.EnabledMap()
	}
	return View{
		Page:    page.Name(),
		Filter:  state.Clone(),
		Options: make(map[string][]Option),
		Enabled: enabled,
	}
}

// plainOptions uses each value as its own label.
func plainOptions(values []string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: v})
	}
	return out
}
