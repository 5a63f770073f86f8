package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/data/aggregator"
	"github.com/penwyp/go-ssgg-monitor/internal/data/parser"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

var (
	// ErrConnection is reported when the non-conformity list cannot be read.
	ErrConnection = errors.New("error al conectar con la api")
	// ErrNCNotFound is returned when editing an unknown folio.
	ErrNCNotFound = errors.New("No se encontró la no conformidad")
	// ErrNCIncomplete is returned when a required form field is empty.
	ErrNCIncomplete = errors.New("faltan campos obligatorios")
)

const latestCount = 3

// NonConformityFields are the selectors of the non-conformity page.
var NonConformityFields = []Field{
	{Name: "year", Label: "Año"},
	{Name: "month", Label: "Mes", Parent: "year"},
	{Name: "day", Label: "Día", Parent: "month"},
	{Name: "area", Label: "Responsable"},
	{Name: "state", Label: "Estado", Parent: "area"},
}

var ncColumns = []string{"N Folio", "Usuario", "Fecha detección", "Área", "Observación", "Estado"}

// NCInput is the create and edit form. Date uses yyyy-mm-dd.
type NCInput struct {
	Folio       string
	Year        string
	Month       string
	Date        string
	Area        string
	Type        string
	Observation string
	State       string
}

func (in NCInput) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"folio": in.Folio, "anio": in.Year, "mes": in.Month, "fecha": in.Date,
		"area": in.Area, "tipo": in.Type, "estado": in.State,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrNCIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

func (in NCInput) record(user string) model.NonConformity {
	return model.NonConformity{
		Folio:       model.FlexString(strings.TrimSpace(in.Folio)),
		User:        user,
		Year:        model.FlexString(strings.TrimSpace(in.Year)),
		Month:       model.FlexString(strings.TrimSpace(in.Month)),
		Detected:    parser.InputDateToDetection(strings.TrimSpace(in.Date)),
		Area:        strings.TrimSpace(in.Area),
		Type:        strings.TrimSpace(in.Type),
		Observation: strings.TrimSpace(in.Observation),
		State:       strings.TrimSpace(in.State),
	}
}

// NonConformityPage ranks the registered non-conformities and edits them.
type NonConformityPage struct {
	source NonConformitySource

	mu      sync.Mutex
	records []model.NonConformity
	loaded  bool
}

// NewNonConformityPage creates the page.
func NewNonConformityPage(source NonConformitySource) *NonConformityPage {
	return &NonConformityPage{source: source}
}

func (p *NonConformityPage) Name() string    { return "nc" }
func (p *NonConformityPage) Fields() []Field { return NonConformityFields }

// Records returns the cached list, fetching it on first use.
func (p *NonConformityPage) Records(ctx context.Context) ([]model.NonConformity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.records, nil
	}
	recs, err := p.source.FetchNonConformities(ctx)
	if err != nil {
		util.LoggerFor(ctx).Warnf("Failed to fetch non-conformities: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	p.records = recs
	p.loaded = true
	return recs, nil
}

// Reload drops the cached list.
func (p *NonConformityPage) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = nil
	p.loaded = false
}

func (p *NonConformityPage) Build(ctx context.Context, state FilterState) (View, error) {
	view := newView(p, state)
	all, err := p.Records(ctx)
	if err != nil {
		return view, err
	}

	year, month := state.Get("year"), state.Get("month")
	view.Options["year"] = plainOptions(distinct(all, func(n model.NonConformity) string { return string(n.Year) }))
	view.Options["area"] = plainOptions(distinct(all, func(n model.NonConformity) string { return n.Area }))
	if year != "" {
		view.Options["month"] = plainOptions(distinct(
			lo.Filter(all, func(n model.NonConformity, _ int) bool { return string(n.Year) == year }),
			func(n model.NonConformity) string { return string(n.Month) }))
	}
	if year != "" && month != "" {
		view.Options["day"] = plainOptions(distinct(
			lo.Filter(all, func(n model.NonConformity, _ int) bool {
				return string(n.Year) == year && string(n.Month) == month
			}),
			func(n model.NonConformity) string { return n.Day }))
	}
	if area := state.Get("area"); area != "" {
		view.Options["state"] = plainOptions(distinct(
			lo.Filter(all, func(n model.NonConformity, _ int) bool { return n.Area == area }),
			func(n model.NonConformity) string { return n.State }))
	}

	filtered := filterNonConformities(all, state)
	if len(filtered) == 0 {
		view.Message = NoDataMessage
		view.Charts = append(view.Charts, ncTable("Últimas No Conformidades", Latest(all, latestCount)))
		return view, nil
	}

	view.Charts = append(view.Charts, ncPareto(filtered, state))
	if !state.Has("year") && !state.Has("month") && !state.Has("day") {
		view.Charts = append(view.Charts, ncTable("Últimas No Conformidades", Latest(all, latestCount)))
	} else {
		view.Charts = append(view.Charts, ncTable(fmt.Sprintf("Detalle de No Conformidades (%d registros)", len(filtered)), filtered))
	}
	return view, nil
}

func filterNonConformities(all []model.NonConformity, state FilterState) []model.NonConformity {
	return lo.Filter(all, func(n model.NonConformity, _ int) bool {
		return (!state.Has("year") || string(n.Year) == state.Get("year")) &&
			(!state.Has("month") || string(n.Month) == state.Get("month")) &&
			(!state.Has("day") || n.Day == state.Get("day")) &&
			(!state.Has("area") || n.Area == state.Get("area")) &&
			(!state.Has("state") || n.State == state.Get("state"))
	})
}

// ncPareto counts the records per month, day or detection date depending
// on the date selection.
func ncPareto(recs []model.NonConformity, state FilterState) model.Chart {
	title := "Pareto de No Conformidades por Mes"
	key := func(n model.NonConformity) string { return orDefault(string(n.Month), "Sin mes") }
	switch {
	case state.Has("day"):
		title = "No Conformidades del Día Seleccionado"
		key = func(n model.NonConformity) string { return orDefault(n.Detected, "Sin fecha") }
	case state.Has("year") && state.Has("month"):
		title = "Pareto de No Conformidades por Día"
		key = func(n model.NonConformity) string { return orDefault(n.Day, "Sin día") }
	}

	stats := aggregator.CountPareto(recs, key)
	c := model.Chart{
		Kind:     model.ChartPareto,
		Title:    title,
		Subtitle: fmt.Sprintf("Total: %d no conformidades", len(recs)),
		Total:    model.Float(float64(len(recs))),
	}
	counts := model.ChartSeries{Name: "Cantidad"}
	cumulative := model.ChartSeries{Name: "% Acumulado"}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Label)
		counts.Values = append(counts.Values, float64(s.Count))
		cumulative.Values = append(cumulative.Values, s.CumulativePct)
	}
	c.Series = []model.ChartSeries{counts, cumulative}
	return c
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Latest returns the n most recent records by detection date.
func Latest(recs []model.NonConformity, n int) []model.NonConformity {
	sorted := make([]model.NonConformity, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parser.DetectionSortKey(sorted[i].Detected) > parser.DetectionSortKey(sorted[j].Detected)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func ncTable(title string, recs []model.NonConformity) model.Chart {
	c := model.Chart{Kind: model.ChartTable, Title: title, Columns: ncColumns}
	for _, n := range recs {
		c.Rows = append(c.Rows, []string{
			string(n.Folio), n.User, n.Detected, n.Area, n.Observation, n.State,
		})
	}
	return c
}

// Create registers a new non-conformity on behalf of the session user.
func (p *NonConformityPage) Create(ctx context.Context, sess model.Session, in NCInput) error {
	if err := sess.RequireEdit(); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}
	if err := p.source.SaveNonConformity(ctx, in.record(sess.User()), ""); err != nil {
		return fmt.Errorf("Error al agregar la no conformidad: %w", err)
	}
	util.LoggerFor(ctx).Infof("Non-conformity %s created by %s", in.Folio, sess.User())
	p.Reload()
	return nil
}

// Edit updates the record identified by originalFolio. Empty input fields
// keep their current values.
func (p *NonConformityPage) Edit(ctx context.Context, sess model.Session, originalFolio string, in NCInput) error {
	if err := sess.RequireEdit(); err != nil {
		return err
	}
	all, err := p.Records(ctx)
	if err != nil {
		return err
	}
	current, ok := lo.Find(all, func(n model.NonConformity) bool { return string(n.Folio) == originalFolio })
	if !ok {
		return fmt.Errorf("%w: %s", ErrNCNotFound, originalFolio)
	}

	merged := NCInput{
		Folio:       orDefault(in.Folio, string(current.Folio)),
		Year:        orDefault(in.Year, string(current.Year)),
		Month:       orDefault(in.Month, string(current.Month)),
		Date:        orDefault(in.Date, detectionToInputDate(current.Detected)),
		Area:        orDefault(in.Area, current.Area),
		Type:        orDefault(in.Type, current.Type),
		Observation: orDefault(in.Observation, current.Observation),
		State:       orDefault(in.State, current.State),
	}
	if err := merged.validate(); err != nil {
		return err
	}
	if err := p.source.SaveNonConformity(ctx, merged.record(sess.User()), originalFolio); err != nil {
		return fmt.Errorf("Error al actualizar la no conformidad: %w", err)
	}
	util.LoggerFor(ctx).Infof("Non-conformity %s updated by %s", originalFolio, sess.User())
	p.Reload()
	return nil
}

// detectionToInputDate turns dd-mm-yyyy back into yyyy-mm-dd.
func detectionToInputDate(detected string) string {
	parts := strings.Split(detected, "-")
	if len(parts) == 3 && len(parts[2]) == 4 {
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	return detected
}
