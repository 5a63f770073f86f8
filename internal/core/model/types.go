package model

import (
	"bytes"
	"strconv"
	"strings"
)

// MergeGap is the largest gap, in milliseconds, between two loaded ranges
// that still coalesces them into one.
const MergeGap int64 = 86_400_000

// TimePoint is one cumulative totalizer reading.
type TimePoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Interval is an inclusive [Start, End] range in epoch milliseconds.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Valid reports whether the interval is non-empty.
func (iv Interval) Valid() bool {
	return iv.Start <= iv.End
}

// Contains reports whether o lies entirely inside iv.
func (iv Interval) Contains(o Interval) bool {
	return iv.Start <= o.Start && iv.End >= o.End
}

// Overlaps reports whether iv and o share at least one millisecond.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start <= o.End && o.Start <= iv.End
}

// SeriesID identifies a measured quantity on the remote API.
type SeriesID string

const (
	SeriesPollo SeriesID = "M3_PANTALON_POLLO"
	SeriesPavo  SeriesID = "M3_PANTALON_PAVO"
)

// Series pairs an API identifier with its display name.
type Series struct {
	ID    SeriesID
	Label string
}

// WaterSeries are the series plotted on the water dashboard.
var WaterSeries = []Series{
	{ID: SeriesPollo, Label: "Pollo"},
	{ID: SeriesPavo, Label: "Pavo"},
}

// RawReading is a reading as returned by the consumption endpoint. Both
// fields arrive either as numbers or as strings.
type RawReading struct {
	Timestamp   interface{} `json:"timestamp"`
	Totalizador interface{} `json:"totalizador"`
}

// FlexFloat decodes a JSON number, a numeric string (decimal comma allowed),
// null or "" into a float64.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			*f = 0
			return nil
		}
		s = unq
	}
	v, ok := ParseNumber(s)
	if !ok {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		unq, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*s = FlexString(unq)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// ParseNumber parses a decimal string that may use a comma as separator.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LabeledValue is one category of an aggregated series.
type LabeledValue struct {
	Label string
	Value float64
}

// DowntimeRecord is one stoppage reported by the plant.
type DowntimeRecord struct {
	Fecha       string    `json:"Fecha"`
	Area        string    `json:"Desc Area"`
	Section     string    `json:"Desc Seccion"`
	TPM         string    `json:"Desc TPM"`
	Shift       string    `json:"Desc Turno"`
	Detention   string    `json:"Desc Detencion"`
	Observation string    `json:"Observacion"`
	StartHour   string    `json:"Hora Inicio"`
	EndHour     string    `json:"Hora Termino"`
	Minutes     FlexFloat `json:"Minutos"`
	Responsible string    `json:"Desc Responsable"`
	// Derived by the parser.
	Day   string `json:"-"`
	Month string `json:"-"`
	Date  string `json:"-"`
}

// ContactReading is one room measurement from the direct-contact survey.
type ContactReading struct {
	Room  string
	Value float64
	Year  int
	Month int
	Day   int
	Fecha string
}

// NonConformity is one detected non-conformity.
type NonConformity struct {
	Folio       FlexString `json:"N_FOLIO"`
	User        string     `json:"USUARIO"`
	Year        FlexString `json:"ANNIO"`
	Month       FlexString `json:"MES"`
	Detected    string     `json:"FECHA_DETECCION"`
	Area        string     `json:"AREA"`
	Type        string     `json:"TIPO_NC"`
	State       string     `json:"ESTADO"`
	Observation string     `json:"OBSERVACION"`
	Day         string     `json:"-"`
}
