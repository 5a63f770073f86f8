// Package parser validates and normalizes records returned by the portal API.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// ParseReadings converts raw consumption records into time points. Records
// with a non-finite timestamp, or a non-numeric or negative totalizer, are
// dropped.
func ParseReadings(raw []model.RawReading) []model.TimePoint {
	points := make([]model.TimePoint, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		ts, ok := toFloat(r.Timestamp)
		if !ok || math.IsNaN(ts) || math.IsInf(ts, 0) {
			dropped++
			continue
		}
		v, ok := toFloat(r.Totalizador)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			dropped++
			continue
		}
		points = append(points, model.TimePoint{Timestamp: int64(ts), Value: v})
	}
	if dropped > 0 {
		util.LogDebugf("Parser: dropped %d of %d readings", dropped, len(raw))
	}
	return points
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return model.ParseNumber(n)
	case fmt.Stringer:
		return model.ParseNumber(n.String())
	default:
		return 0, false
	}
}

func toInt(v interface{}) int {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return int(f)
}

// splitFecha returns the dash separated parts of the date token of a
// "Fecha" value, ignoring any trailing time.
func splitFecha(fecha string) []string {
	fecha = strings.TrimSpace(fecha)
	if fecha == "" {
		return nil
	}
	datePart, _, _ := strings.Cut(fecha, " ")
	return strings.Split(datePart, "-")
}

// yearFirst reports whether parts are ordered yyyy-mm-dd.
func yearFirst(parts []string) bool {
	n, err := strconv.Atoi(parts[0])
	return err == nil && n > 31
}

// DowntimeDay returns the day of month of a "Fecha" in either dd-mm-yyyy
// or yyyy-mm-dd order.
func DowntimeDay(fecha string) string {
	parts := splitFecha(fecha)
	if len(parts) == 0 {
		return ""
	}
	if yearFirst(parts) {
		if len(parts) < 3 {
			return ""
		}
		return parts[2]
	}
	return parts[0]
}

// DowntimeDate returns the dd-mm-yyyy form of a "Fecha".
func DowntimeDate(fecha string) string {
	parts := splitFecha(fecha)
	if len(parts) == 0 {
		return ""
	}
	if yearFirst(parts) && len(parts) >= 3 {
		return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
	}
	return strings.Join(parts, "-")
}

// NormalizeDowntime trims text fields and fills the derived day, month and
// date fields.
func NormalizeDowntime(rec model.DowntimeRecord) model.DowntimeRecord {
	rec.Fecha = strings.TrimSpace(rec.Fecha)
	rec.Area = strings.TrimSpace(rec.Area)
	rec.Section = strings.TrimSpace(rec.Section)
	rec.TPM = strings.TrimSpace(rec.TPM)
	rec.Shift = strings.TrimSpace(rec.Shift)
	rec.Detention = strings.TrimSpace(rec.Detention)
	rec.Observation = strings.TrimSpace(rec.Observation)
	rec.Responsible = strings.TrimSpace(rec.Responsible)

	rec.Day = DowntimeDay(rec.Fecha)
	rec.Date = DowntimeDate(rec.Fecha)
	if parts := splitFecha(rec.Fecha); len(parts) >= 2 {
		rec.Month = parts[1]
	}
	return rec
}

// NormalizeDowntimeAll normalizes a batch in place and returns it.
func NormalizeDowntimeAll(recs []model.DowntimeRecord) []model.DowntimeRecord {
	for i := range recs {
		recs[i] = NormalizeDowntime(recs[i])
	}
	return recs
}

// contactMetadataKeys are substrings of column names that are not rooms.
var contactMetadataKeys = []string{
	"_id", "ANNIO", "SEMANA", "META", "FECHA", "__v", "id",
	"año", "ano", "mes", "dia", "day", "month", "year", "DIA", "MES", "ID",
}

// IsRoomField reports whether a direct-contact column is a room measurement.
func IsRoomField(key string, value interface{}) bool {
	lower := strings.ToLower(key)
	for _, excluded := range contactMetadataKeys {
		if strings.Contains(lower, strings.ToLower(excluded)) {
			return false
		}
	}
	switch value.(type) {
	case float64, float32, int, int64, string, fmt.Stringer:
	default:
		return false
	}
	_, ok := toFloat(value)
	return ok
}

// FlattenContact turns each survey row into one reading per room. Values are
// fractions on the wire and percentages in the result.
func FlattenContact(rows []map[string]interface{}) []model.ContactReading {
	var out []model.ContactReading
	for _, row := range rows {
		year, month, day := toInt(row["ANNIO"]), toInt(row["MES"]), toInt(row["DIA"])
		fecha, _ := row["FECHA"].(string)

		for key, value := range row {
			if !IsRoomField(key, value) {
				continue
			}
			v, _ := toFloat(value)
			out = append(out, model.ContactReading{
				Room:  strings.TrimSpace(strings.ReplaceAll(key, "_", " ")),
				Value: util.Round(v*100, 2),
				Year:  year,
				Month: month,
				Day:   day,
				Fecha: fecha,
			})
		}
	}
	return out
}

// NonConformityDay derives the two digit day from a detection date in
// dd-mm-yyyy or yyyy-mm-dd form. Anything else yields "".
func NonConformityDay(detected string) string {
	parts := strings.Split(strings.TrimSpace(detected), "-")
	if len(parts) != 3 {
		return ""
	}
	if len(parts[0]) <= 2 && len(parts[1]) == 2 && len(parts[2]) == 4 {
		return pad2(parts[0])
	}
	if len(parts[0]) == 4 {
		return pad2(firstN(parts[2], 2))
	}
	return ""
}

// NormalizeNonConformity trims fields and derives the day.
func NormalizeNonConformity(nc model.NonConformity) model.NonConformity {
	nc.Folio = model.FlexString(strings.TrimSpace(string(nc.Folio)))
	nc.User = strings.TrimSpace(nc.User)
	nc.Year = model.FlexString(strings.TrimSpace(string(nc.Year)))
	nc.Month = model.FlexString(strings.TrimSpace(string(nc.Month)))
	nc.Detected = strings.TrimSpace(nc.Detected)
	nc.Area = strings.TrimSpace(nc.Area)
	nc.Type = strings.TrimSpace(nc.Type)
	nc.State = strings.TrimSpace(nc.State)
	nc.Observation = strings.TrimSpace(nc.Observation)
	nc.Day = NonConformityDay(nc.Detected)
	return nc
}

// InputDateToDetection converts a yyyy-mm-dd form value to dd-mm-yyyy.
// Other inputs are returned unchanged.
func InputDateToDetection(date string) string {
	parts := strings.Split(strings.TrimSpace(date), "-")
	if len(parts) == 3 && len(parts[0]) == 4 {
		return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
	}
	return date
}

// DetectionSortKey turns dd-mm-yyyy into yyyymmdd for ordering.
func DetectionSortKey(detected string) string {
	parts := strings.Split(strings.TrimSpace(detected), "-")
	if len(parts) != 3 {
		return detected
	}
	if len(parts[0]) == 4 {
		return parts[0] + parts[1] + firstN(parts[2], 2)
	}
	return parts[2] + pad2(parts[1]) + pad2(parts[0])
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
