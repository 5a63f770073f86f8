package model

// DateFilter is the year/month/day selection shared by every dashboard.
// Zero means unset.
type DateFilter struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// Empty reports whether no date field is selected.
func (f DateFilter) Empty() bool {
	return f.Year == 0 && f.Month == 0 && f.Day == 0
}

// Complete reports whether year, month and day are all selected.
func (f DateFilter) Complete() bool {
	return f.Year != 0 && f.Month != 0 && f.Day != 0
}

// MonthNames are the full Spanish month names, index 0 is January.
var MonthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthShortNames are the abbreviations used by the downtime endpoint.
var MonthShortNames = []string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// MonthName returns the Spanish name for month 1..12, or "".
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return MonthNames[month-1]
}

// MonthShortIndex returns 1..12 for an abbreviation such as "Mar", or 0.
func MonthShortIndex(name string) int {
	for i, n := range MonthShortNames {
		if n == name {
			return i + 1
		}
	}
	return 0
}
