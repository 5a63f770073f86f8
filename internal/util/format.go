package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatDecimal renders a number with Spanish separators and two decimals,
// e.g. 1234.5 -> "1.234,50".
func FormatDecimal(v float64) string {
	return formatSpanish(v, 2)
}

// FormatInteger renders a rounded number with Spanish thousands separators.
func FormatInteger(v float64) string {
	return formatSpanish(math.Round(v), 0)
}

func formatSpanish(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	str := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)

	intPart, decPart, _ := strings.Cut(str, ".")

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	sign := ""
	if v < 0 && str != strconv.FormatFloat(0, 'f', decimals, 64) {
		sign = "-"
	}
	if decPart == "" {
		return sign + intPart
	}
	return sign + intPart + "," + decPart
}

// FormatPercent renders a percentage with one decimal, e.g. "42,5%".
func FormatPercent(v float64) string {
	return formatSpanish(v, 1) + "%"
}

// FormatMinutes renders a minute count, e.g. "1.234 min".
func FormatMinutes(v float64) string {
	return fmt.Sprintf("%s min", FormatInteger(v))
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
