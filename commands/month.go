package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// parseMonth accepts "3", "03", "Mar" or "marzo" and returns 1..12. An
// empty string yields 0.
func parseMonth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %q: must be 1-12", s)
		}
		return n, nil
	}
	for i := range model.MonthShortNames {
		if strings.EqualFold(s, model.MonthShortNames[i]) || strings.EqualFold(s, model.MonthNames[i]) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}

// monthNumber returns the month as the numeric string the water, contact
// and non-conformity filters use.
func monthNumber(s string) (string, error) {
	n, err := parseMonth(s)
	if err != nil || n == 0 {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// monthShort returns the abbreviation the downtime filter uses.
func monthShort(s string) (string, error) {
	n, err := parseMonth(s)
	if err != nil || n == 0 {
		return "", err
	}
	return model.MonthShortNames[n-1], nil
}

// monthFullName returns the full month name the non-conformity records
// carry.
func monthFullName(s string) (string, error) {
	n, err := parseMonth(s)
	if err != nil || n == 0 {
		return "", err
	}
	return model.MonthName(n), nil
}
