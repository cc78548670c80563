package dataprocessing

import (
	"strings"
	"time"

	"fishpulse/internal/config"
)

// Month is a calendar month in the canonical month list, January = 1.
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// monthLookup resolves lower-cased canonical labels to their Month
var monthLookup = func() map[string]Month {
	m := make(map[string]Month, len(config.MonthNames))
	for i, name := range config.MonthNames {
		m[strings.ToLower(name)] = Month(i + 1)
	}
	return m
}()

// ParseMonth maps a month label to its Month. Matching ignores surrounding
// whitespace and case.
//
// Unknown labels return (January, false). Callers keep the January index so
// the record still has a period, and use the false result to flag the row.
func ParseMonth(label string) (Month, bool) {
	if m, ok := monthLookup[strings.ToLower(strings.TrimSpace(label))]; ok {
		return m, true
	}
	return January, false
}

// Valid reports whether m is one of the twelve months.
func (m Month) Valid() bool {
	return m >= January && m <= December
}

// Name returns the canonical label, or "" for an invalid Month.
func (m Month) Name() string {
	if !m.Valid() {
		return ""
	}
	return config.MonthNames[m-1]
}

// String implements fmt.Stringer
func (m Month) String() string {
	return m.Name()
}

// PeriodOf returns the first day of (year, month) in UTC. Years that cannot
// form a calendar date yield config.SentinelPeriod.
func PeriodOf(year int, m Month) (time.Time, bool) {
	if year < 1 || year > 9999 || !m.Valid() {
		return config.SentinelPeriod, false
	}
	return time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC), true
}
