package dataprocessing

import (
	"strings"

	"fishpulse/pkg/contracts/domain"
)

// recordKey identifies an observation. Two records with the same key are
// duplicates regardless of their volume. rawYear keeps rows with different
// unparseable year cells apart.
type recordKey struct {
	year    int
	rawYear string
	month   string
	species string
}

func keyOf(r domain.ProductionRecord) recordKey {
	return recordKey{year: r.Year, rawYear: r.RawYear, month: r.MonthName, species: r.Species}
}

// Deduplicate drops every record whose (year, month name, species) key was
// already seen, with an unparseable year compared by its cell text, keeping the first occurrence in input order. The input slice
// is not modified. Running it on its own output returns an equal slice.
func Deduplicate(records []domain.ProductionRecord) []domain.ProductionRecord {
	seen := make(map[recordKey]struct{}, len(records))
	result := make([]domain.ProductionRecord, 0, len(records))

	for _, record := range records {
		key := keyOf(record)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, record)
	}

	return result
}

// Filter returns the records matching every non-empty dimension of filter,
// in input order. Month labels in the filter match case-insensitively.
// The result is always a new slice.
func Filter(records []domain.ProductionRecord, filter domain.ProductionFilter) []domain.ProductionRecord {
	if filter.IsZero() {
		return append([]domain.ProductionRecord(nil), records...)
	}

	years := toSet(filter.Years)
	species := toSet(filter.Species)

	var months map[string]struct{}
	if len(filter.Months) > 0 {
		months = make(map[string]struct{}, len(filter.Months))
		for _, label := range filter.Months {
			months[canonicalMonthLabel(label)] = struct{}{}
		}
	}

	result := make([]domain.ProductionRecord, 0, len(records))
	for _, record := range records {
		if years != nil {
			if _, ok := years[record.Year]; !ok {
				continue
			}
		}
		if months != nil {
			if _, ok := months[record.MonthName]; !ok {
				continue
			}
		}
		if species != nil {
			if _, ok := species[record.Species]; !ok {
				continue
			}
		}
		result = append(result, record)
	}

	return result
}

// canonicalMonthLabel maps a recognized label to its canonical spelling and
// leaves anything else as trimmed text, mirroring how records store months.
func canonicalMonthLabel(label string) string {
	if m, ok := ParseMonth(label); ok {
		return m.Name()
	}
	return strings.TrimSpace(label)
}

func toSet[T comparable](values []T) map[T]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
