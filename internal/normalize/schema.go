package normalize

import (
	"strings"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/sheet"
)

// MappedTable is a table whose columns have been resolved to canonical fields.
// Unmapped fields read as their back-fill default.
type MappedTable struct {
	Columns map[Field]int
	Labels  []string
	Rows    [][]string
	unknown string
}

// MapSchema assigns canonical fields to the columns of t. Columns are scanned
// left to right and rules in ruleset order; the first column to match a field
// claims it and later matches for that field are ignored.
//
// A table without a mappable check-in date column fails with a
// *bookingdomain.MissingRequiredFieldError listing the offered labels.
func MapSchema(t sheet.Table, rules Ruleset) (MappedTable, error) {
	columns := make(map[Field]int, len(rules.Fields))
	for idx, raw := range t.Header {
		label := NormalizeLabel(raw)
		if label == "" {
			continue
		}
		for _, rule := range rules.Fields {
			if _, claimed := columns[rule.Field]; claimed {
				continue
			}
			if rule.Matches(label) {
				columns[rule.Field] = idx
				break
			}
		}
	}

	labels := make([]string, 0, len(t.Header))
	for _, raw := range t.Header {
		if strings.TrimSpace(raw) != "" {
			labels = append(labels, raw)
		}
	}

	if _, ok := columns[FieldCheckInDate]; !ok {
		return MappedTable{}, &bookingdomain.MissingRequiredFieldError{
			Field:         string(FieldCheckInDate),
			OfferedLabels: labels,
		}
	}

	return MappedTable{
		Columns: columns,
		Labels:  labels,
		Rows:    t.Rows,
		unknown: rules.Unknown(),
	}, nil
}

// Has reports whether f was mapped to a column.
func (m MappedTable) Has(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// Raw returns the cell for f, or "" when f is unmapped or the row is short.
func (m MappedTable) Raw(row []string, f Field) string {
	idx, ok := m.Columns[f]
	if !ok {
		return ""
	}
	return sheet.Cell(row, idx)
}

// Text returns the cell for f, back-filled with the unknown sentinel.
func (m MappedTable) Text(row []string, f Field) string {
	if value := strings.TrimSpace(m.Raw(row, f)); value != "" {
		return value
	}
	if m.unknown == "" {
		return "Unknown"
	}
	return m.unknown
}
