package normalize

import "github.com/smallbiznis/amber/internal/sheet"

// HeaderResult is the outcome of header location.
type HeaderResult struct {
	Table sheet.Table
	// Row is the index of the header row in the raw table, or -1 when no row
	// qualified and the first row was used as-is.
	Row   int
	Found bool
}

// LocateHeader returns the sub-table starting at the first row in which at
// least MinHeaderHits cells contain a header keyword; that row becomes the
// column labels. Banner and title rows above it are discarded.
//
// When no row qualifies the raw table is returned unchanged, first row as
// labels, with Found=false. Callers rely on schema mapping to reject it.
func LocateHeader(raw sheet.Raw, rules Ruleset) HeaderResult {
	minHits := rules.MinHeaderHits
	if minHits <= 0 {
		minHits = 2
	}

	for i, row := range raw {
		if headerHits(row, rules.HeaderKeywords) >= minHits {
			return HeaderResult{
				Table: sheet.Table{Header: row, Rows: raw[i+1:]},
				Row:   i,
				Found: true,
			}
		}
	}

	return HeaderResult{Table: unchanged(raw), Row: -1}
}

func headerHits(row []string, keywords []string) int {
	hits := 0
	for _, cell := range row {
		if containsAny(NormalizeLabel(cell), keywords) {
			hits++
		}
	}
	return hits
}

func unchanged(raw sheet.Raw) sheet.Table {
	if len(raw) == 0 {
		return sheet.Table{}
	}
	return sheet.Table{Header: raw[0], Rows: raw[1:]}
}
