package normalize

import (
	"path/filepath"
	"strings"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/sheet"
)

// FileKind is the shape of an uploaded export. The pipeline decides it once
// per file and branches on it.
type FileKind string

const (
	FileKindDetail     FileKind = "detail"
	FileKindOtbSummary FileKind = "otb_summary"
)

// Classifier decides the kind of a file from its name and raw content.
type Classifier func(filename string, raw sheet.Raw) FileKind

// contentScanRows bounds how far into a file the content markers are searched.
const contentScanRows = 10

// DefaultClassifier recognizes OTB summaries by filename marker first, then by
// occupancy-report column markers in the first rows. Everything else is a
// detail list.
func DefaultClassifier(rules Ruleset) Classifier {
	return func(filename string, raw sheet.Raw) FileKind {
		name := NormalizeLabel(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
		if containsAny(name, rules.OTBFilenameMarkers) {
			return FileKindOtbSummary
		}
		if len(rules.OTBContentMarkers) > 0 && hasContentMarkers(raw, rules.OTBContentMarkers) {
			return FileKindOtbSummary
		}
		return FileKindDetail
	}
}

func hasContentMarkers(raw sheet.Raw, groups [][]string) bool {
	limit := len(raw)
	if limit > contentScanRows {
		limit = contentScanRows
	}
	hit := make([]bool, len(groups))
	for _, row := range raw[:limit] {
		for _, cell := range row {
			label := NormalizeLabel(cell)
			if label == "" {
				continue
			}
			for i, group := range groups {
				if !hit[i] && containsAny(label, group) {
					hit[i] = true
				}
			}
		}
	}
	for _, ok := range hit {
		if !ok {
			return false
		}
	}
	return true
}

// KindOf returns the file kind implied by a record class.
func KindOf(class bookingdomain.RecordClass) FileKind {
	if class.IsSummary() {
		return FileKindOtbSummary
	}
	return FileKindDetail
}

// ResolveClass picks the record class of a file. An explicit hint wins;
// otherwise OTB files default to per-stay-date month summaries.
func ResolveClass(kind FileKind, hint bookingdomain.RecordClass) bookingdomain.RecordClass {
	if hint != "" {
		return hint
	}
	if kind == FileKindOtbSummary {
		return bookingdomain.RecordClassOtbSummaryMonth
	}
	return bookingdomain.RecordClassDetail
}

// ResolveStatus picks the status of a detail file. An explicit hint wins;
// otherwise a cancel marker in the filename marks a cancellation list.
// OTB summaries are always booked business.
func ResolveStatus(kind FileKind, hint bookingdomain.Status, filename string, rules Ruleset) bookingdomain.Status {
	if kind == FileKindOtbSummary {
		return bookingdomain.StatusBooked
	}
	if hint != "" {
		return hint
	}
	name := NormalizeLabel(filepath.Base(filename))
	if containsAny(name, rules.CancelFilenameMarkers) {
		return bookingdomain.StatusCancelled
	}
	return bookingdomain.StatusBooked
}
