package normalize

import (
	"testing"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/sheet"
	"github.com/stretchr/testify/assert"
)

func TestDefaultClassifier(t *testing.T) {
	classify := DefaultClassifier(DefaultRuleset())

	detail := sheet.Raw{{"Guest Name", "Check-In", "Room"}}
	occupancy := sheet.Raw{
		{"Daily Report"},
		{"Date", "Rooms", "OCC%", "ADR", "RevPAR", "Revenue"},
	}

	tests := []struct {
		name     string
		filename string
		raw      sheet.Raw
		want     FileKind
	}{
		{"filename marker", "OTB_20250510.xlsx", detail, FileKindOtbSummary},
		{"korean filename marker", "영업현황_0510.csv", detail, FileKindOtbSummary},
		{"content markers", "daily.xlsx", occupancy, FileKindOtbSummary},
		{"detail list", "new_bookings.csv", detail, FileKindDetail},
		{"cancel list", "cancel_list.csv", detail, FileKindDetail},
		{"empty content", "report.csv", nil, FileKindDetail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.filename, tt.raw))
		})
	}
}

func TestResolveClass(t *testing.T) {
	assert.Equal(t, bookingdomain.RecordClassDetail, ResolveClass(FileKindDetail, ""))
	assert.Equal(t, bookingdomain.RecordClassOtbSummaryMonth, ResolveClass(FileKindOtbSummary, ""))
	assert.Equal(t, bookingdomain.RecordClassOtbSummaryTotal, ResolveClass(FileKindDetail, bookingdomain.RecordClassOtbSummaryTotal))

	assert.Equal(t, FileKindOtbSummary, KindOf(bookingdomain.RecordClassOtbSummaryTotal))
	assert.Equal(t, FileKindDetail, KindOf(bookingdomain.RecordClassDetail))
}

func TestResolveStatus(t *testing.T) {
	rules := DefaultRuleset()

	assert.Equal(t, bookingdomain.StatusCancelled, ResolveStatus(FileKindDetail, "", "cancel_0510.csv", rules))
	assert.Equal(t, bookingdomain.StatusCancelled, ResolveStatus(FileKindDetail, "", "취소리스트.xlsx", rules))
	assert.Equal(t, bookingdomain.StatusBooked, ResolveStatus(FileKindDetail, "", "new_0510.csv", rules))
	assert.Equal(t, bookingdomain.StatusBooked, ResolveStatus(FileKindDetail, bookingdomain.StatusBooked, "cancel_0510.csv", rules))
	assert.Equal(t, bookingdomain.StatusBooked, ResolveStatus(FileKindOtbSummary, bookingdomain.StatusCancelled, "otb.csv", rules))
}
