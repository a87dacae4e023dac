// Package domain holds the canonical booking-ledger record shared by ingestion,
// the ledger store and the reconciliation engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on the wire and in the ledger.
const DateLayout = "2006-01-02"

// Status tells whether a ledger line adds or removes business.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

// RecordClass separates reservation lines from occupancy-report aggregates.
type RecordClass string

const (
	RecordClassDetail          RecordClass = "detail"
	RecordClassOtbSummaryMonth RecordClass = "otb_summary_month"
	RecordClassOtbSummaryTotal RecordClass = "otb_summary_total"
)

// IsSummary reports whether the class is one of the OTB aggregate classes.
func (c RecordClass) IsSummary() bool {
	return c == RecordClassOtbSummaryMonth || c == RecordClassOtbSummaryTotal
}

// NationalityGroup is a heuristic bucket derived from the guest name script and
// the raw PMS nationality code. It is not authoritative nationality data.
type NationalityGroup string

const (
	NationalityKOR NationalityGroup = "KOR"
	NationalityCHN NationalityGroup = "CHN"
	NationalityOTH NationalityGroup = "OTH"
)

// RelativeMonth labels a stay month against the processing month.
type RelativeMonth string

const (
	RelativeMonthPast     RelativeMonth = "Past"
	RelativeMonthCurrent  RelativeMonth = "Current"
	RelativeMonthNext     RelativeMonth = "Next"
	RelativeMonthNextNext RelativeMonth = "NextNext"
	RelativeMonthBeyond   RelativeMonth = "Beyond"
)

// OTBGuestName is the placeholder guest name carried by OTB summary records.
const OTBGuestName = "OTB-SUMMARY"

// Record is one canonical booking-ledger line. Records are created once at
// ingestion time and never modified afterwards.
type Record struct {
	GuestName   string    `json:"guest_name"`
	CheckInDate time.Time `json:"check_in_date"`
	BookingDate time.Time `json:"booking_date"`
	RoomCount   int       `json:"room_count"`
	NightCount  int       `json:"night_count"`
	RoomNights  int       `json:"room_nights"`

	RoomRevenue      decimal.Decimal `json:"room_revenue"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AverageDailyRate decimal.Decimal `json:"average_daily_rate"`

	MarketSegment  string `json:"market_segment"`
	Account        string `json:"account"`
	RoomType       string `json:"room_type"`
	NationalityRaw string `json:"nationality_raw"`

	IsComplimentary bool        `json:"is_complimentary"`
	Status          Status      `json:"status"`
	SnapshotDate    time.Time   `json:"snapshot_date"`
	RecordClass     RecordClass `json:"record_class"`

	StayMonth        string           `json:"stay_month"`
	StayYearWeek     string           `json:"stay_year_week"`
	DayOfWeek        string           `json:"day_of_week"`
	IsWeekend        bool             `json:"is_weekend"`
	LeadTimeDays     int              `json:"lead_time_days"`
	NationalityGroup NationalityGroup `json:"nationality_group"`
	RelativeMonth    RelativeMonth    `json:"relative_month_label"`

	SourceFile string `json:"source_file,omitempty"`
	BatchID    string `json:"batch_id,omitempty"`
}

// DateOf truncates t to its calendar date, keeping the wall-clock day of t's
// location and returning it at midnight UTC.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseStatus accepts the wire spelling of a status. Empty input is not a status.
func ParseStatus(raw string) (Status, bool) {
	switch Status(normalizeToken(raw)) {
	case StatusBooked, "book", "new", "booking":
		return StatusBooked, true
	case StatusCancelled, "cancel", "canceled", "cxl":
		return StatusCancelled, true
	default:
		return "", false
	}
}

// ParseRecordClass accepts the wire spelling of a record class.
func ParseRecordClass(raw string) (RecordClass, bool) {
	switch RecordClass(normalizeToken(raw)) {
	case RecordClassDetail, "list":
		return RecordClassDetail, true
	case RecordClassOtbSummaryMonth, "otb_month", "otb":
		return RecordClassOtbSummaryMonth, true
	case RecordClassOtbSummaryTotal, "otb_total":
		return RecordClassOtbSummaryTotal, true
	default:
		return "", false
	}
}
