// Package derive computes the analytical attributes of a booking line. Every
// function is total: malformed input degrades to a documented default instead
// of failing.
package derive

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

// maxRoomNights bounds a single line's room-nights.
const maxRoomNights = math.MaxInt32

// RoomNights is room_count × max(night_count, 1). A missing night count reads
// as one night; negative inputs read as zero. A product above maxRoomNights
// comes from a malformed line and reads as zero.
func RoomNights(roomCount, nightCount int) int {
	if roomCount <= 0 {
		return 0
	}
	if nightCount < 1 {
		nightCount = 1
	}
	if roomCount > maxRoomNights || nightCount > maxRoomNights/roomCount {
		return 0
	}
	return roomCount * nightCount
}

// AverageDailyRate is revenue / room-nights, rounded to two places. It is zero
// when there are no room-nights and never negative. A positive rate below
// half a cent keeps its full precision instead of rounding to zero.
func AverageDailyRate(revenue decimal.Decimal, roomNights int) decimal.Decimal {
	if roomNights <= 0 || !revenue.IsPositive() {
		return decimal.Zero
	}
	rate := revenue.Div(decimal.NewFromInt(int64(roomNights)))
	if rounded := rate.Round(2); rounded.IsPositive() {
		return rounded
	}
	return rate
}

// LeadTimeDays is the day count from booking to check-in, clamped to zero.
func LeadTimeDays(checkIn, booking time.Time) int {
	if checkIn.IsZero() || booking.IsZero() {
		return 0
	}
	days := int(bookingdomain.DateOf(checkIn).Sub(bookingdomain.DateOf(booking)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// NationalityGroupOf is a heuristic proxy, not nationality data: a guest name
// written in Hangul is KOR, a raw code containing one of chineseCodes is CHN,
// anything else is OTH.
func NationalityGroupOf(guestName, rawCode string, chineseCodes []string) bookingdomain.NationalityGroup {
	for _, r := range guestName {
		if unicode.Is(unicode.Hangul, r) {
			return bookingdomain.NationalityKOR
		}
	}
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code != "" {
		for _, c := range chineseCodes {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c != "" && strings.Contains(code, c) {
				return bookingdomain.NationalityCHN
			}
		}
	}
	return bookingdomain.NationalityOTH
}

// MonthDelta is the number of calendar months from now to t.
func MonthDelta(t, now time.Time) int {
	return (t.Year()-now.Year())*12 + int(t.Month()) - int(now.Month())
}

// RelativeMonthOf labels the stay month of checkIn against the month of now.
func RelativeMonthOf(checkIn, now time.Time) bookingdomain.RelativeMonth {
	switch delta := MonthDelta(checkIn, now); {
	case delta < 0:
		return bookingdomain.RelativeMonthPast
	case delta == 0:
		return bookingdomain.RelativeMonthCurrent
	case delta == 1:
		return bookingdomain.RelativeMonthNext
	case delta == 2:
		return bookingdomain.RelativeMonthNextNext
	default:
		return bookingdomain.RelativeMonthBeyond
	}
}

// StayMonth is the YYYY-MM bucket of a stay date.
func StayMonth(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

// StayYearWeek is the ISO week bucket of a stay date, e.g. 2025-W19.
func StayYearWeek(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// DayOfWeek is the short English weekday name of a stay date.
func DayOfWeek(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Mon")
}

// IsWeekend reports whether the night of t is a Friday or Saturday night.
func IsWeekend(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	wd := t.Weekday()
	return wd == time.Friday || wd == time.Saturday
}
