package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006.01.02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"06-01-02",
	"06.01.02",
	"02-Jan-2006",
	"02-Jan-06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006년 1월 2일",
	"2006년 01월 02일",
}

var monthLayouts = []string{
	"2006-01",
	"2006/01",
	"2006.01",
	"2006-1",
	"2006/1",
	"2006.1",
	"200601",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2006년 1월",
	"2006년 01월",
}

// Excel serial day numbers are counted from 1899-12-30. Only a plausible
// booking window is accepted so that small counts are never read as dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	minExcelSerial = 20000 // 1954-10-03
	maxExcelSerial = 80000 // 2119-01-10
)

// ParseDate parses a calendar date in any of the supported PMS layouts,
// including Excel serial numbers and a trailing "(Sat)" style weekday.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if idx := strings.IndexAny(s, "(（"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return bookingdomain.DateOf(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

// ParseMonth parses a month label and returns the first day of that month.
// Full dates are accepted and truncated to their month.
func ParseMonth(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if t, ok := ParseDate(s); ok {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// NormalizeMonth renders any accepted month label as YYYY-MM.
func NormalizeMonth(raw string) (string, bool) {
	t, ok := ParseMonth(raw)
	if !ok {
		return "", false
	}
	return t.Format("2006-01"), true
}

var amountReplacer = strings.NewReplacer(
	",", "",
	" ", "",
	"₩", "",
	"￦", "",
	"원", "",
	"KRW", "",
	"krw", "",
	"$", "",
	"%", "",
)

// ParseAmount reads a money or numeric cell. Thousands separators, currency
// marks and accounting parentheses are understood; anything unparsable,
// including NaN and Inf spellings, reads as zero.
func ParseAmount(raw string) decimal.Decimal {
	s := amountReplacer.Replace(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return decimal.Zero
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}

// MaxCount bounds a parsed count cell. Larger magnitudes are not room or
// night counts and read as zero.
const MaxCount = math.MaxInt32

var maxCount = decimal.NewFromInt(MaxCount)

// ParseCount reads an integer count cell, truncating fractions.
func ParseCount(raw string) int {
	d := ParseAmount(raw).Truncate(0)
	if d.Abs().GreaterThan(maxCount) {
		return 0
	}
	return int(d.IntPart())
}
