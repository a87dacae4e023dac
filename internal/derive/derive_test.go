package derive

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRoomNightsFloor(t *testing.T) {
	for rooms := 0; rooms <= 5; rooms++ {
		for nights := 0; nights <= 5; nights++ {
			want := rooms * nights
			if nights == 0 {
				want = rooms
			}
			assert.Equal(t, want, RoomNights(rooms, nights), "rooms=%d nights=%d", rooms, nights)
		}
	}
	assert.Equal(t, 0, RoomNights(-2, 3))
	assert.Equal(t, 2, RoomNights(2, -1))
}

func TestAverageDailyRateTotality(t *testing.T) {
	revenues := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(1),
		decimal.NewFromInt(100000),
		decimal.RequireFromString("999999999999.99"),
		decimal.NewFromInt(-500),
	}
	for _, revenue := range revenues {
		for _, rn := range []int{0, 1, 2, 3, 7, 1000} {
			adr := AverageDailyRate(revenue, rn)
			assert.False(t, adr.IsNegative(), "revenue=%s rn=%d", revenue, rn)
			f, _ := adr.Float64()
			assert.False(t, math.IsInf(f, 0) || math.IsNaN(f))
			if rn == 0 {
				assert.True(t, adr.IsZero())
			}
			if rn > 0 && revenue.IsPositive() {
				assert.True(t, adr.IsPositive())
			}
		}
	}

	assert.Equal(t, "33333.33", AverageDailyRate(decimal.NewFromInt(100000), 3).String())
}

func TestAverageDailyRateKeepsTinyPositiveRates(t *testing.T) {
	adr := AverageDailyRate(decimal.NewFromInt(1), 1000)
	assert.True(t, adr.IsPositive())
	assert.True(t, decimal.RequireFromString("0.001").Equal(adr), adr.String())

	assert.Equal(t, "0.01", AverageDailyRate(decimal.RequireFromString("0.01"), 1).String())
	assert.Equal(t, "0.01", AverageDailyRate(decimal.RequireFromString("0.05"), 6).String())
}

func TestRoomNightsOverflowReadsZero(t *testing.T) {
	tests := []struct {
		rooms, nights, want int
	}{
		{rooms: math.MaxInt32, nights: 1, want: math.MaxInt32},
		{rooms: math.MaxInt32, nights: 2, want: 0},
		{rooms: 65536, nights: 65536, want: 0},
		{rooms: 46340, nights: 46340, want: 46340 * 46340},
		{rooms: 1, nights: math.MaxInt32, want: math.MaxInt32},
	}
	for _, tt := range tests {
		got := RoomNights(tt.rooms, tt.nights)
		assert.Equal(t, tt.want, got, "rooms=%d nights=%d", tt.rooms, tt.nights)
		assert.GreaterOrEqual(t, got, 0)
	}
}

func TestLeadTimeNonNegative(t *testing.T) {
	checkIn := date(2025, time.May, 10)
	for offset := -40; offset <= 40; offset++ {
		booking := checkIn.AddDate(0, 0, offset)
		lead := LeadTimeDays(checkIn, booking)
		assert.GreaterOrEqual(t, lead, 0)
		if offset <= 0 {
			assert.Equal(t, -offset, lead)
		}
	}
	assert.Equal(t, 0, LeadTimeDays(checkIn, time.Time{}))
	assert.Equal(t, 0, LeadTimeDays(time.Time{}, checkIn))
}

func TestNationalityGroupOf(t *testing.T) {
	codes := []string{"CHN", "HKG", "TWN", "MAC"}

	tests := []struct {
		guest string
		code  string
		want  bookingdomain.NationalityGroup
	}{
		{"홍길동", "", bookingdomain.NationalityKOR},
		{"홍길동", "CHN", bookingdomain.NationalityKOR},
		{"WANG LEI", "chn", bookingdomain.NationalityCHN},
		{"CHAN", "HKG-SAR", bookingdomain.NationalityCHN},
		{"SMITH", "USA", bookingdomain.NationalityOTH},
		{"KIM MINSU", "KOR", bookingdomain.NationalityOTH},
		{"", "", bookingdomain.NationalityOTH},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NationalityGroupOf(tt.guest, tt.code, codes), "%s/%s", tt.guest, tt.code)
	}
}

func TestRelativeMonthOf(t *testing.T) {
	now := time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, bookingdomain.RelativeMonthPast, RelativeMonthOf(date(2025, time.October, 31), now))
	assert.Equal(t, bookingdomain.RelativeMonthCurrent, RelativeMonthOf(date(2025, time.November, 1), now))
	assert.Equal(t, bookingdomain.RelativeMonthNext, RelativeMonthOf(date(2025, time.December, 31), now))
	assert.Equal(t, bookingdomain.RelativeMonthNextNext, RelativeMonthOf(date(2026, time.January, 5), now))
	assert.Equal(t, bookingdomain.RelativeMonthBeyond, RelativeMonthOf(date(2026, time.February, 1), now))
	assert.Equal(t, bookingdomain.RelativeMonthPast, RelativeMonthOf(date(2024, time.December, 1), now))
}

func TestStayBuckets(t *testing.T) {
	sat := date(2025, time.May, 10)

	assert.Equal(t, "2025-05", StayMonth(sat))
	assert.Equal(t, "2025-W19", StayYearWeek(sat))
	assert.Equal(t, "Sat", DayOfWeek(sat))
	assert.True(t, IsWeekend(sat))
	assert.True(t, IsWeekend(date(2025, time.May, 9)))
	assert.False(t, IsWeekend(date(2025, time.May, 11)))

	assert.Equal(t, "2026-W01", StayYearWeek(date(2025, time.December, 29)))
	assert.Equal(t, "", StayMonth(time.Time{}))
}

func TestRecordDetailRows(t *testing.T) {
	rules := normalize.DefaultRuleset()
	meta := Meta{
		Status:       bookingdomain.StatusBooked,
		SnapshotDate: time.Date(2025, time.May, 2, 15, 0, 0, 0, time.UTC),
		Now:          date(2025, time.May, 2),
		SourceFile:   "new.csv",
		BatchID:      "b1",
	}

	paid := Record(normalize.Row{
		GuestName:   "Kim",
		CheckIn:     date(2025, time.May, 10),
		RoomCount:   1,
		NightCount:  2,
		RoomRevenue: decimal.NewFromInt(100000),
	}, meta, rules)
	comp := Record(normalize.Row{
		GuestName:   "Lee",
		CheckIn:     date(2025, time.May, 10),
		RoomCount:   2,
		NightCount:  1,
		RoomRevenue: decimal.Zero,
	}, meta, rules)

	assert.Equal(t, 2, paid.RoomNights)
	assert.Equal(t, 2, comp.RoomNights)
	assert.True(t, decimal.NewFromInt(50000).Equal(paid.AverageDailyRate))
	assert.True(t, comp.AverageDailyRate.IsZero())
	assert.False(t, paid.IsComplimentary)
	assert.True(t, comp.IsComplimentary)

	assert.True(t, decimal.NewFromInt(100000).Equal(paid.TotalRevenue))
	assert.Equal(t, bookingdomain.RecordClassDetail, paid.RecordClass)
	assert.Equal(t, date(2025, time.May, 2), paid.SnapshotDate)
	assert.Equal(t, "new.csv", paid.SourceFile)
	assert.Equal(t, "b1", paid.BatchID)
	assert.Equal(t, bookingdomain.RelativeMonthCurrent, paid.RelativeMonth)
}

func TestRecordDefaultsBookingDate(t *testing.T) {
	rec := Record(normalize.Row{
		GuestName: "Park",
		CheckIn:   date(2025, time.May, 10),
		RoomCount: 1,
	}, Meta{Status: bookingdomain.StatusCancelled, Now: date(2025, time.May, 1)}, normalize.DefaultRuleset())

	require.False(t, rec.BookingDate.IsZero())
	assert.Equal(t, date(2025, time.May, 10), rec.BookingDate)
	assert.Equal(t, 0, rec.LeadTimeDays)
	assert.Equal(t, bookingdomain.StatusCancelled, rec.Status)
}

func TestRecordHugeCountsStayNonNegative(t *testing.T) {
	rules := normalize.DefaultRuleset()
	rows := []normalize.Row{
		{
			GuestName:   "Kim",
			CheckIn:     date(2025, time.May, 10),
			RoomCount:   math.MaxInt32,
			NightCount:  math.MaxInt32,
			RoomRevenue: decimal.NewFromInt(100000),
		},
		{
			GuestName:   "Lee",
			CheckIn:     date(2025, time.May, 10),
			RoomCount:   normalize.ParseCount("5000000000"),
			NightCount:  normalize.ParseCount("2000000000"),
			RoomRevenue: decimal.NewFromInt(100000),
		},
	}
	for _, row := range rows {
		rec := Record(row, Meta{Now: date(2025, time.May, 1)}, rules)
		assert.GreaterOrEqual(t, rec.RoomNights, 0, row.GuestName)
		assert.Equal(t, 0, rec.RoomNights, row.GuestName)
		assert.True(t, rec.AverageDailyRate.IsZero(), row.GuestName)
		assert.False(t, rec.IsComplimentary, row.GuestName)
	}
}

func TestRecordClampsNegativeInput(t *testing.T) {
	rec := Record(normalize.Row{
		CheckIn:      date(2025, time.May, 10),
		Booking:      date(2025, time.June, 1),
		RoomCount:    -1,
		NightCount:   -3,
		RoomRevenue:  decimal.NewFromInt(-5000),
		TotalRevenue: decimal.NewFromInt(-5000),
	}, Meta{}, normalize.DefaultRuleset())

	assert.Equal(t, 0, rec.RoomCount)
	assert.Equal(t, 0, rec.NightCount)
	assert.Equal(t, 0, rec.RoomNights)
	assert.True(t, rec.RoomRevenue.IsZero())
	assert.True(t, rec.AverageDailyRate.IsZero())
	assert.True(t, rec.IsComplimentary)
	assert.Equal(t, 0, rec.LeadTimeDays)
}
