package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadTimeBucket(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "0-7"},
		{7, "0-7"},
		{8, "8-14"},
		{30, "15-30"},
		{31, "31-60"},
		{90, "61-90"},
		{91, "91+"},
		{400, "91+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LeadTimeBucket(tt.days), "days=%d", tt.days)
	}
}

func TestBreakdownsOrdering(t *testing.T) {
	snap := date(2025, 5, 1)
	a := rec(bookingdomain.StatusBooked, date(2025, 5, 10), snap, 1, 100000)
	a.Account = "Agoda"
	b := rec(bookingdomain.StatusBooked, date(2025, 5, 16), snap, 2, 400000)
	b.Account = "Booking.com"
	b.LeadTimeDays = 45
	c := rec(bookingdomain.StatusCancelled, date(2025, 5, 16), snap, 1, 100000)
	c.Account = "Booking.com"

	got := BreakdownsOf([]bookingdomain.Record{a, b, c})

	require.Len(t, got.Account, 2)
	assert.Equal(t, "Booking.com", got.Account[0].Key)
	assert.True(t, got.Account[0].NetRevenue.Equal(decimal.NewFromInt(300000)))
	assert.Equal(t, 1, got.Account[0].Cancellations)
	assert.Equal(t, "Agoda", got.Account[1].Key)

	require.Len(t, got.LeadTime, 2)
	assert.Equal(t, "8-14", got.LeadTime[0].Key)
	assert.Equal(t, "31-60", got.LeadTime[1].Key)

	require.Len(t, got.DayOfWeek, 2)
	assert.Equal(t, "Fri", got.DayOfWeek[0].Key)
	assert.Equal(t, "Sat", got.DayOfWeek[1].Key)

	require.Len(t, got.Nationality, 1)
	assert.Equal(t, "OTH", got.Nationality[0].Key)
}

func TestPickupBetweenSnapshots(t *testing.T) {
	records := []bookingdomain.Record{
		rec(bookingdomain.StatusBooked, date(2025, 6, 3), date(2025, 5, 1), 4, 400000),
		rec(bookingdomain.StatusBooked, date(2025, 6, 5), date(2025, 5, 3), 2, 260000),
		rec(bookingdomain.StatusCancelled, date(2025, 6, 3), date(2025, 5, 3), 1, 100000),
		rec(bookingdomain.StatusBooked, date(2025, 7, 1), date(2025, 5, 3), 3, 300000),
		rec(bookingdomain.StatusBooked, date(2025, 7, 1), date(2025, 5, 9), 9, 900000),
		otb(bookingdomain.RecordClassOtbSummaryMonth, date(2025, 6, 3), date(2025, 5, 3), 50, 5000000),
	}

	got := PickupBetween(records, date(2025, 5, 1), date(2025, 5, 3))
	assert.Equal(t, "2025-05-01", got.From)
	assert.Equal(t, "2025-05-03", got.To)
	require.Len(t, got.Rows, 2)

	june := got.Rows[0]
	assert.Equal(t, "2025-06", june.Month)
	assert.Equal(t, 4, june.FromRoomNights)
	assert.Equal(t, 5, june.ToRoomNights)
	assert.Equal(t, 1, june.RoomNights)
	assert.True(t, june.Revenue.Equal(decimal.NewFromInt(160000)))

	july := got.Rows[1]
	assert.Equal(t, "2025-07", july.Month)
	assert.Equal(t, 0, july.FromRoomNights)
	assert.Equal(t, 3, july.RoomNights)
	assert.True(t, july.FromRevenue.IsZero())
	assert.True(t, july.Revenue.Equal(decimal.NewFromInt(300000)))
}
