package derive

import (
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/normalize"
)

// Meta is the per-upload context stamped on every record of a batch.
type Meta struct {
	Status       bookingdomain.Status
	SnapshotDate time.Time
	Now          time.Time
	SourceFile   string
	BatchID      string
}

// Record builds the canonical record for a cleaned row.
//
// Defaults: a missing booking date is the check-in date, a zero or negative
// total revenue is the room revenue, negative counts and revenue are zero.
func Record(row normalize.Row, meta Meta, rules normalize.Ruleset) bookingdomain.Record {
	checkIn := bookingdomain.DateOf(row.CheckIn)
	booking := bookingdomain.DateOf(row.Booking)
	if booking.IsZero() {
		booking = checkIn
	}

	roomCount := nonNegative(row.RoomCount)
	nightCount := nonNegative(row.NightCount)
	roomNights := RoomNights(roomCount, nightCount)

	roomRevenue := decimal.Max(row.RoomRevenue, decimal.Zero)
	totalRevenue := decimal.Max(row.TotalRevenue, decimal.Zero)
	if totalRevenue.IsZero() {
		totalRevenue = roomRevenue
	}

	class := row.Class
	if class == "" {
		class = bookingdomain.RecordClassDetail
	}

	rec := bookingdomain.Record{
		GuestName:        row.GuestName,
		CheckInDate:      checkIn,
		BookingDate:      booking,
		RoomCount:        roomCount,
		NightCount:       nightCount,
		RoomNights:       roomNights,
		RoomRevenue:      roomRevenue,
		TotalRevenue:     totalRevenue,
		AverageDailyRate: AverageDailyRate(roomRevenue, roomNights),
		MarketSegment:    row.MarketSegment,
		Account:          row.Account,
		RoomType:         row.RoomType,
		NationalityRaw:   row.Nationality,
		IsComplimentary:  !totalRevenue.IsPositive(),
		Status:           meta.Status,
		SnapshotDate:     bookingdomain.DateOf(meta.SnapshotDate),
		RecordClass:      class,
		SourceFile:       meta.SourceFile,
		BatchID:          meta.BatchID,
	}
	return Attributes(rec, meta.Now, rules.ChineseCodes)
}

// Attributes fills the stay-date and guest attributes of rec. The relative
// month depends on now, so readers call it again at read time.
func Attributes(rec bookingdomain.Record, now time.Time, chineseCodes []string) bookingdomain.Record {
	rec.StayMonth = StayMonth(rec.CheckInDate)
	rec.StayYearWeek = StayYearWeek(rec.CheckInDate)
	rec.DayOfWeek = DayOfWeek(rec.CheckInDate)
	rec.IsWeekend = IsWeekend(rec.CheckInDate)
	rec.LeadTimeDays = LeadTimeDays(rec.CheckInDate, rec.BookingDate)
	rec.NationalityGroup = NationalityGroupOf(rec.GuestName, rec.NationalityRaw, chineseCodes)
	rec.RelativeMonth = RelativeMonthOf(rec.CheckInDate, now)
	return rec
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
