package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

// EncodeRecord flattens a record into a ledger row.
func EncodeRecord(rec bookingdomain.Record) Row {
	return Row{
		ColGuestName:        rec.GuestName,
		ColCheckInDate:      bookingdomain.FormatDate(rec.CheckInDate),
		ColBookingDate:      bookingdomain.FormatDate(rec.BookingDate),
		ColRoomCount:        strconv.Itoa(rec.RoomCount),
		ColNightCount:       strconv.Itoa(rec.NightCount),
		ColRoomNights:       strconv.Itoa(rec.RoomNights),
		ColRoomRevenue:      rec.RoomRevenue.String(),
		ColTotalRevenue:     rec.TotalRevenue.String(),
		ColAverageDailyRate: rec.AverageDailyRate.String(),
		ColMarketSegment:    rec.MarketSegment,
		ColAccount:          rec.Account,
		ColRoomType:         rec.RoomType,
		ColNationalityRaw:   rec.NationalityRaw,
		ColIsComplimentary:  strconv.FormatBool(rec.IsComplimentary),
		ColStatus:           string(rec.Status),
		ColSnapshotDate:     bookingdomain.FormatDate(rec.SnapshotDate),
		ColRecordClass:      string(rec.RecordClass),
		ColStayMonth:        rec.StayMonth,
		ColStayYearWeek:     rec.StayYearWeek,
		ColDayOfWeek:        rec.DayOfWeek,
		ColIsWeekend:        strconv.FormatBool(rec.IsWeekend),
		ColLeadTimeDays:     strconv.Itoa(rec.LeadTimeDays),
		ColNationalityGroup: string(rec.NationalityGroup),
		ColSourceFile:       rec.SourceFile,
		ColBatchID:          rec.BatchID,
	}
}

// DecodeRow coerces a ledger row back into a record. Rows without a valid
// check-in date, snapshot date, status or class fail with ErrMalformedRow;
// malformed numbers read as zero. The relative month is not stored and is
// left empty.
func DecodeRow(row Row) (bookingdomain.Record, error) {
	checkIn, err := parseDate(row[ColCheckInDate])
	if err != nil {
		return bookingdomain.Record{}, fmt.Errorf("%w: check_in_date %q", ErrMalformedRow, row[ColCheckInDate])
	}
	snapshot, err := parseDate(row[ColSnapshotDate])
	if err != nil {
		return bookingdomain.Record{}, fmt.Errorf("%w: snapshot_date %q", ErrMalformedRow, row[ColSnapshotDate])
	}
	status, ok := bookingdomain.ParseStatus(row[ColStatus])
	if !ok {
		return bookingdomain.Record{}, fmt.Errorf("%w: status %q", ErrMalformedRow, row[ColStatus])
	}
	class := bookingdomain.RecordClassDetail
	if raw := strings.TrimSpace(row[ColRecordClass]); raw != "" {
		if class, ok = bookingdomain.ParseRecordClass(raw); !ok {
			return bookingdomain.Record{}, fmt.Errorf("%w: record_class %q", ErrMalformedRow, raw)
		}
	}

	booking, err := parseDate(row[ColBookingDate])
	if err != nil {
		booking = checkIn
	}

	return bookingdomain.Record{
		GuestName:        row[ColGuestName],
		CheckInDate:      checkIn,
		BookingDate:      booking,
		RoomCount:        parseInt(row[ColRoomCount]),
		NightCount:       parseInt(row[ColNightCount]),
		RoomNights:       parseInt(row[ColRoomNights]),
		RoomRevenue:      parseDecimal(row[ColRoomRevenue]),
		TotalRevenue:     parseDecimal(row[ColTotalRevenue]),
		AverageDailyRate: parseDecimal(row[ColAverageDailyRate]),
		MarketSegment:    row[ColMarketSegment],
		Account:          row[ColAccount],
		RoomType:         row[ColRoomType],
		NationalityRaw:   row[ColNationalityRaw],
		IsComplimentary:  parseBool(row[ColIsComplimentary]),
		Status:           status,
		SnapshotDate:     snapshot,
		RecordClass:      class,
		StayMonth:        row[ColStayMonth],
		StayYearWeek:     row[ColStayYearWeek],
		DayOfWeek:        row[ColDayOfWeek],
		IsWeekend:        parseBool(row[ColIsWeekend]),
		LeadTimeDays:     parseInt(row[ColLeadTimeDays]),
		NationalityGroup: bookingdomain.NationalityGroup(row[ColNationalityGroup]),
		SourceFile:       row[ColSourceFile],
		BatchID:          row[ColBatchID],
	}, nil
}

// ToEntry maps a row onto its persisted columns.
func ToEntry(row Row) Entry {
	return Entry{
		BatchID:          row[ColBatchID],
		SnapshotDate:     row[ColSnapshotDate],
		Status:           row[ColStatus],
		RecordClass:      row[ColRecordClass],
		GuestName:        row[ColGuestName],
		CheckInDate:      row[ColCheckInDate],
		BookingDate:      row[ColBookingDate],
		RoomCount:        row[ColRoomCount],
		NightCount:       row[ColNightCount],
		RoomNights:       row[ColRoomNights],
		RoomRevenue:      row[ColRoomRevenue],
		TotalRevenue:     row[ColTotalRevenue],
		AverageDailyRate: row[ColAverageDailyRate],
		MarketSegment:    row[ColMarketSegment],
		Account:          row[ColAccount],
		RoomType:         row[ColRoomType],
		NationalityRaw:   row[ColNationalityRaw],
		IsComplimentary:  row[ColIsComplimentary],
		StayMonth:        row[ColStayMonth],
		StayYearWeek:     row[ColStayYearWeek],
		DayOfWeek:        row[ColDayOfWeek],
		IsWeekend:        row[ColIsWeekend],
		LeadTimeDays:     row[ColLeadTimeDays],
		NationalityGroup: row[ColNationalityGroup],
		SourceFile:       row[ColSourceFile],
	}
}

// Row returns the flat form of a persisted entry.
func (e Entry) Row() Row {
	return Row{
		ColBatchID:          e.BatchID,
		ColSnapshotDate:     e.SnapshotDate,
		ColStatus:           e.Status,
		ColRecordClass:      e.RecordClass,
		ColGuestName:        e.GuestName,
		ColCheckInDate:      e.CheckInDate,
		ColBookingDate:      e.BookingDate,
		ColRoomCount:        e.RoomCount,
		ColNightCount:       e.NightCount,
		ColRoomNights:       e.RoomNights,
		ColRoomRevenue:      e.RoomRevenue,
		ColTotalRevenue:     e.TotalRevenue,
		ColAverageDailyRate: e.AverageDailyRate,
		ColMarketSegment:    e.MarketSegment,
		ColAccount:          e.Account,
		ColRoomType:         e.RoomType,
		ColNationalityRaw:   e.NationalityRaw,
		ColIsComplimentary:  e.IsComplimentary,
		ColStayMonth:        e.StayMonth,
		ColStayYearWeek:     e.StayYearWeek,
		ColDayOfWeek:        e.DayOfWeek,
		ColIsWeekend:        e.IsWeekend,
		ColLeadTimeDays:     e.LeadTimeDays,
		ColNationalityGroup: e.NationalityGroup,
		ColSourceFile:       e.SourceFile,
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(bookingdomain.DateLayout) {
		raw = raw[:len(bookingdomain.DateLayout)]
	}
	return time.Parse(bookingdomain.DateLayout, raw)
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
