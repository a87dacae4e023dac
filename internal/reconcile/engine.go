package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/budget"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/derive"
)

const (
	SourceOTBTotal = string(bookingdomain.RecordClassOtbSummaryTotal)
	SourceOTBMonth = string(bookingdomain.RecordClassOtbSummaryMonth)
	SourceDetail   = string(bookingdomain.RecordClassDetail)
)

// Select returns the records visible at scope: everything snapshotted on or
// before AsOf, or the whole ledger when AsOf is nil.
func Select(records []bookingdomain.Record, scope Scope) []bookingdomain.Record {
	if scope.AsOf == nil {
		return records
	}
	asOf := bookingdomain.DateOf(*scope.AsOf)
	out := make([]bookingdomain.Record, 0, len(records))
	for _, rec := range records {
		if !rec.SnapshotDate.After(asOf) {
			out = append(out, rec)
		}
	}
	return out
}

// Detail keeps the line-item records. Aggregates over account, room type,
// lead time and net pickup only ever see these.
func Detail(records []bookingdomain.Record) []bookingdomain.Record {
	out := make([]bookingdomain.Record, 0, len(records))
	for _, rec := range records {
		if rec.RecordClass == bookingdomain.RecordClassDetail || rec.RecordClass == "" {
			out = append(out, rec)
		}
	}
	return out
}

// NetOf computes booked minus cancelled over records. Complimentary bookings
// are left out of the booked side; complimentary cancellations still subtract
// their room-nights but never their revenue.
func NetOf(records []bookingdomain.Record) Net {
	n := Net{BookedRevenue: decimal.Zero, CancelledRevenue: decimal.Zero}
	for _, rec := range records {
		switch rec.Status {
		case bookingdomain.StatusBooked:
			if rec.IsComplimentary {
				continue
			}
			n.BookedRoomNights += rec.RoomNights
			n.BookedRevenue = n.BookedRevenue.Add(rec.RoomRevenue)
			n.Bookings++
		case bookingdomain.StatusCancelled:
			n.CancelledRoomNights += rec.RoomNights
			if !rec.IsComplimentary {
				n.CancelledRevenue = n.CancelledRevenue.Add(rec.RoomRevenue)
			}
			n.Cancellations++
		}
	}
	n.NetRoomNights = n.BookedRoomNights - n.CancelledRoomNights
	n.NetRevenue = n.BookedRevenue.Sub(n.CancelledRevenue)
	n.AverageDailyRate = derive.AverageDailyRate(n.NetRevenue, n.NetRoomNights)
	return n
}

// Reconcile computes the full reconciled view of the ledger slice selected by
// scope. Trends bucket by stay period, never by snapshot date.
func Reconcile(records []bookingdomain.Record, targets []budgetdomain.Target, scope Scope) Result {
	var result Result
	if scope.AsOf != nil {
		result.AsOf = bookingdomain.FormatDate(*scope.AsOf)
	}

	selected := Select(records, scope)
	if len(selected) == 0 {
		result.NoData = true
		result.Monthly = []PeriodNet{}
		result.Weekly = []PeriodNet{}
		result.Achievement = []budget.Achievement{}
		result.Complimentary = []ComplimentaryItem{}
		if len(records) > 0 && scope.AsOf != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("no ledger records snapshotted on or before %s", result.AsOf))
		}
		return result
	}

	detail := Detail(selected)

	result.Totals = Totals{
		Net:           NetOf(detail),
		Records:       len(selected),
		DetailRecords: len(detail),
		OTBRecords:    len(selected) - len(detail),
	}
	for _, rec := range detail {
		if rec.IsComplimentary {
			result.Totals.Complimentary++
		}
	}

	result.Monthly = periodSeries(detail, monthOf)
	result.Weekly = periodSeries(detail, weekOf)
	result.Achievement = budget.Join(RealizedByMonth(selected), targets)
	result.Breakdowns = BreakdownsOf(detail)
	result.Complimentary = ComplimentaryList(detail)

	if len(detail) == 0 {
		result.Warnings = append(result.Warnings, "no detail records in scope; only budget achievement is populated")
	}
	return result
}

// RealizedByMonth sources each stay month's realized room revenue. OTB total
// rows win over OTB daily rows, which win over the detail net; within an OTB
// class only the latest snapshot of that month counts, so repeated OTB
// uploads are never summed.
func RealizedByMonth(records []bookingdomain.Record) []budget.Realized {
	type bucket struct {
		detail []bookingdomain.Record
		total  []bookingdomain.Record
		month  []bookingdomain.Record
	}

	buckets := map[string]*bucket{}
	for _, rec := range records {
		key := monthOf(rec)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		switch rec.RecordClass {
		case bookingdomain.RecordClassOtbSummaryTotal:
			b.total = append(b.total, rec)
		case bookingdomain.RecordClassOtbSummaryMonth:
			b.month = append(b.month, rec)
		default:
			b.detail = append(b.detail, rec)
		}
	}

	months := make([]string, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]budget.Realized, 0, len(months))
	for _, month := range months {
		b := buckets[month]
		switch {
		case len(b.total) > 0:
			out = append(out, budget.Realized{Month: month, Revenue: latestSnapshotRevenue(b.total), Source: SourceOTBTotal})
		case len(b.month) > 0:
			out = append(out, budget.Realized{Month: month, Revenue: latestSnapshotRevenue(b.month), Source: SourceOTBMonth})
		default:
			out = append(out, budget.Realized{Month: month, Revenue: NetOf(b.detail).NetRevenue, Source: SourceDetail})
		}
	}
	return out
}

func latestSnapshotRevenue(records []bookingdomain.Record) decimal.Decimal {
	var latest time.Time
	for _, rec := range records {
		if rec.SnapshotDate.After(latest) {
			latest = rec.SnapshotDate
		}
	}
	sum := decimal.Zero
	for _, rec := range records {
		if rec.IsComplimentary || !rec.SnapshotDate.Equal(latest) {
			continue
		}
		sum = sum.Add(rec.RoomRevenue)
	}
	return sum
}

func periodSeries(records []bookingdomain.Record, keyOf func(bookingdomain.Record) string) []PeriodNet {
	groups := group(records, keyOf)
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]PeriodNet, 0, len(keys))
	for _, key := range keys {
		out = append(out, PeriodNet{Period: key, Net: NetOf(groups[key])})
	}
	return out
}

// ComplimentaryList lists zero-rate records, which every revenue aggregate
// leaves out.
func ComplimentaryList(records []bookingdomain.Record) []ComplimentaryItem {
	out := []ComplimentaryItem{}
	for _, rec := range records {
		if !rec.IsComplimentary {
			continue
		}
		out = append(out, ComplimentaryItem{
			GuestName:    rec.GuestName,
			CheckInDate:  bookingdomain.FormatDate(rec.CheckInDate),
			RoomNights:   rec.RoomNights,
			Account:      rec.Account,
			RoomType:     rec.RoomType,
			Status:       rec.Status,
			SnapshotDate: bookingdomain.FormatDate(rec.SnapshotDate),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckInDate < out[j].CheckInDate })
	return out
}

func monthOf(rec bookingdomain.Record) string {
	if rec.StayMonth != "" {
		return rec.StayMonth
	}
	return derive.StayMonth(rec.CheckInDate)
}

func weekOf(rec bookingdomain.Record) string {
	if rec.StayYearWeek != "" {
		return rec.StayYearWeek
	}
	return derive.StayYearWeek(rec.CheckInDate)
}
