package reconcile

import (
	"sort"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

// PickupBetween reports, per stay month, how much net business was picked up
// between the ledger as of from and the ledger as of to. Only detail records
// take part.
func PickupBetween(records []bookingdomain.Record, from, to time.Time) Pickup {
	before := monthlyNet(Detail(Select(records, Scope{AsOf: &from})))
	after := monthlyNet(Detail(Select(records, Scope{AsOf: &to})))

	months := map[string]struct{}{}
	for month := range before {
		months[month] = struct{}{}
	}
	for month := range after {
		months[month] = struct{}{}
	}
	keys := make([]string, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Strings(keys)

	rows := make([]PickupRow, 0, len(keys))
	for _, month := range keys {
		b, a := before[month], after[month]
		rows = append(rows, PickupRow{
			Month:          month,
			FromRoomNights: b.NetRoomNights,
			ToRoomNights:   a.NetRoomNights,
			RoomNights:     a.NetRoomNights - b.NetRoomNights,
			FromRevenue:    b.NetRevenue,
			ToRevenue:      a.NetRevenue,
			Revenue:        a.NetRevenue.Sub(b.NetRevenue),
		})
	}

	return Pickup{
		From: bookingdomain.FormatDate(from),
		To:   bookingdomain.FormatDate(to),
		Rows: rows,
	}
}

func monthlyNet(records []bookingdomain.Record) map[string]Net {
	groups := group(records, monthOf)
	out := make(map[string]Net, len(groups))
	for month, recs := range groups {
		out[month] = NetOf(recs)
	}
	return out
}
