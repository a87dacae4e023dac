package reconcile

import (
	"sort"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

type leadTimeBucket struct {
	label string
	max   int
}

// Upper bounds are inclusive; the last bucket is open-ended.
var leadTimeBuckets = []leadTimeBucket{
	{label: "0-7", max: 7},
	{label: "8-14", max: 14},
	{label: "15-30", max: 30},
	{label: "31-60", max: 60},
	{label: "61-90", max: 90},
	{label: "91+", max: -1},
}

var weekdayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var relativeMonthOrder = []string{
	string(bookingdomain.RelativeMonthPast),
	string(bookingdomain.RelativeMonthCurrent),
	string(bookingdomain.RelativeMonthNext),
	string(bookingdomain.RelativeMonthNextNext),
	string(bookingdomain.RelativeMonthBeyond),
}

var nationalityOrder = []string{
	string(bookingdomain.NationalityKOR),
	string(bookingdomain.NationalityCHN),
	string(bookingdomain.NationalityOTH),
}

// LeadTimeBucket labels a lead time in days.
func LeadTimeBucket(days int) string {
	for _, b := range leadTimeBuckets {
		if b.max < 0 || days <= b.max {
			return b.label
		}
	}
	return leadTimeBuckets[len(leadTimeBuckets)-1].label
}

// BreakdownsOf groups detail records along each analytic dimension.
// Free-text dimensions are ordered by net revenue, fixed dimensions keep
// their natural order and omit empty groups.
func BreakdownsOf(records []bookingdomain.Record) Breakdowns {
	return Breakdowns{
		Account:       byRevenue(records, func(r bookingdomain.Record) string { return r.Account }),
		RoomType:      byRevenue(records, func(r bookingdomain.Record) string { return r.RoomType }),
		MarketSegment: byRevenue(records, func(r bookingdomain.Record) string { return r.MarketSegment }),
		Nationality:   inOrder(records, nationalityOrder, func(r bookingdomain.Record) string { return string(r.NationalityGroup) }),
		LeadTime:      inOrder(records, bucketLabels(), func(r bookingdomain.Record) string { return LeadTimeBucket(r.LeadTimeDays) }),
		DayOfWeek:     inOrder(records, weekdayOrder, func(r bookingdomain.Record) string { return r.DayOfWeek }),
		RelativeMonth: inOrder(records, relativeMonthOrder, func(r bookingdomain.Record) string { return string(r.RelativeMonth) }),
	}
}

func group(records []bookingdomain.Record, keyOf func(bookingdomain.Record) string) map[string][]bookingdomain.Record {
	groups := map[string][]bookingdomain.Record{}
	for _, rec := range records {
		key := keyOf(rec)
		groups[key] = append(groups[key], rec)
	}
	return groups
}

func byRevenue(records []bookingdomain.Record, keyOf func(bookingdomain.Record) string) []BreakdownRow {
	groups := group(records, keyOf)
	out := make([]BreakdownRow, 0, len(groups))
	for key, recs := range groups {
		out = append(out, BreakdownRow{Key: key, Net: NetOf(recs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].NetRevenue.Cmp(out[j].NetRevenue); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func inOrder(records []bookingdomain.Record, order []string, keyOf func(bookingdomain.Record) string) []BreakdownRow {
	groups := group(records, keyOf)
	out := make([]BreakdownRow, 0, len(groups))
	for _, key := range order {
		recs, ok := groups[key]
		if !ok {
			continue
		}
		out = append(out, BreakdownRow{Key: key, Net: NetOf(recs)})
		delete(groups, key)
	}

	rest := make([]string, 0, len(groups))
	for key := range groups {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		out = append(out, BreakdownRow{Key: key, Net: NetOf(groups[key])})
	}
	return out
}

func bucketLabels() []string {
	labels := make([]string, 0, len(leadTimeBuckets))
	for _, b := range leadTimeBuckets {
		labels = append(labels, b.label)
	}
	return labels
}
