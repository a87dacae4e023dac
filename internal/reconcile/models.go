// Package reconcile aggregates ledger slices into net, period-correct
// revenue-management figures. Every function here is a pure query over the
// records it is given.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/budget"
)

// Scope selects a ledger slice. A nil AsOf selects the full ledger.
type Scope struct {
	AsOf *time.Time
}

// Net is booked minus cancelled for one slice. Complimentary bookings are
// excluded from the booked side and complimentary revenue from both sides, so
// NetX always equals BookedX - CancelledX.
type Net struct {
	BookedRoomNights    int             `json:"booked_room_nights"`
	CancelledRoomNights int             `json:"cancelled_room_nights"`
	NetRoomNights       int             `json:"net_room_nights"`
	BookedRevenue       decimal.Decimal `json:"booked_room_revenue"`
	CancelledRevenue    decimal.Decimal `json:"cancelled_room_revenue"`
	NetRevenue          decimal.Decimal `json:"net_room_revenue"`
	AverageDailyRate    decimal.Decimal `json:"average_daily_rate"`
	Bookings            int             `json:"bookings"`
	Cancellations       int             `json:"cancellations"`
}

type PeriodNet struct {
	Period string `json:"period"`
	Net
}

type Totals struct {
	Net
	Records       int `json:"records"`
	DetailRecords int `json:"detail_records"`
	OTBRecords    int `json:"otb_records"`
	Complimentary int `json:"complimentary"`
}

type BreakdownRow struct {
	Key string `json:"key"`
	Net
}

type Breakdowns struct {
	Account       []BreakdownRow `json:"account"`
	RoomType      []BreakdownRow `json:"room_type"`
	MarketSegment []BreakdownRow `json:"market_segment"`
	Nationality   []BreakdownRow `json:"nationality_group"`
	LeadTime      []BreakdownRow `json:"lead_time"`
	DayOfWeek     []BreakdownRow `json:"day_of_week"`
	RelativeMonth []BreakdownRow `json:"relative_month"`
}

type ComplimentaryItem struct {
	GuestName    string               `json:"guest_name"`
	CheckInDate  string               `json:"check_in_date"`
	RoomNights   int                  `json:"room_nights"`
	Account      string               `json:"account"`
	RoomType     string               `json:"room_type"`
	Status       bookingdomain.Status `json:"status"`
	SnapshotDate string               `json:"snapshot_date"`
}

// Result is the reconciled view of one ledger slice. NoData is set, and every
// series left empty, when the selection matched no record.
type Result struct {
	NoData        bool                 `json:"no_data"`
	AsOf          string               `json:"as_of,omitempty"`
	Totals        Totals               `json:"totals"`
	Monthly       []PeriodNet          `json:"monthly"`
	Weekly        []PeriodNet          `json:"weekly"`
	Achievement   []budget.Achievement `json:"achievement"`
	Breakdowns    Breakdowns           `json:"breakdowns"`
	Complimentary []ComplimentaryItem  `json:"complimentary"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// PickupRow is the change in net figures of one stay month between two
// snapshot dates.
type PickupRow struct {
	Month          string          `json:"month"`
	FromRoomNights int             `json:"from_room_nights"`
	ToRoomNights   int             `json:"to_room_nights"`
	RoomNights     int             `json:"pickup_room_nights"`
	FromRevenue    decimal.Decimal `json:"from_room_revenue"`
	ToRevenue      decimal.Decimal `json:"to_room_revenue"`
	Revenue        decimal.Decimal `json:"pickup_room_revenue"`
}

type Pickup struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Rows []PickupRow `json:"rows"`
}
