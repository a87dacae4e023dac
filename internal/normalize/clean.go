package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/sheet"
)

// Row is one cleaned input line with every canonical field typed. Booking is
// zero when the source booking date was missing or unparsable.
type Row struct {
	Line  int
	Class bookingdomain.RecordClass

	GuestName     string
	CheckIn       time.Time
	Booking       time.Time
	RoomCount     int
	NightCount    int
	RoomRevenue   decimal.Decimal
	TotalRevenue  decimal.Decimal
	MarketSegment string
	Account       string
	RoomType      string
	Nationality   string
}

// DropReason names why an input line did not become a row.
type DropReason string

const (
	DropMissingGuestName  DropReason = "missing_guest_name"
	DropSubtotalRow       DropReason = "subtotal_row"
	DropUnparsableCheckIn DropReason = "unparsable_check_in"
	DropUnparsableStay    DropReason = "unparsable_stay_date"
	DropShortRow          DropReason = "short_row"
)

// Drops counts dropped lines per reason.
type Drops map[DropReason]int

func (d Drops) add(reason DropReason) {
	d[reason]++
}

// Total is the number of dropped lines.
func (d Drops) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Counts returns the drops keyed by plain strings, for logs and JSON.
func (d Drops) Counts() map[string]int {
	out := make(map[string]int, len(d))
	for reason, n := range d {
		out[string(reason)] = n
	}
	return out
}

// Reasons returns the reasons present, sorted.
func (d Drops) Reasons() []DropReason {
	out := make([]DropReason, 0, len(d))
	for reason := range d {
		out = append(out, reason)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CleanDetail turns a mapped detail list into rows. Blank lines are skipped;
// totals lines, lines without a guest name and lines whose check-in date does
// not parse are dropped and counted.
func CleanDetail(m MappedTable, rules Ruleset) ([]Row, Drops) {
	drops := Drops{}
	rows := make([]Row, 0, len(m.Rows))

	for i, line := range m.Rows {
		if sheet.IsBlank(line) {
			continue
		}
		if rules.IsSubtotalLabel(firstCell(line)) {
			drops.add(DropSubtotalRow)
			continue
		}
		if m.Has(FieldGuestName) {
			guest := strings.TrimSpace(m.Raw(line, FieldGuestName))
			if guest == "" {
				drops.add(DropMissingGuestName)
				continue
			}
			if rules.IsSubtotalLabel(guest) {
				drops.add(DropSubtotalRow)
				continue
			}
		}

		checkIn, ok := ParseDate(m.Raw(line, FieldCheckInDate))
		if !ok {
			drops.add(DropUnparsableCheckIn)
			continue
		}
		booking, _ := ParseDate(m.Raw(line, FieldBookingDate))

		rows = append(rows, Row{
			Line:          i,
			Class:         bookingdomain.RecordClassDetail,
			GuestName:     m.Text(line, FieldGuestName),
			CheckIn:       checkIn,
			Booking:       booking,
			RoomCount:     ParseCount(m.Raw(line, FieldRoomCount)),
			NightCount:    ParseCount(m.Raw(line, FieldNightCount)),
			RoomRevenue:   ParseAmount(m.Raw(line, FieldRoomRevenue)),
			TotalRevenue:  ParseAmount(m.Raw(line, FieldTotalRevenue)),
			MarketSegment: m.Text(line, FieldMarketSegment),
			Account:       m.Text(line, FieldAccount),
			RoomType:      m.Text(line, FieldRoomType),
			Nationality:   m.Text(line, FieldNationality),
		})
	}
	return rows, drops
}

// otbFigures are the grand totals read from a summary line's trailing block.
type otbFigures struct {
	roomNights int
	revenue    decimal.Decimal
}

func readTrailingBlock(line []string, block TrailingBlock, edge int) otbFigures {
	roomNights := ParseCount(cellAt(line, block.RoomNightsOffset, edge))
	adr := ParseAmount(cellAt(line, block.ADROffset, edge))
	revenue := ParseAmount(cellAt(line, block.RevenueOffset, edge))
	if revenue.IsZero() && adr.IsPositive() && roomNights > 0 {
		revenue = adr.Mul(decimal.NewFromInt(int64(roomNights)))
	}
	return otbFigures{roomNights: roomNights, revenue: revenue}
}

// ExtractSummary turns an OTB occupancy table into rows. Each line is keyed by
// the stay-date label in its first non-empty cell; room-nights, ADR and revenue
// are read from the trailing block at the table's right edge, never from named
// columns.
//
// For OtbSummaryMonth every dated line becomes one row and totals lines are
// dropped. For OtbSummaryTotal rows are per stay month: a totals line closes
// the month of the dated lines above it and supplies its figures, a line
// labelled with a bare month is taken as that month's totals, and dated lines
// with no totals line below them are summed.
func ExtractSummary(t sheet.Table, class bookingdomain.RecordClass, block TrailingBlock, rules Ruleset) ([]Row, Drops) {
	drops := Drops{}
	unknown := rules.Unknown()
	edge := tableWidth(t)
	// A line is short when it ends before the trailing block begins.
	short := func(line []string) bool {
		return edge < block.Width() || len(line) <= edge-block.Width()
	}

	newRow := func(line int, stay time.Time, f otbFigures) Row {
		return Row{
			Line:          line,
			Class:         class,
			GuestName:     bookingdomain.OTBGuestName,
			CheckIn:       stay,
			Booking:       stay,
			RoomCount:     f.roomNights,
			NightCount:    1,
			RoomRevenue:   f.revenue,
			TotalRevenue:  f.revenue,
			MarketSegment: unknown,
			Account:       unknown,
			RoomType:      unknown,
			Nationality:   unknown,
		}
	}

	var rows []Row
	if class != bookingdomain.RecordClassOtbSummaryTotal {
		for i, line := range t.Rows {
			if sheet.IsBlank(line) {
				continue
			}
			key := firstCell(line)
			if rules.IsSubtotalLabel(key) {
				drops.add(DropSubtotalRow)
				continue
			}
			stay, ok := ParseDate(key)
			if !ok {
				drops.add(DropUnparsableStay)
				continue
			}
			if short(line) {
				drops.add(DropShortRow)
				continue
			}
			rows = append(rows, newRow(i, stay, readTrailingBlock(line, block, edge)))
		}
		return rows, drops
	}

	var (
		pending     *Row
		pendingFrom time.Time
	)
	flush := func() {
		if pending != nil {
			rows = append(rows, *pending)
			pending = nil
		}
	}

	for i, line := range t.Rows {
		if sheet.IsBlank(line) {
			continue
		}
		key := firstCell(line)

		if rules.IsSubtotalLabel(key) {
			if pending == nil || short(line) {
				drops.add(DropSubtotalRow)
				continue
			}
			rows = append(rows, newRow(i, pendingFrom, readTrailingBlock(line, block, edge)))
			pending = nil
			continue
		}

		if short(line) {
			drops.add(DropShortRow)
			continue
		}

		if month, ok := parseBareMonth(key); ok {
			flush()
			rows = append(rows, newRow(i, month, readTrailingBlock(line, block, edge)))
			continue
		}

		stay, ok := ParseDate(key)
		if !ok {
			drops.add(DropUnparsableStay)
			continue
		}
		month := time.Date(stay.Year(), stay.Month(), 1, 0, 0, 0, 0, time.UTC)
		if pending != nil && !pendingFrom.Equal(month) {
			flush()
		}
		f := readTrailingBlock(line, block, edge)
		if pending == nil {
			row := newRow(i, month, f)
			pending = &row
			pendingFrom = month
			continue
		}
		pending.RoomCount += f.roomNights
		pending.RoomRevenue = pending.RoomRevenue.Add(f.revenue)
		pending.TotalRevenue = pending.RoomRevenue
	}
	flush()
	return rows, drops
}

// parseBareMonth accepts month labels only; full dates are rejected.
func parseBareMonth(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func firstCell(line []string) string {
	for _, cell := range line {
		if trimmed := strings.TrimSpace(cell); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// tableWidth is the right edge trailing offsets count from. Readers drop
// trailing empty cells, so single lines may be narrower than the table.
func tableWidth(t sheet.Table) int {
	width := len(t.Header)
	for _, line := range t.Rows {
		if len(line) > width {
			width = len(line)
		}
	}
	return width
}

// cellAt reads a cell by offset; negative offsets count from edge.
func cellAt(line []string, offset, edge int) string {
	idx := offset
	if offset < 0 {
		idx = edge + offset
	}
	return sheet.Cell(line, idx)
}
