// Package domain defines the append-only booking ledger: the flat row format
// written to durable storage and the contracts of its store and service.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
)

// Row is one flat, string-keyed ledger line as the store sees it. All type
// coercion happens in this package on read.
type Row map[string]string

// Column keys of a ledger row.
const (
	ColGuestName        = "guest_name"
	ColCheckInDate      = "check_in_date"
	ColBookingDate      = "booking_date"
	ColRoomCount        = "room_count"
	ColNightCount       = "night_count"
	ColRoomNights       = "room_nights"
	ColRoomRevenue      = "room_revenue"
	ColTotalRevenue     = "total_revenue"
	ColAverageDailyRate = "average_daily_rate"
	ColMarketSegment    = "market_segment"
	ColAccount          = "account"
	ColRoomType         = "room_type"
	ColNationalityRaw   = "nationality_raw"
	ColIsComplimentary  = "is_complimentary"
	ColStatus           = "status"
	ColSnapshotDate     = "snapshot_date"
	ColRecordClass      = "record_class"
	ColStayMonth        = "stay_month"
	ColStayYearWeek     = "stay_year_week"
	ColDayOfWeek        = "day_of_week"
	ColIsWeekend        = "is_weekend"
	ColLeadTimeDays     = "lead_time_days"
	ColNationalityGroup = "nationality_group"
	ColSourceFile       = "source_file"
	ColBatchID          = "batch_id"
)

// Entry is the persisted form of a Row. Columns are text: the ledger keeps the
// values exactly as they were written.
type Entry struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	BatchID          string       `gorm:"type:text;not null;index"`
	SnapshotDate     string       `gorm:"type:text;not null;index"`
	Status           string       `gorm:"type:text;not null"`
	RecordClass      string       `gorm:"type:text;not null"`
	GuestName        string       `gorm:"type:text"`
	CheckInDate      string       `gorm:"type:text;not null"`
	BookingDate      string       `gorm:"type:text"`
	RoomCount        string       `gorm:"type:text"`
	NightCount       string       `gorm:"type:text"`
	RoomNights       string       `gorm:"type:text"`
	RoomRevenue      string       `gorm:"type:text"`
	TotalRevenue     string       `gorm:"type:text"`
	AverageDailyRate string       `gorm:"type:text"`
	MarketSegment    string       `gorm:"type:text"`
	Account          string       `gorm:"type:text"`
	RoomType         string       `gorm:"type:text"`
	NationalityRaw   string       `gorm:"type:text"`
	IsComplimentary  string       `gorm:"type:text"`
	StayMonth        string       `gorm:"type:text"`
	StayYearWeek     string       `gorm:"type:text"`
	DayOfWeek        string       `gorm:"type:text"`
	IsWeekend        string       `gorm:"type:text"`
	LeadTimeDays     string       `gorm:"type:text"`
	NationalityGroup string       `gorm:"type:text"`
	SourceFile       string       `gorm:"type:text"`
	CreatedAt        time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "booking_ledger" }

// Store is the durable ledger. It only ever grows.
type Store interface {
	ReadAll(ctx context.Context) ([]Row, error)
	// Append writes every row or none.
	Append(ctx context.Context, rows []Row) error
}

// AppendResult reports a completed append.
type AppendResult struct {
	Appended     int       `json:"appended"`
	SnapshotDate time.Time `json:"snapshot_date"`
}

// ReadResult is a decoded ledger scan. Rows that could not be decoded are
// counted and skipped.
type ReadResult struct {
	Records   []bookingdomain.Record
	Malformed int
}

type Service interface {
	Append(ctx context.Context, records []bookingdomain.Record) (AppendResult, error)
	ReadAll(ctx context.Context) (ReadResult, error)
	Snapshots(ctx context.Context) ([]time.Time, error)
}
