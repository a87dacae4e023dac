package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/clock"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"github.com/smallbiznis/amber/internal/ledger/repository"
	"github.com/smallbiznis/amber/internal/ledger/service"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setup(t *testing.T, now time.Time) (ledgerdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerdomain.Entry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(now)
	svc := service.NewService(service.Params{
		Store: repository.New(conn, node),
		Log:   zap.NewNop(),
		Clock: fake,
	})
	return svc, conn, fake
}

func record(guest string, checkIn, snapshot time.Time, revenue int64) bookingdomain.Record {
	return bookingdomain.Record{
		GuestName:        guest,
		CheckInDate:      checkIn,
		BookingDate:      checkIn.AddDate(0, 0, -7),
		RoomCount:        1,
		NightCount:       2,
		RoomNights:       2,
		RoomRevenue:      decimal.NewFromInt(revenue),
		TotalRevenue:     decimal.NewFromInt(revenue),
		AverageDailyRate: decimal.NewFromInt(revenue / 2),
		MarketSegment:    "OTA",
		Account:          "Agoda",
		RoomType:         "DLX",
		NationalityRaw:   "KOR",
		Status:           bookingdomain.StatusBooked,
		SnapshotDate:     snapshot,
		RecordClass:      bookingdomain.RecordClassDetail,
		StayMonth:        "2025-05",
		StayYearWeek:     "2025-W19",
		DayOfWeek:        "Sat",
		IsWeekend:        true,
		LeadTimeDays:     7,
		NationalityGroup: bookingdomain.NationalityKOR,
	}
}

func TestAppendThenReadAll(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t, date(2025, 5, 12))

	snapshot := date(2025, 5, 12)
	res, err := svc.Append(ctx, []bookingdomain.Record{
		record("Kim", date(2025, 5, 10), snapshot, 100000),
		record("Lee", date(2025, 6, 1), snapshot, 80000),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Appended)
	assert.True(t, res.SnapshotDate.Equal(snapshot))

	read, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, read.Records, 2)
	assert.Zero(t, read.Malformed)

	first := read.Records[0]
	assert.Equal(t, "Kim", first.GuestName)
	assert.True(t, first.CheckInDate.Equal(date(2025, 5, 10)))
	assert.True(t, first.RoomRevenue.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, 2, first.RoomNights)
	assert.Equal(t, bookingdomain.RelativeMonthCurrent, first.RelativeMonth)
	assert.Equal(t, bookingdomain.RelativeMonthNext, read.Records[1].RelativeMonth)
}

func TestReadAllIsIdempotentAndAppendIsMonotonic(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t, date(2025, 5, 12))

	_, err := svc.Append(ctx, []bookingdomain.Record{record("Kim", date(2025, 5, 10), date(2025, 5, 11), 100000)})
	require.NoError(t, err)

	first, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	second, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	batch := []bookingdomain.Record{
		record("Park", date(2025, 5, 20), date(2025, 5, 12), 50000),
		record("Choi", date(2025, 5, 21), date(2025, 5, 12), 60000),
		record("Jung", date(2025, 5, 22), date(2025, 5, 12), 70000),
	}
	_, err = svc.Append(ctx, batch)
	require.NoError(t, err)

	after, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Records, len(first.Records)+len(batch))
	assert.Equal(t, first.Records, after.Records[:len(first.Records)])
}

func TestRelativeMonthFollowsProcessingDate(t *testing.T) {
	ctx := context.Background()
	svc, _, fake := setup(t, date(2025, 5, 12))

	_, err := svc.Append(ctx, []bookingdomain.Record{record("Kim", date(2025, 6, 10), date(2025, 5, 12), 100000)})
	require.NoError(t, err)

	read, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.RelativeMonthNext, read.Records[0].RelativeMonth)

	fake.Set(date(2025, 7, 1))
	read, err = svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.RelativeMonthPast, read.Records[0].RelativeMonth)
}

func TestAppendRejectsInvalidBatches(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t, date(2025, 5, 12))

	_, err := svc.Append(ctx, nil)
	assert.ErrorIs(t, err, ledgerdomain.ErrEmptyBatch)

	_, err = svc.Append(ctx, []bookingdomain.Record{
		record("Kim", date(2025, 5, 10), date(2025, 5, 11), 100000),
		record("Lee", date(2025, 5, 10), date(2025, 5, 12), 100000),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrMixedSnapshot)

	read, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, read.Records)
}

func TestReadAllSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := setup(t, date(2025, 5, 12))

	_, err := svc.Append(ctx, []bookingdomain.Record{record("Kim", date(2025, 5, 10), date(2025, 5, 11), 100000)})
	require.NoError(t, err)

	bad := ledgerdomain.Entry{
		ID:           snowflake.ID(1),
		CheckInDate:  "not a date",
		SnapshotDate: "2025-05-11",
		Status:       "booked",
	}
	require.NoError(t, conn.Create(&bad).Error)

	read, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, read.Records, 1)
	assert.Equal(t, 1, read.Malformed)
}

func TestSnapshotsAreDistinctAndSorted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t, date(2025, 5, 12))

	for _, snap := range []time.Time{date(2025, 5, 12), date(2025, 5, 10), date(2025, 5, 12)} {
		_, err := svc.Append(ctx, []bookingdomain.Record{record("Kim", date(2025, 5, 20), snap, 100000)})
		require.NoError(t, err)
	}

	snaps, err := svc.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 5, 10), date(2025, 5, 12)}, snaps)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := setup(t, date(2025, 5, 12))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.ReadAll(ctx)
	assert.ErrorIs(t, err, ledgerdomain.ErrStoreUnavailable)

	_, err = svc.Append(ctx, []bookingdomain.Record{record("Kim", date(2025, 5, 10), date(2025, 5, 11), 100000)})
	assert.ErrorIs(t, err, ledgerdomain.ErrStoreUnavailable)
}
