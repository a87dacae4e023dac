package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	budgetrepository "github.com/smallbiznis/amber/internal/budget/repository"
	budgetservice "github.com/smallbiznis/amber/internal/budget/service"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	ledgerrepository "github.com/smallbiznis/amber/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/amber/internal/ledger/service"
	"github.com/smallbiznis/amber/internal/reconcile"
	reportdomain "github.com/smallbiznis/amber/internal/report/domain"
	"github.com/smallbiznis/amber/internal/report/service"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	reports reportdomain.Service
	ledger  ledgerdomain.Service
	budget  budgetdomain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerdomain.Entry{}, &budgetdomain.BudgetTarget{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(date(2025, 5, 12))
	reportCache := cache.NewMemoryReportCache(time.Minute)

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		Store: ledgerrepository.New(conn, node),
		Log:   log,
		Clock: fake,
	})
	budgetSvc := budgetservice.NewService(budgetservice.Params{
		Store: budgetrepository.New(conn),
		Log:   log,
		Cache: reportCache,
	})
	reports := service.NewService(service.Params{
		Ledger: ledgerSvc,
		Budget: budgetSvc,
		Log:    log,
		Clock:  fake,
		Cache:  reportCache,
	})
	return fixture{reports: reports, ledger: ledgerSvc, budget: budgetSvc}
}

func booked(checkIn, snapshot time.Time, rn int, revenue int64) bookingdomain.Record {
	return bookingdomain.Record{
		GuestName:    "Kim",
		CheckInDate:  checkIn,
		BookingDate:  checkIn,
		RoomCount:    rn,
		NightCount:   1,
		RoomNights:   rn,
		RoomRevenue:  decimal.NewFromInt(revenue),
		TotalRevenue: decimal.NewFromInt(revenue),
		Status:       bookingdomain.StatusBooked,
		SnapshotDate: snapshot,
		RecordClass:  bookingdomain.RecordClassDetail,
	}
}

func TestReconcileJoinsBudgetAndRefreshesAfterBudgetChange(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.ledger.Append(ctx, []bookingdomain.Record{booked(date(2025, 3, 14), date(2025, 3, 1), 5, 500000)})
	require.NoError(t, err)

	res, err := f.reports.Reconcile(ctx, reconcile.Scope{})
	require.NoError(t, err)
	require.Len(t, res.Achievement, 1)
	assert.False(t, res.Achievement[0].HasTarget)
	assert.Equal(t, 0.0, res.Achievement[0].Percent)

	_, err = f.budget.Upsert(ctx, []budgetdomain.Target{{Month: "2025-03", Amount: decimal.NewFromInt(1000000)}})
	require.NoError(t, err)

	res, err = f.reports.Reconcile(ctx, reconcile.Scope{})
	require.NoError(t, err)
	assert.True(t, res.Achievement[0].HasTarget)
	assert.Equal(t, 50.0, res.Achievement[0].Percent)
}

func TestReconcileEmptyLedgerIsNoData(t *testing.T) {
	f := setup(t)
	res, err := f.reports.Reconcile(context.Background(), reconcile.Scope{})
	require.NoError(t, err)
	assert.True(t, res.NoData)
}

func TestPickupAndSnapshots(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.ledger.Append(ctx, []bookingdomain.Record{booked(date(2025, 6, 1), date(2025, 5, 1), 2, 200000)})
	require.NoError(t, err)
	_, err = f.ledger.Append(ctx, []bookingdomain.Record{booked(date(2025, 6, 2), date(2025, 5, 3), 3, 300000)})
	require.NoError(t, err)

	snaps, err := f.reports.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-05-01", "2025-05-03"}, snaps)

	pickup, err := f.reports.Pickup(ctx, date(2025, 5, 1), date(2025, 5, 3))
	require.NoError(t, err)
	require.Len(t, pickup.Rows, 1)
	assert.Equal(t, 3, pickup.Rows[0].RoomNights)

	_, err = f.reports.Pickup(ctx, date(2025, 5, 3), date(2025, 5, 1))
	assert.ErrorIs(t, err, reportdomain.ErrInvalidRange)
	_, err = f.reports.Pickup(ctx, time.Time{}, date(2025, 5, 1))
	assert.ErrorIs(t, err, reportdomain.ErrInvalidRange)
}
