package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/budget/repository"
	"github.com/smallbiznis/amber/internal/budget/service"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *cacheMock) Set(ctx context.Context, key string, value any) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *cacheMock) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setup(t *testing.T) (budgetdomain.Service, *gorm.DB, *cacheMock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&budgetdomain.BudgetTarget{}))

	reportCache := &cacheMock{}
	svc := service.NewService(service.Params{
		Store: repository.New(conn),
		Log:   zap.NewNop(),
		Cache: reportCache,
	})
	return svc, conn, reportCache
}

func TestUpsertNormalizesAndReplaces(t *testing.T) {
	ctx := context.Background()
	svc, _, reportCache := setup(t)
	reportCache.On("Invalidate", mock.Anything).Return(nil).Twice()

	saved, err := svc.Upsert(ctx, []budgetdomain.Target{
		{Month: "2025/5", Amount: decimal.NewFromInt(1000000)},
		{Month: "2025-04", Amount: decimal.NewFromInt(800000)},
		{Month: "202505", Amount: decimal.NewFromInt(1200000)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "2025-04", saved[0].Month)
	assert.Equal(t, "2025-05", saved[1].Month)
	assert.True(t, saved[1].Amount.Equal(decimal.NewFromInt(1200000)))

	_, err = svc.Upsert(ctx, []budgetdomain.Target{{Month: "2025-04", Amount: decimal.NewFromInt(900000)}})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-04", list[0].Month)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(900000)))
	assert.True(t, list[1].Amount.Equal(decimal.NewFromInt(1200000)))

	reportCache.AssertExpectations(t)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _, reportCache := setup(t)

	_, err := svc.Upsert(ctx, []budgetdomain.Target{{Month: "someday", Amount: decimal.NewFromInt(1)}})
	assert.ErrorIs(t, err, budgetdomain.ErrInvalidMonth)

	_, err = svc.Upsert(ctx, []budgetdomain.Target{{Month: "2025-03", Amount: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, budgetdomain.ErrInvalidTarget)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	reportCache.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestBudgetStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := setup(t)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, budgetdomain.ErrStoreUnavailable)
}
