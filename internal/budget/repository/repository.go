package repository

import (
	"context"
	"fmt"
	"time"

	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/smallbiznis/amber/pkg/db/option"
	"github.com/smallbiznis/amber/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type budgetStore struct {
	db      *gorm.DB
	targets repository.Repository[budgetdomain.BudgetTarget]
}

func New(conn *gorm.DB) budgetdomain.Store {
	return &budgetStore{
		db:      conn,
		targets: repository.ProvideStore[budgetdomain.BudgetTarget](conn),
	}
}

func (s *budgetStore) ReadAll(ctx context.Context) ([]budgetdomain.Target, error) {
	rows, err := s.targets.Find(ctx, nil, option.OrderBy("month ASC"))
	if err != nil {
		return nil, classify(err)
	}

	out := make([]budgetdomain.Target, 0, len(rows))
	for _, row := range rows {
		out = append(out, budgetdomain.Target{Month: row.Month, Amount: row.Amount})
	}
	return out, nil
}

func (s *budgetStore) Upsert(ctx context.Context, targets []budgetdomain.Target) error {
	if len(targets) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]budgetdomain.BudgetTarget, 0, len(targets))
	for _, target := range targets {
		rows = append(rows, budgetdomain.BudgetTarget{
			Month:     target.Month,
			Amount:    target.Amount,
			UpdatedAt: now,
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	if db.IsUnavailableErr(err) {
		return fmt.Errorf("%w: %v", budgetdomain.ErrStoreUnavailable, err)
	}
	return err
}
