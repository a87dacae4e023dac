// Package domain holds monthly revenue targets.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Target is the room-revenue budget for one stay month ("2006-01").
type Target struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"target"`
}

// BudgetTarget is the persisted row. Unlike the ledger the budget table is
// keyed by month and upserted in place.
type BudgetTarget struct {
	Month     string          `gorm:"primaryKey;type:text"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName sets the database table name.
func (BudgetTarget) TableName() string { return "budget_targets" }

type Store interface {
	ReadAll(ctx context.Context) ([]Target, error)
	Upsert(ctx context.Context, targets []Target) error
}

type Service interface {
	List(ctx context.Context) ([]Target, error)
	Upsert(ctx context.Context, targets []Target) ([]Target, error)
}
