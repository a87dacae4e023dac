// Package budget joins realized monthly revenue against monthly targets.
package budget

import (
	"github.com/shopspring/decimal"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
)

// Realized is the realized room revenue of one stay month and the record
// class it was sourced from.
type Realized struct {
	Month   string
	Revenue decimal.Decimal
	Source  string
}

type Achievement struct {
	Month     string          `json:"month"`
	Realized  decimal.Decimal `json:"realized_room_revenue"`
	Target    decimal.Decimal `json:"target"`
	HasTarget bool            `json:"has_target"`
	Percent   float64         `json:"achievement_pct"`
	Source    string          `json:"source"`
}

// Join left-joins realized against targets by month. Every realized month
// yields exactly one row in input order; months without a positive target
// report a zero target, HasTarget false and 0%.
func Join(realized []Realized, targets []budgetdomain.Target) []Achievement {
	byMonth := make(map[string]decimal.Decimal, len(targets))
	for _, t := range targets {
		byMonth[t.Month] = t.Amount
	}

	out := make([]Achievement, 0, len(realized))
	for _, r := range realized {
		target, ok := byMonth[r.Month]
		if !ok {
			target = decimal.Zero
		}
		out = append(out, Achievement{
			Month:     r.Month,
			Realized:  r.Revenue,
			Target:    target,
			HasTarget: target.IsPositive(),
			Percent:   Percent(r.Revenue, target),
			Source:    r.Source,
		})
	}
	return out
}

// Percent returns realized / target × 100 rounded to two places, or 0 when
// the target is not positive.
func Percent(realized, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	return realized.Div(target).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
