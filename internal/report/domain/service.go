// Package domain defines the read side over the ledger and budget stores.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/amber/internal/reconcile"
)

var ErrInvalidRange = errors.New("invalid_range")

type Service interface {
	Reconcile(ctx context.Context, scope reconcile.Scope) (reconcile.Result, error)
	Pickup(ctx context.Context, from, to time.Time) (reconcile.Pickup, error)
	Snapshots(ctx context.Context) ([]string, error)
}
