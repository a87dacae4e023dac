package repository

import (
	"context"
	"errors"
	"fmt"

	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/smallbiznis/amber/pkg/db/option"
	"github.com/smallbiznis/amber/pkg/repository"
	"gorm.io/gorm"
)

var ErrDuplicateBatch = errors.New("duplicate_batch")

type batchRepo struct {
	batches repository.Repository[ingestdomain.Batch]
}

func New(conn *gorm.DB) ingestdomain.BatchRepository {
	return &batchRepo{batches: repository.ProvideStore[ingestdomain.Batch](conn)}
}

func (r *batchRepo) Insert(ctx context.Context, batch *ingestdomain.Batch) error {
	if err := r.batches.Create(ctx, batch); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateBatch, batch.ID)
		}
		return err
	}
	return nil
}

func (r *batchRepo) List(ctx context.Context, before string, limit int) ([]*ingestdomain.Batch, error) {
	opts := []option.QueryOption{option.OrderBy("id DESC"), option.Limit(limit)}
	if before != "" {
		opts = append(opts, option.Where("id < ?", before))
	}
	return r.batches.Find(ctx, nil, opts...)
}
