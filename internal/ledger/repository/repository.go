package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/smallbiznis/amber/pkg/db/option"
	"github.com/smallbiznis/amber/pkg/repository"
	"gorm.io/gorm"
)

type ledgerStore struct {
	db      *gorm.DB
	genID   *snowflake.Node
	entries repository.Repository[ledgerdomain.Entry]
}

// New returns the gorm-backed ledger store. Rows are read back in append order.
func New(conn *gorm.DB, genID *snowflake.Node) ledgerdomain.Store {
	return &ledgerStore{
		db:      conn,
		genID:   genID,
		entries: repository.ProvideStore[ledgerdomain.Entry](conn),
	}
}

func (s *ledgerStore) ReadAll(ctx context.Context) ([]ledgerdomain.Row, error) {
	entries, err := s.entries.Find(ctx, nil, option.OrderBy("id ASC"))
	if err != nil {
		return nil, classify(err)
	}

	rows := make([]ledgerdomain.Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entry.Row())
	}
	return rows, nil
}

func (s *ledgerStore) Append(ctx context.Context, rows []ledgerdomain.Row) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	entries := make([]*ledgerdomain.Entry, 0, len(rows))
	for _, row := range rows {
		entry := ledgerdomain.ToEntry(row)
		entry.ID = s.genID.Generate()
		entry.CreatedAt = now
		entries = append(entries, &entry)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.entries.WithTrx(tx).BatchCreate(ctx, entries)
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	if db.IsUnavailableErr(err) {
		return fmt.Errorf("%w: %v", ledgerdomain.ErrStoreUnavailable, err)
	}
	return err
}
