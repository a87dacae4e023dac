package domain

import "errors"

var (
	ErrStoreUnavailable = errors.New("ledger_store_unavailable")
	ErrEmptyBatch       = errors.New("empty_batch")
	ErrMixedSnapshot    = errors.New("mixed_snapshot_dates")
	ErrMalformedRow     = errors.New("malformed_ledger_row")
)
