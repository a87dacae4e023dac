package domain

import "errors"

var (
	ErrStoreUnavailable = errors.New("budget_store_unavailable")
	ErrInvalidMonth     = errors.New("invalid_month")
	ErrInvalidTarget    = errors.New("invalid_target")
)
