package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/config"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
)

const (
	keyUploadLock        = "amber:ingest:upload:lock"
	defaultUploadLockTTL = 2 * time.Minute
)

// UploadLock serializes uploads so that each normalize-derive-append run
// completes before the next one starts. Acquire waits until the lock is free
// or ctx ends, in which case it fails with ErrUploadInProgress.
type UploadLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// NewUploadLock uses the redis locker when one is configured, so several
// server instances share one lock, and an in-process lock otherwise.
func NewUploadLock(locker *cache.Locker, cfg config.Config) UploadLock {
	if locker == nil {
		return NewLocalUploadLock()
	}
	ttl := cfg.UploadLockTTL
	if ttl <= 0 {
		ttl = defaultUploadLockTTL
	}
	return &redisUploadLock{locker: locker, ttl: ttl}
}

type localUploadLock struct {
	slot chan struct{}
}

func NewLocalUploadLock() UploadLock {
	return &localUploadLock{slot: make(chan struct{}, 1)}
}

func (l *localUploadLock) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slot <- struct{}{}:
		return func() { <-l.slot }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ingestdomain.ErrUploadInProgress, ctx.Err())
	}
}

type redisUploadLock struct {
	locker *cache.Locker
	ttl    time.Duration
}

func (l *redisUploadLock) Acquire(ctx context.Context) (func(), error) {
	token, err := l.locker.Lock(ctx, keyUploadLock, l.ttl)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ingestdomain.ErrUploadInProgress, err)
		}
		return nil, err
	}
	return func() {
		// Release must run even when the request context is gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.locker.Release(ctx, keyUploadLock, token)
	}, nil
}
