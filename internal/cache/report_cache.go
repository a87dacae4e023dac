package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/amber/internal/config"
)

const (
	defaultReportTTL   = 10 * time.Minute
	keyReportGen       = "amber:report:gen"
	keyReportEntryTmpl = "amber:report:%d:%s"
)

// ReportCache stores computed reports. Every ledger append or budget change
// calls Invalidate, which retires all entries at once.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

// NewReportCache picks the redis-backed cache when a client is configured and
// an in-process cache otherwise. A disabled cache never hits.
func NewReportCache(client *redis.Client, cfg config.Config) ReportCache {
	ttl := cfg.ReportCacheTTL
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	switch {
	case !cfg.ReportCacheEnabled:
		return NopReportCache{}
	case client != nil:
		return NewRedisReportCache(client, ttl)
	default:
		return NewMemoryReportCache(ttl)
	}
}

func encode(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, payload), nil
}

func decode(data []byte, dst any) error {
	payload, err := snappy.Decode(nil, data)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dst)
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &redisReportCache{client: client, ttl: ttl}
}

func (c *redisReportCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, keyReportGen).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *redisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(keyReportEntryTmpl, gen, cacheKey(key))).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key string, value any) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf(keyReportEntryTmpl, gen, cacheKey(key)), data, c.ttl).Err()
}

func (c *redisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, keyReportGen).Err()
}

type memoryEntry struct {
	data      []byte
	gen       int64
	expiresAt time.Time
}

type memoryReportCache struct {
	mu      sync.Mutex
	gen     int64
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryReportCache(ttl time.Duration) ReportCache {
	return &memoryReportCache{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (c *memoryReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[cacheKey(key)]
	gen := c.gen
	c.mu.Unlock()

	if !ok || entry.gen != gen || c.now().After(entry.expiresAt) {
		return false, nil
	}
	if err := decode(entry.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *memoryReportCache) Set(_ context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(key)] = memoryEntry{data: data, gen: c.gen, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *memoryReportCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = map[string]memoryEntry{}
	return nil
}

// NopReportCache never stores anything.
type NopReportCache struct{}

func (NopReportCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopReportCache) Set(context.Context, string, any) error         { return nil }
func (NopReportCache) Invalidate(context.Context) error               { return nil }

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
