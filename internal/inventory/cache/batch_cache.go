package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/pkg/logger"
)

const (
	keyPrefix     = "inventory:batches:"
	versionPrefix = "inventory:batches:version:"
)

// storeIfVersion writes the listing only while the product's version still
// matches the one read before the database load. A missing version is 0.
var storeIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// BatchCache keeps serialized batch listings in Redis. Redis faults are
// logged and treated as misses; the database stays the source of truth.
// A nil *BatchCache is valid and caches nothing.
type BatchCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewBatchCache(client redis.UniversalClient, ttl time.Duration) *BatchCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BatchCache{client: client, ttl: ttl}
}

// Connect builds a Redis client for addr and verifies it with PING. An empty
// addr or a failed ping yields a nil cache, which disables caching.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) *BatchCache {
	if addr == "" {
		logger.Logger.Info().Msg("REDIS_ADDR not set, batch cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("addr", addr).Msg("Redis unreachable, batch cache disabled")
		client.Close()
		return nil
	}

	logger.Logger.Info().Str("addr", addr).Dur("ttl", ttl).Msg("Batch cache connected")
	return NewBatchCache(client, ttl)
}

func key(productID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, productID)
}

func versionKey(productID uint) string {
	return fmt.Sprintf("%s%d", versionPrefix, productID)
}

// Version returns the product's invalidation counter. Read it before loading
// from the database and hand it to Set.
func (c *BatchCache) Version(ctx context.Context, productID uint) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, err := c.client.Get(ctx, versionKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Batch cache version read failed")
		return 0, false
	}
	return v, true
}

// Get returns the cached listing and whether it was present
func (c *BatchCache) Get(ctx context.Context, productID uint) ([]domain.InventoryBatch, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Batch cache read failed")
		return nil, false
	}

	var batches []domain.InventoryBatch
	if err := json.Unmarshal(raw, &batches); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Discarding corrupt cache entry")
		c.Invalidate(ctx, productID)
		return nil, false
	}
	return batches, true
}

// Set stores a listing loaded at version. It is dropped, and false returned,
// when an Invalidate ran since that version was read.
func (c *BatchCache) Set(ctx context.Context, productID uint, version int64, batches []domain.InventoryBatch) bool {
	if c == nil {
		return false
	}
	raw, err := json.Marshal(batches)
	if err != nil {
		return false
	}

	stored, err := storeIfVersion.Run(ctx, c.client,
		[]string{key(productID), versionKey(productID)},
		strconv.FormatInt(version, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Batch cache write failed")
		return false
	}
	if stored == 0 {
		logger.Debug(ctx).Uint("product_id", productID).Msg("Skipping stale batch listing")
		return false
	}
	return true
}

// Invalidate bumps the product's version and drops its listing in one
// transaction, so reads that started earlier cannot repopulate it.
func (c *BatchCache) Invalidate(ctx context.Context, productID uint) {
	if c == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(productID))
		pipe.Del(ctx, key(productID))
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Batch cache invalidation failed")
	}
}

func (c *BatchCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
