package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/batch-allocation/pkg/logger"
)

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL time.Duration
	// Paths lists the path prefixes whose GET responses may be cached.
	// Batch listings are never safe to cache here since depletions change them.
	Paths []string
}

// CacheMiddleware caches successful GET responses of the configured paths in Redis
func CacheMiddleware(redisClient *redis.Client, config CacheConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil || c.Method() != fiber.MethodGet || !isPathCacheable(c.Path(), config.Paths) {
			return c.Next()
		}
		if strings.Contains(c.Get(fiber.HeaderCacheControl), "no-cache") {
			return c.Next()
		}

		ctx := c.UserContext()
		cacheKey := generateCacheKey(c)

		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cachedResponse) > 0 {
			logger.Debug(ctx).
				Str("path", c.Path()).
				Str("cache_key", cacheKey).
				Msg("Cache hit")

			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cachedResponse)
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}

		// copy, fasthttp reuses the body buffer
		responseBody := append([]byte(nil), c.Response().Body()...)
		if err := redisClient.Set(ctx, cacheKey, responseBody, config.DefaultTTL).Err(); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("cache_key", cacheKey).
				Msg("Failed to cache response")
		}

		c.Set("X-Cache", "MISS")
		return nil
	}
}

// generateCacheKey hashes the method, path and query string
func generateCacheKey(c *fiber.Ctx) string {
	keyComponents := c.Method() + ":" + c.Path() + ":" + string(c.Request().URI().QueryString())
	hash := sha256.Sum256([]byte(keyComponents))
	return "cache:" + hex.EncodeToString(hash[:])
}

func isPathCacheable(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
