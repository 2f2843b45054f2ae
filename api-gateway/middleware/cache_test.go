package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMiddleware(t *testing.T) {
	_, client := newRedis(t)

	hits := map[string]int{}
	app := fiber.New()
	app.Use(CacheMiddleware(client, CacheConfig{
		DefaultTTL: time.Minute,
		Paths:      []string{"/api/inventory/strategies"},
	}))
	app.Get("/api/inventory/strategies", func(c *fiber.Ctx) error {
		hits[c.Path()]++
		return c.JSON(fiber.Map{"strategies": []string{"STANDARD", "ATOMIC"}})
	})
	app.Get("/api/inventory/:id", func(c *fiber.Ctx) error {
		hits[c.Path()]++
		return c.JSON(fiber.Map{"batches": hits[c.Path()]})
	})
	app.Get("/api/inventory/strategies/broken", func(c *fiber.Ctx) error {
		hits[c.Path()]++
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	get := func(path string, headers ...string) (string, string) {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.Header.Get("X-Cache"), string(body)
	}

	t.Run("allowlisted path is served from cache", func(t *testing.T) {
		state, first := get("/api/inventory/strategies")
		assert.Equal(t, "MISS", state)

		state, second := get("/api/inventory/strategies")
		assert.Equal(t, "HIT", state)
		assert.JSONEq(t, first, second)
		assert.Equal(t, 1, hits["/api/inventory/strategies"])
	})

	t.Run("no-cache bypasses", func(t *testing.T) {
		state, _ := get("/api/inventory/strategies", fiber.HeaderCacheControl, "no-cache")
		assert.Empty(t, state)
		assert.Equal(t, 2, hits["/api/inventory/strategies"])
	})

	t.Run("batch listings are never cached", func(t *testing.T) {
		get("/api/inventory/7")
		state, body := get("/api/inventory/7")
		assert.Empty(t, state)
		assert.JSONEq(t, `{"batches":2}`, body)
	})

	t.Run("errors are not stored", func(t *testing.T) {
		get("/api/inventory/strategies/broken")
		get("/api/inventory/strategies/broken")
		assert.Equal(t, 2, hits["/api/inventory/strategies/broken"])
	})
}

func TestIsPathCacheable(t *testing.T) {
	paths := []string{"/api/inventory/strategies"}
	assert.True(t, isPathCacheable("/api/inventory/strategies", paths))
	assert.False(t, isPathCacheable("/api/inventory/1", paths))
	assert.False(t, isPathCacheable("/api/inventory/strategies", nil))
}
