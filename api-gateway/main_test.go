package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/api-gateway/config"
	"github.com/tair/batch-allocation/api-gateway/middleware"
)

func testConfig(backendURL string) *config.GatewayConfig {
	return &config.GatewayConfig{
		ServiceName: "api-gateway",
		CORSOrigins: "*",
		Services: map[string]config.ServiceConfig{
			"inventory": {Instances: []string{backendURL}, Timeout: time.Second, HealthCheck: "/health"},
			"order":     {Instances: []string{backendURL}, Timeout: time.Second, HealthCheck: "/health"},
		},
		RateLimit:       2,
		RateWindow:      time.Minute,
		CacheTTL:        time.Minute,
		CachePaths:      []string{"/api/inventory/strategies"},
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
}

func TestNewAppForwardsRequestID(t *testing.T) {
	var requestID string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(fiber.HeaderXRequestID)
	}))
	defer backend.Close()

	cfg := testConfig(backend.URL)
	app := NewApp(cfg, nil, middleware.NewCircuitBreakerManager(cfg.BreakerFailures, cfg.BreakerTimeout))

	req := httptest.NewRequest(fiber.MethodGet, "/api/inventory/1", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, "req-42", resp.Header.Get(fiber.HeaderXRequestID))
	assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
}

func TestNewAppWithRedis(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":["STANDARD"]}`))
	}))
	defer backend.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig(backend.URL)
	app := NewApp(cfg, client, middleware.NewCircuitBreakerManager(cfg.BreakerFailures, cfg.BreakerTimeout))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/inventory/strategies", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/inventory/strategies", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/inventory/strategies", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestCustomErrorHandler(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	app := NewApp(cfg, nil, middleware.NewCircuitBreakerManager(cfg.BreakerFailures, cfg.BreakerTimeout))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
