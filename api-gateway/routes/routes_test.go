package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/api-gateway/config"
	"github.com/tair/batch-allocation/api-gateway/middleware"
)

func TestUpstreamPath(t *testing.T) {
	inventory := Routes[0]
	assert.Equal(t, "/inventory/3", inventory.UpstreamPath("/api/inventory/3"))
	assert.Equal(t, "/inventory", inventory.UpstreamPath("/api/inventory"))
	assert.Equal(t, "/order/12", Routes[1].UpstreamPath("/api/order/12"))
}

func TestSetupRoutes(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
	reset := func() {
		mu.Lock()
		paths = nil
		mu.Unlock()
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()
		if r.URL.Path == "/order/500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	cfg := &config.GatewayConfig{
		ServiceName: "api-gateway",
		Services: map[string]config.ServiceConfig{
			"inventory": {Instances: []string{backend.URL}, Timeout: time.Second, HealthCheck: "/health"},
			"order":     {Instances: []string{backend.URL}, Timeout: time.Second, HealthCheck: "/health"},
		},
	}
	cbManager := middleware.NewCircuitBreakerManager(1, time.Minute)

	app := fiber.New()
	SetupRoutes(app, cfg, cbManager)

	do := func(method, path string) *http.Response {
		resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
		require.NoError(t, err)
		return resp
	}

	t.Run("service prefixes are rewritten", func(t *testing.T) {
		reset()
		assert.Equal(t, http.StatusOK, do(fiber.MethodGet, "/api/inventory/7?limit=5").StatusCode)
		assert.Equal(t, http.StatusOK, do(fiber.MethodPost, "/api/order").StatusCode)
		assert.Equal(t, http.StatusOK, do(fiber.MethodGet, "/api/inventory/strategies").StatusCode)
		assert.Equal(t, []string{
			"GET /inventory/7?limit=5",
			"POST /order",
			"GET /inventory/strategies",
		}, seen())
	})

	t.Run("readiness probes backends", func(t *testing.T) {
		reset()
		resp := do(fiber.MethodGet, "/health/ready")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, seen(), 2)
	})

	t.Run("breaker opens per service", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, do(fiber.MethodGet, "/api/order/500").StatusCode)
		assert.Equal(t, http.StatusServiceUnavailable, do(fiber.MethodGet, "/api/order/1").StatusCode)
		assert.Equal(t, http.StatusOK, do(fiber.MethodGet, "/api/inventory/1").StatusCode)
	})

	t.Run("stats", func(t *testing.T) {
		resp := do(fiber.MethodGet, "/gateway/stats")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats struct {
			CircuitBreakers map[string]map[string]any `json:"circuit_breakers"`
			LoadBalancers   map[string]any            `json:"load_balancers"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		assert.Equal(t, "open", stats.CircuitBreakers["order"]["state"])
		assert.Equal(t, "closed", stats.CircuitBreakers["inventory"]["state"])
		assert.Len(t, stats.LoadBalancers, 2)
	})

	t.Run("gateway endpoints", func(t *testing.T) {
		for _, path := range []string{"/", "/health", "/health/live", "/metrics"} {
			assert.Equal(t, http.StatusOK, do(fiber.MethodGet, path).StatusCode, path)
		}
	})
}
