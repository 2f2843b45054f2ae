package routes

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/batch-allocation/api-gateway/config"
	"github.com/tair/batch-allocation/api-gateway/health"
	"github.com/tair/batch-allocation/api-gateway/middleware"
	"github.com/tair/batch-allocation/api-gateway/proxy"
)

// RouteDefinition maps a public prefix to a backend service
type RouteDefinition struct {
	Prefix      string `json:"prefix"`
	ServiceName string `json:"service"`
	// Rewrite replaces Prefix in the upstream path
	Rewrite     string `json:"rewrite"`
	Description string `json:"description"`
}

// Routes holds all route definitions
var Routes = []RouteDefinition{
	{
		Prefix:      "/api/inventory",
		ServiceName: "inventory",
		Rewrite:     "/inventory",
		Description: "Batch listing, depletion, restock and strategies",
	},
	{
		Prefix:      "/api/order",
		ServiceName: "order",
		Rewrite:     "/order",
		Description: "Order placement and lookup",
	},
}

// UpstreamPath rewrites a gateway path for the backend
func (r RouteDefinition) UpstreamPath(path string) string {
	return r.Rewrite + strings.TrimPrefix(path, r.Prefix)
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig, cbManager *middleware.CircuitBreakerManager) {
	reverseProxy := proxy.NewReverseProxy(cfg)
	healthChecker := health.NewHealthChecker(cfg)

	// Gateway quick health check (no downstream checks)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	// Liveness probe
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	// Readiness probe (checks downstream services)
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := healthChecker.CheckAllServices(ctx)

		code := fiber.StatusOK
		if status.Status == health.StatusUnhealthy {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(status)
	})

	// Detailed service health checks
	app.Get("/health/services", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		return c.JSON(healthChecker.CheckAllServices(ctx))
	})

	app.Get("/gateway/stats", func(c *fiber.Ctx) error {
		balancers := fiber.Map{}
		for name, lb := range reverseProxy.GetLoadBalancers() {
			balancers[name] = lb.GetStats()
		}
		return c.JSON(fiber.Map{
			"circuit_breakers": cbManager.GetAllStats(),
			"load_balancers":   balancers,
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes overview
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "API Gateway",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	for _, route := range Routes {
		registerServiceRoutes(app, route, reverseProxy, cbManager)
	}
}

// registerServiceRoutes registers all HTTP methods for a service prefix
func registerServiceRoutes(app *fiber.App, route RouteDefinition, reverseProxy *proxy.ReverseProxy, cbManager *middleware.CircuitBreakerManager) {
	handler := func(c *fiber.Ctx) error {
		return reverseProxy.ProxyRequest(c, route.ServiceName, route.UpstreamPath(c.Path()))
	}

	group := app.Group(route.Prefix, middleware.CircuitBreakerMiddleware(cbManager, route.ServiceName))
	group.All("/", handler)
	group.All("/*", handler)
}
