package config

import (
	"time"

	"github.com/tair/batch-allocation/pkg/config"
	"github.com/tair/batch-allocation/pkg/logger"
	"github.com/tair/batch-allocation/pkg/tracing"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name        string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	ServiceName string
	Environment string
	LogLevel    string
	JaegerURL   string

	Port        string
	CORSOrigins string
	Services    map[string]ServiceConfig

	// Redis backs rate limiting and response caching; empty disables both
	RedisAddr     string
	RedisPassword string

	RateLimit  int
	RateWindow time.Duration

	CacheTTL   time.Duration
	CachePaths []string

	BreakerFailures int
	BreakerTimeout  time.Duration
}

// LoadConfig loads the gateway configuration
func LoadConfig() *GatewayConfig {
	timeout := config.GetEnvDuration("GATEWAY_UPSTREAM_TIMEOUT", 30*time.Second)

	cachePaths := config.GetEnvSlice("GATEWAY_CACHE_PATHS")
	if len(cachePaths) == 0 {
		cachePaths = []string{"/api/inventory/strategies"}
	}

	return &GatewayConfig{
		ServiceName: config.GetEnv("OTEL_SERVICE_NAME", "api-gateway"),
		Environment: config.GetEnv("ENVIRONMENT", "development"),
		LogLevel:    config.GetEnv("LOG_LEVEL", "info"),
		JaegerURL:   config.GetEnv("JAEGER_ENDPOINT", ""),

		Port:        config.GetEnv("GATEWAY_PORT", "8000"),
		CORSOrigins: config.GetEnv("CORS_ALLOWED_ORIGINS", "*"),
		Services: map[string]ServiceConfig{
			"inventory": {
				Name:        "inventory-service",
				Instances:   instances("INVENTORY_SERVICE_URLS", "INVENTORY_SERVICE_URL", "http://localhost:8082"),
				Timeout:     timeout,
				HealthCheck: "/health",
			},
			"order": {
				Name:        "order-service",
				Instances:   instances("ORDER_SERVICE_URLS", "ORDER_SERVICE_URL", "http://localhost:8083"),
				Timeout:     timeout,
				HealthCheck: "/health",
			},
		},

		RedisAddr:     config.GetEnv("REDIS_ADDR", ""),
		RedisPassword: config.GetEnv("REDIS_PASSWORD", ""),

		RateLimit:  config.GetEnvInt("GATEWAY_RATE_LIMIT", 100),
		RateWindow: config.GetEnvDuration("GATEWAY_RATE_WINDOW", time.Minute),

		CacheTTL:   config.GetEnvDuration("GATEWAY_CACHE_TTL", 5*time.Minute),
		CachePaths: cachePaths,

		BreakerFailures: config.GetEnvInt("GATEWAY_BREAKER_FAILURES", 5),
		BreakerTimeout:  config.GetEnvDuration("GATEWAY_BREAKER_TIMEOUT", 30*time.Second),
	}
}

// Logger returns the logger configuration derived from c
func (c *GatewayConfig) Logger() logger.Config {
	return logger.Config{ServiceName: c.ServiceName, Environment: c.Environment, Level: c.LogLevel}
}

// Tracing returns the tracer configuration derived from c
func (c *GatewayConfig) Tracing() tracing.Config {
	return tracing.Config{ServiceName: c.ServiceName, Environment: c.Environment, JaegerEndpoint: c.JaegerURL}
}

// instances prefers the comma separated list and falls back to the single URL
func instances(listKey, singleKey, fallback string) []string {
	if list := config.GetEnvSlice(listKey); len(list) > 0 {
		return list
	}
	return []string{config.GetEnv(singleKey, fallback)}
}
