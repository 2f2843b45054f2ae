package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tair/batch-allocation/pkg/database"
	"github.com/tair/batch-allocation/pkg/logger"
	"github.com/tair/batch-allocation/pkg/tracing"
)

// Common holds settings shared by both services
type Common struct {
	ServiceName string
	Environment string
	LogLevel    string
	HTTPPort    string
	JaegerURL   string
	Kafka       []string
	Database    database.Config
}

// Logger returns the logger configuration derived from c
func (c Common) Logger() logger.Config {
	return logger.Config{ServiceName: c.ServiceName, Environment: c.Environment, Level: c.LogLevel}
}

// Tracing returns the tracer configuration derived from c
func (c Common) Tracing() tracing.Config {
	return tracing.Config{ServiceName: c.ServiceName, Environment: c.Environment, JaegerEndpoint: c.JaegerURL}
}

// Inventory is the configuration of the inventory service
type Inventory struct {
	Common
	GRPCPort      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	SeedData      bool
}

// Order is the configuration of the order service
type Order struct {
	Common
	InventoryURL       string
	InventoryGRPCAddr  string
	InventoryTransport string
	InventoryTimeout   time.Duration
	SagaEnabled        bool
}

// LoadInventory reads the inventory service configuration from the environment
func LoadInventory() Inventory {
	return Inventory{
		Common:        loadCommon("inventory-service", "8082", "inventorydb"),
		GRPCPort:      GetEnv("GRPC_PORT", "9092"),
		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),
		CacheTTL:      GetEnvDuration("BATCH_CACHE_TTL", 30*time.Second),
		SeedData:      GetEnvBool("SEED_DATA", false),
	}
}

// LoadOrder reads the order service configuration from the environment
func LoadOrder() Order {
	return Order{
		Common:             loadCommon("order-service", "8083", "orderdb"),
		InventoryURL:       strings.TrimRight(GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8082"), "/"),
		InventoryGRPCAddr:  GetEnv("INVENTORY_SERVICE_GRPC_ADDR", "localhost:9092"),
		InventoryTransport: strings.ToLower(GetEnv("INVENTORY_TRANSPORT", "http")),
		InventoryTimeout:   GetEnvDuration("INVENTORY_TIMEOUT", 3*time.Second),
		SagaEnabled:        GetEnvBool("ORDER_SAGA_ENABLED", false),
	}
}

func loadCommon(service, port, dbName string) Common {
	return Common{
		ServiceName: GetEnv("OTEL_SERVICE_NAME", service),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		HTTPPort:    GetEnv("HTTP_PORT", port),
		JaegerURL:   GetEnv("JAEGER_ENDPOINT", ""),
		Kafka:       GetEnvSlice("KAFKA_BROKERS"),
		Database: database.Config{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			DBName:          GetEnv("DB_NAME", dbName),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    GetEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    GetEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: GetEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func GetEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

// GetEnvDuration accepts Go duration strings ("500ms") or whole seconds ("3")
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetEnvSlice splits a comma separated variable, dropping blanks
func GetEnvSlice(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
