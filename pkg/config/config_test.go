package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadInventoryDefaults(t *testing.T) {
	for _, k := range []string{"OTEL_SERVICE_NAME", "HTTP_PORT", "GRPC_PORT", "DB_NAME", "REDIS_ADDR", "KAFKA_BROKERS", "SEED_DATA", "BATCH_CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg := LoadInventory()

	assert.Equal(t, "inventory-service", cfg.ServiceName)
	assert.Equal(t, "8082", cfg.HTTPPort)
	assert.Equal(t, "9092", cfg.GRPCPort)
	assert.Equal(t, "inventorydb", cfg.Database.DBName)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.Kafka)
	assert.False(t, cfg.SeedData)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadOrderOverrides(t *testing.T) {
	t.Setenv("INVENTORY_SERVICE_URL", "http://inventory:8082/")
	t.Setenv("INVENTORY_TRANSPORT", "GRPC")
	t.Setenv("INVENTORY_TIMEOUT", "750ms")
	t.Setenv("ORDER_SAGA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("DB_NAME", "")

	cfg := LoadOrder()

	assert.Equal(t, "http://inventory:8082", cfg.InventoryURL)
	assert.Equal(t, "grpc", cfg.InventoryTransport)
	assert.Equal(t, 750*time.Millisecond, cfg.InventoryTimeout)
	assert.True(t, cfg.SagaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka)
	assert.Equal(t, "orderdb", cfg.Database.DBName)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "5")
	assert.Equal(t, 5*time.Second, GetEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("X_TIMEOUT", time.Second))
}

func TestGetEnvBoolAndInt(t *testing.T) {
	t.Setenv("X_FLAG", "nope")
	assert.True(t, GetEnvBool("X_FLAG", true))

	t.Setenv("X_NUM", "12")
	assert.Equal(t, 12, GetEnvInt("X_NUM", 3))
}
