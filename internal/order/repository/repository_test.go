package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/pkg/config"
	"github.com/tair/batch-allocation/pkg/database"
)

// openTestDB connects to the Postgres described by TEST_DB_* and skips when
// none is reachable.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := database.Config{
		Host:     config.GetEnv("TEST_DB_HOST", "localhost"),
		Port:     config.GetEnv("TEST_DB_PORT", "5432"),
		User:     config.GetEnv("TEST_DB_USER", "postgres"),
		Password: config.GetEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   config.GetEnv("TEST_DB_NAME", "orderdb_test"),
		SSLMode:  "disable",
	}

	db, err := database.NewGormConnection(cfg)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&domain.Order{}, &domain.OrderItem{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newOrder() *domain.Order {
	items := []domain.OrderItem{
		{ProductID: 1, Quantity: 5, Price: decimal.RequireFromString("10.50"), StrategyKey: "STANDARD"},
		{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("3.25")},
	}
	return &domain.Order{
		CustomerName:  "John Doe",
		CustomerEmail: "john@example.com",
		OrderDate:     time.Now().UTC(),
		Status:        domain.StatusPlaced,
		TotalAmount:   domain.CalculateTotal(items),
		Items:         items,
	}
}

func TestCreateAndFindOrder(t *testing.T) {
	repo := NewTracingOrderRepository(NewGormOrderRepository(openTestDB(t)))
	ctx := context.Background()

	order := newOrder()
	require.NoError(t, repo.Create(ctx, order))
	require.NotZero(t, order.ID)
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.OrderID)
	}

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", found.CustomerName)
	require.Len(t, found.Items, 2)
	assert.Equal(t, uint(1), found.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("55.75").Equal(found.TotalAmount))
}

func TestFindOrderNotFound(t *testing.T) {
	repo := NewGormOrderRepository(openTestDB(t))
	_, err := repo.FindByID(context.Background(), 999999999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo := NewGormOrderRepository(openTestDB(t))
	ctx := context.Background()

	order := newOrder()
	order.Status = domain.StatusPending
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusConfirmed))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999999999, domain.StatusCancelled), domain.ErrOrderNotFound)
}

func TestFindAllIncludesItems(t *testing.T) {
	repo := NewGormOrderRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder()))
	orders, err := repo.FindAll(ctx, 1000, 0)
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		assert.NotEmpty(t, o.Items)
	}
}
