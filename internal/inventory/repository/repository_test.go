package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/inventory/domain"
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
		DBName:   config.GetEnv("TEST_DB_NAME", "inventorydb_test"),
		SSLMode:  "disable",
	}

	db, err := database.NewGormConnection(cfg)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&domain.Product{}, &domain.InventoryBatch{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, quantities ...int) (*domain.Product, []domain.InventoryBatch) {
	t.Helper()
	ctx := context.Background()

	product := &domain.Product{Name: "Test", SKU: "TEST-" + uuid.NewString()[:8]}
	require.NoError(t, NewGormProductRepository(db).Create(ctx, product))

	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	batches := make([]domain.InventoryBatch, len(quantities))
	for i, q := range quantities {
		batches[len(quantities)-1-i] = domain.InventoryBatch{
			BatchCode:  fmt.Sprintf("B-%d", i),
			Quantity:   q,
			ExpiryDate: base.AddDate(0, i, 0),
			ProductID:  product.ID,
		}
	}
	require.NoError(t, NewGormBatchRepository(db).Create(ctx, batches))

	t.Cleanup(func() {
		db.Where("product_id = ?", product.ID).Delete(&domain.InventoryBatch{})
		db.Delete(product)
	})
	return product, batches
}

func TestGormBatchRepository_FindByProductIDOrdersByExpiry(t *testing.T) {
	db := openTestDB(t)
	product, _ := seedProduct(t, db, 10, 20, 30)
	repo := NewGormBatchRepository(db)

	first, err := repo.FindByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{first[0].Quantity, first[1].Quantity, first[2].Quantity})

	second, err := repo.FindByProductID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGormBatchRepository_FindByProductIDMissingIsEmpty(t *testing.T) {
	db := openTestDB(t)

	batches, err := NewGormBatchRepository(db).FindByProductID(context.Background(), 987654321)
	require.NoError(t, err)
	assert.NotNil(t, batches)
	assert.Empty(t, batches)
}

func TestGormProductRepository_FindByIDNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := NewGormProductRepository(db).FindByID(context.Background(), 987654321)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGormBatchRepository_MutatePersistsChanges(t *testing.T) {
	db := openTestDB(t)
	product, _ := seedProduct(t, db, 100, 150)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()

	err := repo.Mutate(ctx, product.ID, func(batches []*domain.InventoryBatch) error {
		batches[0].Quantity = 0
		batches[1].Quantity = 130
		return nil
	})
	require.NoError(t, err)

	after, err := repo.FindByProductID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after[0].Quantity)
	assert.Equal(t, 130, after[1].Quantity)
}

func TestGormBatchRepository_MutateRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	product, _ := seedProduct(t, db, 100)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Mutate(ctx, product.ID, func(batches []*domain.InventoryBatch) error {
		batches[0].Quantity = 1
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := repo.FindByProductID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, after[0].Quantity)
}

func TestGormBatchRepository_ConcurrentMutationsDoNotLoseUpdates(t *testing.T) {
	db := openTestDB(t)
	product, _ := seedProduct(t, db, 100)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Mutate(ctx, product.ID, func(batches []*domain.InventoryBatch) error {
				batches[0].Quantity -= 5
				return nil
			})
		}()
	}
	wg.Wait()

	after, err := repo.FindByProductID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, after[0].Quantity)
}
