package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error
	return count, err
}

type GormBatchRepository struct {
	db *gorm.DB
}

func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByProductID returns the product's batches, earliest expiry first.
// Ties are broken by id so repeated reads return the same sequence.
func (r *GormBatchRepository) FindByProductID(ctx context.Context, productID uint) ([]domain.InventoryBatch, error) {
	batches := []domain.InventoryBatch{}
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("expiry_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *GormBatchRepository) Create(ctx context.Context, batches []domain.InventoryBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batches).Error
}

// Mutate locks the product's batch rows (SELECT ... FOR UPDATE) for the
// lifetime of the transaction, so concurrent depletions of one product are
// serialized instead of overwriting each other's decrement.
func (r *GormBatchRepository) Mutate(ctx context.Context, productID uint, fn domain.BatchMutator) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []domain.InventoryBatch
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID).
			Order("expiry_date ASC").
			Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to lock batches: %w", err)
		}

		before := make(map[uint]int, len(rows))
		batches := make([]*domain.InventoryBatch, len(rows))
		for i := range rows {
			before[rows[i].ID] = rows[i].Quantity
			batches[i] = &rows[i]
		}

		if err := fn(batches); err != nil {
			return err
		}

		for _, b := range batches {
			if before[b.ID] == b.Quantity {
				continue
			}
			if b.Quantity < 0 {
				return fmt.Errorf("batch %d would go negative", b.ID)
			}
			if err := tx.Model(&domain.InventoryBatch{}).
				Where("id = ?", b.ID).
				Update("quantity", b.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update batch %d: %w", b.ID, err)
			}
		}
		return nil
	})
}
