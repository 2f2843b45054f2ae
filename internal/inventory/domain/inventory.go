package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrBatchNotFound   = errors.New("batch does not belong to product")
	ErrEmptyRestock    = errors.New("restock requires at least one positive allocation")
)

// Product is a stock-keeping unit. Products are created by seeding only.
type Product struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Name        string           `json:"name" gorm:"not null"`
	Description string           `json:"description"`
	SKU         string           `json:"sku" gorm:"uniqueIndex;not null"`
	Batches     []InventoryBatch `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// InventoryBatch is a dated lot of one product. Quantity never drops below zero.
type InventoryBatch struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BatchCode  string    `json:"batch_code" gorm:"not null"`
	Quantity   int       `json:"quantity" gorm:"not null;default:0;check:chk_inventory_batches_quantity,quantity >= 0"`
	ExpiryDate time.Time `json:"expiry_date" gorm:"type:date;not null;index:idx_batches_product_expiry,priority:2"`
	ProductID  uint      `json:"product_id" gorm:"not null;index:idx_batches_product_expiry,priority:1"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// Allocation is the quantity one depletion took from, or a restock returned to, a batch
type Allocation struct {
	BatchID  uint `json:"batch_id"`
	Quantity int  `json:"quantity"`
}

// TotalQuantity sums the quantity over batches
func TotalQuantity(batches []InventoryBatch) int {
	total := 0
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}

// ProductRepository reads products
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, product *Product) error
	Count(ctx context.Context) (int64, error)
}

// BatchMutator receives the product's batches, locked and ordered by expiry,
// and changes quantities in place. Returning an error rolls the change back.
type BatchMutator func(batches []*InventoryBatch) error

// BatchRepository reads and mutates inventory batches
type BatchRepository interface {
	FindByProductID(ctx context.Context, productID uint) ([]InventoryBatch, error)
	Create(ctx context.Context, batches []InventoryBatch) error
	// Mutate runs fn in a transaction and persists every batch whose quantity changed
	Mutate(ctx context.Context, productID uint, fn BatchMutator) error
}
