package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. PLACED is the only status of the default flow.
const (
	StatusPlaced    = "PLACED"
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "FAILED"
)

// Order is a customer order with its line items
type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CustomerName  string          `json:"customer_name" gorm:"not null"`
	CustomerEmail string          `json:"customer_email" gorm:"not null;index"`
	OrderDate     time.Time       `json:"order_date" gorm:"not null"`
	Status        string          `json:"status" gorm:"not null;default:'PLACED'"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Items         []OrderItem     `json:"order_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"-"`
	UpdatedAt     time.Time       `json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. Items are never modified after creation.
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"-" gorm:"not null;index"`
	ProductID   uint            `json:"product_id" gorm:"not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	StrategyKey string          `json:"strategy_key,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is price times quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculateTotal sums the item subtotals
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")

	// ErrInventoryUnavailable means the inventory service could not be reached
	// or answered with a server error
	ErrInventoryUnavailable = errors.New("inventory service unavailable")
)

// InsufficientInventoryError rejects an order before anything is persisted
type InsufficientInventoryError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("Insufficient inventory for product ID %d. Requested: %d, Available: %d",
		e.ProductID, e.Requested, e.Available)
}

// OrderCancelledError reports a saga order whose depletion failed. Order holds
// the persisted order in its final CANCELLED or FAILED status.
type OrderCancelledError struct {
	Order     *Order
	ProductID uint
	Reason    string
}

func (e *OrderCancelledError) Error() string {
	return fmt.Sprintf("order %d %s: depletion of product %d failed: %s",
		e.Order.ID, e.Order.Status, e.ProductID, e.Reason)
}

// Batch is the inventory service's view of one batch
type Batch struct {
	ID         uint      `json:"id"`
	BatchCode  string    `json:"batch_code"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiry_date"`
	ProductID  uint      `json:"product_id"`
}

// Allocation is the quantity a depletion took from one batch
type Allocation struct {
	BatchID  uint `json:"batch_id"`
	Quantity int  `json:"quantity"`
}

// DepletionResult is the inventory service's answer to a depletion request
type DepletionResult struct {
	Success     bool
	Message     string
	Strategy    string
	Allocations []Allocation
}

// InventoryClient is the remote inventory boundary. CheckInventory returns an
// empty slice, not an error, when the product is unknown or has no batches.
// Errors wrap ErrInventoryUnavailable on transport faults.
type InventoryClient interface {
	CheckInventory(ctx context.Context, productID uint) ([]Batch, error)
	UpdateInventory(ctx context.Context, productID uint, quantity int, strategyKey string) (*DepletionResult, error)
	RestockInventory(ctx context.Context, productID uint, allocations []Allocation) error
}

// OrderRepository defines the contract for order data access
type OrderRepository interface {
	// Create persists the order and its items as one unit
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindAll(ctx context.Context, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}
