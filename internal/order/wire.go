//go:build wireinject
// +build wireinject

package order

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/internal/order/handler"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/config"
)

// InitializeHandler initializes order handler with all dependencies.
// publisher may be nil.
func InitializeHandler(db *gorm.DB, inventory domain.InventoryClient, publisher *kafka.Publisher, cfg config.Order) (*handler.OrderHandler, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewOrderHandler,
	)
	return nil, nil
}
