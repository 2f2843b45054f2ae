//go:build wireinject
// +build wireinject

package inventory

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/inventory/cache"
	"github.com/tair/batch-allocation/internal/inventory/delivery/grpc"
	"github.com/tair/batch-allocation/internal/inventory/delivery/http"
	"github.com/tair/batch-allocation/kafka"
)

// InitializeService initializes the inventory service with all dependencies.
// batchCache and publisher may be nil.
func InitializeService(db *gorm.DB, batchCache *cache.BatchCache, publisher *kafka.Publisher) (*Service, error) {
	wire.Build(
		AllHandlersSet,
		http.NewInventoryHandler,
		grpc.NewInventoryGRPCServer,
		NewService,
	)
	return nil, nil
}
