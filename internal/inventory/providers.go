package inventory

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/inventory/cache"
	"github.com/tair/batch-allocation/internal/inventory/delivery/grpc"
	"github.com/tair/batch-allocation/internal/inventory/delivery/http"
	"github.com/tair/batch-allocation/internal/inventory/depletion"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/internal/inventory/repository"
	"github.com/tair/batch-allocation/internal/inventory/usecase/command"
	"github.com/tair/batch-allocation/internal/inventory/usecase/query"
	"github.com/tair/batch-allocation/kafka"
)

// Service is everything cmd/inventory serves or seeds
type Service struct {
	HTTP     *http.InventoryHandler
	GRPC     *grpc.InventoryGRPCServer
	Products domain.ProductRepository
	Batches  domain.BatchRepository
	Registry *depletion.Registry
}

func NewService(
	httpHandler *http.InventoryHandler,
	grpcServer *grpc.InventoryGRPCServer,
	products domain.ProductRepository,
	batches domain.BatchRepository,
	registry *depletion.Registry,
) *Service {
	return &Service{HTTP: httpHandler, GRPC: grpcServer, Products: products, Batches: batches, Registry: registry}
}

// ProvideProductRepository provides the traced product repository
func ProvideProductRepository(db *gorm.DB) domain.ProductRepository {
	return repository.NewTracingProductRepository(repository.NewGormProductRepository(db))
}

// ProvideBatchRepository provides the traced batch repository
func ProvideBatchRepository(db *gorm.DB) domain.BatchRepository {
	return repository.NewTracingBatchRepository(repository.NewGormBatchRepository(db))
}

func ProvideRegistry() (*depletion.Registry, error) {
	return depletion.NewDefaultRegistry()
}

// ProvideBatchCache returns a nil interface when Redis is disabled
func ProvideBatchCache(c *cache.BatchCache) query.BatchCache {
	if c == nil {
		return nil
	}
	return c
}

func ProvideCacheInvalidator(c *cache.BatchCache) command.CacheInvalidator {
	if c == nil {
		return nil
	}
	return c
}

// ProvideEventPublisher returns a nil interface when Kafka is disabled
func ProvideEventPublisher(p *kafka.Publisher) command.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideProductRepository,
	ProvideBatchRepository,
)

var InfrastructureSet = wire.NewSet(
	ProvideRegistry,
	ProvideBatchCache,
	ProvideCacheInvalidator,
	ProvideEventPublisher,
)

var CommandHandlerSet = wire.NewSet(
	command.NewUpdateInventoryHandler,
	command.NewRestockHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewListBatchesHandler,
	query.NewProductExistsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	InfrastructureSet,
	CommandHandlerSet,
	QueryHandlerSet,
)
