package order

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/internal/order/repository"
	"github.com/tair/batch-allocation/internal/order/usecase/command"
	"github.com/tair/batch-allocation/internal/order/usecase/query"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/config"
)

// ProvideOrderRepository provides the traced order repository
func ProvideOrderRepository(db *gorm.DB) domain.OrderRepository {
	return repository.NewTracingOrderRepository(repository.NewGormOrderRepository(db))
}

// ProvideOrderPublisher returns a nil interface when Kafka is disabled
func ProvideOrderPublisher(p *kafka.Publisher) command.OrderPublisher {
	if p == nil {
		return nil
	}
	return p
}

// Command Handlers Providers
func ProvideCreateOrderHandler(
	repo domain.OrderRepository,
	inventory domain.InventoryClient,
	publisher command.OrderPublisher,
	cfg config.Order,
) *command.CreateOrderHandler {
	return command.NewCreateOrderHandler(repo, inventory, publisher, cfg.SagaEnabled)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideOrderRepository,
)

var CommandHandlerSet = wire.NewSet(
	ProvideOrderPublisher,
	ProvideCreateOrderHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetOrderHandler,
	query.NewListOrdersHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)
