package command

import (
	"context"
	"fmt"

	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/logger"
)

// RestockCommand credits allocations returned by an earlier depletion back
// to the batches they came from
type RestockCommand struct {
	ProductID   uint
	Allocations []domain.Allocation
}

type RestockHandler struct {
	products  domain.ProductRepository
	batches   domain.BatchRepository
	cache     CacheInvalidator
	publisher EventPublisher
}

func NewRestockHandler(
	products domain.ProductRepository,
	batches domain.BatchRepository,
	cache CacheInvalidator,
	publisher EventPublisher,
) *RestockHandler {
	return &RestockHandler{products: products, batches: batches, cache: cache, publisher: publisher}
}

// Handle returns the number of units credited. Either every allocation is
// applied or none is.
func (h *RestockHandler) Handle(ctx context.Context, cmd RestockCommand) (int, error) {
	if cmd.ProductID == 0 {
		return 0, domain.ErrInvalidProduct
	}

	total := 0
	for _, a := range cmd.Allocations {
		if a.Quantity < 0 {
			return 0, domain.ErrInvalidQuantity
		}
		total += a.Quantity
	}
	if total == 0 {
		return 0, domain.ErrEmptyRestock
	}

	exists, err := h.products.Exists(ctx, cmd.ProductID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up product: %w", err)
	}
	if !exists {
		return 0, domain.ErrProductNotFound
	}

	err = h.batches.Mutate(ctx, cmd.ProductID, func(batches []*domain.InventoryBatch) error {
		byID := make(map[uint]*domain.InventoryBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}
		for _, a := range cmd.Allocations {
			b, ok := byID[a.BatchID]
			if !ok {
				return fmt.Errorf("batch %d: %w", a.BatchID, domain.ErrBatchNotFound)
			}
			b.Quantity += a.Quantity
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to restock inventory: %w", err)
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, cmd.ProductID)
	}
	restockedUnitsTotal.Add(float64(total))

	logger.Info(ctx).
		Uint("product_id", cmd.ProductID).
		Int("units", total).
		Int("batches", len(cmd.Allocations)).
		Msg("Inventory restocked")

	if h.publisher != nil {
		event := kafka.InventoryRestockedEvent{
			ProductID:   cmd.ProductID,
			Allocations: toRecords(cmd.Allocations),
		}
		if err := h.publisher.PublishInventoryRestocked(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("product_id", cmd.ProductID).Msg("Failed to publish restock event")
		}
	}

	return total, nil
}
