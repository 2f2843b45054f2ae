package command

import (
	"context"
	"fmt"

	"github.com/tair/batch-allocation/internal/inventory/depletion"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/logger"
)

// CacheInvalidator drops cached batch listings after a mutation
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID uint)
}

// EventPublisher emits inventory audit events
type EventPublisher interface {
	PublishInventoryDepleted(ctx context.Context, event kafka.InventoryDepletedEvent) error
	PublishInventoryRestocked(ctx context.Context, event kafka.InventoryRestockedEvent) error
}

// UpdateInventoryCommand represents the command to deplete stock of a product
type UpdateInventoryCommand struct {
	ProductID   uint
	Quantity    int
	StrategyKey string
}

// UpdateInventoryResult is the business outcome of a depletion
type UpdateInventoryResult struct {
	ProductID         uint                `json:"product_id"`
	RequestedQuantity int                 `json:"requested_quantity"`
	Success           bool                `json:"success"`
	Strategy          string              `json:"strategy,omitempty"`
	Message           string              `json:"message"`
	Allocations       []domain.Allocation `json:"allocations"`
}

// UpdateInventoryHandler handles the depletion command
type UpdateInventoryHandler struct {
	products  domain.ProductRepository
	batches   domain.BatchRepository
	registry  *depletion.Registry
	cache     CacheInvalidator
	publisher EventPublisher
}

func NewUpdateInventoryHandler(
	products domain.ProductRepository,
	batches domain.BatchRepository,
	registry *depletion.Registry,
	cache CacheInvalidator,
	publisher EventPublisher,
) *UpdateInventoryHandler {
	return &UpdateInventoryHandler{
		products:  products,
		batches:   batches,
		registry:  registry,
		cache:     cache,
		publisher: publisher,
	}
}

// Handle depletes stock with the engine selected by StrategyKey. A missing
// product is a failed result, not an error; errors are infrastructure faults.
func (h *UpdateInventoryHandler) Handle(ctx context.Context, cmd UpdateInventoryCommand) (*UpdateInventoryResult, error) {
	if cmd.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result := &UpdateInventoryResult{
		ProductID:         cmd.ProductID,
		RequestedQuantity: cmd.Quantity,
		Allocations:       []domain.Allocation{},
	}

	exists, err := h.products.Exists(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if !exists {
		result.Message = "Failed to update inventory. Product not found."
		depletionsTotal.WithLabelValues("none", "product_not_found").Inc()
		return result, nil
	}

	engine, exact := h.registry.Lookup(cmd.StrategyKey)
	if !exact && cmd.StrategyKey != "" {
		logger.Warn(ctx).
			Str("strategy_key", cmd.StrategyKey).
			Str("fallback", engine.Key()).
			Msg("Unknown strategy key, using default engine")
	}
	result.Strategy = engine.Key()

	var outcome depletion.Result
	err = h.batches.Mutate(ctx, cmd.ProductID, func(batches []*domain.InventoryBatch) error {
		outcome = engine.Deplete(batches, cmd.Quantity)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deplete inventory: %w", err)
	}

	result.Success = outcome.Success
	if outcome.Allocations != nil {
		result.Allocations = outcome.Allocations
	}
	if outcome.Success {
		result.Message = "Inventory updated successfully"
	} else {
		result.Message = "Failed to update inventory. Insufficient stock."
	}

	taken := outcome.Taken()
	if taken > 0 && h.cache != nil {
		h.cache.Invalidate(ctx, cmd.ProductID)
	}

	depletionsTotal.WithLabelValues(engine.Key(), outcomeLabel(outcome.Success)).Inc()
	depletedUnitsTotal.WithLabelValues(engine.Key()).Add(float64(taken))

	logger.Info(ctx).
		Uint("product_id", cmd.ProductID).
		Int("requested", cmd.Quantity).
		Int("taken", taken).
		Str("strategy", engine.Key()).
		Bool("success", outcome.Success).
		Msg("Inventory depletion committed")

	h.publishDepleted(ctx, result)
	return result, nil
}

func (h *UpdateInventoryHandler) publishDepleted(ctx context.Context, result *UpdateInventoryResult) {
	if h.publisher == nil {
		return
	}

	event := kafka.InventoryDepletedEvent{
		ProductID:   result.ProductID,
		Requested:   result.RequestedQuantity,
		Strategy:    result.Strategy,
		Success:     result.Success,
		Allocations: toRecords(result.Allocations),
	}
	if err := h.publisher.PublishInventoryDepleted(ctx, event); err != nil {
		logger.Error(ctx).Err(err).Uint("product_id", result.ProductID).Msg("Failed to publish depletion event")
	}
}

func toRecords(allocations []domain.Allocation) []kafka.AllocationRecord {
	records := make([]kafka.AllocationRecord, len(allocations))
	for i, a := range allocations {
		records[i] = kafka.AllocationRecord{BatchID: a.BatchID, Quantity: a.Quantity}
	}
	return records
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "insufficient"
}
