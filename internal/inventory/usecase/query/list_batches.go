package query

import (
	"context"
	"fmt"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

// BatchCache is the read-through cache consulted before the database. Set
// must refuse a listing whose version was superseded by an invalidation.
type BatchCache interface {
	Get(ctx context.Context, productID uint) ([]domain.InventoryBatch, bool)
	Version(ctx context.Context, productID uint) (int64, bool)
	Set(ctx context.Context, productID uint, version int64, batches []domain.InventoryBatch) bool
}

// ListBatchesQuery represents the query to list a product's batches
type ListBatchesQuery struct {
	ProductID uint
}

// ListBatchesHandler handles list batches query
type ListBatchesHandler struct {
	repo  domain.BatchRepository
	cache BatchCache
}

func NewListBatchesHandler(repo domain.BatchRepository, cache BatchCache) *ListBatchesHandler {
	return &ListBatchesHandler{repo: repo, cache: cache}
}

// Handle returns the batches ordered by ascending expiry. An unknown product
// and a product without batches both yield an empty, non-nil slice.
func (h *ListBatchesHandler) Handle(ctx context.Context, q ListBatchesQuery) ([]domain.InventoryBatch, error) {
	var (
		version   int64
		cacheable bool
	)
	if h.cache != nil {
		if batches, ok := h.cache.Get(ctx, q.ProductID); ok && batches != nil {
			return batches, nil
		}
		// read before the load so a concurrent depletion invalidates this fill
		version, cacheable = h.cache.Version(ctx, q.ProductID)
	}

	batches, err := h.repo.FindByProductID(ctx, q.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	if batches == nil {
		batches = []domain.InventoryBatch{}
	}

	if cacheable {
		h.cache.Set(ctx, q.ProductID, version, batches)
	}
	return batches, nil
}
