package query

import (
	"context"
	"fmt"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

type ProductExistsQuery struct {
	ProductID uint
}

// ProductExistsHandler lets the transport layer tell an unknown product apart
// from one that has no batches
type ProductExistsHandler struct {
	repo domain.ProductRepository
}

func NewProductExistsHandler(repo domain.ProductRepository) *ProductExistsHandler {
	return &ProductExistsHandler{repo: repo}
}

func (h *ProductExistsHandler) Handle(ctx context.Context, q ProductExistsQuery) (bool, error) {
	ok, err := h.repo.Exists(ctx, q.ProductID)
	if err != nil {
		return false, fmt.Errorf("failed to look up product: %w", err)
	}
	return ok, nil
}
