// Package seed loads the sample catalogue into an empty inventory database.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/pkg/logger"
)

type batchSeed struct {
	code     string
	quantity int
	months   int
}

type productSeed struct {
	product domain.Product
	batches []batchSeed
}

var catalogue = []productSeed{
	{
		product: domain.Product{Name: "Paracetamol", Description: "Pain reliever and fever reducer", SKU: "MED-PARA-001"},
		batches: []batchSeed{{"BATCH-001", 100, 6}, {"BATCH-002", 150, 12}, {"BATCH-003", 200, 18}},
	},
	{
		product: domain.Product{Name: "Amoxicillin", Description: "Antibiotic medication", SKU: "MED-AMOX-001"},
		batches: []batchSeed{{"BATCH-004", 75, 3}, {"BATCH-005", 125, 9}},
	},
	{
		product: domain.Product{Name: "Vitamin C", Description: "Dietary supplement", SKU: "SUP-VITC-001"},
		batches: []batchSeed{{"BATCH-006", 300, 24}},
	},
}

// Run seeds products and batches when no product exists yet. Expiry dates are
// relative to now. It reports whether anything was written.
func Run(ctx context.Context, products domain.ProductRepository, batches domain.BatchRepository, now time.Time) (bool, error) {
	count, err := products.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		logger.Info(ctx).Int64("products", count).Msg("Inventory already populated, skipping seed")
		return false, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, entry := range catalogue {
		product := entry.product
		if err := products.Create(ctx, &product); err != nil {
			return false, fmt.Errorf("failed to seed product %s: %w", product.SKU, err)
		}

		rows := make([]domain.InventoryBatch, len(entry.batches))
		for i, b := range entry.batches {
			rows[i] = domain.InventoryBatch{
				BatchCode:  b.code,
				Quantity:   b.quantity,
				ExpiryDate: today.AddDate(0, b.months, 0),
				ProductID:  product.ID,
			}
		}
		if err := batches.Create(ctx, rows); err != nil {
			return false, fmt.Errorf("failed to seed batches for %s: %w", product.SKU, err)
		}
	}

	logger.Info(ctx).Int("products", len(catalogue)).Msg("Sample inventory seeded")
	return true, nil
}
