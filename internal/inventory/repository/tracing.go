package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingBatchRepository wraps a BatchRepository with spans
type TracingBatchRepository struct {
	next domain.BatchRepository
}

func NewTracingBatchRepository(next domain.BatchRepository) *TracingBatchRepository {
	return &TracingBatchRepository{next: next}
}

func (r *TracingBatchRepository) FindByProductID(ctx context.Context, productID uint) ([]domain.InventoryBatch, error) {
	ctx, span := tracer.Start(ctx, "repository.FindBatches",
		trace.WithAttributes(attribute.Int("inventory.product_id", int(productID))),
	)
	defer span.End()

	batches, err := r.next.FindByProductID(ctx, productID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result.count", len(batches)),
		attribute.Int("inventory.available", domain.TotalQuantity(batches)),
	)
	return batches, nil
}

func (r *TracingBatchRepository) Create(ctx context.Context, batches []domain.InventoryBatch) error {
	ctx, span := tracer.Start(ctx, "repository.CreateBatches",
		trace.WithAttributes(attribute.Int("batch.count", len(batches))),
	)
	defer span.End()

	if err := r.next.Create(ctx, batches); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (r *TracingBatchRepository) Mutate(ctx context.Context, productID uint, fn domain.BatchMutator) error {
	ctx, span := tracer.Start(ctx, "repository.MutateBatches",
		trace.WithAttributes(attribute.Int("inventory.product_id", int(productID))),
	)
	defer span.End()

	err := r.next.Mutate(ctx, productID, func(batches []*domain.InventoryBatch) error {
		span.SetAttributes(attribute.Int("batch.locked", len(batches)))
		return fn(batches)
	})
	if err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// TracingProductRepository wraps a ProductRepository with spans
type TracingProductRepository struct {
	next domain.ProductRepository
}

func NewTracingProductRepository(next domain.ProductRepository) *TracingProductRepository {
	return &TracingProductRepository{next: next}
}

func (r *TracingProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindProduct",
		trace.WithAttributes(attribute.Int("inventory.product_id", int(id))),
	)
	defer span.End()

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("product.sku", product.SKU))
	return product, nil
}

func (r *TracingProductRepository) Exists(ctx context.Context, id uint) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.ProductExists",
		trace.WithAttributes(attribute.Int("inventory.product_id", int(id))),
	)
	defer span.End()

	ok, err := r.next.Exists(ctx, id)
	if err != nil {
		recordError(span, err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("product.exists", ok))
	return ok, nil
}

func (r *TracingProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := tracer.Start(ctx, "repository.CreateProduct",
		trace.WithAttributes(attribute.String("product.sku", product.SKU)),
	)
	defer span.End()

	if err := r.next.Create(ctx, product); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (r *TracingProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.CountProducts")
	defer span.End()

	n, err := r.next.Count(ctx)
	if err != nil {
		recordError(span, err)
	}
	return n, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
