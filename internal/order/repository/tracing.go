package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/batch-allocation/internal/order/domain"
)

var tracer = otel.Tracer("order-repository")

// TracingOrderRepository wraps an OrderRepository with spans
type TracingOrderRepository struct {
	next domain.OrderRepository
}

func NewTracingOrderRepository(next domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{next: next}
}

func (r *TracingOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "repository.CreateOrder",
		trace.WithAttributes(
			attribute.Int("order.items", len(order.Items)),
			attribute.String("order.status", order.Status),
		),
	)
	defer span.End()

	if err := r.next.Create(ctx, order); err != nil {
		recordError(span, err)
		return err
	}
	span.SetAttributes(attribute.Int("order.id", int(order.ID)))
	return nil
}

func (r *TracingOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.FindOrder",
		trace.WithAttributes(attribute.Int("order.id", int(id))),
	)
	defer span.End()

	order, err := r.next.FindByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return order, nil
}

func (r *TracingOrderRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.ListOrders",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	orders, err := r.next.FindAll(ctx, limit, offset)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(orders)))
	return orders, nil
}

func (r *TracingOrderRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateOrderStatus",
		trace.WithAttributes(
			attribute.Int("order.id", int(id)),
			attribute.String("order.status", status),
		),
	)
	defer span.End()

	if err := r.next.UpdateStatus(ctx, id, status); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
