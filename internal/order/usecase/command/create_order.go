package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/logger"
)

// OrderPublisher emits order events. A nil publisher disables them.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, event kafka.OrderPlacedEvent) error
}

// ItemInput is one requested line item
type ItemInput struct {
	ProductID   uint
	Quantity    int
	Price       decimal.Decimal
	StrategyKey string
}

// CreateOrderCommand represents the command to place an order
type CreateOrderCommand struct {
	CustomerName  string
	CustomerEmail string
	Items         []ItemInput
}

// CreateOrderHandler handles the create order command
type CreateOrderHandler struct {
	repo      domain.OrderRepository
	inventory domain.InventoryClient
	publisher OrderPublisher
	saga      bool
	now       func() time.Time
}

// NewCreateOrderHandler creates a new create order handler. With saga enabled
// a failed depletion cancels the order and restocks what was already taken.
func NewCreateOrderHandler(repo domain.OrderRepository, inventory domain.InventoryClient, publisher OrderPublisher, saga bool) *CreateOrderHandler {
	return &CreateOrderHandler{
		repo:      repo,
		inventory: inventory,
		publisher: publisher,
		saga:      saga,
		now:       time.Now,
	}
}

// depleted is a line item whose stock has been taken
type depleted struct {
	productID   uint
	allocations []domain.Allocation
}

// Handle checks availability for every item, persists the order and then
// depletes inventory item by item.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := validate(cmd); err != nil {
		ordersTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := h.checkAvailability(ctx, cmd.Items); err != nil {
		var insufficient *domain.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			ordersTotal.WithLabelValues("insufficient").Inc()
		} else {
			ordersTotal.WithLabelValues("unavailable").Inc()
		}
		return nil, err
	}

	order := h.buildOrder(cmd)
	if err := h.repo.Create(ctx, order); err != nil {
		ordersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("status", order.Status).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("Order persisted")

	if h.saga {
		if err := h.depleteAll(ctx, order); err != nil {
			return nil, err
		}
	} else {
		h.depleteBestEffort(ctx, order)
	}

	ordersTotal.WithLabelValues(strings.ToLower(order.Status)).Inc()
	h.publish(ctx, order)
	return order, nil
}

func validate(cmd CreateOrderCommand) error {
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", domain.ErrInvalidOrder)
	}
	for i, item := range cmd.Items {
		switch {
		case item.ProductID == 0:
			return fmt.Errorf("%w: item %d: product_id is required", domain.ErrInvalidOrder, i)
		case item.Quantity <= 0:
			return fmt.Errorf("%w: item %d: quantity must be greater than 0", domain.ErrInvalidOrder, i)
		case item.Price.IsNegative():
			return fmt.Errorf("%w: item %d: price cannot be negative", domain.ErrInvalidOrder, i)
		}
	}
	return nil
}

// checkAvailability stops at the first item that cannot be served
func (h *CreateOrderHandler) checkAvailability(ctx context.Context, items []ItemInput) error {
	for _, item := range items {
		batches, err := h.inventory.CheckInventory(ctx, item.ProductID)
		if err != nil {
			logger.Error(ctx).Err(err).Uint("product_id", item.ProductID).Msg("Inventory check failed")
			return err
		}

		available := 0
		for _, b := range batches {
			available += b.Quantity
		}
		if available < item.Quantity {
			logger.Warn(ctx).
				Uint("product_id", item.ProductID).
				Int("requested", item.Quantity).
				Int("available", available).
				Msg("Order rejected, insufficient inventory")
			return &domain.InsufficientInventoryError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			}
		}
	}
	return nil
}

func (h *CreateOrderHandler) buildOrder(cmd CreateOrderCommand) *domain.Order {
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, in := range cmd.Items {
		items[i] = domain.OrderItem{
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			Price:       in.Price,
			StrategyKey: in.StrategyKey,
		}
	}

	status := domain.StatusPlaced
	if h.saga {
		status = domain.StatusPending
	}

	return &domain.Order{
		CustomerName:  cmd.CustomerName,
		CustomerEmail: cmd.CustomerEmail,
		OrderDate:     h.now().UTC(),
		Status:        status,
		TotalAmount:   domain.CalculateTotal(items),
		Items:         items,
	}
}

// depleteBestEffort attempts every item; failures leave the order PLACED
func (h *CreateOrderHandler) depleteBestEffort(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		res, err := h.inventory.UpdateInventory(ctx, item.ProductID, item.Quantity, item.StrategyKey)
		switch {
		case err != nil:
			depletionFailuresTotal.WithLabelValues("unavailable").Inc()
			logger.Error(ctx).Err(err).
				Uint("order_id", order.ID).
				Uint("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("Inventory depletion failed")
		case !res.Success:
			depletionFailuresTotal.WithLabelValues("rejected").Inc()
			logger.Warn(ctx).
				Uint("order_id", order.ID).
				Uint("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Str("reason", res.Message).
				Msg("Inventory depletion rejected")
		default:
			logger.Debug(ctx).
				Uint("order_id", order.ID).
				Uint("product_id", item.ProductID).
				Str("strategy", res.Strategy).
				Msg("Inventory depleted")
		}
	}
}

// depleteAll confirms the order or cancels it and restocks earlier items in
// reverse order. A transport fault leaves the failing item's outcome unknown,
// since the inventory service may have committed, so the order ends FAILED
// rather than CANCELLED.
func (h *CreateOrderHandler) depleteAll(ctx context.Context, order *domain.Order) error {
	done := make([]depleted, 0, len(order.Items))

	for _, item := range order.Items {
		res, err := h.inventory.UpdateInventory(ctx, item.ProductID, item.Quantity, item.StrategyKey)
		var (
			reason  string
			unknown bool
		)
		switch {
		case err != nil:
			depletionFailuresTotal.WithLabelValues("unavailable").Inc()
			reason = err.Error()
			unknown = true
		case !res.Success:
			depletionFailuresTotal.WithLabelValues("rejected").Inc()
			reason = res.Message
			// a STANDARD failure may still have drained batches
			if len(res.Allocations) > 0 {
				done = append(done, depleted{productID: item.ProductID, allocations: res.Allocations})
			}
		default:
			done = append(done, depleted{productID: item.ProductID, allocations: res.Allocations})
			continue
		}

		logger.Warn(ctx).
			Uint("order_id", order.ID).
			Uint("product_id", item.ProductID).
			Str("reason", reason).
			Msg("Depletion failed, cancelling order")

		status := domain.StatusCancelled
		if !h.compensate(ctx, order.ID, done) || unknown {
			status = domain.StatusFailed
		}
		h.setStatus(ctx, order, status)
		ordersTotal.WithLabelValues(strings.ToLower(status)).Inc()
		h.publish(ctx, order)

		return &domain.OrderCancelledError{Order: order, ProductID: item.ProductID, Reason: reason}
	}

	h.setStatus(ctx, order, domain.StatusConfirmed)
	return nil
}

// compensate reports whether every restock succeeded. It keeps going after a
// failure so as much stock as possible is returned.
func (h *CreateOrderHandler) compensate(ctx context.Context, orderID uint, done []depleted) bool {
	ok := true
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		if err := h.inventory.RestockInventory(ctx, d.productID, d.allocations); err != nil {
			ok = false
			compensationsTotal.WithLabelValues("failed").Inc()
			logger.Error(ctx).Err(err).
				Uint("order_id", orderID).
				Uint("product_id", d.productID).
				Msg("Restock failed, stock not returned")
			continue
		}
		compensationsTotal.WithLabelValues("ok").Inc()
	}
	return ok
}

// setStatus updates the in-memory order even when persisting fails so the
// caller sees what happened
func (h *CreateOrderHandler) setStatus(ctx context.Context, order *domain.Order, status string) {
	order.Status = status
	if err := h.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		logger.Error(ctx).Err(err).
			Uint("order_id", order.ID).
			Str("status", status).
			Msg("Failed to update order status")
	}
}

func (h *CreateOrderHandler) publish(ctx context.Context, order *domain.Order) {
	if h.publisher == nil {
		return
	}

	items := make([]kafka.OrderItemRecord, len(order.Items))
	for i, item := range order.Items {
		items[i] = kafka.OrderItemRecord{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			StrategyKey: item.StrategyKey,
		}
	}

	event := kafka.OrderPlacedEvent{
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items:       items,
		Timestamp:   h.now().UTC(),
	}
	if err := h.publisher.PublishOrderPlaced(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order event")
	}
}
