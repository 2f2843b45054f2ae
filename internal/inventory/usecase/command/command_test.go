package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/internal/inventory/depletion"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/internal/inventory/inventorytest"
	"github.com/tair/batch-allocation/kafka"
)

type recordingCache struct{ invalidated []uint }

func (c *recordingCache) Invalidate(_ context.Context, id uint) {
	c.invalidated = append(c.invalidated, id)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishInventoryDepleted(ctx context.Context, e kafka.InventoryDepletedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockPublisher) PublishInventoryRestocked(ctx context.Context, e kafka.InventoryRestockedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func newHandler(t *testing.T, s *inventorytest.Store, c *recordingCache, p EventPublisher) *UpdateInventoryHandler {
	t.Helper()
	registry, err := depletion.NewDefaultRegistry()
	require.NoError(t, err)
	var cache CacheInvalidator
	if c != nil {
		cache = c
	}
	return NewUpdateInventoryHandler(s.Products(), s.Batches(), registry, cache, p)
}

func TestUpdateInventorySpansBatches(t *testing.T) {
	s := inventorytest.Seeded()
	c := &recordingCache{}
	pub := &mockPublisher{}
	pub.On("PublishInventoryDepleted", mock.Anything, mock.MatchedBy(func(e kafka.InventoryDepletedEvent) bool {
		return e.Success && e.Requested == 120 && e.Strategy == depletion.StandardKey && len(e.Allocations) == 2
	})).Return(nil).Once()

	res, err := newHandler(t, s, c, pub).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 120})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, depletion.StandardKey, res.Strategy)
	assert.Equal(t, []domain.Allocation{{BatchID: 1, Quantity: 100}, {BatchID: 2, Quantity: 20}}, res.Allocations)
	assert.Equal(t, map[uint]int{1: 0, 2: 130, 3: 200}, s.Quantities(1))
	assert.Equal(t, []uint{1}, c.invalidated)
	pub.AssertExpectations(t)
}

func TestUpdateInventoryStandardDrainsOnShortage(t *testing.T) {
	s := inventorytest.Seeded()
	res, err := newHandler(t, s, &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 500})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Insufficient")
	assert.Equal(t, map[uint]int{1: 0, 2: 0, 3: 0}, s.Quantities(1))
}

func TestUpdateInventoryAtomicLeavesStockOnShortage(t *testing.T) {
	s := inventorytest.Seeded()
	c := &recordingCache{}
	res, err := newHandler(t, s, c, nil).Handle(context.Background(), UpdateInventoryCommand{
		ProductID:   1,
		Quantity:    500,
		StrategyKey: depletion.AtomicKey,
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, depletion.AtomicKey, res.Strategy)
	assert.Empty(t, res.Allocations)
	assert.Equal(t, map[uint]int{1: 100, 2: 150, 3: 200}, s.Quantities(1))
	assert.Empty(t, c.invalidated)
}

func TestUpdateInventoryUnknownKeyFallsBack(t *testing.T) {
	s := inventorytest.Seeded()
	res, err := newHandler(t, s, &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{
		ProductID:   1,
		Quantity:    10,
		StrategyKey: "standard",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, depletion.StandardKey, res.Strategy)
}

func TestUpdateInventoryProductNotFound(t *testing.T) {
	s := inventorytest.Seeded()
	res, err := newHandler(t, s, &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 99, Quantity: 1})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Product not found")
	assert.Empty(t, res.Allocations)
}

func TestUpdateInventoryRejectsNegativeQuantity(t *testing.T) {
	_, err := newHandler(t, inventorytest.Seeded(), &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpdateInventoryZeroQuantitySucceeds(t *testing.T) {
	s := inventorytest.Seeded()
	c := &recordingCache{}
	res, err := newHandler(t, s, c, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 0})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Allocations)
	assert.Empty(t, c.invalidated)
}

func TestUpdateInventoryRepositoryError(t *testing.T) {
	s := inventorytest.Seeded()
	s.Err = errors.New("connection refused")
	_, err := newHandler(t, s, &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, s.Err)
}

func TestUpdateInventoryPublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishInventoryDepleted", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	res, err := newHandler(t, inventorytest.Seeded(), &recordingCache{}, pub).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.True(t, res.Success)
	pub.AssertExpectations(t)
}

func TestRestockCreditsBatches(t *testing.T) {
	s := inventorytest.Seeded()
	c := &recordingCache{}
	pub := &mockPublisher{}
	pub.On("PublishInventoryRestocked", mock.Anything, mock.MatchedBy(func(e kafka.InventoryRestockedEvent) bool {
		return e.ProductID == 1 && len(e.Allocations) == 2
	})).Return(nil).Once()

	h := NewRestockHandler(s.Products(), s.Batches(), c, pub)
	units, err := h.Handle(context.Background(), RestockCommand{
		ProductID:   1,
		Allocations: []domain.Allocation{{BatchID: 1, Quantity: 40}, {BatchID: 3, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, units)
	assert.Equal(t, map[uint]int{1: 140, 2: 150, 3: 202}, s.Quantities(1))
	assert.Equal(t, []uint{1}, c.invalidated)
	pub.AssertExpectations(t)
}

func TestRestockUndoesDepletion(t *testing.T) {
	s := inventorytest.Seeded()
	res, err := newHandler(t, s, &recordingCache{}, nil).Handle(context.Background(), UpdateInventoryCommand{ProductID: 1, Quantity: 260})
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = NewRestockHandler(s.Products(), s.Batches(), nil, nil).Handle(context.Background(), RestockCommand{ProductID: 1, Allocations: res.Allocations})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 100, 2: 150, 3: 200}, s.Quantities(1))
}

func TestRestockUnknownBatchRollsBack(t *testing.T) {
	s := inventorytest.Seeded()
	h := NewRestockHandler(s.Products(), s.Batches(), nil, nil)
	_, err := h.Handle(context.Background(), RestockCommand{
		ProductID:   1,
		Allocations: []domain.Allocation{{BatchID: 1, Quantity: 5}, {BatchID: 77, Quantity: 5}},
	})
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
	assert.Equal(t, map[uint]int{1: 100, 2: 150, 3: 200}, s.Quantities(1))
}

func TestRestockValidation(t *testing.T) {
	s := inventorytest.Seeded()
	h := NewRestockHandler(s.Products(), s.Batches(), nil, nil)

	tests := []struct {
		name string
		cmd  RestockCommand
		want error
	}{
		{"missing product id", RestockCommand{Allocations: []domain.Allocation{{BatchID: 1, Quantity: 1}}}, domain.ErrInvalidProduct},
		{"negative quantity", RestockCommand{ProductID: 1, Allocations: []domain.Allocation{{BatchID: 1, Quantity: -1}}}, domain.ErrInvalidQuantity},
		{"nothing to credit", RestockCommand{ProductID: 1}, domain.ErrEmptyRestock},
		{"unknown product", RestockCommand{ProductID: 9, Allocations: []domain.Allocation{{BatchID: 1, Quantity: 1}}}, domain.ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
