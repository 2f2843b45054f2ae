package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/internal/order/ordertest"
)

func seed(t *testing.T, repo *ordertest.Repository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &domain.Order{
			CustomerName: "Customer",
			Status:       domain.StatusPlaced,
			Items:        []domain.OrderItem{{ProductID: 1, Quantity: 1}},
		}))
	}
}

func TestGetOrder(t *testing.T) {
	repo := ordertest.NewRepository()
	seed(t, repo, 1)
	h := NewGetOrderHandler(repo)
	ctx := context.Background()

	order, err := h.Handle(ctx, GetOrderQuery{ID: 1})
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)

	_, err = h.Handle(ctx, GetOrderQuery{ID: 99})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = h.Handle(ctx, GetOrderQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestListOrdersPaging(t *testing.T) {
	repo := ordertest.NewRepository()
	seed(t, repo, 3)
	h := NewListOrdersHandler(repo)
	ctx := context.Background()

	all, err := h.Handle(ctx, ListOrdersQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := h.Handle(ctx, ListOrdersQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].ID, page[0].ID)

	page, err = h.Handle(ctx, ListOrdersQuery{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestListOrdersRepositoryError(t *testing.T) {
	repo := ordertest.NewRepository()
	repo.Err = errors.New("connection reset")

	_, err := NewListOrdersHandler(repo).Handle(context.Background(), ListOrdersQuery{Limit: 1000})
	assert.ErrorIs(t, err, repo.Err)
}
