// Package ordertest provides an in-memory order repository for tests.
package ordertest

import (
	"context"
	"sort"
	"sync"

	"github.com/tair/batch-allocation/internal/order/domain"
)

type Repository struct {
	mu     sync.Mutex
	orders map[uint]domain.Order
	nextID uint

	// Err, when set, is returned by every call
	Err error
	// StatusHistory records every UpdateStatus call per order
	StatusHistory map[uint][]string
}

func NewRepository() *Repository {
	return &Repository{
		orders:        map[uint]domain.Order{},
		StatusHistory: map[uint][]string{},
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	r.nextID++
	order.ID = r.nextID
	for i := range order.Items {
		r.nextID++
		order.Items[i].ID = r.nextID
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = clone(*order)
	return nil
}

func (r *Repository) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o = clone(o)
	return &o, nil
}

func (r *Repository) FindAll(_ context.Context, limit, offset int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	ids := make([]uint, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []domain.Order{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, clone(r.orders[ids[i]]))
	}
	return out, nil
}

func (r *Repository) UpdateStatus(_ context.Context, id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	r.orders[id] = o
	r.StatusHistory[id] = append(r.StatusHistory[id], status)
	return nil
}

// Len is the number of stored orders
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func clone(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}
