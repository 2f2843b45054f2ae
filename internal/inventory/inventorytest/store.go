// Package inventorytest provides an in-memory implementation of the inventory
// repositories for tests.
package inventorytest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

// Store holds products and batches in memory. Mutate is serialized and
// commits only when the mutator succeeds.
type Store struct {
	mu       sync.Mutex
	products map[uint]domain.Product
	batches  map[uint][]domain.InventoryBatch
	nextID   uint

	// Err, when set, is returned by every read and write
	Err error
}

func NewStore() *Store {
	return &Store{
		products: map[uint]domain.Product{},
		batches:  map[uint][]domain.InventoryBatch{},
	}
}

// Seeded returns a store with product 1 holding batches 1, 2 and 3 of 100,
// 150 and 200 units expiring in that order. They are inserted out of order.
func Seeded() *Store {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	s := NewStore()
	s.AddProduct(domain.Product{ID: 1, Name: "Paracetamol", SKU: "MED-PARA-001"})
	s.AddBatches(
		domain.InventoryBatch{ID: 3, BatchCode: "P-003", ProductID: 1, Quantity: 200, ExpiryDate: now.AddDate(0, 18, 0)},
		domain.InventoryBatch{ID: 1, BatchCode: "P-001", ProductID: 1, Quantity: 100, ExpiryDate: now.AddDate(0, 6, 0)},
		domain.InventoryBatch{ID: 2, BatchCode: "P-002", ProductID: 1, Quantity: 150, ExpiryDate: now.AddDate(0, 12, 0)},
	)
	return s
}

func (s *Store) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) AddBatches(batches ...domain.InventoryBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range batches {
		s.batches[b.ProductID] = append(s.batches[b.ProductID], b)
	}
}

// Quantities maps batch id to quantity for a product
func (s *Store) Quantities(productID uint) map[uint]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint]int{}
	for _, b := range s.batches[productID] {
		out[b.ID] = b.Quantity
	}
	return out
}

// Products returns the ProductRepository view of the store
func (s *Store) Products() domain.ProductRepository { return productRepo{s} }

// Batches returns the BatchRepository view of the store
func (s *Store) Batches() domain.BatchRepository { return batchRepo{s} }

func (s *Store) ordered(productID uint) []domain.InventoryBatch {
	out := append([]domain.InventoryBatch{}, s.batches[productID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiryDate.Before(out[j].ExpiryDate)
	})
	return out
}

type productRepo struct{ s *Store }

func (r productRepo) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r productRepo) Exists(_ context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	_, ok := r.s.products[id]
	return ok, nil
}

func (r productRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if p.ID == 0 {
		r.s.nextID++
		p.ID = 1000 + r.s.nextID
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.products)), r.s.Err
}

type batchRepo struct{ s *Store }

func (r batchRepo) FindByProductID(_ context.Context, productID uint) ([]domain.InventoryBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return r.s.ordered(productID), nil
}

func (r batchRepo) Create(_ context.Context, batches []domain.InventoryBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for i := range batches {
		if batches[i].ID == 0 {
			r.s.nextID++
			batches[i].ID = 1000 + r.s.nextID
		}
		r.s.batches[batches[i].ProductID] = append(r.s.batches[batches[i].ProductID], batches[i])
	}
	return nil
}

func (r batchRepo) Mutate(_ context.Context, productID uint, fn domain.BatchMutator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}

	working := r.s.ordered(productID)
	ptrs := make([]*domain.InventoryBatch, len(working))
	for i := range working {
		ptrs[i] = &working[i]
	}
	if err := fn(ptrs); err != nil {
		return err
	}
	for _, b := range working {
		if b.Quantity < 0 {
			return errors.New("batch quantity would become negative")
		}
	}
	r.s.batches[productID] = working
	return nil
}
