// Package depletion decides which inventory batches satisfy a requested
// quantity. Engines are pure: they only touch the batches handed to them and
// leave persistence to the caller.
package depletion

import (
	"sort"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

// Engine is a named depletion strategy
type Engine interface {
	Key() string
	Deplete(batches []*domain.InventoryBatch, requested int) Result
}

// Result reports whether the full quantity was taken and from which batches,
// in consumption order
type Result struct {
	Success     bool                `json:"success"`
	Allocations []domain.Allocation `json:"allocations"`
}

// Taken is the total quantity removed across all allocations
func (r Result) Taken() int {
	n := 0
	for _, a := range r.Allocations {
		n += a.Quantity
	}
	return n
}

// byExpiry returns a view of batches ordered by ascending expiry. Batches
// expiring on the same date keep their input order.
func byExpiry(batches []*domain.InventoryBatch) []*domain.InventoryBatch {
	view := make([]*domain.InventoryBatch, 0, len(batches))
	for _, b := range batches {
		if b != nil {
			view = append(view, b)
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].ExpiryDate.Before(view[j].ExpiryDate)
	})
	return view
}

// step is one planned take from a specific batch
type step struct {
	batch *domain.InventoryBatch
	take  int
}

// plan walks the ordered view greedily without mutating it and returns the
// planned takes together with whatever could not be covered
func plan(ordered []*domain.InventoryBatch, requested int) ([]step, int) {
	remaining := requested
	var steps []step

	for _, b := range ordered {
		if remaining <= 0 {
			break
		}

		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}

		steps = append(steps, step{batch: b, take: take})
		remaining -= take
	}

	return steps, remaining
}

// apply subtracts every planned take and reports them as allocations
func apply(steps []step) []domain.Allocation {
	allocations := make([]domain.Allocation, 0, len(steps))
	for _, s := range steps {
		s.batch.Quantity -= s.take
		allocations = append(allocations, domain.Allocation{BatchID: s.batch.ID, Quantity: s.take})
	}
	return allocations
}
